package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/gradapply/admission-service/internal/models"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ByApplication(ctx context.Context, applicationID string) ([]models.Document, error)
	CountByTypes(ctx context.Context, applicationID string, types []models.DocumentType) (int, error)
	Delete(ctx context.Context, id string) error
}

type documentRepository struct {
	*PostgresRepository
}

func NewDocumentRepository(db *sql.DB, logger zerolog.Logger) DocumentRepository {
	return &documentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *documentRepository) Create(ctx context.Context, document *models.Document) error {
	query := `
		INSERT INTO documents (id, application_id, type, file_id, file_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.conn(ctx).ExecContext(ctx, query,
		document.ID,
		document.ApplicationID,
		document.Type,
		document.FileID,
		document.FileName,
		document.CreatedAt,
	)

	return err
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := `
		SELECT id, application_id, type, file_id, file_name, created_at
		FROM documents
		WHERE id = $1
	`

	document := &models.Document{}
	err := r.conn(ctx).QueryRowContext(ctx, query, id).Scan(
		&document.ID,
		&document.ApplicationID,
		&document.Type,
		&document.FileID,
		&document.FileName,
		&document.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return document, err
}

func (r *documentRepository) ByApplication(ctx context.Context, applicationID string) ([]models.Document, error) {
	query := `
		SELECT id, application_id, type, file_id, file_name, created_at
		FROM documents
		WHERE application_id = $1
		ORDER BY created_at
	`

	rows, err := r.conn(ctx).QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []models.Document
	for rows.Next() {
		var document models.Document
		err := rows.Scan(
			&document.ID,
			&document.ApplicationID,
			&document.Type,
			&document.FileID,
			&document.FileName,
			&document.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}

	return documents, rows.Err()
}

func (r *documentRepository) CountByTypes(ctx context.Context, applicationID string, types []models.DocumentType) (int, error) {
	typeStrings := make([]string, len(types))
	for i, t := range types {
		typeStrings[i] = string(t)
	}

	// distinct: two uploads of the same type count once for the gate
	query := `
		SELECT COUNT(DISTINCT type)
		FROM documents
		WHERE application_id = $1 AND type = ANY($2)
	`

	var count int
	err := r.conn(ctx).QueryRowContext(ctx, query, applicationID, pq.Array(typeStrings)).Scan(&count)
	return count, err
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}

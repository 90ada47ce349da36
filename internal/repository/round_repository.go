package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/gradapply/admission-service/internal/models"
)

type RoundRepository interface {
	GetByID(ctx context.Context, id string) (*models.AdmissionRound, error)
	GetActiveByType(ctx context.Context, roundType models.RoundType) (*models.AdmissionRound, error)
	GetActive(ctx context.Context) (*models.AdmissionRound, error)
}

type roundRepository struct {
	*PostgresRepository
}

func NewRoundRepository(db *sql.DB, logger zerolog.Logger) RoundRepository {
	return &roundRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const roundColumns = `id, title, year, type, registration_start, registration_end, is_active, created_at, updated_at`

func (r *roundRepository) scanRound(row *sql.Row) (*models.AdmissionRound, error) {
	round := &models.AdmissionRound{}
	err := row.Scan(
		&round.ID,
		&round.Title,
		&round.Year,
		&round.Type,
		&round.RegistrationStart,
		&round.RegistrationEnd,
		&round.IsActive,
		&round.CreatedAt,
		&round.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return round, err
}

func (r *roundRepository) GetByID(ctx context.Context, id string) (*models.AdmissionRound, error) {
	query := `
		SELECT ` + roundColumns + `
		FROM admission_rounds
		WHERE id = $1
	`

	return r.scanRound(r.conn(ctx).QueryRowContext(ctx, query, id))
}

func (r *roundRepository) GetActiveByType(ctx context.Context, roundType models.RoundType) (*models.AdmissionRound, error) {
	query := `
		SELECT ` + roundColumns + `
		FROM admission_rounds
		WHERE type = $1 AND is_active = true
		ORDER BY year DESC, created_at DESC
		LIMIT 1
	`

	return r.scanRound(r.conn(ctx).QueryRowContext(ctx, query, roundType))
}

func (r *roundRepository) GetActive(ctx context.Context) (*models.AdmissionRound, error) {
	query := `
		SELECT ` + roundColumns + `
		FROM admission_rounds
		WHERE is_active = true
		ORDER BY year DESC, created_at DESC
		LIMIT 1
	`

	return r.scanRound(r.conn(ctx).QueryRowContext(ctx, query))
}

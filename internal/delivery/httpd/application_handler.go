package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gradapply/admission-service/internal/models"
	"github.com/gradapply/admission-service/pkg/utils"
)

func (h *Handler) RegisterApplication(w http.ResponseWriter, r *http.Request) {
	var req models.CreateApplicationRequest
	if r.ContentLength > 0 {
		if err := utils.ReadJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := h.validate.Struct(&req); err != nil {
			h.validationError(w, err)
			return
		}
	}

	ctx := r.Context()
	application, err := h.applicationService.Register(ctx, userIDFromContext(ctx), req.RoundID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    application,
	})
}

func (h *Handler) MyApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	applications, err := h.applicationService.MyApplications(ctx, userIDFromContext(ctx))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, applications)
}

func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	if applicationID == "" {
		writeError(w, http.StatusBadRequest, "Application ID is required")
		return
	}

	ctx := r.Context()
	application, err := h.applicationService.GetApplication(ctx, userIDFromContext(ctx), applicationID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, application)
}

func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	if applicationID == "" {
		writeError(w, http.StatusBadRequest, "Application ID is required")
		return
	}

	ctx := r.Context()
	application, err := h.applicationService.Submit(ctx, userIDFromContext(ctx), applicationID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, models.SubmitApplicationResponse{
		Message:     "Application submitted",
		Application: application,
		SubmittedAt: application.SubmittedAt,
	})
}

func (h *Handler) ListEducationRecords(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	if applicationID == "" {
		writeError(w, http.StatusBadRequest, "Application ID is required")
		return
	}

	ctx := r.Context()
	records, err := h.applicationService.ListEducationRecords(ctx, userIDFromContext(ctx), applicationID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, records)
}

func (h *Handler) AddEducationRecord(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	if applicationID == "" {
		writeError(w, http.StatusBadRequest, "Application ID is required")
		return
	}

	var req models.CreateEducationRecordRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.validationError(w, err)
		return
	}

	ctx := r.Context()
	record, err := h.applicationService.AddEducationRecord(ctx, userIDFromContext(ctx), applicationID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    record,
	})
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	if applicationID == "" {
		writeError(w, http.StatusBadRequest, "Application ID is required")
		return
	}

	ctx := r.Context()
	documents, err := h.applicationService.ListDocuments(ctx, userIDFromContext(ctx), applicationID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, documents)
}

func (h *Handler) AddDocument(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	if applicationID == "" {
		writeError(w, http.StatusBadRequest, "Application ID is required")
		return
	}

	var req models.CreateDocumentRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.validationError(w, err)
		return
	}

	ctx := r.Context()
	document, err := h.applicationService.AddDocument(ctx, userIDFromContext(ctx), applicationID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    document,
	})
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	documentID := chi.URLParam(r, "documentID")
	if applicationID == "" || documentID == "" {
		writeError(w, http.StatusBadRequest, "Application ID and document ID are required")
		return
	}

	ctx := r.Context()
	if err := h.applicationService.DeleteDocument(ctx, userIDFromContext(ctx), applicationID, documentID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Document deleted"})
}

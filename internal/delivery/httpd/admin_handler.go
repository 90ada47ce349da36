package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gradapply/admission-service/internal/models"
	"github.com/gradapply/admission-service/pkg/utils"
)

func (h *Handler) AdminListApplications(w http.ResponseWriter, r *http.Request) {
	roundID := r.URL.Query().Get("round_id")
	status := models.ApplicationStatus(r.URL.Query().Get("status"))
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	ctx := r.Context()
	result, err := h.adminService.ListApplications(ctx, permissionFromContext(ctx), roundID, status, page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) UniversityReview(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	if applicationID == "" {
		writeError(w, http.StatusBadRequest, "Application ID is required")
		return
	}

	var req models.UniversityReviewRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.validationError(w, err)
		return
	}

	ctx := r.Context()
	application, err := h.adminService.UniversityReview(ctx, permissionFromContext(ctx), applicationID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, application)
}

func (h *Handler) FacultyReview(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	if applicationID == "" {
		writeError(w, http.StatusBadRequest, "Application ID is required")
		return
	}

	var req models.FacultyReviewRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.validationError(w, err)
		return
	}

	ctx := r.Context()
	application, err := h.adminService.FacultyReview(ctx, permissionFromContext(ctx), applicationID, &req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, application)
}

func (h *Handler) SetScore(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	if applicationID == "" {
		writeError(w, http.StatusBadRequest, "Application ID is required")
		return
	}

	var req models.SetScoreRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.validationError(w, err)
		return
	}

	ctx := r.Context()
	if err := h.adminService.SetScore(ctx, permissionFromContext(ctx), applicationID, &req); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Score updated"})
}

func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	roundID := r.URL.Query().Get("round_id")

	ctx := r.Context()
	stats, err := h.adminService.Statistics(ctx, permissionFromContext(ctx), roundID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, stats)
}

package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gradapply/admission-service/internal/models"
	"github.com/gradapply/admission-service/pkg/utils"
)

func (h *Handler) AllocationPreview(w http.ResponseWriter, r *http.Request) {
	roundID := r.URL.Query().Get("round_id")
	roundType := models.RoundType(r.URL.Query().Get("round_type"))

	ctx := r.Context()
	preview, err := h.allocationService.Preview(ctx, permissionFromContext(ctx), roundID, roundType)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, preview)
}

func (h *Handler) RunAllocation(w http.ResponseWriter, r *http.Request) {
	var req models.RunAllocationRequest
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
	result, err := h.allocationService.Run(ctx, permissionFromContext(ctx), req.RoundID, models.RoundType(req.RoundType))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) AcceptChoice(w http.ResponseWriter, r *http.Request) {
	choiceID := chi.URLParam(r, "choiceID")
	if choiceID == "" {
		writeError(w, http.StatusBadRequest, "Choice ID is required")
		return
	}

	ctx := r.Context()
	if err := h.allocationService.AcceptChoice(ctx, permissionFromContext(ctx), choiceID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Choice accepted"})
}

package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gradapply/admission-service/internal/models"
	"github.com/gradapply/admission-service/pkg/utils"
)

func (h *Handler) ListChoices(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	if applicationID == "" {
		writeError(w, http.StatusBadRequest, "Application ID is required")
		return
	}

	ctx := r.Context()
	choices, err := h.choiceService.ListChoices(ctx, userIDFromContext(ctx), applicationID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, choices)
}

// CreateChoices accepts either a full preference list, which replaces the
// existing set atomically, or a single choice to append.
func (h *Handler) CreateChoices(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	if applicationID == "" {
		writeError(w, http.StatusBadRequest, "Application ID is required")
		return
	}

	var body struct {
		Choices   []models.ChoiceInput `json:"choices"`
		ProgramID string               `json:"program_id"`
		Priority  int                  `json:"priority"`
	}
	if err := utils.ReadJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()

	if body.Choices != nil {
		req := models.SetChoicesRequest{Choices: body.Choices}
		if err := h.validate.Struct(&req); err != nil {
			h.validationError(w, err)
			return
		}

		choices, err := h.choiceService.SetChoices(ctx, userIDFromContext(ctx), applicationID, req.Choices)
		if err != nil {
			h.handleServiceError(w, err)
			return
		}
		writeSuccess(w, choices)
		return
	}

	req := models.AddChoiceRequest{ProgramID: body.ProgramID, Priority: body.Priority}
	if err := h.validate.Struct(&req); err != nil {
		h.validationError(w, err)
		return
	}

	choices, err := h.choiceService.AddChoice(ctx, userIDFromContext(ctx), applicationID, models.ChoiceInput{
		ProgramID: req.ProgramID,
		Priority:  req.Priority,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    choices,
	})
}

func (h *Handler) ReorderChoice(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	choiceID := chi.URLParam(r, "choiceID")
	if applicationID == "" || choiceID == "" {
		writeError(w, http.StatusBadRequest, "Application ID and choice ID are required")
		return
	}

	var req models.ReorderChoiceRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		h.validationError(w, err)
		return
	}

	ctx := r.Context()
	choices, err := h.choiceService.ReorderChoice(ctx, userIDFromContext(ctx), applicationID, choiceID, req.Priority)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, choices)
}

func (h *Handler) DeleteChoice(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	choiceID := chi.URLParam(r, "choiceID")
	if applicationID == "" || choiceID == "" {
		writeError(w, http.StatusBadRequest, "Application ID and choice ID are required")
		return
	}

	ctx := r.Context()
	if err := h.choiceService.DeleteChoice(ctx, userIDFromContext(ctx), applicationID, choiceID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Choice deleted"})
}

func (h *Handler) DeleteAllChoices(w http.ResponseWriter, r *http.Request) {
	applicationID := chi.URLParam(r, "id")
	if applicationID == "" {
		writeError(w, http.StatusBadRequest, "Application ID is required")
		return
	}

	ctx := r.Context()
	if err := h.choiceService.DeleteAllChoices(ctx, userIDFromContext(ctx), applicationID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Choices cleared"})
}

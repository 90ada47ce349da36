package httpd

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/gradapply/admission-service/internal/service"
	"github.com/gradapply/admission-service/pkg/utils"
)

type Handler struct {
	applicationService service.ApplicationService
	choiceService      service.ChoiceService
	allocationService  service.AllocationService
	adminService       service.AdminService
	jwtSecret          string
	validate           *validator.Validate
	logger             zerolog.Logger
}

func NewHandler(
	applicationService service.ApplicationService,
	choiceService service.ChoiceService,
	allocationService service.AllocationService,
	adminService service.AdminService,
	jwtSecret string,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		applicationService: applicationService,
		choiceService:      choiceService,
		allocationService:  allocationService,
		adminService:       adminService,
		jwtSecret:          jwtSecret,
		validate:           validator.New(),
		logger:             logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Route("/applications", func(r chi.Router) {
			r.Use(h.Authenticate)

			r.Post("/", h.RegisterApplication)
			r.Get("/", h.MyApplications)
			r.Get("/{id}", h.GetApplication)
			r.Post("/{id}/submit", h.SubmitApplication)

			r.Get("/{id}/choices", h.ListChoices)
			r.Post("/{id}/choices", h.CreateChoices)
			r.Delete("/{id}/choices", h.DeleteAllChoices)
			r.Patch("/{id}/choices/{choiceID}", h.ReorderChoice)
			r.Delete("/{id}/choices/{choiceID}", h.DeleteChoice)

			r.Get("/{id}/education", h.ListEducationRecords)
			r.Post("/{id}/education", h.AddEducationRecord)
			r.Get("/{id}/documents", h.ListDocuments)
			r.Post("/{id}/documents", h.AddDocument)
			r.Delete("/{id}/documents/{documentID}", h.DeleteDocument)
		})

		api.Route("/admin", func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Use(h.RequireAdmin)

			r.Get("/allocation/preview", h.AllocationPreview)
			r.Post("/allocation/run", h.RunAllocation)
			r.Post("/allocation/choices/{choiceID}/accept", h.AcceptChoice)

			r.Get("/applications", h.AdminListApplications)
			r.Post("/applications/{id}/review/university", h.UniversityReview)
			r.Post("/applications/{id}/review/faculty", h.FacultyReview)
			r.Put("/applications/{id}/score", h.SetScore)
			r.Get("/statistics", h.Statistics)
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "admission-service",
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, response)
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	utils.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}

// handleServiceError maps the service error taxonomy onto HTTP codes. A
// validation error keeps its full defect list in the response body.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  http.StatusText(http.StatusBadRequest),
			"errors": validationErr.Messages,
		})
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *Handler) validationError(w http.ResponseWriter, err error) {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		messages := make([]string, 0, len(errs))
		for _, fieldErr := range errs {
			messages = append(messages, fieldErr.Field()+": "+fieldErr.Tag())
		}
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  http.StatusText(http.StatusBadRequest),
			"errors": messages,
		})
		return
	}

	writeError(w, http.StatusBadRequest, "Invalid request body")
}

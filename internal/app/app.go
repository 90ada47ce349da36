package app

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/gradapply/admission-service/internal/config"
	"github.com/gradapply/admission-service/internal/delivery/httpd"
	"github.com/gradapply/admission-service/internal/repository"
	"github.com/gradapply/admission-service/internal/service"
	"github.com/gradapply/admission-service/internal/service/integration"
)

type App struct {
	server    *http.Server
	logger    zerolog.Logger
	config    *config.Config
	db        *sql.DB
	publisher integration.EventPublisher
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	fileClient := integration.NewFileClient(
		cfg.Services.File.URL,
		cfg.Services.File.DeleteEndpoint,
		cfg.Services.File.Timeout,
		cfg.Services.File.RetryCount,
		cfg.Services.File.RetryDelay,
		log,
	)

	publisher, err := integration.NewRabbitMQPublisher(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.RoutingKey,
		cfg.RabbitMQ.QueueName,
		log,
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create RabbitMQ publisher")
		// result events are best-effort, the service can start without broker
	}

	base := repository.NewPostgresRepository(db, log)
	roundRepo := repository.NewRoundRepository(db, log)
	programRepo := repository.NewProgramRepository(db, log)
	applicantRepo := repository.NewApplicantRepository(db, log)
	applicationRepo := repository.NewApplicationRepository(db, log)
	choiceRepo := repository.NewChoiceRepository(db, log)
	educationRepo := repository.NewEducationRepository(db, log)
	documentRepo := repository.NewDocumentRepository(db, log)
	adminRepo := repository.NewAdminRepository(db, log)

	applicationService := service.NewApplicationService(
		applicationRepo,
		applicantRepo,
		choiceRepo,
		educationRepo,
		documentRepo,
		roundRepo,
		fileClient,
		base,
		log,
	)
	choiceService := service.NewChoiceService(
		choiceRepo,
		applicationRepo,
		programRepo,
		roundRepo,
		base,
		log,
	)
	adminService := service.NewAdminService(
		adminRepo,
		applicationRepo,
		educationRepo,
		roundRepo,
		base,
		log,
	)
	allocationService := service.NewAllocationService(
		choiceRepo,
		applicationRepo,
		programRepo,
		roundRepo,
		base,
		base,
		publisher,
		log,
	)

	handler := httpd.NewHandler(
		applicationService,
		choiceService,
		allocationService,
		adminService,
		cfg.Auth.JWTSecret,
		log,
	)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(cfg.Server.WriteTimeout))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:    server,
		logger:    log,
		config:    cfg,
		db:        db,
		publisher: publisher,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting admission service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down admission service...")

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return a.server.Shutdown(ctx)
}

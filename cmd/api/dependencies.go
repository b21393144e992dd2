package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/FACorreiaa/ledgerlens/internal/domain/auth"
	"github.com/FACorreiaa/ledgerlens/internal/domain/category"
	"github.com/FACorreiaa/ledgerlens/internal/domain/statement"
	"github.com/FACorreiaa/ledgerlens/internal/domain/tag"
	"github.com/FACorreiaa/ledgerlens/internal/ingest"
	"github.com/FACorreiaa/ledgerlens/internal/ingest/completion"
	"github.com/FACorreiaa/ledgerlens/internal/ingest/ocr"
	"github.com/FACorreiaa/ledgerlens/internal/ingest/pdf"
	"github.com/FACorreiaa/ledgerlens/internal/ingest/queue"
	"github.com/FACorreiaa/ledgerlens/internal/server"
	"github.com/FACorreiaa/ledgerlens/pkg/config"
	"github.com/FACorreiaa/ledgerlens/pkg/cron"
	"github.com/FACorreiaa/ledgerlens/pkg/db"
	"github.com/FACorreiaa/ledgerlens/pkg/notify"
	"github.com/FACorreiaa/ledgerlens/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	AuthRepo      *auth.Repository
	CategoryRepo  *category.Repository
	TagRepo       *tag.Repository
	StatementRepo *statement.Repository
	JobStore      *queue.PostgresStore

	// Services
	TokenManager     *auth.TokenManager
	Sessions         *auth.Sessions
	AuthService      *auth.Service
	CategoryService  *category.Service
	StatementService *statement.Service
	IngestService    *ingest.Service
	FileStorage      storage.Storage

	// Pipeline
	Worker    *queue.Worker
	Scheduler *cron.Scheduler

	// Handlers
	Handlers server.Handlers
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}
	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}
	if err := deps.initServices(); err != nil {
		return nil, fmt.Errorf("failed to init services: %w", err)
	}
	if err := deps.initPipeline(); err != nil {
		return nil, fmt.Errorf("failed to init pipeline: %w", err)
	}
	if err := deps.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.AuthRepo = auth.NewRepository(d.DB.Pool)
	d.CategoryRepo = category.NewRepository(d.DB.Pool)
	d.TagRepo = tag.NewRepository(d.DB.Pool)
	d.StatementRepo = statement.NewRepository(d.DB.Pool)
	d.JobStore = queue.NewPostgresStore(d.DB.Pool)

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	if d.Config.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	d.TokenManager = auth.NewTokenManager(d.Config.Auth.JWTSecret, 24*time.Hour)
	d.Sessions = auth.NewSessions(d.Config.Auth.SessionSecret, d.Config.Auth.SessionName)
	d.AuthService = auth.NewService(d.AuthRepo, d.TokenManager, d.Logger)

	d.CategoryService = category.NewService(d.CategoryRepo, d.Logger)
	d.StatementService = statement.NewService(d.StatementRepo, d.Logger)

	fileStorage, err := storage.NewLocalStorage(d.Config.Storage.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	d.IngestService = ingest.NewService(d.JobStore, d.CategoryService, d.StatementService, d.FileStorage, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// initPipeline wires the OCR and completion stages into the worker pool
func (d *Dependencies) initPipeline() error {
	rasterizer := pdf.NewRasterizer(d.Config.OCR.PdftoppmPath, d.Config.OCR.DPI)
	extractor := ocr.NewTesseractExtractor(rasterizer, d.Config.OCR.TesseractPath, d.Config.OCR.Language, d.Logger)

	completer := completion.NewGeminiClient(
		d.Config.Gemini.APIKey,
		d.Config.Gemini.Model,
		d.Config.Gemini.Timeout,
		d.Logger,
	)

	d.Worker = queue.NewWorker(
		d.JobStore,
		extractor,
		completer,
		d.Config.Queue.TrimMarkers,
		d.Config.Queue.Workers,
		d.Config.Queue.PollInterval,
		d.Logger,
	)

	if d.Config.Email.ResendAPIKey != "" {
		notifier := notify.NewEmailNotifier(d.Config.Email.ResendAPIKey, d.Config.Email.FromAddress, d.Logger)
		d.Worker.WithNotifier(notifier, d.AuthService)
	}

	d.Scheduler = cron.NewScheduler(d.JobStore, d.Config.Queue.StaleAfter, d.Logger)

	d.Logger.Info("ingest pipeline initialized",
		slog.Int("workers", d.Config.Queue.Workers),
	)
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.Handlers = server.Handlers{
		Auth:      auth.NewHandler(d.AuthService, d.Sessions, d.Logger),
		Category:  category.NewHandler(d.CategoryService, d.Logger),
		Tag:       tag.NewHandler(d.TagRepo, d.Logger),
		Statement: statement.NewHandler(d.StatementService, d.Logger),
		Ingest:    ingest.NewHandler(d.IngestService, d.Logger),
	}

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}

package reader

import (
	"context"
	"net/http"

	"feedmark/internal/core"
	"feedmark/internal/features/reader/handlers"
	"feedmark/internal/features/reader/migrations"
	"feedmark/internal/features/reader/services"
)

// Feature represents the entry reader: per-user read state over subscribed feeds
type Feature struct {
	*core.BaseFeature
	config        *Config
	migrationMgr  *migrations.Manager
	readerService *services.ReaderService
	handlers      *handlers.Handlers
}

// NewFeature creates a new reader feature
func NewFeature(logger *core.Logger, db *core.Database, config *Config) *Feature {
	featureLogger := logger.ForFeature("reader")

	migrationMgr := migrations.NewManager(db, featureLogger)

	readerService := services.NewReaderService(
		services.NewCategoryService(db, featureLogger),
		services.NewSubscriptionService(db, featureLogger),
		services.NewEntryService(db, featureLogger),
		services.NewStatusService(db, featureLogger),
		config.ParallelPartitions,
		featureLogger,
	)

	return &Feature{
		BaseFeature:   core.NewBaseFeature("reader", "Entry reader and read-status tracker", config.Enabled, logger),
		config:        config,
		migrationMgr:  migrationMgr,
		readerService: readerService,
		handlers:      handlers.NewHandlers(featureLogger, readerService),
	}
}

// Init runs the reader migrations
func (f *Feature) Init(ctx context.Context) error {
	if err := f.BaseFeature.Init(ctx); err != nil {
		return err
	}

	if err := f.migrationMgr.Migrate(ctx); err != nil {
		return core.NewFeatureError(f.Name(), "migrations failed", err)
	}

	f.Logger().Info("Reader feature initialized successfully", "parallel_partitions", f.config.ParallelPartitions)
	return nil
}

// Routes returns the HTTP routes for the reader feature
func (f *Feature) Routes() []core.Route {
	return []core.Route{
		{Method: http.MethodGet, Path: "/reader/entries", Handler: f.handlers.GetEntries},
		{Method: http.MethodGet, Path: "/reader/entries/get", Handler: f.handlers.GetEntries},
		{Method: http.MethodGet, Path: "/reader/entries/mark", Handler: f.handlers.MarkEntries},
		{Method: http.MethodPost, Path: "/reader/entries/mark", Handler: f.handlers.MarkEntries},
	}
}

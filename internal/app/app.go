package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/shmoo/internal/config"
	"github.com/RMahshie/shmoo/internal/processing"
	"github.com/RMahshie/shmoo/internal/repository"
	"github.com/RMahshie/shmoo/internal/repository/memory"
	"github.com/RMahshie/shmoo/internal/repository/postgres"
	"github.com/RMahshie/shmoo/internal/section"
	"github.com/RMahshie/shmoo/internal/shmoo"
	"github.com/RMahshie/shmoo/internal/storage"
)

// App holds the wired components shared by the server and the CLI
type App struct {
	Config   *config.Config
	Engine   *shmoo.Engine
	Service  processing.ProcessingService
	Runs     repository.RunRepository
	Runner   processing.RunProcessor
	Archiver storage.Archiver
	Metrics  *processing.Metrics

	db *sql.DB
}

// New wires the pipeline from cfg. Metrics are registered with reg; runs
// are kept in PostgreSQL when a database URL is configured and in memory
// otherwise.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*App, error) {
	engine, err := shmoo.NewEngine(cfg.EngineOptions())
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	extractor, err := section.NewExtractor(cfg.ExtractorOptions())
	if err != nil {
		return nil, fmt.Errorf("extractor: %w", err)
	}
	archiver, err := NewArchiver(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Engine:   engine,
		Archiver: archiver,
		Metrics:  processing.NewMetrics(reg),
	}
	a.Service = processing.NewProcessingService(engine, extractor, a.Metrics, cfg.Processing.Workers)

	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		a.Runs = postgres.NewPostgresRunRepository(db)
		log.Info().Msg("Using PostgreSQL run store")
	} else {
		a.Runs = memory.NewRunRepository()
		log.Info().Msg("DATABASE_URL not set, using in-memory run store")
	}

	a.Runner = processing.NewRunProcessor(a.Service, a.Runs, cfg.Processing.ReportsDir, archiver, a.Metrics)
	return a, nil
}

// Close releases the database connection, if any
func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// NewArchiver builds the configured archive backend. It returns nil for
// the "none" backend.
func NewArchiver(ctx context.Context, cfg *config.Config) (storage.Archiver, error) {
	switch cfg.Archive.Backend {
	case "none", "":
		return nil, nil
	case "local":
		return storage.NewLocalArchiver(cfg.Archive.Dir)
	case "s3":
		return storage.NewS3Archiver(ctx, cfg.S3Config())
	case "minio":
		return storage.NewMinIOArchiver(ctx, cfg.MinIOConfig())
	}
	return nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
}

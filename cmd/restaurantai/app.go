package main

import (
	"context"
	"database/sql"
	"fmt"

	"restaurantai/internal/models"
	"restaurantai/internal/repository"
	"restaurantai/internal/service"
	"restaurantai/pkg/config"
	"restaurantai/pkg/logger"
	"restaurantai/pkg/postgres"
	"restaurantai/pkg/sqlite"

	"go.uber.org/zap"
)

type tagStore interface {
	service.TagStore
	service.CatalogStore
	service.ArtifactStore
}

// application is the wired object graph shared by every subcommand.
type application struct {
	cfg    *config.Config
	logger *zap.Logger

	llm        service.LLMClient
	catalog    *service.CatalogService
	pipeline   *service.PipelineService
	summary    *service.SummaryService
	dashboard  *service.DashboardService
	legacy     *service.LegacyDashboardService
	leads      *service.LeadsService
	exporter   *service.ExportService
	classifier service.Classifier

	closers []func()
}

func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app := &application{cfg: cfg, logger: logger.Get()}

	tags, leads, err := app.openStores(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	if err := app.openLLM(ctx); err != nil {
		app.Close()
		return nil, err
	}

	app.catalog = service.NewCatalogService(tags, app.logger)
	if err := app.seedCatalog(ctx, cfg.Pipeline.CatalogPath); err != nil {
		app.Close()
		return nil, err
	}

	app.pipeline = service.NewPipelineService(tags, app.classifier, cfg.Pipeline.Concurrency, app.logger)
	app.summary = service.NewSummaryService(app.llm, app.logger)
	app.dashboard = service.NewDashboardService(tags, app.catalog, app.summary, cfg.Pipeline.TopN, app.logger)
	app.legacy = service.NewLegacyDashboardService(app.llm, app.logger)
	app.leads = service.NewLeadsService(app.llm, leads, app.logger)
	app.exporter = service.NewExportService(tags, app.logger)
	return app, nil
}

func (a *application) openStores(ctx context.Context) (tagStore, service.LeadStore, error) {
	var (
		db      *sql.DB
		dialect repository.Dialect
	)
	switch a.cfg.Store.Driver {
	case config.DriverMemory:
		a.logger.Warn("Using in-memory store, nothing will survive a restart")
		return repository.NewInMemoryTagRepository(), repository.NewInMemoryLeadRepository(), nil
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, &a.cfg.Database, a.logger)
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, pool.Close)
		db, dialect = postgres.OpenDB(pool), repository.DialectPostgres
	default:
		var err error
		db, err = sqlite.Open(ctx, a.cfg.Store.SQLitePath, a.logger)
		if err != nil {
			return nil, nil, err
		}
		dialect = repository.DialectSQLite
	}
	a.closers = append(a.closers, func() { _ = db.Close() })

	if err := repository.Migrate(ctx, db); err != nil {
		return nil, nil, err
	}
	return repository.NewTagRepository(db, dialect, a.logger), repository.NewLeadRepository(db, dialect, a.logger), nil
}

// openLLM picks the language model. The keyword provider runs without one:
// rows are tagged by keyword rules and summaries use the deterministic text.
func (a *application) openLLM(ctx context.Context) error {
	switch a.cfg.LLM.Provider {
	case config.ProviderKeyword:
		a.logger.Info("Using offline keyword classifier")
		a.classifier = service.NewKeywordClassifier()
		return nil
	case config.ProviderGigaChat:
		llm, err := service.NewLLMService(&a.cfg.GigaChat, a.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize GigaChat: %w", err)
		}
		a.llm = llm
	default:
		llm, err := service.NewGeminiService(ctx, &a.cfg.Gemini, a.cfg.LLM.Temperature, a.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize Gemini: %w", err)
		}
		a.llm = llm
	}
	a.closers = append(a.closers, func() { _ = a.llm.Close() })
	a.classifier = service.NewLLMClassifier(a.llm, a.cfg.LLM.Timeout, a.logger)
	return nil
}

func (a *application) seedCatalog(ctx context.Context, path string) error {
	seed := models.DefaultCatalog()
	if path != "" {
		entries, err := service.LoadCatalogFile(path)
		if err != nil {
			return err
		}
		seed = entries
	}
	return a.catalog.EnsureSeeded(ctx, seed)
}

func (a *application) loadRows(csvPath string) ([]models.FeedbackRow, error) {
	if csvPath == "" {
		csvPath = a.cfg.Pipeline.CSVPath
	}
	rows, err := service.LoadFeedbackFile(csvPath)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Feedback loaded", zap.String("path", csvPath), zap.Int("rows", len(rows)))
	return rows, nil
}

func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

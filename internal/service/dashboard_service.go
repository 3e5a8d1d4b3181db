package service

import (
	"context"
	"fmt"
	"time"

	"restaurantai/internal/models"

	"go.uber.org/zap"
)

// Dashboard is the payload behind the analytics screen.
type Dashboard struct {
	Metrics     models.AggregateMetrics `json:"metrics"`
	Summary     models.ExecutiveSummary `json:"executive_summary"`
	PendingTags []models.PendingTag     `json:"pending_tags"`
	GeneratedAt time.Time               `json:"generated_at"`
}

type DashboardService struct {
	store   TagStore
	catalog *CatalogService
	summary *SummaryService
	topN    int
	logger  *zap.Logger
}

func NewDashboardService(store TagStore, catalog *CatalogService, summary *SummaryService, topN int, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		store:   store,
		catalog: catalog,
		summary: summary,
		topN:    topN,
		logger:  logger,
	}
}

// Metrics aggregates the event log without calling any model.
func (s *DashboardService) Metrics(ctx context.Context) (models.AggregateMetrics, []models.TagEvent, error) {
	catalog, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return models.AggregateMetrics{}, nil, err
	}
	events, err := s.store.Events(ctx)
	if err != nil {
		return models.AggregateMetrics{}, nil, fmt.Errorf("failed to load events: %w", err)
	}
	return Aggregate(events, catalog, s.topN), events, nil
}

// Build aggregates the log and adds the executive summary.
func (s *DashboardService) Build(ctx context.Context) (*Dashboard, error) {
	metrics, events, err := s.Metrics(ctx)
	if err != nil {
		return nil, err
	}

	summary := s.summary.Generate(ctx, BuildExecutiveContext(events, metrics))

	pending, err := s.catalog.Pending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending tags: %w", err)
	}
	if pending == nil {
		pending = []models.PendingTag{}
	}

	s.logger.Info("Dashboard built",
		zap.Int("clients", metrics.TotalClients),
		zap.Int("events", metrics.TotalEvents),
		zap.String("summary_source", summary.Source),
	)
	return &Dashboard{
		Metrics:     metrics,
		Summary:     summary,
		PendingTags: pending,
		GeneratedAt: time.Now(),
	}, nil
}

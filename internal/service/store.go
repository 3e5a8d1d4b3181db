package service

import (
	"context"

	"restaurantai/internal/models"

	"github.com/google/uuid"
)

// TagStore is the event store as the pipeline and dashboard see it.
// CommitRow reports how many of the commit's events were newly stored.
type TagStore interface {
	ProcessedHashes(ctx context.Context) (map[string]struct{}, error)
	CachedResponse(ctx context.Context, rowHash string) (*models.CachedResponse, error)
	CommitRow(ctx context.Context, commit models.RowCommit) (int, error)
	Events(ctx context.Context) ([]models.TagEvent, error)
	Reset(ctx context.Context) error
}

// CatalogStore persists the tag vocabulary and the review queue.
type CatalogStore interface {
	CatalogEntries(ctx context.Context) ([]models.CatalogEntry, error)
	SeedCatalog(ctx context.Context, entries []models.CatalogEntry) error
	UpsertCatalogEntry(ctx context.Context, entry models.CatalogEntry) error
	PendingTags(ctx context.Context) ([]models.PendingTag, error)
	DeletePendingTag(ctx context.Context, tag string) error
}

// ArtifactStore exposes the derived tables for export.
type ArtifactStore interface {
	Events(ctx context.Context) ([]models.TagEvent, error)
	ProcessedRows(ctx context.Context) ([]models.ProcessedRow, error)
	CachedResponses(ctx context.Context) ([]models.CachedResponse, error)
	CatalogEntries(ctx context.Context) ([]models.CatalogEntry, error)
	PendingTags(ctx context.Context) ([]models.PendingTag, error)
}

type LeadStore interface {
	ReplacePending(ctx context.Context, leads []*models.Lead) error
	List(ctx context.Context, status models.LeadStatus) ([]*models.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	Update(ctx context.Context, l *models.Lead) error
}

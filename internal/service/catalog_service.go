package service

import (
	"context"
	"errors"
	"fmt"

	"restaurantai/internal/models"
	"restaurantai/internal/repository"

	"go.uber.org/zap"
)

var (
	ErrPendingTagNotFound = errors.New("pending tag not found")
	ErrTagRequired        = errors.New("tag is required")
)

type CatalogService struct {
	store  CatalogStore
	logger *zap.Logger
}

func NewCatalogService(store CatalogStore, logger *zap.Logger) *CatalogService {
	return &CatalogService{store: store, logger: logger}
}

// EnsureSeeded inserts seed entries that are missing. Existing entries,
// including admin edits, are left untouched.
func (s *CatalogService) EnsureSeeded(ctx context.Context, seed []models.CatalogEntry) error {
	if _, err := NewCatalog(seed); err != nil {
		return fmt.Errorf("invalid seed catalog: %w", err)
	}
	if err := s.store.SeedCatalog(ctx, seed); err != nil {
		return err
	}
	s.logger.Info("Tag catalog seeded", zap.Int("entries", len(seed)))
	return nil
}

// Snapshot loads the current catalog as an immutable value.
func (s *CatalogService) Snapshot(ctx context.Context) (*Catalog, error) {
	entries, err := s.store.CatalogEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return NewCatalog(entries)
}

// AddTag creates or replaces an entry. Promoting a pending tag removes it
// from the review queue.
func (s *CatalogService) AddTag(ctx context.Context, entry models.CatalogEntry) (models.CatalogEntry, error) {
	entry.Tag = NormalizeTagName(entry.Tag)
	if entry.Tag == "" {
		return models.CatalogEntry{}, ErrTagRequired
	}
	if !entry.Category.Valid() {
		return models.CatalogEntry{}, fmt.Errorf("%w %q", ErrUnknownCategory, entry.Category)
	}
	syn := make([]string, 0, len(entry.Synonyms))
	for _, v := range entry.Synonyms {
		if v = NormalizeTagName(v); v != "" && v != entry.Tag {
			syn = append(syn, v)
		}
	}
	entry.Synonyms = syn

	if err := s.store.UpsertCatalogEntry(ctx, entry); err != nil {
		return models.CatalogEntry{}, err
	}
	s.logger.Info("Catalog tag saved",
		zap.String("tag", entry.Tag),
		zap.String("category", string(entry.Category)),
		zap.Bool("enabled", entry.Enabled),
	)
	return entry, nil
}

func (s *CatalogService) Pending(ctx context.Context) ([]models.PendingTag, error) {
	return s.store.PendingTags(ctx)
}

func (s *CatalogService) DismissPending(ctx context.Context, tag string) error {
	err := s.store.DeletePendingTag(ctx, NormalizeTagName(tag))
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPendingTagNotFound
	}
	return err
}

package repository

import (
	"context"
	"sort"
	"sync"

	"restaurantai/internal/models"

	"github.com/google/uuid"
)

type eventKey struct {
	rowHash string
	tag     string
}

// InMemoryTagRepository keeps the event store in process memory. It is used
// by STORE_DRIVER=memory and by tests.
type InMemoryTagRepository struct {
	mu        sync.RWMutex
	events    map[eventKey]models.TagEvent
	processed map[string]models.ProcessedRow
	cache     map[string]models.CachedResponse
	catalog   map[string]models.CatalogEntry
	pending   map[string]models.PendingTag
}

func NewInMemoryTagRepository() *InMemoryTagRepository {
	return &InMemoryTagRepository{
		events:    make(map[eventKey]models.TagEvent),
		processed: make(map[string]models.ProcessedRow),
		cache:     make(map[string]models.CachedResponse),
		catalog:   make(map[string]models.CatalogEntry),
		pending:   make(map[string]models.PendingTag),
	}
}

func (r *InMemoryTagRepository) ProcessedHashes(_ context.Context) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]struct{}, len(r.processed))
	for h := range r.processed {
		out[h] = struct{}{}
	}
	return out, nil
}

func (r *InMemoryTagRepository) CachedResponse(_ context.Context, rowHash string) (*models.CachedResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cache[rowHash]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *InMemoryTagRepository) CommitRow(ctx context.Context, commit models.RowCommit) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	inserted := 0
	for _, e := range commit.Events {
		k := eventKey{rowHash: e.RowHash, tag: e.Tag}
		if _, exists := r.events[k]; exists {
			continue
		}
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		r.events[k] = e
		inserted++
	}
	if _, exists := r.processed[commit.Row.RowHash]; !exists {
		r.processed[commit.Row.RowHash] = commit.Row
	}
	if commit.Cache != nil {
		r.cache[commit.Cache.RowHash] = *commit.Cache
	}
	for _, p := range commit.Pending {
		if p.Occurrences < 1 {
			p.Occurrences = 1
		}
		if existing, ok := r.pending[p.Tag]; ok {
			existing.Occurrences += p.Occurrences
			r.pending[p.Tag] = existing
			continue
		}
		r.pending[p.Tag] = p
	}
	return inserted, nil
}

func (r *InMemoryTagRepository) Events(_ context.Context) ([]models.TagEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.TagEvent, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ProcessedAt.Equal(b.ProcessedAt) {
			return a.ProcessedAt.Before(b.ProcessedAt)
		}
		if a.RowHash != b.RowHash {
			return a.RowHash < b.RowHash
		}
		return a.Tag < b.Tag
	})
	return out, nil
}

func (r *InMemoryTagRepository) ProcessedRows(_ context.Context) ([]models.ProcessedRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.ProcessedRow, 0, len(r.processed))
	for _, p := range r.processed {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowHash < out[j].RowHash })
	return out, nil
}

func (r *InMemoryTagRepository) CachedResponses(_ context.Context) ([]models.CachedResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.CachedResponse, 0, len(r.cache))
	for _, c := range r.cache {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowHash < out[j].RowHash })
	return out, nil
}

func (r *InMemoryTagRepository) Reset(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = make(map[eventKey]models.TagEvent)
	r.processed = make(map[string]models.ProcessedRow)
	r.cache = make(map[string]models.CachedResponse)
	r.pending = make(map[string]models.PendingTag)
	return nil
}

func (r *InMemoryTagRepository) CatalogEntries(_ context.Context) ([]models.CatalogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.CatalogEntry, 0, len(r.catalog))
	for _, e := range r.catalog {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out, nil
}

func (r *InMemoryTagRepository) SeedCatalog(_ context.Context, entries []models.CatalogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entries {
		if _, exists := r.catalog[e.Tag]; !exists {
			r.catalog[e.Tag] = e
		}
	}
	return nil
}

func (r *InMemoryTagRepository) UpsertCatalogEntry(_ context.Context, entry models.CatalogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.catalog[entry.Tag] = entry
	delete(r.pending, entry.Tag)
	return nil
}

func (r *InMemoryTagRepository) PendingTags(_ context.Context) ([]models.PendingTag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.PendingTag, 0, len(r.pending))
	for _, p := range r.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Occurrences != out[j].Occurrences {
			return out[i].Occurrences > out[j].Occurrences
		}
		return out[i].Tag < out[j].Tag
	})
	return out, nil
}

func (r *InMemoryTagRepository) DeletePendingTag(_ context.Context, tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[tag]; !ok {
		return ErrNotFound
	}
	delete(r.pending, tag)
	return nil
}

// InMemoryLeadRepository mirrors LeadRepository for the memory driver.
type InMemoryLeadRepository struct {
	mu    sync.RWMutex
	leads map[uuid.UUID]models.Lead
}

func NewInMemoryLeadRepository() *InMemoryLeadRepository {
	return &InMemoryLeadRepository{leads: make(map[uuid.UUID]models.Lead)}
}

func (r *InMemoryLeadRepository) ReplacePending(_ context.Context, leads []*models.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, l := range r.leads {
		if l.Status == models.LeadPendingApproval {
			delete(r.leads, id)
		}
	}
	for _, l := range leads {
		r.leads[l.ID] = *l
	}
	return nil
}

func (r *InMemoryLeadRepository) List(_ context.Context, status models.LeadStatus) ([]*models.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Lead
	for _, l := range r.leads {
		if status != "" && l.Status != status {
			continue
		}
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Spend != out[j].Spend {
			return out[i].Spend > out[j].Spend
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *InMemoryLeadRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.leads[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &l, nil
}

func (r *InMemoryLeadRepository) Update(_ context.Context, l *models.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leads[l.ID]; !ok {
		return ErrNotFound
	}
	r.leads[l.ID] = *l
	return nil
}

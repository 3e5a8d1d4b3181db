package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"restaurantai/internal/models"
	"restaurantai/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConcurrency = 10
	pendingExampleLen  = 220
)

type RowFailure struct {
	RowHash  string `json:"row_hash"`
	ClientID string `json:"client_id"`
	Reason   string `json:"reason"`
}

// RunReport summarizes one incremental pass.
type RunReport struct {
	TotalRows        int          `json:"total_rows"`
	DuplicateRows    int          `json:"duplicate_rows"`
	SkippedRows      int          `json:"skipped_rows"`
	BlankRows        int          `json:"blank_rows"`
	PersistedRows    int          `json:"persisted_rows"`
	FailedRows       int          `json:"failed_rows"`
	CacheHits        int          `json:"cache_hits"`
	NewEvents        int          `json:"new_events"`
	NewPendingTags   int          `json:"new_pending_tags"`
	Failures         []RowFailure `json:"failures,omitempty"`
	CatalogSignature string       `json:"catalog_signature"`
	StartedAt        time.Time    `json:"started_at"`
	FinishedAt       time.Time    `json:"finished_at"`
}

// PipelineService classifies new feedback rows and appends their tag events.
type PipelineService struct {
	store       TagStore
	classifier  Classifier
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

func NewPipelineService(store TagStore, classifier Classifier, concurrency int, logger *zap.Logger) *PipelineService {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &PipelineService{
		store:       store,
		classifier:  classifier,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

type rowJob struct {
	row  models.FeedbackRow
	hash string
}

// Run processes every row whose hash is not indexed yet. A failing row is
// reported and left unindexed; it never affects the other rows.
func (s *PipelineService) Run(ctx context.Context, catalog *Catalog, rows []models.FeedbackRow) (*RunReport, error) {
	report := &RunReport{
		TotalRows:        len(rows),
		CatalogSignature: catalog.Signature(),
		StartedAt:        s.now(),
	}

	processed, err := s.store.ProcessedHashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load processed index: %w", err)
	}

	var (
		jobs  []rowJob
		blank []rowJob
		seen  = make(map[string]struct{}, len(rows))
	)
	for _, row := range rows {
		h := HashRow(row)
		if _, dup := seen[h]; dup {
			report.DuplicateRows++
			continue
		}
		seen[h] = struct{}{}
		if _, done := processed[h]; done {
			report.SkippedRows++
			continue
		}
		if IsBlank(row) {
			blank = append(blank, rowJob{row: row, hash: h})
			continue
		}
		jobs = append(jobs, rowJob{row: row, hash: h})
	}

	s.logger.Info("Pipeline run started",
		zap.Int("rows", len(rows)),
		zap.Int("new_rows", len(jobs)),
		zap.Int("blank_rows", len(blank)),
		zap.Int("already_processed", report.SkippedRows),
		zap.Int("concurrency", s.concurrency),
	)

	var mu sync.Mutex
	fail := func(job rowJob, reason error) {
		s.logger.Warn("Row failed",
			zap.String("row_hash", job.hash),
			zap.String("state", string(models.RowFailed)),
			zap.String("client_id", job.row.ClientID),
			zap.Error(reason),
		)
		mu.Lock()
		report.FailedRows++
		report.Failures = append(report.Failures, RowFailure{RowHash: job.hash, ClientID: job.row.ClientID, Reason: reason.Error()})
		mu.Unlock()
	}

	for _, job := range blank {
		commit := models.RowCommit{Row: s.indexEntry(job, 0)}
		if _, err := s.store.CommitRow(ctx, commit); err != nil {
			fail(job, fmt.Errorf("failed to persist blank row: %w", err))
			continue
		}
		report.BlankRows++
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if ctx.Err() != nil {
				fail(job, ctx.Err())
				return nil
			}
			commit, cacheHit, err := s.processRow(ctx, catalog, job)
			if err != nil {
				fail(job, err)
				return nil
			}
			inserted, err := s.store.CommitRow(ctx, commit)
			if err != nil {
				fail(job, fmt.Errorf("failed to persist row: %w", err))
				return nil
			}
			s.logger.Debug("Row persisted",
				zap.String("row_hash", job.hash),
				zap.String("state", string(models.RowPersisted)),
				zap.Int("events", inserted),
				zap.Bool("cache_hit", cacheHit),
			)

			mu.Lock()
			report.PersistedRows++
			report.NewEvents += inserted
			report.NewPendingTags += len(commit.Pending)
			if cacheHit {
				report.CacheHits++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Failures, func(i, j int) bool { return report.Failures[i].RowHash < report.Failures[j].RowHash })
	report.FinishedAt = s.now()

	s.logger.Info("Pipeline run finished",
		zap.Int("persisted", report.PersistedRows),
		zap.Int("failed", report.FailedRows),
		zap.Int("new_events", report.NewEvents),
		zap.Int("cache_hits", report.CacheHits),
		zap.Int("new_pending_tags", report.NewPendingTags),
		zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
	)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// Reprocess clears the derived store and runs over every row again. The
// catalog is preserved.
func (s *PipelineService) Reprocess(ctx context.Context, catalog *Catalog, rows []models.FeedbackRow) (*RunReport, error) {
	if err := s.store.Reset(ctx); err != nil {
		return nil, fmt.Errorf("failed to reset event store: %w", err)
	}
	return s.Run(ctx, catalog, rows)
}

// processRow walks classifying -> normalizing for one row and returns what
// should be committed. Only responses that parse are cached.
func (s *PipelineService) processRow(ctx context.Context, catalog *Catalog, job rowJob) (models.RowCommit, bool, error) {
	block := QABlock(job.row)

	raw, cacheHit := s.cachedResponse(ctx, catalog, job.hash)
	if !cacheHit {
		s.logger.Debug("Classifying row", zap.String("row_hash", job.hash), zap.String("state", string(models.RowClassifying)))
		var err error
		raw, err = s.classifier.Classify(ctx, block, catalog)
		if err != nil {
			return models.RowCommit{}, false, err
		}
	}

	items, err := ParseTagItems(raw)
	if err != nil {
		return models.RowCommit{}, false, fmt.Errorf("%w: %s", err, truncateRunes(raw, 200))
	}

	s.logger.Debug("Normalizing row", zap.String("row_hash", job.hash), zap.String("state", string(models.RowNormalizing)))
	resolved, unknown := NormalizeItems(items, catalog)

	now := s.now()
	origin := classifierOrigin(s.classifier)
	events := make([]models.TagEvent, 0, len(resolved))
	for _, r := range resolved {
		events = append(events, models.TagEvent{
			ID:          uuid.New(),
			RowHash:     job.hash,
			ClientID:    job.row.ClientID,
			Phone:       job.row.Phone,
			Comment:     block,
			Tag:         r.Entry.Tag,
			Category:    r.Entry.Category,
			Polarity:    r.Polarity,
			Origin:      origin,
			ProcessedAt: now,
		})
	}

	pending := make([]models.PendingTag, 0, len(unknown))
	for _, tag := range unknown {
		pending = append(pending, models.PendingTag{
			Tag:         tag,
			FirstSeenAt: now,
			ExampleText: truncateRunes(block, pendingExampleLen),
			Occurrences: 1,
		})
	}

	commit := models.RowCommit{
		Row:     s.indexEntry(job, len(events)),
		Events:  events,
		Pending: pending,
	}
	if !cacheHit {
		commit.Cache = &models.CachedResponse{
			RowHash:          job.hash,
			CatalogSignature: catalog.Signature(),
			Response:         raw,
			CreatedAt:        now,
		}
	}
	return commit, cacheHit, nil
}

func (s *PipelineService) cachedResponse(ctx context.Context, catalog *Catalog, hash string) (string, bool) {
	cached, err := s.store.CachedResponse(ctx, hash)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Cache lookup failed", zap.String("row_hash", hash), zap.Error(err))
		}
		return "", false
	}
	if cached.CatalogSignature != catalog.Signature() {
		return "", false
	}
	return cached.Response, true
}

func (s *PipelineService) indexEntry(job rowJob, events int) models.ProcessedRow {
	return models.ProcessedRow{
		RowHash:     job.hash,
		ClientID:    job.row.ClientID,
		Phone:       job.row.Phone,
		EventCount:  events,
		ProcessedAt: s.now(),
	}
}

// ResolvedTag is a catalog tag with its dominant polarity within one row.
type ResolvedTag struct {
	Entry    models.CatalogEntry
	Polarity models.Polarity
}

// NormalizeItems maps raw model items onto the catalog. Repeated tags in one
// row collapse to the dominant polarity (mal > bien > neutral). Tags the
// catalog does not know are returned separately, normalized and deduplicated.
// Disabled catalog tags are dropped.
func NormalizeItems(items []RawTagItem, catalog *Catalog) ([]ResolvedTag, []string) {
	byTag := make(map[string]ResolvedTag)
	unknownSet := make(map[string]struct{})

	for _, item := range items {
		name := NormalizeTagName(item.Tag)
		if name == "" {
			continue
		}
		entry, ok := catalog.Normalize(name)
		if !ok {
			unknownSet[name] = struct{}{}
			continue
		}
		if !entry.Enabled {
			continue
		}
		polarity := models.ParsePolarity(NormalizeTagName(item.Polarity))
		if prev, seen := byTag[entry.Tag]; seen {
			polarity = models.Dominant(prev.Polarity, polarity)
		}
		byTag[entry.Tag] = ResolvedTag{Entry: entry, Polarity: polarity}
	}

	resolved := make([]ResolvedTag, 0, len(byTag))
	for _, r := range byTag {
		resolved = append(resolved, r)
	}
	sort.Slice(resolved, func(i, j int) bool { return resolved[i].Entry.Tag < resolved[j].Entry.Tag })

	unknown := make([]string, 0, len(unknownSet))
	for t := range unknownSet {
		unknown = append(unknown, t)
	}
	sort.Strings(unknown)

	return resolved, unknown
}

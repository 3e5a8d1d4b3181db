package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"restaurantai/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("not found")

var eventColumns = []string{
	"id", "row_hash", "client_id", "phone", "comment", "tag", "category", "polarity", "origin", "processed_at",
}

// TagRepository is the SQL event store: tag events, the processed-row index,
// the classifier response cache and the tag catalog. Writes are serialized.
type TagRepository struct {
	db     *sql.DB
	sb     squirrel.StatementBuilderType
	mu     sync.Mutex
	logger *zap.Logger
}

func NewTagRepository(db *sql.DB, dialect Dialect, logger *zap.Logger) *TagRepository {
	return &TagRepository{
		db:     db,
		sb:     dialect.builder(),
		logger: logger,
	}
}

func (r *TagRepository) ProcessedHashes(ctx context.Context) (map[string]struct{}, error) {
	query, args, err := r.sb.Select("row_hash").From("processed_rows").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query processed rows: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]struct{})
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hashes[h] = struct{}{}
	}
	return hashes, rows.Err()
}

// CachedResponse returns ErrNotFound when the row has never been classified.
func (r *TagRepository) CachedResponse(ctx context.Context, rowHash string) (*models.CachedResponse, error) {
	query, args, err := r.sb.Select("row_hash", "catalog_signature", "response", "created_at").
		From("llm_cache").
		Where(squirrel.Eq{"row_hash": rowHash}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var (
		c         models.CachedResponse
		createdAt string
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&c.RowHash, &c.CatalogSignature, &c.Response, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

// CommitRow writes a row's events, index entry, cache entry and pending tags
// in one transaction. Events that already exist for (row_hash, tag) are kept
// and not counted in the returned number of inserted events.
func (r *TagRepository) CommitRow(ctx context.Context, commit models.RowCommit) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	if len(commit.Events) > 0 {
		insert := r.sb.Insert("tag_events").Columns(eventColumns...)
		for _, e := range commit.Events {
			id := e.ID
			if id == uuid.Nil {
				id = uuid.New()
			}
			insert = insert.Values(
				id.String(), e.RowHash, e.ClientID, e.Phone, e.Comment,
				e.Tag, string(e.Category), string(e.Polarity), string(e.Origin), formatTime(e.ProcessedAt),
			)
		}
		n, err := r.execCount(ctx, tx, insert.Suffix("ON CONFLICT (row_hash, tag) DO NOTHING"))
		if err != nil {
			return 0, fmt.Errorf("failed to insert events: %w", err)
		}
		inserted = int(n)
	}

	row := commit.Row
	index := r.sb.Insert("processed_rows").
		Columns("row_hash", "client_id", "phone", "event_count", "processed_at").
		Values(row.RowHash, row.ClientID, row.Phone, row.EventCount, formatTime(row.ProcessedAt)).
		Suffix("ON CONFLICT (row_hash) DO NOTHING")
	if err := r.exec(ctx, tx, index); err != nil {
		return 0, fmt.Errorf("failed to index row: %w", err)
	}

	if c := commit.Cache; c != nil {
		cache := r.sb.Insert("llm_cache").
			Columns("row_hash", "catalog_signature", "response", "created_at").
			Values(c.RowHash, c.CatalogSignature, c.Response, formatTime(c.CreatedAt)).
			Suffix("ON CONFLICT (row_hash) DO UPDATE SET catalog_signature = excluded.catalog_signature, response = excluded.response, created_at = excluded.created_at")
		if err := r.exec(ctx, tx, cache); err != nil {
			return 0, fmt.Errorf("failed to cache response: %w", err)
		}
	}

	for _, p := range commit.Pending {
		occurrences := p.Occurrences
		if occurrences < 1 {
			occurrences = 1
		}
		pending := r.sb.Insert("tag_catalog_pending").
			Columns("tag", "first_seen_at", "example_text", "occurrences").
			Values(p.Tag, formatTime(p.FirstSeenAt), p.ExampleText, occurrences).
			Suffix("ON CONFLICT (tag) DO UPDATE SET occurrences = tag_catalog_pending.occurrences + excluded.occurrences")
		if err := r.exec(ctx, tx, pending); err != nil {
			return 0, fmt.Errorf("failed to record pending tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit row: %w", err)
	}
	return inserted, nil
}

func (r *TagRepository) Events(ctx context.Context) ([]models.TagEvent, error) {
	query, args, err := r.sb.Select(eventColumns...).
		From("tag_events").
		OrderBy("processed_at", "row_hash", "tag").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []models.TagEvent
	for rows.Next() {
		var (
			e           models.TagEvent
			id          string
			category    string
			polarity    string
			origin      string
			processedAt string
		)
		if err := rows.Scan(&id, &e.RowHash, &e.ClientID, &e.Phone, &e.Comment, &e.Tag, &category, &polarity, &origin, &processedAt); err != nil {
			return nil, err
		}
		e.ID, _ = uuid.Parse(id)
		e.Category = models.Category(category)
		e.Polarity = models.Polarity(polarity)
		e.Origin = models.TagOrigin(origin)
		e.ProcessedAt = parseTime(processedAt)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *TagRepository) ProcessedRows(ctx context.Context) ([]models.ProcessedRow, error) {
	query, args, err := r.sb.Select("row_hash", "client_id", "phone", "event_count", "processed_at").
		From("processed_rows").
		OrderBy("processed_at", "row_hash").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query processed rows: %w", err)
	}
	defer rows.Close()

	var out []models.ProcessedRow
	for rows.Next() {
		var (
			p  models.ProcessedRow
			at string
		)
		if err := rows.Scan(&p.RowHash, &p.ClientID, &p.Phone, &p.EventCount, &at); err != nil {
			return nil, err
		}
		p.ProcessedAt = parseTime(at)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *TagRepository) CachedResponses(ctx context.Context) ([]models.CachedResponse, error) {
	query, args, err := r.sb.Select("row_hash", "catalog_signature", "response", "created_at").
		From("llm_cache").
		OrderBy("row_hash").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}
	defer rows.Close()

	var out []models.CachedResponse
	for rows.Next() {
		var (
			c  models.CachedResponse
			at string
		)
		if err := rows.Scan(&c.RowHash, &c.CatalogSignature, &c.Response, &at); err != nil {
			return nil, err
		}
		c.CreatedAt = parseTime(at)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Reset clears events, index, cache and pending tags. The catalog is kept.
func (r *TagRepository) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"tag_events", "processed_rows", "llm_cache", "tag_catalog_pending"} {
		if err := r.exec(ctx, tx, r.sb.Delete(table)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	r.logger.Info("Event store reset")
	return nil
}

func (r *TagRepository) exec(ctx context.Context, tx *sql.Tx, b squirrel.Sqlizer) error {
	_, err := r.execCount(ctx, tx, b)
	return err
}

// execCount runs b and returns the number of affected rows.
func (r *TagRepository) execCount(ctx context.Context, tx *sql.Tx, b squirrel.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

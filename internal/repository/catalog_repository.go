package repository

import (
	"context"
	"fmt"
	"strings"

	"restaurantai/internal/models"

	"github.com/Masterminds/squirrel"
)

const synonymSeparator = "|"

func (r *TagRepository) CatalogEntries(ctx context.Context) ([]models.CatalogEntry, error) {
	query, args, err := r.sb.Select("tag", "category", "synonyms", "enabled").
		From("tag_catalog").
		OrderBy("tag").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var entries []models.CatalogEntry
	for rows.Next() {
		var (
			e        models.CatalogEntry
			category string
			synonyms string
			enabled  int
		)
		if err := rows.Scan(&e.Tag, &category, &synonyms, &enabled); err != nil {
			return nil, err
		}
		e.Category = models.Category(category)
		e.Synonyms = splitSynonyms(synonyms)
		e.Enabled = enabled != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SeedCatalog inserts entries whose tag is not in the catalog yet.
func (r *TagRepository) SeedCatalog(ctx context.Context, entries []models.CatalogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	insert := r.sb.Insert("tag_catalog").Columns("tag", "category", "synonyms", "enabled")
	for _, e := range entries {
		insert = insert.Values(e.Tag, string(e.Category), strings.Join(e.Synonyms, synonymSeparator), boolToInt(e.Enabled))
	}
	query, args, err := insert.Suffix("ON CONFLICT (tag) DO NOTHING").ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}
	return nil
}

// UpsertCatalogEntry adds or replaces a catalog entry and drops the tag from
// the pending list.
func (r *TagRepository) UpsertCatalogEntry(ctx context.Context, entry models.CatalogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := r.sb.Insert("tag_catalog").
		Columns("tag", "category", "synonyms", "enabled").
		Values(entry.Tag, string(entry.Category), strings.Join(entry.Synonyms, synonymSeparator), boolToInt(entry.Enabled)).
		Suffix("ON CONFLICT (tag) DO UPDATE SET category = excluded.category, synonyms = excluded.synonyms, enabled = excluded.enabled")
	if err := r.exec(ctx, tx, upsert); err != nil {
		return fmt.Errorf("failed to upsert catalog entry: %w", err)
	}

	promote := r.sb.Delete("tag_catalog_pending").Where(squirrel.Eq{"tag": entry.Tag})
	if err := r.exec(ctx, tx, promote); err != nil {
		return fmt.Errorf("failed to clear pending tag: %w", err)
	}

	return tx.Commit()
}

func (r *TagRepository) PendingTags(ctx context.Context) ([]models.PendingTag, error) {
	query, args, err := r.sb.Select("tag", "first_seen_at", "example_text", "occurrences").
		From("tag_catalog_pending").
		OrderBy("occurrences DESC", "tag").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending tags: %w", err)
	}
	defer rows.Close()

	var out []models.PendingTag
	for rows.Next() {
		var (
			p         models.PendingTag
			firstSeen string
		)
		if err := rows.Scan(&p.Tag, &firstSeen, &p.ExampleText, &p.Occurrences); err != nil {
			return nil, err
		}
		p.FirstSeenAt = parseTime(firstSeen)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *TagRepository) DeletePendingTag(ctx context.Context, tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query, args, err := r.sb.Delete("tag_catalog_pending").Where(squirrel.Eq{"tag": tag}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete pending tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func splitSynonyms(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, synonymSeparator)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

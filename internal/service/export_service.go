package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"restaurantai/internal/models"

	"go.uber.org/zap"
)

// ExportService writes the persisted artifacts as CSV files.
type ExportService struct {
	store  ArtifactStore
	logger *zap.Logger
}

func NewExportService(store ArtifactStore, logger *zap.Logger) *ExportService {
	return &ExportService{store: store, logger: logger}
}

// Export writes tag_events.csv, tag_index.csv, tag_llm_cache.csv,
// tag_catalog.csv and tag_catalog_pending.csv into dir.
func (s *ExportService) Export(ctx context.Context, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	events, err := s.store.Events(ctx)
	if err != nil {
		return nil, err
	}
	processed, err := s.store.ProcessedRows(ctx)
	if err != nil {
		return nil, err
	}
	cache, err := s.store.CachedResponses(ctx)
	if err != nil {
		return nil, err
	}
	catalog, err := s.store.CatalogEntries(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.store.PendingTags(ctx)
	if err != nil {
		return nil, err
	}

	files := map[string][][]string{
		"tag_events.csv":          eventRecords(events),
		"tag_index.csv":           indexRecords(processed),
		"tag_llm_cache.csv":       cacheRecords(cache),
		"tag_catalog.csv":         catalogRecords(catalog),
		"tag_catalog_pending.csv": pendingRecords(pending),
	}

	var written []string
	for _, name := range []string{"tag_events.csv", "tag_index.csv", "tag_llm_cache.csv", "tag_catalog.csv", "tag_catalog_pending.csv"} {
		path := filepath.Join(dir, name)
		if err := writeCSV(path, files[name]); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	s.logger.Info("Artifacts exported", zap.String("dir", dir), zap.Int("events", len(events)))
	return written, nil
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func eventRecords(events []models.TagEvent) [][]string {
	out := [][]string{{"id", "row_hash", "client_id", "phone", "tag", "category", "polarity", "origin", "processed_at", "comment"}}
	for _, e := range events {
		out = append(out, []string{
			e.ID.String(), e.RowHash, e.ClientID, e.Phone, e.Tag, string(e.Category),
			string(e.Polarity), string(e.Origin), e.ProcessedAt.UTC().Format(timeFormat), e.Comment,
		})
	}
	return out
}

func indexRecords(rows []models.ProcessedRow) [][]string {
	out := [][]string{{"row_hash", "client_id", "phone", "event_count", "processed_at"}}
	for _, r := range rows {
		out = append(out, []string{r.RowHash, r.ClientID, r.Phone, strconv.Itoa(r.EventCount), r.ProcessedAt.UTC().Format(timeFormat)})
	}
	return out
}

func cacheRecords(rows []models.CachedResponse) [][]string {
	out := [][]string{{"row_hash", "catalog_signature", "created_at", "response"}}
	for _, c := range rows {
		out = append(out, []string{c.RowHash, c.CatalogSignature, c.CreatedAt.UTC().Format(timeFormat), c.Response})
	}
	return out
}

func catalogRecords(entries []models.CatalogEntry) [][]string {
	out := [][]string{{"tag", "category", "synonyms", "enabled"}}
	for _, e := range entries {
		enabled := "0"
		if e.Enabled {
			enabled = "1"
		}
		out = append(out, []string{e.Tag, string(e.Category), strings.Join(e.Synonyms, "|"), enabled})
	}
	return out
}

func pendingRecords(pending []models.PendingTag) [][]string {
	out := [][]string{{"tag", "first_seen_at", "occurrences", "example_text"}}
	for _, p := range pending {
		out = append(out, []string{p.Tag, p.FirstSeenAt.UTC().Format(timeFormat), strconv.Itoa(p.Occurrences), p.ExampleText})
	}
	return out
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

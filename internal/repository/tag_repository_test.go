package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"restaurantai/internal/models"
	"restaurantai/pkg/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// tagStore is the method set both implementations share.
type tagStore interface {
	ProcessedHashes(ctx context.Context) (map[string]struct{}, error)
	CachedResponse(ctx context.Context, rowHash string) (*models.CachedResponse, error)
	CommitRow(ctx context.Context, commit models.RowCommit) (int, error)
	Events(ctx context.Context) ([]models.TagEvent, error)
	Reset(ctx context.Context) error
	CatalogEntries(ctx context.Context) ([]models.CatalogEntry, error)
	SeedCatalog(ctx context.Context, entries []models.CatalogEntry) error
	UpsertCatalogEntry(ctx context.Context, entry models.CatalogEntry) error
	PendingTags(ctx context.Context) ([]models.PendingTag, error)
	DeletePendingTag(ctx context.Context, tag string) error
}

func newSQLiteTagRepository(t *testing.T) tagStore {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "events.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(ctx, db))
	return NewTagRepository(db, DialectSQLite, zap.NewNop())
}

func forEachStore(t *testing.T, fn func(t *testing.T, store tagStore)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLiteTagRepository(t)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewInMemoryTagRepository()) })
}

func commitRow(t *testing.T, store tagStore, commit models.RowCommit) int {
	t.Helper()
	inserted, err := store.CommitRow(context.Background(), commit)
	require.NoError(t, err)
	return inserted
}

func sampleCommit(hash string, tags ...string) models.RowCommit {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	commit := models.RowCommit{
		Row: models.ProcessedRow{RowHash: hash, ClientID: "C1", Phone: "999", EventCount: len(tags), ProcessedAt: at},
		Cache: &models.CachedResponse{
			RowHash: hash, CatalogSignature: "sig", Response: `{"items":[]}`, CreatedAt: at,
		},
	}
	for _, tag := range tags {
		commit.Events = append(commit.Events, models.TagEvent{
			RowHash: hash, ClientID: "C1", Phone: "999", Tag: tag,
			Category: models.CategoryFood, Polarity: models.PolarityPositive,
			Origin: models.OriginLLM, ProcessedAt: at,
		})
	}
	return commit
}

func TestCommitRowIndexesAndStoresEvents(t *testing.T) {
	forEachStore(t, func(t *testing.T, store tagStore) {
		ctx := context.Background()
		commitRow(t, store, sampleCommit("h1", "ceviche", "postres"))

		hashes, err := store.ProcessedHashes(ctx)
		require.NoError(t, err)
		assert.Contains(t, hashes, "h1")

		events, err := store.Events(ctx)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "ceviche", events[0].Tag)
		assert.Equal(t, "postres", events[1].Tag)
		assert.Equal(t, models.PolarityPositive, events[0].Polarity)

		cached, err := store.CachedResponse(ctx, "h1")
		require.NoError(t, err)
		assert.Equal(t, "sig", cached.CatalogSignature)
	})
}

func TestCommitRowIgnoresDuplicateEvents(t *testing.T) {
	forEachStore(t, func(t *testing.T, store tagStore) {
		ctx := context.Background()
		assert.Equal(t, 1, commitRow(t, store, sampleCommit("h1", "ceviche")))
		assert.Equal(t, 0, commitRow(t, store, sampleCommit("h1", "ceviche")))
		assert.Equal(t, 1, commitRow(t, store, sampleCommit("h1", "ceviche", "postres")))

		events, err := store.Events(ctx)
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})
}

func TestCachedResponseMissing(t *testing.T) {
	forEachStore(t, func(t *testing.T, store tagStore) {
		_, err := store.CachedResponse(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPendingTagsAccumulate(t *testing.T) {
	forEachStore(t, func(t *testing.T, store tagStore) {
		ctx := context.Background()
		first := sampleCommit("h1")
		first.Pending = []models.PendingTag{{Tag: "causa", FirstSeenAt: time.Now(), ExampleText: "la causa", Occurrences: 1}}
		second := sampleCommit("h2")
		second.Pending = []models.PendingTag{{Tag: "causa", FirstSeenAt: time.Now(), ExampleText: "otra", Occurrences: 1}}

		commitRow(t, store, first)
		commitRow(t, store, second)

		pending, err := store.PendingTags(ctx)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, 2, pending[0].Occurrences)
		assert.Equal(t, "la causa", pending[0].ExampleText)

		require.NoError(t, store.DeletePendingTag(ctx, "causa"))
		assert.ErrorIs(t, store.DeletePendingTag(ctx, "causa"), ErrNotFound)
	})
}

func TestResetKeepsCatalog(t *testing.T) {
	forEachStore(t, func(t *testing.T, store tagStore) {
		ctx := context.Background()
		require.NoError(t, store.SeedCatalog(ctx, models.DefaultCatalog()))
		commit := sampleCommit("h1", "ceviche")
		commit.Pending = []models.PendingTag{{Tag: "causa", FirstSeenAt: time.Now()}}
		commitRow(t, store, commit)

		require.NoError(t, store.Reset(ctx))

		hashes, err := store.ProcessedHashes(ctx)
		require.NoError(t, err)
		assert.Empty(t, hashes)

		events, err := store.Events(ctx)
		require.NoError(t, err)
		assert.Empty(t, events)

		pending, err := store.PendingTags(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)

		_, err = store.CachedResponse(ctx, "h1")
		assert.ErrorIs(t, err, ErrNotFound)

		entries, err := store.CatalogEntries(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, len(models.DefaultCatalog()))
	})
}

func TestCatalogSeedAndUpsert(t *testing.T) {
	forEachStore(t, func(t *testing.T, store tagStore) {
		ctx := context.Background()
		require.NoError(t, store.SeedCatalog(ctx, models.DefaultCatalog()))
		require.NoError(t, store.SeedCatalog(ctx, []models.CatalogEntry{
			{Tag: "ceviche", Category: models.CategoryAmbience, Enabled: true},
		}))

		commit := sampleCommit("h1")
		commit.Pending = []models.PendingTag{{Tag: "causa", FirstSeenAt: time.Now()}}
		commitRow(t, store, commit)

		require.NoError(t, store.UpsertCatalogEntry(ctx, models.CatalogEntry{
			Tag: "causa", Category: models.CategoryFood, Synonyms: []string{"causa_limena"}, Enabled: true,
		}))

		entries, err := store.CatalogEntries(ctx)
		require.NoError(t, err)
		byTag := make(map[string]models.CatalogEntry)
		for _, e := range entries {
			byTag[e.Tag] = e
		}
		assert.Equal(t, models.CategoryFood, byTag["ceviche"].Category, "seed must not overwrite")
		assert.Equal(t, []string{"causa_limena"}, byTag["causa"].Synonyms)
		assert.Equal(t, []string{"tiradito", "leche_de_tigre"}, byTag["ceviche"].Synonyms)

		pending, err := store.PendingTags(ctx)
		require.NoError(t, err)
		assert.Empty(t, pending)
	})
}

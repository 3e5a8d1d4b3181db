package service

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"restaurantai/internal/models"
	"restaurantai/internal/repository"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	positiveAnswer = "El ceviche estuvo excelente"
	negativeAnswer = "El mozo fue muy lento"
)

func twoRowClassifier() *stubClassifier {
	return &stubClassifier{responses: map[string]string{
		positiveAnswer: `{"items":[{"tag":"ceviche","category":"comida","polarity":"bien"},{"tag":"Música","category":"ambiente","polarity":"bien"}]}`,
		negativeAnswer: "```json\n{\"items\":[{\"tag\":\"mozo\",\"polarity\":\"mal\"},{\"tag\":\"tiempo_espera\",\"polarity\":\"mal\"}]}\n```",
	}}
}

func twoRows() []models.FeedbackRow {
	return []models.FeedbackRow{
		feedbackRow("1", "900000001", "", "", positiveAnswer),
		feedbackRow("2", "900000002", negativeAnswer),
	}
}

type eventShape struct {
	RowHash  string
	Tag      string
	Category models.Category
	Polarity models.Polarity
}

func shapes(events []models.TagEvent) []eventShape {
	out := make([]eventShape, 0, len(events))
	for _, e := range events {
		out = append(out, eventShape{RowHash: e.RowHash, Tag: e.Tag, Category: e.Category, Polarity: e.Polarity})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RowHash != out[j].RowHash {
			return out[i].RowHash < out[j].RowHash
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

func newPipeline(store TagStore, classifier Classifier, concurrency int) *PipelineService {
	return NewPipelineService(store, classifier, concurrency, zap.NewNop())
}

func TestPipelineTwoRowsEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryTagRepository()
	catalog := defaultCatalog(t)
	rows := twoRows()

	report, err := newPipeline(store, twoRowClassifier(), 2).Run(ctx, catalog, rows)
	require.NoError(t, err)
	assert.Equal(t, 2, report.PersistedRows)
	assert.Equal(t, 4, report.NewEvents)
	assert.Zero(t, report.FailedRows)
	assert.Equal(t, catalog.Signature(), report.CatalogSignature)

	processed, err := store.ProcessedHashes(ctx)
	require.NoError(t, err)
	assert.Len(t, processed, 2)
	assert.Contains(t, processed, HashRow(rows[0]))
	assert.Contains(t, processed, HashRow(rows[1]))

	events, err := store.Events(ctx)
	require.NoError(t, err)
	byTag := map[string]models.TagEvent{}
	for _, e := range events {
		byTag[e.Tag] = e
		assert.Equal(t, models.OriginLLM, e.Origin)
	}
	require.Len(t, byTag, 4)
	assert.Equal(t, models.PolarityPositive, byTag["ambiente"].Polarity)
	assert.Equal(t, models.CategoryService, byTag["mesero"].Category)
	assert.Equal(t, "900000002", byTag["mesero"].Phone)
	assert.Contains(t, byTag["mesero"].Comment, negativeAnswer)

	metrics := Aggregate(events, catalog, 5)
	assert.Equal(t, 2, metrics.TotalClients)
	assert.Equal(t, 10.0, metrics.CategoryScores[models.CategoryFood])
	assert.Equal(t, 10.0, metrics.CategoryScores[models.CategoryAmbience])
	assert.Equal(t, 0.0, metrics.CategoryScores[models.CategoryService])
	assert.Equal(t, 5.0, metrics.CategoryScores[models.CategoryValue])

	var complaints []string
	for _, tc := range metrics.TopTags[models.PolarityNegative] {
		complaints = append(complaints, tc.Tag)
	}
	assert.ElementsMatch(t, []string{"mesero", "tiempo_espera"}, complaints)
}

func TestPipelineSecondRunIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryTagRepository()
	catalog := defaultCatalog(t)
	classifier := twoRowClassifier()
	pipeline := newPipeline(store, classifier, 4)

	_, err := pipeline.Run(ctx, catalog, twoRows())
	require.NoError(t, err)
	before, err := store.Events(ctx)
	require.NoError(t, err)

	report, err := pipeline.Run(ctx, catalog, twoRows())
	require.NoError(t, err)
	assert.Equal(t, 2, report.SkippedRows)
	assert.Zero(t, report.PersistedRows)
	assert.Zero(t, report.NewEvents)
	assert.EqualValues(t, 2, classifier.calls.Load())

	after, err := store.Events(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPipelineNewRowsOnlyOnAppend(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryTagRepository()
	catalog := defaultCatalog(t)
	classifier := twoRowClassifier()
	pipeline := newPipeline(store, classifier, 4)

	rows := twoRows()
	_, err := pipeline.Run(ctx, catalog, rows[:1])
	require.NoError(t, err)

	report, err := pipeline.Run(ctx, catalog, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, report.SkippedRows)
	assert.Equal(t, 1, report.PersistedRows)
	assert.EqualValues(t, 2, classifier.calls.Load())
}

func TestPipelineReprocessReproducesEvents(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryTagRepository()
	catalog := defaultCatalog(t)
	pipeline := newPipeline(store, twoRowClassifier(), 3)

	_, err := pipeline.Run(ctx, catalog, twoRows())
	require.NoError(t, err)
	first, err := store.Events(ctx)
	require.NoError(t, err)

	report, err := pipeline.Reprocess(ctx, catalog, twoRows())
	require.NoError(t, err)
	assert.Equal(t, 2, report.PersistedRows)
	second, err := store.Events(ctx)
	require.NoError(t, err)

	if diff := cmp.Diff(shapes(first), shapes(second)); diff != "" {
		t.Errorf("reprocess changed the event log (-first +second):\n%s", diff)
	}
}

func TestPipelineMalformedResponseLeavesRowUnindexed(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryTagRepository()
	catalog := defaultCatalog(t)
	rows := twoRows()

	classifier := twoRowClassifier()
	classifier.responses[negativeAnswer] = "Lo siento, no puedo ayudar con eso."

	report, err := newPipeline(store, classifier, 2).Run(ctx, catalog, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, report.PersistedRows)
	assert.Equal(t, 1, report.FailedRows)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, HashRow(rows[1]), report.Failures[0].RowHash)
	assert.Contains(t, report.Failures[0].Reason, ErrMalformedResponse.Error())

	processed, err := store.ProcessedHashes(ctx)
	require.NoError(t, err)
	assert.Contains(t, processed, HashRow(rows[0]))
	assert.NotContains(t, processed, HashRow(rows[1]))

	_, err = store.CachedResponse(ctx, HashRow(rows[1]))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	retry, err := newPipeline(store, twoRowClassifier(), 2).Run(ctx, catalog, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, retry.SkippedRows)
	assert.Equal(t, 1, retry.PersistedRows)
}

func TestPipelineBlankRowIndexedWithoutClassifying(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryTagRepository()
	classifier := twoRowClassifier()
	blank := feedbackRow("9", "", " ", "", "\t")

	report, err := newPipeline(store, classifier, 1).Run(ctx, defaultCatalog(t), []models.FeedbackRow{blank})
	require.NoError(t, err)
	assert.Equal(t, 1, report.BlankRows)
	assert.Zero(t, report.NewEvents)
	assert.Zero(t, classifier.calls.Load())

	processed, err := store.ProcessedHashes(ctx)
	require.NoError(t, err)
	assert.Contains(t, processed, HashRow(blank))
}

func TestPipelineDuplicateRowsInBatch(t *testing.T) {
	classifier := twoRowClassifier()
	rows := append(twoRows(), feedbackRow("3", "900000003", "", "", "  el CEVICHE estuvo excelente"))

	report, err := newPipeline(repository.NewInMemoryTagRepository(), classifier, 2).Run(context.Background(), defaultCatalog(t), rows)
	require.NoError(t, err)
	assert.Equal(t, 1, report.DuplicateRows)
	assert.Equal(t, 2, report.PersistedRows)
	assert.EqualValues(t, 2, classifier.calls.Load())
}

func TestPipelineUnknownTagsGoToPending(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryTagRepository()
	classifier := &stubClassifier{fallback: `{"items":[{"tag":"Parqueo","category":"ambiente","polarity":"mal"},{"tag":"ceviche","polarity":"bien"}]}`}
	rows := []models.FeedbackRow{
		feedbackRow("1", "", "No había donde estacionar"),
		feedbackRow("2", "", "El parqueo es pequeño"),
	}

	report, err := newPipeline(store, classifier, 2).Run(ctx, defaultCatalog(t), rows)
	require.NoError(t, err)
	assert.Equal(t, 2, report.NewPendingTags)

	pending, err := store.PendingTags(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "parqueo", pending[0].Tag)
	assert.Equal(t, 2, pending[0].Occurrences)
	assert.NotEmpty(t, pending[0].ExampleText)

	events, err := store.Events(ctx)
	require.NoError(t, err)
	for _, e := range events {
		assert.NotEqual(t, "parqueo", e.Tag)
	}
	assert.Len(t, events, 2)
}

// forgetfulStore hides the processed index so every row looks new.
type forgetfulStore struct {
	TagStore
}

func (forgetfulStore) ProcessedHashes(context.Context) (map[string]struct{}, error) {
	return map[string]struct{}{}, nil
}

func TestPipelineReusesCachedResponse(t *testing.T) {
	ctx := context.Background()
	inner := repository.NewInMemoryTagRepository()
	store := forgetfulStore{TagStore: inner}
	catalog := defaultCatalog(t)
	classifier := twoRowClassifier()
	pipeline := newPipeline(store, classifier, 2)

	_, err := pipeline.Run(ctx, catalog, twoRows())
	require.NoError(t, err)

	report, err := pipeline.Run(ctx, catalog, twoRows())
	require.NoError(t, err)
	assert.Equal(t, 2, report.CacheHits)
	assert.EqualValues(t, 2, classifier.calls.Load())

	events, err := inner.Events(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 4)

	entries := models.DefaultCatalog()
	for i := range entries {
		if entries[i].Tag == "postres" {
			entries[i].Enabled = false
		}
	}
	edited, err := NewCatalog(entries)
	require.NoError(t, err)

	report, err = pipeline.Run(ctx, edited, twoRows())
	require.NoError(t, err)
	assert.Zero(t, report.CacheHits)
	assert.EqualValues(t, 4, classifier.calls.Load())
}

func TestPipelineCountsOnlyNewlyStoredEvents(t *testing.T) {
	ctx := context.Background()
	store := forgetfulStore{TagStore: repository.NewInMemoryTagRepository()}
	catalog := defaultCatalog(t)
	pipeline := newPipeline(store, twoRowClassifier(), 2)

	first, err := pipeline.Run(ctx, catalog, twoRows())
	require.NoError(t, err)
	assert.Equal(t, 4, first.NewEvents)

	// rows whose events were stored but whose index entry is missing
	again, err := pipeline.Run(ctx, catalog, twoRows())
	require.NoError(t, err)
	assert.Equal(t, 2, again.PersistedRows)
	assert.Zero(t, again.NewEvents)
}

func TestPipelineRespectsConcurrencyLimit(t *testing.T) {
	classifier := &stubClassifier{
		fallback: `{"items":[{"tag":"comida","polarity":"bien"}]}`,
		delay:    2 * time.Millisecond,
	}
	rows := make([]models.FeedbackRow, 0, 40)
	for i := 0; i < 40; i++ {
		rows = append(rows, feedbackRow(fmt.Sprint(i), "", fmt.Sprintf("respuesta número %d", i)))
	}

	report, err := newPipeline(repository.NewInMemoryTagRepository(), classifier, 4).Run(context.Background(), defaultCatalog(t), rows)
	require.NoError(t, err)
	assert.Equal(t, 40, report.PersistedRows)
	assert.Equal(t, 40, report.NewEvents)
	assert.LessOrEqual(t, classifier.peak.Load(), int64(4))
}

func TestPipelineCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := repository.NewInMemoryTagRepository()
	report, err := newPipeline(store, twoRowClassifier(), 2).Run(ctx, defaultCatalog(t), twoRows())
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.FailedRows)

	processed, err := store.ProcessedHashes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, processed)
}

func TestNormalizeItems(t *testing.T) {
	entries := models.DefaultCatalog()
	entries = append(entries, models.CatalogEntry{Tag: "karaoke", Category: models.CategoryAmbience, Enabled: false})
	catalog, err := NewCatalog(entries)
	require.NoError(t, err)

	resolved, unknown := NormalizeItems([]RawTagItem{
		{Tag: "ceviche", Polarity: "bien"},
		{Tag: "Tiradito", Polarity: "mal"},
		{Tag: "ceviche", Polarity: "neutral"},
		{Tag: "mozos", Polarity: "positivo"},
		{Tag: "karaoke", Polarity: "mal"},
		{Tag: "Estacionamiento", Polarity: "mal"},
		{Tag: "estacionamiento", Polarity: "bien"},
		{Tag: "  ", Polarity: "mal"},
	}, catalog)

	got := map[string]models.Polarity{}
	for _, r := range resolved {
		got[r.Entry.Tag] = r.Polarity
	}
	assert.Equal(t, map[string]models.Polarity{
		"ceviche": models.PolarityNegative,
		"mesero":  models.PolarityPositive,
	}, got)
	assert.Equal(t, []string{"estacionamiento"}, unknown)
}

package service

import (
	"context"
	"testing"

	"restaurantai/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordClassifierTagsAnswers(t *testing.T) {
	catalog := defaultCatalog(t)
	row := feedbackRow("7", "",
		"Que los mozos no se olviden de los pedidos",
		"",
		"El ceviche estuvo excelente",
	)

	raw, err := NewKeywordClassifier().Classify(context.Background(), QABlock(row), catalog)
	require.NoError(t, err)

	items, err := ParseTagItems(raw)
	require.NoError(t, err)

	got := map[string]string{}
	for _, it := range items {
		got[it.Tag] = it.Polarity
	}
	assert.Equal(t, map[string]string{
		"mesero":  string(models.PolarityNegative),
		"ceviche": string(models.PolarityPositive),
	}, got)
}

func TestKeywordClassifierSkipsDisabledTags(t *testing.T) {
	catalog, err := NewCatalog([]models.CatalogEntry{
		{Tag: "ceviche", Category: models.CategoryFood, Enabled: false},
	})
	require.NoError(t, err)

	raw, err := NewKeywordClassifier().Classify(context.Background(), QABlock(feedbackRow("1", "", "", "", "ceviche rico")), catalog)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[]}`, raw)
}

func TestKeywordClassifierHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewKeywordClassifier().Classify(ctx, "P1: x\nR1: y", defaultCatalog(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInferPolarity(t *testing.T) {
	cases := []struct {
		answer   string
		question int
		want     models.Polarity
	}{
		{"Todo excelente", 1, models.PolarityPositive},
		{"Muy lento el servicio", 1, models.PolarityNegative},
		{"Bueno pero caro", 3, models.PolarityNeutral},
		{"Normal", 2, models.PolarityNeutral},
		{"La terraza", 4, models.PolarityPositive},
		{"La terraza", 0, models.PolarityNegative},
		{"Nos ignoraron toda la noche", 1, models.PolarityNegative},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, inferPolarity(tc.answer, tc.question), tc.answer)
	}
}

func TestClassifierOrigin(t *testing.T) {
	assert.Equal(t, models.OriginKeyword, classifierOrigin(NewKeywordClassifier()))
	assert.Equal(t, models.OriginLLM, classifierOrigin(&stubClassifier{}))
}

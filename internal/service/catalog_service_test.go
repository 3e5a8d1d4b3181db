package service

import (
	"context"
	"testing"

	"restaurantai/internal/models"
	"restaurantai/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCatalogServiceSeedKeepsEdits(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(repository.NewInMemoryTagRepository(), zap.NewNop())

	require.NoError(t, svc.EnsureSeeded(ctx, models.DefaultCatalog()))
	_, err := svc.AddTag(ctx, models.CatalogEntry{Tag: "ceviche", Category: models.CategoryFood, Enabled: false})
	require.NoError(t, err)
	require.NoError(t, svc.EnsureSeeded(ctx, models.DefaultCatalog()))

	catalog, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.False(t, catalog.Contains("ceviche"))
	assert.Len(t, catalog.Entries(), len(models.DefaultCatalog()))
}

func TestCatalogServicePromotesPendingTag(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryTagRepository()
	svc := NewCatalogService(store, zap.NewNop())
	require.NoError(t, svc.EnsureSeeded(ctx, models.DefaultCatalog()))

	_, err := newPipeline(store, &stubClassifier{fallback: `{"items":[{"tag":"parqueo","polarity":"mal"}]}`}, 1).
		Run(ctx, defaultCatalog(t), []models.FeedbackRow{feedbackRow("1", "", "No hay parqueo")})
	require.NoError(t, err)

	pending, err := svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	entry, err := svc.AddTag(ctx, models.CatalogEntry{
		Tag:      " Parqueo ",
		Category: models.CategoryAmbience,
		Synonyms: []string{"estacionamiento", "parqueo"},
		Enabled:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "parqueo", entry.Tag)
	assert.Equal(t, []string{"estacionamiento"}, entry.Synonyms)

	pending, err = svc.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	catalog, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, catalog.Contains("parqueo"))
}

func TestCatalogServiceValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(repository.NewInMemoryTagRepository(), zap.NewNop())

	_, err := svc.AddTag(ctx, models.CatalogEntry{Tag: "wifi", Category: "tecnologia"})
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = svc.AddTag(ctx, models.CatalogEntry{Tag: "  ", Category: models.CategoryAmbience})
	assert.ErrorIs(t, err, ErrTagRequired)

	assert.ErrorIs(t, svc.DismissPending(ctx, "nada"), ErrPendingTagNotFound)

	assert.Error(t, svc.EnsureSeeded(ctx, []models.CatalogEntry{{Tag: "x", Category: "otra"}}))
}

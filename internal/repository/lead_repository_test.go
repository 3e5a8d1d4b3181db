package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"restaurantai/internal/models"
	"restaurantai/pkg/sqlite"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLead(score int, status models.LeadStatus) *models.Lead {
	now := time.Now().UTC()
	return &models.Lead{
		ID:        uuid.New(),
		ClientID:  "C" + uuid.NewString()[:4],
		Category:  models.LeadHighValue,
		Score:     score,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestLeadRepositoryReplacePendingKeepsApproved(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "leads.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(ctx, db))
	repo := NewLeadRepository(db, DialectSQLite, zap.NewNop())

	approved := newLead(9, models.LeadApproved)
	stale := newLead(7, models.LeadPendingApproval)
	require.NoError(t, repo.ReplacePending(ctx, []*models.Lead{approved, stale}))

	fresh := newLead(8, models.LeadPendingApproval)
	require.NoError(t, repo.ReplacePending(ctx, []*models.Lead{fresh}))

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, approved.ID, all[0].ID)
	assert.Equal(t, fresh.ID, all[1].ID)

	_, err = repo.GetByID(ctx, stale.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	fresh.Status = models.LeadApproved
	fresh.Promotion = "2x1 en pisco sour"
	require.NoError(t, repo.Update(ctx, fresh))

	got, err := repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.LeadApproved, got.Status)
	assert.Equal(t, "2x1 en pisco sour", got.Promotion)

	pending, err := repo.List(ctx, models.LeadPendingApproval)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestInMemoryLeadRepositoryUpdateUnknown(t *testing.T) {
	repo := NewInMemoryLeadRepository()
	err := repo.Update(context.Background(), newLead(6, models.LeadApproved))
	assert.ErrorIs(t, err, ErrNotFound)
}

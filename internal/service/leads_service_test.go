package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"restaurantai/internal/models"
	"restaurantai/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	scoringKey   = "experto en CRM"
	promotionKey = "encargado de marketing"
)

func leadRows() []models.FeedbackRow {
	rows := []models.FeedbackRow{
		feedbackRow("1", "900111222", "", "Excelente", "Todo delicioso"),
		feedbackRow("2", "900333444", "", "Bien", "Volveré pronto"),
		feedbackRow("3", "", "Demasiada espera"),
	}
	rows[0].Spend = 250
	rows[1].Spend = 80
	rows[2].Spend = 40
	return rows
}

func leadsLLM() *stubLLM {
	return &stubLLM{responses: map[string]string{
		scoringKey: `{"leads": [
			{"id_cliente": 1, "score": 9, "categoria": "alto_valor", "motivo": "Gasto alto y muy satisfecho", "accion_sugerida": "Invitar a una cata"},
			{"id_cliente": "2", "score": 7, "categoria": "retencion", "motivo": "Primera visita"},
			{"id_cliente": "2", "score": 8, "categoria": "Recurrente", "motivo": "Dice que volverá"},
			{"id_cliente": "3", "score": 5, "categoria": "retencion", "motivo": "Bajo puntaje"},
			{"id_cliente": "99", "score": 10, "categoria": "referidor", "motivo": "Cliente inventado"},
			{"id_cliente": "1", "score": 7, "categoria": "vip", "motivo": "Categoría inválida"}
		]}`,
		promotionKey: `{"promociones": [{"id_cliente": 1, "promocion": "Cena de degustación para dos"}]}`,
	}}
}

func TestLeadsRunRanksAndDrafts(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryLeadRepository()
	svc := NewLeadsService(leadsLLM(), store, zap.NewNop())

	leads, err := svc.Run(ctx, leadRows())
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, "1", leads[0].ClientID)
	assert.Equal(t, 9, leads[0].Score)
	assert.Equal(t, models.LeadHighValue, leads[0].Category)
	assert.Equal(t, "900111222", leads[0].Phone)
	assert.Equal(t, 250.0, leads[0].Spend)
	assert.Equal(t, "Cena de degustación para dos", leads[0].Promotion)

	assert.Equal(t, "2", leads[1].ClientID)
	assert.Equal(t, 8, leads[1].Score)
	assert.Equal(t, models.LeadRecurring, leads[1].Category)
	assert.Equal(t, "Gracias por volver: 10% de descuento en tu siguiente visita.", leads[1].Promotion)

	pending, err := svc.List(ctx, models.LeadPendingApproval)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	for _, l := range pending {
		assert.Equal(t, models.LeadPendingApproval, l.Status)
	}
}

func TestLeadsApprove(t *testing.T) {
	ctx := context.Background()
	svc := NewLeadsService(leadsLLM(), repository.NewInMemoryLeadRepository(), zap.NewNop())

	leads, err := svc.Run(ctx, leadRows())
	require.NoError(t, err)
	require.NotEmpty(t, leads)

	approved, err := svc.Approve(ctx, leads[0].ID, "  Cena con pisco de cortesía ")
	require.NoError(t, err)
	assert.Equal(t, models.LeadApproved, approved.Status)
	assert.Equal(t, "Cena con pisco de cortesía", approved.Promotion)

	_, err = svc.Approve(ctx, leads[0].ID, "")
	assert.ErrorIs(t, err, ErrLeadNotPending)

	_, err = svc.Approve(ctx, uuid.New(), "")
	assert.ErrorIs(t, err, ErrLeadNotFound)

	// A new scoring pass replaces pending leads only.
	_, err = svc.Run(ctx, leadRows())
	require.NoError(t, err)
	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	done, err := svc.List(ctx, models.LeadApproved)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, leads[0].ID, done[0].ID)
}

func TestLeadsPromotionFailureUsesTemplates(t *testing.T) {
	llm := leadsLLM()
	llm.responses[promotionKey] = "sin ideas"

	leads, err := NewLeadsService(llm, repository.NewInMemoryLeadRepository(), zap.NewNop()).Run(context.Background(), leadRows())
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "Invitar a una cata", leads[0].Promotion)
}

func TestLeadsRequireModel(t *testing.T) {
	_, err := NewLeadsService(nil, repository.NewInMemoryLeadRepository(), zap.NewNop()).Run(context.Background(), leadRows())
	assert.ErrorIs(t, err, ErrNoLanguageModel)
}

func TestFilterLeadsAndCSV(t *testing.T) {
	leads := []*models.Lead{
		{ClientID: "1", Score: 9, Category: models.LeadHighValue, Spend: 250, Promotion: "Cena", Status: models.LeadApproved},
		{ClientID: "2", Score: 7, Category: models.LeadRetention, Spend: 80, Status: models.LeadPendingApproval},
		{ClientID: "3", Score: 6, Category: models.LeadReferrer, Spend: 40, Status: models.LeadPendingApproval},
	}

	assert.Len(t, FilterLeads(leads, 7, nil), 2)
	only := FilterLeads(leads, 6, []models.LeadCategory{models.LeadReferrer})
	require.Len(t, only, 1)
	assert.Equal(t, "3", only[0].ClientID)
	assert.NotNil(t, FilterLeads(nil, 6, nil))

	var buf bytes.Buffer
	require.NoError(t, WriteLeadsCSV(&buf, leads[:1]))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, leadCSVHeader, records[0])
	assert.Equal(t, []string{"1", "", "250.00", "alto_valor", "9", "", "", "Cena", "approved"}, records[1])
}

package service

import (
	"strings"
	"testing"

	"restaurantai/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func csvHeader() string {
	cols := append([]string{"ID_Cliente", "numero_tel_cliente", "costo_del_consumo"}, models.Questions[:]...)
	return strings.Join(cols, ",")
}

func TestLoadFeedbackCSV(t *testing.T) {
	data := "\ufeff" + csvHeader() + "\n" +
		`101,987654321.0,"S/. 120,50",Nada,"Muy amables, rápidos",El ceviche,Justo,La música,Nada` + "\n" +
		`102,,80,,,,,,` + "\n"

	rows, err := LoadFeedbackCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "101", rows[0].ClientID)
	assert.Equal(t, "987654321", rows[0].Phone)
	assert.Equal(t, 120.5, rows[0].Spend)
	assert.Equal(t, "Muy amables, rápidos", rows[0].Answers[1])
	assert.Equal(t, "Nada", rows[0].Answers[5])

	assert.Equal(t, 80.0, rows[1].Spend)
	assert.True(t, IsBlank(rows[1]))
}

func TestLoadFeedbackCSVMissingQuestion(t *testing.T) {
	_, err := LoadFeedbackCSV(strings.NewReader("ID_Cliente,numero_tel_cliente\n1,2\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoadFeedbackCSVEmpty(t *testing.T) {
	rows, err := LoadFeedbackCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseSpend(t *testing.T) {
	cases := map[string]float64{
		"120":        120,
		"S/. 120,50": 120.5,
		"1,250.00":   1250,
		"1,250":      1250,
		"S/ 12,500":  12500,
		"2,5":        2.5,
		"S/ 45.9":    45.9,
		"":           0,
		"gratis":     0,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseSpend(in), in)
	}
}

func TestFeedbackTextSkipsBlankRows(t *testing.T) {
	text := FeedbackText([]models.FeedbackRow{
		feedbackRow("1", "", "Nada"),
		feedbackRow("2", ""),
	})
	assert.Contains(t, text, "Cliente 1 (gasto 0.00):")
	assert.NotContains(t, text, "Cliente 2")
}

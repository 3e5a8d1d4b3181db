package service

import (
	"context"
	"fmt"

	"restaurantai/internal/models"

	"go.uber.org/zap"
)

const (
	stepSentiment = "analyze_sentiment"
	stepThemes    = "extract_themes"
	stepSummary   = "build_summary"
)

const legacySentimentPrompt = `Eres un analista de experiencia del cliente para restaurantes peruanos.
Analiza los feedbacks y devuelve ÚNICAMENTE un JSON válido (sin markdown, sin texto adicional) con:
{
  "atencion": <score 0-10>,
  "comida": <score 0-10>,
  "precio_calidad": <score 0-10>,
  "ambiente": <score 0-10>,
  "experiencia_general": <score 0-10>,
  "positivos": <cantidad de clientes con experiencia positiva>,
  "negativos": <cantidad de clientes con experiencia negativa>,
  "neutros": <cantidad de clientes con experiencia neutra>
}`

const legacyThemesPrompt = `Eres un analista de experiencia del cliente para restaurantes peruanos.
Extrae los temas principales de los feedbacks y devuelve ÚNICAMENTE un JSON válido (sin markdown) con:
{
  "top_praises": ["elogio 1", "elogio 2", "elogio 3", "elogio 4", "elogio 5"],
  "top_complaints": ["queja 1", "queja 2", "queja 3", "queja 4", "queja 5"],
  "top_dishes": ["plato 1", "plato 2", "plato 3"],
  "improvement_areas": ["área 1", "área 2", "área 3"]
}`

const legacySummaryPrompt = `Eres un consultor de restaurantes. Genera un resumen ejecutivo del feedback recibido
y devuelve ÚNICAMENTE un JSON válido (sin markdown) con:
{
  "resumen": "<2-3 oraciones resumiendo la experiencia general>",
  "fortaleza_principal": "<principal punto fuerte del restaurante>",
  "recomendacion_principal": "<acción más urgente para mejorar>"
}`

// LegacyDashboardService runs the whole-dataset chain: sentiment scores,
// then themes, then a summary. A failing step stops the chain.
type LegacyDashboardService struct {
	llm    LLMClient
	logger *zap.Logger
}

func NewLegacyDashboardService(llm LLMClient, logger *zap.Logger) *LegacyDashboardService {
	return &LegacyDashboardService{llm: llm, logger: logger}
}

func (s *LegacyDashboardService) Run(ctx context.Context, rows []models.FeedbackRow) models.LegacyDashboard {
	text := FeedbackText(rows)
	state := models.LegacyDashboard{SentimentScores: map[string]float64{}}
	s.logger.Info("Legacy dashboard chain started", zap.Int("input_chars", len(text)))

	steps := []struct {
		name   string
		system string
		prompt string
		target any
	}{
		{stepSentiment, legacySentimentPrompt, "Analiza estos feedbacks de comensales:\n\n" + text, &state.SentimentScores},
		{stepThemes, legacyThemesPrompt, "Extrae los temas de estos feedbacks:\n\n" + text, &state.KeyThemes},
		{stepSummary, legacySummaryPrompt, "Genera un resumen ejecutivo de estos feedbacks:\n\n" + text, &state.Summary},
	}

	for _, step := range steps {
		if err := s.runStep(ctx, step.name, step.system, step.prompt, step.target); err != nil {
			s.logger.Error("Legacy dashboard step failed", zap.String("step", step.name), zap.Error(err))
			state.Error = err.Error()
			state.FailedAt = step.name
			return state
		}
		s.logger.Info("Legacy dashboard step done", zap.String("step", step.name))
	}
	return state
}

func (s *LegacyDashboardService) runStep(ctx context.Context, name, system, prompt string, target any) error {
	if s.llm == nil {
		return fmt.Errorf("%s: no language model configured", name)
	}
	raw, err := s.llm.Generate(ctx, system, prompt)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := decodeModelJSON(raw, target); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"restaurantai/internal/models"

	"go.uber.org/zap"
)

const (
	maxSignals        = 3
	maxSignalComments = 3

	SummarySourceLLM      = "llm"
	SummarySourceFallback = "fallback"
)

// ExecutiveContext is what the summary model sees: the top signals with
// real diner comments.
type ExecutiveContext struct {
	TotalCustomers int             `json:"total_customers"`
	Strengths      []models.Signal `json:"fortalezas_top3"`
	Weaknesses     []models.Signal `json:"debilidades_top3"`
}

// SelectTopSignals picks up to three strengths and three weaknesses.
func SelectTopSignals(insights []models.TagInsight) (strengths, weaknesses []models.TagInsight) {
	strengths = Strengths(insights)
	if len(strengths) > maxSignals {
		strengths = strengths[:maxSignals]
	}
	weaknesses = Weaknesses(insights)
	if len(weaknesses) > maxSignals {
		weaknesses = weaknesses[:maxSignals]
	}
	return strengths, weaknesses
}

// BuildExecutiveContext attaches up to three distinct comments per signal,
// taken from events with the matching polarity.
func BuildExecutiveContext(events []models.TagEvent, metrics models.AggregateMetrics) ExecutiveContext {
	strengths, weaknesses := SelectTopSignals(metrics.Insights)
	ctx := ExecutiveContext{
		TotalCustomers: metrics.TotalClients,
		Strengths:      make([]models.Signal, 0, len(strengths)),
		Weaknesses:     make([]models.Signal, 0, len(weaknesses)),
	}
	for _, in := range strengths {
		ctx.Strengths = append(ctx.Strengths, toSignal(in, collectComments(events, in.Tag, models.PolarityPositive)))
	}
	for _, in := range weaknesses {
		ctx.Weaknesses = append(ctx.Weaknesses, toSignal(in, collectComments(events, in.Tag, models.PolarityNegative)))
	}
	return ctx
}

func toSignal(in models.TagInsight, samples []string) models.Signal {
	return models.Signal{
		Tag:      in.Tag,
		Category: in.Category,
		Positive: in.Positive,
		Negative: in.Negative,
		Balance:  in.Balance,
		Samples:  samples,
	}
}

// collectComments prefers comments with the signal's polarity and falls back
// to any comment on the tag when none match.
func collectComments(events []models.TagEvent, tag string, polarity models.Polarity) []string {
	if out := tagComments(events, tag, func(p models.Polarity) bool { return p == polarity }); len(out) > 0 {
		return out
	}
	return tagComments(events, tag, func(models.Polarity) bool { return true })
}

func tagComments(events []models.TagEvent, tag string, keep func(models.Polarity) bool) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, e := range events {
		if e.Tag != tag || !keep(e.Polarity) {
			continue
		}
		c := strings.TrimSpace(e.Comment)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
		if len(out) == maxSignalComments {
			break
		}
	}
	return out
}

const summarySystemPrompt = `Eres consultor senior de restaurantes.
Recibirás las 3 principales fortalezas y debilidades con comentarios reales de clientes.

Devuelve ÚNICAMENTE JSON válido con este formato:
{
  "resumen": "<2-4 oraciones ejecutivas>",
  "fortalezas": ["<fortaleza 1>", "<fortaleza 2>", "<fortaleza 3>"],
  "debilidades": ["<debilidad 1>", "<debilidad 2>", "<debilidad 3>"],
  "plan_mejora": ["<acción 1>", "<acción 2>", "<acción 3>"],
  "fortaleza_principal": "<principal fortaleza>",
  "recomendacion_principal": "<acción de impacto inmediato>"
}

Reglas:
- Usa solo la evidencia del contexto.
- No inventes tags, cifras ni comentarios.
- Escribe en español claro y accionable para el dueño.`

// SummaryService writes the executive summary. It never fails: without a
// model, or when the model misbehaves, a deterministic summary is returned.
type SummaryService struct {
	llm    LLMClient
	logger *zap.Logger
}

func NewSummaryService(llm LLMClient, logger *zap.Logger) *SummaryService {
	return &SummaryService{llm: llm, logger: logger}
}

type rawSummary struct {
	Summary              string          `json:"resumen"`
	Strengths            json.RawMessage `json:"fortalezas"`
	Weaknesses           json.RawMessage `json:"debilidades"`
	ImprovementPlan      json.RawMessage `json:"plan_mejora"`
	HeadlineStrength     string          `json:"fortaleza_principal"`
	UrgentRecommendation string          `json:"recomendacion_principal"`
}

func (s *SummaryService) Generate(ctx context.Context, ec ExecutiveContext) models.ExecutiveSummary {
	fallback := FallbackSummary(ec)
	if s.llm == nil {
		return fallback
	}

	payload, err := json.Marshal(ec)
	if err != nil {
		s.logger.Error("Failed to encode summary context", zap.Error(err))
		return fallback
	}

	raw, err := s.llm.Generate(ctx, summarySystemPrompt, "CONTEXTO:\n"+string(payload))
	if err != nil {
		s.logger.Warn("Summary generation failed, using fallback", zap.Error(err))
		return fallback
	}

	var parsed rawSummary
	if err := decodeModelJSON(raw, &parsed); err != nil {
		s.logger.Warn("Summary response not parseable, using fallback", zap.Error(err))
		return fallback
	}

	out := models.ExecutiveSummary{
		Summary:              strings.TrimSpace(parsed.Summary),
		Strengths:            toTextList(parsed.Strengths),
		Weaknesses:           toTextList(parsed.Weaknesses),
		ImprovementPlan:      toTextList(parsed.ImprovementPlan),
		HeadlineStrength:     strings.TrimSpace(parsed.HeadlineStrength),
		UrgentRecommendation: strings.TrimSpace(parsed.UrgentRecommendation),
		Source:               SummarySourceLLM,
	}
	if out.Summary == "" {
		return fallback
	}
	if len(out.Strengths) == 0 {
		out.Strengths = fallback.Strengths
	}
	if len(out.Weaknesses) == 0 {
		out.Weaknesses = fallback.Weaknesses
	}
	if len(out.ImprovementPlan) == 0 {
		out.ImprovementPlan = fallback.ImprovementPlan
	}
	if out.HeadlineStrength == "" {
		out.HeadlineStrength = "sin hallazgos"
		if len(out.Strengths) > 0 {
			out.HeadlineStrength = out.Strengths[0]
		}
	}
	if out.UrgentRecommendation == "" {
		out.UrgentRecommendation = out.ImprovementPlan[0]
	}
	return out
}

// FallbackSummary builds the summary from the signals alone.
func FallbackSummary(ec ExecutiveContext) models.ExecutiveSummary {
	strengthTags := make([]string, 0, len(ec.Strengths))
	strengths := make([]string, 0, len(ec.Strengths))
	for _, sig := range ec.Strengths {
		strengthTags = append(strengthTags, sig.Tag)
		strengths = append(strengths, fmt.Sprintf("%s: %d clientes positivos (balance %+d).", sig.Tag, sig.Positive, sig.Balance))
	}
	weaknessTags := make([]string, 0, len(ec.Weaknesses))
	weaknesses := make([]string, 0, len(ec.Weaknesses))
	for _, sig := range ec.Weaknesses {
		weaknessTags = append(weaknessTags, sig.Tag)
		weaknesses = append(weaknesses, fmt.Sprintf("%s: %d clientes negativos (balance %+d).", sig.Tag, sig.Negative, sig.Balance))
	}

	first := "Definir foco principal de mejora semanal."
	if len(weaknessTags) > 0 {
		first = fmt.Sprintf("Atender de inmediato el tag '%s' con plan operativo semanal.", weaknessTags[0])
	}
	plan := []string{
		first,
		"Capacitar al equipo usando comentarios reales como casos de entrenamiento.",
		"Medir semanalmente la variación del balance por tag para validar impacto.",
	}

	headline := "sin hallazgos"
	if len(strengthTags) > 0 {
		headline = strengthTags[0]
	}

	return models.ExecutiveSummary{
		Summary: fmt.Sprintf("Se analizaron %d clientes. Fortalezas: %s. Debilidades: %s.",
			ec.TotalCustomers, joinOr(strengthTags, "sin datos"), joinOr(weaknessTags, "sin datos")),
		Strengths:            strengths,
		Weaknesses:           weaknesses,
		ImprovementPlan:      plan,
		HeadlineStrength:     headline,
		UrgentRecommendation: plan[0],
		Source:               SummarySourceFallback,
	}
}

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}

// toTextList accepts either a JSON string or a list of values.
func toTextList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, v := range list {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" && v != nil {
				out = append(out, s)
			}
		}
		return out
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single = strings.TrimSpace(single); single != "" {
			return []string{single}
		}
	}
	return nil
}

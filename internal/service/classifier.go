package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"restaurantai/internal/models"

	"go.uber.org/zap"
)

// Classifier turns one row's question/answer block into a raw model
// response. Parsing and normalization happen in the pipeline.
type Classifier interface {
	Classify(ctx context.Context, block string, catalog *Catalog) (string, error)
}

// originReporter is implemented by classifiers whose output is not produced
// by a language model.
type originReporter interface {
	Origin() models.TagOrigin
}

func classifierOrigin(c Classifier) models.TagOrigin {
	if o, ok := c.(originReporter); ok {
		return o.Origin()
	}
	return models.OriginLLM
}

const classifierSystemPrompt = `Eres un analista de experiencia de clientes de un restaurante peruano.
Clasificas comentarios de encuestas en un catálogo cerrado de tags.
Respondes SOLO con JSON válido, sin markdown ni texto adicional.`

type promptTag struct {
	Tag      string          `json:"tag"`
	Category models.Category `json:"category"`
	Synonyms []string        `json:"synonyms,omitempty"`
}

// BuildClassificationPrompt embeds the enabled catalog and the row block.
func BuildClassificationPrompt(block string, catalog *Catalog) string {
	tags := make([]promptTag, 0, len(catalog.Enabled()))
	for _, e := range catalog.Enabled() {
		tags = append(tags, promptTag{Tag: e.Tag, Category: e.Category, Synonyms: e.Synonyms})
	}
	catalogJSON, _ := json.Marshal(tags)

	return fmt.Sprintf(`Analiza las respuestas de un cliente y detecta los temas mencionados.

Catálogo permitido (usa SOLO estos tags canónicos):
%s

Polaridad: "bien" (elogio), "mal" (queja o sugerencia de mejora), "neutral" (mención sin juicio claro).

Respuestas del cliente:
%s

Devuelve exactamente este formato:
{"items":[{"tag":"<tag del catálogo>","category":"<categoría del tag>","polarity":"bien|mal|neutral"}]}

REGLAS:
- Un item por tema mencionado; no repitas el mismo tag con la misma polaridad.
- Si un tema no está en el catálogo, propón un tag corto en snake_case.
- Si no hay temas, devuelve {"items":[]}.`, catalogJSON, block)
}

// LLMClassifier asks a language model to tag a row.
// A positive timeout bounds each call.
type LLMClassifier struct {
	llm     LLMClient
	timeout time.Duration
	logger  *zap.Logger
}

func NewLLMClassifier(llm LLMClient, timeout time.Duration, logger *zap.Logger) *LLMClassifier {
	return &LLMClassifier{llm: llm, timeout: timeout, logger: logger}
}

func (c *LLMClassifier) Classify(ctx context.Context, block string, catalog *Catalog) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	raw, err := c.llm.Generate(ctx, classifierSystemPrompt, BuildClassificationPrompt(block, catalog))
	if err != nil {
		return "", fmt.Errorf("%s classification failed: %w", c.llm.Name(), err)
	}
	c.logger.Debug("Row classified", zap.String("model", c.llm.Name()), zap.Int("response_length", len(raw)))
	return raw, nil
}

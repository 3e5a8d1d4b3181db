package service

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"restaurantai/internal/models"
)

// Per-question polarity when an answer carries no sentiment hint. The
// "improve" and "change" questions imply a complaint.
var questionDefaultPolarity = [models.QuestionCount]models.Polarity{
	models.PolarityNegative,
	models.PolarityPositive,
	models.PolarityPositive,
	models.PolarityPositive,
	models.PolarityPositive,
	models.PolarityNegative,
}

var (
	positiveHints = []string{
		"excelente", "amable", "amables", "buena", "bueno", "bien", "genial", "agradable",
		"recomendado", "espectacular", "rico", "justo", "impecable",
	}
	negativeHints = []string{
		"olvidaban", "olvidaron", "malo", "mala", "pesimo", "lento", "lenta", "demora",
		"tard", "caro", "frio", "fria", "prepotente", "desorganizada", "descuidada", "mal",
		"nunca", "rogar", "queja", "error",
	}
	neutralHints = []string{
		"normal", "regular", "promedio", "aceptable", "correcta", "correcto", "ok", "a secas",
	}
	strongNegative = regexp.MustCompile(`\b(colapsad[oa]s?|olvid\w+|ignor\w+|desapareci\w+)\b`)
	qaHeader       = regexp.MustCompile(`^P(\d+): `)
)

// KeywordClassifier is the offline classifier: catalog synonyms are matched
// in each answer and polarity comes from hint words. It emits the same JSON
// shape the language models are asked for.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (KeywordClassifier) Origin() models.TagOrigin {
	return models.OriginKeyword
}

func (k KeywordClassifier) Classify(ctx context.Context, block string, catalog *Catalog) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	items := []RawTagItem{}
	for _, qa := range splitQABlock(block) {
		polarity := inferPolarity(qa.answer, qa.index)
		for _, e := range detectTags(qa.answer, catalog) {
			items = append(items, RawTagItem{Tag: e.Tag, Category: string(e.Category), Polarity: string(polarity)})
		}
	}

	out, err := json.Marshal(map[string][]RawTagItem{"items": items})
	if err != nil {
		return "", err
	}
	return string(out), nil
}

type qaPair struct {
	index  int
	answer string
}

// splitQABlock reverses QABlock. Index is zero-based.
func splitQABlock(block string) []qaPair {
	var out []qaPair
	for _, chunk := range strings.Split(block, "\n\n") {
		lines := strings.SplitN(chunk, "\n", 2)
		if len(lines) != 2 {
			continue
		}
		m := qaHeader.FindStringSubmatch(lines[0])
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > models.QuestionCount {
			continue
		}
		answer := lines[1]
		if i := strings.Index(answer, ": "); i >= 0 {
			answer = answer[i+2:]
		}
		out = append(out, qaPair{index: n - 1, answer: answer})
	}
	return out
}

func foldText(s string) string {
	return " " + foldAccents(normalizeAnswer(s)) + " "
}

// detectTags finds catalog entries whose name or synonym starts a word in
// the answer. Short candidates must match a whole word.
func detectTags(answer string, catalog *Catalog) []models.CatalogEntry {
	text := foldText(answer)
	var out []models.CatalogEntry
	for _, e := range catalog.Enabled() {
		candidates := append([]string{e.Tag}, e.Synonyms...)
		for _, cand := range candidates {
			phrase := foldAccents(strings.ReplaceAll(cand, "_", " "))
			if phrase == "" {
				continue
			}
			needle := " " + phrase
			if len([]rune(phrase)) < 5 {
				needle += " "
			}
			if strings.Contains(text, needle) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func hasHint(text string, hints []string) bool {
	for _, h := range hints {
		needle := " " + foldAccents(h)
		if len(h) <= 3 || strings.Contains(h, " ") {
			needle += " "
		}
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func inferPolarity(answer string, question int) models.Polarity {
	text := foldText(answer)
	if strongNegative.MatchString(text) {
		return models.PolarityNegative
	}

	pos := hasHint(text, positiveHints)
	neg := hasHint(text, negativeHints)
	switch {
	case pos && neg:
		return models.PolarityNeutral
	case neg:
		return models.PolarityNegative
	case pos:
		return models.PolarityPositive
	case hasHint(text, neutralHints):
		return models.PolarityNeutral
	}

	if question >= 0 && question < models.QuestionCount {
		return questionDefaultPolarity[question]
	}
	return models.PolarityNeutral
}

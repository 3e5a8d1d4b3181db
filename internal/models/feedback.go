package models

// QuestionCount is the number of free-text survey answers per feedback row.
const QuestionCount = 6

// Survey questions in CSV column order.
var Questions = [QuestionCount]string{
	"¿Qué mejorarías de la atención?",
	"¿Qué te pareció la atención?",
	"¿Qué te gustó más de la comida?",
	"¿Qué opina sobre la relación entre calidad y precio?",
	"¿Qué te gustó mas del ambiente?",
	"¿Qué es lo que cambiarías de la experiencia?",
}

// FeedbackRow is one diner's survey response as loaded from the CSV export.
type FeedbackRow struct {
	ClientID string
	Phone    string
	Spend    float64
	Answers  [QuestionCount]string
}

// CustomerKey identifies the diner behind a row. Phone wins over client id.
func (r FeedbackRow) CustomerKey() string {
	if r.Phone != "" {
		return r.Phone
	}
	return r.ClientID
}

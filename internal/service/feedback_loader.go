package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"restaurantai/internal/models"
)

const (
	columnClientID = "ID_Cliente"
	columnPhone    = "numero_tel_cliente"
	columnSpend    = "costo_del_consumo"
)

var ErrMissingColumn = errors.New("missing column")

// thousandsComma matches amounts grouped only with commas, like 1,250 or 12,500,000.
var thousandsComma = regexp.MustCompile(`^\d{1,3}(,\d{3})+$`)

// LoadFeedbackFile reads the survey export at path.
func LoadFeedbackFile(path string) ([]models.FeedbackRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feedback file: %w", err)
	}
	defer f.Close()
	return LoadFeedbackCSV(f)
}

// LoadFeedbackCSV parses the survey export. Columns are located by header
// name; every question column is required, the contact columns are not.
func LoadFeedbackCSV(r io.Reader) ([]models.FeedbackRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		index[h] = i
	}

	var questionIdx [models.QuestionCount]int
	for i, q := range models.Questions {
		idx, ok := index[q]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, q)
		}
		questionIdx[i] = idx
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []models.FeedbackRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := models.FeedbackRow{
			ClientID: field(record, columnClientID),
			Phone:    normalizePhone(field(record, columnPhone)),
			Spend:    parseSpend(field(record, columnSpend)),
		}
		for i, idx := range questionIdx {
			if idx < len(record) {
				row.Answers[i] = strings.TrimSpace(sanitizeUTF8(record[idx]))
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseSpend reads amounts like "120", "S/. 120,50", "1,250" or "1,250.00".
func parseSpend(s string) float64 {
	if i := strings.IndexAny(s, "0123456789"); i >= 0 {
		s = s[i:]
	}
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	v := b.String()
	switch {
	case strings.Contains(v, ".") && strings.Contains(v, ","):
		v = strings.ReplaceAll(v, ",", "")
	case thousandsComma.MatchString(v):
		v = strings.ReplaceAll(v, ",", "")
	case strings.Contains(v, ","):
		v = strings.ReplaceAll(v, ",", ".")
	}
	f, err := strconv.ParseFloat(strings.Trim(v, "."), 64)
	if err != nil {
		return 0
	}
	return f
}

func normalizePhone(s string) string {
	s = strings.TrimSuffix(s, ".0")
	return strings.Join(strings.Fields(s), "")
}

// FeedbackText renders rows as plain text for the whole-dataset prompts.
func FeedbackText(rows []models.FeedbackRow) string {
	var b strings.Builder
	for _, row := range rows {
		if IsBlank(row) {
			continue
		}
		fmt.Fprintf(&b, "Cliente %s (gasto %.2f):\n%s\n\n", row.ClientID, row.Spend, QABlock(row))
	}
	return strings.TrimSpace(b.String())
}

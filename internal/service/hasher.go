package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"restaurantai/internal/models"
)

const answerSeparator = "\x1f"

// normalizeAnswer lower-cases, collapses whitespace runs and trims.
func normalizeAnswer(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(sanitizeUTF8(s))), " ")
}

// HashRow fingerprints a row by its six answers only. Rows with the same
// normalized answers hash identically regardless of position or client.
func HashRow(row models.FeedbackRow) string {
	parts := make([]string, len(row.Answers))
	for i, a := range row.Answers {
		parts[i] = normalizeAnswer(a)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, answerSeparator)))
	return hex.EncodeToString(sum[:])
}

// IsBlank reports whether every answer is empty after normalization.
func IsBlank(row models.FeedbackRow) bool {
	for _, a := range row.Answers {
		if normalizeAnswer(a) != "" {
			return false
		}
	}
	return true
}

// QABlock renders a row as numbered question/answer pairs for prompts and
// as the comment attached to each event.
func QABlock(row models.FeedbackRow) string {
	var b strings.Builder
	for i, q := range models.Questions {
		a := strings.Join(strings.Fields(sanitizeUTF8(row.Answers[i])), " ")
		if a == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "P%d: %s\nR%d: %s", i+1, q, i+1, a)
	}
	return b.String()
}

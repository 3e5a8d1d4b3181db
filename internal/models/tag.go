package models

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryService    Category = "atencion"
	CategoryFood       Category = "comida"
	CategoryValue      Category = "precio_calidad"
	CategoryAmbience   Category = "ambiente"
	CategoryExperience Category = "experiencia_general"
)

// Categories lists the fixed taxonomy in display order.
var Categories = []Category{
	CategoryService,
	CategoryFood,
	CategoryValue,
	CategoryAmbience,
	CategoryExperience,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Polarity string

const (
	PolarityPositive Polarity = "bien"
	PolarityNeutral  Polarity = "neutral"
	PolarityNegative Polarity = "mal"
)

// Polarities lists the buckets in display order.
var Polarities = []Polarity{PolarityPositive, PolarityNeutral, PolarityNegative}

// ParsePolarity maps free-form model output onto a polarity. Anything
// unrecognized is neutral.
func ParsePolarity(s string) Polarity {
	switch Polarity(s) {
	case PolarityPositive, PolarityNegative, PolarityNeutral:
		return Polarity(s)
	}
	switch s {
	case "positive", "positivo", "buena", "bueno":
		return PolarityPositive
	case "negative", "negativo", "mala", "malo":
		return PolarityNegative
	}
	return PolarityNeutral
}

// Rank orders polarities for dominance: mal > bien > neutral.
func (p Polarity) Rank() int {
	switch p {
	case PolarityNegative:
		return 2
	case PolarityPositive:
		return 1
	default:
		return 0
	}
}

// Dominant returns whichever polarity wins under mal > bien > neutral.
func Dominant(a, b Polarity) Polarity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

type TagOrigin string

const (
	OriginLLM     TagOrigin = "llm"
	OriginKeyword TagOrigin = "keyword"
)

// TagEvent is one catalog tag observed in one feedback row. Events are
// append-only and unique on (RowHash, Tag).
type TagEvent struct {
	ID          uuid.UUID `db:"id" json:"id"`
	RowHash     string    `db:"row_hash" json:"row_hash"`
	ClientID    string    `db:"client_id" json:"client_id"`
	Phone       string    `db:"phone" json:"phone"`
	Comment     string    `db:"comment" json:"comment"`
	Tag         string    `db:"tag" json:"tag"`
	Category    Category  `db:"category" json:"category"`
	Polarity    Polarity  `db:"polarity" json:"polarity"`
	Origin      TagOrigin `db:"origin" json:"origin"`
	ProcessedAt time.Time `db:"processed_at" json:"processed_at"`
}

// CustomerKey falls back from phone to client id to row hash.
func (e TagEvent) CustomerKey() string {
	switch {
	case e.Phone != "":
		return e.Phone
	case e.ClientID != "":
		return e.ClientID
	default:
		return e.RowHash
	}
}

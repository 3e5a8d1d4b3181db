package models

import (
	"time"

	"github.com/google/uuid"
)

type LeadCategory string

const (
	LeadHighValue LeadCategory = "alto_valor"
	LeadRetention LeadCategory = "retencion"
	LeadRecurring LeadCategory = "recurrente"
	LeadReferrer  LeadCategory = "referidor"
)

func (c LeadCategory) Valid() bool {
	switch c {
	case LeadHighValue, LeadRetention, LeadRecurring, LeadReferrer:
		return true
	}
	return false
}

type LeadStatus string

const (
	LeadPendingApproval LeadStatus = "pending_approval"
	LeadApproved        LeadStatus = "approved"
)

// MinLeadScore is the lowest score kept after ranking.
const MinLeadScore = 6

type Lead struct {
	ID              uuid.UUID    `db:"id" json:"id"`
	ClientID        string       `db:"client_id" json:"client_id"`
	Phone           string       `db:"phone" json:"phone"`
	Spend           float64      `db:"spend" json:"spend"`
	Category        LeadCategory `db:"category" json:"category"`
	Score           int          `db:"score" json:"score"`
	Reason          string       `db:"reason" json:"reason"`
	SuggestedAction string       `db:"suggested_action" json:"suggested_action"`
	Promotion       string       `db:"promotion" json:"promotion"`
	Status          LeadStatus   `db:"status" json:"status"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

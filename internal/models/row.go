package models

import "time"

// RowState tracks a row through one pipeline run.
type RowState string

const (
	RowUnseen      RowState = "unseen"
	RowClassifying RowState = "classifying"
	RowNormalizing RowState = "normalizing"
	RowPersisted   RowState = "persisted"
	RowFailed      RowState = "failed"
)

// ProcessedRow is the index entry written together with a row's events.
type ProcessedRow struct {
	RowHash     string    `db:"row_hash" json:"row_hash"`
	ClientID    string    `db:"client_id" json:"client_id"`
	Phone       string    `db:"phone" json:"phone"`
	EventCount  int       `db:"event_count" json:"event_count"`
	ProcessedAt time.Time `db:"processed_at" json:"processed_at"`
}

// CachedResponse is a raw classifier response keyed by row hash.
type CachedResponse struct {
	RowHash          string    `db:"row_hash" json:"row_hash"`
	CatalogSignature string    `db:"catalog_signature" json:"catalog_signature"`
	Response         string    `db:"response" json:"response"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// RowCommit is everything one row contributes to the store. It is written
// in a single transaction.
type RowCommit struct {
	Row     ProcessedRow
	Events  []TagEvent
	Cache   *CachedResponse
	Pending []PendingTag
}

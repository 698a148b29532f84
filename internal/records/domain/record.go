package domain

import (
	"encoding/json"
	"time"
)

// Record is an editable, versioned lab record. Version starts at 0 on
// creation and increases by exactly 1 on every accepted write; writers must
// declare the version they read and are rejected when it is stale.
type Record struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	ReferenceCode string          `json:"reference_code"`
	Title         string          `json:"title"`
	Payload       json.RawMessage `json:"payload"`
	ItemCount     int             `json:"item_count"`
	Version       int64           `json:"version"`
	UpdatedBy     string          `json:"updated_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// RecordWrite is the caller-declared mutation of a Record. BaseVersion is
// the version the caller read; the write is applied only if it still matches.
type RecordWrite struct {
	Title     string
	Payload   json.RawMessage
	ItemCount int
	UpdatedBy string
}

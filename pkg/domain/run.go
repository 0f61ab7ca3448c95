package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunID uniquely identifies one aggregation run.
// It wraps uuid.UUID to provide type safety at the domain layer.
type RunID uuid.UUID

// NewRunID returns a fresh random run identifier.
func NewRunID() RunID { return RunID(uuid.New()) }

// String returns the canonical textual form of the run ID.
func (id RunID) String() string { return uuid.UUID(id).String() }

// SourceStats records one source's contribution to a finished run.
//
// Raw counts the source's normalized domains before merging. Unique counts
// domains in the final dataset, inside this source's category, that no other
// source of the same category also listed. Overlap is Raw minus Unique, so
// Unique+Overlap == Raw always holds. Statistics are informational only and
// never feed back into categorization.
type SourceStats struct {
	SourceID string   `json:"source_id"`
	Category Category `json:"category"`
	Raw      int      `json:"raw"`
	Unique   int      `json:"unique_contribution"`
	Overlap  int      `json:"overlap"`
	// Invalid counts lines rejected by normalization; it plays no part in the
	// conservation identity above.
	Invalid int `json:"invalid"`
}

// Metadata describes a generated dataset snapshot.
type Metadata struct {
	RunID        RunID
	GeneratedAt  time.Time
	TotalDomains int
	Disposable   int
	Free         int
	PaidPersonal int
}

// Run is one recorded aggregation run: its metadata plus the per-source
// statistics table.
type Run struct {
	ID           RunID
	GeneratedAt  time.Time
	TotalDomains int
	Disposable   int
	Free         int
	PaidPersonal int
	Sources      []SourceStats

	// CreatedAt is when the run was recorded in the history store.
	CreatedAt time.Time
}

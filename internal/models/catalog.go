package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// JobType is a catalog entry describing how a kind of work is priced.
// The catalog is maintained outside the engine and read-only here.
type JobType struct {
	JobTypeID  uuid.UUID
	Name       string
	UnitCost   int64 // tokens debited from the organization per unit
	UnitPayout int64 // tokens credited to the performer per unit
}

// Performer is a creative who can be assigned tickets.
type Performer struct {
	PerformerID  uuid.UUID
	Name         string
	Active       bool
	Skills       []uuid.UUID // job types this performer is skilled in
	TokenBalance int64       // earned tokens, moved only by the ledger
	CreatedAt    time.Time
}

// HasSkill reports whether the performer is skilled in the job type.
func (p *Performer) HasSkill(jobTypeID uuid.UUID) bool {
	return slices.Contains(p.Skills, jobTypeID)
}

// AssignmentReason is the outcome of an assignment decision.
type AssignmentReason string

const (
	AssignmentAuto     AssignmentReason = "AUTO_ASSIGN"
	AssignmentFallback AssignmentReason = "FALLBACK"
)

// AssignmentLogEntry is the audit record of an intake assignment decision.
type AssignmentLogEntry struct {
	LogID       uuid.UUID
	TicketID    uuid.UUID
	PerformerID *uuid.UUID // nil on fallback
	Reason      AssignmentReason
	Metadata    map[string]any // algorithm version, skill filtering, fallback cause
	CreatedAt   time.Time
}

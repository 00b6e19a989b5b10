package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	StatusTodo       TicketStatus = "TODO"
	StatusInProgress TicketStatus = "IN_PROGRESS"
	StatusInReview   TicketStatus = "IN_REVIEW"
	StatusDone       TicketStatus = "DONE"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusDone:
		return true
	}
	return false
}

// Open reports whether a ticket in this status counts towards performer load.
func (s TicketStatus) Open() bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusInReview
}

// OpenStatuses lists the statuses that make up a performer's open workload.
var OpenStatuses = []TicketStatus{StatusTodo, StatusInProgress, StatusInReview}

// Priority of a ticket.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

const (
	MinQuantity = 1
	MaxQuantity = 10
)

// Ticket is the billable unit of creative work.
type Ticket struct {
	TicketID    uuid.UUID // UUIDv7
	OrgID       uuid.UUID
	Number      int64 // sequential per organization, starts at 1
	Title       string
	Description string
	Status      TicketStatus
	Priority    Priority
	Quantity    int

	JobTypeID      *uuid.UUID // nil for untyped tickets, which carry no cost
	CostOverride   *int64     // replaces job_type.unit_cost * quantity when set
	PayoutOverride *int64     // replaces job_type.unit_payout * quantity when set

	AssignedTo  *uuid.UUID // performer
	RequesterID uuid.UUID

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Clone returns a deep copy of the ticket.
func (t *Ticket) Clone() *Ticket {
	c := *t
	c.JobTypeID = cloneUUID(t.JobTypeID)
	c.AssignedTo = cloneUUID(t.AssignedTo)
	c.CostOverride = cloneInt64(t.CostOverride)
	c.PayoutOverride = cloneInt64(t.PayoutOverride)
	if t.CompletedAt != nil {
		ts := *t.CompletedAt
		c.CompletedAt = &ts
	}
	return &c
}

// Revision is one round of work submitted for review.
// Feedback holds the requester's revision note when the work is sent back.
type Revision struct {
	RevisionID  uuid.UUID
	TicketID    uuid.UUID
	Number      int
	SubmittedBy uuid.UUID
	SubmittedAt time.Time
	Feedback    string
	FeedbackBy  *uuid.UUID
	FeedbackAt  *time.Time
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Package tokenboardv1 holds the request and response messages of the
// tokenboard.v1 RPC services. Messages travel as JSON; unknown fields are
// rejected by the codec in tokenboardv1connect.
package tokenboardv1

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is a billable unit of creative work.
type Ticket struct {
	TicketID        uuid.UUID  `json:"ticket_id"`
	OrgID           uuid.UUID  `json:"org_id"`
	Number          int64      `json:"number"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	Quantity        int        `json:"quantity"`
	JobTypeID       *uuid.UUID `json:"job_type_id,omitempty"`
	CostOverride    *int64     `json:"cost_override,omitempty"`
	PayoutOverride  *int64     `json:"payout_override,omitempty"`
	EffectiveCost   *int64     `json:"effective_cost,omitempty"`
	EffectivePayout *int64     `json:"effective_payout,omitempty"`
	AssignedTo      *uuid.UUID `json:"assigned_to,omitempty"`
	RequesterID     uuid.UUID  `json:"requester_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Revision is one round of work submitted for review.
type Revision struct {
	RevisionID  uuid.UUID  `json:"revision_id"`
	Number      int        `json:"number"`
	SubmittedBy uuid.UUID  `json:"submitted_by"`
	SubmittedAt time.Time  `json:"submitted_at"`
	Feedback    string     `json:"feedback,omitempty"`
	FeedbackBy  *uuid.UUID `json:"feedback_by,omitempty"`
	FeedbackAt  *time.Time `json:"feedback_at,omitempty"`
}

// Assignment is the recorded intake assignment decision for a ticket.
type Assignment struct {
	TicketID    uuid.UUID      `json:"ticket_id"`
	PerformerID *uuid.UUID     `json:"performer_id,omitempty"`
	Reason      string         `json:"reason"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// LedgerEntry is an immutable record of one token movement.
type LedgerEntry struct {
	EntryID       uuid.UUID      `json:"entry_id"`
	Account       string         `json:"account"`
	OrgID         uuid.UUID      `json:"org_id"`
	TicketID      *uuid.UUID     `json:"ticket_id,omitempty"`
	PerformerID   *uuid.UUID     `json:"performer_id,omitempty"`
	Direction     string         `json:"direction"`
	Amount        int64          `json:"amount"`
	Reason        string         `json:"reason"`
	Note          string         `json:"note,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	BalanceBefore int64          `json:"balance_before"`
	BalanceAfter  int64          `json:"balance_after"`
	CreatedAt     time.Time      `json:"created_at"`
}

type CreateTicketRequest struct {
	OrgID       uuid.UUID  `json:"org_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	JobTypeID   *uuid.UUID `json:"job_type_id,omitempty"`
	Quantity    int        `json:"quantity"`
	Priority    string     `json:"priority"`
}

type CreateTicketResponse struct {
	Ticket *Ticket `json:"ticket"`
}

type TransitionStatusRequest struct {
	TicketID     uuid.UUID `json:"ticket_id"`
	Status       string    `json:"status"`
	RevisionNote string    `json:"revision_note,omitempty"`
}

type TransitionStatusResponse struct {
	Ticket *Ticket `json:"ticket"`
}

// UpdateOverridesRequest edits a ticket's overrides. A missing value leaves
// the override as it is; the clear flags remove it.
type UpdateOverridesRequest struct {
	TicketID            uuid.UUID `json:"ticket_id"`
	CostOverride        *int64    `json:"cost_override,omitempty"`
	PayoutOverride      *int64    `json:"payout_override,omitempty"`
	ClearCostOverride   bool      `json:"clear_cost_override,omitempty"`
	ClearPayoutOverride bool      `json:"clear_payout_override,omitempty"`
}

type UpdateOverridesResponse struct {
	Ticket *Ticket `json:"ticket"`
}

type ReassignTicketRequest struct {
	TicketID    uuid.UUID `json:"ticket_id"`
	PerformerID uuid.UUID `json:"performer_id"`
}

type ReassignTicketResponse struct {
	Ticket *Ticket `json:"ticket"`
}

type GetTicketRequest struct {
	TicketID uuid.UUID `json:"ticket_id"`
}

type GetTicketResponse struct {
	Ticket *Ticket `json:"ticket"`
}

type ListTicketsRequest struct {
	OrgID      uuid.UUID  `json:"org_id"`
	Status     string     `json:"status,omitempty"`
	AssignedTo *uuid.UUID `json:"assigned_to,omitempty"`
	Page       int        `json:"page,omitempty"`
	PageSize   int        `json:"page_size,omitempty"`
}

type ListTicketsResponse struct {
	Tickets []*Ticket `json:"tickets"`
}

type ListRevisionsRequest struct {
	TicketID uuid.UUID `json:"ticket_id"`
}

type ListRevisionsResponse struct {
	Revisions []*Revision `json:"revisions"`
}

type GetAssignmentRequest struct {
	TicketID uuid.UUID `json:"ticket_id"`
}

type GetAssignmentResponse struct {
	Assignment *Assignment `json:"assignment"`
}

// GetBalanceRequest names exactly one account.
type GetBalanceRequest struct {
	OrgID       *uuid.UUID `json:"org_id,omitempty"`
	PerformerID *uuid.UUID `json:"performer_id,omitempty"`
}

type GetBalanceResponse struct {
	Balance int64 `json:"balance"`
}

// ListLedgerRequest lists an organization's ledger when OrgID is set, with
// PerformerID as a filter. Without OrgID it lists PerformerID's earnings.
type ListLedgerRequest struct {
	OrgID       uuid.UUID  `json:"org_id"`
	Direction   string     `json:"direction,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	TicketID    *uuid.UUID `json:"ticket_id,omitempty"`
	PerformerID *uuid.UUID `json:"performer_id,omitempty"`
	Since       *time.Time `json:"since,omitempty"`
	Until       *time.Time `json:"until,omitempty"`
	Page        int        `json:"page,omitempty"`
	PageSize    int        `json:"page_size,omitempty"`
}

type ListLedgerResponse struct {
	Entries  []*LedgerEntry `json:"entries"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	HasMore  bool           `json:"has_more"`
}

type AdjustBalanceRequest struct {
	OrgID     uuid.UUID `json:"org_id"`
	Direction string    `json:"direction"`
	Amount    int64     `json:"amount"`
	Note      string    `json:"note"`
}

type AdjustBalanceResponse struct {
	Entry *LedgerEntry `json:"entry"`
}

type CreditPurchaseRequest struct {
	OrgID     uuid.UUID `json:"org_id"`
	Amount    int64     `json:"amount"`
	Reference string    `json:"reference"`
}

type CreditPurchaseResponse struct {
	Entry *LedgerEntry `json:"entry"`
}

type WithdrawRequest struct {
	PerformerID uuid.UUID `json:"performer_id"`
	Amount      int64     `json:"amount"`
	Note        string    `json:"note,omitempty"`
}

type WithdrawResponse struct {
	Entry *LedgerEntry `json:"entry"`
}

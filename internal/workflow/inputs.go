package workflow

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/wolfeidau/tokenboard/internal/models"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 10_000
	MaxNoteLength        = 2_000
)

// CreateTicketInput is the request to open a new ticket.
type CreateTicketInput struct {
	OrgID       uuid.UUID
	Title       string
	Description string
	JobTypeID   *uuid.UUID
	Quantity    int
	Priority    models.Priority
}

// Validate checks the input before any side effect runs.
func (in *CreateTicketInput) Validate() error {
	if in.OrgID == uuid.Nil {
		return invalid("organization id is required")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return invalid("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return invalid("title must be at most %d characters", MaxTitleLength)
	}
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLength {
		return invalid("description must be at most %d characters", MaxDescriptionLength)
	}
	if in.Quantity < models.MinQuantity || in.Quantity > models.MaxQuantity {
		return invalid("quantity must be between %d and %d", models.MinQuantity, models.MaxQuantity)
	}
	if !in.Priority.Valid() {
		return invalid("unknown priority %q", in.Priority)
	}
	if in.JobTypeID != nil && *in.JobTypeID == uuid.Nil {
		return invalid("job type id must not be the nil UUID")
	}
	return nil
}

// TransitionInput is the request to move a ticket to another status.
type TransitionInput struct {
	TicketID     uuid.UUID
	Status       models.TicketStatus
	RevisionNote string
}

// Validate checks the input before any side effect runs.
func (in *TransitionInput) Validate() error {
	if in.TicketID == uuid.Nil {
		return invalid("ticket id is required")
	}
	if !in.Status.Valid() {
		return invalid("unknown status %q", in.Status)
	}
	if utf8.RuneCountInString(in.RevisionNote) > MaxNoteLength {
		return invalid("revision note must be at most %d characters", MaxNoteLength)
	}
	return nil
}

// OverridesInput edits a ticket's cost and payout overrides.
// A nil value leaves the override unchanged; Clear* removes it.
type OverridesInput struct {
	TicketID            uuid.UUID
	CostOverride        *int64
	PayoutOverride      *int64
	ClearCostOverride   bool
	ClearPayoutOverride bool
}

// Validate checks the input before any side effect runs.
func (in *OverridesInput) Validate() error {
	if in.TicketID == uuid.Nil {
		return invalid("ticket id is required")
	}
	if in.CostOverride != nil && in.ClearCostOverride {
		return invalid("cost override cannot be both set and cleared")
	}
	if in.PayoutOverride != nil && in.ClearPayoutOverride {
		return invalid("payout override cannot be both set and cleared")
	}
	if in.CostOverride != nil && (*in.CostOverride < 0 || *in.CostOverride > models.MaxAmount) {
		return invalid("cost override must be between 0 and %d", models.MaxAmount)
	}
	if in.PayoutOverride != nil && (*in.PayoutOverride < 0 || *in.PayoutOverride > models.MaxAmount) {
		return invalid("payout override must be between 0 and %d", models.MaxAmount)
	}
	return nil
}

// AdjustInput is an explicit operator correction of an organization balance.
type AdjustInput struct {
	OrgID     uuid.UUID
	Direction models.Direction
	Amount    int64
	Note      string
}

// Validate checks the input before any side effect runs.
func (in *AdjustInput) Validate() error {
	if in.OrgID == uuid.Nil {
		return invalid("organization id is required")
	}
	if !in.Direction.Valid() {
		return invalid("unknown direction %q", in.Direction)
	}
	if err := validateAmount(in.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(in.Note) == "" {
		return invalid("a note is required for adjustments")
	}
	if utf8.RuneCountInString(in.Note) > MaxNoteLength {
		return invalid("note must be at most %d characters", MaxNoteLength)
	}
	return nil
}

// PurchaseInput credits tokens an organization bought.
type PurchaseInput struct {
	OrgID     uuid.UUID
	Amount    int64
	Reference string // payment reference, recorded in metadata
}

// Validate checks the input before any side effect runs.
func (in *PurchaseInput) Validate() error {
	if in.OrgID == uuid.Nil {
		return invalid("organization id is required")
	}
	if err := validateAmount(in.Amount); err != nil {
		return err
	}
	if strings.TrimSpace(in.Reference) == "" {
		return invalid("a payment reference is required")
	}
	return nil
}

// WithdrawInput pays out a performer's earned tokens.
type WithdrawInput struct {
	PerformerID uuid.UUID
	Amount      int64
	Note        string
}

// Validate checks the input before any side effect runs.
func (in *WithdrawInput) Validate() error {
	if in.PerformerID == uuid.Nil {
		return invalid("performer id is required")
	}
	if err := validateAmount(in.Amount); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.Note) > MaxNoteLength {
		return invalid("note must be at most %d characters", MaxNoteLength)
	}
	return nil
}

func validateAmount(amount int64) error {
	if amount <= 0 || amount > models.MaxAmount {
		return invalid("amount must be between 1 and %d", models.MaxAmount)
	}
	return nil
}

package server

import (
	"context"

	v1 "github.com/wolfeidau/tokenboard/api/tokenboard/v1"
	"github.com/wolfeidau/tokenboard/internal/models"
)

func (s *TicketServer) toTicket(ctx context.Context, t *models.Ticket) (*v1.Ticket, error) {
	values, err := s.engine.Values(ctx, t)
	if err != nil {
		return nil, err
	}

	return &v1.Ticket{
		TicketID:        t.TicketID,
		OrgID:           t.OrgID,
		Number:          t.Number,
		Title:           t.Title,
		Description:     t.Description,
		Status:          string(t.Status),
		Priority:        string(t.Priority),
		Quantity:        t.Quantity,
		JobTypeID:       t.JobTypeID,
		CostOverride:    t.CostOverride,
		PayoutOverride:  t.PayoutOverride,
		EffectiveCost:   values.Cost,
		EffectivePayout: values.Payout,
		AssignedTo:      t.AssignedTo,
		RequesterID:     t.RequesterID,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		CompletedAt:     t.CompletedAt,
	}, nil
}

func toRevision(r *models.Revision) *v1.Revision {
	return &v1.Revision{
		RevisionID:  r.RevisionID,
		Number:      r.Number,
		SubmittedBy: r.SubmittedBy,
		SubmittedAt: r.SubmittedAt,
		Feedback:    r.Feedback,
		FeedbackBy:  r.FeedbackBy,
		FeedbackAt:  r.FeedbackAt,
	}
}

func toAssignment(a *models.AssignmentLogEntry) *v1.Assignment {
	return &v1.Assignment{
		TicketID:    a.TicketID,
		PerformerID: a.PerformerID,
		Reason:      string(a.Reason),
		Metadata:    a.Metadata,
		CreatedAt:   a.CreatedAt,
	}
}

func toLedgerEntry(e *models.LedgerEntry) *v1.LedgerEntry {
	return &v1.LedgerEntry{
		EntryID:       e.EntryID,
		Account:       string(e.Account),
		OrgID:         e.OrgID,
		TicketID:      e.TicketID,
		PerformerID:   e.PerformerID,
		Direction:     string(e.Direction),
		Amount:        e.Amount,
		Reason:        string(e.Reason),
		Note:          e.Note,
		Metadata:      e.Metadata,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		CreatedAt:     e.CreatedAt,
	}
}

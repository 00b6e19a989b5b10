package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
)

var _ store.Tx = (*tx)(nil)

// tx implements store.Tx on a pgx transaction opened by Store.RunInTx.
type tx struct {
	queries
}

func (t *tx) LockOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE org_id = $1 FOR UPDATE`
	return t.getOrganization(ctx, query, orgID)
}

func (t *tx) LockPerformer(ctx context.Context, performerID uuid.UUID) (*models.Performer, error) {
	return t.getPerformer(ctx, performerSelect+` WHERE p.performer_id = $1 FOR UPDATE OF p`, performerID)
}

func (t *tx) LockTicket(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	return t.getTicket(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE ticket_id = $1 FOR UPDATE`, ticketID)
}

func (t *tx) SetOrganizationBalance(ctx context.Context, orgID uuid.UUID, balance int64) error {
	result, err := t.q.Exec(ctx,
		`UPDATE organizations SET token_balance = $2, updated_at = NOW() WHERE org_id = $1`,
		orgID, balance)
	if err != nil {
		return wrapErr("set organization balance", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrOrganizationNotFound
	}
	return nil
}

func (t *tx) SetPerformerBalance(ctx context.Context, performerID uuid.UUID, balance int64) error {
	result, err := t.q.Exec(ctx,
		`UPDATE performers SET token_balance = $2 WHERE performer_id = $1`,
		performerID, balance)
	if err != nil {
		return wrapErr("set performer balance", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrPerformerNotFound
	}
	return nil
}

func (t *tx) InsertLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (` + ledgerColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	_, err := t.q.Exec(ctx, query,
		entry.EntryID,
		entry.Account,
		entry.OrgID,
		entry.TicketID,
		entry.PerformerID,
		entry.Direction,
		entry.Amount,
		entry.Reason,
		entry.Note,
		metadataArg(entry.Metadata),
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.CreatedAt,
	)
	if err != nil {
		if isDuplicatePayout(err) {
			// a concurrent transaction paid out first
			return wrapErr("insert ledger entry", errors.Join(store.ErrConflict, err))
		}
		return wrapErr("insert ledger entry", err)
	}
	return nil
}

func (t *tx) HasLedgerEntry(ctx context.Context, key store.LedgerKey) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM ledger_entries
			WHERE org_id = $1 AND ticket_id = $2 AND performer_id = $3 AND reason = $4
		)
	`

	var exists bool
	err := t.q.QueryRow(ctx, query, key.OrgID, key.TicketID, key.PerformerID, key.Reason).Scan(&exists)
	if err != nil {
		return false, wrapErr("check ledger entry", err)
	}
	return exists, nil
}

func (t *tx) NextTicketNumber(ctx context.Context, orgID uuid.UUID) (int64, error) {
	query := `
		INSERT INTO ticket_counters (org_id, last_number) VALUES ($1, 1)
		ON CONFLICT (org_id) DO UPDATE SET last_number = ticket_counters.last_number + 1
		RETURNING last_number
	`

	var n int64
	if err := t.q.QueryRow(ctx, query, orgID).Scan(&n); err != nil {
		if errors.Is(mapPostgresError(err), store.ErrNotFound) {
			return 0, store.ErrOrganizationNotFound
		}
		return 0, wrapErr("allocate ticket number", err)
	}
	return n, nil
}

func (t *tx) InsertTicket(ctx context.Context, ticket *models.Ticket) error {
	query := `
		INSERT INTO tickets (` + ticketColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
	`

	_, err := t.q.Exec(ctx, query,
		ticket.TicketID,
		ticket.OrgID,
		ticket.Number,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Quantity,
		ticket.JobTypeID,
		ticket.CostOverride,
		ticket.PayoutOverride,
		ticket.AssignedTo,
		ticket.RequesterID,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.CompletedAt,
	)
	if err != nil {
		return wrapErr("insert ticket", err)
	}
	return nil
}

func (t *tx) UpdateTicket(ctx context.Context, ticket *models.Ticket) error {
	query := `
		UPDATE tickets SET
			title = $2,
			description = $3,
			status = $4,
			priority = $5,
			quantity = $6,
			job_type_id = $7,
			cost_override = $8,
			payout_override = $9,
			assigned_to = $10,
			updated_at = $11,
			completed_at = $12
		WHERE ticket_id = $1
	`

	result, err := t.q.Exec(ctx, query,
		ticket.TicketID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Quantity,
		ticket.JobTypeID,
		ticket.CostOverride,
		ticket.PayoutOverride,
		ticket.AssignedTo,
		ticket.UpdatedAt,
		ticket.CompletedAt,
	)
	if err != nil {
		return wrapErr("update ticket", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrTicketNotFound
	}
	return nil
}

func (t *tx) CountTicketsByStatus(ctx context.Context, orgID uuid.UUID, status models.TicketStatus) (int, error) {
	var count int
	err := t.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE org_id = $1 AND status = $2`,
		orgID, status).Scan(&count)
	if err != nil {
		return 0, wrapErr("count tickets", err)
	}
	return count, nil
}

func (t *tx) InsertRevision(ctx context.Context, rev *models.Revision) error {
	query := `
		INSERT INTO ticket_revisions (` + revisionColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`

	_, err := t.q.Exec(ctx, query,
		rev.RevisionID,
		rev.TicketID,
		rev.Number,
		rev.SubmittedBy,
		rev.SubmittedAt,
		rev.Feedback,
		rev.FeedbackBy,
		rev.FeedbackAt,
	)
	if err != nil {
		return wrapErr("insert revision", err)
	}
	return nil
}

func (t *tx) UpdateRevision(ctx context.Context, rev *models.Revision) error {
	result, err := t.q.Exec(ctx,
		`UPDATE ticket_revisions SET feedback = $2, feedback_by = $3, feedback_at = $4 WHERE revision_id = $1`,
		rev.RevisionID, rev.Feedback, rev.FeedbackBy, rev.FeedbackAt)
	if err != nil {
		return wrapErr("update revision", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrRevisionNotFound
	}
	return nil
}

func (t *tx) LatestRevision(ctx context.Context, ticketID uuid.UUID) (*models.Revision, error) {
	query := `
		SELECT ` + revisionColumns + `
		FROM ticket_revisions
		WHERE ticket_id = $1
		ORDER BY number DESC
		LIMIT 1
	`

	rev, err := scanRevision(t.q.QueryRow(ctx, query, ticketID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrRevisionNotFound
		}
		return nil, wrapErr("get latest revision", err)
	}
	return rev, nil
}

func (t *tx) ListActivePerformers(ctx context.Context, skill *uuid.UUID) ([]*models.Performer, error) {
	query := performerSelect + `
		WHERE p.active
			AND ($1::uuid IS NULL OR EXISTS (
				SELECT 1 FROM performer_skills k
				WHERE k.performer_id = p.performer_id AND k.job_type_id = $1
			))
		ORDER BY p.created_at, p.performer_id
	`

	rows, err := t.q.Query(ctx, query, skill)
	if err != nil {
		return nil, wrapErr("list performers", err)
	}
	return collect(rows, scanPerformer)
}

func (t *tx) ListOpenTickets(ctx context.Context, performerID uuid.UUID) ([]*models.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE assigned_to = $1 AND status IN ('TODO', 'IN_PROGRESS', 'IN_REVIEW')
		ORDER BY created_at
	`

	rows, err := t.q.Query(ctx, query, performerID)
	if err != nil {
		return nil, wrapErr("list open tickets", err)
	}
	return collect(rows, scanTicket)
}

func (t *tx) InsertAssignmentLog(ctx context.Context, entry *models.AssignmentLogEntry) error {
	query := `
		INSERT INTO assignment_log (log_id, ticket_id, performer_id, reason, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := t.q.Exec(ctx, query,
		entry.LogID,
		entry.TicketID,
		entry.PerformerID,
		entry.Reason,
		metadataArg(entry.Metadata),
		entry.CreatedAt,
	)
	if err != nil {
		return wrapErr("insert assignment log", err)
	}
	return nil
}

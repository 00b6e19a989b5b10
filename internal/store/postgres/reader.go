package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/store"
)

const (
	organizationColumns = `org_id, name, token_balance, plan_id, max_in_progress, auto_assign, active, created_at, updated_at`

	ticketColumns = `ticket_id, org_id, number, title, description, status, priority, quantity,
		job_type_id, cost_override, payout_override, assigned_to, requester_id,
		created_at, updated_at, completed_at`

	revisionColumns = `revision_id, ticket_id, number, submitted_by, submitted_at, feedback, feedback_by, feedback_at`

	ledgerColumns = `entry_id, account, org_id, ticket_id, performer_id, direction, amount, reason, note,
		metadata, balance_before, balance_after, created_at`

	// performers are always read with their skills folded in
	performerSelect = `
		SELECT p.performer_id, p.name, p.active, p.token_balance, p.created_at,
			COALESCE(
				(SELECT array_agg(s.job_type_id::text ORDER BY s.job_type_id)
				 FROM performer_skills s WHERE s.performer_id = p.performer_id),
				'{}'
			)
		FROM performers p
	`
)

// queries implements store.Reader on top of a pool or a transaction.
type queries struct {
	q querier
}

func (r queries) GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE org_id = $1`
	return r.getOrganization(ctx, query, orgID)
}

func (r queries) getOrganization(ctx context.Context, query string, orgID uuid.UUID) (*models.Organization, error) {
	org, err := scanOrganization(r.q.QueryRow(ctx, query, orgID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrOrganizationNotFound
		}
		return nil, wrapErr("get organization", err)
	}
	return org, nil
}

func (r queries) GetPerformer(ctx context.Context, performerID uuid.UUID) (*models.Performer, error) {
	return r.getPerformer(ctx, performerSelect+` WHERE p.performer_id = $1`, performerID)
}

func (r queries) getPerformer(ctx context.Context, query string, performerID uuid.UUID) (*models.Performer, error) {
	p, err := scanPerformer(r.q.QueryRow(ctx, query, performerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrPerformerNotFound
		}
		return nil, wrapErr("get performer", err)
	}
	return p, nil
}

func (r queries) GetJobType(ctx context.Context, jobTypeID uuid.UUID) (*models.JobType, error) {
	query := `SELECT job_type_id, name, unit_cost, unit_payout FROM job_types WHERE job_type_id = $1`

	var jt models.JobType
	err := r.q.QueryRow(ctx, query, jobTypeID).Scan(
		&jt.JobTypeID,
		&jt.Name,
		&jt.UnitCost,
		&jt.UnitPayout,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrJobTypeNotFound
		}
		return nil, wrapErr("get job type", err)
	}
	return &jt, nil
}

func (r queries) GetTicket(ctx context.Context, ticketID uuid.UUID) (*models.Ticket, error) {
	return r.getTicket(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE ticket_id = $1`, ticketID)
}

func (r queries) getTicket(ctx context.Context, query string, ticketID uuid.UUID) (*models.Ticket, error) {
	t, err := scanTicket(r.q.QueryRow(ctx, query, ticketID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTicketNotFound
		}
		return nil, wrapErr("get ticket", err)
	}
	return t, nil
}

func (r queries) ListTickets(ctx context.Context, orgID uuid.UUID, filter store.TicketFilter) ([]*models.Ticket, error) {
	query := `
		SELECT ` + ticketColumns + `
		FROM tickets
		WHERE org_id = $1
			AND ($2::text = '' OR status = $2)
			AND ($3::uuid IS NULL OR assigned_to = $3)
		ORDER BY number DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.q.Query(ctx, query, orgID, string(filter.Status), filter.AssignedTo, limitArg(filter.Limit), filter.Offset)
	if err != nil {
		return nil, wrapErr("list tickets", err)
	}
	return collect(rows, scanTicket)
}

func (r queries) ListRevisions(ctx context.Context, ticketID uuid.UUID) ([]*models.Revision, error) {
	query := `SELECT ` + revisionColumns + ` FROM ticket_revisions WHERE ticket_id = $1 ORDER BY number`

	rows, err := r.q.Query(ctx, query, ticketID)
	if err != nil {
		return nil, wrapErr("list revisions", err)
	}
	return collect(rows, scanRevision)
}

func (r queries) ListLedgerEntries(ctx context.Context, orgID uuid.UUID, q store.LedgerQuery) ([]*models.LedgerEntry, error) {
	return r.listLedger(ctx, `account = 'ORGANIZATION' AND org_id = $1`, orgID, q)
}

func (r queries) ListPerformerLedgerEntries(ctx context.Context, performerID uuid.UUID, q store.LedgerQuery) ([]*models.LedgerEntry, error) {
	return r.listLedger(ctx, `account = 'PERFORMER' AND performer_id = $1`, performerID, q)
}

// listLedger runs a filtered ledger listing. owner must only reference $1.
func (r queries) listLedger(ctx context.Context, owner string, ownerID uuid.UUID, q store.LedgerQuery) ([]*models.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE ` + owner + `
			AND ($2::text = '' OR direction = $2)
			AND ($3::text = '' OR reason = $3)
			AND ($4::uuid IS NULL OR ticket_id = $4)
			AND ($5::uuid IS NULL OR performer_id = $5)
			AND ($6::timestamptz IS NULL OR created_at >= $6)
			AND ($7::timestamptz IS NULL OR created_at < $7)
		ORDER BY created_at DESC, entry_id DESC
		LIMIT $8 OFFSET $9
	`

	rows, err := r.q.Query(ctx, query,
		ownerID,
		string(q.Direction),
		string(q.Reason),
		q.TicketID,
		q.PerformerID,
		timeArg(q.Since),
		timeArg(q.Until),
		limitArg(q.Limit),
		q.Offset,
	)
	if err != nil {
		return nil, wrapErr("list ledger entries", err)
	}
	return collect(rows, scanLedgerEntry)
}

func (r queries) GetAssignmentLog(ctx context.Context, ticketID uuid.UUID) (*models.AssignmentLogEntry, error) {
	query := `
		SELECT log_id, ticket_id, performer_id, reason, metadata, created_at
		FROM assignment_log
		WHERE ticket_id = $1
	`

	var entry models.AssignmentLogEntry
	err := r.q.QueryRow(ctx, query, ticketID).Scan(
		&entry.LogID,
		&entry.TicketID,
		&entry.PerformerID,
		&entry.Reason,
		&entry.Metadata,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, wrapErr("get assignment log", err)
	}
	return &entry, nil
}

func scanOrganization(row pgx.Row) (*models.Organization, error) {
	var org models.Organization
	err := row.Scan(
		&org.OrgID,
		&org.Name,
		&org.TokenBalance,
		&org.PlanID,
		&org.MaxInProgress,
		&org.AutoAssign,
		&org.Active,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func scanPerformer(row pgx.Row) (*models.Performer, error) {
	var (
		p      models.Performer
		skills []string
	)
	err := row.Scan(
		&p.PerformerID,
		&p.Name,
		&p.Active,
		&p.TokenBalance,
		&p.CreatedAt,
		&skills,
	)
	if err != nil {
		return nil, err
	}

	for _, s := range skills {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid skill id %q: %w", s, err)
		}
		p.Skills = append(p.Skills, id)
	}
	return &p, nil
}

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var t models.Ticket
	err := row.Scan(
		&t.TicketID,
		&t.OrgID,
		&t.Number,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.Quantity,
		&t.JobTypeID,
		&t.CostOverride,
		&t.PayoutOverride,
		&t.AssignedTo,
		&t.RequesterID,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanRevision(row pgx.Row) (*models.Revision, error) {
	var rev models.Revision
	err := row.Scan(
		&rev.RevisionID,
		&rev.TicketID,
		&rev.Number,
		&rev.SubmittedBy,
		&rev.SubmittedAt,
		&rev.Feedback,
		&rev.FeedbackBy,
		&rev.FeedbackAt,
	)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func scanLedgerEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := row.Scan(
		&e.EntryID,
		&e.Account,
		&e.OrgID,
		&e.TicketID,
		&e.PerformerID,
		&e.Direction,
		&e.Amount,
		&e.Reason,
		&e.Note,
		&e.Metadata,
		&e.BalanceBefore,
		&e.BalanceAfter,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// collect drains rows with scan and closes them.
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()

	var result []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate rows", err)
	}

	return result, nil
}

// limitArg maps a zero limit to NULL, which postgres treats as no limit.
func limitArg(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}

func timeArg(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// metadataArg keeps NULL out of the NOT NULL jsonb columns.
func metadataArg(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

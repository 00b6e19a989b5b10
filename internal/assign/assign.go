// Package assign picks a performer for a newly created ticket.
//
// The algorithm is least-loaded: each candidate's load is the sum of
// priority weight times effective cost over their open tickets, and the
// strictly lowest load wins. Ties go to the candidate evaluated first,
// candidates being ordered by creation time then id.
package assign

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/pricing"
	"github.com/wolfeidau/tokenboard/internal/store"
	"github.com/wolfeidau/tokenboard/internal/telemetry"
	"github.com/wolfeidau/tokenboard/internal/util"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AlgorithmVersion is recorded with every decision so historical
// assignments stay explainable after the algorithm changes.
const AlgorithmVersion = "least-loaded/v1"

// Fallback causes.
const (
	CauseDisabled            = "disabled"
	CauseNoSkilledPerformers = "no_skilled_performers"
	CauseNoPerformers        = "no_performers"
)

// Decision is the outcome of one assignment run.
type Decision struct {
	PerformerID *uuid.UUID // nil on fallback
	Reason      models.AssignmentReason
	Metadata    map[string]any
}

// Engine runs assignment decisions inside the caller's transaction.
type Engine struct{}

// NewEngine creates an assignment engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Assign decides who works on ticket. jobType is nil for untyped tickets.
func (e *Engine) Assign(ctx context.Context, tx store.Tx, ticket *models.Ticket, jobType *models.JobType, enabled bool) (*Decision, error) {
	decision, candidates, err := e.decide(ctx, tx, jobType, enabled)
	if err != nil {
		return nil, err
	}

	attrs := metric.WithAttributes(attribute.String("reason", string(decision.Reason)))
	metrics := telemetry.GetMetrics()
	metrics.AssignmentsTotal.Add(ctx, 1, attrs)
	metrics.AssignmentCandidates.Record(ctx, int64(candidates))

	ev := log.Debug().
		Str("ticket_id", ticket.TicketID.String()).
		Str("reason", string(decision.Reason)).
		Int("candidates", candidates)
	if decision.PerformerID != nil {
		ev = ev.Str("performer_id", decision.PerformerID.String())
	}
	ev.Msg("Assignment decided")

	return decision, nil
}

func (e *Engine) decide(ctx context.Context, tx store.Tx, jobType *models.JobType, enabled bool) (*Decision, int, error) {
	meta := map[string]any{
		"algorithm_version": AlgorithmVersion,
	}

	if !enabled {
		meta["cause"] = CauseDisabled
		return &Decision{Reason: models.AssignmentFallback, Metadata: meta}, 0, nil
	}

	var (
		pool          []*models.Performer
		skillFiltered bool
		skilledCount  int
	)

	if jobType != nil {
		meta["job_type_id"] = jobType.JobTypeID.String()

		skilled, err := tx.ListActivePerformers(ctx, &jobType.JobTypeID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list skilled performers: %w", err)
		}
		skilledCount = len(skilled)
		pool, skillFiltered = skilled, true

		if len(skilled) == 0 {
			skillFiltered = false
			meta["cause"] = CauseNoSkilledPerformers
		}
	}
	meta["skill_filtered"] = skillFiltered
	meta["skilled_candidate_count"] = skilledCount

	if !skillFiltered {
		all, err := tx.ListActivePerformers(ctx, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list performers: %w", err)
		}
		pool = all
	}

	if len(pool) == 0 {
		meta["cause"] = CauseNoPerformers
		return &Decision{Reason: models.AssignmentFallback, Metadata: meta}, 0, nil
	}

	jobTypes := jobTypeCache{tx: tx, cache: map[uuid.UUID]*models.JobType{}}
	scores := make(map[string]any, len(pool))

	var (
		best      *models.Performer
		bestScore int64
	)
	for _, p := range pool {
		score, err := e.loadScore(ctx, tx, &jobTypes, p.PerformerID)
		if err != nil {
			return nil, 0, err
		}
		scores[p.PerformerID.String()] = score

		if best == nil || score < bestScore {
			best, bestScore = p, score
		}
	}
	meta["scores"] = scores

	id := best.PerformerID
	return &Decision{PerformerID: &id, Reason: models.AssignmentAuto, Metadata: meta}, len(pool), nil
}

// loadScore sums priority weight times effective cost over the performer's open tickets.
func (e *Engine) loadScore(ctx context.Context, tx store.Tx, jobTypes *jobTypeCache, performerID uuid.UUID) (int64, error) {
	open, err := tx.ListOpenTickets(ctx, performerID)
	if err != nil {
		return 0, fmt.Errorf("failed to list open tickets: %w", err)
	}

	var score int64
	for _, t := range open {
		jt, err := jobTypes.get(ctx, t.JobTypeID)
		if err != nil {
			return 0, err
		}
		values, err := pricing.ForTicket(t, jt)
		if err != nil {
			return 0, fmt.Errorf("ticket %s: %w", t.TicketID, err)
		}
		weighted, err := util.MulInt64(pricing.PriorityWeight(t.Priority), values.CostOrZero())
		if err != nil {
			return 0, fmt.Errorf("ticket %s load: %w", t.TicketID, err)
		}
		score, err = util.AddInt64(score, weighted)
		if err != nil {
			return 0, fmt.Errorf("performer %s load: %w", performerID, err)
		}
	}
	return score, nil
}

type jobTypeCache struct {
	tx    store.Tx
	cache map[uuid.UUID]*models.JobType
}

func (c *jobTypeCache) get(ctx context.Context, id *uuid.UUID) (*models.JobType, error) {
	if id == nil {
		return nil, nil
	}
	if jt, ok := c.cache[*id]; ok {
		return jt, nil
	}

	jt, err := c.tx.GetJobType(ctx, *id)
	if err != nil {
		if !errors.Is(err, store.ErrJobTypeNotFound) {
			return nil, fmt.Errorf("failed to get job type: %w", err)
		}
		// a job type removed from the catalog prices as untyped
		jt = nil
	}
	c.cache[*id] = jt
	return jt, nil
}

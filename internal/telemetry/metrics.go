package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/tokenboard"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Ledger metrics
	LedgerEntriesTotal metric.Int64Counter
	LedgerTokensTotal  metric.Int64Counter
	TxConflictsTotal   metric.Int64Counter
	TxDuration         metric.Float64Histogram

	// Ticket metrics
	TicketsCreatedTotal    metric.Int64Counter
	TicketsRejectedTotal   metric.Int64Counter
	TransitionsTotal       metric.Int64Counter
	TransitionsDeniedTotal metric.Int64Counter
	PayoutsTotal           metric.Int64Counter
	PayoutsDuplicateTotal  metric.Int64Counter
	ReconciliationsTotal   metric.Int64Counter

	// Assignment metrics
	AssignmentsTotal     metric.Int64Counter
	AssignmentCandidates metric.Int64Histogram
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	// Ledger metrics
	m.LedgerEntriesTotal, _ = meter.Int64Counter(
		"tokenboard.ledger.entries.total",
		metric.WithDescription("Total number of ledger entries appended"),
		metric.WithUnit("{entry}"),
	)

	m.LedgerTokensTotal, _ = meter.Int64Counter(
		"tokenboard.ledger.tokens.total",
		metric.WithDescription("Total tokens moved through the ledger"),
		metric.WithUnit("{token}"),
	)

	m.TxConflictsTotal, _ = meter.Int64Counter(
		"tokenboard.ledger.tx.conflicts.total",
		metric.WithDescription("Total number of transaction write conflicts (retried or surfaced)"),
		metric.WithUnit("{conflict}"),
	)

	m.TxDuration, _ = meter.Float64Histogram(
		"tokenboard.ledger.tx.duration",
		metric.WithDescription("Duration of ledger-affecting transactions including retries"),
		metric.WithUnit("ms"),
	)

	// Ticket metrics
	m.TicketsCreatedTotal, _ = meter.Int64Counter(
		"tokenboard.tickets.created.total",
		metric.WithDescription("Total number of tickets created"),
		metric.WithUnit("{ticket}"),
	)

	m.TicketsRejectedTotal, _ = meter.Int64Counter(
		"tokenboard.tickets.rejected.total",
		metric.WithDescription("Total number of ticket creations rejected for insufficient balance"),
		metric.WithUnit("{ticket}"),
	)

	m.TransitionsTotal, _ = meter.Int64Counter(
		"tokenboard.tickets.transitions.total",
		metric.WithDescription("Total number of applied status transitions"),
		metric.WithUnit("{transition}"),
	)

	m.TransitionsDeniedTotal, _ = meter.Int64Counter(
		"tokenboard.tickets.transitions.denied.total",
		metric.WithDescription("Total number of rejected status transitions"),
		metric.WithUnit("{transition}"),
	)

	m.PayoutsTotal, _ = meter.Int64Counter(
		"tokenboard.tickets.payouts.total",
		metric.WithDescription("Total number of performer payouts written"),
		metric.WithUnit("{payout}"),
	)

	m.PayoutsDuplicateTotal, _ = meter.Int64Counter(
		"tokenboard.tickets.payouts.duplicate.total",
		metric.WithDescription("Total number of payouts skipped because one already existed"),
		metric.WithUnit("{payout}"),
	)

	m.ReconciliationsTotal, _ = meter.Int64Counter(
		"tokenboard.tickets.reconciliations.total",
		metric.WithDescription("Total number of cost override reconciliation entries"),
		metric.WithUnit("{entry}"),
	)

	// Assignment metrics
	m.AssignmentsTotal, _ = meter.Int64Counter(
		"tokenboard.assignments.total",
		metric.WithDescription("Total number of assignment decisions"),
		metric.WithUnit("{decision}"),
	)

	m.AssignmentCandidates, _ = meter.Int64Histogram(
		"tokenboard.assignments.candidates",
		metric.WithDescription("Number of candidates evaluated per assignment decision"),
		metric.WithUnit("{performer}"),
	)

	return m
}

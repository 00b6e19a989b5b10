// Package pricing derives the token cost and payout of a ticket.
//
// Everything here is pure: no storage, no clock, no logging.
package pricing

import (
	"fmt"

	"github.com/wolfeidau/tokenboard/internal/models"
	"github.com/wolfeidau/tokenboard/internal/util"
)

// Values holds the effective debit to the organization and credit to the
// performer for a ticket. Both are nil for untyped tickets.
type Values struct {
	Cost   *int64
	Payout *int64
}

// CostOrZero returns the effective cost, or 0 when there is none.
func (v Values) CostOrZero() int64 {
	if v.Cost == nil {
		return 0
	}
	return *v.Cost
}

// PayoutOrZero returns the effective payout, or 0 when there is none.
func (v Values) PayoutOrZero() int64 {
	if v.Payout == nil {
		return 0
	}
	return *v.Payout
}

// EffectiveValues computes the effective cost and payout.
// An override replaces the quantity based amount outright; it is not per unit.
// A rate too large to multiply out fails with util.ErrOverflow.
func EffectiveValues(quantity int, costOverride, payoutOverride *int64, jobType *models.JobType) (Values, error) {
	if jobType == nil {
		return Values{}, nil
	}

	cost, err := util.MulInt64(jobType.UnitCost, int64(quantity))
	if err != nil {
		return Values{}, fmt.Errorf("cost of %d x %d: %w", quantity, jobType.UnitCost, err)
	}
	if costOverride != nil {
		cost = *costOverride
	}

	payout, err := util.MulInt64(jobType.UnitPayout, int64(quantity))
	if err != nil {
		return Values{}, fmt.Errorf("payout of %d x %d: %w", quantity, jobType.UnitPayout, err)
	}
	if payoutOverride != nil {
		payout = *payoutOverride
	}

	return Values{Cost: &cost, Payout: &payout}, nil
}

// ForTicket is EffectiveValues applied to a ticket's own fields.
func ForTicket(t *models.Ticket, jobType *models.JobType) (Values, error) {
	return EffectiveValues(t.Quantity, t.CostOverride, t.PayoutOverride, jobType)
}

var priorityWeights = map[models.Priority]int64{
	models.PriorityLow:    1,
	models.PriorityMedium: 2,
	models.PriorityHigh:   3,
	models.PriorityUrgent: 4,
}

// PriorityWeight maps a priority to its load multiplier.
// Unknown priorities weigh the same as MEDIUM.
func PriorityWeight(p models.Priority) int64 {
	if w, ok := priorityWeights[p]; ok {
		return w
	}
	return priorityWeights[models.PriorityMedium]
}

package core

import (
	"context"
	"fmt"
	"math"

	"ordercore/pkg/domain"
)

// totalTolerance absorbs float64 accumulation error when comparing a stored
// order total against the sum of its line items.
const totalTolerance = 1e-6

// NewOrderTotalRule returns a warning rule flagging orders whose stored total
// drifts from the sum of their line item snapshots. Drift indicates a writer
// that skipped the total recomputation, not a reason to block the commit.
func NewOrderTotalRule() domain.Rule {
	return orderTotalRule{}
}

type orderTotalRule struct{}

func (orderTotalRule) Name() string { return "order_total_consistent" }

func (orderTotalRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, order := range view.ListOrders() {
		expected := order.ItemsTotal()
		if math.Abs(order.Total-expected) > totalTolerance {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "order_total_consistent",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("order %s total %.2f does not match line items %.2f", order.ID, order.Total, expected),
				Entity:   domain.EntityOrder,
				EntityID: order.ID,
			})
		}
	}
	return res, nil
}

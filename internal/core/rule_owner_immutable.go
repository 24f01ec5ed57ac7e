package core

import (
	"context"
	"fmt"

	"ordercore/pkg/domain"
)

// NewOwnerImmutableRule returns the commit-time rule rejecting updates that
// move a customer or order between principals. The store already re-asserts
// the original owner before committing; this rule catches writers that bypass
// the standard mutator path.
func NewOwnerImmutableRule() domain.Rule {
	return ownerImmutableRule{}
}

type ownerImmutableRule struct{}

func (ownerImmutableRule) Name() string { return "owner_immutable" }

func (ownerImmutableRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action != domain.ActionUpdate {
			continue
		}
		var entity domain.EntityType
		var id, beforeOwner, afterOwner string
		switch before := change.Before.(type) {
		case domain.Customer:
			after, ok := change.After.(domain.Customer)
			if !ok {
				continue
			}
			entity, id = domain.EntityCustomer, after.ID
			beforeOwner, afterOwner = before.Owner, after.Owner
		case domain.Order:
			after, ok := change.After.(domain.Order)
			if !ok {
				continue
			}
			entity, id = domain.EntityOrder, after.ID
			beforeOwner, afterOwner = before.Owner, after.Owner
		default:
			continue
		}
		if beforeOwner != afterOwner {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "owner_immutable",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("%s %s owner changed from %s to %s", entity, id, beforeOwner, afterOwner),
				Entity:   entity,
				EntityID: id,
			})
		}
	}
	return res, nil
}

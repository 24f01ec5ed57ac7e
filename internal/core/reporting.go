package core

import (
	"context"
	"sort"
)

const (
	defaultTopCustomers = 10
	defaultTopSellers   = 3
)

// CustomerRollup aggregates completed order revenue for one customer.
type CustomerRollup struct {
	Customer Customer `json:"customer"`
	Orders   int      `json:"orders"`
	Total    float64  `json:"total"`
}

// SellerRollup aggregates completed order revenue for one principal. The
// principal directory lives outside the core, so only the ID is reported.
type SellerRollup struct {
	PrincipalID string  `json:"principal_id"`
	Orders      int     `json:"orders"`
	Total       float64 `json:"total"`
}

// TopCustomers ranks customers by completed order revenue, highest first,
// capped at limit. A non-positive limit applies the default cap. Ties sort by
// customer ID for stable output. Rankings span all principals.
func (s *Service) TopCustomers(ctx context.Context, limit int) ([]CustomerRollup, error) {
	if limit <= 0 {
		limit = defaultTopCustomers
	}
	var out []CustomerRollup
	err := s.observe(ctx, "top_customers", EntityCustomer, func(ctx context.Context) (string, error) {
		if _, err := s.resolver.CurrentPrincipal(ctx); err != nil {
			return "", err
		}
		totals := make(map[string]*CustomerRollup)
		for _, order := range s.store.ListOrders() {
			if order.Status != StatusCompleted {
				continue
			}
			rollup, ok := totals[order.CustomerID]
			if !ok {
				customer, found := s.store.GetCustomer(order.CustomerID)
				if !found {
					// Customer deleted after the order completed.
					continue
				}
				rollup = &CustomerRollup{Customer: customer}
				totals[order.CustomerID] = rollup
			}
			rollup.Orders++
			rollup.Total += order.Total
		}
		out = rankCustomers(totals, limit)
		return "", nil
	})
	return out, err
}

// TopSellers ranks principals by completed order revenue, highest first,
// capped at limit. A non-positive limit applies the default cap.
func (s *Service) TopSellers(ctx context.Context, limit int) ([]SellerRollup, error) {
	if limit <= 0 {
		limit = defaultTopSellers
	}
	var out []SellerRollup
	err := s.observe(ctx, "top_sellers", EntityPrincipal, func(ctx context.Context) (string, error) {
		if _, err := s.resolver.CurrentPrincipal(ctx); err != nil {
			return "", err
		}
		totals := make(map[string]*SellerRollup)
		for _, order := range s.store.ListOrders() {
			if order.Status != StatusCompleted {
				continue
			}
			rollup, ok := totals[order.Owner]
			if !ok {
				rollup = &SellerRollup{PrincipalID: order.Owner}
				totals[order.Owner] = rollup
			}
			rollup.Orders++
			rollup.Total += order.Total
		}
		out = rankSellers(totals, limit)
		return "", nil
	})
	return out, err
}

func rankCustomers(totals map[string]*CustomerRollup, limit int) []CustomerRollup {
	ranked := make([]CustomerRollup, 0, len(totals))
	for _, rollup := range totals {
		ranked = append(ranked, *rollup)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		return ranked[i].Customer.ID < ranked[j].Customer.ID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func rankSellers(totals map[string]*SellerRollup, limit int) []SellerRollup {
	ranked := make([]SellerRollup, 0, len(totals))
	for _, rollup := range totals {
		ranked = append(ranked, *rollup)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		return ranked[i].PrincipalID < ranked[j].PrincipalID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

package core

import "ordercore/pkg/domain"

// Rule aliases the domain rule contract for in-package implementations.
type Rule = domain.Rule

// RulesEngine aliases the domain rules engine.
type RulesEngine = domain.RulesEngine

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewStockNonNegativeRule())
	engine.Register(NewOwnerImmutableRule())
	engine.Register(NewOrderTotalRule())
	return engine
}

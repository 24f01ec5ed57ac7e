package core

import "ordercore/pkg/domain"

type (
	EntityType         = domain.EntityType
	OrderStatus        = domain.OrderStatus
	StatusSet          = domain.StatusSet
	Severity           = domain.Severity
	Base               = domain.Base
	Principal          = domain.Principal
	Product            = domain.Product
	Customer           = domain.Customer
	Order              = domain.Order
	LineItem           = domain.LineItem
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityPrincipal = domain.EntityPrincipal
	EntityProduct   = domain.EntityProduct
	EntityCustomer  = domain.EntityCustomer
	EntityOrder     = domain.EntityOrder
)

const (
	StatusPending    = domain.StatusPending
	StatusInProgress = domain.StatusInProgress
	StatusCompleted  = domain.StatusCompleted
	StatusCancelled  = domain.StatusCancelled
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// DefaultStatusSet mirrors the domain default for convenience.
var DefaultStatusSet = domain.DefaultStatusSet

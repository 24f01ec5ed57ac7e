// Package domain defines the core persistent entities, value types, error
// taxonomy, and rule evaluation primitives used by ordercore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityPrincipal identifies a seller identity record.
	EntityPrincipal EntityType = "principal"
	// EntityProduct identifies a catalog product record.
	EntityProduct EntityType = "product"
	// EntityCustomer identifies a customer record.
	EntityCustomer EntityType = "customer"
	// EntityOrder identifies an order record.
	EntityOrder EntityType = "order"
)

// OrderStatus represents the workflow state of an order.
type OrderStatus string

// Canonical order statuses. The label set applied by a service instance is a
// configuration concern; see StatusSet.
const (
	StatusPending    OrderStatus = "PENDING"
	StatusInProgress OrderStatus = "IN_PROGRESS"
	StatusCompleted  OrderStatus = "COMPLETED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

// StatusSet is the collection of order status labels accepted by a deployment.
type StatusSet []OrderStatus

// DefaultStatusSet returns the canonical four-state order workflow.
func DefaultStatusSet() StatusSet {
	return StatusSet{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}
}

// Contains reports whether status is part of the set.
func (s StatusSet) Contains(status OrderStatus) bool {
	for _, candidate := range s {
		if candidate == status {
			return true
		}
	}
	return false
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Principal represents an authenticated seller identity. Principals are
// created by a separate registration flow and are immutable within the core;
// they own customers and orders.
type Principal struct {
	Base
	Email   string `json:"email"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

// Product is a catalog entry shared by all principals. Stock is a
// non-negative count of units available to order.
type Product struct {
	Base
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// Customer is a sales contact owned by exactly one principal. Owner is set
// once at creation and never changes.
type Customer struct {
	Base
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Owner   string `json:"owner"`
}

// OwnerID implements Owned.
func (c Customer) OwnerID() string { return c.Owner }

// LineItem is a (product, quantity) pair within an order. UnitPrice is a
// snapshot of the catalog price taken when the item was last validated, so
// stored totals do not drift when the catalog is edited later.
type LineItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Order is a sequence of line items sold to a customer. Owner is always the
// principal that created the order; update input never changes it.
type Order struct {
	Base
	Owner      string      `json:"owner"`
	CustomerID string      `json:"customer_id"`
	Items      []LineItem  `json:"items"`
	Status     OrderStatus `json:"status"`
	Total      float64     `json:"total"`
}

// OwnerID implements Owned.
func (o Order) OwnerID() string { return o.Owner }

// ItemsTotal recomputes the order total from its line-item snapshots.
func (o Order) ItemsTotal() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// Owned is implemented by records subject to ownership checks.
type Owned interface {
	OwnerID() string
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}

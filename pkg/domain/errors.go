package domain

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when an operation requiring ownership
// context runs without a resolved principal.
var ErrUnauthenticated = errors.New("no authenticated principal")

// NotFoundError reports that a referenced entity does not exist. It takes
// priority over PermissionDeniedError: callers must report "not found" when
// the resource is absent, and "forbidden" only when it exists.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// PermissionDeniedError reports that the acting principal does not own the
// targeted resource.
type PermissionDeniedError struct {
	Entity EntityType
	ID     string
}

func (e PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied for %s %s", e.Entity, e.ID)
}

// InsufficientStockError reports a line item whose quantity exceeds the
// product stock at commit time. The product name is carried so clients can
// surface which article exceeded availability.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("product %s exceeds available stock: requested %d, available %d", e.ProductName, e.Requested, e.Available)
}

// AlreadyExistsError reports a unique-key violation such as a duplicate
// customer email or a reused record ID.
type AlreadyExistsError struct {
	Entity EntityType
	Key    string
}

func (e AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Entity, e.Key)
}

// UnavailableError wraps a storage-layer failure so callers can distinguish
// infrastructure trouble from business-rule violations.
type UnavailableError struct {
	Op  string
	Err error
}

func (e UnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e UnavailableError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

// IsPermissionDenied reports whether err is (or wraps) a PermissionDeniedError.
func IsPermissionDenied(err error) bool {
	var target PermissionDeniedError
	return errors.As(err, &target)
}

// IsInsufficientStock reports whether err is (or wraps) an InsufficientStockError.
func IsInsufficientStock(err error) bool {
	var target InsufficientStockError
	return errors.As(err, &target)
}

// IsAlreadyExists reports whether err is (or wraps) an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var target AlreadyExistsError
	return errors.As(err, &target)
}

package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateProduct(Product) (Product, error)
	UpdateProduct(id string, mutator func(*Product) error) (Product, error)
	DeleteProduct(id string) error
	CreateCustomer(Customer) (Customer, error)
	UpdateCustomer(id string, mutator func(*Customer) error) (Customer, error)
	DeleteCustomer(id string) error
	CreateOrder(Order) (Order, error)
	UpdateOrder(id string, mutator func(*Order) error) (Order, error)
	DeleteOrder(id string) error
	// ReserveStock asserts quantity <= stock and applies the decrement as a
	// single conditional step within the transaction scope. It returns the
	// remaining stock, or InsufficientStockError without mutating anything.
	ReserveStock(productID string, quantity int) (int, error)
	// ReleaseStock returns previously reserved units to a product, used as a
	// compensating write when an order's line items are replaced.
	ReleaseStock(productID string, quantity int) (int, error)
	FindProduct(id string) (Product, bool)
	FindCustomer(id string) (Customer, bool)
	FindCustomerByEmail(email string) (Customer, bool)
	FindOrder(id string) (Order, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// reporting.
type TransactionView interface {
	RuleView
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetProduct(id string) (Product, bool)
	ListProducts() []Product
	GetCustomer(id string) (Customer, bool)
	ListCustomers() []Customer
	GetOrder(id string) (Order, bool)
	ListOrders() []Order
}

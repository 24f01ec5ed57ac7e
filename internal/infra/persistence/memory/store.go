// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"ordercore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Product aliases domain.Product for in-memory persistence operations.
	Product = domain.Product
	// Customer aliases domain.Customer.
	Customer = domain.Customer
	// Order aliases domain.Order.
	Order = domain.Order
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	products  map[string]Product
	customers map[string]Customer
	orders    map[string]Order
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Products  map[string]Product  `json:"products"`
	Customers map[string]Customer `json:"customers"`
	Orders    map[string]Order    `json:"orders"`
}

func newMemoryState() memoryState {
	return memoryState{
		products:  make(map[string]Product),
		customers: make(map[string]Customer),
		orders:    make(map[string]Order),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.products {
		cloned.products[k] = cloneProduct(v)
	}
	for k, v := range s.customers {
		cloned.customers[k] = cloneCustomer(v)
	}
	for k, v := range s.orders {
		cloned.orders[k] = cloneOrder(v)
	}
	return cloned
}

func cloneProduct(p Product) Product    { return p }
func cloneCustomer(c Customer) Customer { return c }
func cloneOrder(o Order) Order {
	cp := o
	cp.Items = append([]domain.LineItem(nil), o.Items...)
	return cp
}

// Store provides an in-memory transactional store for the core domain.
// Commits are serialized under the store mutex and applied to a cloned
// snapshot, so the stock check-and-decrement inside a transaction is atomic
// with respect to concurrent transactions.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState returns a deep copy of the committed state for durable wrappers.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cloned := s.state.clone()
	return Snapshot{Products: cloned.products, Customers: cloned.customers, Orders: cloned.orders}
}

// ImportState replaces the committed state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := newMemoryState()
	for k, v := range snapshot.Products {
		state.products[k] = cloneProduct(v)
	}
	for k, v := range snapshot.Customers {
		state.customers[k] = cloneCustomer(v)
	}
	for k, v := range snapshot.Orders {
		state.orders[k] = cloneOrder(v)
	}
	s.state = state
}

// RulesEngine exposes the engine evaluating commit-time rules.
func (s *Store) RulesEngine() *RulesEngine {
	return s.engine
}

// NowFunc returns the clock used to stamp record timestamps.
func (s *Store) NowFunc() func() time.Time {
	return s.nowFn
}

// SetNowFunc overrides the store clock; intended for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		s.nowFn = fn
	}
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListProducts returns all products within the snapshot, ordered by ID.
func (v transactionView) ListProducts() []Product {
	out := make([]Product, 0, len(v.state.products))
	for _, p := range v.state.products {
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListCustomers returns all customers within the snapshot, ordered by ID.
func (v transactionView) ListCustomers() []Customer {
	out := make([]Customer, 0, len(v.state.customers))
	for _, c := range v.state.customers {
		out = append(out, cloneCustomer(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListOrders returns all orders within the snapshot, ordered by ID.
func (v transactionView) ListOrders() []Order {
	out := make([]Order, 0, len(v.state.orders))
	for _, o := range v.state.orders {
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindProduct retrieves a product by ID from the snapshot.
func (v transactionView) FindProduct(id string) (Product, bool) {
	p, ok := v.state.products[id]
	if !ok {
		return Product{}, false
	}
	return cloneProduct(p), true
}

// FindCustomer retrieves a customer by ID from the snapshot.
func (v transactionView) FindCustomer(id string) (Customer, bool) {
	c, ok := v.state.customers[id]
	if !ok {
		return Customer{}, false
	}
	return cloneCustomer(c), true
}

// FindOrder retrieves an order by ID from the snapshot.
func (v transactionView) FindOrder(id string) (Order, bool) {
	o, ok := v.state.orders[id]
	if !ok {
		return Order{}, false
	}
	return cloneOrder(o), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The committed state is swapped only when fn and all blocking rules succeed,
// which yields all-or-nothing semantics for multi-item stock mutations.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// CreateProduct stores a new product within the transaction.
func (tx *transaction) CreateProduct(p Product) (Product, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.products[p.ID]; exists {
		return Product{}, domain.AlreadyExistsError{Entity: domain.EntityProduct, Key: p.ID}
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.products[p.ID] = cloneProduct(p)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionCreate, After: cloneProduct(p)})
	return cloneProduct(p), nil
}

// UpdateProduct mutates a product using the provided mutator function.
func (tx *transaction) UpdateProduct(id string, mutator func(*Product) error) (Product, error) {
	current, ok := tx.state.products[id]
	if !ok {
		return Product{}, domain.NotFoundError{Entity: domain.EntityProduct, ID: id}
	}
	before := cloneProduct(current)
	if err := mutator(&current); err != nil {
		return Product{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.products[id] = cloneProduct(current)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionUpdate, Before: before, After: cloneProduct(current)})
	return cloneProduct(current), nil
}

// DeleteProduct removes a product from the transaction state.
func (tx *transaction) DeleteProduct(id string) error {
	current, ok := tx.state.products[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityProduct, ID: id}
	}
	delete(tx.state.products, id)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionDelete, Before: cloneProduct(current)})
	return nil
}

// CreateCustomer stores a new customer.
func (tx *transaction) CreateCustomer(c Customer) (Customer, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.customers[c.ID]; exists {
		return Customer{}, domain.AlreadyExistsError{Entity: domain.EntityCustomer, Key: c.ID}
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.customers[c.ID] = cloneCustomer(c)
	tx.recordChange(Change{Entity: domain.EntityCustomer, Action: domain.ActionCreate, After: cloneCustomer(c)})
	return cloneCustomer(c), nil
}

// UpdateCustomer mutates an existing customer. The owner reference is
// re-asserted after the mutator runs; ownership is immutable after creation.
func (tx *transaction) UpdateCustomer(id string, mutator func(*Customer) error) (Customer, error) {
	current, ok := tx.state.customers[id]
	if !ok {
		return Customer{}, domain.NotFoundError{Entity: domain.EntityCustomer, ID: id}
	}
	before := cloneCustomer(current)
	if err := mutator(&current); err != nil {
		return Customer{}, err
	}
	current.ID = id
	current.Owner = before.Owner
	current.UpdatedAt = tx.now
	tx.state.customers[id] = cloneCustomer(current)
	tx.recordChange(Change{Entity: domain.EntityCustomer, Action: domain.ActionUpdate, Before: before, After: cloneCustomer(current)})
	return cloneCustomer(current), nil
}

// DeleteCustomer removes a customer from state.
func (tx *transaction) DeleteCustomer(id string) error {
	current, ok := tx.state.customers[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityCustomer, ID: id}
	}
	delete(tx.state.customers, id)
	tx.recordChange(Change{Entity: domain.EntityCustomer, Action: domain.ActionDelete, Before: cloneCustomer(current)})
	return nil
}

// CreateOrder stores a new order.
func (tx *transaction) CreateOrder(o Order) (Order, error) {
	if o.ID == "" {
		o.ID = tx.store.newID()
	}
	if _, exists := tx.state.orders[o.ID]; exists {
		return Order{}, domain.AlreadyExistsError{Entity: domain.EntityOrder, Key: o.ID}
	}
	o.CreatedAt = tx.now
	o.UpdatedAt = tx.now
	tx.state.orders[o.ID] = cloneOrder(o)
	tx.recordChange(Change{Entity: domain.EntityOrder, Action: domain.ActionCreate, After: cloneOrder(o)})
	return cloneOrder(o), nil
}

// UpdateOrder mutates an existing order. The owner reference is re-asserted
// after the mutator runs; an order's owner is fixed at creation.
func (tx *transaction) UpdateOrder(id string, mutator func(*Order) error) (Order, error) {
	current, ok := tx.state.orders[id]
	if !ok {
		return Order{}, domain.NotFoundError{Entity: domain.EntityOrder, ID: id}
	}
	before := cloneOrder(current)
	if err := mutator(&current); err != nil {
		return Order{}, err
	}
	current.ID = id
	current.Owner = before.Owner
	current.UpdatedAt = tx.now
	tx.state.orders[id] = cloneOrder(current)
	tx.recordChange(Change{Entity: domain.EntityOrder, Action: domain.ActionUpdate, Before: before, After: cloneOrder(current)})
	return cloneOrder(current), nil
}

// DeleteOrder removes an order from state. Stock reserved by the order is
// deliberately not returned to the catalog.
func (tx *transaction) DeleteOrder(id string) error {
	current, ok := tx.state.orders[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityOrder, ID: id}
	}
	delete(tx.state.orders, id)
	tx.recordChange(Change{Entity: domain.EntityOrder, Action: domain.ActionDelete, Before: cloneOrder(current)})
	return nil
}

// ReserveStock applies a conditional decrement to a product's stock. The
// check and the write happen against the same transactional snapshot, so two
// concurrent reservations can never both pass against stale stock.
func (tx *transaction) ReserveStock(productID string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.InsufficientStockError{ProductID: productID, Requested: quantity}
	}
	p, ok := tx.state.products[productID]
	if !ok {
		return 0, domain.NotFoundError{Entity: domain.EntityProduct, ID: productID}
	}
	if quantity > p.Stock {
		return p.Stock, domain.InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Requested:   quantity,
			Available:   p.Stock,
		}
	}
	before := cloneProduct(p)
	p.Stock -= quantity
	p.UpdatedAt = tx.now
	tx.state.products[productID] = cloneProduct(p)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionUpdate, Before: before, After: cloneProduct(p)})
	return p.Stock, nil
}

// ReleaseStock returns previously reserved units to a product.
func (tx *transaction) ReleaseStock(productID string, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, domain.InsufficientStockError{ProductID: productID, Requested: quantity}
	}
	p, ok := tx.state.products[productID]
	if !ok {
		return 0, domain.NotFoundError{Entity: domain.EntityProduct, ID: productID}
	}
	before := cloneProduct(p)
	p.Stock += quantity
	p.UpdatedAt = tx.now
	tx.state.products[productID] = cloneProduct(p)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionUpdate, Before: before, After: cloneProduct(p)})
	return p.Stock, nil
}

// FindProduct exposes product lookup within the transaction scope.
func (tx *transaction) FindProduct(id string) (Product, bool) {
	p, ok := tx.state.products[id]
	if !ok {
		return Product{}, false
	}
	return cloneProduct(p), true
}

// FindCustomer exposes customer lookup within the transaction scope.
func (tx *transaction) FindCustomer(id string) (Customer, bool) {
	c, ok := tx.state.customers[id]
	if !ok {
		return Customer{}, false
	}
	return cloneCustomer(c), true
}

// FindCustomerByEmail retrieves the customer matching email, if any.
// Email comparison is case-insensitive.
func (tx *transaction) FindCustomerByEmail(email string) (Customer, bool) {
	for _, c := range tx.state.customers {
		if strings.EqualFold(c.Email, email) {
			return cloneCustomer(c), true
		}
	}
	return Customer{}, false
}

// FindOrder exposes order lookup within the transaction scope.
func (tx *transaction) FindOrder(id string) (Order, bool) {
	o, ok := tx.state.orders[id]
	if !ok {
		return Order{}, false
	}
	return cloneOrder(o), true
}

// Read helpers ---------------------------------------------------------------

// GetProduct retrieves a product by ID from committed state.
func (s *Store) GetProduct(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.products[id]
	if !ok {
		return Product{}, false
	}
	return cloneProduct(p), true
}

// ListProducts returns all products from committed state, ordered by ID.
func (s *Store) ListProducts() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0, len(s.state.products))
	for _, p := range s.state.products {
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetCustomer retrieves a customer by ID from committed state.
func (s *Store) GetCustomer(id string) (Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.customers[id]
	if !ok {
		return Customer{}, false
	}
	return cloneCustomer(c), true
}

// ListCustomers returns all customers from committed state, ordered by ID.
func (s *Store) ListCustomers() []Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Customer, 0, len(s.state.customers))
	for _, c := range s.state.customers {
		out = append(out, cloneCustomer(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetOrder retrieves an order by ID from committed state.
func (s *Store) GetOrder(id string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.state.orders[id]
	if !ok {
		return Order{}, false
	}
	return cloneOrder(o), true
}

// ListOrders returns all orders from committed state, ordered by ID.
func (s *Store) ListOrders() []Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, 0, len(s.state.orders))
	for _, o := range s.state.orders {
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

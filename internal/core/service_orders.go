package core

import (
	"context"
	"fmt"

	"ordercore/pkg/domain"
)

// OrderItemInput names a product and a quantity for order creation and
// updates. Unit prices are never accepted from callers; the catalog price at
// write time is captured on the stored line item.
type OrderItemInput struct {
	ProductID string
	Quantity  int
}

// OrderInput carries the caller-supplied fields for creating or replacing an
// order.
type OrderInput struct {
	CustomerID string
	Items      []OrderItemInput
	Status     OrderStatus
}

func validateItems(items []OrderItemInput) error {
	if len(items) == 0 {
		return fmt.Errorf("order requires at least one line item")
	}
	for _, item := range items {
		if item.ProductID == "" {
			return fmt.Errorf("line item product id is required")
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("line item quantity must be positive, got %d", item.Quantity)
		}
	}
	return nil
}

// reserveItems checks each product exists, reserves its stock, and returns
// priced line items. The caller's transaction isolates partial reservations;
// any error discards the whole attempt.
func reserveItems(tx domain.Transaction, items []OrderItemInput) ([]LineItem, error) {
	out := make([]LineItem, 0, len(items))
	for _, item := range items {
		product, ok := tx.FindProduct(item.ProductID)
		if !ok {
			return nil, domain.NotFoundError{Entity: EntityProduct, ID: item.ProductID}
		}
		if _, err := tx.ReserveStock(item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
		out = append(out, LineItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: product.Price,
		})
	}
	return out, nil
}

// releaseItems returns an order's reserved units to the catalog. Products
// deleted since the order was written are skipped; their units are gone.
func releaseItems(tx domain.Transaction, items []LineItem) error {
	for _, item := range items {
		if _, ok := tx.FindProduct(item.ProductID); !ok {
			continue
		}
		if _, err := tx.ReleaseStock(item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// CreateOrder validates the customer and every line item, reserves stock for
// each item, and persists the order owned by the acting principal. The whole
// operation is atomic: if any item cannot be satisfied, no stock changes and
// no order is created.
func (s *Service) CreateOrder(ctx context.Context, input OrderInput) (Order, Result, error) {
	var created Order
	var res Result
	err := s.observe(ctx, "create_order", EntityOrder, func(ctx context.Context) (string, error) {
		principal, err := s.resolver.CurrentPrincipal(ctx)
		if err != nil {
			return "", err
		}
		if err := validateItems(input.Items); err != nil {
			return "", err
		}
		status := input.Status
		if status == "" {
			status = StatusPending
		}
		if !s.statuses.Contains(status) {
			return "", fmt.Errorf("unknown order status %q", status)
		}
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			customer, ok := tx.FindCustomer(input.CustomerID)
			if !ok {
				return domain.NotFoundError{Entity: EntityCustomer, ID: input.CustomerID}
			}
			if !Authorize(principal, customer) {
				return domain.PermissionDeniedError{Entity: EntityCustomer, ID: input.CustomerID}
			}
			items, txErr := reserveItems(tx, input.Items)
			if txErr != nil {
				return txErr
			}
			order := Order{
				Owner:      principal.ID,
				CustomerID: input.CustomerID,
				Items:      items,
				Status:     status,
			}
			order.Total = order.ItemsTotal()
			created, txErr = tx.CreateOrder(order)
			return txErr
		})
		return created.ID, err
	})
	return created, res, err
}

// GetOrder retrieves an order by ID. Only the owning principal may read it.
func (s *Service) GetOrder(ctx context.Context, id string) (Order, error) {
	var found Order
	err := s.observe(ctx, "get_order", EntityOrder, func(ctx context.Context) (string, error) {
		principal, err := s.resolver.CurrentPrincipal(ctx)
		if err != nil {
			return id, err
		}
		order, ok := s.store.GetOrder(id)
		if !ok {
			return id, domain.NotFoundError{Entity: EntityOrder, ID: id}
		}
		if !Authorize(principal, order) {
			return id, domain.PermissionDeniedError{Entity: EntityOrder, ID: id}
		}
		found = order
		return id, nil
	})
	return found, err
}

// UpdateOrder patches an order's customer, items, and status. Empty patch
// fields keep the current values. When items are supplied, stock held by the
// previous line items is released and the new items are reserved inside the
// same transaction, so a failed update leaves both the order and the catalog
// untouched. Unit prices are re-snapshotted from the current catalog.
func (s *Service) UpdateOrder(ctx context.Context, id string, input OrderInput) (Order, Result, error) {
	var updated Order
	var res Result
	err := s.observe(ctx, "update_order", EntityOrder, func(ctx context.Context) (string, error) {
		principal, err := s.resolver.CurrentPrincipal(ctx)
		if err != nil {
			return id, err
		}
		if len(input.Items) > 0 {
			if err := validateItems(input.Items); err != nil {
				return id, err
			}
		}
		if input.Status != "" && !s.statuses.Contains(input.Status) {
			return id, fmt.Errorf("unknown order status %q", input.Status)
		}
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			current, ok := tx.FindOrder(id)
			if !ok {
				return domain.NotFoundError{Entity: EntityOrder, ID: id}
			}
			if !Authorize(principal, current) {
				return domain.PermissionDeniedError{Entity: EntityOrder, ID: id}
			}
			customerID := input.CustomerID
			if customerID == "" {
				customerID = current.CustomerID
			}
			customer, ok := tx.FindCustomer(customerID)
			if !ok {
				return domain.NotFoundError{Entity: EntityCustomer, ID: customerID}
			}
			if !Authorize(principal, customer) {
				return domain.PermissionDeniedError{Entity: EntityCustomer, ID: customerID}
			}
			items := current.Items
			if len(input.Items) > 0 {
				if txErr := releaseItems(tx, current.Items); txErr != nil {
					return txErr
				}
				var txErr error
				items, txErr = reserveItems(tx, input.Items)
				if txErr != nil {
					return txErr
				}
			}
			var txErr error
			updated, txErr = tx.UpdateOrder(id, func(o *Order) error {
				o.CustomerID = customerID
				o.Items = items
				if input.Status != "" {
					o.Status = input.Status
				}
				o.Total = o.ItemsTotal()
				return nil
			})
			return txErr
		})
		return id, err
	})
	return updated, res, err
}

// UpdateOrderStatus transitions an order between statuses without touching
// its line items or reserved stock.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status OrderStatus) (Order, Result, error) {
	var updated Order
	var res Result
	err := s.observe(ctx, "update_order_status", EntityOrder, func(ctx context.Context) (string, error) {
		principal, err := s.resolver.CurrentPrincipal(ctx)
		if err != nil {
			return id, err
		}
		if !s.statuses.Contains(status) {
			return id, fmt.Errorf("unknown order status %q", status)
		}
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			current, ok := tx.FindOrder(id)
			if !ok {
				return domain.NotFoundError{Entity: EntityOrder, ID: id}
			}
			if !Authorize(principal, current) {
				return domain.PermissionDeniedError{Entity: EntityOrder, ID: id}
			}
			var txErr error
			updated, txErr = tx.UpdateOrder(id, func(o *Order) error {
				o.Status = status
				return nil
			})
			return txErr
		})
		return id, err
	})
	return updated, res, err
}

// DeleteOrder removes an order owned by the acting principal. Stock reserved
// by the order is not returned to the catalog; the units are treated as
// consumed once ordered.
func (s *Service) DeleteOrder(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.observe(ctx, "delete_order", EntityOrder, func(ctx context.Context) (string, error) {
		principal, err := s.resolver.CurrentPrincipal(ctx)
		if err != nil {
			return id, err
		}
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			current, ok := tx.FindOrder(id)
			if !ok {
				return domain.NotFoundError{Entity: EntityOrder, ID: id}
			}
			if !Authorize(principal, current) {
				return domain.PermissionDeniedError{Entity: EntityOrder, ID: id}
			}
			return tx.DeleteOrder(id)
		})
		return id, err
	})
	return res, err
}

// ListOrders returns the orders owned by the acting principal, sorted by ID.
func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	var out []Order
	err := s.observe(ctx, "list_orders", EntityOrder, func(ctx context.Context) (string, error) {
		principal, err := s.resolver.CurrentPrincipal(ctx)
		if err != nil {
			return "", err
		}
		for _, order := range s.store.ListOrders() {
			if order.Owner == principal.ID {
				out = append(out, order)
			}
		}
		return "", nil
	})
	return out, err
}

// ListOrdersByStatus returns the acting principal's orders in the given
// status, sorted by ID.
func (s *Service) ListOrdersByStatus(ctx context.Context, status OrderStatus) ([]Order, error) {
	var out []Order
	err := s.observe(ctx, "list_orders_by_status", EntityOrder, func(ctx context.Context) (string, error) {
		principal, err := s.resolver.CurrentPrincipal(ctx)
		if err != nil {
			return "", err
		}
		if !s.statuses.Contains(status) {
			return "", fmt.Errorf("unknown order status %q", status)
		}
		for _, order := range s.store.ListOrders() {
			if order.Owner == principal.ID && order.Status == status {
				out = append(out, order)
			}
		}
		return "", nil
	})
	return out, err
}

// ListAllOrders returns every order regardless of owner. Intended for
// administrative and reporting callers, not request handlers.
func (s *Service) ListAllOrders(ctx context.Context) ([]Order, error) {
	var out []Order
	err := s.observe(ctx, "list_all_orders", EntityOrder, func(ctx context.Context) (string, error) {
		if _, err := s.resolver.CurrentPrincipal(ctx); err != nil {
			return "", err
		}
		out = s.store.ListOrders()
		return "", nil
	})
	return out, err
}

package core

import (
	"context"
	"fmt"
	"strings"

	"ordercore/pkg/domain"
)

func validateCustomer(customer Customer) error {
	if strings.TrimSpace(customer.Name) == "" {
		return fmt.Errorf("customer name is required")
	}
	if strings.TrimSpace(customer.Email) == "" {
		return fmt.Errorf("customer email is required")
	}
	return nil
}

// CreateCustomer persists a new customer owned by the acting principal. Any
// Owner supplied on the input is ignored; ownership always derives from the
// request context. Email addresses are unique across all principals.
func (s *Service) CreateCustomer(ctx context.Context, customer Customer) (Customer, Result, error) {
	var created Customer
	var res Result
	err := s.observe(ctx, "create_customer", EntityCustomer, func(ctx context.Context) (string, error) {
		principal, err := s.resolver.CurrentPrincipal(ctx)
		if err != nil {
			return "", err
		}
		if err := validateCustomer(customer); err != nil {
			return "", err
		}
		customer.Owner = principal.ID
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			if existing, ok := tx.FindCustomerByEmail(customer.Email); ok {
				return domain.AlreadyExistsError{Entity: EntityCustomer, Key: existing.Email}
			}
			var txErr error
			created, txErr = tx.CreateCustomer(customer)
			return txErr
		})
		return created.ID, err
	})
	return created, res, err
}

// GetCustomer retrieves a customer by ID. Only the owning principal may read
// it; a missing record is reported as not found before ownership is checked.
func (s *Service) GetCustomer(ctx context.Context, id string) (Customer, error) {
	var found Customer
	err := s.observe(ctx, "get_customer", EntityCustomer, func(ctx context.Context) (string, error) {
		principal, err := s.resolver.CurrentPrincipal(ctx)
		if err != nil {
			return id, err
		}
		customer, ok := s.store.GetCustomer(id)
		if !ok {
			return id, domain.NotFoundError{Entity: EntityCustomer, ID: id}
		}
		if !Authorize(principal, customer) {
			return id, domain.PermissionDeniedError{Entity: EntityCustomer, ID: id}
		}
		found = customer
		return id, nil
	})
	return found, err
}

// UpdateCustomer applies mutator to a customer owned by the acting principal.
// Mutations to the Owner field are discarded.
func (s *Service) UpdateCustomer(ctx context.Context, id string, mutator func(*Customer) error) (Customer, Result, error) {
	var updated Customer
	var res Result
	err := s.observe(ctx, "update_customer", EntityCustomer, func(ctx context.Context) (string, error) {
		principal, err := s.resolver.CurrentPrincipal(ctx)
		if err != nil {
			return id, err
		}
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			current, ok := tx.FindCustomer(id)
			if !ok {
				return domain.NotFoundError{Entity: EntityCustomer, ID: id}
			}
			if !Authorize(principal, current) {
				return domain.PermissionDeniedError{Entity: EntityCustomer, ID: id}
			}
			var txErr error
			updated, txErr = tx.UpdateCustomer(id, func(c *Customer) error {
				if mErr := mutator(c); mErr != nil {
					return mErr
				}
				if vErr := validateCustomer(*c); vErr != nil {
					return vErr
				}
				if other, ok := tx.FindCustomerByEmail(c.Email); ok && other.ID != id {
					return domain.AlreadyExistsError{Entity: EntityCustomer, Key: c.Email}
				}
				return nil
			})
			return txErr
		})
		return id, err
	})
	return updated, res, err
}

// DeleteCustomer removes a customer owned by the acting principal. Orders
// referencing the customer are left in place as historical records.
func (s *Service) DeleteCustomer(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.observe(ctx, "delete_customer", EntityCustomer, func(ctx context.Context) (string, error) {
		principal, err := s.resolver.CurrentPrincipal(ctx)
		if err != nil {
			return id, err
		}
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			current, ok := tx.FindCustomer(id)
			if !ok {
				return domain.NotFoundError{Entity: EntityCustomer, ID: id}
			}
			if !Authorize(principal, current) {
				return domain.PermissionDeniedError{Entity: EntityCustomer, ID: id}
			}
			return tx.DeleteCustomer(id)
		})
		return id, err
	})
	return res, err
}

// ListCustomers returns the customers owned by the acting principal, sorted
// by ID.
func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	var out []Customer
	err := s.observe(ctx, "list_customers", EntityCustomer, func(ctx context.Context) (string, error) {
		principal, err := s.resolver.CurrentPrincipal(ctx)
		if err != nil {
			return "", err
		}
		for _, customer := range s.store.ListCustomers() {
			if customer.Owner == principal.ID {
				out = append(out, customer)
			}
		}
		return "", nil
	})
	return out, err
}

// ListAllCustomers returns every customer regardless of owner. Intended for
// administrative and reporting callers, not request handlers.
func (s *Service) ListAllCustomers(ctx context.Context) ([]Customer, error) {
	var out []Customer
	err := s.observe(ctx, "list_all_customers", EntityCustomer, func(ctx context.Context) (string, error) {
		if _, err := s.resolver.CurrentPrincipal(ctx); err != nil {
			return "", err
		}
		out = s.store.ListCustomers()
		return "", nil
	})
	return out, err
}

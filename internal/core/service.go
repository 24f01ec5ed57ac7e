package core

import (
	"context"
	"fmt"
	"strings"

	"ordercore/internal/infra/persistence/memory"
	"ordercore/pkg/domain"
)

const defaultSearchLimit = 10

// Service exposes the transactional order management operations. Every
// mutating call runs inside a single store transaction so multi-entity writes
// commit or roll back together.
type Service struct {
	store    domain.PersistentStore
	resolver PrincipalResolver
	statuses StatusSet
	metrics  MetricsRecorder
	tracer   Tracer
	audit    AuditRecorder
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithPrincipalResolver overrides how the acting principal is derived from a
// request context.
func WithPrincipalResolver(resolver PrincipalResolver) ServiceOption {
	return func(s *Service) {
		if resolver != nil {
			s.resolver = resolver
		}
	}
}

// WithStatusSet replaces the set of order statuses the service accepts.
func WithStatusSet(statuses StatusSet) ServiceOption {
	return func(s *Service) {
		if len(statuses) > 0 {
			s.statuses = statuses
		}
	}
}

// WithMetricsRecorder attaches a metrics recorder to the service.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		s.metrics = recorder
	}
}

// WithTracer attaches a tracer to the service.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithAuditRecorder attaches an audit recorder to the service.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(s *Service) {
		s.audit = recorder
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:    store,
		resolver: ContextPrincipalResolver{},
		statuses: DefaultStatusSet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the default
// rules engine. Intended for tests and local development.
func NewInMemoryService(opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(NewDefaultRulesEngine()), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// CurrentPrincipal resolves the acting principal for the request context.
func (s *Service) CurrentPrincipal(ctx context.Context) (Principal, error) {
	return s.resolver.CurrentPrincipal(ctx)
}

func validateProduct(product Product) error {
	if strings.TrimSpace(product.Name) == "" {
		return fmt.Errorf("product name is required")
	}
	if product.Price < 0 {
		return fmt.Errorf("product price must not be negative")
	}
	if product.Stock < 0 {
		return fmt.Errorf("product stock must not be negative")
	}
	return nil
}

// CreateProduct persists a new catalog product.
func (s *Service) CreateProduct(ctx context.Context, product Product) (Product, Result, error) {
	var created Product
	var res Result
	err := s.observe(ctx, "create_product", EntityProduct, func(ctx context.Context) (string, error) {
		if _, err := s.resolver.CurrentPrincipal(ctx); err != nil {
			return "", err
		}
		if err := validateProduct(product); err != nil {
			return "", err
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var txErr error
			created, txErr = tx.CreateProduct(product)
			return txErr
		})
		return created.ID, err
	})
	return created, res, err
}

// GetProduct retrieves a product by ID. Products are catalog data and are
// readable by any authenticated principal.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	var found Product
	err := s.observe(ctx, "get_product", EntityProduct, func(ctx context.Context) (string, error) {
		if _, err := s.resolver.CurrentPrincipal(ctx); err != nil {
			return id, err
		}
		product, ok := s.store.GetProduct(id)
		if !ok {
			return id, domain.NotFoundError{Entity: EntityProduct, ID: id}
		}
		found = product
		return id, nil
	})
	return found, err
}

// UpdateProduct applies mutator to an existing product.
func (s *Service) UpdateProduct(ctx context.Context, id string, mutator func(*Product) error) (Product, Result, error) {
	var updated Product
	var res Result
	err := s.observe(ctx, "update_product", EntityProduct, func(ctx context.Context) (string, error) {
		if _, err := s.resolver.CurrentPrincipal(ctx); err != nil {
			return id, err
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var txErr error
			updated, txErr = tx.UpdateProduct(id, func(p *Product) error {
				if mErr := mutator(p); mErr != nil {
					return mErr
				}
				return validateProduct(*p)
			})
			return txErr
		})
		return id, err
	})
	return updated, res, err
}

// DeleteProduct removes a product from the catalog.
func (s *Service) DeleteProduct(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.observe(ctx, "delete_product", EntityProduct, func(ctx context.Context) (string, error) {
		if _, err := s.resolver.CurrentPrincipal(ctx); err != nil {
			return id, err
		}
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			return tx.DeleteProduct(id)
		})
		return id, err
	})
	return res, err
}

// ListProducts returns all catalog products sorted by ID.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product
	err := s.observe(ctx, "list_products", EntityProduct, func(ctx context.Context) (string, error) {
		if _, err := s.resolver.CurrentPrincipal(ctx); err != nil {
			return "", err
		}
		out = s.store.ListProducts()
		return "", nil
	})
	return out, err
}

// SearchProducts returns products whose name contains term, case-insensitive,
// capped at limit results. A non-positive limit applies the default cap.
func (s *Service) SearchProducts(ctx context.Context, term string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	var out []Product
	err := s.observe(ctx, "search_products", EntityProduct, func(ctx context.Context) (string, error) {
		if _, err := s.resolver.CurrentPrincipal(ctx); err != nil {
			return "", err
		}
		needle := strings.ToLower(strings.TrimSpace(term))
		for _, product := range s.store.ListProducts() {
			if needle != "" && !strings.Contains(strings.ToLower(product.Name), needle) {
				continue
			}
			out = append(out, product)
			if len(out) == limit {
				break
			}
		}
		return "", nil
	})
	return out, err
}

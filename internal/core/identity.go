package core

import (
	"context"

	"ordercore/pkg/domain"
)

// principalContextKey is the private key under which the resolved principal
// travels in request contexts.
type principalContextKey struct{}

// WithPrincipal returns a context carrying the resolved principal. The
// authentication collaborator installs it once per inbound request.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal installed by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// PrincipalResolver supplies the acting principal for each operation. It is
// the surface of the external principal directory; implementations other than
// the context-backed default belong to the transport layer.
type PrincipalResolver interface {
	CurrentPrincipal(ctx context.Context) (Principal, error)
}

// ContextPrincipalResolver resolves the principal from the request context.
type ContextPrincipalResolver struct{}

// CurrentPrincipal returns the context principal or ErrUnauthenticated.
func (ContextPrincipalResolver) CurrentPrincipal(ctx context.Context) (Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return Principal{}, domain.ErrUnauthenticated
	}
	return p, nil
}

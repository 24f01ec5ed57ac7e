package core

import "ordercore/pkg/domain"

// Authorize reports whether the principal owns the resource. Callers must
// check existence first: NotFound takes priority over PermissionDenied so a
// missing record is never reported as forbidden.
func Authorize(p Principal, resource domain.Owned) bool {
	return resource.OwnerID() == p.ID
}

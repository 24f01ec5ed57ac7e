package domain_test

import (
	"testing"

	"ordercore/testutil"
)

// The domain package is the dependency floor of the module. It must stay free
// of internal packages and third-party libraries.
func TestDomainImportsStdlibOnly(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.ThirdPartyImportForbidden,
		"pkg/domain must not depend on module internals or third-party packages")
}

// Package testutil provides helpers for enforcing package boundary rules in
// tests.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// AssertNoDirectImports parses every non-test .go file in dir and fails the
// test if any import path satisfies the forbidden predicate. Build tags are
// not evaluated.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	if len(viols) > 0 {
		t.Fatalf("forbidden imports detected (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}

// InternalImportForbidden matches imports of this module's internal packages.
func InternalImportForbidden(path string) bool {
	return strings.HasPrefix(path, "ordercore/internal/")
}

// InfraImportForbidden matches imports that reach into infrastructure
// backends directly instead of going through their wrapper packages.
func InfraImportForbidden(path string) bool {
	return strings.HasPrefix(path, "ordercore/internal/infra/blob/")
}

// ThirdPartyImportForbidden matches any import outside the standard library
// and this module.
func ThirdPartyImportForbidden(path string) bool {
	if strings.HasPrefix(path, "ordercore/") {
		return true
	}
	return strings.Contains(strings.SplitN(path, "/", 2)[0], ".")
}

func directImportViolations(dir string, forbidden func(importPath string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range file.Imports {
			path := strings.Trim(imp.Path.Value, "\"")
			if forbidden(path) {
				viols = append(viols, path+" (in "+name+")")
			}
		}
	}
	return viols, nil
}

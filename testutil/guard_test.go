package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n\nimport (\n\t\"fmt\"\n\t\"ordercore/internal/core\"\n)\n\nvar _ = fmt.Sprint\n")
	writeFile(t, dir, "a_test.go", "package a\n\nimport \"ordercore/internal/infra/blob/fs\"\n")

	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.Contains(viols[0], "ordercore/internal/core") {
		t.Fatalf("violations = %v", viols)
	}
}

func TestPredicates(t *testing.T) {
	cases := []struct {
		pred func(string) bool
		path string
		want bool
	}{
		{InternalImportForbidden, "ordercore/internal/core", true},
		{InternalImportForbidden, "ordercore/pkg/domain", false},
		{InfraImportForbidden, "ordercore/internal/infra/blob/s3", true},
		{InfraImportForbidden, "ordercore/internal/blob", false},
		{ThirdPartyImportForbidden, "github.com/google/uuid", true},
		{ThirdPartyImportForbidden, "ordercore/internal/core", true},
		{ThirdPartyImportForbidden, "encoding/json", false},
		{ThirdPartyImportForbidden, "fmt", false},
	}
	for _, tc := range cases {
		if got := tc.pred(tc.path); got != tc.want {
			t.Fatalf("predicate(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

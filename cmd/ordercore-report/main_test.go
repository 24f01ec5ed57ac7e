package main

import "testing"

func TestRunRequiresPrincipal(t *testing.T) {
	t.Setenv("ORDERCORE_STORAGE_DRIVER", "memory")
	t.Setenv("ORDERCORE_BLOB_DRIVER", "memory")
	if code := run([]string{"-kind", "top_customers"}); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRunRejectsBadFlags(t *testing.T) {
	if code := run([]string{"-no-such-flag"}); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRunExportsAgainstMemoryBackends(t *testing.T) {
	t.Setenv("ORDERCORE_STORAGE_DRIVER", "memory")
	t.Setenv("ORDERCORE_BLOB_DRIVER", "memory")
	code := run([]string{"-kind", "top_customers", "-principal", "seller-1", "-formats", "json"})
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}

func TestRunFailsOnUnknownKind(t *testing.T) {
	t.Setenv("ORDERCORE_STORAGE_DRIVER", "memory")
	t.Setenv("ORDERCORE_BLOB_DRIVER", "memory")
	if code := run([]string{"-kind", "bogus", "-principal", "seller-1"}); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
}

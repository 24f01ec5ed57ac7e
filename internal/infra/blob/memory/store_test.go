package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"ordercore/internal/blob/core"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	info, err := store.Put(ctx, "reports/top.json", bytes.NewReader([]byte(`{"ok":true}`)), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"kind": "top_customers"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 11 || info.ContentType != "application/json" {
		t.Fatalf("info = %+v", info)
	}

	got, rc, err := store.Get(ctx, "reports/top.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	_ = rc.Close()
	if string(data) != `{"ok":true}` {
		t.Fatalf("content = %q", data)
	}
	if got.Metadata["kind"] != "top_customers" {
		t.Fatalf("metadata = %+v", got.Metadata)
	}
}

func TestPutRejectsDuplicateKey(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("v")), core.PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("v2")), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestMissingKeyLookups(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Head(ctx, "missing"); err == nil {
		t.Fatalf("expected head error")
	}
	if _, _, err := store.Get(ctx, "missing"); err == nil {
		t.Fatalf("expected get error")
	}
	if ok, err := store.Delete(ctx, "missing"); err != nil || ok {
		t.Fatalf("delete missing = (%v, %v)", ok, err)
	}
}

func TestListFiltersByPrefix(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, key := range []string{"reports/a.json", "reports/b.csv", "other/c.json"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "reports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "reports/a.json" || infos[1].Key != "reports/b.csv" {
		t.Fatalf("list = %+v", infos)
	}
	all, err := store.List(ctx, "")
	if err != nil || len(all) != 3 {
		t.Fatalf("unfiltered list = %+v, %v", all, err)
	}
}

func TestPresignUnsupported(t *testing.T) {
	store := New()
	if _, err := store.PresignURL(context.Background(), "k", core.SignedURLOptions{}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("presign err = %v", err)
	}
}

func TestStoredContentIsIsolated(t *testing.T) {
	store := New()
	ctx := context.Background()
	payload := []byte("immutable")
	if _, err := store.Put(ctx, "k", bytes.NewReader(payload), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	payload[0] = 'X'
	_, rc, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "immutable" {
		t.Fatalf("content mutated: %q", data)
	}
}

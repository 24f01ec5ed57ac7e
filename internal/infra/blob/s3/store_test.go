package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"ordercore/internal/blob/core"
)

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket validation error")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()

	info, err := store.Put(ctx, "reports/top.json", bytes.NewReader([]byte(`{"rows":[]}`)), core.PutOptions{
		ContentType: "application/json",
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "reports/top.json" || info.Size == 0 {
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
	if string(data) != `{"rows":[]}` {
		t.Fatalf("content = %q", data)
	}
	if got.ContentType != "application/json" {
		t.Fatalf("content type = %q", got.ContentType)
	}
}

func TestPutRejectsExistingObject(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("v")), core.PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("v2")), core.PutOptions{}); err == nil {
		t.Fatalf("expected create-only violation")
	}
}

func TestDeleteThenHeadFails(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("v")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err := store.Delete(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("delete = (%v, %v)", ok, err)
	}
	if _, err := store.Head(ctx, "k"); err == nil {
		t.Fatalf("expected head failure after delete")
	}
}

func TestListFiltersByPrefix(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	for _, key := range []string{"reports/a.json", "reports/b.csv", "other/c"} {
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
}

func TestPresignURL(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	url, err := store.PresignURL(ctx, "reports/a.json", core.SignedURLOptions{})
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.Contains(url, "reports/a.json") || !strings.Contains(url, "X-Amz-Signature") {
		t.Fatalf("url = %q", url)
	}
	if _, err := store.PresignURL(ctx, "reports/a.json", core.SignedURLOptions{Method: "DELETE"}); !errors.Is(err, core.ErrUnsupported) {
		t.Fatalf("presign delete err = %v", err)
	}
}

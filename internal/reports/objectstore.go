package reports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"ordercore/internal/blob"
)

// ObjectStore persists export artifacts.
type ObjectStore interface {
	// Put stores a new immutable object. Implementations fail if key exists.
	Put(ctx context.Context, key string, payload []byte, contentType string, metadata map[string]string) (ExportArtifact, error)
	// Get returns the artifact metadata and full payload bytes.
	Get(ctx context.Context, key string) (ExportArtifact, []byte, error)
	// Delete removes the object; returns true if it existed.
	Delete(ctx context.Context, key string) (bool, error)
	// List returns artifacts whose keys start with prefix. Empty prefix lists all.
	List(ctx context.Context, prefix string) ([]ExportArtifact, error)
}

// BlobObjectStore adapts a blob.Store into the export ObjectStore surface.
type BlobObjectStore struct {
	store blob.Store
}

// NewBlobObjectStore wraps the provided blob store.
func NewBlobObjectStore(store blob.Store) *BlobObjectStore {
	return &BlobObjectStore{store: store}
}

// Put stores the payload under key.
func (s *BlobObjectStore) Put(ctx context.Context, key string, payload []byte, contentType string, metadata map[string]string) (ExportArtifact, error) {
	info, err := s.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: contentType,
		Metadata:    metadata,
	})
	if err != nil {
		return ExportArtifact{}, err
	}
	if url, err := s.store.PresignURL(ctx, key, blob.SignedURLOptions{}); err == nil {
		info.URL = url
	}
	return artifactFromInfo(info), nil
}

// Get returns artifact metadata and payload bytes.
func (s *BlobObjectStore) Get(ctx context.Context, key string) (ExportArtifact, []byte, error) {
	info, rc, err := s.store.Get(ctx, key)
	if err != nil {
		return ExportArtifact{}, nil, err
	}
	defer func() { _ = rc.Close() }()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return ExportArtifact{}, nil, err
	}
	return artifactFromInfo(info), payload, nil
}

// Delete removes the object.
func (s *BlobObjectStore) Delete(ctx context.Context, key string) (bool, error) {
	return s.store.Delete(ctx, key)
}

// List returns artifacts under prefix.
func (s *BlobObjectStore) List(ctx context.Context, prefix string) ([]ExportArtifact, error) {
	infos, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]ExportArtifact, 0, len(infos))
	for _, info := range infos {
		out = append(out, artifactFromInfo(info))
	}
	return out, nil
}

func artifactFromInfo(info blob.Info) ExportArtifact {
	return ExportArtifact{
		ID:          info.Key,
		ContentType: info.ContentType,
		SizeBytes:   info.Size,
		URL:         info.URL,
		Metadata:    info.Metadata,
		CreatedAt:   info.LastModified,
	}
}

// MemoryObjectStore is an in-memory ObjectStore for tests.
type MemoryObjectStore struct {
	mu      sync.RWMutex
	objects map[string]storedObject
}

type storedObject struct {
	artifact ExportArtifact
	payload  []byte
}

// NewMemoryObjectStore constructs an in-memory object store.
func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{objects: make(map[string]storedObject)}
}

// Put stores the payload and returns a stub URL for retrieval.
func (s *MemoryObjectStore) Put(_ context.Context, key string, payload []byte, contentType string, metadata map[string]string) (ExportArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[key]; exists {
		return ExportArtifact{}, fmt.Errorf("object %s already exists", key)
	}
	artifact := ExportArtifact{
		ID:          key,
		ContentType: contentType,
		SizeBytes:   int64(len(payload)),
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
		URL:         fmt.Sprintf("https://object-store.local/%s?token=stub", key),
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	s.objects[key] = storedObject{artifact: artifact, payload: cp}
	return artifact, nil
}

// Get returns artifact metadata and payload bytes.
func (s *MemoryObjectStore) Get(_ context.Context, key string) (ExportArtifact, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return ExportArtifact{}, nil, fmt.Errorf("object %s not found", key)
	}
	cp := make([]byte, len(obj.payload))
	copy(cp, obj.payload)
	return obj.artifact, cp, nil
}

// Delete removes the object; idempotent.
func (s *MemoryObjectStore) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.objects[key]
	delete(s.objects, key)
	return existed, nil
}

// List returns artifacts under prefix.
func (s *MemoryObjectStore) List(_ context.Context, prefix string) ([]ExportArtifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ExportArtifact, 0, len(s.objects))
	for key, obj := range s.objects {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			out = append(out, obj.artifact)
		}
	}
	return out, nil
}

// MemoryAuditLog captures audit entries in memory for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a defensive copy of recorded audit entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	key := OriginalKey("owner-1", "photo-1")
	url, err := store.Upload(ctx, key, "image/png", []byte{0x89, 0x50, 0x4e, 0x47})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if url != "http://localhost:8080/static/"+key {
		t.Fatalf("unexpected url: %s", url)
	}

	data, err := store.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(data) != 4 {
		t.Fatalf("unexpected data length: %d", len(data))
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Download(ctx, key); err == nil {
		t.Fatal("expected download failure after delete")
	}
	// deleting a missing object is not an error
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestFileStoreDeletePrefix(t *testing.T) {
	base := t.TempDir()
	store, err := NewFileStore(base, "")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := store.Upload(ctx, GeneratedKey("o", "p", i), "image/png", []byte{1}); err != nil {
			t.Fatalf("Upload %d: %v", i, err)
		}
	}
	if err := store.DeletePrefix(ctx, GeneratedPrefix("o", "p")); err != nil {
		t.Fatalf("DeletePrefix: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "owner", "o", "generated", "p")); !os.IsNotExist(err) {
		t.Fatalf("expected prefix directory removed, stat err=%v", err)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Upload(context.Background(), "../escape.png", "image/png", []byte{1}); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
}

type flakyStore struct {
	FileStore
	failures int
	attempts int
	delays   []time.Duration
}

func (f *flakyStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	f.attempts++
	if f.attempts <= f.failures {
		return "", errors.New("transient")
	}
	return "https://cdn.example.com/" + key, nil
}

func TestUploadWithRetryEventualSuccess(t *testing.T) {
	store := &flakyStore{failures: 2}
	policy := DefaultRetryPolicy()
	policy.sleep = func(ctx context.Context, d time.Duration) error {
		store.delays = append(store.delays, d)
		return nil
	}

	url, err := UploadWithRetry(context.Background(), store, "k", "image/png", []byte{1}, policy)
	if err != nil {
		t.Fatalf("UploadWithRetry: %v", err)
	}
	if url != "https://cdn.example.com/k" {
		t.Fatalf("unexpected url: %s", url)
	}
	if store.attempts != 3 {
		t.Fatalf("unexpected attempts: %d", store.attempts)
	}
	// exponential backoff: 1s then 2s
	if len(store.delays) != 2 || store.delays[0] != time.Second || store.delays[1] != 2*time.Second {
		t.Fatalf("unexpected delays: %v", store.delays)
	}
}

func TestUploadWithRetryExhausted(t *testing.T) {
	store := &flakyStore{failures: 10}
	policy := DefaultRetryPolicy()
	policy.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	_, err := UploadWithRetry(context.Background(), store, "k", "image/png", []byte{1}, policy)
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if store.attempts != 3 {
		t.Fatalf("unexpected attempts: %d", store.attempts)
	}
}

func TestUploadWithRetryContextCancelled(t *testing.T) {
	store := &flakyStore{failures: 10}
	policy := DefaultRetryPolicy()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := UploadWithRetry(ctx, store, "k", "image/png", []byte{1}, policy)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

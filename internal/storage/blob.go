package storage

import (
	"context"
	"fmt"
	"time"
)

// BlobStore is the contract for durable storage of one binary object at a
// caller-specified key. Upload returns a publicly resolvable URL for the
// stored object.
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// OriginalKey builds the owner-scoped key for a source image.
func OriginalKey(ownerID, photoID string) string {
	return fmt.Sprintf("owner/%s/original/%s.png", ownerID, photoID)
}

// GeneratedKey builds the owner-scoped key for one generated variant.
func GeneratedKey(ownerID, photoID string, index int) string {
	return fmt.Sprintf("owner/%s/generated/%s/%d.png", ownerID, photoID, index)
}

// GeneratedPrefix covers every variant produced for one photo.
func GeneratedPrefix(ownerID, photoID string) string {
	return fmt.Sprintf("owner/%s/generated/%s/", ownerID, photoID)
}

// RetryPolicy controls UploadWithRetry. The zero value is not usable; use
// DefaultRetryPolicy for the product defaults.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Factor       int

	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy matches the pipeline contract for original-photo uploads.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialDelay: time.Second, Factor: 2}
}

// UploadWithRetry attempts the upload, waiting InitialDelay * Factor^(attempt-1)
// between failures. After MaxAttempts the last error is surfaced to the caller.
func UploadWithRetry(ctx context.Context, store BlobStore, key, contentType string, data []byte, policy RetryPolicy) (string, error) {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if policy.Factor <= 0 {
		policy.Factor = 2
	}
	sleep := policy.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	delay := policy.InitialDelay
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if attempt > 1 && delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return "", err
			}
			delay *= time.Duration(policy.Factor)
		}
		url, err := store.Upload(ctx, key, contentType, data)
		if err == nil {
			return url, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("upload %s after %d attempts: %w", key, policy.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

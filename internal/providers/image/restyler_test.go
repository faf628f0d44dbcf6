package image

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"restyle-service/internal/domain"
	"restyle-service/internal/providers/genai"
	"restyle-service/internal/providers/styleplan"
)

type fakeStream struct {
	chunks int
	err    error
}

func (f *fakeStream) StreamImages(ctx context.Context, req genai.ImageStreamRequest, fn func(chunk genai.ImageChunk) error) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	for i := 0; i < f.chunks; i++ {
		if err := fn(genai.ImageChunk{Index: i, Data: []byte{byte(i)}, MIME: "image/png"}); err != nil {
			return i, err
		}
	}
	return f.chunks, nil
}

type fakeBlobStore struct {
	failKeys map[string]bool
	uploads  []string
}

func (f *fakeBlobStore) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if f.failKeys[key] {
		return "", errors.New("upload refused")
	}
	f.uploads = append(f.uploads, key)
	return "https://cdn.example.com/" + key, nil
}

func (f *fakeBlobStore) Download(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error { return nil }

func (f *fakeBlobStore) DeletePrefix(ctx context.Context, prefix string) error { return nil }

func plan(n int) []styleplan.Style {
	out := make([]styleplan.Style, n)
	for i := range out {
		out[i] = styleplan.Style{Name: fmt.Sprintf("Style %c", 'A'+i), Instruction: "do it"}
	}
	return out
}

func newRestyler(stream StreamClient, store *fakeBlobStore) *Restyler {
	return NewRestyler(stream, store, zerolog.New(io.Discard))
}

func TestRestylePairsStylesByPosition(t *testing.T) {
	store := &fakeBlobStore{}
	r := newRestyler(&fakeStream{chunks: 4}, store)

	variants, err := r.Restyle(context.Background(), Request{
		OwnerID:  "o",
		PhotoID:  "p",
		ImageURL: "https://cdn.example.com/in.png",
		Plan:     plan(4),
	})
	if err != nil {
		t.Fatalf("Restyle: %v", err)
	}
	if len(variants) != 4 {
		t.Fatalf("unexpected variant count: %d", len(variants))
	}
	for i, v := range variants {
		wantStyle := fmt.Sprintf("Style %c", 'A'+i)
		if v.Style != wantStyle {
			t.Fatalf("variant %d style %q, want %q", i, v.Style, wantStyle)
		}
		if !strings.HasSuffix(v.URL, fmt.Sprintf("owner/o/generated/p/%d.png", i)) {
			t.Fatalf("variant %d url %q", i, v.URL)
		}
	}
}

func TestRestyleDropsFailedChunkAndContinues(t *testing.T) {
	store := &fakeBlobStore{failKeys: map[string]bool{"owner/o/generated/p/2.png": true}}
	r := newRestyler(&fakeStream{chunks: 6}, store)

	variants, err := r.Restyle(context.Background(), Request{
		OwnerID:  "o",
		PhotoID:  "p",
		ImageURL: "https://cdn.example.com/in.png",
		Plan:     plan(6),
	})
	if err != nil {
		t.Fatalf("Restyle: %v", err)
	}
	if len(variants) != 5 {
		t.Fatalf("expected 5 variants after one dropped chunk, got %d", len(variants))
	}
	for _, v := range variants {
		if v.Style == "Style C" {
			t.Fatalf("dropped chunk's style should be absent: %+v", variants)
		}
	}
}

func TestRestyleFewerChunksThanPlanIsNotAnError(t *testing.T) {
	store := &fakeBlobStore{}
	r := newRestyler(&fakeStream{chunks: 2}, store)

	variants, err := r.Restyle(context.Background(), Request{
		OwnerID: "o", PhotoID: "p", ImageURL: "u", Plan: plan(5),
	})
	if err != nil {
		t.Fatalf("Restyle: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("unexpected variant count: %d", len(variants))
	}
}

func TestRestyleExtraChunksGetGenericLabels(t *testing.T) {
	store := &fakeBlobStore{}
	r := newRestyler(&fakeStream{chunks: 5}, store)

	variants, err := r.Restyle(context.Background(), Request{
		OwnerID: "o", PhotoID: "p", ImageURL: "u", Plan: plan(3),
	})
	if err != nil {
		t.Fatalf("Restyle: %v", err)
	}
	if len(variants) != 5 {
		t.Fatalf("unexpected variant count: %d", len(variants))
	}
	if variants[3].Style != "Generated Style 4" || variants[4].Style != "Generated Style 5" {
		t.Fatalf("extra chunks mislabeled: %+v", variants[3:])
	}
}

func TestRestyleZeroUsableChunksIsHardFailure(t *testing.T) {
	store := &fakeBlobStore{failKeys: map[string]bool{
		"owner/o/generated/p/0.png": true,
		"owner/o/generated/p/1.png": true,
	}}
	r := newRestyler(&fakeStream{chunks: 2}, store)

	_, err := r.Restyle(context.Background(), Request{
		OwnerID: "o", PhotoID: "p", ImageURL: "u", Plan: plan(2),
	})
	if !errors.Is(err, domain.ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
}

func TestRestyleTransportFailurePropagates(t *testing.T) {
	r := newRestyler(&fakeStream{err: genai.ErrUnauthorized}, &fakeBlobStore{})
	_, err := r.Restyle(context.Background(), Request{
		OwnerID: "o", PhotoID: "p", ImageURL: "u", Plan: plan(2),
	})
	if !errors.Is(err, genai.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

// Package image turns the backend's raw image stream into uploaded, styled
// variants. It sits between the transport client and the orchestrator: each
// streamed chunk is uploaded to blob storage before the next one is consumed,
// and paired with its style label by stream position.
package image

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"restyle-service/internal/domain"
	"restyle-service/internal/providers/genai"
	"restyle-service/internal/providers/styleplan"
	"restyle-service/internal/storage"
)

// StreamClient is the transport surface the restyler needs.
type StreamClient interface {
	StreamImages(ctx context.Context, req genai.ImageStreamRequest, fn func(chunk genai.ImageChunk) error) (int, error)
}

// Request describes one restyling invocation for a single photo.
type Request struct {
	OwnerID  string
	PhotoID  string
	ImageURL string
	Plan     []styleplan.Style
}

// Variant is one produced (url, style) pair in stream order.
type Variant struct {
	URL   string
	Style string
}

// Restyler drives the streamed generation call and uploads every produced
// chunk. One failed chunk upload is dropped and logged; it never aborts the
// remaining stream.
type Restyler struct {
	client StreamClient
	store  storage.BlobStore
	logger zerolog.Logger
}

// NewRestyler wires the transport client with the blob store.
func NewRestyler(client StreamClient, store storage.BlobStore, logger zerolog.Logger) *Restyler {
	return &Restyler{client: client, store: store, logger: logger}
}

// Restyle produces the ordered list of variants actually uploaded. The
// backend may return fewer variants than requested; that is surfaced as the
// resulting list length, not as an error. A hard error is returned only when
// authentication fails, the backend is unreachable, or the aggregate result
// is empty after the stream completes.
//
// Style pairing is positional: the Nth chunk pairs with the Nth style of the
// plan. The backend is trusted to honour the instruction order; a reordered
// stream would mislabel silently. Chunks beyond the plan are kept with a
// generic label.
func (r *Restyler) Restyle(ctx context.Context, req Request) ([]Variant, error) {
	if strings.TrimSpace(req.ImageURL) == "" {
		return nil, fmt.Errorf("restyle: image url required")
	}
	if len(req.Plan) == 0 {
		return nil, fmt.Errorf("restyle: empty style plan")
	}

	instructions := make([]string, len(req.Plan))
	for i, style := range req.Plan {
		instructions[i] = style.Instruction
	}

	var variants []Variant
	_, err := r.client.StreamImages(ctx, genai.ImageStreamRequest{
		ImageURL:     req.ImageURL,
		Instructions: instructions,
		RequestID:    req.PhotoID,
	}, func(chunk genai.ImageChunk) error {
		key := storage.GeneratedKey(req.OwnerID, req.PhotoID, chunk.Index)
		url, uploadErr := r.store.Upload(ctx, key, chunk.MIME, chunk.Data)
		if uploadErr != nil {
			r.logger.Warn().Err(uploadErr).
				Str("photo_id", req.PhotoID).
				Int("chunk", chunk.Index).
				Msg("restyle: variant upload failed, dropping chunk")
			return nil
		}
		variants = append(variants, Variant{URL: url, Style: styleLabel(req.Plan, chunk.Index)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("restyle: %w", err)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("restyle: %w", domain.ErrEmptyResult)
	}
	return variants, nil
}

func styleLabel(plan []styleplan.Style, index int) string {
	if index >= 0 && index < len(plan) {
		return plan[index].Name
	}
	return fmt.Sprintf("Generated Style %d", index+1)
}

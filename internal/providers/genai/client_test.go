package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sseEvent(t *testing.T, images ...[]byte) string {
	t.Helper()
	var parts []geminiPart
	for _, img := range images {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: "image/png",
			Data:     base64.StdEncoding.EncodeToString(img),
		}})
	}
	event := geminiGenerateContentResponse{Candidates: []geminiCandidate{{Content: geminiContent{Parts: parts}}}}
	raw, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return "data: " + string(raw) + "\n\n"
}

func TestStreamImagesDeliversChunksInOrder(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":streamGenerateContent") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Fatalf("missing api key, query=%s", r.URL.RawQuery)
		}
		if r.URL.Query().Get("alt") != "sse" {
			t.Fatalf("expected sse transport, query=%s", r.URL.RawQuery)
		}
		var payload geminiGenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(payload.Contents) != 1 || len(payload.Contents[0].Parts) != 4 {
			t.Fatalf("unexpected request shape: %+v", payload)
		}
		if payload.Contents[0].Parts[0].FileData == nil || payload.Contents[0].Parts[0].FileData.FileURI != "https://cdn.example.com/in.png" {
			t.Fatalf("source image missing: %+v", payload.Contents[0].Parts[0])
		}

		w.Header().Set("Content-Type", "text/event-stream")
		for i := 0; i < 3; i++ {
			fmt.Fprint(w, sseEvent(t, []byte{byte(i + 1)}))
		}
	}))
	defer ts.Close()

	client, err := NewClient(Options{APIKey: "test-key", BaseURL: ts.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	var chunks []ImageChunk
	count, err := client.StreamImages(context.Background(), ImageStreamRequest{
		ImageURL:     "https://cdn.example.com/in.png",
		Instructions: []string{"noir", "pop art", "watercolor"},
		RequestID:    "req-1",
	}, func(chunk ImageChunk) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamImages: %v", err)
	}
	if count != 3 || len(chunks) != 3 {
		t.Fatalf("unexpected chunk count: %d / %d", count, len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Fatalf("chunk %d has index %d", i, chunk.Index)
		}
		if chunk.Data[0] != byte(i+1) {
			t.Fatalf("chunk %d out of order: %v", i, chunk.Data)
		}
		if chunk.MIME != "image/png" {
			t.Fatalf("chunk %d mime: %s", i, chunk.MIME)
		}
	}
}

func TestStreamImagesSkipsMalformedEvents(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {not json}\n\n")
		fmt.Fprint(w, sseEvent(t, []byte{0xAA}))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer ts.Close()

	client, _ := NewClient(Options{APIKey: "k", BaseURL: ts.URL})
	count, err := client.StreamImages(context.Background(), ImageStreamRequest{
		ImageURL:     "https://cdn.example.com/in.png",
		Instructions: []string{"noir"},
	}, func(chunk ImageChunk) error { return nil })
	if err != nil {
		t.Fatalf("StreamImages: %v", err)
	}
	if count != 1 {
		t.Fatalf("unexpected count: %d", count)
	}
}

func TestStreamImagesUnauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	client, _ := NewClient(Options{APIKey: "bad", BaseURL: ts.URL})
	_, err := client.StreamImages(context.Background(), ImageStreamRequest{
		ImageURL:     "https://cdn.example.com/in.png",
		Instructions: []string{"noir"},
	}, func(chunk ImageChunk) error { return nil })
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestStreamImagesMissingKey(t *testing.T) {
	client, _ := NewClient(Options{})
	_, err := client.StreamImages(context.Background(), ImageStreamRequest{
		ImageURL:     "https://cdn.example.com/in.png",
		Instructions: []string{"noir"},
	}, func(chunk ImageChunk) error { return nil })
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestStreamImagesCallbackAborts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseEvent(t, []byte{1}, []byte{2}, []byte{3}))
	}))
	defer ts.Close()

	client, _ := NewClient(Options{APIKey: "k", BaseURL: ts.URL})
	abort := errors.New("stop")
	count, err := client.StreamImages(context.Background(), ImageStreamRequest{
		ImageURL:     "https://cdn.example.com/in.png",
		Instructions: []string{"a", "b", "c"},
	}, func(chunk ImageChunk) error {
		if chunk.Index == 1 {
			return abort
		}
		return nil
	})
	if !errors.Is(err, abort) {
		t.Fatalf("expected abort error, got %v", err)
	}
	if count != 1 {
		t.Fatalf("unexpected delivered count: %d", count)
	}
}

func TestGenerateTextConcatenatesParts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		resp := geminiGenerateContentResponse{Candidates: []geminiCandidate{{
			Content: geminiContent{Parts: []geminiPart{{Text: "Noir\n"}, {Text: "Pop Art"}}},
		}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer ts.Close()

	client, _ := NewClient(Options{APIKey: "k", BaseURL: ts.URL})
	text, err := client.GenerateText(context.Background(), TextRequest{Prompt: "suggest styles", ImageURL: "https://cdn.example.com/in.png"})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if text != "Noir\nPop Art" {
		t.Fatalf("unexpected text: %q", text)
	}
}

// Package genai is the transport client for the multi-image generation
// backend. It speaks the Gemini generateContent protocol, including the
// streamed variant used for multi-image generation where each server-sent
// event carries one generated image.
package genai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrUnauthorized marks authentication/authorization failures from the
// backend. Callers treat it as non-retryable within a single run.
var ErrUnauthorized = errors.New("genai: unauthorized")

// Options controls how the client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *zerolog.Logger
}

// Client invokes the generation backend. The streaming call carries a
// generous timeout because a multi-image response can take minutes.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// ImageStreamRequest describes one streamed multi-image invocation. The
// backend receives the source image by URL plus one instruction per requested
// style; it emits generated images in stream order.
type ImageStreamRequest struct {
	ImageURL     string
	Instructions []string
	RequestID    string
}

// ImageChunk is one unit of generated binary data received from the stream.
// Index is the zero-based arrival position.
type ImageChunk struct {
	Index int
	Data  []byte
	MIME  string
}

// TextRequest describes a single text completion, optionally conditioned on
// an image.
type TextRequest struct {
	Prompt   string
	ImageURL string
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
	FileData   *geminiFileData   `json:"fileData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiFileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri,omitempty"`
}

type geminiGenerationConfig struct {
	CandidateCount     int      `json:"candidateCount,omitempty"`
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a backend client with sane defaults. Callers may
// provide a nil HTTP client; one with the configured timeout will be created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		client = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash-image"
	}

	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the configured backend model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether an API key is configured.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// StreamImages invokes the streamed multi-image generation endpoint and calls
// fn once per generated image chunk, in arrival order, before reading the
// next event. It returns the number of chunks delivered. A non-nil error from
// fn aborts the stream.
func (c *Client) StreamImages(ctx context.Context, req ImageStreamRequest, fn func(chunk ImageChunk) error) (int, error) {
	if c.apiKey == "" {
		return 0, ErrUnauthorized
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		return 0, errors.New("genai: image url required")
	}
	if len(req.Instructions) == 0 {
		return 0, errors.New("genai: at least one instruction required")
	}

	parts := make([]geminiPart, 0, len(req.Instructions)+1)
	parts = append(parts, geminiPart{FileData: &geminiFileData{FileURI: req.ImageURL}})
	for i, instruction := range req.Instructions {
		parts = append(parts, geminiPart{Text: fmt.Sprintf("Image %d: %s", i+1, instruction)})
	}
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			CandidateCount:     1,
			ResponseModalities: []string{"IMAGE"},
		},
	}

	endpoint := fmt.Sprintf("%s/models/%s:streamGenerateContent", c.baseURL, url.PathEscape(c.model))
	resp, err := c.post(ctx, endpoint, "alt=sse", payload)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return 0, err
	}

	count := 0
	scanner := bufio.NewScanner(resp.Body)
	// single events can carry multi-megabyte base64 payloads
	scanner.Buffer(make([]byte, 64*1024), 32*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		raw := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if raw == "" || raw == "[DONE]" {
			continue
		}
		var event geminiGenerateContentResponse
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			c.logger.Warn().Err(err).Str("request_id", req.RequestID).Msg("genai: skipping malformed stream event")
			continue
		}
		for _, candidate := range event.Candidates {
			for _, part := range candidate.Content.Parts {
				if part.InlineData == nil || part.InlineData.Data == "" {
					continue
				}
				data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil || len(data) == 0 {
					c.logger.Warn().Err(err).Str("request_id", req.RequestID).Msg("genai: skipping undecodable chunk")
					continue
				}
				chunk := ImageChunk{Index: count, Data: data, MIME: firstNonEmpty(part.InlineData.MimeType, "image/png")}
				if err := fn(chunk); err != nil {
					return count, err
				}
				count++
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("genai: read stream: %w", err)
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.model).
		Int("chunks", count).
		Msg("genai: image stream complete")

	return count, nil
}

// GenerateText performs a non-streaming text completion, used by the style
// planner's captioning strategy.
func (c *Client) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	if c.apiKey == "" {
		return "", ErrUnauthorized
	}
	parts := []geminiPart{}
	if strings.TrimSpace(req.ImageURL) != "" {
		parts = append(parts, geminiPart{FileData: &geminiFileData{FileURI: req.ImageURL}})
	}
	parts = append(parts, geminiPart{Text: req.Prompt})
	payload := geminiGenerateContentRequest{
		Contents:         []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{CandidateCount: 1},
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	resp, err := c.post(ctx, endpoint, "", payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return "", err
	}

	var out geminiGenerateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("genai: decode response: %w", err)
	}
	var b strings.Builder
	for _, candidate := range out.Candidates {
		for _, part := range candidate.Content.Parts {
			b.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", errors.New("genai: empty completion")
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, endpoint, rawQuery string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("genai: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("genai: create request: %w", err)
	}
	q, _ := url.ParseQuery(rawQuery)
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("genai: invoke backend: %w", err)
	}
	return resp, nil
}

func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	defer io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("genai status %d: %w", resp.StatusCode, ErrUnauthorized)
	}
	var apiErr geminiErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("genai status %d: %s", resp.StatusCode, apiErr.Error.Message)
	}
	return fmt.Errorf("genai status %d", resp.StatusCode)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

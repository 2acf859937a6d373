// Package ollama provides a model.Generator adapter for a locally hosted
// Ollama server's native /api/generate endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dshills/reviewflow/model"
)

const (
	// DefaultHost is the standard address of a local Ollama server.
	DefaultHost = "http://localhost:11434"

	// DefaultModel is used when no model name is configured.
	DefaultModel = "llama2:latest"

	defaultMaxTokens = 512

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 4 << 20
)

// Client implements model.Generator against Ollama's /api/generate endpoint.
//
// The client is stateless per request and safe for concurrent use; it holds
// only process-wide configuration fixed at construction (host, model name,
// temperature, token budget).
//
// Ollama may answer with a single JSON object or stream multiple JSON objects
// as NDJSON; both shapes are handled, accumulating the textual pieces.
type Client struct {
	host        string
	model       string
	temperature float64
	maxTokens   int
	httpc       *http.Client
}

// New creates a Client for the given host, model, and temperature.
// Empty host or model fall back to DefaultHost / DefaultModel.
//
// No request timeout is set on the underlying HTTP client; callers bound
// each call through the context (the retry decorator's per-attempt timeout).
func New(host, modelName string, temperature float64) *Client {
	if host == "" {
		host = DefaultHost
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	return &Client{
		host:        strings.TrimRight(host, "/"),
		model:       modelName,
		temperature: temperature,
		maxTokens:   defaultMaxTokens,
		httpc:       &http.Client{},
	}
}

type generateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type generateResponse struct {
	Response string `json:"response"`
	Text     string `json:"text"`
}

// Generate implements model.Generator.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:       c.model,
		Prompt:      prompt,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", &model.GenError{
			Code:    model.CodeBadRequest,
			Message: "failed to encode generation request",
			Cause:   err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", &model.GenError{
			Code:    model.CodeBadRequest,
			Message: "failed to build generation request",
			Cause:   err,
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", mapTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &model.GenError{
			Code:      model.CodeUnavailable,
			Message:   "failed to read generation response",
			Retryable: true,
			Cause:     err,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return "", mapStatusError(resp.StatusCode, body)
	}

	return decodeText(body), nil
}

// decodeText extracts generated text from the common Ollama response shapes:
// a single JSON object with a "response" (or "text") field, or an NDJSON
// stream of such objects whose textual pieces are concatenated. Unparseable
// bodies fall through as raw text.
func decodeText(body []byte) string {
	var single generateResponse
	if err := json.Unmarshal(body, &single); err == nil {
		if single.Response != "" {
			return single.Response
		}
		return single.Text
	}

	var accum strings.Builder
	parsedAny := false
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || (line[0] != '{' && line[0] != '[') {
			continue
		}
		var part generateResponse
		if err := json.Unmarshal([]byte(line), &part); err != nil {
			continue
		}
		parsedAny = true
		if part.Response != "" {
			accum.WriteString(part.Response)
		} else {
			accum.WriteString(part.Text)
		}
	}
	if parsedAny {
		return accum.String()
	}

	return string(body)
}

// mapTransportError classifies connection-level failures.
func mapTransportError(err error) *model.GenError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &model.GenError{
			Code:      model.CodeTimeout,
			Message:   "generation request timed out",
			Retryable: true,
			Cause:     err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &model.GenError{
			Code:    model.CodeTimeout,
			Message: "generation request canceled",
			Cause:   err,
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &model.GenError{
			Code:      model.CodeTimeout,
			Message:   "generation request timed out",
			Retryable: true,
			Cause:     err,
		}
	}

	return &model.GenError{
		Code:      model.CodeUnavailable,
		Message:   "generation service unreachable",
		Retryable: true,
		Cause:     err,
	}
}

// mapStatusError classifies non-200 responses: 429 and 5xx are transient,
// other 4xx are permanent request errors.
func mapStatusError(status int, body []byte) *model.GenError {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}

	switch {
	case status == http.StatusTooManyRequests:
		return &model.GenError{
			Code:      model.CodeRateLimited,
			Message:   "generation service rate limited the request",
			Retryable: true,
		}
	case status >= 500:
		return &model.GenError{
			Code:      model.CodeServerError,
			Message:   fmt.Sprintf("generation service error (status %d): %s", status, snippet),
			Retryable: true,
		}
	default:
		return &model.GenError{
			Code:    model.CodeBadRequest,
			Message: fmt.Sprintf("generation service rejected the request (status %d): %s", status, snippet),
		}
	}
}

// Package google provides a model.Generator adapter for Google's Gemini API.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dshills/reviewflow/model"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-1.5-flash"

// completer defines the interface for the content generation call.
// This allows for easy mocking in tests.
type completer interface {
	complete(ctx context.Context, prompt string) (string, error)
}

// Client implements model.Generator for Google's Gemini API.
// It is safe for concurrent use.
type Client struct {
	inner completer
}

// New creates a Client for the given API key, model, and temperature.
// An empty model name falls back to DefaultModel.
func New(apiKey, modelName string, temperature float64) *Client {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &Client{
		inner: &sdkCompleter{
			apiKey:      apiKey,
			modelName:   modelName,
			temperature: float32(temperature),
		},
	}
}

// Generate implements model.Generator.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	out, err := c.inner.complete(ctx, prompt)
	if err != nil {
		return "", mapError(err)
	}
	return out, nil
}

// sdkCompleter creates a short-lived genai client per call. The SDK's client
// holds a gRPC connection; scoping it to the call keeps the adapter stateless
// and lets the context govern the connection's lifetime.
type sdkCompleter struct {
	apiKey      string
	modelName   string
	temperature float32
}

func (s *sdkCompleter) complete(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(s.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	genModel := client.GenerativeModel(s.modelName)
	genModel.SetTemperature(s.temperature)

	resp, err := genModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no candidates in generation response")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	return text.String(), nil
}

// mapError converts SDK errors to model.GenError.
func mapError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &model.GenError{
			Code:      model.CodeTimeout,
			Message:   "Gemini API request timed out",
			Retryable: true,
			Cause:     err,
		}
	}

	lowerErr := strings.ToLower(err.Error())

	// Rate limit / resource exhaustion (retryable)
	if strings.Contains(lowerErr, "429") ||
		strings.Contains(lowerErr, "resource_exhausted") ||
		strings.Contains(lowerErr, "rate limit") ||
		strings.Contains(lowerErr, "quota") {
		return &model.GenError{
			Code:      model.CodeRateLimited,
			Message:   "Gemini API rate limit exceeded",
			Retryable: true,
			Cause:     err,
		}
	}

	// Authentication (permanent)
	if strings.Contains(lowerErr, "api key") ||
		strings.Contains(lowerErr, "401") ||
		strings.Contains(lowerErr, "403") ||
		strings.Contains(lowerErr, "permission") ||
		strings.Contains(lowerErr, "unauthenticated") {
		return &model.GenError{
			Code:    model.CodeBadRequest,
			Message: "Gemini API key is invalid or lacks permission",
			Cause:   err,
		}
	}

	// Server errors (retryable)
	if strings.Contains(lowerErr, "500") ||
		strings.Contains(lowerErr, "503") ||
		strings.Contains(lowerErr, "internal") ||
		strings.Contains(lowerErr, "unavailable") {
		return &model.GenError{
			Code:      model.CodeServerError,
			Message:   fmt.Sprintf("Gemini API server error: %v", err),
			Retryable: true,
			Cause:     err,
		}
	}

	// Network failures (retryable)
	if strings.Contains(lowerErr, "connection") ||
		strings.Contains(lowerErr, "timeout") ||
		strings.Contains(lowerErr, "network") {
		return &model.GenError{
			Code:      model.CodeUnavailable,
			Message:   fmt.Sprintf("network error calling Gemini API: %v", err),
			Retryable: true,
			Cause:     err,
		}
	}

	return &model.GenError{
		Code:    model.CodeAPIError,
		Message: fmt.Sprintf("Gemini API error: %v", err),
		Cause:   err,
	}
}

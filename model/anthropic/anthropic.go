// Package anthropic provides a model.Generator adapter for Anthropic's
// Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dshills/reviewflow/model"
)

const (
	// DefaultModel is used when no model name is configured.
	DefaultModel = "claude-3-5-haiku-latest"

	defaultMaxTokens = 1024
)

// completer defines the interface for the message creation call.
// This allows for easy mocking in tests.
type completer interface {
	complete(ctx context.Context, prompt string) (string, error)
}

// Client implements model.Generator for Anthropic's Messages API.
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

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		inner: &sdkCompleter{
			client:      &client,
			modelName:   modelName,
			temperature: temperature,
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

type sdkCompleter struct {
	client      *anthropic.Client
	modelName   string
	temperature float64
}

func (s *sdkCompleter) complete(ctx context.Context, prompt string) (string, error) {
	message, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(s.modelName),
		MaxTokens:   defaultMaxTokens,
		Temperature: anthropic.Float(s.temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
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
			Message:   "Anthropic API request timed out",
			Retryable: true,
			Cause:     err,
		}
	}

	lowerErr := strings.ToLower(err.Error())

	// Rate limiting (429, retryable)
	if strings.Contains(lowerErr, "429") ||
		strings.Contains(lowerErr, "rate_limit") ||
		strings.Contains(lowerErr, "rate limit") ||
		strings.Contains(lowerErr, "too many requests") {
		return &model.GenError{
			Code:      model.CodeRateLimited,
			Message:   "Anthropic API rate limit exceeded",
			Retryable: true,
			Cause:     err,
		}
	}

	// Authentication (401/403, permanent)
	if strings.Contains(lowerErr, "401") ||
		strings.Contains(lowerErr, "403") ||
		strings.Contains(lowerErr, "authentication") ||
		strings.Contains(lowerErr, "api_key") {
		return &model.GenError{
			Code:    model.CodeBadRequest,
			Message: "Anthropic API key is invalid or expired",
			Cause:   err,
		}
	}

	// Overloaded / server errors (retryable)
	if strings.Contains(lowerErr, "overloaded") ||
		strings.Contains(lowerErr, "500") ||
		strings.Contains(lowerErr, "502") ||
		strings.Contains(lowerErr, "503") ||
		strings.Contains(lowerErr, "529") {
		return &model.GenError{
			Code:      model.CodeServerError,
			Message:   fmt.Sprintf("Anthropic API server error: %v", err),
			Retryable: true,
			Cause:     err,
		}
	}

	// Timeouts and network failures (retryable)
	if strings.Contains(lowerErr, "timeout") ||
		strings.Contains(lowerErr, "deadline") ||
		strings.Contains(lowerErr, "connection") ||
		strings.Contains(lowerErr, "network") {
		return &model.GenError{
			Code:      model.CodeUnavailable,
			Message:   fmt.Sprintf("network error calling Anthropic API: %v", err),
			Retryable: true,
			Cause:     err,
		}
	}

	return &model.GenError{
		Code:    model.CodeAPIError,
		Message: fmt.Sprintf("Anthropic API error: %v", err),
		Cause:   err,
	}
}

// Package openai provides a model.Generator adapter for OpenAI's chat
// completion API and OpenAI-compatible endpoints.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/dshills/reviewflow/model"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gpt-4o-mini"

// completer defines the interface for the chat completion call.
// This allows for easy mocking in tests.
type completer interface {
	complete(ctx context.Context, prompt string) (string, error)
}

// Client implements model.Generator for OpenAI's chat completion API.
//
// With WithBaseURL it also speaks to OpenAI-compatible servers, including
// Ollama's /v1 endpoint and most hosted inference gateways.
//
// Client is safe for concurrent use; the underlying SDK client handles
// concurrency internally.
type Client struct {
	inner completer
}

// Option configures a Client.
type Option func(*sdkCompleter)

// WithBaseURL points the client at an OpenAI-compatible endpoint instead of
// api.openai.com, e.g. "http://localhost:11434/v1" for Ollama.
func WithBaseURL(baseURL string) Option {
	return func(s *sdkCompleter) {
		s.baseURL = baseURL
	}
}

// New creates a Client for the given API key, model, and temperature.
// An empty model name falls back to DefaultModel.
func New(apiKey, modelName string, temperature float64, opts ...Option) *Client {
	if modelName == "" {
		modelName = DefaultModel
	}

	s := &sdkCompleter{
		apiKey:      apiKey,
		modelName:   modelName,
		temperature: temperature,
	}
	for _, opt := range opts {
		opt(s)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if s.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(s.baseURL))
	}
	client := openai.NewClient(reqOpts...)
	s.client = &client

	return &Client{inner: s}
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

// sdkCompleter is the production completer backed by the official SDK.
type sdkCompleter struct {
	apiKey      string
	modelName   string
	temperature float64
	baseURL     string
	client      *openai.Client
}

func (s *sdkCompleter) complete(ctx context.Context, prompt string) (string, error) {
	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.modelName),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(prompt),
					},
				},
			},
		},
		Temperature: openai.Float(s.temperature),
	})
	if err != nil {
		return "", err
	}

	if len(completion.Choices) == 0 {
		return "", errors.New("no choices in completion response")
	}
	return completion.Choices[0].Message.Content, nil
}

// mapError converts SDK errors to model.GenError, distinguishing retryable
// transient failures from permanent ones.
func mapError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &model.GenError{
			Code:      model.CodeTimeout,
			Message:   "OpenAI API request timed out",
			Retryable: true,
			Cause:     err,
		}
	}

	lowerErr := strings.ToLower(err.Error())

	// Rate limit errors (retryable)
	if strings.Contains(lowerErr, "rate limit") ||
		strings.Contains(lowerErr, "429") ||
		strings.Contains(lowerErr, "too many requests") {
		return &model.GenError{
			Code:      model.CodeRateLimited,
			Message:   "OpenAI API rate limit exceeded",
			Retryable: true,
			Cause:     err,
		}
	}

	// Authentication errors (permanent)
	if strings.Contains(lowerErr, "invalid api key") ||
		strings.Contains(lowerErr, "incorrect api key") ||
		strings.Contains(lowerErr, "401") ||
		strings.Contains(lowerErr, "unauthorized") ||
		strings.Contains(lowerErr, "authentication") {
		return &model.GenError{
			Code:    model.CodeBadRequest,
			Message: "OpenAI API key is invalid or expired",
			Cause:   err,
		}
	}

	// Quota errors (permanent)
	if strings.Contains(lowerErr, "quota") ||
		strings.Contains(lowerErr, "billing") {
		return &model.GenError{
			Code:    model.CodeBadRequest,
			Message: "OpenAI API quota exceeded",
			Cause:   err,
		}
	}

	// Server errors (retryable)
	if strings.Contains(lowerErr, "500") ||
		strings.Contains(lowerErr, "502") ||
		strings.Contains(lowerErr, "503") ||
		strings.Contains(lowerErr, "504") ||
		strings.Contains(lowerErr, "internal server error") ||
		strings.Contains(lowerErr, "bad gateway") ||
		strings.Contains(lowerErr, "service unavailable") {
		return &model.GenError{
			Code:      model.CodeServerError,
			Message:   fmt.Sprintf("OpenAI API server error: %v", err),
			Retryable: true,
			Cause:     err,
		}
	}

	// Network errors (retryable)
	if strings.Contains(lowerErr, "connection") ||
		strings.Contains(lowerErr, "timeout") ||
		strings.Contains(lowerErr, "network") {
		return &model.GenError{
			Code:      model.CodeUnavailable,
			Message:   fmt.Sprintf("network error calling OpenAI API: %v", err),
			Retryable: true,
			Cause:     err,
		}
	}

	return &model.GenError{
		Code:    model.CodeAPIError,
		Message: fmt.Sprintf("OpenAI API error: %v", err),
		Cause:   err,
	}
}

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dshills/reviewflow/model"
)

func TestClient_Generate(t *testing.T) {
	var gotPath string
	var gotPayload map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"looks fine"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "llama2:latest", 0.3)
	out, err := c.Generate(context.Background(), "review this")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "looks fine" {
		t.Errorf("expected %q, got %q", "looks fine", out)
	}
	if gotPath != "/api/generate" {
		t.Errorf("expected POST to /api/generate, got %s", gotPath)
	}
	if gotPayload["model"] != "llama2:latest" {
		t.Errorf("unexpected model field: %v", gotPayload["model"])
	}
	if gotPayload["prompt"] != "review this" {
		t.Errorf("unexpected prompt field: %v", gotPayload["prompt"])
	}
	if gotPayload["temperature"] != 0.3 {
		t.Errorf("unexpected temperature field: %v", gotPayload["temperature"])
	}
	if _, ok := gotPayload["max_tokens"]; !ok {
		t.Error("expected max_tokens in payload")
	}
}

func TestClient_GenerateNDJSONStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{\"response\":\"part one \"}\n{\"response\":\"part two\"}\n{\"done\":true}\n"))
	}))
	defer srv.Close()

	c := New(srv.URL, "", 0)
	out, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "part one part two" {
		t.Errorf("expected concatenated stream, got %q", out)
	}
}

func TestClient_GenerateTextField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"alt field"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", 0)
	out, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "alt field" {
		t.Errorf("expected %q, got %q", "alt field", out)
	}
}

func TestClient_GenerateRawBodyFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain text answer"))
	}))
	defer srv.Close()

	c := New(srv.URL, "", 0)
	out, err := c.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "plain text answer" {
		t.Errorf("expected raw body fallback, got %q", out)
	}
}

func TestClient_StatusErrorMapping(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantCode      string
		wantRetryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, model.CodeRateLimited, true},
		{"server error", http.StatusInternalServerError, model.CodeServerError, true},
		{"bad gateway", http.StatusBadGateway, model.CodeServerError, true},
		{"not found", http.StatusNotFound, model.CodeBadRequest, false},
		{"bad request", http.StatusBadRequest, model.CodeBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("error detail"))
			}))
			defer srv.Close()

			c := New(srv.URL, "", 0)
			_, err := c.Generate(context.Background(), "prompt")

			var ge *model.GenError
			if !errors.As(err, &ge) {
				t.Fatalf("expected GenError, got %v", err)
			}
			if ge.Code != tt.wantCode {
				t.Errorf("expected code %q, got %q", tt.wantCode, ge.Code)
			}
			if ge.Retryable != tt.wantRetryable {
				t.Errorf("expected retryable=%v, got %v", tt.wantRetryable, ge.Retryable)
			}
		})
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	// Immediately closed server gives a guaranteed-dead address.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c := New(addr, "", 0)
	_, err := c.Generate(context.Background(), "prompt")

	var ge *model.GenError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GenError, got %v", err)
	}
	if ge.Code != model.CodeUnavailable {
		t.Errorf("expected code %q, got %q", model.CodeUnavailable, ge.Code)
	}
	if !ge.Retryable {
		t.Error("connection failures should be retryable")
	}
}

func TestClient_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := New(srv.URL, "", 0)
	_, err := c.Generate(ctx, "prompt")

	var ge *model.GenError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GenError, got %v", err)
	}
	if ge.Code != model.CodeTimeout {
		t.Errorf("expected code %q, got %q", model.CodeTimeout, ge.Code)
	}
	if !ge.Retryable {
		t.Error("attempt timeouts should be retryable")
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New("", "", 0.3)
	if c.host != DefaultHost {
		t.Errorf("expected default host %q, got %q", DefaultHost, c.host)
	}
	if c.model != DefaultModel {
		t.Errorf("expected default model %q, got %q", DefaultModel, c.model)
	}

	c = New("http://example.com/", "m", 0)
	if c.host != "http://example.com" {
		t.Errorf("expected trailing slash trimmed, got %q", c.host)
	}
}

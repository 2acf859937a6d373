// Command reviewd serves the code review pipeline over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshills/reviewflow/config"
	"github.com/dshills/reviewflow/emit"
	"github.com/dshills/reviewflow/model"
	"github.com/dshills/reviewflow/model/anthropic"
	"github.com/dshills/reviewflow/model/google"
	"github.com/dshills/reviewflow/model/ollama"
	"github.com/dshills/reviewflow/model/openai"
	"github.com/dshills/reviewflow/server"
	"github.com/dshills/reviewflow/workflow"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "reviewd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	emitter := emit.NewLogEmitter(os.Stdout, true)

	gen, err := buildGenerator(cfg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	metrics := workflow.NewMetrics(registry)

	pipeline, err := workflow.New(gen, emitter, metrics, workflow.Options{
		RequestTimeout:   cfg.RequestTimeout,
		MaxCodeBytes:     cfg.MaxCodeBytes,
		MalformedRetries: cfg.MalformedRetries,
	})
	if err != nil {
		return err
	}

	srv, err := server.New(pipeline, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), server.Options{
		AllowOrigin: cfg.AllowOrigin,
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()

	emitter.Emit(emit.Event{Msg: "listening", Meta: map[string]interface{}{
		"addr":     cfg.Addr,
		"provider": cfg.Provider,
		"model":    cfg.Model,
	}})

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildGenerator constructs the provider adapter and wraps it with the retry
// and concurrency-limit decorators.
func buildGenerator(cfg *config.Config) (model.Generator, error) {
	var base model.Generator

	switch cfg.Provider {
	case "ollama":
		base = ollama.New(cfg.OllamaHost, cfg.Model, cfg.Temperature)
	case "openai":
		var opts []openai.Option
		if cfg.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		base = openai.New(cfg.OpenAIAPIKey, cfg.Model, cfg.Temperature, opts...)
	case "anthropic":
		base = anthropic.New(cfg.AnthropicAPIKey, cfg.Model, cfg.Temperature)
	case "google":
		base = google.New(cfg.GoogleAPIKey, cfg.Model, cfg.Temperature)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	retrying, err := model.NewRetryGenerator(base, model.RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		AttemptTimeout: cfg.AttemptTimeout,
	})
	if err != nil {
		return nil, err
	}

	return model.NewLimitGenerator(retrying, cfg.MaxInflight)
}

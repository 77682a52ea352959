package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/prospect/config"
	"github.com/c360studio/prospect/enrich"
	"github.com/c360studio/prospect/events"
	"github.com/c360studio/prospect/llm"
	"github.com/c360studio/prospect/server"
)

// app holds the wired service: pipeline, HTTP server, and the optional
// event publisher.
type app struct {
	Config    *config.Config
	Pipeline  *enrich.Pipeline
	Server    *server.Server
	publisher *events.Publisher
	logger    *slog.Logger
}

// newApp loads configuration and wires the enrichment service.
func newApp(ctx context.Context, configPath string, logger *slog.Logger) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	mode, err := enrich.ParseMode(cfg.Enrich.Mode)
	if err != nil {
		return nil, err
	}

	fetcher := enrich.NewFetcher(enrich.FetcherConfig{
		Timeout:           cfg.GetFetchTimeout(),
		UserAgent:         cfg.Fetch.UserAgent,
		MaxContentSize:    cfg.Fetch.MaxContentSize,
		RateLimitRPS:      cfg.Fetch.RateLimitRPS,
		BlockPrivateHosts: cfg.Fetch.BlockPrivateHosts,
	}, logger)

	table, err := buildSignalTable(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	heuristic := enrich.NewHeuristic(table)

	orchestrator, err := buildOrchestrator(cfg, heuristic, mode, logger)
	if err != nil {
		return nil, err
	}

	pipeline := enrich.NewPipeline(enrich.PipelineOptions{
		Mode:         mode,
		Fetcher:      fetcher,
		Converter:    enrich.NewConverter(),
		Heuristic:    heuristic,
		Orchestrator: orchestrator,
		Logger:       logger,
	})

	var publisher *events.Publisher
	if cfg.Events.Enabled {
		publisher, err = events.Connect(cfg.Events.URL, cfg.Events.SubjectPrefix, logger)
		if err != nil {
			return nil, err
		}
	}

	// The nil check matters: a typed nil inside the interface would not
	// compare equal to nil in the server.
	var resultPublisher server.ResultPublisher
	if publisher != nil {
		resultPublisher = publisher
	}

	srv := server.New(pipeline, resultPublisher, logger, prometheus.DefaultRegisterer)

	return &app{
		Config:    cfg,
		Pipeline:  pipeline,
		Server:    srv,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// buildSignalTable loads the configured signal table, falling back to the
// built-in groups, and starts the file watcher when requested.
func buildSignalTable(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*enrich.SignalTable, error) {
	groups := enrich.DefaultSignalGroups()

	if cfg.Enrich.SignalTable != "" {
		loaded, err := enrich.LoadSignalGroups(cfg.Enrich.SignalTable)
		if err != nil {
			return nil, fmt.Errorf("load signal table: %w", err)
		}
		groups = loaded
	}

	table := enrich.NewSignalTable(groups)

	if cfg.Enrich.SignalTable != "" && cfg.Enrich.WatchSignalTable {
		if err := table.Watch(ctx, cfg.Enrich.SignalTable, logger); err != nil {
			return nil, fmt.Errorf("watch signal table: %w", err)
		}
	}

	return table, nil
}

// buildOrchestrator creates the AI enrichment path. In heuristic mode, or
// when no credential is configured in ai-optional mode, it returns nil and
// the pipeline serves heuristic results.
func buildOrchestrator(cfg *config.Config, heuristic *enrich.Heuristic, mode enrich.Mode, logger *slog.Logger) (*enrich.Orchestrator, error) {
	if mode == enrich.ModeHeuristic {
		return nil, nil
	}

	client := llm.NewClient(llm.EndpointConfig{
		Provider: cfg.Model.Provider,
		URL:      cfg.Model.Endpoint,
		Model:    cfg.Model.Name,
		APIKey:   cfg.Model.APIKey,
	},
		llm.WithHTTPClient(&http.Client{Timeout: cfg.GetModelTimeout()}),
		llm.WithLogger(logger),
	)

	if !client.HasCredential() {
		// The pipeline turns the missing orchestrator into a per-request
		// error in ai-required mode, so the server still starts.
		if mode == enrich.ModeAIRequired {
			logger.Error("AI enrichment is required but no completion API key is configured")
		} else {
			logger.Warn("No completion API key configured, serving heuristic results")
		}
		return nil, nil
	}

	return enrich.NewOrchestrator(client, heuristic, logger), nil
}

// Serve runs the HTTP server until ctx is cancelled, then shuts down
// gracefully.
func (a *app) Serve(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              a.Config.Server.Addr,
		Handler:           a.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Prospect ready", "version", Version, "addr", a.Config.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.GetShutdownTimeout())
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases long-lived resources.
func (a *app) Close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
}

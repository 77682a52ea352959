package main

import (
	"log/slog"
	"testing"

	"github.com/c360studio/prospect/config"
	"github.com/c360studio/prospect/enrich"
)

func TestSetupLoggingLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "unknown"} {
		if logger := setupLogging(level); logger == nil {
			t.Errorf("setupLogging(%q) returned nil", level)
		}
	}
}

func TestBuildOrchestratorHeuristicMode(t *testing.T) {
	cfg := config.DefaultConfig()

	o, err := buildOrchestrator(cfg, enrich.NewHeuristic(nil), enrich.ModeHeuristic, slog.Default())
	if err != nil {
		t.Fatalf("buildOrchestrator: %v", err)
	}
	if o != nil {
		t.Error("heuristic mode must not build an orchestrator")
	}
}

func TestBuildOrchestratorWithoutCredential(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Model.APIKey = ""

	// ai-optional quietly degrades; ai-required degrades per request, so both
	// come back nil without an error.
	for _, mode := range []enrich.Mode{enrich.ModeAIOptional, enrich.ModeAIRequired} {
		o, err := buildOrchestrator(cfg, enrich.NewHeuristic(nil), mode, slog.Default())
		if err != nil {
			t.Fatalf("mode %s: %v", mode, err)
		}
		if o != nil {
			t.Errorf("mode %s: expected nil orchestrator without a credential", mode)
		}
	}
}

func TestBuildOrchestratorWithCredential(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Model.APIKey = "sk-test"

	o, err := buildOrchestrator(cfg, enrich.NewHeuristic(nil), enrich.ModeAIOptional, slog.Default())
	if err != nil {
		t.Fatalf("buildOrchestrator: %v", err)
	}
	if o == nil {
		t.Error("expected an orchestrator when a credential is configured")
	}
}

func TestRootCmdHasSubcommands(t *testing.T) {
	cmd := rootCmd()

	want := map[string]bool{"serve": false, "enrich": false, "version": false}
	for _, sub := range cmd.Commands() {
		name := sub.Name()
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing %q subcommand", name)
		}
	}
}

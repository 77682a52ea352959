package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/c360studio/prospect/enrich/weburl"
)

func heuristicPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return NewPipeline(PipelineOptions{
		Mode:      ModeHeuristic,
		Fetcher:   NewFetcher(FetcherConfig{Timeout: 2 * time.Second}, nil),
		Converter: NewConverter(),
	})
}

func TestPipelineGuardErrors(t *testing.T) {
	p := heuristicPipeline(t)

	tests := []struct {
		name    string
		website string
		wantErr error
	}{
		{"blank", "", weburl.ErrWebsiteRequired},
		{"whitespace", "   ", weburl.ErrWebsiteRequired},
		{"garbage", "not a url", weburl.ErrInvalidURL},
		{"ftp scheme", "ftp://example.com", weburl.ErrUnsupportedScheme},
		{"scheme relative", "//example.com", weburl.ErrUnsupportedScheme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Run(context.Background(), tt.website)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Run(%q) error = %v, want %v", tt.website, err, tt.wantErr)
			}
		})
	}
}

func TestPipelineAIRequiredWithoutOrchestrator(t *testing.T) {
	p := NewPipeline(PipelineOptions{
		Mode:    ModeAIRequired,
		Fetcher: NewFetcher(FetcherConfig{Timeout: time.Second}, nil),
	})

	_, err := p.Run(context.Background(), "https://example.com")
	if !errors.Is(err, ErrMissingCredential) {
		t.Errorf("error = %v, want ErrMissingCredential", err)
	}
}

func TestPipelineHeuristicEndToEnd(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head>
			<title>Acme Pay</title>
			<meta name="description" content="Payments for developers">
		</head><body><p>Build payment APIs with our SDK.</p></body></html>`)
	}))
	defer ts.Close()

	p := heuristicPipeline(t)
	result, err := p.Run(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.HasPrefix(result.Summary, "Payments for developers") {
		t.Errorf("Summary = %q", result.Summary)
	}
	if result.Metadata.Title != "Acme Pay" {
		t.Errorf("Metadata.Title = %q", result.Metadata.Title)
	}
	if result.Metadata.Description != "Payments for developers" {
		t.Errorf("Metadata.Description = %q", result.Metadata.Description)
	}
	if len(result.Sources) == 0 {
		t.Fatal("Sources must never be empty")
	}
	if len(result.Signals) == 0 || result.Signals[0] != signalFetchOK {
		t.Errorf("Signals = %v", result.Signals)
	}
}

func TestPipelineFetchFailureStillSucceeds(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // force a connection error

	p := heuristicPipeline(t)
	result, err := p.Run(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("fetch failures must not fail the pipeline: %v", err)
	}

	if result.Metadata.Title != "Unavailable" || result.Metadata.Description != "Unavailable" {
		t.Errorf("Metadata = %+v, want Unavailable sentinels", result.Metadata)
	}
	if len(result.Signals) == 0 || !strings.HasPrefix(result.Signals[0], "Website content fetch failed") {
		t.Errorf("Signals = %v, want fetch warning first", result.Signals)
	}
	if result.Summary == "" {
		t.Error("Summary must be present even without page content")
	}
}

func TestPipelineNon2xxStillSucceeds(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	p := heuristicPipeline(t)
	result, err := p.Run(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := "Website content fetch failed with status 503."
	if !containsString(result.Signals, want) {
		t.Errorf("Signals = %v, want %q present", result.Signals, want)
	}
}

func TestPipelineAIOptionalUsesOrchestrator(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Acme</title></head><body><p>copy</p></body></html>`)
	}))
	defer ts.Close()

	client := &fakeCompletionClient{content: `{"summary": "Model summary.", "whatTheyDo": ["x"], "keywords": ["k"], "signals": ["s"], "sources": []}`}
	p := NewPipeline(PipelineOptions{
		Mode:         ModeAIOptional,
		Fetcher:      NewFetcher(FetcherConfig{Timeout: 2 * time.Second}, nil),
		Converter:    NewConverter(),
		Orchestrator: NewOrchestrator(client, NewHeuristic(nil), nil),
	})

	result, err := p.Run(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Summary != "Model summary." {
		t.Errorf("Summary = %q, want the model output", result.Summary)
	}
}

func TestPipelineHeuristicModeIgnoresOrchestrator(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><meta name="description" content="Heuristic wins"></head></html>`)
	}))
	defer ts.Close()

	client := &fakeCompletionClient{content: `{"summary": "Model summary.", "whatTheyDo": [], "keywords": [], "signals": [], "sources": []}`}
	p := NewPipeline(PipelineOptions{
		Mode:         ModeHeuristic,
		Fetcher:      NewFetcher(FetcherConfig{Timeout: 2 * time.Second}, nil),
		Orchestrator: NewOrchestrator(client, NewHeuristic(nil), nil),
	})

	result, err := p.Run(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(result.Summary, "Heuristic wins") {
		t.Errorf("Summary = %q, want heuristic output in heuristic mode", result.Summary)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"heuristic", ModeHeuristic, false},
		{"ai-optional", ModeAIOptional, false},
		{"ai-required", ModeAIRequired, false},
		{"", ModeAIOptional, false},
		{"turbo", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

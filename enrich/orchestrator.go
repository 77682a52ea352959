package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/c360studio/prospect/llm"
)

// Fixed signal strings for the AI fallback path.
const (
	signalAIUnavailable = "AI enrichment is temporarily unavailable."
	signalAIRetry       = "Retry later for an AI-generated brief."
)

// CompletionClient is the completion dependency of the orchestrator.
// *llm.Client satisfies it; tests inject fakes.
type CompletionClient interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Orchestrator produces an AI-assisted research brief. Model output is
// treated as untrusted input: it is schema-checked, sanitized per field, and
// defaulted before it reaches a Result. Any failure at any stage degrades to
// the heuristic engine's output. Once metadata extraction has succeeded, the
// AI layer can never fail a request.
type Orchestrator struct {
	client    CompletionClient
	heuristic *Heuristic
	logger    *slog.Logger
}

// NewOrchestrator creates an AI enrichment orchestrator with the given
// completion client and heuristic fallback engine.
func NewOrchestrator(client CompletionClient, heuristic *Heuristic, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		client:    client,
		heuristic: heuristic,
		logger:    logger,
	}
}

// Enrich runs the AI path and falls back to the heuristic engine on any
// failure.
func (o *Orchestrator) Enrich(ctx context.Context, u *url.URL, outcome FetchOutcome, meta PageMetadata) Result {
	result, err := o.generate(ctx, u, outcome, meta)
	if err != nil {
		o.logger.Warn("AI enrichment failed, using heuristic fallback",
			"url", u.String(),
			"error", err)
		return o.fallback(u, meta, outcome.Warning)
	}
	return result
}

// generate builds the prompt, calls the completion service, and validates
// the structured output.
func (o *Orchestrator) generate(ctx context.Context, u *url.URL, outcome FetchOutcome, meta PageMetadata) (Result, error) {
	temp := 0.3 // Low temperature for consistent extraction
	resp, err := o.client.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: briefSystemPrompt},
			{Role: "user", Content: o.buildUserPrompt(u, outcome, meta)},
		},
		Temperature: &temp,
		MaxTokens:   1024,
	})
	if err != nil {
		return Result{}, fmt.Errorf("completion request: %w", err)
	}

	jsonStr := llm.ExtractJSON(resp.Content)
	if jsonStr == "" {
		return Result{}, fmt.Errorf("no JSON found in model response")
	}

	var payload briefPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return Result{}, fmt.Errorf("invalid JSON in model response: %w", err)
	}

	result := Result{
		Summary:    sanitizeString(string(payload.Summary)),
		WhatTheyDo: sanitizeList(payload.WhatTheyDo, maxWhatTheyDo),
		Keywords:   sanitizeList(payload.Keywords, maxKeywords),
		Signals:    sanitizeList(payload.Signals, maxSignals),
		Sources:    sanitizeList(payload.Sources, maxSources),
	}

	if result.Summary == "" {
		result.Summary = o.heuristic.Enrich(u, meta, outcome.Warning).Summary
	}

	if len(result.Sources) == 0 {
		result.Sources = []string{u.String()}
	}

	// The caller must always see fetch degradation, even when the model
	// succeeded.
	if outcome.Warning != "" {
		result.Signals = sanitizeList(append([]string{outcome.Warning}, result.Signals...), maxSignals)
	}

	o.logger.Debug("AI enrichment succeeded",
		"url", u.String(),
		"request_id", resp.RequestID,
		"model", resp.Model)

	return result, nil
}

// fallback returns the heuristic result augmented with the fixed AI-outage
// signals.
func (o *Orchestrator) fallback(u *url.URL, meta PageMetadata, fetchWarning string) Result {
	result := o.heuristic.Enrich(u, meta, fetchWarning)

	fetchNotice := signalFetchOK
	if fetchWarning != "" {
		fetchNotice = fetchWarning
	}

	result.Signals = sanitizeList(
		append([]string{fetchNotice, signalAIUnavailable, signalAIRetry}, result.Signals...),
		maxSignals)

	return result
}

// buildUserPrompt fills the prompt template with the page context: URL,
// title, description, fetch status, and a bounded slice of page content.
func (o *Orchestrator) buildUserPrompt(u *url.URL, outcome FetchOutcome, meta PageMetadata) string {
	title := meta.Title
	if title == "" {
		title = "(none)"
	}

	description := meta.Description
	if description == "" {
		description = "(none)"
	}

	fetchStatus := "fetched successfully"
	if outcome.Warning != "" {
		fetchStatus = outcome.Warning
	}

	content := "No HTML captured from the website."
	if outcome.HTML != "" {
		content = truncateRunes(outcome.HTML, maxPromptHTMLChars)
	}
	if meta.Markdown != "" {
		content += "\n\nMarkdown rendition of main content:\n" + truncateRunes(meta.Markdown, maxPromptMarkdownChars)
	}

	return fmt.Sprintf(briefUserPrompt, u.String(), title, description, fetchStatus, content)
}

// briefPayload is the expected shape of the model's JSON output. Field types
// are deliberately loose; the model does not get to dictate our types.
type briefPayload struct {
	Summary    flexString  `json:"summary"`
	WhatTheyDo flexStrings `json:"whatTheyDo"`
	Keywords   flexStrings `json:"keywords"`
	Signals    flexStrings `json:"signals"`
	Sources    flexStrings `json:"sources"`
}

// flexString accepts a string or a scalar that can be rendered as one.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.(type) {
	case map[string]any, []any:
		return fmt.Errorf("expected scalar, got %T", v)
	case nil:
		*f = ""
	default:
		*f = flexString(fmt.Sprint(v))
	}
	return nil
}

// flexStrings accepts an array of scalars, or a single string, coercing
// every element to a string. Blank entries are dropped later by the
// sanitizer.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var items []any
	if err := json.Unmarshal(data, &items); err == nil {
		out := make([]string, 0, len(items))
		for _, item := range items {
			switch item.(type) {
			case map[string]any, []any, nil:
				continue
			default:
				out = append(out, fmt.Sprint(item))
			}
		}
		*f = out
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = []string{s}
		return nil
	}

	return fmt.Errorf("expected array or string")
}

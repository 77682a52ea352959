// Package enrich implements the company website enrichment pipeline: guarded
// URL input, bounded-time fetch, defensive HTML metadata extraction, a
// deterministic heuristic enrichment engine, and an AI-assisted path that
// degrades to the heuristic engine on any failure.
package enrich

import "fmt"

// Mode selects how enrichment results are produced.
type Mode string

const (
	// ModeHeuristic disables the AI path entirely.
	ModeHeuristic Mode = "heuristic"
	// ModeAIOptional uses the AI path when a credential is configured and
	// silently falls back to the heuristic engine otherwise.
	ModeAIOptional Mode = "ai-optional"
	// ModeAIRequired makes a missing completion credential a fatal
	// configuration error.
	ModeAIRequired Mode = "ai-required"
)

// ParseMode validates a mode string from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeHeuristic, ModeAIOptional, ModeAIRequired:
		return Mode(s), nil
	case "":
		return ModeAIOptional, nil
	default:
		return "", fmt.Errorf("unknown enrichment mode %q", s)
	}
}

// FetchOutcome is the result of the website fetch step. The fetch never fails
// the pipeline: any network error, non-2xx status, or timeout yields empty
// HTML and a human-readable warning instead of an error.
type FetchOutcome struct {
	HTML    string
	Warning string
}

// PageMetadata holds what could be extracted from the fetched markup. All
// fields default to the empty string when absent, never to a nil sentinel.
type PageMetadata struct {
	Title       string
	Description string
	VisibleText string

	// Markdown is a markdown rendition of the page's main content, used as
	// additional context for the AI path. Empty when conversion failed or no
	// HTML was captured.
	Markdown string
}

// ResultMetadata echoes the raw extracted fields back to the caller, with an
// "Unavailable" sentinel substituted for empty values.
type ResultMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Result is the externally visible research brief. It is immutable once
// assembled and never retained server-side.
type Result struct {
	Summary    string         `json:"summary"`
	WhatTheyDo []string       `json:"whatTheyDo"`
	Keywords   []string       `json:"keywords"`
	Signals    []string       `json:"signals"`
	Sources    []string       `json:"sources"`
	Metadata   ResultMetadata `json:"metadata"`
}

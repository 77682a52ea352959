package enrich

import (
	"context"
	"errors"
	"log/slog"

	"github.com/c360studio/prospect/enrich/weburl"
)

// ErrMissingCredential is returned when the deployment mandates AI
// enrichment but no completion credential is configured. This is a
// server-side configuration error, not a user input error.
var ErrMissingCredential = errors.New("missing completion API key")

// metadataUnavailable is the sentinel substituted for empty metadata fields
// in the assembled result.
const metadataUnavailable = "Unavailable"

// PipelineOptions wires a Pipeline.
type PipelineOptions struct {
	Mode         Mode
	Fetcher      *Fetcher
	Converter    *Converter
	Heuristic    *Heuristic
	Orchestrator *Orchestrator // nil when the AI path is unavailable
	Logger       *slog.Logger
}

// Pipeline runs one enrichment request end to end: guard → fetch → extract →
// enrich → assemble. Each request is handled independently and statelessly;
// nothing is retained between calls.
type Pipeline struct {
	mode         Mode
	fetcher      *Fetcher
	converter    *Converter
	heuristic    *Heuristic
	orchestrator *Orchestrator
	logger       *slog.Logger
}

// NewPipeline creates an enrichment pipeline.
func NewPipeline(opts PipelineOptions) *Pipeline {
	if opts.Mode == "" {
		opts.Mode = ModeAIOptional
	}
	if opts.Heuristic == nil {
		opts.Heuristic = NewHeuristic(nil)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Pipeline{
		mode:         opts.Mode,
		fetcher:      opts.Fetcher,
		converter:    opts.Converter,
		heuristic:    opts.Heuristic,
		orchestrator: opts.Orchestrator,
		logger:       opts.Logger,
	}
}

// Run enriches one website. Guard failures return the weburl errors; a
// mandated-but-unconfigured AI path returns ErrMissingCredential. Every
// failure past the guard is absorbed into a degraded-but-present result.
func (p *Pipeline) Run(ctx context.Context, rawWebsite string) (Result, error) {
	u, err := weburl.ParseWebsite(rawWebsite)
	if err != nil {
		return Result{}, err
	}

	if p.mode == ModeAIRequired && p.orchestrator == nil {
		return Result{}, ErrMissingCredential
	}

	outcome := p.fetcher.Fetch(ctx, u)

	meta := Extract(outcome.HTML, u)
	if p.converter != nil && outcome.HTML != "" {
		meta.Markdown = p.converter.Convert(outcome.HTML)
		if meta.VisibleText == "" && meta.Markdown != "" {
			meta.VisibleText = sanitizeString(meta.Markdown)
		}
	}

	var result Result
	if p.mode != ModeHeuristic && p.orchestrator != nil {
		result = p.orchestrator.Enrich(ctx, u, outcome, meta)
	} else {
		result = p.heuristic.Enrich(u, meta, outcome.Warning)
	}

	return assemble(u.String(), meta, result), nil
}

// assemble fills sources and metadata defaults. No business logic beyond
// defaulting and shape normalization.
func assemble(originalURL string, meta PageMetadata, result Result) Result {
	if len(result.Sources) == 0 {
		result.Sources = []string{originalURL}
	}

	result.Metadata = ResultMetadata{
		Title:       orUnavailable(meta.Title),
		Description: orUnavailable(meta.Description),
	}

	return result
}

func orUnavailable(s string) string {
	if s == "" {
		return metadataUnavailable
	}
	return s
}

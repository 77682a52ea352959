package enrich

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/c360studio/prospect/enrich/weburl"
)

// Caps on list-valued result fields.
const (
	maxKeywords   = 5
	maxSignals    = 5
	maxWhatTheyDo = 5
	maxSources    = 5

	// whatTheyDoExcerptLen bounds the visible-text excerpt used when no meta
	// description exists.
	whatTheyDoExcerptLen = 180
)

// validationReminder is appended to every heuristic summary. Heuristic output
// is derived from a single page and should never be taken as verified.
const validationReminder = "Further validation is recommended from additional public sources."

// Fixed technical signal strings.
const (
	signalFetchOK      = "Website fetched successfully for enrichment."
	signalTitleOK      = "Title metadata is present."
	signalTitleMissing = "Title metadata is missing."
	signalDescOK       = "Meta description is present."
	signalDescMissing  = "Meta description is missing."
)

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9\s]+`)

// Heuristic is the deterministic enrichment engine. It derives a research
// brief purely from extracted page metadata, with no network access and no
// hidden randomness or time dependence. It serves as the mandatory fallback for
// the AI path.
type Heuristic struct {
	table *SignalTable
}

// NewHeuristic creates a heuristic engine backed by the given signal table.
func NewHeuristic(table *SignalTable) *Heuristic {
	if table == nil {
		table = NewSignalTable(nil)
	}
	return &Heuristic{table: table}
}

// Enrich produces summary, whatTheyDo, keywords, and signals from the page
// metadata. Sources and result metadata are filled by the assembler.
func (h *Heuristic) Enrich(u *url.URL, meta PageMetadata, fetchWarning string) Result {
	domain := weburl.DomainKeyword(u)
	labels, groupSignals := h.matchSignals(meta)

	return Result{
		Summary:    buildSummary(domain, meta),
		WhatTheyDo: buildWhatTheyDo(domain, meta),
		Keywords:   buildKeywords(domain, meta, labels),
		Signals:    buildSignals(fetchWarning, meta, groupSignals),
	}
}

// buildSummary prefers the meta description, then a title-based template,
// then a domain-only template.
func buildSummary(domain string, meta PageMetadata) string {
	switch {
	case meta.Description != "":
		return meta.Description + " " + validationReminder
	case meta.Title != "":
		return fmt.Sprintf("%s appears to be an active company website for %s. %s", meta.Title, domain, validationReminder)
	default:
		return fmt.Sprintf("%s appears to be an active company domain. %s", domain, validationReminder)
	}
}

// buildWhatTheyDo prefers the description verbatim, then a visible-text
// excerpt, then a templated diligence list for metadata-free pages.
func buildWhatTheyDo(domain string, meta PageMetadata) []string {
	if meta.Description != "" {
		return []string{meta.Description}
	}

	if meta.VisibleText != "" {
		return []string{truncateRunes(meta.VisibleText, whatTheyDoExcerptLen)}
	}

	titleHint := "Website title is unavailable."
	if meta.Title != "" {
		titleHint = fmt.Sprintf("Website title suggests focus around: %s.", meta.Title)
	}

	return sanitizeList([]string{
		"Primary positioning could not be confirmed from website metadata.",
		titleHint,
		fmt.Sprintf("Operates under the %s brand/domain presence.", domain),
		"Requires manual validation of product, target users, and business model.",
	}, maxWhatTheyDo)
}

// buildKeywords tokenizes title+description, keeps tokens longer than three
// characters, prepends the domain keyword, appends matched group labels, and
// caps at five unique entries.
func buildKeywords(domain string, meta PageMetadata, labels []string) []string {
	words := tokenize(meta.Title + " " + meta.Description)

	candidates := make([]string, 0, len(words)+len(labels)+1)
	candidates = append(candidates, domain)
	for _, w := range words {
		if len(w) > 3 {
			candidates = append(candidates, w)
		}
	}
	candidates = append(candidates, labels...)

	keywords := sanitizeList(candidates, maxKeywords)
	if len(keywords) == 0 {
		keywords = sanitizeList([]string{domain, "startup", "company", "product", "market"}, maxKeywords)
	}

	return keywords
}

// buildSignals combines up to three technical signals with the matched group
// signals. Technical signals come first so fetch degradation is never pushed
// out by a keyword-rich page; the total is capped at five.
func buildSignals(fetchWarning string, meta PageMetadata, groupSignals []string) []string {
	fetchNotice := signalFetchOK
	if fetchWarning != "" {
		fetchNotice = fetchWarning
	}

	titleSignal := signalTitleMissing
	if meta.Title != "" {
		titleSignal = signalTitleOK
	}

	descSignal := signalDescMissing
	if meta.Description != "" {
		descSignal = signalDescOK
	}

	signals := []string{fetchNotice, titleSignal, descSignal}
	signals = append(signals, groupSignals...)

	return sanitizeList(signals, maxSignals)
}

// matchSignals scans the combined lowercased corpus against the signal table
// in group order. Keywords match as whole words only, so "ai" does not fire
// on "email". When nothing matches, the no-match pair is emitted.
func (h *Heuristic) matchSignals(meta PageMetadata) (labels, signals []string) {
	corpus := normalizeCorpus(meta.VisibleText + " " + meta.Title + " " + meta.Description)

	for _, group := range h.table.Groups() {
		for _, kw := range group.Keywords {
			if containsWord(corpus, kw) {
				labels = append(labels, group.Label)
				signals = append(signals, group.Signal)
				break
			}
		}
	}

	if len(signals) == 0 {
		labels = append(labels, NoMatchGroup.Label)
		signals = append(signals, NoMatchGroup.Signal)
	}

	return sanitizeList(labels, maxKeywords), sanitizeList(signals, maxSignals)
}

// tokenize lowercases, strips non-alphanumeric characters, and splits on
// whitespace.
func tokenize(s string) []string {
	s = strings.ToLower(s)
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.Fields(s)
}

// normalizeCorpus renders text as a single space-joined token string for
// whole-word matching.
func normalizeCorpus(s string) string {
	return strings.Join(tokenize(s), " ")
}

// containsWord reports whether the normalized corpus contains the keyword as
// a whole word (or word sequence, for multi-word keywords).
func containsWord(corpus, keyword string) bool {
	kw := normalizeCorpus(keyword)
	if kw == "" {
		return false
	}
	return strings.Contains(" "+corpus+" ", " "+kw+" ")
}

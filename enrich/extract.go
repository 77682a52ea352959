package enrich

import (
	"net/url"
	"regexp"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Pre-compiled regexes for the fallback path when DOM parsing yields nothing
// useful. Case-insensitive, dot-matches-newline.
var (
	titleRe    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaNameRe = regexp.MustCompile(`(?is)<meta[^>]+name=["']description["'][^>]+content=["']([^"']*)["'][^>]*>`)
	metaRevRe  = regexp.MustCompile(`(?is)<meta[^>]+content=["']([^"']*)["'][^>]+name=["']description["'][^>]*>`)
	scriptRe   = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe    = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe      = regexp.MustCompile(`<[^>]*>`)
)

// skippedTextElements are element subtrees excluded from visible text.
var skippedTextElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
}

// Extract pulls title, meta description, and visible text out of raw markup.
// It is a pure, total function: malformed, truncated, or empty markup yields
// empty strings, never an error. pageURL is only used to help readability
// resolve relative references and may be nil.
func Extract(htmlContent string, pageURL *url.URL) PageMetadata {
	if strings.TrimSpace(htmlContent) == "" {
		return PageMetadata{}
	}

	doc, parseErr := html.Parse(strings.NewReader(htmlContent))

	meta := PageMetadata{}
	if parseErr == nil {
		meta.Title = sanitizeString(findTitle(doc))
		meta.Description = sanitizeString(findMetaDescription(doc))
		meta.VisibleText = sanitizeString(collectVisibleText(doc))
	}

	// html.Parse is extremely tolerant, but keep the regex path as a second
	// line of defense for inputs it mangles.
	if meta.Title == "" {
		if m := titleRe.FindStringSubmatch(htmlContent); len(m) > 1 {
			meta.Title = sanitizeString(m[1])
		}
	}
	if meta.Description == "" {
		if m := metaNameRe.FindStringSubmatch(htmlContent); len(m) > 1 {
			meta.Description = sanitizeString(m[1])
		} else if m := metaRevRe.FindStringSubmatch(htmlContent); len(m) > 1 {
			meta.Description = sanitizeString(m[1])
		}
	}
	if meta.VisibleText == "" {
		meta.VisibleText = sanitizeString(stripMarkup(htmlContent))
	}

	// Readability produces a much cleaner corpus than the raw text walk when
	// it can identify an article body; prefer it when it succeeds. It needs
	// the page URL to resolve relative references.
	if pageURL == nil {
		return meta
	}
	if article, err := readability.FromReader(strings.NewReader(htmlContent), pageURL); err == nil {
		if text := sanitizeString(article.TextContent); text != "" {
			meta.VisibleText = text
		}
		if meta.Title == "" {
			meta.Title = sanitizeString(article.Title)
		}
		if meta.Description == "" {
			meta.Description = sanitizeString(article.Excerpt)
		}
	}

	return meta
}

// findTitle returns the text of the first <title> element.
func findTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			title = sb.String()
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

// findMetaDescription returns the content of the first
// <meta name="description"> tag. Attribute order is irrelevant at the DOM
// level, so both orderings in the markup are accepted.
func findMetaDescription(doc *html.Node) string {
	var desc string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if desc != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			var name, content string
			for _, a := range n.Attr {
				switch strings.ToLower(a.Key) {
				case "name":
					name = strings.ToLower(a.Val)
				case "content":
					content = a.Val
				}
			}
			if name == "description" && content != "" {
				desc = content
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return desc
}

// collectVisibleText gathers text nodes, skipping script/style and other
// non-rendered subtrees.
func collectVisibleText(doc *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedTextElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}

// stripMarkup is the regex fallback: remove script and style subtrees, then
// all remaining tags.
func stripMarkup(content string) string {
	content = scriptRe.ReplaceAllString(content, " ")
	content = styleRe.ReplaceAllString(content, " ")
	return tagRe.ReplaceAllString(content, " ")
}

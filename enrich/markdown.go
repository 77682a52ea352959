package enrich

import (
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

var excessiveLinesRe = regexp.MustCompile(`\n{4,}`)

// chromeElements are structural elements stripped before conversion so the
// markdown reflects page content, not navigation chrome.
var chromeElements = []string{
	"nav", "header", "footer", "aside", "script", "style", "noscript",
	"iframe", "object", "embed", "form", "input", "button",
}

// chromeClasses mark wrapper divs that carry chrome by convention.
var chromeClasses = []string{
	"nav", "navbar", "navigation", "sidebar", "menu", "footer", "header",
	"ad", "advertisement", "social", "share", "cookie", "banner", "breadcrumb",
}

// Converter renders the main content of a company page as markdown. The
// output feeds the AI prompt as cleaner context than raw markup, and doubles
// as a fallback visible-text corpus.
type Converter struct {
	converter *md.Converter
}

// NewConverter creates an HTML to markdown converter.
func NewConverter() *Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &Converter{converter: converter}
}

// Convert transforms page markup into markdown. It returns an empty string
// rather than an error when nothing useful can be produced. Markdown is
// supplemental context, never load-bearing.
func (c *Converter) Convert(htmlContent string) string {
	if strings.TrimSpace(htmlContent) == "" {
		return ""
	}

	cleaned := extractMainContent(htmlContent)

	markdown, err := c.converter.ConvertString(cleaned)
	if err != nil {
		return ""
	}

	return cleanMarkdown(markdown)
}

// extractMainContent isolates the primary content area of the page.
func extractMainContent(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return stripMarkup(content)
	}

	// Prefer an explicit main-content landmark when the page has one.
	for _, selector := range []string{"main", "article", "[role=main]"} {
		if node := findElement(doc, selector); node != nil {
			return renderNode(node)
		}
	}

	removeElements(doc, chromeElements)
	removeByClass(doc, chromeClasses)

	if body := findElement(doc, "body"); body != nil {
		return renderNode(body)
	}

	return content
}

// findElement finds the first element matching a simple selector: either a
// tag name or an attribute selector like [role=main].
func findElement(n *html.Node, selector string) *html.Node {
	var result *html.Node
	var find func(*html.Node)
	find = func(node *html.Node) {
		if result != nil {
			return
		}
		if node.Type == html.ElementNode && matchesSelector(node, selector) {
			result = node
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(n)
	return result
}

func matchesSelector(n *html.Node, selector string) bool {
	if strings.HasPrefix(selector, "[") && strings.HasSuffix(selector, "]") {
		attr := strings.TrimSuffix(strings.TrimPrefix(selector, "["), "]")
		parts := strings.SplitN(attr, "=", 2)
		if len(parts) == 2 {
			for _, a := range n.Attr {
				if a.Key == parts[0] && a.Val == parts[1] {
					return true
				}
			}
		}
		return false
	}
	return n.Data == selector
}

// removeElements removes all elements with the given tag names.
func removeElements(n *html.Node, tags []string) {
	tagSet := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tagSet[tag] = true
	}

	var toRemove []*html.Node
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode && tagSet[node.Data] {
			toRemove = append(toRemove, node)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	for _, node := range toRemove {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

// removeByClass removes elements carrying any of the given class names.
func removeByClass(n *html.Node, classes []string) {
	classSet := make(map[string]bool, len(classes))
	for _, class := range classes {
		classSet[strings.ToLower(class)] = true
	}

	var toRemove []*html.Node
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.ElementNode {
			for _, a := range node.Attr {
				if a.Key == "class" {
					for _, c := range strings.Fields(strings.ToLower(a.Val)) {
						if classSet[c] {
							toRemove = append(toRemove, node)
							return
						}
					}
				}
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)

	for _, node := range toRemove {
		if node.Parent != nil {
			node.Parent.RemoveChild(node)
		}
	}
}

func renderNode(n *html.Node) string {
	var sb strings.Builder
	html.Render(&sb, n)
	return sb.String()
}

// cleanMarkdown collapses excessive blank lines and trims trailing spaces.
func cleanMarkdown(content string) string {
	content = excessiveLinesRe.ReplaceAllString(content, "\n\n\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

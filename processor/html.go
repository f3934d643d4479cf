package processor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/invlocale"
	"golang.org/x/net/html"
)

// noTranslateAttr marks an element whose subtree is left untouched.
const noTranslateAttr = "data-no-translate"

// HTMLProcessor extracts and applies translations to HTML fragments such as
// a listing's long description. Apply returns the fragment, not a full
// document.
type HTMLProcessor struct {
	ignoredTags map[string]bool
}

// NewHTMLProcessor creates a new HTML processor with default ignored tags.
func NewHTMLProcessor() *HTMLProcessor {
	return &HTMLProcessor{
		ignoredTags: invlocale.IgnoredTags,
	}
}

// NewHTMLProcessorWithIgnoredTags creates a new HTML processor with custom ignored tags.
func NewHTMLProcessorWithIgnoredTags(tags []string) *HTMLProcessor {
	ignored := make(map[string]bool)
	for _, tag := range tags {
		ignored[strings.ToLower(tag)] = true
	}
	return &HTMLProcessor{
		ignoredTags: ignored,
	}
}

// parsedHTML holds the parsed fragment between Extract and Apply.
type parsedHTML struct {
	doc *goquery.Document
}

// Extract parses the fragment and returns one node per distinct text.
func (p *HTMLProcessor) Extract(content string) (interface{}, []TextNode, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, nil, &invlocale.ProcessorError{
			Message:     "failed to parse HTML",
			Cause:       err,
			ContentType: p.ContentType(),
		}
	}

	var nodes []TextNode
	seen := make(map[string]bool)

	p.walk(doc, func(n *html.Node) {
		trimmed := strings.TrimSpace(n.Data)
		hash := invlocale.HashText(trimmed)
		if seen[hash] {
			return
		}
		seen[hash] = true
		nodes = append(nodes, TextNode{
			Text:     trimmed,
			Hash:     hash,
			NodeType: "html_text",
			Context:  buildContext(n),
		})
	})

	return &parsedHTML{doc: doc}, nodes, nil
}

// Apply writes translations into the text nodes and renders the fragment.
// Nodes without a translation keep their text.
func (p *HTMLProcessor) Apply(parsed interface{}, _ []TextNode, translations map[string]string) (string, error) {
	ph, ok := parsed.(*parsedHTML)
	if !ok {
		return "", &invlocale.ProcessorError{
			Message:     "invalid parsed content type",
			ContentType: p.ContentType(),
		}
	}

	p.walk(ph.doc, func(n *html.Node) {
		if translated, ok := translations[invlocale.HashText(n.Data)]; ok {
			n.Data = preserveWhitespace(n.Data, translated)
		}
	})

	out, err := ph.doc.Find("body").Html()
	if err != nil {
		return "", &invlocale.ProcessorError{
			Message:     "failed to serialize HTML",
			Cause:       err,
			ContentType: p.ContentType(),
		}
	}

	return out, nil
}

// ContentType returns "html".
func (p *HTMLProcessor) ContentType() string {
	return "html"
}

// walk calls fn for every non-blank text node outside ignored subtrees.
func (p *HTMLProcessor) walk(doc *goquery.Document, fn func(*html.Node)) {
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if p.ignoredTags[strings.ToLower(n.Data)] {
				return
			}
			for _, attr := range n.Attr {
				if attr.Key == noTranslateAttr {
					return
				}
			}
		}

		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			fn(n)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}

	for _, n := range doc.Nodes {
		visit(n)
	}
}

// buildContext creates a disambiguation hint from the enclosing elements.
func buildContext(n *html.Node) string {
	parent := n.Parent
	if parent == nil || parent.Type != html.ElementNode || parent.Data == "body" {
		return ""
	}

	var parts []string
	var class string
	for _, attr := range parent.Attr {
		if attr.Key == "class" {
			class = attr.Val
		}
	}
	if class != "" {
		parts = append(parts, fmt.Sprintf("in <%s class=%q>", parent.Data, class))
	} else {
		parts = append(parts, fmt.Sprintf("in <%s>", parent.Data))
	}

	var ancestors []string
	for a := parent.Parent; a != nil && len(ancestors) < 3; a = a.Parent {
		if a.Type == html.ElementNode && a.Data != "html" && a.Data != "body" {
			ancestors = append([]string{a.Data}, ancestors...)
		}
	}
	if len(ancestors) > 0 {
		parts = append(parts, "inside: "+strings.Join(ancestors, " > "))
	}

	return strings.Join(parts, " | ")
}

// preserveWhitespace keeps the original leading and trailing whitespace.
func preserveWhitespace(original, translated string) string {
	leadingLen := len(original) - len(strings.TrimLeft(original, " \t\n\r"))
	trailingLen := len(original) - len(strings.TrimRight(original, " \t\n\r"))
	if leadingLen == len(original) {
		return translated
	}
	return original[:leadingLen] + translated + original[len(original)-trailingLen:]
}

var _ ContentProcessor = (*HTMLProcessor)(nil)

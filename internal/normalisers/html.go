package normalisers

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLNormaliser extracts readable text from HTML pages. Block elements
// become paragraphs separated by blank lines; scripts, styles and page
// chrome (nav, header, footer, forms) are dropped.
type HTMLNormaliser struct{}

func (n *HTMLNormaliser) SupportedTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (n *HTMLNormaliser) Priority() int {
	return 50
}

var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Iframe:   true,
	atom.Svg:      true,
	atom.Nav:      true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.Aside:    true,
	atom.Form:     true,
	atom.Button:   true,
	atom.Head:     true,
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true, atom.Main: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Ul: true, atom.Ol: true, atom.Blockquote: true, atom.Pre: true,
	atom.Table: true, atom.Tr: true, atom.Dd: true, atom.Dt: true, atom.Br: true, atom.Hr: true,
}

// Normalise parses content and returns its text. Markup that fails to
// parse is returned with whitespace trimmed.
func (n *HTMLNormaliser) Normalise(content string, mimeType string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return strings.TrimSpace(content)
	}

	var (
		paragraphs []string
		current    strings.Builder
	)
	endParagraph := func() {
		if text := strings.Join(strings.Fields(current.String()), " "); text != "" {
			paragraphs = append(paragraphs, text)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.ElementNode:
			if skippedElements[node.DataAtom] {
				return
			}
			if blockElements[node.DataAtom] {
				endParagraph()
				defer endParagraph()
			} else if node.DataAtom == atom.Td || node.DataAtom == atom.Th {
				current.WriteByte(' ')
			}
		case html.TextNode:
			current.WriteString(node.Data)
		case html.CommentNode:
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	endParagraph()

	return strings.Join(paragraphs, "\n\n")
}

// HTMLTitle returns the document's <title>, or the first <h1> when the
// title is missing.
func HTMLTitle(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return ""
	}
	if t := firstText(doc, atom.Title); t != "" {
		return t
	}
	return firstText(doc, atom.H1)
}

func firstText(node *html.Node, a atom.Atom) string {
	if node.Type == html.ElementNode && node.DataAtom == a {
		return strings.Join(strings.Fields(textContent(node)), " ")
	}
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		if t := firstText(c, a); t != "" {
			return t
		}
	}
	return ""
}

func textContent(node *html.Node) string {
	if node.Type == html.TextNode {
		return node.Data
	}
	var b strings.Builder
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
		b.WriteByte(' ')
	}
	return b.String()
}

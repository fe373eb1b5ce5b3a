package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText strips markup from a search snippet or a whole page, decoding
// entities and collapsing whitespace. Text without markup passes through unchanged apart
// from whitespace.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}

	var buf strings.Builder
	writeVisibleText(&buf, doc)
	return collapseSpace(buf.String())
}

// writeVisibleText appends text nodes, skipping scripts and styles.
// Block elements are separated by a space so words do not run together.
func writeVisibleText(buf *strings.Builder, n *html.Node) {
	block := false
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "iframe", "template":
			return
		case "br", "p", "div", "li", "ul", "ol", "tr", "td", "th", "h1", "h2", "h3", "h4", "h5", "h6":
			block = true
			buf.WriteString(" ")
		}
	}

	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeVisibleText(buf, c)
	}

	if block {
		buf.WriteString(" ")
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

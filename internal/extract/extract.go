package extract

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	nethtml "golang.org/x/net/html"
)

// Document is a simplified representation of extracted page content.
type Document struct {
	Title string
	Text  string
}

// nonContent lists elements whose text never reaches the output.
const nonContent = "script, style, noscript, template, head, img, picture, iframe, svg, canvas, object, embed, " +
	"input, select, textarea, button, option"

// FromHTML converts an HTML document to plain text. Every block element
// becomes one line and list items become "* item" lines. Link, emphasis and
// table markup is dropped while its text is kept.
func FromHTML(input string) Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return Document{}
	}
	title := CleanTitle(doc.Find("title").First().Text())

	doc.Find(nonContent).Remove()
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	w := &lineWriter{}
	for _, n := range root.Nodes {
		w.walk(n)
	}
	return Document{Title: title, Text: w.text()}
}

// CleanTitle unescapes a page title and strips its line breaks.
func CleanTitle(s string) string {
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.TrimSpace(s)
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "dd": true,
	"details": true, "dialog": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hgroup": true, "hr": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "summary": true,
	"table": true, "tr": true, "ul": true, "caption": true, "body": true,
}

// lineWriter accumulates inline text and emits it one line per block.
type lineWriter struct {
	lines  []string
	cur    strings.Builder
	prefix string
}

func (w *lineWriter) walk(n *nethtml.Node) {
	switch n.Type {
	case nethtml.TextNode:
		w.cur.WriteString(n.Data)
		return
	case nethtml.ElementNode:
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.walk(c)
		}
		return
	}
	if isBoilerplateContainer(n) {
		return
	}
	name := strings.ToLower(n.Data)
	switch {
	case name == "br":
		w.flush()
		return
	case name == "li":
		w.flush()
		w.prefix = "* "
	case blockElements[name]:
		w.flush()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	switch {
	case name == "td" || name == "th":
		w.cur.WriteByte(' ')
	case name == "li":
		w.flush()
		w.prefix = ""
	case blockElements[name]:
		w.flush()
	}
}

func (w *lineWriter) flush() {
	line := collapseSpaces(strings.TrimSpace(w.cur.String()))
	w.cur.Reset()
	if line == "" {
		return
	}
	w.lines = append(w.lines, w.prefix+line)
	w.prefix = ""
}

func (w *lineWriter) text() string {
	w.flush()
	return strings.TrimSpace(html.UnescapeString(strings.Join(w.lines, "\n")))
}

// isBoilerplateContainer returns true if the element looks like a cookie/consent banner.
func isBoilerplateContainer(n *nethtml.Node) bool {
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "id" && key != "class" && key != "aria-label" && key != "role" {
			continue
		}
		val := strings.ToLower(attr.Val)
		if containsAny(val, []string{"cookie-banner", "cookiebar", "consent-banner", "consent-manager", "gdpr"}) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func collapseSpaces(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\u00a0' {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}

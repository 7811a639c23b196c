package content

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Iframe:   true,
	atom.Head:     true,
	atom.Button:   true,
	atom.Form:     true,
	atom.Nav:      true,
}

var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Aside: true, atom.Main: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Li: true, atom.Dl: true, atom.Dt: true, atom.Dd: true,
	atom.Table: true, atom.Tr: true, atom.Blockquote: true, atom.Pre: true, atom.Br: true,
	atom.Hr: true,
}

// VisibleText renders the text a reader would see under n: one line per
// block element, list items prefixed with "- ", inline whitespace collapsed.
// Headings therefore always start a line, which the segmenter relies on.
func VisibleText(n *html.Node) string {
	var w textWriter
	w.walk(n)
	return w.String()
}

type textWriter struct {
	lines []string
	cur   strings.Builder
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.write(n.Data)
		return
	case html.ElementNode:
		if skipped[n.DataAtom] || hidden(n) {
			return
		}
	case html.CommentNode, html.DoctypeNode:
		return
	}

	block := n.Type == html.ElementNode && blocks[n.DataAtom]
	if block {
		w.flush()
		if n.DataAtom == atom.Li {
			w.cur.WriteString("- ")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	if block {
		w.flush()
	}
}

func (w *textWriter) write(s string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if w.cur.Len() > 0 && s != "" {
			w.cur.WriteByte(' ')
		}
		return
	}
	cur := w.cur.String()
	if cur != "" && !strings.HasSuffix(cur, " ") && startsWithSpace(s) {
		w.cur.WriteByte(' ')
	}
	w.cur.WriteString(strings.Join(fields, " "))
	if endsWithSpace(s) {
		w.cur.WriteByte(' ')
	}
}

func (w *textWriter) flush() {
	line := strings.TrimSpace(w.cur.String())
	w.cur.Reset()
	if line == "" || line == "-" {
		return
	}
	w.lines = append(w.lines, line)
}

func (w *textWriter) String() string {
	w.flush()
	return strings.Join(w.lines, "\n")
}

func hidden(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if a.Val == "true" {
				return true
			}
		case "style":
			v := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
			if strings.Contains(v, "display:none") || strings.Contains(v, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func startsWithSpace(s string) bool {
	return s != "" && strings.TrimLeft(s[:1], " \t\r\n\f") == ""
}

func endsWithSpace(s string) bool {
	return s != "" && strings.TrimRight(s[len(s)-1:], " \t\r\n\f") == ""
}

package doctree

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML document the viewer renders and searches.
type Document struct {
	Title string     // Document title (from <title> or filename)
	Root  *html.Node // Document node returned by html.Parse
	Body  *html.Node // <body> element; searches are scoped to it
}

// Parse reads an HTML document. Fragments are accepted; html.Parse always
// synthesizes the html/head/body skeleton.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	doc := &Document{Root: root, Body: FindElement(root, atom.Body)}
	if doc.Body == nil {
		return nil, fmt.Errorf("parse html: no body element")
	}
	if t := FindElement(root, atom.Title); t != nil {
		doc.Title = strings.TrimSpace(TextContent(t))
	}
	return doc, nil
}

// ParseString is Parse for in-memory markup.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// New builds an empty document with the given title.
func New(title string) *Document {
	doc, _ := ParseString("<!DOCTYPE html><html><head></head><body></body></html>")
	doc.SetTitle(title)
	return doc
}

// SetTitle updates Title and the <title> element, creating it if needed.
func (d *Document) SetTitle(title string) {
	d.Title = title
	t := FindElement(d.Root, atom.Title)
	if t == nil {
		if title == "" {
			return
		}
		head := FindElement(d.Root, atom.Head)
		if head == nil {
			return
		}
		t = Element(atom.Title)
		head.AppendChild(t)
	}
	for c := t.FirstChild; c != nil; c = t.FirstChild {
		t.RemoveChild(c)
	}
	if title != "" {
		t.AppendChild(Text(title))
	}
}

// Render serializes the whole document.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.Root)
}

// BodyHTML returns the serialized children of <body> (its innerHTML).
func (d *Document) BodyHTML() (string, error) {
	var buf bytes.Buffer
	for c := d.Body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render body: %w", err)
		}
	}
	return buf.String(), nil
}

// FlatText is the concatenated data of every text node under the body.
func (d *Document) FlatText() string {
	return FlatText(d.Body)
}

// Element creates a detached element node.
func Element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

// Text creates a detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// FindElement returns the first element with the given atom in document order.
func FindElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FindElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// TextNodes returns every text node beneath n in depth-first document order.
func TextNodes(n *html.Node) []*html.Node {
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			nodes = append(nodes, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return nodes
}

// TextContent concatenates the text nodes beneath n without trimming.
func TextContent(n *html.Node) string {
	var buf strings.Builder
	for _, t := range TextNodes(n) {
		buf.WriteString(t.Data)
	}
	return buf.String()
}

// FlatText is TextContent under another name; it is the view flat
// character offsets refer to.
func FlatText(n *html.Node) string {
	return TextContent(n)
}

// RuneLen is the length of a text node in flat-view characters.
func RuneLen(n *html.Node) int {
	return utf8.RuneCountInString(n.Data)
}

// Locate maps a flat character offset to the text node containing it and the
// offset inside that node. A node owns offsets from its start up to, but not
// including, its end, so boundary offsets belong to the following node.
func Locate(root *html.Node, position int) (*html.Node, int, bool) {
	if position < 0 {
		return nil, 0, false
	}
	total := 0
	for _, t := range TextNodes(root) {
		l := RuneLen(t)
		if total+l > position {
			return t, position - total, true
		}
		total += l
	}
	return nil, 0, false
}

// Attr returns the value of attribute key on n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces attribute key on n.
func SetAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether n carries class name.
func HasClass(n *html.Node, name string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	v, _ := Attr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == name {
			return true
		}
	}
	return false
}

// ReplaceClass swaps class from for class to, keeping other classes in place.
// When from is absent, to is appended if not already present.
func ReplaceClass(n *html.Node, from, to string) {
	v, _ := Attr(n, "class")
	fields := strings.Fields(v)
	out := fields[:0]
	seen := false
	for _, c := range fields {
		if c == from {
			c = to
		}
		if c == to {
			if seen {
				continue
			}
			seen = true
		}
		out = append(out, c)
	}
	if !seen {
		out = append(out, to)
	}
	SetAttr(n, "class", strings.Join(out, " "))
}

// Normalize merges adjacent text node children of n and drops empty ones.
// It does not recurse.
func Normalize(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type != html.TextNode {
			c = next
			continue
		}
		for next != nil && next.Type == html.TextNode {
			c.Data += next.Data
			after := next.NextSibling
			n.RemoveChild(next)
			next = after
		}
		if c.Data == "" {
			n.RemoveChild(c)
		}
		c = next
	}
}

// IsRawText reports whether text under n is not rendered as document text
// (script bodies, stylesheets and similar).
func IsRawText(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		switch p.DataAtom {
		case atom.Script, atom.Style, atom.Textarea, atom.Title, atom.Noscript, atom.Template:
			return true
		}
	}
	return false
}

// Package codewrap reformats documents whose body is really source code.
package codewrap

import (
	"strings"

	"github.com/dgallion1/docmark/internal/doctree"
	"golang.org/x/net/html/atom"
)

// SourcePrefixes are the leading tokens that mark a body as source code:
// a block comment, a package clause or an import.
var SourcePrefixes = []string{"/*", "package", "import"}

// LooksLikeSource reports whether the body text starts like a source file.
func LooksLikeSource(doc *doctree.Document) bool {
	text := strings.TrimSpace(doc.FlatText())
	for _, p := range SourcePrefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}

// Apply moves every child of the body into a single <pre> element when the
// body looks like source code. It reports whether it rewrote the document.
// It must run once, right after the document is loaded.
func Apply(doc *doctree.Document) bool {
	if !LooksLikeSource(doc) {
		return false
	}
	pre := doctree.Element(atom.Pre)
	for c := doc.Body.FirstChild; c != nil; {
		next := c.NextSibling
		doc.Body.RemoveChild(c)
		pre.AppendChild(c)
		c = next
	}
	doc.Body.AppendChild(pre)
	return true
}

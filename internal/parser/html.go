package parser

import (
	"fmt"
	"io"

	"github.com/dgallion1/docmark/internal/doctree"
	"golang.org/x/net/html/charset"
)

// HTMLParser handles HTML files. The document is kept as authored, decoded
// to UTF-8 from whatever charset it declares.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	utf8, err := charset.NewReader(r, "text/html")
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	doc, err := doctree.Parse(utf8)
	if err != nil {
		return nil, err
	}
	if doc.Title == "" {
		doc.Title = titleFromFilename(filename, ".html", ".htm")
	}
	return doc, nil
}

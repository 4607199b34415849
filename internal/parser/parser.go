package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docmark/internal/doctree"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Parser converts raw document bytes into a viewable HTML document.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// Options tunes parser behavior.
type Options struct {
	PDFFallbackPdftotext bool
}

// sourceExtensions are code files shown verbatim.
var sourceExtensions = map[string]bool{
	".java":       true,
	".go":         true,
	".js":         true,
	".css":        true,
	".xml":        true,
	".json":       true,
	".properties": true,
	".kt":         true,
	".py":         true,
	".c":          true,
	".h":          true,
	".mf":         true,
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	}
	if sourceExtensions[ext] {
		return &SourceParser{}, nil
	}
	return nil, fmt.Errorf("unsupported file extension: %s", ext)
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext] || sourceExtensions[ext]
}

// ContentType is the MIME type recorded for an uploaded file.
func ContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".html", ".htm":
		return "text/html"
	case ".md", ".markdown":
		return "text/markdown"
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "text/plain"
}

func titleFromFilename(filename string, exts ...string) string {
	for _, ext := range exts {
		if strings.HasSuffix(filename, ext) {
			return strings.TrimSuffix(filename, ext)
		}
	}
	return filename
}

// appendBlock adds <tag>text</tag> to the body, skipping blank text.
func appendBlock(doc *doctree.Document, a atom.Atom, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	el := doctree.Element(a)
	el.AppendChild(doctree.Text(text))
	doc.Body.AppendChild(el)
}

func headingAtom(level int) atom.Atom {
	switch level {
	case 1:
		return atom.H1
	case 2:
		return atom.H2
	case 3:
		return atom.H3
	case 4:
		return atom.H4
	case 5:
		return atom.H5
	}
	return atom.H6
}

// decodeText strips a UTF-8 byte order mark and converts UTF-16 input with a
// BOM to UTF-8. Input without a BOM passes through unchanged.
func decodeText(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(encoding.Nop.NewDecoder()))
}

package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/docmark/internal/doctree"
	"golang.org/x/net/html"
)

// blocks returns the tag and text of each element child of the body.
func blocks(doc *doctree.Document) [][2]string {
	var out [][2]string
	for c := doc.Body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, [2]string{c.Data, doctree.TextContent(c)})
		}
	}
	return out
}

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	got := blocks(doc)
	if len(got) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(got))
	}

	want := []string{
		"First paragraph line one.\nFirst paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	for i, w := range want {
		if got[i][0] != "p" {
			t.Errorf("block[%d]: expected <p>, got <%s>", i, got[i][0])
		}
		if got[i][1] != w {
			t.Errorf("block[%d]: expected %q, got %q", i, w, got[i][1])
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", doc.Title)
	}
	if doc.Body.FirstChild != nil {
		t.Errorf("expected empty body for empty input")
	}
}

func TestTextParser_EscapesMarkup(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader("a <b>not bold</b> & more"), "markup.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := doc.FlatText(); got != "a <b>not bold</b> & more" {
		t.Errorf("expected literal text, got %q", got)
	}
	body, err := doc.BodyHTML()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "<p>a &lt;b&gt;not bold&lt;/b&gt; &amp; more</p>" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestTextParser_MultipleBlankLines(t *testing.T) {
	// Multiple consecutive blank lines should not produce empty paragraphs.
	input := "Para one.\n\n\n\nPara two."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := blocks(doc); len(got) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(got))
	}
}

func TestTextParser_WhitespaceOnlyLines(t *testing.T) {
	// Lines with only whitespace should be treated as blank.
	input := "Para one.\n   \nPara two."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := blocks(doc); len(got) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(got))
	}
}

func TestSourceParser_Verbatim(t *testing.T) {
	src := "package demo;\n\nclass A { int x = 1 < 2 ? 1 : 0; }\n"
	p := &SourceParser{}
	doc, err := p.Parse(strings.NewReader(src), "A.java")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.FlatText() != src {
		t.Errorf("expected verbatim text, got %q", doc.FlatText())
	}
	if doc.Title != "A.java" {
		t.Errorf("expected title %q, got %q", "A.java", doc.Title)
	}
}

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.txt", "*parser.TextParser"},
		{"a.MD", "*parser.MarkdownParser"},
		{"a.csv", "*parser.CSVParser"},
		{"a.htm", "*parser.HTMLParser"},
		{"a.pdf", "*parser.PDFParser"},
		{"a.docx", "*parser.DOCXParser"},
		{"Main.java", "*parser.SourceParser"},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.filename, Options{})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.filename, err)
		}
		if got := typeName(p); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.filename, tt.want, got)
		}
	}

	if _, err := ForFile("a.exe", Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if IsSupportedExtension("archive.zip") {
		t.Error("zip should not be supported")
	}
	if !IsSupportedExtension("Main.JAVA") {
		t.Error("java sources should be supported")
	}
}

func typeName(p Parser) string {
	switch p.(type) {
	case *TextParser:
		return "*parser.TextParser"
	case *MarkdownParser:
		return "*parser.MarkdownParser"
	case *CSVParser:
		return "*parser.CSVParser"
	case *HTMLParser:
		return "*parser.HTMLParser"
	case *PDFParser:
		return "*parser.PDFParser"
	case *DOCXParser:
		return "*parser.DOCXParser"
	case *SourceParser:
		return "*parser.SourceParser"
	}
	return "unknown"
}

func TestTextParser_StripsByteOrderMark(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader("\xef\xbb\xbfhello"), "bom.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := doc.FlatText(); got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}
}

func TestSourceParser_DecodesUTF16(t *testing.T) {
	// "go" as UTF-16LE with a byte order mark.
	input := "\xff\xfeg\x00o\x00"
	p := &SourceParser{}
	doc, err := p.Parse(strings.NewReader(input), "main.go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := doc.FlatText(); got != "go" {
		t.Errorf("expected %q, got %q", "go", got)
	}
}

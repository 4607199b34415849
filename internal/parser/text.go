package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docmark/internal/doctree"
	"golang.org/x/net/html/atom"
)

// TextParser handles plain text files. Blank-line separated paragraphs
// become <p> elements; line breaks inside a paragraph are kept.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	scanner := bufio.NewScanner(decodeText(r))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	doc := doctree.New(titleFromFilename(filename, ".txt"))
	for _, para := range paragraphs {
		appendBlock(doc, atom.P, para)
	}
	return doc, nil
}

// SourceParser loads a code file as one text node so the body's flat text is
// the file verbatim.
type SourceParser struct{}

func (p *SourceParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(decodeText(r))
	if err != nil {
		return nil, err
	}
	doc := doctree.New(filename)
	if len(src) > 0 {
		doc.Body.AppendChild(doctree.Text(string(src)))
	}
	return doc, nil
}

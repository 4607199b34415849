package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/docmark/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CSVParser handles CSV files. The first record becomes the table header.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(decodeText(r))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := doctree.New(titleFromFilename(filename, ".csv"))
	if len(records) == 0 {
		return doc, nil
	}

	table := doctree.Element(atom.Table)
	thead := doctree.Element(atom.Thead)
	thead.AppendChild(row(atom.Th, records[0]))
	table.AppendChild(thead)

	tbody := doctree.Element(atom.Tbody)
	for _, rec := range records[1:] {
		tbody.AppendChild(row(atom.Td, rec))
	}
	table.AppendChild(tbody)
	doc.Body.AppendChild(table)
	return doc, nil
}

func row(cell atom.Atom, fields []string) *html.Node {
	tr := doctree.Element(atom.Tr)
	for _, f := range fields {
		c := doctree.Element(cell)
		if f != "" {
			c.AppendChild(doctree.Text(f))
		}
		tr.AppendChild(c)
	}
	return tr
}

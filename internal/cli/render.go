package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/dgallion1/docmark/internal/doctree"
	"github.com/dgallion1/docmark/internal/highlight"
	"github.com/spf13/cobra"
	"golang.org/x/net/html/atom"
)

// highlightCSS styles the wrappers in a rendered copy.
var highlightCSS = fmt.Sprintf(
	".%s{background:#fff176}.%s{background:#ff9800}",
	highlight.ClassHighlight, highlight.ClassCurrent,
)

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var (
		output string
		sel    int
	)
	cmd := &cobra.Command{
		Use:   "render <query> <file>",
		Short: "Write a highlighted HTML copy of a document",
		Example: `  # Highlight every "error" and mark the second one current
  docmark render error server.log.txt --select 2 -o out.html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFile(args[1], opts.library())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}

			n, err := renderHighlighted(w, f.doc, args[0], sel, opts.caseSensitive)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d matches\n", f.path, n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().IntVar(&sel, "select", 0, "Mark the n-th match (1-based) as current")
	return cmd
}

// renderHighlighted highlights query in doc, optionally selects one match and
// writes the full document with a stylesheet for the wrappers.
func renderHighlighted(w io.Writer, doc *doctree.Document, query string, sel int, caseSensitive bool) (int, error) {
	e := highlight.New(doc.Body, highlight.WithCaseSensitive(caseSensitive))
	e.HighlightText(query)
	if sel > 0 {
		e.SelectIndex(sel - 1)
	}

	if head := doctree.FindElement(doc.Root, atom.Head); head != nil {
		style := doctree.Element(atom.Style)
		style.AppendChild(doctree.Text(highlightCSS))
		head.AppendChild(style)
	}
	if err := doc.Render(w); err != nil {
		return 0, err
	}
	return e.Len(), nil
}

// Package cli is the docmark command line: search local files and render
// highlighted copies without running the server.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/docmark/internal/library"
	"github.com/dgallion1/docmark/internal/parser"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	caseSensitive bool
	codeWrap      bool
	noColor       bool
}

// NewRootCmd builds the command tree. Tests build a fresh one per case.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "docmark",
		Short: "Find and highlight text in documents",
		Long: `docmark loads text, markdown, CSV, HTML, PDF, DOCX and source files,
finds every literal occurrence of a query in the rendered text and marks
each one with a highlight span.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().BoolVarP(&opts.caseSensitive, "case-sensitive", "c", false, "Match case exactly")
	root.PersistentFlags().BoolVar(&opts.codeWrap, "code-wrap", true, "Wrap source-looking documents in <pre>")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", !isatty.IsTerminal(os.Stdout.Fd()), "Disable colored output")

	root.AddCommand(newSearchCmd(opts), newRenderCmd(opts))
	return root
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), color.RedString("error:"), err)
		return err
	}
	return nil
}

func (o *rootOptions) library() library.Options {
	return library.Options{
		CodeWrap:             o.codeWrap,
		CaseSensitiveDefault: o.caseSensitive,
		Parser:               parser.Options{PDFFallbackPdftotext: true},
	}
}

func loadFile(path string, opts library.Options) (*loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, wrapped, err := library.Load(filepath.Base(path), "", data, opts)
	if err != nil {
		return nil, err
	}
	return &loaded{path: path, doc: doc, wrapped: wrapped}, nil
}

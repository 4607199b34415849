package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dgallion1/docmark/internal/doctree"
	"github.com/dgallion1/docmark/internal/highlight"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/text/message"
)

type loaded struct {
	path    string
	doc     *doctree.Document
	wrapped bool
}

var (
	pathColor  = color.New(color.FgCyan, color.Bold).SprintFunc()
	matchColor = color.New(color.FgYellow, color.Bold).SprintFunc()
	dimColor   = color.New(color.Faint).SprintFunc()
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var contextRunes int
	cmd := &cobra.Command{
		Use:   "search <query> <file|glob>...",
		Short: "List every occurrence of a query in one or more documents",
		Long: `Search loads each file the way the server would, highlights every literal
occurrence of the query and prints one line per match with its text offset.
Glob patterns support ** for recursive matching.`,
		Example: `  # Search one file
  docmark search "release notes" CHANGELOG.md

  # Search all markdown under docs, case sensitive
  docmark search -c TODO 'docs/**/*.md'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandPaths(args[1:])
			if err != nil {
				return err
			}
			return runSearch(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], paths, contextRunes, opts)
		},
	}
	cmd.Flags().IntVarP(&contextRunes, "context", "C", 20, "Characters of context around each match")
	return cmd
}

func runSearch(out, errOut io.Writer, query string, paths []string, contextRunes int, opts *rootOptions) error {
	printer := message.NewPrinter(message.MatchLanguage("en"))
	total, files, failed := 0, 0, 0

	for _, path := range paths {
		f, err := loadFile(path, opts.library())
		if err != nil {
			fmt.Fprintf(errOut, "%s: %v\n", path, err)
			failed++
			continue
		}
		e := highlight.New(f.doc.Body, highlight.WithCaseSensitive(opts.caseSensitive))
		e.HighlightText(query)
		matches := e.Matches()
		if len(matches) == 0 {
			continue
		}
		files++
		total += len(matches)

		fmt.Fprintln(out, pathColor(path))
		flat := []rune(f.doc.FlatText())
		for _, m := range matches {
			fmt.Fprintf(out, "  %s %s\n", dimColor(fmt.Sprintf("%d:", m.Start)), snippet(flat, m, contextRunes))
		}
	}

	printer.Fprintf(out, "%d matches in %d files\n", total, files)
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be loaded", failed, len(paths))
	}
	return nil
}

// snippet renders the match with up to n runes of context on each side,
// folded onto one line.
func snippet(flat []rune, m highlight.Match, n int) string {
	before := fold(string(flat[max(m.Start-n, 0):m.Start]), false)
	after := fold(string(flat[m.End:min(m.End+n, len(flat))]), true)
	return before + matchColor(m.Text) + after
}

// fold collapses whitespace runs to single spaces. The space touching the
// match side is kept so words stay apart from it.
func fold(s string, leading bool) string {
	f := strings.Join(strings.Fields(s), " ")
	if f == "" {
		return ""
	}
	if leading && strings.TrimLeft(s, " \t\r\n") != s {
		return " " + f
	}
	if !leading && strings.TrimRight(s, " \t\r\n") != s {
		return f + " "
	}
	return f
}

// expandPaths resolves glob arguments. Plain paths pass through so a missing
// file is reported when it is loaded.
func expandPaths(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			if !seen[arg] {
				seen[arg] = true
				out = append(out, arg)
			}
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no files matched")
	}
	return out, nil
}

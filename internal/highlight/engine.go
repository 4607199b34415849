// Package highlight finds literal occurrences of a query in an HTML tree,
// wraps each in a highlight span and tracks which one is current.
package highlight

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docmark/internal/doctree"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Wrapper classes. A wrapper carries exactly one of them.
const (
	ClassHighlight = "highlight"
	ClassCurrent   = "current-highlight"
)

// MatchAttr numbers each wrapper in document order so clients can find it.
const MatchAttr = "data-match"

// Match is one highlighted occurrence, in flat-text character offsets.
type Match struct {
	Index int    `json:"index"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithScroller sets the host scroll primitive. The default discards requests.
func WithScroller(s Scroller) Option {
	return func(e *Engine) { e.scroller = s }
}

// WithCaseSensitive switches matching from case-insensitive to exact.
func WithCaseSensitive(on bool) Option {
	return func(e *Engine) { e.caseSensitive = on }
}

// Engine highlights matches inside one document body. It is not safe for
// concurrent use.
type Engine struct {
	body          *html.Node
	scroller      Scroller
	caseSensitive bool

	query    string
	wrappers []*html.Node
	matches  []Match
	index    map[*html.Node]int
	current  int // index into wrappers, -1 when nothing is current
}

// New returns an engine bound to body.
func New(body *html.Node, opts ...Option) *Engine {
	e := &Engine{
		body:     body,
		scroller: noopScroller{},
		index:    make(map[*html.Node]int),
		current:  -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetCaseSensitive changes the case mode used by the next HighlightText.
func (e *Engine) SetCaseSensitive(on bool) { e.caseSensitive = on }

// CaseSensitive reports the current case mode.
func (e *Engine) CaseSensitive() bool { return e.caseSensitive }

// Query returns the query of the last HighlightText, or "" after a clear.
func (e *Engine) Query() string { return e.query }

// Len returns the number of highlighted occurrences.
func (e *Engine) Len() int { return len(e.wrappers) }

// Matches returns the highlighted occurrences in document order.
func (e *Engine) Matches() []Match {
	out := make([]Match, len(e.matches))
	copy(out, e.matches)
	return out
}

// Current returns the index of the current occurrence, or -1.
func (e *Engine) Current() int { return e.current }

// HighlightText wraps every occurrence of query in a highlight span. The
// query is matched literally. An empty query does nothing.
func (e *Engine) HighlightText(query string) {
	if query == "" {
		return
	}
	e.ClearHighlights()

	pattern := regexp.QuoteMeta(query)
	if !e.caseSensitive {
		pattern = "(?i)" + pattern
	}
	re := regexp.MustCompile(pattern)

	offset := 0
	for _, t := range doctree.TextNodes(e.body) {
		runes := doctree.RuneLen(t)
		if !doctree.IsRawText(t) {
			if locs := re.FindAllStringIndex(t.Data, -1); len(locs) > 0 {
				e.splice(t, locs, offset)
			}
		}
		offset += runes
	}
	e.query = query
}

// splice replaces text node t with alternating plain text and wrapper nodes.
// locs are byte ranges into t.Data; base is t's flat-view start offset.
func (e *Engine) splice(t *html.Node, locs [][]int, base int) {
	parent := t.Parent
	data := t.Data
	prev := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if start > prev {
			parent.InsertBefore(doctree.Text(data[prev:start]), t)
		}
		w := e.newWrapper(data[start:end])
		parent.InsertBefore(w, t)

		flatStart := base + utf8.RuneCountInString(data[:start])
		e.matches = append(e.matches, Match{
			Index: len(e.wrappers) - 1,
			Start: flatStart,
			End:   flatStart + utf8.RuneCountInString(data[start:end]),
			Text:  data[start:end],
		})
		prev = end
	}
	if prev < len(data) {
		parent.InsertBefore(doctree.Text(data[prev:]), t)
	}
	parent.RemoveChild(t)
}

func (e *Engine) newWrapper(text string) *html.Node {
	k := len(e.wrappers)
	w := doctree.Element(atom.Span,
		html.Attribute{Key: "class", Val: ClassHighlight},
		html.Attribute{Key: MatchAttr, Val: strconv.Itoa(k)},
	)
	w.AppendChild(doctree.Text(text))
	e.wrappers = append(e.wrappers, w)
	e.index[w] = k
	return w
}

// ClearHighlights unwraps every wrapper back to plain text and merges the
// text nodes around it. Calling it with nothing highlighted is a no-op.
func (e *Engine) ClearHighlights() {
	parents := make(map[*html.Node]struct{})
	var order []*html.Node
	for _, w := range e.wrappers {
		parent := w.Parent
		if parent == nil {
			continue
		}
		parent.InsertBefore(doctree.Text(doctree.TextContent(w)), w)
		parent.RemoveChild(w)
		if _, ok := parents[parent]; !ok {
			parents[parent] = struct{}{}
			order = append(order, parent)
		}
	}
	for _, p := range order {
		doctree.Normalize(p)
	}

	e.query = ""
	e.wrappers = nil
	e.matches = nil
	e.index = make(map[*html.Node]int)
	e.current = -1
}

// ClearSelection demotes the current wrapper to a plain highlight.
func (e *Engine) ClearSelection() {
	if e.current < 0 {
		return
	}
	doctree.ReplaceClass(e.wrappers[e.current], ClassCurrent, ClassHighlight)
	e.current = -1
}

// SelectMatch makes the occurrence covering the flat-text offset position
// current and asks the scroller to bring it into view. When query is not
// empty the occurrence's text must equal it under the engine's case mode.
// Every failure is silent and leaves the previous selection untouched.
func (e *Engine) SelectMatch(position int, query string) {
	target, _, ok := doctree.Locate(e.body, position)
	if !ok {
		return
	}

	k, ok := e.enclosingWrapper(target)
	if !ok {
		return
	}
	w := e.wrappers[k]
	if query != "" && !e.sameText(doctree.TextContent(w), query) {
		return
	}

	e.ClearSelection()
	doctree.ReplaceClass(w, ClassHighlight, ClassCurrent)
	e.current = k
	e.scroller.ScrollIntoView(w, DefaultScroll)
}

// SelectIndex is SelectMatch addressed by match index instead of offset.
func (e *Engine) SelectIndex(k int) {
	if k < 0 || k >= len(e.matches) {
		return
	}
	e.SelectMatch(e.matches[k].Start, "")
}

// enclosingWrapper walks up from n to the nearest wrapper this engine owns.
func (e *Engine) enclosingWrapper(n *html.Node) (int, bool) {
	for p := n.Parent; p != nil && p != e.body.Parent; p = p.Parent {
		if k, ok := e.index[p]; ok {
			return k, true
		}
	}
	return 0, false
}

func (e *Engine) sameText(a, b string) bool {
	if e.caseSensitive {
		return a == b
	}
	return strings.EqualFold(a, b)
}

package highlight

import "golang.org/x/net/html"

// ScrollOptions mirrors the arguments of a browser scrollIntoView call.
type ScrollOptions struct {
	Behavior string `json:"behavior"` // "smooth" or "auto"
	Block    string `json:"block"`    // "start", "center", "end" or "nearest"
}

// DefaultScroll is what SelectMatch requests: smooth, centered in the viewport.
var DefaultScroll = ScrollOptions{Behavior: "smooth", Block: "center"}

// Scroller is the host primitive that brings a node into view. Requests are
// fire-and-forget; the engine never waits on them.
type Scroller interface {
	ScrollIntoView(n *html.Node, opts ScrollOptions)
}

// ScrollFunc adapts a function to Scroller.
type ScrollFunc func(n *html.Node, opts ScrollOptions)

func (f ScrollFunc) ScrollIntoView(n *html.Node, opts ScrollOptions) { f(n, opts) }

type noopScroller struct{}

func (noopScroller) ScrollIntoView(*html.Node, ScrollOptions) {}

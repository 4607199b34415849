// Package session runs a highlight engine per open document and keeps the
// search panel state (query, case flag, match counter) next to it.
package session

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dgallion1/docmark/internal/doctree"
	"github.com/dgallion1/docmark/internal/highlight"
	"golang.org/x/net/html"
)

// ScrollRequest is the last scroll the engine asked for. Clients apply it
// with element.scrollIntoView on [data-match="Match"].
type ScrollRequest struct {
	Seq      int    `json:"seq"`
	Match    int    `json:"match"`
	Behavior string `json:"behavior"`
	Block    string `json:"block"`
}

// Session is one viewer over one document.
type Session struct {
	mu sync.Mutex

	ID    string
	DocID string
	Title string

	doc    *doctree.Document
	engine *highlight.Engine
	scroll *ScrollRequest
	seq    int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot is a JSON-safe copy of session state.
type Snapshot struct {
	ID            string            `json:"session_id"`
	DocID         string            `json:"doc_id"`
	Title         string            `json:"title"`
	Query         string            `json:"query"`
	CaseSensitive bool              `json:"case_sensitive"`
	Count         int               `json:"count"`
	Current       int               `json:"current"`
	Counter       string            `json:"counter"`
	Matches       []highlight.Match `json:"matches"`
	Scroll        *ScrollRequest    `json:"scroll,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// New opens a session over doc.
func New(docID string, doc *doctree.Document, caseSensitive bool) *Session {
	now := time.Now()
	s := &Session{
		ID:        newID(),
		DocID:     docID,
		Title:     doc.Title,
		doc:       doc,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.engine = highlight.New(doc.Body,
		highlight.WithScroller(highlight.ScrollFunc(s.recordScroll)),
		highlight.WithCaseSensitive(caseSensitive),
	)
	return s
}

// recordScroll runs under s.mu, from inside an engine call.
func (s *Session) recordScroll(n *html.Node, opts highlight.ScrollOptions) {
	v, _ := doctree.Attr(n, highlight.MatchAttr)
	k, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	s.seq++
	s.scroll = &ScrollRequest{Seq: s.seq, Match: k, Behavior: opts.Behavior, Block: opts.Block}
}

// Search highlights query and selects the first occurrence. Repeating the
// last search with the same case flag advances to the next occurrence
// instead. An empty query clears all highlights.
func (s *Session) Search(query string, caseSensitive bool) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case query == "":
		s.engine.ClearHighlights()
	case query == s.engine.Query() && caseSensitive == s.engine.CaseSensitive() && s.engine.Len() > 0:
		s.step(1)
	default:
		s.engine.SetCaseSensitive(caseSensitive)
		s.engine.HighlightText(query)
		s.engine.SelectIndex(0)
	}
	return s.touch()
}

// Next selects the following occurrence, wrapping to the first.
func (s *Session) Next() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step(1)
	return s.touch()
}

// Prev selects the preceding occurrence, wrapping to the last.
func (s *Session) Prev() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step(-1)
	return s.touch()
}

func (s *Session) step(dir int) {
	n := s.engine.Len()
	if n == 0 {
		return
	}
	cur := s.engine.Current()
	var k int
	switch {
	case cur < 0 && dir > 0:
		k = 0
	case cur < 0:
		k = n - 1
	default:
		k = (cur + dir + n) % n
	}
	s.engine.SelectIndex(k)
}

// Select promotes the occurrence at a flat-text position.
func (s *Session) Select(position int, query string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SelectMatch(position, query)
	return s.touch()
}

// ClearSelection demotes the current occurrence.
func (s *Session) ClearSelection() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.ClearSelection()
	return s.touch()
}

// ClearHighlights removes every highlight.
func (s *Session) ClearHighlights() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.ClearHighlights()
	return s.touch()
}

// Snapshot returns the current state without changing it.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Markup renders the body as it currently stands, wrappers included.
func (s *Session) Markup() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.BodyHTML()
}

// LastActive reports when the session was last used.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UpdatedAt
}

func (s *Session) touch() Snapshot {
	s.UpdatedAt = time.Now()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	n := s.engine.Len()
	cur := s.engine.Current()
	snap := Snapshot{
		ID:            s.ID,
		DocID:         s.DocID,
		Title:         s.Title,
		Query:         s.engine.Query(),
		CaseSensitive: s.engine.CaseSensitive(),
		Count:         n,
		Current:       cur,
		Counter:       fmt.Sprintf("%d/%d", cur+1, n),
		Matches:       s.engine.Matches(),
		UpdatedAt:     s.UpdatedAt,
	}
	if s.scroll != nil {
		sc := *s.scroll
		snap.Scroll = &sc
	}
	return snap
}

// Package library imports uploaded files into viewable documents and opens
// viewer sessions on them.
package library

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/docmark/internal/codewrap"
	"github.com/dgallion1/docmark/internal/doctree"
	"github.com/dgallion1/docmark/internal/parser"
	"github.com/dgallion1/docmark/internal/session"
	"github.com/dgallion1/docmark/internal/store"
)

// Options controls import and session defaults.
type Options struct {
	CodeWrap             bool
	CaseSensitiveDefault bool
	Parser               parser.Options
}

// Library ties document storage to live viewer sessions.
type Library struct {
	store    *store.Store
	sessions *session.Registry
	log      *slog.Logger
	opts     Options
}

func New(st *store.Store, sessions *session.Registry, log *slog.Logger, opts Options) *Library {
	return &Library{store: st, sessions: sessions, log: log, opts: opts}
}

// Sessions exposes the registry for direct lookups by API handlers.
func (l *Library) Sessions() *session.Registry {
	return l.sessions
}

// Store exposes the document store for listing and reads.
func (l *Library) Store() *store.Store {
	return l.store
}

// Load parses data into a document, applying the title override and the
// load-time source heuristic once. It reports whether the body was wrapped.
func Load(filename, title string, data []byte, opts Options) (*doctree.Document, bool, error) {
	p, err := parser.ForFile(filename, opts.Parser)
	if err != nil {
		return nil, false, err
	}
	doc, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", filename, err)
	}
	if title != "" {
		doc.Title = title
	}
	doc.SetTitle(doc.Title)

	wrapped := false
	if opts.CodeWrap {
		wrapped = codewrap.Apply(doc)
	}
	return doc, wrapped, nil
}

// Import parses data, applies the load-time source heuristic once and
// stores the result. An empty docID is derived from the content hash.
func (l *Library) Import(ctx context.Context, filename, title, docID string, data []byte) (store.Document, error) {
	log := l.log.With("filename", filename)

	doc, wrapped, err := Load(filename, title, data, l.opts)
	if err != nil {
		log.Error("load failed", "error", err)
		return store.Document{}, err
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return store.Document{}, fmt.Errorf("render %s: %w", filename, err)
	}

	if docID == "" {
		docID = ContentHashHex(data)[:16]
	}
	rec := store.Document{
		ID:          docID,
		Filename:    filename,
		Title:       doc.Title,
		ContentType: parser.ContentType(filename),
		Markup:      buf.String(),
		CodeWrapped: wrapped,
		Size:        int64(len(data)),
		CreatedAt:   time.Now(),
	}
	if err := l.store.Put(ctx, rec); err != nil {
		return store.Document{}, err
	}
	log.Info("imported document", "doc_id", rec.ID, "code_wrapped", wrapped, "chars", len([]rune(doc.FlatText())))
	return rec, nil
}

// Open starts a viewer session on a stored document. Each session parses
// its own copy, so highlights in one never show up in another.
func (l *Library) Open(ctx context.Context, docID string, caseSensitive *bool) (*session.Session, error) {
	rec, err := l.store.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	doc, err := doctree.Parse(strings.NewReader(rec.Markup))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", docID, err)
	}
	if rec.Title != "" {
		doc.Title = rec.Title
	}

	cs := l.opts.CaseSensitiveDefault
	if caseSensitive != nil {
		cs = *caseSensitive
	}
	s := session.New(rec.ID, doc, cs)
	l.sessions.Put(s)
	l.log.Info("opened session", "session_id", s.ID, "doc_id", rec.ID)
	return s, nil
}

// Delete removes a stored document and closes its sessions.
func (l *Library) Delete(ctx context.Context, docID string) (int, error) {
	if err := l.store.Delete(ctx, docID); err != nil {
		return 0, err
	}
	return l.sessions.DeleteDoc(docID), nil
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

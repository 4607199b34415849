package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "docmark-test.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestStore_PutGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	doc := Document{
		ID:          "abc123",
		Filename:    "Main.java",
		Title:       "Main.java",
		ContentType: "text/plain",
		Markup:      "<!DOCTYPE html><html><head></head><body><pre>package x;</pre></body></html>",
		CodeWrapped: true,
		Size:        10,
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := s.Put(ctx, doc); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.CreatedAt.Equal(doc.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", doc.CreatedAt, got.CreatedAt)
	}
	got.CreatedAt = doc.CreatedAt
	if got != doc {
		t.Errorf("expected %+v, got %+v", doc, got)
	}
}

func TestStore_PutReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, Document{ID: "d1", Filename: "a.txt", Title: "a", ContentType: "text/plain", Markup: "one"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Put(ctx, Document{ID: "d1", Filename: "a.txt", Title: "a2", ContentType: "text/plain", Markup: "two"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "a2" || got.Markup != "two" {
		t.Errorf("expected replaced document, got %+v", got)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		err := s.Put(ctx, Document{
			ID: id, Filename: id + ".txt", Title: id, ContentType: "text/plain",
			Markup: "<p>" + id + "</p>", CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	docs, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	if docs[0].ID != "new" || docs[2].ID != "old" {
		t.Errorf("expected newest first, got %s..%s", docs[0].ID, docs[2].ID)
	}
	if docs[0].Markup != "" {
		t.Error("list should not load markup")
	}

	if err := s.Delete(ctx, "mid"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "mid"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	docs, err = s.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("expected 2 documents after delete, got %d", len(docs))
	}
	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("expected count=2, got %d", n)
	}
}

func TestStore_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if err := s.Put(context.Background(), Document{ID: "m", Filename: "m.txt", Title: "m", ContentType: "text/plain"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Get(context.Background(), "m"); err != nil {
		t.Errorf("get: %v", err)
	}
}

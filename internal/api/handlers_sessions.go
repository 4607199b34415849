package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dgallion1/docmark/internal/session"
	"github.com/go-chi/chi/v5"
)

// sessionOp runs one session operation and answers with the new state.
func (s *Server) sessionOp(op func(*session.Session, *http.Request) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.lookupSession(w, r)
		if !ok {
			return
		}
		if !op(sess, r) {
			jsonError(w, "invalid request body", http.StatusBadRequest)
			return
		}
		writeSession(w, http.StatusOK, sess)
	}
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.library.Sessions().Get(chi.URLParam(r, "sessionID"))
	if errors.Is(err, session.ErrNotFound) {
		jsonError(w, "session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

// writeSession answers with the session snapshot and current body markup.
func writeSession(w http.ResponseWriter, code int, sess *session.Session) {
	snap := sess.Snapshot()
	markup, err := sess.Markup()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, code, map[string]any{
		"session": snap,
		"markup":  markup,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeSession(w, http.StatusOK, sess)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.library.Sessions().Delete(id); err != nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": id, "closed": true})
}

type searchRequest struct {
	Query         string `json:"query"`
	CaseSensitive bool   `json:"case_sensitive"`
}

type selectRequest struct {
	Position *int   `json:"position"`
	Query    string `json:"query"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(func(sess *session.Session, r *http.Request) bool {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return false
		}
		start := time.Now()
		sess.Search(req.Query, req.CaseSensitive)
		s.search.Since(start)
		return true
	})(w, r)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(func(sess *session.Session, r *http.Request) bool {
		var req selectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Position == nil {
			return false
		}
		sess.Select(*req.Position, req.Query)
		return true
	})(w, r)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(func(sess *session.Session, _ *http.Request) bool {
		sess.Next()
		return true
	})(w, r)
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(func(sess *session.Session, _ *http.Request) bool {
		sess.Prev()
		return true
	})(w, r)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(func(sess *session.Session, _ *http.Request) bool {
		sess.ClearSelection()
		return true
	})(w, r)
}

func (s *Server) handleClearHighlights(w http.ResponseWriter, r *http.Request) {
	s.sessionOp(func(sess *session.Session, _ *http.Request) bool {
		sess.ClearHighlights()
		return true
	})(w, r)
}

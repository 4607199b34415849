package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docmark/internal/config"
	"github.com/dgallion1/docmark/internal/library"
	"github.com/dgallion1/docmark/internal/session"
	"github.com/dgallion1/docmark/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const testKey = "test-key"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		DocmarkAPIKey:  testKey,
		DBPath:         ":memory:",
		MaxUploadBytes: 1 << 20,
		SessionTTL:     time.Hour,
	}
	lib := library.New(st, session.NewRegistry(cfg.SessionTTL, log), log, library.Options{CodeWrap: true})
	return NewServer(lib, log, cfg)
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, s *Server, method, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader = http.NoBody
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return do(t, s, method, path, body, "application/json")
}

func upload(t *testing.T, s *Server, filename, content string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := do(t, s, http.MethodPost, "/api/documents/", &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Document store.Document `json:"document"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Document.ID
}

type sessionResponse struct {
	Session session.Snapshot `json:"session"`
	Markup  string           `json:"markup"`
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func openSession(t *testing.T, s *Server, docID string) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/documents/"+docID+"/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeSession(t, rec).Session.ID
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/documents/", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	s := newTestServer(t)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "image.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, mw.Close())

	rec := do(t, s, http.MethodPost, "/api/documents/", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file type")
}

func TestDocumentLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := upload(t, s, "notes.txt", "the cat sat on the mat")

	rec := doJSON(t, s, http.MethodGet, "/api/documents/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"notes.txt"`)

	rec = doJSON(t, s, http.MethodGet, "/api/documents/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "the cat sat on the mat")

	sid := openSession(t, s, id)

	rec = doJSON(t, s, http.MethodDelete, "/api/documents/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sessions_closed":1`)

	rec = doJSON(t, s, http.MethodGet, "/api/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(t, s, http.MethodGet, "/api/documents/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOpenSessionMissingDocument(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/api/documents/nope/sessions", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchNavigateAndClear(t *testing.T) {
	s := newTestServer(t)
	sid := openSession(t, s, upload(t, s, "notes.txt", "the cat sat on the mat"))
	base := "/api/sessions/" + sid

	rec := doJSON(t, s, http.MethodPost, base+"/search", searchRequest{Query: "AT"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeSession(t, rec)
	assert.Equal(t, 3, resp.Session.Count)
	assert.Equal(t, 0, resp.Session.Current)
	assert.Equal(t, "1/3", resp.Session.Counter)
	require.NotNil(t, resp.Session.Scroll)
	assert.Equal(t, 0, resp.Session.Scroll.Match)
	assert.Equal(t, 2, strings.Count(resp.Markup, `class="highlight"`))
	assert.Equal(t, 1, strings.Count(resp.Markup, `class="current-highlight"`))

	resp = decodeSession(t, doJSON(t, s, http.MethodPost, base+"/next", nil))
	assert.Equal(t, 1, resp.Session.Current)

	resp = decodeSession(t, doJSON(t, s, http.MethodPost, base+"/prev", nil))
	assert.Equal(t, 0, resp.Session.Current)

	// "sat" starts at 8; offset 9 falls inside its "at".
	pos := 9
	resp = decodeSession(t, doJSON(t, s, http.MethodPost, base+"/select", selectRequest{Position: &pos, Query: "at"}))
	assert.Equal(t, 1, resp.Session.Current)

	resp = decodeSession(t, doJSON(t, s, http.MethodDelete, base+"/selection", nil))
	assert.Equal(t, -1, resp.Session.Current)
	assert.Equal(t, 3, resp.Session.Count)
	assert.NotContains(t, resp.Markup, "current-highlight")
	assert.Equal(t, 3, strings.Count(resp.Markup, `class="highlight"`))

	resp = decodeSession(t, doJSON(t, s, http.MethodDelete, base+"/highlights", nil))
	assert.Equal(t, 0, resp.Session.Count)
	assert.Equal(t, "<p>the cat sat on the mat</p>", resp.Markup)
}

func TestSelectRequiresPosition(t *testing.T) {
	s := newTestServer(t)
	sid := openSession(t, s, upload(t, s, "notes.txt", "the cat sat"))

	rec := doJSON(t, s, http.MethodPost, "/api/sessions/"+sid+"/select", map[string]string{"query": "at"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionNotFound(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/sessions/missing", "/api/sessions/missing/next"} {
		method := http.MethodGet
		if strings.HasSuffix(path, "/next") {
			method = http.MethodPost
		}
		rec := doJSON(t, s, method, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	rec := doJSON(t, s, http.MethodDelete, "/api/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	s := newTestServer(t)
	sid := openSession(t, s, upload(t, s, "notes.txt", "the cat sat"))
	doJSON(t, s, http.MethodPost, "/api/sessions/"+sid+"/search", searchRequest{Query: "cat"})

	rec := doJSON(t, s, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Documents int `json:"documents"`
		Sessions  int `json:"sessions"`
		Search    struct {
			Count int `json:"count"`
		} `json:"search"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Documents)
	assert.Equal(t, 1, resp.Sessions)
	assert.Equal(t, 1, resp.Search.Count)
}

func TestUploadRateLimited(t *testing.T) {
	s := newTestServer(t)
	s.uploads = rate.NewLimiter(rate.Every(time.Hour), 1)
	s.setupRoutes()

	upload(t, s, "one.txt", "first")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "two.txt")
	require.NoError(t, err)
	_, _ = io.WriteString(fw, "second")
	require.NoError(t, mw.Close())

	rec := do(t, s, http.MethodPost, "/api/documents/", &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

package notes

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T, contents string) (http.Handler, *FileStore) {
	t.Helper()
	svc, store := newFileService(t, contents)
	h := NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Route("/api", h.Routes)
	return r, store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

type listedNote struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	CreateTime string `json:"create_time"`
	UpdateTime string `json:"update_time"`
}

func TestCreateAndListScenario(t *testing.T) {
	api, _ := newTestAPI(t, `{"notes": []}`)

	rec := do(t, api, http.MethodPost, "/api/notes", `{"title":"Test","content":"Body"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"笔记创建成功","noteId":1}`, rec.Body.String())

	rec = do(t, api, http.MethodGet, "/api/notes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	list := decode[[]listedNote](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].ID)
	assert.Equal(t, "Test", list[0].Title)
	assert.Equal(t, "Body", list[0].Content)
	assert.Equal(t, list[0].CreateTime, list[0].UpdateTime)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, list[0].CreateTime)
}

func TestListEmptyReturnsArray(t *testing.T) {
	api, _ := newTestAPI(t, `{"notes": []}`)

	rec := do(t, api, http.MethodGet, "/api/notes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateInvalidTitle(t *testing.T) {
	api, _ := newTestAPI(t, `{"notes": []}`)

	rec := do(t, api, http.MethodPost, "/api/notes", `{"title":"Hello@World","content":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, msgInvalidTitle, decode[messageResponse](t, rec).Message)

	rec = do(t, api, http.MethodPost, "/api/notes", `{"content":"missing title"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, api, http.MethodGet, "/api/notes", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestCreateMalformedBody(t *testing.T) {
	api, _ := newTestAPI(t, `{"notes": []}`)

	rec := do(t, api, http.MethodPost, "/api/notes", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.HasPrefix(decode[messageResponse](t, rec).Message, msgBadBody))
}

func TestUpdateAndDeleteNotFound(t *testing.T) {
	api, _ := newTestAPI(t, `{"notes": []}`)
	for _, title := range []string{"one", "two", "three"} {
		rec := do(t, api, http.MethodPost, "/api/notes", `{"title":"`+title+`","content":""}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	before := do(t, api, http.MethodGet, "/api/notes", "").Body.String()

	rec := do(t, api, http.MethodPut, "/api/notes/99999", `{"title":"x","content":"y"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgNotFound, decode[messageResponse](t, rec).Message)

	rec = do(t, api, http.MethodDelete, "/api/notes/99999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, api, http.MethodDelete, "/api/notes/abc", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, api, http.MethodGet, "/api/notes/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	after := do(t, api, http.MethodGet, "/api/notes", "").Body.String()
	assert.JSONEq(t, before, after)
}

func TestUpdateAndDelete(t *testing.T) {
	api, _ := newTestAPI(t, `{"notes": []}`)
	require.Equal(t, http.StatusOK, do(t, api, http.MethodPost, "/api/notes", `{"title":"one","content":"a"}`).Code)
	require.Equal(t, http.StatusOK, do(t, api, http.MethodPost, "/api/notes", `{"title":"two","content":"b"}`).Code)

	rec := do(t, api, http.MethodPut, "/api/notes/2", `{"title":"two!","content":"**bold**"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"笔记更新成功"}`, rec.Body.String())

	note := decode[listedNote](t, do(t, api, http.MethodGet, "/api/notes/2", ""))
	assert.Equal(t, "two!", note.Title)
	assert.Equal(t, "**bold**", note.Content)

	rec = do(t, api, http.MethodGet, "/api/notes/2/html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<strong>bold</strong>")

	rec = do(t, api, http.MethodPut, "/api/notes/2", `{"title":"bad/title","content":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, api, http.MethodDelete, "/api/notes/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"笔记删除成功"}`, rec.Body.String())

	list := decode[[]listedNote](t, do(t, api, http.MethodGet, "/api/notes", ""))
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].ID)

	assert.Equal(t, http.StatusNotFound, do(t, api, http.MethodDelete, "/api/notes/1", "").Code)
}

func TestStorageErrorIsServerError(t *testing.T) {
	api, store := newTestAPI(t, `{"notes": []}`)
	require.NoError(t, os.Remove(store.Path()))

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/notes", ""},
		{http.MethodPost, "/api/notes", `{"title":"ok","content":""}`},
		{http.MethodPut, "/api/notes/1", `{"title":"ok","content":""}`},
		{http.MethodDelete, "/api/notes/1", ""},
	} {
		rec := do(t, api, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, "%s %s", tc.method, tc.path)
		assert.True(t, strings.HasPrefix(decode[messageResponse](t, rec).Message, msgServerError))
	}
}

func TestNotesPage(t *testing.T) {
	svc, _ := newFileService(t, `{"notes": []}`)
	h := NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	seed(t, svc, "Markdown")
	_, err := svc.Update(t.Context(), 1, UpdateNoteInput{Title: "Markdown", Content: "# Heading"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.NotesPage(rec, httptest.NewRequest(http.MethodGet, "/ui", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<h1>Heading</h1>")
	assert.Contains(t, rec.Body.String(), `id="note-1"`)
}

package notes

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"notebook/views/models"
	"notebook/views/pages"
)

const (
	msgCreated      = "笔记创建成功"
	msgUpdated      = "笔记更新成功"
	msgDeleted      = "笔记删除成功"
	msgNotFound     = "笔记不存在"
	msgInvalidTitle = "标题格式错误：仅支持中文、字母、数字及常用标点（如.,!?）"
	msgBadBody      = "请求体格式错误："
	msgServerError  = "服务器错误："
)

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts the REST API under the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Get("/notes/{id}/html", h.NoteHTML)
	r.Put("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)
}

type messageResponse struct {
	Message string `json:"message"`
}

type createResponse struct {
	Message string `json:"message"`
	NoteID  int    `json:"noteId"`
}

// ListNotes handles GET /api/notes
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.List(r.Context())
	if err != nil {
		h.serverError(w, "failed to list notes", err)
		return
	}

	h.jsonResponse(w, notes, http.StatusOK)
}

// CreateNote handles POST /api/notes
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var input CreateNoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, msgBadBody+err.Error(), http.StatusBadRequest)
		return
	}

	note, err := h.svc.Create(r.Context(), input)
	if errors.Is(err, ErrInvalidTitle) {
		h.jsonError(w, msgInvalidTitle, http.StatusBadRequest)
		return
	}
	if err != nil {
		h.serverError(w, "failed to create note", err)
		return
	}

	h.log.Debug("note created", "id", note.ID)
	h.jsonResponse(w, createResponse{Message: msgCreated, NoteID: note.ID}, http.StatusOK)
}

// GetNote handles GET /api/notes/{id}
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		h.jsonError(w, msgNotFound, http.StatusNotFound)
		return
	}

	note, err := h.svc.Get(r.Context(), id)
	if errors.Is(err, ErrNoteNotFound) {
		h.jsonError(w, msgNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, "failed to get note", err)
		return
	}

	h.jsonResponse(w, note, http.StatusOK)
}

// NoteHTML handles GET /api/notes/{id}/html
func (h *Handler) NoteHTML(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		h.jsonError(w, msgNotFound, http.StatusNotFound)
		return
	}

	note, err := h.svc.Get(r.Context(), id)
	if errors.Is(err, ErrNoteNotFound) {
		h.jsonError(w, msgNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, "failed to get note", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.svc.RenderMarkdown(note.Content)))
}

// UpdateNote handles PUT /api/notes/{id}
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		h.jsonError(w, msgNotFound, http.StatusNotFound)
		return
	}

	var input UpdateNoteInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.jsonError(w, msgBadBody+err.Error(), http.StatusBadRequest)
		return
	}

	_, err := h.svc.Update(r.Context(), id, input)
	switch {
	case errors.Is(err, ErrInvalidTitle):
		h.jsonError(w, msgInvalidTitle, http.StatusBadRequest)
		return
	case errors.Is(err, ErrNoteNotFound):
		h.jsonError(w, msgNotFound, http.StatusNotFound)
		return
	case err != nil:
		h.serverError(w, "failed to update note", err)
		return
	}

	h.jsonResponse(w, messageResponse{Message: msgUpdated}, http.StatusOK)
}

// DeleteNote handles DELETE /api/notes/{id}
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		h.jsonError(w, msgNotFound, http.StatusNotFound)
		return
	}

	err := h.svc.Delete(r.Context(), id)
	if errors.Is(err, ErrNoteNotFound) {
		h.jsonError(w, msgNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		h.serverError(w, "failed to delete note", err)
		return
	}

	h.jsonResponse(w, messageResponse{Message: msgDeleted}, http.StatusOK)
}

// --- Helper methods ---

// parseID reads the {id} path segment. An id that is not an integer can
// never match a stored note.
func parseID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	h.log.Error(msg, "error", err)
	h.jsonError(w, msgServerError+err.Error(), http.StatusInternalServerError)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	h.jsonResponse(w, messageResponse{Message: message}, status)
}

// --- View model converters ---

func (h *Handler) notesToViews(notes []Note) []models.NoteView {
	views := make([]models.NoteView, len(notes))
	for i, note := range notes {
		views[i] = models.NoteView{
			ID:         note.ID,
			Title:      note.Title,
			HTML:       h.svc.RenderMarkdown(note.Content),
			CreateTime: note.CreateTime,
			UpdateTime: note.UpdateTime,
		}
	}
	return views
}

// --- Web Handlers ---

// NotesPage handles GET /ui
func (h *Handler) NotesPage(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.List(r.Context())
	if err != nil {
		h.log.Error("failed to list notes", "error", err)
		http.Error(w, msgServerError+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.NotesPage(h.notesToViews(notes)).Render(r.Context(), w); err != nil {
		h.log.Error("failed to render notes page", "error", err)
	}
}

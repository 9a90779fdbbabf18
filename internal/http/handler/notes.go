package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/SergejGorshkov/my-note/internal/auth"
	"github.com/SergejGorshkov/my-note/internal/note"
)

type NoteHandler struct {
	Svc *note.Service
}

type noteDTO struct {
	ID        uint64     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Important bool       `json:"important"`
	Tags      []string   `json:"tags"`
	RemindAt  *time.Time `json:"remind_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toNoteDTO(n note.Note) noteDTO {
	return noteDTO{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Important: n.Important,
		Tags:      []string(n.Tags),
		RemindAt:  n.RemindAt,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

type createNoteReq struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Important bool    `json:"important"`
	RemindAt  *string `json:"remind_at"` // RFC3339, optional
}

func parseRemindAt(s *string) (*time.Time, bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, false
	}
	return &t, true
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req createNoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		http.Error(w, "content required", http.StatusBadRequest)
		return
	}
	remindAt, ok := parseRemindAt(req.RemindAt)
	if !ok {
		http.Error(w, "invalid remind_at (RFC3339)", http.StatusBadRequest)
		return
	}

	id, err := h.Svc.Create(r.Context(), uid, note.CreateInput{
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Important: req.Important,
		RemindAt:  remindAt,
	})
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	f := note.ListFilter{
		Query: strings.TrimSpace(r.URL.Query().Get("q")),
		Tag:   strings.TrimSpace(strings.ToLower(r.URL.Query().Get("tag"))),
	}
	switch strings.TrimSpace(strings.ToLower(r.URL.Query().Get("important"))) {
	case "true":
		v := true
		f.Important = &v
	case "false":
		v := false
		f.Important = &v
	}
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}

	rows, err := h.Svc.List(r.Context(), uid, f)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	out := make([]noteDTO, 0, len(rows))
	for _, n := range rows {
		out = append(out, toNoteDTO(n))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func noteID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := noteID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	n, err := h.Svc.Get(r.Context(), uid, id)
	if err != nil {
		if errors.Is(err, note.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toNoteDTO(*n))
}

type updateNoteReq struct {
	Title         *string `json:"title"`
	Content       *string `json:"content"`
	Important     *bool   `json:"important"`
	RemindAt      *string `json:"remind_at"`
	ClearReminder bool    `json:"clear_reminder"`
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := noteID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req updateNoteReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	remindAt, okT := parseRemindAt(req.RemindAt)
	if !okT {
		http.Error(w, "invalid remind_at (RFC3339)", http.StatusBadRequest)
		return
	}

	err := h.Svc.Update(r.Context(), uid, id, note.UpdateInput{
		Title:         req.Title,
		Content:       req.Content,
		Important:     req.Important,
		RemindAt:      remindAt,
		ClearReminder: req.ClearReminder,
	})
	if err != nil {
		if errors.Is(err, note.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := noteID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := h.Svc.Delete(r.Context(), uid, id); err != nil {
		if errors.Is(err, note.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addImageReq struct {
	Path string `json:"path"`
}

func (h *NoteHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := noteID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	var req addImageReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Path = strings.TrimSpace(req.Path)
	if req.Path == "" {
		http.Error(w, "path required", http.StatusBadRequest)
		return
	}

	imgID, err := h.Svc.AddImage(r.Context(), uid, id, req.Path)
	if err != nil {
		if errors.Is(err, note.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": imgID})
}

func (h *NoteHandler) Images(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())
	id, ok := noteID(r)
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	imgs, err := h.Svc.Images(r.Context(), uid, id)
	if err != nil {
		if errors.Is(err, note.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(imgs)
}

func (h *NoteHandler) Tags(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	limit := 0
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	out, err := h.Svc.TopTags(r.Context(), uid, limit)
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

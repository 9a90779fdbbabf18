package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SergejGorshkov/my-note/internal/schedule"
)

// ScheduleHandler is the operator surface for the persisted schedule
// entries. Edits land in the store the scheduler re-reads every tick, so no
// restart is needed.
type ScheduleHandler struct {
	Repo *schedule.Repo
}

type scheduleDTO struct {
	Task        string `json:"task"`
	Hour        int    `json:"hour"`
	Minute      int    `json:"minute"`
	Enabled     bool   `json:"enabled"`
	LastFiredOn string `json:"last_fired_on"`
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	task := chi.URLParam(r, "task")

	e, err := h.Repo.Get(r.Context(), task)
	if err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(scheduleDTO{
		Task:        e.Task,
		Hour:        e.Hour,
		Minute:      e.Minute,
		Enabled:     e.Enabled,
		LastFiredOn: e.LastFiredOn,
	})
}

type scheduleUpdateReq struct {
	Hour    int  `json:"hour"`
	Minute  int  `json:"minute"`
	Enabled bool `json:"enabled"`
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	task := chi.URLParam(r, "task")

	var req scheduleUpdateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Hour < 0 || req.Hour > 23 || req.Minute < 0 || req.Minute > 59 {
		http.Error(w, "invalid time", http.StatusBadRequest)
		return
	}

	if err := h.Repo.Update(r.Context(), task, req.Hour, req.Minute, req.Enabled); err != nil {
		if errors.Is(err, schedule.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

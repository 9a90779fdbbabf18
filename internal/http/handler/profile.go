package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/SergejGorshkov/my-note/internal/auth"
)

type ProfileHandler struct {
	DB *gorm.DB
}

type profileDTO struct {
	UserID        uint64  `json:"user_id"`
	Email         string  `json:"email"`
	Username      string  `json:"username"`
	Phone         string  `json:"phone"`
	TgChatID      *string `json:"tg_chat_id"`
	DailyReminder bool    `json:"daily_reminder"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var u auth.User
	if err := h.DB.First(&u, uid).Error; err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(profileDTO{
		UserID:        u.ID,
		Email:         u.Email,
		Username:      u.Username,
		Phone:         u.Phone,
		TgChatID:      u.TgChatID,
		DailyReminder: u.DailyReminder,
	})
}

type profileUpdateReq struct {
	Username      *string `json:"username"`
	Phone         *string `json:"phone"`
	TgChatID      *string `json:"tg_chat_id"`
	DailyReminder *bool   `json:"daily_reminder"`
}

// Update edits the profile fields the user owns. Email is read-only. The
// reminder cycle reads these rows fresh at every firing, so changes take
// effect by the next trigger without anything else to invalidate.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req profileUpdateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	updates := map[string]any{}
	if req.Username != nil {
		updates["username"] = strings.TrimSpace(*req.Username)
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.TgChatID != nil {
		chat := strings.TrimSpace(*req.TgChatID)
		if chat == "" {
			updates["tg_chat_id"] = nil
		} else {
			updates["tg_chat_id"] = chat
		}
	}
	if req.DailyReminder != nil {
		updates["daily_reminder"] = *req.DailyReminder
	}
	if len(updates) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.DB.Model(&auth.User{}).Where("id = ?", uid).Updates(updates).Error; err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

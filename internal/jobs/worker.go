package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SergejGorshkov/my-note/internal/notify"
)

// Worker polls for due jobs and delivers note reminders through the channel
// client. One worker per process is enough; the claim is SKIP LOCKED safe
// regardless.
type Worker struct {
	ID     string
	Repo   *Repo
	DB     *gorm.DB
	Sender notify.Sender
	Log    *zap.Logger
}

// noteRow avoids importing the note package (which enqueues jobs).
type noteRow struct {
	ID      uint64 `gorm:"column:id"`
	UserID  uint64 `gorm:"column:user_id"`
	Title   string `gorm:"column:title"`
	Content string `gorm:"column:content"`
}

func (noteRow) TableName() string { return "notes" }

type ownerRow struct {
	TgChatID *string `gorm:"column:tg_chat_id"`
	Username string  `gorm:"column:username"`
	Email    string  `gorm:"column:email"`
}

func (ownerRow) TableName() string { return "users" }

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(800 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.Log.Info("jobs worker stopping")
			return
		case <-ticker.C:
			job, err := w.Repo.Claim(w.ID)
			if err != nil {
				w.Log.Error("job claim failed", zap.Error(err))
				continue
			}
			if job == nil {
				continue
			}
			w.handle(ctx, job)
		}
	}
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	switch job.Type {
	case TypeNoteRemind:
		w.handleNoteRemind(ctx, job)
	default:
		_ = w.Repo.MarkFailed(job.ID, "unknown job type")
	}
}

func (w *Worker) handleNoteRemind(ctx context.Context, job *Job) {
	var p struct {
		NoteID uint64 `json:"note_id"`
	}
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		_ = w.Repo.MarkFailed(job.ID, "bad payload")
		return
	}

	var n noteRow
	if err := w.DB.Where("id = ? AND user_id = ?", p.NoteID, job.UserID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Note deleted since scheduling; nothing to deliver.
			_ = w.Repo.MarkDone(job.ID)
			return
		}
		w.retry(job, "db read error")
		return
	}

	var owner ownerRow
	if err := w.DB.Where("id = ?", job.UserID).First(&owner).Error; err != nil {
		w.retry(job, "owner read error")
		return
	}
	if owner.TgChatID == nil || *owner.TgChatID == "" {
		// No channel recipient registered; the reminder has nowhere to go.
		w.Log.Warn("note reminder dropped, no chat id",
			zap.Uint64("user_id", job.UserID), zap.Uint64("note_id", n.ID))
		_ = w.Repo.MarkDone(job.ID)
		return
	}

	text := fmt.Sprintf("Reminder from \"My note\": %s", n.Title)
	res := w.Sender.Send(ctx, *owner.TgChatID, text)
	if !res.OK {
		w.retry(job, res.Reason)
		return
	}

	w.Log.Info("note reminder delivered",
		zap.Uint64("user_id", job.UserID), zap.Uint64("note_id", n.ID))
	_ = w.Repo.MarkDone(job.ID)
}

func (w *Worker) retry(job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		_ = w.Repo.MarkFailed(job.ID, errMsg)
		return
	}

	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := time.Now().Add(time.Duration(sec) * time.Second)
	_ = w.Repo.RetryLater(job.ID, attempts, next, errMsg)
}

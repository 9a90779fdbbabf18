package notify

import (
	"context"

	"gorm.io/gorm"
)

// Recipient is the read-only projection of a user the reminder cycle needs.
type Recipient struct {
	UserID      uint64
	ChatID      string
	DisplayName string
}

// Directory yields the users eligible for the daily reminder.
type Directory interface {
	EligibleRecipients(ctx context.Context) ([]Recipient, error)
}

// GormDirectory reads eligibility straight from the users table. Every cycle
// gets a fresh snapshot; nothing is cached between firings.
type GormDirectory struct {
	DB *gorm.DB
}

type eligibleRow struct {
	ID       uint64
	TgChatID *string
	Username string
	Email    string
}

func (d *GormDirectory) EligibleRecipients(ctx context.Context) ([]Recipient, error) {
	var rows []eligibleRow
	err := d.DB.WithContext(ctx).
		Table("users").
		Select("id, tg_chat_id, username, email").
		Where("daily_reminder = true AND tg_chat_id IS NOT NULL AND tg_chat_id <> ''").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]Recipient, 0, len(rows))
	for _, r := range rows {
		if r.TgChatID == nil {
			continue
		}
		out = append(out, Recipient{
			UserID:      r.ID,
			ChatID:      *r.TgChatID,
			DisplayName: DisplayName(r.Username, r.Email),
		})
	}
	return out, nil
}

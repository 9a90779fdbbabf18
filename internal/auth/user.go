package auth

import "time"

// User is the account plus the reminder preferences the notification core
// reads: DailyReminder is the opt-in flag, TgChatID the channel recipient.
type User struct {
	ID           uint64 `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`

	Username string  `gorm:"type:text;not null;default:''"`
	Phone    string  `gorm:"type:text;not null;default:''"`
	TgChatID *string `gorm:"type:text"`

	DailyReminder bool `gorm:"not null;default:false"`

	// Active is false until the email confirmation token is redeemed.
	Active       bool    `gorm:"not null;default:false"`
	ConfirmToken *string `gorm:"type:text;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

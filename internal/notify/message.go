package notify

import (
	"fmt"
	"strings"
)

// ReminderText builds the daily reminder body for one user.
func ReminderText(displayName string) string {
	return fmt.Sprintf(
		"Hi %s, this is \"My note\"! The day is coming to an end — don't forget to write down its most important moments in your diary!",
		displayName,
	)
}

// DisplayName picks the greeting name: the optional username when set,
// otherwise the local part of the email.
func DisplayName(username, email string) string {
	if u := strings.TrimSpace(username); u != "" {
		return u
	}
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

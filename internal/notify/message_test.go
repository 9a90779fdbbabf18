package notify

import (
	"strings"
	"testing"
)

func TestReminderText(t *testing.T) {
	got := ReminderText("Sergej")
	if !strings.Contains(got, "Sergej") {
		t.Fatalf("greeting must contain the name, got %q", got)
	}
	if !strings.Contains(got, "diary") {
		t.Fatalf("missing call-to-action, got %q", got)
	}
	// Pure function: same input, same output.
	if ReminderText("Sergej") != got {
		t.Fatal("template is not deterministic")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		username, email, want string
	}{
		{"Sergej", "s@example.com", "Sergej"},
		{"", "s@example.com", "s"},
		{"  ", "anna@example.com", "anna"},
		{"", "weird", "weird"},
	}
	for _, tc := range tests {
		if got := DisplayName(tc.username, tc.email); got != tc.want {
			t.Errorf("DisplayName(%q, %q) = %q, want %q", tc.username, tc.email, got, tc.want)
		}
	}
}

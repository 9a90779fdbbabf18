package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/SergejGorshkov/my-note/internal/auth"
	"github.com/SergejGorshkov/my-note/internal/jobs"
	"github.com/SergejGorshkov/my-note/internal/note"
	"github.com/SergejGorshkov/my-note/internal/schedule"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&auth.User{},
		&note.Note{},
		&note.NoteImage{},
		&jobs.Job{},
		&schedule.Entry{},
	); err != nil {
		return err
	}

	// Eligibility scan for the daily reminder cycle.
	if err := gdb.Exec(`
create index if not exists idx_users_reminder
on users(daily_reminder)
where daily_reminder = true and tg_chat_id is not null;
`).Error; err != nil {
		return err
	}

	// Tag filter (GIN for text[]).
	if err := gdb.Exec(`create index if not exists idx_notes_tags on notes using gin (tags);`).Error; err != nil {
		return err
	}

	stmts := []string{
		`create index if not exists idx_notes_user_created on notes(user_id, created_at desc);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}

package note

import (
	"time"

	"github.com/lib/pq"
)

// Note is one diary entry.
type Note struct {
	ID     uint64 `gorm:"primaryKey"`
	UserID uint64 `gorm:"index;not null"`

	Title     string `gorm:"type:text;not null;default:'Note'"`
	Content   string `gorm:"type:text;not null"`
	Important bool   `gorm:"not null;default:false"`

	// Tags are extracted from #hashtags in the content.
	Tags pq.StringArray `gorm:"type:text[];not null;default:'{}'"`

	// RemindAt, when set, has a matching NOTE_REMIND job in the queue.
	RemindAt *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"index;not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`
}

// NoteImage stores metadata for an image attached to a note. The binary
// itself lives outside the database.
type NoteImage struct {
	ID     uint64 `gorm:"primaryKey"`
	NoteID uint64 `gorm:"index;not null"`
	UserID uint64 `gorm:"index;not null"`

	Path      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;default:now()"`
}

package note

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SergejGorshkov/my-note/internal/jobs"
)

var ErrNotFound = errors.New("note not found")

type Service struct {
	DB *gorm.DB
}

type CreateInput struct {
	Title     string
	Content   string
	Important bool
	RemindAt  *time.Time
}

// Create stores a note and, when a reminder moment is given, enqueues the
// delivery job in the same transaction so the two can never diverge.
func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (uint64, error) {
	n := Note{
		UserID:    userID,
		Title:     in.Title,
		Content:   in.Content,
		Important: in.Important,
		Tags:      pq.StringArray(ExtractTags(in.Content)),
		RemindAt:  in.RemindAt,
	}
	if n.Title == "" {
		n.Title = "Note"
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&n).Error; err != nil {
			return err
		}
		if in.RemindAt != nil {
			return jobs.EnqueueNoteReminder(tx, userID, n.ID, *in.RemindAt)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n.ID, nil
}

type UpdateInput struct {
	Title     *string
	Content   *string
	Important *bool

	// RemindAt sets a new reminder moment; ClearReminder removes it. Setting
	// both is invalid and ClearReminder wins.
	RemindAt      *time.Time
	ClearReminder bool
}

func (s *Service) Update(ctx context.Context, userID, id uint64, in UpdateInput) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n Note
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if in.Title != nil {
			n.Title = *in.Title
		}
		if in.Content != nil {
			n.Content = *in.Content
			n.Tags = pq.StringArray(ExtractTags(n.Content))
		}
		if in.Important != nil {
			n.Important = *in.Important
		}

		touchReminder := in.ClearReminder || in.RemindAt != nil
		if touchReminder {
			// Drop any pending job for this note before deciding the new state,
			// so a rescheduled reminder is delivered exactly once.
			if err := jobs.CancelNoteReminder(tx, userID, n.ID); err != nil {
				return err
			}
			if in.ClearReminder {
				n.RemindAt = nil
			} else {
				n.RemindAt = in.RemindAt
				if err := jobs.EnqueueNoteReminder(tx, userID, n.ID, *in.RemindAt); err != nil {
					return err
				}
			}
		}

		n.UpdatedAt = time.Now()
		return tx.Save(&n).Error
	})
}

func (s *Service) Delete(ctx context.Context, userID, id uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&Note{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := jobs.CancelNoteReminder(tx, userID, id); err != nil {
			return err
		}
		return tx.Where("note_id = ? AND user_id = ?", id, userID).Delete(&NoteImage{}).Error
	})
}

func (s *Service) Get(ctx context.Context, userID, id uint64) (*Note, error) {
	var n Note
	if err := s.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

type ListFilter struct {
	Query     string // substring match on title and content
	Tag       string
	Important *bool
	Limit     int
}

func (s *Service) List(ctx context.Context, userID uint64, f ListFilter) ([]Note, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	q := s.DB.WithContext(ctx).Model(&Note{}).Where("user_id = ?", userID)
	if f.Query != "" {
		pat := "%" + f.Query + "%"
		q = q.Where("title ILIKE ? OR content ILIKE ?", pat, pat)
	}
	if f.Tag != "" {
		q = q.Where("? = any(tags)", f.Tag)
	}
	if f.Important != nil {
		q = q.Where("important = ?", *f.Important)
	}

	var out []Note
	if err := q.Order("created_at desc").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) AddImage(ctx context.Context, userID, noteID uint64, path string) (uint64, error) {
	// verify ownership
	if _, err := s.Get(ctx, userID, noteID); err != nil {
		return 0, err
	}
	img := NoteImage{NoteID: noteID, UserID: userID, Path: path}
	if err := s.DB.WithContext(ctx).Create(&img).Error; err != nil {
		return 0, err
	}
	return img.ID, nil
}

func (s *Service) Images(ctx context.Context, userID, noteID uint64) ([]NoteImage, error) {
	if _, err := s.Get(ctx, userID, noteID); err != nil {
		return nil, err
	}
	var out []NoteImage
	err := s.DB.WithContext(ctx).
		Where("note_id = ? AND user_id = ?", noteID, userID).
		Order("created_at asc").Find(&out).Error
	return out, err
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

func (s *Service) TopTags(ctx context.Context, userID uint64, limit int) ([]TagCount, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []TagCount
	err := s.DB.WithContext(ctx).Raw(`
		select tag, count(*) as count
		from (
			select unnest(tags) as tag
			from notes
			where user_id = ?
		) t
		group by tag
		order by count desc, tag asc
		limit ?
	`, userID, limit).Scan(&out).Error
	return out, err
}

package schedule

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("schedule entry not found")

type Repo struct {
	DB *gorm.DB
}

// Ensure creates the entry for task with the given default time if it does
// not exist yet. Called once at process start.
func (r *Repo) Ensure(ctx context.Context, task string, hour, minute int) error {
	e := Entry{Task: task, Hour: hour, Minute: minute, Enabled: true}
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task"}},
			DoNothing: true,
		}).
		Create(&e).Error
}

func (r *Repo) Get(ctx context.Context, task string) (*Entry, error) {
	var e Entry
	if err := r.DB.WithContext(ctx).Where("task = ?", task).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// List returns all entries. The scheduler reloads them every tick so operator
// edits take effect without a restart.
func (r *Repo) List(ctx context.Context) ([]Entry, error) {
	var out []Entry
	if err := r.DB.WithContext(ctx).Order("task asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies an operator edit under a row lock so a concurrent tick never
// observes a half-written entry.
func (r *Repo) Update(ctx context.Context, task string, hour, minute int, enabled bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var e Entry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("task = ?", task).First(&e).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		e.Hour = hour
		e.Minute = minute
		e.Enabled = enabled
		return tx.Save(&e).Error
	})
}

// Claim marks the entry as served for day. The conditional update succeeds
// for at most one caller per day, which is what keeps a trigger minute that
// gets evaluated twice (or by two replicas) from double-firing.
func (r *Repo) Claim(ctx context.Context, task, day string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Model(&Entry{}).
		Where("task = ? AND enabled = true AND last_fired_on <> ?", task, day).
		Update("last_fired_on", day)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Source is the slice of the repo the scheduler needs.
type Source interface {
	List(ctx context.Context) ([]Entry, error)
	Claim(ctx context.Context, task, day string) (bool, error)
}

// RunFunc is the work bound to a schedule entry. It runs on its own
// goroutine; the tick loop never blocks on it.
type RunFunc func(ctx context.Context)

// Scheduler evaluates persisted entries once per minute and fires each due
// entry at most once per local day.
type Scheduler struct {
	src      Source
	loc      *time.Location
	log      *zap.Logger
	interval time.Duration
	runs     map[string]RunFunc
}

func NewScheduler(src Source, loc *time.Location, log *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		src:      src,
		loc:      loc,
		log:      log,
		interval: time.Minute,
		runs:     make(map[string]RunFunc),
	}
}

// Bind associates a task name with its run function. Entries with no bound
// function are ignored at evaluation time.
func (s *Scheduler) Bind(task string, fn RunFunc) {
	s.runs[task] = fn
}

// Run evaluates immediately, then on every tick, until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.evaluate(ctx)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopping")
			return
		case <-ticker.C:
			s.evaluate(ctx)
		}
	}
}

// evaluate reloads entries and fires the due ones. Entries are re-read from
// the store each time so runtime edits need no restart, and the claim keeps
// repeated evaluations within one trigger minute from firing twice.
func (s *Scheduler) evaluate(ctx context.Context) {
	now := time.Now().In(s.loc)

	entries, err := s.src.List(ctx)
	if err != nil {
		s.log.Error("schedule load failed", zap.Error(err))
		return
	}

	for _, e := range entries {
		fn, ok := s.runs[e.Task]
		if !ok || !Due(e, now) {
			continue
		}
		claimed, err := s.src.Claim(ctx, e.Task, DayKey(now))
		if err != nil {
			s.log.Error("schedule claim failed", zap.Error(err), zap.String("task", e.Task))
			continue
		}
		if !claimed {
			continue
		}
		s.log.Info("schedule entry fired",
			zap.String("task", e.Task),
			zap.String("day", DayKey(now)),
		)
		go fn(ctx)
	}
}

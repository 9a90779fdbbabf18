package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Dispatcher runs one reminder cycle: fetch the eligible set, submit one
// delivery task per recipient, return. It never waits on deliveries and a
// failed cycle leaves the system ready for the next firing.
type Dispatcher struct {
	Dir  Directory
	Pool *Pool
	Log  *zap.Logger
}

// RunCycle is invoked by the scheduler once per trigger time.
func (d *Dispatcher) RunCycle(ctx context.Context) {
	recipients, err := d.Dir.EligibleRecipients(ctx)
	if err != nil {
		// This firing is lost; the next tick proceeds normally.
		d.Log.Error("eligibility query failed, skipping cycle", zap.Error(err))
		return
	}
	if len(recipients) == 0 {
		d.Log.Debug("no eligible recipients, cycle is a no-op")
		return
	}

	now := time.Now()
	for _, r := range recipients {
		d.Pool.Submit(Task{
			UserID:    r.UserID,
			ChatID:    r.ChatID,
			Text:      ReminderText(r.DisplayName),
			CreatedAt: now,
		})
	}
	d.Log.Info("reminder cycle dispatched", zap.Int("recipients", len(recipients)))
}

package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Task is one reminder delivery: send Text to ChatID. It exists only until
// the delivery attempt finishes.
type Task struct {
	UserID    uint64
	ChatID    string
	Text      string
	CreatedAt time.Time
}

// Pool executes delivery tasks on a fixed set of workers so one slow or
// failing recipient can never delay another, and submitters never wait for
// deliveries to complete.
type Pool struct {
	sender Sender
	log    *zap.Logger
	tasks  chan Task
	wg     sync.WaitGroup

	maxAttempts uint64
	baseBackoff time.Duration
}

func NewPool(sender Sender, log *zap.Logger, workers, buffer int) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if buffer <= 0 {
		buffer = 256
	}
	p := &Pool{
		sender:      sender,
		log:         log,
		tasks:       make(chan Task, buffer),
		maxAttempts: 3,
		baseBackoff: time.Second,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit enqueues a task. It blocks only if the buffer is full.
func (p *Pool) Submit(t Task) {
	p.tasks <- t
}

// Close stops accepting tasks and waits for in-flight deliveries.
func (p *Pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		p.deliver(t)
	}
}

// deliver sends one message with a bounded retry. The outcome is logged and
// discarded; nothing escalates to the submitter.
func (p *Pool) deliver(t Task) {
	ctx := context.Background()

	var last DeliveryResult
	b := retry.WithMaxRetries(p.maxAttempts-1, retry.NewExponential(p.baseBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		last = p.sender.Send(ctx, t.ChatID, t.Text)
		if !last.OK {
			return retry.RetryableError(errors.New(last.Reason))
		}
		return nil
	})

	if err != nil {
		p.log.Error("reminder delivery failed",
			zap.Uint64("user_id", t.UserID),
			zap.String("chat_id", t.ChatID),
			zap.String("reason", last.Reason),
			zap.Time("created_at", t.CreatedAt),
		)
		return
	}
	p.log.Info("reminder delivered",
		zap.Uint64("user_id", t.UserID),
		zap.String("chat_id", t.ChatID),
		zap.Time("created_at", t.CreatedAt),
	)
}

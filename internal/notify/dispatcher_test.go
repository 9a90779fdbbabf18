package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeDirectory struct {
	recipients []Recipient
	err        error
}

func (d *fakeDirectory) EligibleRecipients(_ context.Context) ([]Recipient, error) {
	if d.err != nil {
		return nil, d.err
	}
	// snapshot copy, as the real directory returns fresh rows
	out := make([]Recipient, len(d.recipients))
	copy(out, d.recipients)
	return out, nil
}

// fakeSender records every call and fails permanently for the chat ids in
// failFor.
type fakeSender struct {
	mu      sync.Mutex
	calls   map[string]int
	success map[string]int
	texts   map[string]string
	failFor map[string]bool
}

func newFakeSender(failFor ...string) *fakeSender {
	f := &fakeSender{
		calls:   map[string]int{},
		success: map[string]int{},
		texts:   map[string]string{},
		failFor: map[string]bool{},
	}
	for _, id := range failFor {
		f.failFor[id] = true
	}
	return f
}

func (f *fakeSender) Send(_ context.Context, chatID, text string) DeliveryResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[chatID]++
	if f.failFor[chatID] {
		return DeliveryResult{Reason: "simulated failure"}
	}
	f.success[chatID]++
	f.texts[chatID] = text
	return DeliveryResult{OK: true}
}

func (f *fakeSender) successes(chatID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.success[chatID]
}

func (f *fakeSender) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func newTestPool(s Sender) *Pool {
	p := NewPool(s, zap.NewNop(), 2, 16)
	p.baseBackoff = time.Millisecond
	return p
}

func TestRunCycle_EligibleScenario(t *testing.T) {
	// User A opted in with chat "111"; B did not opt in; C has no chat id.
	// The directory contract admits only A.
	dir := &fakeDirectory{recipients: []Recipient{
		{UserID: 1, ChatID: "111", DisplayName: "A"},
	}}
	sender := newFakeSender()
	pool := newTestPool(sender)

	d := &Dispatcher{Dir: dir, Pool: pool, Log: zap.NewNop()}
	d.RunCycle(context.Background())
	pool.Close()

	if got := sender.successes("111"); got != 1 {
		t.Fatalf("want exactly one delivery to 111, got %d", got)
	}
	if got := sender.totalCalls(); got != 1 {
		t.Fatalf("want exactly one channel call, got %d", got)
	}
	if text := sender.texts["111"]; !strings.Contains(text, "A") {
		t.Fatalf("message not personalized: %q", text)
	}
}

func TestRunCycle_PartialFailureIsolation(t *testing.T) {
	dir := &fakeDirectory{recipients: []Recipient{
		{UserID: 1, ChatID: "111", DisplayName: "one"},
		{UserID: 2, ChatID: "222", DisplayName: "two"},
		{UserID: 3, ChatID: "333", DisplayName: "three"},
	}}
	sender := newFakeSender("222")
	pool := newTestPool(sender)

	d := &Dispatcher{Dir: dir, Pool: pool, Log: zap.NewNop()}
	d.RunCycle(context.Background())
	pool.Close()

	if got := sender.successes("111"); got != 1 {
		t.Errorf("recipient 111: want 1 successful delivery, got %d", got)
	}
	if got := sender.successes("333"); got != 1 {
		t.Errorf("recipient 333: want 1 successful delivery, got %d", got)
	}
	if got := sender.successes("222"); got != 0 {
		t.Errorf("recipient 222: want 0 successful deliveries, got %d", got)
	}
}

func TestRunCycle_EmptyPopulationNoOp(t *testing.T) {
	dir := &fakeDirectory{}
	sender := newFakeSender()
	pool := newTestPool(sender)

	d := &Dispatcher{Dir: dir, Pool: pool, Log: zap.NewNop()}
	d.RunCycle(context.Background())
	pool.Close()

	if got := sender.totalCalls(); got != 0 {
		t.Fatalf("want zero channel calls, got %d", got)
	}
}

func TestRunCycle_DirectoryFailureAbortsCycleOnly(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("directory unavailable")}
	sender := newFakeSender()
	pool := newTestPool(sender)

	d := &Dispatcher{Dir: dir, Pool: pool, Log: zap.NewNop()}
	// Must not panic and must not send anything.
	d.RunCycle(context.Background())
	pool.Close()

	if got := sender.totalCalls(); got != 0 {
		t.Fatalf("want zero channel calls after query failure, got %d", got)
	}
}

func TestDirectorySnapshotIdempotent(t *testing.T) {
	dir := &fakeDirectory{recipients: []Recipient{
		{UserID: 1, ChatID: "111", DisplayName: "A"},
		{UserID: 2, ChatID: "222", DisplayName: "B"},
	}}

	first, err := dir.EligibleRecipients(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := dir.EligibleRecipients(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("snapshots differ in size: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("snapshots differ at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestPool_RetriesTransientFailure(t *testing.T) {
	sender := newFakeSender("999")
	pool := newTestPool(sender)

	pool.Submit(Task{UserID: 9, ChatID: "999", Text: "x", CreatedAt: time.Now()})
	pool.Close()

	// maxAttempts is 3: one initial call plus two retries, then give up.
	if got := sender.calls["999"]; got != 3 {
		t.Fatalf("want 3 attempts for failing recipient, got %d", got)
	}
}

package console

import (
	"context"
	"sync"
	"time"
)

// DefaultOperationTimeout bounds every workflow operation.
const DefaultOperationTimeout = 30 * time.Second

// task admits one operation at a time. Busy is true from the moment begin
// returns until the returned end func runs.
type task struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	timeout time.Duration
}

func newTask(timeout time.Duration) *task {
	if timeout <= 0 {
		timeout = DefaultOperationTimeout
	}
	return &task{timeout: timeout}
}

func (t *task) begin(parent context.Context) (context.Context, func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return nil, nil, ErrBusy
	}
	ctx, cancel := context.WithTimeout(parent, t.timeout)
	t.cancel = cancel
	end := func() {
		t.mu.Lock()
		t.cancel = nil
		t.mu.Unlock()
		cancel()
	}
	return ctx, end, nil
}

func (t *task) busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}

// abort cancels the running operation, if any.
func (t *task) abort() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
}

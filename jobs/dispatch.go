package jobs

import (
	"context"
	"time"
)

// Dispatcher is the one-shot asynchronous dispatch primitive connecting the
// orchestrator to the worker. Delivery is at-most-once with no
// acknowledgment and no retry: if a dispatch is dropped, the job record
// stays PROCESSING forever and only a higher-level watchdog could recover
// it.
type Dispatcher interface {
	Dispatch(payload Payload)
}

// GoDispatcher executes each payload on its own goroutine under a bounded
// background context, detached from the submitting request's lifetime.
type GoDispatcher struct {
	Runner  *Runner
	Timeout time.Duration
}

func (d *GoDispatcher) Dispatch(payload Payload) {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		d.Runner.Run(ctx, payload)
	}()
}

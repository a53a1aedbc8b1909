// Package poll implements a bounded, strictly sequential polling loop for
// asynchronous analysis jobs.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// State tags a fetch outcome.
type State string

const (
	StatePending State = "pending"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Status is the tagged result of one fetch attempt.
type Status struct {
	State   State
	Payload map[string]any
	Reason  string
}

// Pending reports the job is still running.
func Pending() Status {
	return Status{State: StatePending}
}

// Done reports the job finished with the given payload.
func Done(payload map[string]any) Status {
	return Status{State: StateDone, Payload: payload}
}

// Failed reports the job failed with a server-supplied reason.
func Failed(reason string) Status {
	return Status{State: StateFailed, Reason: reason}
}

// FetchFunc retrieves the current job status. Each invocation must settle
// before the next begins; Run never overlaps fetches.
type FetchFunc func(ctx context.Context) (Status, error)

// Options tunes the polling loop. Zero values take defaults.
type Options struct {
	Interval    time.Duration
	MaxAttempts int
}

const (
	defaultInterval    = 2 * time.Second
	defaultMaxAttempts = 30
)

// ErrTimeout is returned when the job is still pending after MaxAttempts
// fetches. It is distinct from a server-reported failure.
var ErrTimeout = errors.New("poll: attempt budget exhausted")

// Failure carries a server-reported job failure out of the polling loop.
type Failure struct {
	Reason string
}

func (e *Failure) Error() string {
	return fmt.Sprintf("poll: job failed: %s", e.Reason)
}

// Run polls fetch until it reports done or failed, the attempt budget runs
// out, or ctx is cancelled. It performs exactly MaxAttempts fetches when the
// job never settles, then returns ErrTimeout.
func Run(ctx context.Context, fetch FetchFunc, opts Options) (map[string]any, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		status, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		switch status.State {
		case StateDone:
			return status.Payload, nil
		case StateFailed:
			return nil, &Failure{Reason: status.Reason}
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, ErrTimeout
}

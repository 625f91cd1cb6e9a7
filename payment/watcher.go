package payment

import (
	"context"
	"time"
)

// State of an observed QR transaction. Terminal states are absorbing: once
// the watcher reaches one it issues no further queries.
type State string

const (
	StatePending   State = "PENDING"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
	StateTimedOut  State = "TIMED_OUT"
)

func (s State) Terminal() bool { return s != StatePending }

// Event is one observation from the watcher. While pending, Status carries
// the raw provider payload for UI feedback; Err is set when the loop ended
// on a transport or provider error.
type Event struct {
	State  State
	Status *StatusResponse
	Err    error
}

// StatusQuerier is the provider call the watcher drives.
type StatusQuerier interface {
	QueryTransactionStatus(ctx context.Context, ref string, frontendTimeout bool) (*StatusResponse, error)
}

const (
	DefaultInterval = 5 * time.Second
	DefaultMaxPolls = 60
)

// Watcher polls a QR transaction until it resolves, the poll budget runs
// out, or the context is cancelled. One watcher run serves one transaction;
// runs share no state.
type Watcher struct {
	Querier  StatusQuerier
	Interval time.Duration // defaults to DefaultInterval
	MaxPolls int           // defaults to DefaultMaxPolls
}

// Watch starts the polling loop and returns its event channel. The channel
// is closed when the loop ends: after a terminal event, or silently on
// context cancellation (client disconnect leaves the recorded state alone).
func (w *Watcher) Watch(ctx context.Context, ref string) <-chan Event {
	events := make(chan Event)
	go w.run(ctx, ref, events)
	return events
}

func (w *Watcher) run(ctx context.Context, ref string, events chan<- Event) {
	defer close(events)

	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxPolls := w.MaxPolls
	if maxPolls <= 0 {
		maxPolls = DefaultMaxPolls
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for poll := 0; poll < maxPolls; poll++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status, err := w.Querier.QueryTransactionStatus(ctx, ref, false)
		if err != nil {
			// Provider or transport error ends the stream; no retries.
			w.emit(ctx, events, Event{State: StateFailed, Err: err})
			return
		}
		switch {
		case status.Succeeded():
			w.emit(ctx, events, Event{State: StateSucceeded, Status: status})
			return
		case status.Failed():
			w.emit(ctx, events, Event{State: StateFailed, Status: status})
			return
		default:
			if !w.emit(ctx, events, Event{State: StatePending, Status: status}) {
				return
			}
		}
	}

	// Poll budget exhausted. One final query with the frontend-timeout flag
	// lets the provider reconcile a completion that landed at the buzzer;
	// it is interpreted by the same success/fail rule.
	status, err := w.Querier.QueryTransactionStatus(ctx, ref, true)
	if err != nil {
		w.emit(ctx, events, Event{State: StateFailed, Err: err})
		return
	}
	switch {
	case status.Succeeded():
		w.emit(ctx, events, Event{State: StateSucceeded, Status: status})
	case status.Failed():
		w.emit(ctx, events, Event{State: StateFailed, Status: status})
	default:
		w.emit(ctx, events, Event{State: StateTimedOut, Status: status})
	}
}

func (w *Watcher) emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

package migration

import (
	"context"
	"sync"

	"github.com/temirov/ledgermigrate/internal/accounts"
	"github.com/temirov/ledgermigrate/internal/ledger"
	"github.com/temirov/ledgermigrate/internal/telemetry"
)

// State is the position of a run in the migration state machine.
type State string

// Run states.
const (
	StateReady           State = State("ready")
	StateVersionResolved State = State("version_resolved")
	StateBurning         State = State("burning")
	StateMigrating       State = State("migrating")
	StateCompleted       State = State("completed")
	StateFailed          State = State("failed")
)

// EventKind classifies run events.
type EventKind string

// Event kinds. EventReady and EventFailed are terminal.
const (
	EventMigrationStarted EventKind = EventKind("migration_started")
	EventAccountFailed    EventKind = EventKind("account_failed")
	EventReady            EventKind = EventKind("ready")
	EventFailed           EventKind = EventKind("failed")
)

// Event is a notification published by a run.
type Event struct {
	Kind          EventKind
	RunID         string
	Reason        telemetry.ReadyReason
	Client        ledger.Client
	PublicAddress string
	Err           error
}

// Outcome is the result of a completed run.
type Outcome struct {
	RunID   string
	Version ledger.Version
	Client  ledger.Client
	Reason  telemetry.ReadyReason
	// Failures lists accounts that could not be burned; the completion flag stays unset when present.
	Failures []accounts.AccountFailure
}

// Run is a single execution of the migration state machine.
type Run struct {
	id   string
	done chan struct{}

	mutex   sync.Mutex
	changed *sync.Cond
	state   State
	history []Event
	closed  bool
	outcome Outcome
	err     error
}

func newRun(id string) *Run {
	run := &Run{id: id, done: make(chan struct{}), state: StateReady}
	run.changed = sync.NewCond(&run.mutex)
	return run
}

// ID returns the run identifier.
func (run *Run) ID() string {
	return run.id
}

// State returns the current state.
func (run *Run) State() State {
	run.mutex.Lock()
	defer run.mutex.Unlock()
	return run.state
}

// Done is closed once the run reached a terminal state.
func (run *Run) Done() <-chan struct{} {
	return run.done
}

// Wait blocks until the run finishes or executionContext ends.
func (run *Run) Wait(executionContext context.Context) (Outcome, error) {
	select {
	case <-run.done:
		run.mutex.Lock()
		defer run.mutex.Unlock()
		return run.outcome, run.err
	case <-executionContext.Done():
		return Outcome{}, executionContext.Err()
	}
}

// Events returns a new subscription that replays every event published so far, follows
// new ones in order, and closes after the terminal event. Each call yields an independent
// channel that must be drained.
func (run *Run) Events() <-chan Event {
	subscription := make(chan Event)
	go run.deliver(subscription)
	return subscription
}

func (run *Run) deliver(subscription chan<- Event) {
	defer close(subscription)
	for eventIndex := 0; ; eventIndex++ {
		run.mutex.Lock()
		for eventIndex >= len(run.history) && !run.closed {
			run.changed.Wait()
		}
		if eventIndex >= len(run.history) {
			run.mutex.Unlock()
			return
		}
		event := run.history[eventIndex]
		run.mutex.Unlock()
		subscription <- event
	}
}

func (run *Run) setState(state State) {
	run.mutex.Lock()
	defer run.mutex.Unlock()
	run.state = state
}

func (run *Run) publish(event Event) {
	event.RunID = run.id
	run.mutex.Lock()
	defer run.mutex.Unlock()
	run.history = append(run.history, event)
	run.changed.Broadcast()
}

func (run *Run) complete(outcome Outcome) {
	outcome.RunID = run.id
	run.finish(StateCompleted, outcome, nil, Event{Kind: EventReady, Reason: outcome.Reason, Client: outcome.Client})
}

func (run *Run) fail(failure error) {
	run.finish(StateFailed, Outcome{RunID: run.id}, failure, Event{Kind: EventFailed, Err: failure})
}

func (run *Run) finish(state State, outcome Outcome, failure error, terminal Event) {
	terminal.RunID = run.id
	run.mutex.Lock()
	run.state = state
	run.outcome = outcome
	run.err = failure
	run.history = append(run.history, terminal)
	run.closed = true
	run.changed.Broadcast()
	run.mutex.Unlock()
	close(run.done)
}

func (run *Run) finished() bool {
	select {
	case <-run.done:
		return true
	default:
		return false
	}
}

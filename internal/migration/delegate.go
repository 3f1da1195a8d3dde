package migration

import (
	"github.com/temirov/ledgermigrate/internal/ledger"
)

// Delegate receives run results as callbacks. Callbacks for one run are never concurrent.
type Delegate interface {
	MigrationStarted()
	Ready(client ledger.Client)
	Failed(failure error)
}

// AccountFailureDelegate is implemented by delegates that also want per-account failures.
// Burn failures arrive before MigrationStarted; migrate failures arrive just before Failed.
type AccountFailureDelegate interface {
	AccountFailed(publicAddress string, failure error)
}

// DelegateFuncs adapts plain functions to Delegate. Nil fields are skipped.
type DelegateFuncs struct {
	OnMigrationStarted func()
	OnReady            func(client ledger.Client)
	OnFailed           func(failure error)
	OnAccountFailed    func(publicAddress string, failure error)
}

// MigrationStarted implements Delegate.
func (funcs DelegateFuncs) MigrationStarted() {
	if funcs.OnMigrationStarted != nil {
		funcs.OnMigrationStarted()
	}
}

// Ready implements Delegate.
func (funcs DelegateFuncs) Ready(client ledger.Client) {
	if funcs.OnReady != nil {
		funcs.OnReady(client)
	}
}

// Failed implements Delegate.
func (funcs DelegateFuncs) Failed(failure error) {
	if funcs.OnFailed != nil {
		funcs.OnFailed(failure)
	}
}

// AccountFailed implements AccountFailureDelegate.
func (funcs DelegateFuncs) AccountFailed(publicAddress string, failure error) {
	if funcs.OnAccountFailed != nil {
		funcs.OnAccountFailed(publicAddress, failure)
	}
}

func dispatch(events <-chan Event, delegate Delegate) {
	accountDelegate, wantsAccountFailures := delegate.(AccountFailureDelegate)
	for event := range events {
		switch event.Kind {
		case EventMigrationStarted:
			delegate.MigrationStarted()
		case EventAccountFailed:
			if wantsAccountFailures {
				accountDelegate.AccountFailed(event.PublicAddress, event.Err)
			}
		case EventReady:
			delegate.Ready(event.Client)
		case EventFailed:
			delegate.Failed(event.Err)
		}
	}
}

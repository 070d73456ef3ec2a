package booking

import (
	"errors"
	"fmt"

	"github.com/drivewise/drivewise-backend/internal/types"
)

const (
	ActorPartner  = "partner"
	ActorCustomer = "customer"
)

var (
	// ErrNoopTransition marks a same-state transition; callers treat it as a
	// distinct business outcome, not a generic failure.
	ErrNoopTransition = errors.New("noop transition")
	// ErrInvalidTransition marks a transition outside the actor's table.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrUnknownActor marks an actor outside partner/customer.
	ErrUnknownActor = errors.New("unknown actor")
)

// The legal transition set is a static table per actor so every allowed
// (actor, from, to) triple can be audited by reading the data, not the code.
var transitionsByActor = map[string]map[string][]string{
	ActorPartner: {
		types.BookingStatusRequested: {
			types.BookingStatusAccepted,
			types.BookingStatusAlternate,
			types.BookingStatusRejected,
		},
	},
	ActorCustomer: {
		types.BookingStatusAccepted:  {types.BookingStatusConfirmed},
		types.BookingStatusAlternate: {types.BookingStatusConfirmed},
	},
}

// Terminal destinations trigger the resolved timestamp.
var terminalStatuses = map[string]bool{
	types.BookingStatusRejected:  true,
	types.BookingStatusConfirmed: true,
}

// AssertTransition validates a requested booking status change and reports
// whether the destination is terminal.
func AssertTransition(fromStatus, toStatus, actor string) (bool, error) {
	table, ok := transitionsByActor[actor]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownActor, actor)
	}
	if fromStatus == toStatus {
		return false, fmt.Errorf("%w: booking already %s", ErrNoopTransition, fromStatus)
	}
	for _, allowed := range table[fromStatus] {
		if allowed == toStatus {
			return terminalStatuses[toStatus], nil
		}
	}
	return false, fmt.Errorf("%w: %s may not move %s to %s", ErrInvalidTransition, actor, fromStatus, toStatus)
}

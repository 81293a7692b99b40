// Package lifecycle implements the ticket status state machine and the
// transition controller that gates and sequences status changes.
package lifecycle

import (
	"errors"

	"github.com/akshayadesk/ticket-board/internal/model"
)

// Gate is the approval step a transition demands before any mutation is
// issued.
type Gate int

const (
	// GateNone transitions persist immediately; they are non-destructive
	// and reversible.
	GateNone Gate = iota
	// GateConfirm requires an explicit yes/no confirmation.  Applies to
	// cancellation, which closes billable work.
	GateConfirm
	// GateFinalize requires confirmation plus the finalize sub-flow:
	// amount resolution, optional document tracking, optional invoice.
	// Applies to completion.
	GateFinalize
)

var (
	// ErrSameStatus signals an identity transition; callers treat it as a
	// no-op rather than a failure.
	ErrSameStatus = errors.New("ticket already in requested status")
	// ErrTerminalStatus rejects transitions out of completed or cancelled
	// when reopening is disabled.
	ErrTerminalStatus = errors.New("ticket is in a terminal status")
)

// Machine is the transition table.  The same table governs both input
// modes (drag-and-drop and direct selection).
type Machine struct {
	allowReopen bool
}

// NewMachine builds a Machine.  allowReopen controls whether transitions
// out of completed/cancelled are permitted; the upstream dashboard leaves
// this ambiguous, so it is an explicit deployment choice here.
func NewMachine(allowReopen bool) Machine {
	return Machine{allowReopen: allowReopen}
}

// Plan validates a requested transition and returns the gate it must pass.
// The gate depends only on the target: completion finalizes, cancellation
// confirms, everything else flows through ungated.
func (m Machine) Plan(from, to model.Status) (Gate, error) {
	if from == to {
		return GateNone, ErrSameStatus
	}
	if from.Terminal() && !m.allowReopen {
		return GateNone, ErrTerminalStatus
	}
	switch to {
	case model.StatusCompleted:
		return GateFinalize, nil
	case model.StatusCancelled:
		return GateConfirm, nil
	default:
		return GateNone, nil
	}
}

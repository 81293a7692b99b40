package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStatus is returned when a status string outside the closed
// set of ticket states reaches the boundary.  Status values are validated
// on the way in so the rest of the application can match exhaustively.
var ErrUnknownStatus = errors.New("unknown ticket status")

// Status is the lifecycle state of a service ticket.  The set is closed:
// every Status held by the application has passed through ParseStatus.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus normalizes and validates a raw status string.  The upstream
// API is known to return upper-cased statuses, so the value is lower-cased
// before matching.  Anything outside the four known states is rejected
// with ErrUnknownStatus.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusInProgress:
		return StatusInProgress, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusCancelled:
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Terminal reports whether no further transitions are defined out of the
// status.  Completed and cancelled tickets are closed for billing purposes;
// reopening them is a deployment-level configuration choice.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Statuses returns all lifecycle states in board-column order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}
}

// Ticket is a service request tracked through its lifecycle.  The record
// is owned by the upstream ticket API; id and timestamps are assigned by
// the server.  Customer identity is cached on the ticket rather than
// joined from the customer directory.
//
// An Amount of zero or less is a sentinel meaning "to be decided"; such a
// ticket cannot be completed until a positive amount is finalized.
type Ticket struct {
	ID             string  `json:"id"`
	CustomerName   string  `json:"customerName"`
	CustomerPhone  string  `json:"customerPhone"`
	ServiceType    string  `json:"serviceType"`
	Amount         float64 `json:"amount"`
	Status         Status  `json:"status"`
	EmployeeID     string  `json:"employeeId"`
	EmployeeName   string  `json:"employeeName,omitempty"`
	EmployeeAvatar string  `json:"employeeAvatar,omitempty"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

// AmountTBD reports whether the ticket's amount is still the to-be-decided
// sentinel.
func (t Ticket) AmountTBD() bool { return t.Amount <= 0 }

// TicketFilter narrows a ticket listing.  Zero-valued fields are omitted
// from the upstream query.  CreatedAt is a calendar date (YYYY-MM-DD).
type TicketFilter struct {
	Search      string
	EmployeeID  string
	ServiceType string
	CreatedAt   string
}

package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/akshayadesk/ticket-board/internal/model"
)

// rawTicket mirrors the upstream ticket payload before status validation.
type rawTicket struct {
	ID             string  `json:"id"`
	CustomerName   string  `json:"customerName"`
	CustomerPhone  string  `json:"customerPhone"`
	ServiceType    string  `json:"serviceType"`
	Amount         float64 `json:"amount"`
	Status         string  `json:"status"`
	EmployeeID     string  `json:"employeeId"`
	EmployeeName   string  `json:"employeeName"`
	EmployeeAvatar string  `json:"employeeAvatar"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

func (r rawTicket) toModel() (model.Ticket, error) {
	status, err := model.ParseStatus(r.Status)
	if err != nil {
		return model.Ticket{}, fmt.Errorf("ticket %s: %w", r.ID, err)
	}
	return model.Ticket{
		ID:             r.ID,
		CustomerName:   r.CustomerName,
		CustomerPhone:  r.CustomerPhone,
		ServiceType:    r.ServiceType,
		Amount:         r.Amount,
		Status:         status,
		EmployeeID:     r.EmployeeID,
		EmployeeName:   r.EmployeeName,
		EmployeeAvatar: r.EmployeeAvatar,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}

// ListTickets returns the authoritative ticket list for the given filters.
// It is used both for initial board loads and for the post-mutation
// re-sync.  Statuses are validated at this boundary so everything past the
// client works with the closed status set.
func (c *Client) ListTickets(ctx context.Context, cred Credential, f model.TicketFilter) ([]model.Ticket, error) {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.EmployeeID != "" {
		q.Set("employeeId", f.EmployeeID)
	}
	if f.ServiceType != "" {
		q.Set("serviceType", f.ServiceType)
	}
	if f.CreatedAt != "" {
		q.Set("createdAt", f.CreatedAt)
	}

	var raw []rawTicket
	if err := c.do(ctx, cred, http.MethodGet, "/tickets", q, nil, &raw); err != nil {
		return nil, err
	}
	tickets := make([]model.Ticket, 0, len(raw))
	for _, r := range raw {
		t, err := r.toModel()
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}

// CreateTicketInput is the payload for creating a ticket.  The server
// assigns id, timestamps and the initial pending status.
type CreateTicketInput struct {
	CustomerName  string  `json:"customerName"`
	CustomerPhone string  `json:"customerPhone"`
	ServiceType   string  `json:"serviceType"`
	Amount        float64 `json:"amount,omitempty"`
	EmployeeID    string  `json:"userId"`
}

// CreateTicket creates a new ticket.  The service type is upper-cased by
// convention before it is sent.
func (c *Client) CreateTicket(ctx context.Context, cred Credential, in CreateTicketInput) (model.Ticket, error) {
	in.ServiceType = strings.ToUpper(in.ServiceType)
	var raw rawTicket
	if err := c.do(ctx, cred, http.MethodPost, "/tickets", nil, in, &raw); err != nil {
		return model.Ticket{}, err
	}
	return raw.toModel()
}

// UpdateTicketInput carries non-status field edits.  Nil fields are left
// unchanged on the server.
type UpdateTicketInput struct {
	CustomerName   *string  `json:"customerName,omitempty"`
	CustomerPhone  *string  `json:"customerPhone,omitempty"`
	ServiceType    *string  `json:"serviceType,omitempty"`
	Amount         *float64 `json:"amount,omitempty"`
	EmployeeID     *string  `json:"employeeId,omitempty"`
	EmployeeName   *string  `json:"employeeName,omitempty"`
	EmployeeAvatar *string  `json:"employeeAvatar,omitempty"`
}

// UpdateTicket edits ticket fields other than status.  Status changes go
// through UpdateTicketStatus only.
func (c *Client) UpdateTicket(ctx context.Context, cred Credential, ticketID string, in UpdateTicketInput) (model.Ticket, error) {
	if in.ServiceType != nil {
		up := strings.ToUpper(*in.ServiceType)
		in.ServiceType = &up
	}
	var raw rawTicket
	if err := c.do(ctx, cred, http.MethodPatch, "/tickets/"+ticketID, nil, in, &raw); err != nil {
		return model.Ticket{}, err
	}
	return raw.toModel()
}

// UpdateTicketStatus persists a gated status transition.  The call does
// not return until the server has durably applied the change, so a
// subsequent list re-fetch always reflects it.  The amount is included
// only when finalization resolved one.
func (c *Client) UpdateTicketStatus(ctx context.Context, cred Credential, ticketID string, status model.Status, amount *float64) (model.Ticket, error) {
	body := struct {
		Status string   `json:"status"`
		Amount *float64 `json:"amount,omitempty"`
	}{Status: string(status), Amount: amount}

	var raw rawTicket
	if err := c.do(ctx, cred, http.MethodPut, "/tickets/"+ticketID+"/status", nil, body, &raw); err != nil {
		return model.Ticket{}, err
	}
	return raw.toModel()
}

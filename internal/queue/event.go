// Package queue defines message payloads exchanged over the message broker.
package queue

// InvoiceRequestedEvent is published when a completed ticket requests an
// invoice notification.  It carries enough information for downstream
// consumers to log or reconcile billing without querying the upstream API.
// It deliberately excludes the operator's credential; the actual delivery
// is made synchronously by the transition controller.
type InvoiceRequestedEvent struct {
	EventID       string  `json:"event_id"`
	TicketID      string  `json:"ticket_id"`
	CustomerName  string  `json:"customer_name"`
	CustomerPhone string  `json:"customer_phone"`
	ServiceType   string  `json:"service_type"`
	Amount        float64 `json:"amount"`
	Channel       string  `json:"channel"`
	RequestedAt   string  `json:"requested_at"`
}

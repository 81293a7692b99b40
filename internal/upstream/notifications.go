package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/akshayadesk/ticket-board/internal/model"
)

// NotificationInput describes one outbound customer notification.  Phone
// is required for sms and whatsapp, Email for email.  Subject only applies
// to email.
type NotificationInput struct {
	Channel model.Channel
	Phone   string
	Email   string
	Subject string
	Message string
}

// SendNotification dispatches a notification through the upstream
// provider.  The payload shape differs per channel, matching the
// provider's contract.  Callers treat failures as best-effort when the
// send follows an already-committed mutation.
func (c *Client) SendNotification(ctx context.Context, cred Credential, in NotificationInput) error {
	var body any
	switch in.Channel {
	case model.ChannelSMS:
		body = struct {
			Type    string `json:"type"`
			Phone   string `json:"phone"`
			Message string `json:"message"`
		}{Type: "sms", Phone: in.Phone, Message: in.Message}
	case model.ChannelWhatsApp:
		body = struct {
			Type    string `json:"type"`
			Phone   string `json:"phone"`
			Message string `json:"message"`
		}{Type: "whatsapp", Phone: in.Phone, Message: in.Message}
	case model.ChannelEmail:
		body = struct {
			Type    string `json:"type"`
			Email   string `json:"email"`
			Subject string `json:"subject"`
			Message string `json:"message"`
		}{Type: "email", Email: in.Email, Subject: in.Subject, Message: in.Message}
	default:
		return fmt.Errorf("%w: %q", model.ErrUnknownChannel, in.Channel)
	}

	return c.do(ctx, cred, http.MethodPost, "/notifications/send", nil, body, nil)
}

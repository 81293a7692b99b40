package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownChannel is returned when a notification channel outside the
// supported set is requested.
var ErrUnknownChannel = errors.New("unknown notification channel")

// Channel is a delivery channel for customer notifications.
type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelEmail    Channel = "email"
)

// ParseChannel validates a raw channel string.
func ParseChannel(s string) (Channel, error) {
	switch Channel(strings.ToLower(strings.TrimSpace(s))) {
	case ChannelSMS:
		return ChannelSMS, nil
	case ChannelWhatsApp:
		return ChannelWhatsApp, nil
	case ChannelEmail:
		return ChannelEmail, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownChannel, s)
}

// AlertLog is one entry in the notification history kept by the upstream
// API.  Success and error state describe the delivery attempt.
type AlertLog struct {
	ID            string  `json:"id"`
	CustomerPhone string  `json:"customer_phone"`
	CustomerEmail *string `json:"customer_email"`
	Channel       string  `json:"channel"`
	Message       string  `json:"message"`
	Success       bool    `json:"success"`
	ErrorMessage  *string `json:"error_message"`
	CreatedAt     string  `json:"created_at"`
	Employee      struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Avatar string `json:"avatar,omitempty"`
	} `json:"employee"`
}

// Pagination describes the page window of a paginated upstream listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PaginatedAlertLog is a page of the notification history.
type PaginatedAlertLog struct {
	AlertLogs  []AlertLog `json:"alertLogs"`
	Pagination Pagination `json:"pagination"`
}

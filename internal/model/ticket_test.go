package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	t.Run("accepts known statuses", func(t *testing.T) {
		for _, s := range []string{"pending", "in_progress", "completed", "cancelled"} {
			got, err := ParseStatus(s)
			assert.NoError(t, err)
			assert.Equal(t, Status(s), got)
		}
	})

	t.Run("normalizes upstream casing", func(t *testing.T) {
		got, err := ParseStatus("IN_PROGRESS")
		assert.NoError(t, err)
		assert.Equal(t, StatusInProgress, got)

		got, err = ParseStatus("  Completed ")
		assert.NoError(t, err)
		assert.Equal(t, StatusCompleted, got)
	})

	t.Run("rejects anything outside the closed set", func(t *testing.T) {
		for _, s := range []string{"", "done", "open", "pending "} {
			_, err := ParseStatus(s)
			if s == "pending " {
				// trimmed, so valid
				assert.NoError(t, err)
				continue
			}
			assert.True(t, errors.Is(err, ErrUnknownStatus), "status %q", s)
		}
	})
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestAmountTBD(t *testing.T) {
	assert.True(t, Ticket{Amount: 0}.AmountTBD())
	assert.True(t, Ticket{Amount: -5}.AmountTBD())
	assert.False(t, Ticket{Amount: 0.01}.AmountTBD())
}

func TestParseChannel(t *testing.T) {
	for _, s := range []string{"sms", "whatsapp", "email"} {
		got, err := ParseChannel(s)
		assert.NoError(t, err)
		assert.Equal(t, Channel(s), got)
	}
	_, err := ParseChannel("call")
	assert.True(t, errors.Is(err, ErrUnknownChannel))
}

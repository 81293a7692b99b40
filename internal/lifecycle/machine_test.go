package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akshayadesk/ticket-board/internal/model"
)

func TestMachinePlan(t *testing.T) {
	m := NewMachine(false)

	t.Run("identity transition is a no-op signal", func(t *testing.T) {
		for _, s := range model.Statuses() {
			_, err := m.Plan(s, s)
			assert.True(t, errors.Is(err, ErrSameStatus), "status %s", s)
		}
	})

	t.Run("in_progress is ungated", func(t *testing.T) {
		gate, err := m.Plan(model.StatusPending, model.StatusInProgress)
		assert.NoError(t, err)
		assert.Equal(t, GateNone, gate)
	})

	t.Run("completion finalizes", func(t *testing.T) {
		for _, from := range []model.Status{model.StatusPending, model.StatusInProgress} {
			gate, err := m.Plan(from, model.StatusCompleted)
			assert.NoError(t, err)
			assert.Equal(t, GateFinalize, gate)
		}
	})

	t.Run("cancellation confirms", func(t *testing.T) {
		for _, from := range []model.Status{model.StatusPending, model.StatusInProgress} {
			gate, err := m.Plan(from, model.StatusCancelled)
			assert.NoError(t, err)
			assert.Equal(t, GateConfirm, gate)
		}
	})

	t.Run("terminal states are closed by default", func(t *testing.T) {
		_, err := m.Plan(model.StatusCompleted, model.StatusPending)
		assert.True(t, errors.Is(err, ErrTerminalStatus))
		_, err = m.Plan(model.StatusCancelled, model.StatusInProgress)
		assert.True(t, errors.Is(err, ErrTerminalStatus))
	})
}

func TestMachinePlan_ReopenEnabled(t *testing.T) {
	m := NewMachine(true)

	gate, err := m.Plan(model.StatusCompleted, model.StatusInProgress)
	assert.NoError(t, err)
	assert.Equal(t, GateNone, gate)

	// Reopening into another terminal state still passes its gate.
	gate, err = m.Plan(model.StatusCancelled, model.StatusCompleted)
	assert.NoError(t, err)
	assert.Equal(t, GateFinalize, gate)
}

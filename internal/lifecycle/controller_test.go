package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akshayadesk/ticket-board/internal/audit"
	"github.com/akshayadesk/ticket-board/internal/model"
	"github.com/akshayadesk/ticket-board/internal/queue"
	"github.com/akshayadesk/ticket-board/internal/store"
	"github.com/akshayadesk/ticket-board/internal/upstream"
)

// stubRemote backs a real store.Store so controller tests exercise the
// full optimistic-apply/persist/re-sync path.
type stubRemote struct {
	tickets     []model.Ticket
	updateCalls []struct {
		ticketID string
		status   model.Status
		amount   *float64
	}
	updateErr error
}

func (s *stubRemote) UpdateTicketStatus(_ context.Context, _ upstream.Credential, ticketID string, status model.Status, amount *float64) (model.Ticket, error) {
	s.updateCalls = append(s.updateCalls, struct {
		ticketID string
		status   model.Status
		amount   *float64
	}{ticketID, status, amount})
	if s.updateErr != nil {
		return model.Ticket{}, s.updateErr
	}
	for i := range s.tickets {
		if s.tickets[i].ID == ticketID {
			s.tickets[i].Status = status
			if amount != nil {
				s.tickets[i].Amount = *amount
			}
			return s.tickets[i], nil
		}
	}
	return model.Ticket{}, errors.New("no such ticket upstream")
}

func (s *stubRemote) ListTickets(_ context.Context, _ upstream.Credential, _ model.TicketFilter) ([]model.Ticket, error) {
	out := make([]model.Ticket, len(s.tickets))
	copy(out, s.tickets)
	return out, nil
}

type stubDirectory struct {
	customer *model.Customer
	err      error
	calls    int
}

func (s *stubDirectory) ResolveCustomerByPhone(context.Context, upstream.Credential, string) (*model.Customer, error) {
	s.calls++
	return s.customer, s.err
}

type stubDocuments struct {
	inputs []upstream.AddDocumentInput
	err    error
}

func (s *stubDocuments) AddDocument(_ context.Context, _ upstream.Credential, _ string, in upstream.AddDocumentInput) (model.CustomerDocument, error) {
	s.inputs = append(s.inputs, in)
	if s.err != nil {
		return model.CustomerDocument{}, s.err
	}
	return model.CustomerDocument{ID: "doc-1", DocType: in.DocType}, nil
}

type stubInvoices struct {
	inputs []upstream.NotificationInput
	err    error
}

func (s *stubInvoices) SendNotification(_ context.Context, _ upstream.Credential, in upstream.NotificationInput) error {
	s.inputs = append(s.inputs, in)
	return s.err
}

type stubEvents struct {
	events []queue.InvoiceRequestedEvent
}

func (s *stubEvents) PublishInvoiceRequested(_ context.Context, ev queue.InvoiceRequestedEvent) error {
	s.events = append(s.events, ev)
	return nil
}

type stubTrail struct {
	records []audit.Record
}

func (s *stubTrail) Insert(_ context.Context, rec audit.Record) error {
	s.records = append(s.records, rec)
	return nil
}

type fixture struct {
	remote    *stubRemote
	store     *store.Store
	directory *stubDirectory
	documents *stubDocuments
	invoices  *stubInvoices
	events    *stubEvents
	trail     *stubTrail
	ctrl      *Controller
}

func newFixture(t *testing.T, tickets []model.Ticket) *fixture {
	t.Helper()
	f := &fixture{
		remote:    &stubRemote{tickets: tickets},
		directory: &stubDirectory{},
		documents: &stubDocuments{},
		invoices:  &stubInvoices{},
		events:    &stubEvents{},
		trail:     &stubTrail{},
	}
	f.store = store.New(f.remote, zap.NewNop())
	require.NoError(t, f.store.Load(context.Background(), upstream.Credential{}, model.TicketFilter{}))
	f.ctrl = NewController(NewMachine(false), f.store, f.directory, f.documents, f.invoices, f.events, f.trail, zap.NewNop())
	f.ctrl.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }
	return f
}

func pendingTBD(id string) model.Ticket {
	return model.Ticket{
		ID: id, CustomerName: "Anil Kumar", CustomerPhone: "9876543210",
		ServiceType: "PAN CARD", Amount: 0, Status: model.StatusPending,
		UpdatedAt: "2024-05-30T09:00:00Z",
	}
}

func TestRequest_NoOpIdentityTransition(t *testing.T) {
	f := newFixture(t, []model.Ticket{pendingTBD("t1")})

	res, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
		TicketID: "t1", Target: model.StatusPending,
	})
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	assert.Empty(t, f.remote.updateCalls, "identity transition must not persist")

	got, _ := f.store.Get("t1")
	assert.Equal(t, "2024-05-30T09:00:00Z", got.UpdatedAt)
}

func TestRequest_InProgressPersistsImmediately(t *testing.T) {
	f := newFixture(t, []model.Ticket{pendingTBD("t1")})

	res, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
		TicketID: "t1", Target: model.StatusInProgress, // not confirmed: no gate applies
	})
	require.NoError(t, err)
	assert.False(t, res.NoOp)
	assert.Equal(t, model.StatusInProgress, res.Ticket.Status)
	require.Len(t, f.remote.updateCalls, 1)
}

func TestRequest_GatedTargetsRequireConfirmation(t *testing.T) {
	for _, target := range []model.Status{model.StatusCompleted, model.StatusCancelled} {
		f := newFixture(t, []model.Ticket{pendingTBD("t1")})

		_, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
			TicketID: "t1", Target: target,
		})
		assert.True(t, errors.Is(err, ErrConfirmationRequired), "target %s", target)
		assert.Empty(t, f.remote.updateCalls, "gate must precede persist for %s", target)
	}
}

func TestRequest_ConfirmedCancellationPersists(t *testing.T) {
	f := newFixture(t, []model.Ticket{pendingTBD("t1")})

	res, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
		TicketID: "t1", Target: model.StatusCancelled, Confirmed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, res.Ticket.Status)
	require.Len(t, f.remote.updateCalls, 1)
	assert.Nil(t, f.remote.updateCalls[0].amount)
}

func TestRequest_CompletionAmountGate(t *testing.T) {
	t.Run("TBD amount without finalize amount is rejected before any call", func(t *testing.T) {
		f := newFixture(t, []model.Ticket{pendingTBD("t1")})

		_, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
			TicketID: "t1", Target: model.StatusCompleted, Confirmed: true,
			Finalize: &FinalizeInput{},
		})
		assert.True(t, errors.Is(err, ErrAmountRequired))
		assert.Empty(t, f.remote.updateCalls)
	})

	t.Run("non-positive finalize amount is rejected", func(t *testing.T) {
		f := newFixture(t, []model.Ticket{pendingTBD("t1")})

		bad := -10.0
		_, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
			TicketID: "t1", Target: model.StatusCompleted, Confirmed: true,
			Finalize: &FinalizeInput{Amount: &bad},
		})
		assert.True(t, errors.Is(err, ErrInvalidAmount))
		assert.Empty(t, f.remote.updateCalls)
	})

	t.Run("priced ticket carries its amount forward", func(t *testing.T) {
		priced := pendingTBD("t1")
		priced.Amount = 350
		f := newFixture(t, []model.Ticket{priced})

		res, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
			TicketID: "t1", Target: model.StatusCompleted, Confirmed: true,
			Finalize: &FinalizeInput{},
		})
		require.NoError(t, err)
		assert.Equal(t, 350.0, res.Ticket.Amount)
		require.Len(t, f.remote.updateCalls, 1)
		require.NotNil(t, f.remote.updateCalls[0].amount)
		assert.Equal(t, 350.0, *f.remote.updateCalls[0].amount)
	})
}

// The happy-path completion scenario: TBD ticket dragged to completed,
// confirmed, amount 500 entered, no document tracking, no invoice.
func TestRequest_CompletionEndToEnd(t *testing.T) {
	f := newFixture(t, []model.Ticket{pendingTBD("t1")})

	amount := 500.0
	res, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
		TicketID: "t1", Target: model.StatusCompleted, Confirmed: true,
		Finalize: &FinalizeInput{Amount: &amount},
	})
	require.NoError(t, err)

	require.Len(t, f.remote.updateCalls, 1, "exactly one status-update call")
	call := f.remote.updateCalls[0]
	assert.Equal(t, "t1", call.ticketID)
	assert.Equal(t, model.StatusCompleted, call.status)
	require.NotNil(t, call.amount)
	assert.Equal(t, 500.0, *call.amount)

	got, ok := f.store.Get("t1")
	require.True(t, ok)
	assert.Equal(t, model.StatusCompleted, got.Status)
	assert.Equal(t, 500.0, got.Amount)

	assert.False(t, res.DocumentAdded)
	assert.False(t, res.InvoiceSent)
	assert.Empty(t, f.documents.inputs)
	assert.Empty(t, f.invoices.inputs)
}

// The failure scenario: persist rejects, the store reverts, a single
// error surfaces, and no retry happens.
func TestRequest_PersistFailureRollsBack(t *testing.T) {
	f := newFixture(t, []model.Ticket{pendingTBD("t2")})
	f.remote.updateErr = &upstream.APIError{Message: "connection reset"}

	_, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
		TicketID: "t2", Target: model.StatusInProgress,
	})
	require.Error(t, err)
	require.Len(t, f.remote.updateCalls, 1, "no silent retry")

	got, ok := f.store.Get("t2")
	require.True(t, ok)
	assert.Equal(t, model.StatusPending, got.Status)

	require.NotEmpty(t, f.trail.records)
	assert.Equal(t, audit.OutcomeRolledBack, f.trail.records[len(f.trail.records)-1].Outcome)
}

func TestRequest_DocumentTracking(t *testing.T) {
	amount := 500.0

	t.Run("document write precedes and gates the status change", func(t *testing.T) {
		f := newFixture(t, []model.Ticket{pendingTBD("t1")})
		f.directory.customer = &model.Customer{ID: "c1", Phone: "9876543210"}
		f.documents.err = errors.New("documents service down")

		_, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
			TicketID: "t1", Target: model.StatusCompleted, Confirmed: true,
			Finalize: &FinalizeInput{Amount: &amount, TrackDocument: true, ExpiryDate: "2025-06-01"},
		})
		require.Error(t, err)
		assert.Empty(t, f.remote.updateCalls, "status mutation must not be attempted")

		got, _ := f.store.Get("t1")
		assert.Equal(t, model.StatusPending, got.Status)
	})

	t.Run("no customer record disables the option", func(t *testing.T) {
		f := newFixture(t, []model.Ticket{pendingTBD("t1")})
		f.directory.customer = nil

		_, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
			TicketID: "t1", Target: model.StatusCompleted, Confirmed: true,
			Finalize: &FinalizeInput{Amount: &amount, TrackDocument: true, ExpiryDate: "2025-06-01"},
		})
		assert.True(t, errors.Is(err, ErrDocumentUnavailable))
		assert.Empty(t, f.documents.inputs)
		assert.Empty(t, f.remote.updateCalls)
	})

	t.Run("defaults fill doc type, number and issue date", func(t *testing.T) {
		f := newFixture(t, []model.Ticket{pendingTBD("t1")})
		f.directory.customer = &model.Customer{ID: "c1", Phone: "9876543210"}

		res, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
			TicketID: "t1", Target: model.StatusCompleted, Confirmed: true,
			Finalize: &FinalizeInput{Amount: &amount, TrackDocument: true, ExpiryDate: "2025-06-01"},
		})
		require.NoError(t, err)
		assert.True(t, res.DocumentAdded)

		require.Len(t, f.documents.inputs, 1)
		doc := f.documents.inputs[0]
		assert.Equal(t, "PAN CARD", doc.DocType)
		assert.Equal(t, "9876543210", doc.DocNumber)
		assert.Equal(t, "2024-06-01", doc.IssueDate)
		assert.Equal(t, "2025-06-01", doc.ExpiryDate)
	})

	t.Run("malformed expiry date is rejected before lookups", func(t *testing.T) {
		f := newFixture(t, []model.Ticket{pendingTBD("t1")})

		_, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
			TicketID: "t1", Target: model.StatusCompleted, Confirmed: true,
			Finalize: &FinalizeInput{Amount: &amount, TrackDocument: true, ExpiryDate: "junk"},
		})
		assert.True(t, errors.Is(err, ErrDocumentFieldsMissing))
		assert.Zero(t, f.directory.calls)
	})
}

func TestRequest_Invoice(t *testing.T) {
	amount := 500.0

	t.Run("send failure does not roll back the completion", func(t *testing.T) {
		f := newFixture(t, []model.Ticket{pendingTBD("t1")})
		f.invoices.err = errors.New("sms gateway timeout")

		res, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
			TicketID: "t1", Target: model.StatusCompleted, Confirmed: true,
			Finalize: &FinalizeInput{Amount: &amount, SendInvoice: true, Channel: model.ChannelSMS},
		})
		require.NoError(t, err)
		assert.False(t, res.InvoiceSent)
		assert.Contains(t, res.InvoiceError, "sms gateway timeout")

		got, _ := f.store.Get("t1")
		assert.Equal(t, model.StatusCompleted, got.Status)
		assert.Empty(t, f.events.events, "no event for a failed send")
	})

	t.Run("successful send publishes the invoice event", func(t *testing.T) {
		f := newFixture(t, []model.Ticket{pendingTBD("t1")})

		res, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
			TicketID: "t1", Target: model.StatusCompleted, Confirmed: true,
			Finalize: &FinalizeInput{Amount: &amount, SendInvoice: true, Channel: model.ChannelWhatsApp},
		})
		require.NoError(t, err)
		assert.True(t, res.InvoiceSent)

		require.Len(t, f.invoices.inputs, 1)
		assert.Equal(t, model.ChannelWhatsApp, f.invoices.inputs[0].Channel)
		assert.Equal(t, "9876543210", f.invoices.inputs[0].Phone)

		require.Len(t, f.events.events, 1)
		assert.Equal(t, "t1", f.events.events[0].TicketID)
		assert.Equal(t, 500.0, f.events.events[0].Amount)
	})

	t.Run("email is not a valid invoice channel", func(t *testing.T) {
		f := newFixture(t, []model.Ticket{pendingTBD("t1")})

		_, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
			TicketID: "t1", Target: model.StatusCompleted, Confirmed: true,
			Finalize: &FinalizeInput{Amount: &amount, SendInvoice: true, Channel: model.ChannelEmail},
		})
		assert.True(t, errors.Is(err, ErrInvalidInvoiceChannel))
		assert.Empty(t, f.remote.updateCalls)
	})
}

func TestRequest_TerminalAndUnknown(t *testing.T) {
	done := pendingTBD("t1")
	done.Status = model.StatusCompleted
	done.Amount = 200

	t.Run("terminal tickets are closed", func(t *testing.T) {
		f := newFixture(t, []model.Ticket{done})

		_, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
			TicketID: "t1", Target: model.StatusPending,
		})
		assert.True(t, errors.Is(err, ErrTerminalStatus))
		require.NotEmpty(t, f.trail.records)
		assert.Equal(t, audit.OutcomeRejected, f.trail.records[0].Outcome)
	})

	t.Run("unknown ticket", func(t *testing.T) {
		f := newFixture(t, []model.Ticket{done})

		_, err := f.ctrl.Request(context.Background(), upstream.Credential{}, TransitionRequest{
			TicketID: "missing", Target: model.StatusCancelled, Confirmed: true,
		})
		assert.True(t, errors.Is(err, ErrTicketNotFound))
	})
}

func TestPortalOpened(t *testing.T) {
	t.Run("pending ticket auto-advances without a gate", func(t *testing.T) {
		f := newFixture(t, []model.Ticket{pendingTBD("t1")})

		res, err := f.ctrl.PortalOpened(context.Background(), upstream.Credential{}, "t1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusInProgress, res.Ticket.Status)
		require.Len(t, f.remote.updateCalls, 1)
	})

	t.Run("non-pending ticket is untouched", func(t *testing.T) {
		working := pendingTBD("t1")
		working.Status = model.StatusInProgress
		f := newFixture(t, []model.Ticket{working})

		res, err := f.ctrl.PortalOpened(context.Background(), upstream.Credential{}, "t1")
		require.NoError(t, err)
		assert.True(t, res.NoOp)
		assert.Empty(t, f.remote.updateCalls)
	})
}

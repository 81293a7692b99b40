package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akshayadesk/ticket-board/internal/audit"
	"github.com/akshayadesk/ticket-board/internal/model"
	"github.com/akshayadesk/ticket-board/internal/queue"
	"github.com/akshayadesk/ticket-board/internal/upstream"
)

var (
	// ErrTicketNotFound rejects transitions for tickets absent from the
	// loaded board view.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrConfirmationRequired is returned when a gated transition arrives
	// without explicit approval.  No network call has been made.
	ErrConfirmationRequired = errors.New("transition requires confirmation")
	// ErrFinalizeRequired is returned when a completion arrives confirmed
	// but without the finalize payload.
	ErrFinalizeRequired = errors.New("completion requires finalize details")
	// ErrAmountRequired is returned when a ticket with a to-be-decided
	// amount is completed without a finalize amount.
	ErrAmountRequired = errors.New("final amount is required to complete this ticket")
	// ErrInvalidAmount rejects non-positive finalize amounts.
	ErrInvalidAmount = errors.New("final amount must be greater than zero")
	// ErrInvalidInvoiceChannel rejects invoice channels outside the fixed
	// whatsapp/sms set.
	ErrInvalidInvoiceChannel = errors.New("invoice channel must be whatsapp or sms")
	// ErrDocumentFieldsMissing rejects document tracking with an empty or
	// malformed expiry date.
	ErrDocumentFieldsMissing = errors.New("document type and expiry date are required")
	// ErrDocumentUnavailable is returned when document tracking is
	// requested but no customer record resolves for the ticket's phone
	// number.  It disables the option rather than reporting a failure.
	ErrDocumentUnavailable = errors.New("customer record not found, cannot track document expiry")
)

// TicketStore is the store surface the controller drives.
type TicketStore interface {
	Get(ticketID string) (model.Ticket, bool)
	ApplyStatusChange(ctx context.Context, cred upstream.Credential, ticketID string, status model.Status, amount *float64) (model.Ticket, error)
}

// CustomerDirectory resolves customers by phone, best-effort.
type CustomerDirectory interface {
	ResolveCustomerByPhone(ctx context.Context, cred upstream.Credential, phone string) (*model.Customer, error)
}

// DocumentWriter records document-expiry entries.
type DocumentWriter interface {
	AddDocument(ctx context.Context, cred upstream.Credential, customerID string, in upstream.AddDocumentInput) (model.CustomerDocument, error)
}

// InvoiceSender dispatches customer notifications.
type InvoiceSender interface {
	SendNotification(ctx context.Context, cred upstream.Credential, in upstream.NotificationInput) error
}

// EventPublisher publishes domain events to the broker, best-effort.
type EventPublisher interface {
	PublishInvoiceRequested(ctx context.Context, ev queue.InvoiceRequestedEvent) error
}

// AuditTrail records transition attempts, best-effort.
type AuditTrail interface {
	Insert(ctx context.Context, rec audit.Record) error
}

// FinalizeInput carries the operator's finalize decisions for a
// completion.  Amount may be nil when the ticket already has a finalized
// amount; it is then carried over.  DocNumber defaults to the customer
// phone and DocType to the service type when left empty, matching the
// dashboard defaults.
type FinalizeInput struct {
	Amount        *float64
	TrackDocument bool
	DocType       string
	DocNumber     string
	ExpiryDate    string
	SendInvoice   bool
	Channel       model.Channel
}

// TransitionRequest is one requested status change, whether it came from
// drag-and-drop or a direct selection.
type TransitionRequest struct {
	TicketID  string
	Target    model.Status
	Confirmed bool
	Finalize  *FinalizeInput
}

// Result reports what a transition did.  NoOp is set for identity
// transitions.  InvoiceError carries a best-effort delivery failure that
// did not roll back the committed status change.
type Result struct {
	Ticket        model.Ticket
	NoOp          bool
	DocumentAdded bool
	InvoiceSent   bool
	InvoiceError  string
}

// Controller validates and sequences status transitions and drives the
// store's optimistic-update protocol.  It is the only writer of ticket
// status in the system.
type Controller struct {
	machine   Machine
	store     TicketStore
	customers CustomerDirectory
	documents DocumentWriter
	invoices  InvoiceSender
	events    EventPublisher
	trail     AuditTrail
	logger    *zap.Logger
	now       func() time.Time
}

// NewController wires the controller.  events and trail may be nil; both
// are best-effort side channels.
func NewController(machine Machine, store TicketStore, customers CustomerDirectory, documents DocumentWriter, invoices InvoiceSender, events EventPublisher, trail AuditTrail, logger *zap.Logger) *Controller {
	return &Controller{
		machine:   machine,
		store:     store,
		customers: customers,
		documents: documents,
		invoices:  invoices,
		events:    events,
		trail:     trail,
		logger:    logger,
		now:       time.Now,
	}
}

// Request runs one gated transition end to end.  Validation failures and
// unapproved gates return before any network call; persistence failures
// have already been rolled back by the store when they surface here.
func (c *Controller) Request(ctx context.Context, cred upstream.Credential, req TransitionRequest) (Result, error) {
	t, ok := c.store.Get(req.TicketID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrTicketNotFound, req.TicketID)
	}

	gate, err := c.machine.Plan(t.Status, req.Target)
	if errors.Is(err, ErrSameStatus) {
		// Dropping a card onto its own column: ignored, no persist.
		return Result{Ticket: t, NoOp: true}, nil
	}
	if err != nil {
		c.record(ctx, t, req.Target, nil, audit.OutcomeRejected, err.Error())
		return Result{}, err
	}

	switch gate {
	case GateConfirm:
		if !req.Confirmed {
			return Result{}, ErrConfirmationRequired
		}
	case GateFinalize:
		if !req.Confirmed {
			return Result{}, ErrConfirmationRequired
		}
		if req.Finalize == nil {
			return Result{}, ErrFinalizeRequired
		}
		return c.finalize(ctx, cred, t, *req.Finalize)
	}

	return c.apply(ctx, cred, t, req.Target, nil)
}

// PortalOpened advances a pending ticket to in_progress as a side effect
// of opening the service portal link.  The target is in_progress, so no
// confirmation gate applies and the gate cannot double-fire.  Tickets in
// any other status are left alone.
func (c *Controller) PortalOpened(ctx context.Context, cred upstream.Credential, ticketID string) (Result, error) {
	t, ok := c.store.Get(ticketID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrTicketNotFound, ticketID)
	}
	if t.Status != model.StatusPending {
		return Result{Ticket: t, NoOp: true}, nil
	}
	return c.apply(ctx, cred, t, model.StatusInProgress, nil)
}

// finalize runs the completion sub-flow.  Ordering is the contract:
// the optional document write happens first and gates the status
// mutation, the invoice send follows the successful mutation and never
// rolls it back.
func (c *Controller) finalize(ctx context.Context, cred upstream.Credential, t model.Ticket, in FinalizeInput) (Result, error) {
	amount, err := resolveAmount(t, in)
	if err != nil {
		c.record(ctx, t, model.StatusCompleted, in.Amount, audit.OutcomeRejected, err.Error())
		return Result{}, err
	}
	if in.SendInvoice && in.Channel != model.ChannelWhatsApp && in.Channel != model.ChannelSMS {
		return Result{}, ErrInvalidInvoiceChannel
	}

	documentAdded := false
	if in.TrackDocument {
		if err := c.writeDocument(ctx, cred, t, in); err != nil {
			return Result{}, err
		}
		documentAdded = true
	}

	res, err := c.apply(ctx, cred, t, model.StatusCompleted, &amount)
	if err != nil {
		// The document record, if any, stands: it is valid customer data
		// independent of the ticket's final state.
		return Result{}, err
	}
	res.DocumentAdded = documentAdded

	if in.SendInvoice {
		c.sendInvoice(ctx, cred, t, amount, in.Channel, &res)
	}
	return res, nil
}

// resolveAmount produces the finalized amount.  A to-be-decided ticket
// needs fresh positive input; a priced ticket keeps its amount unless the
// operator supplies a replacement.
func resolveAmount(t model.Ticket, in FinalizeInput) (float64, error) {
	if in.Amount != nil {
		if *in.Amount <= 0 {
			return 0, ErrInvalidAmount
		}
		return *in.Amount, nil
	}
	if t.AmountTBD() {
		return 0, ErrAmountRequired
	}
	return t.Amount, nil
}

func (c *Controller) writeDocument(ctx context.Context, cred upstream.Credential, t model.Ticket, in FinalizeInput) error {
	expiry, err := time.Parse("2006-01-02", in.ExpiryDate)
	if err != nil {
		return fmt.Errorf("%w: bad expiry date %q", ErrDocumentFieldsMissing, in.ExpiryDate)
	}

	cust, err := c.customers.ResolveCustomerByPhone(ctx, cred, t.CustomerPhone)
	if err != nil || cust == nil {
		// Lookup errors and misses both leave the option unavailable.
		if err != nil {
			c.logger.Warn("customer lookup failed during finalize",
				zap.String("ticket_id", t.ID), zap.Error(err))
		}
		return ErrDocumentUnavailable
	}

	docType := in.DocType
	if docType == "" {
		docType = t.ServiceType
	}
	docNumber := in.DocNumber
	if docNumber == "" {
		docNumber = t.CustomerPhone
	}

	_, err = c.documents.AddDocument(ctx, cred, cust.ID, upstream.AddDocumentInput{
		DocType:    docType,
		DocNumber:  docNumber,
		IssueDate:  c.now().UTC().Format("2006-01-02"),
		ExpiryDate: expiry.Format("2006-01-02"),
	})
	if err != nil {
		// Abort the whole finalize; the status mutation has not been
		// attempted yet.
		return fmt.Errorf("add document record: %w", err)
	}
	return nil
}

func (c *Controller) sendInvoice(ctx context.Context, cred upstream.Credential, t model.Ticket, amount float64, channel model.Channel, res *Result) {
	msg := fmt.Sprintf("Hi %s, your %s service is complete. Total amount: ₹%.2f. Thank you for visiting.",
		t.CustomerName, t.ServiceType, amount)
	err := c.invoices.SendNotification(ctx, cred, upstream.NotificationInput{
		Channel: channel,
		Phone:   t.CustomerPhone,
		Message: msg,
	})
	if err != nil {
		// Best-effort: the status change is already committed upstream.
		res.InvoiceError = err.Error()
		c.logger.Warn("invoice send failed after completion",
			zap.String("ticket_id", t.ID), zap.String("channel", string(channel)), zap.Error(err))
		return
	}
	res.InvoiceSent = true

	if c.events != nil {
		ev := queue.InvoiceRequestedEvent{
			EventID:       uuid.NewString(),
			TicketID:      t.ID,
			CustomerName:  t.CustomerName,
			CustomerPhone: t.CustomerPhone,
			ServiceType:   t.ServiceType,
			Amount:        amount,
			Channel:       string(channel),
			RequestedAt:   c.now().UTC().Format(time.RFC3339),
		}
		if err := c.events.PublishInvoiceRequested(ctx, ev); err != nil {
			c.logger.Warn("invoice event publish failed", zap.String("ticket_id", t.ID), zap.Error(err))
		}
	}
}

// apply issues the optimistic mutation and records the outcome.
func (c *Controller) apply(ctx context.Context, cred upstream.Credential, t model.Ticket, target model.Status, amount *float64) (Result, error) {
	updated, err := c.store.ApplyStatusChange(ctx, cred, t.ID, target, amount)
	if err != nil {
		c.record(ctx, t, target, amount, audit.OutcomeRolledBack, err.Error())
		return Result{}, err
	}
	c.record(ctx, t, target, amount, audit.OutcomeApplied, "")
	c.logger.Info("ticket transitioned",
		zap.String("ticket_id", t.ID),
		zap.String("from", string(t.Status)),
		zap.String("to", string(target)))
	return Result{Ticket: updated}, nil
}

// record writes an audit row, best-effort.
func (c *Controller) record(ctx context.Context, t model.Ticket, target model.Status, amount *float64, outcome audit.Outcome, detail string) {
	if c.trail == nil {
		return
	}
	rec := audit.Record{
		ID:         uuid.NewString(),
		TicketID:   t.ID,
		FromStatus: string(t.Status),
		ToStatus:   string(target),
		Amount:     amount,
		Outcome:    outcome,
		Detail:     detail,
	}
	if err := c.trail.Insert(ctx, rec); err != nil {
		c.logger.Warn("audit insert failed", zap.String("ticket_id", t.ID), zap.Error(err))
	}
}

package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/akshayadesk/ticket-board/internal/audit"
	"github.com/akshayadesk/ticket-board/internal/lifecycle"
	"github.com/akshayadesk/ticket-board/internal/model"
	"github.com/akshayadesk/ticket-board/internal/upstream"
)

// TransitionService is the controller surface the handler drives.
type TransitionService interface {
	Request(ctx context.Context, cred upstream.Credential, req lifecycle.TransitionRequest) (lifecycle.Result, error)
	PortalOpened(ctx context.Context, cred upstream.Credential, ticketID string) (lifecycle.Result, error)
}

// AuditReader lists recorded transition attempts for a ticket.
type AuditReader interface {
	ListByTicket(ctx context.Context, ticketID string, limit int) ([]audit.Record, error)
}

// TransitionHandler exposes the gated status-transition endpoints.
type TransitionHandler struct {
	Service TransitionService
	Audit   AuditReader
	Logger  *zap.Logger
}

// NewTransitionHandler constructs a TransitionHandler.  audit may be nil
// when no audit database is configured.
func NewTransitionHandler(service TransitionService, auditReader AuditReader, logger *zap.Logger) *TransitionHandler {
	if service == nil {
		panic("nil service passed to NewTransitionHandler")
	}
	return &TransitionHandler{Service: service, Audit: auditReader, Logger: logger}
}

// finalizeBody mirrors the finalize section of a transition request.
type finalizeBody struct {
	Amount        *float64 `json:"amount"`
	TrackDocument bool     `json:"trackDocument"`
	DocType       string   `json:"docType"`
	DocNumber     string   `json:"docNumber"`
	ExpiryDate    string   `json:"expiryDate"`
	SendInvoice   bool     `json:"sendInvoice"`
	Channel       string   `json:"channel"`
}

// UpdateStatus handles PUT /v1/tickets/:id/status.  The body carries the
// target status, the confirmation flag for gated transitions, and the
// finalize payload for completions.  An unapproved gate is answered with
// 409 and confirmationRequired so the client can raise its dialog and
// retry with confirmed=true.
func (h *TransitionHandler) UpdateStatus(c echo.Context) error {
	ticketID := c.Param("id")
	if ticketID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	var body struct {
		Status    string        `json:"status"`
		Confirmed bool          `json:"confirmed"`
		Finalize  *finalizeBody `json:"finalize"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	target, err := model.ParseStatus(body.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	req := lifecycle.TransitionRequest{
		TicketID:  ticketID,
		Target:    target,
		Confirmed: body.Confirmed,
	}
	if body.Finalize != nil {
		fin := lifecycle.FinalizeInput{
			Amount:        body.Finalize.Amount,
			TrackDocument: body.Finalize.TrackDocument,
			DocType:       body.Finalize.DocType,
			DocNumber:     body.Finalize.DocNumber,
			ExpiryDate:    body.Finalize.ExpiryDate,
			SendInvoice:   body.Finalize.SendInvoice,
		}
		if body.Finalize.SendInvoice {
			ch, err := model.ParseChannel(body.Finalize.Channel)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
			}
			fin.Channel = ch
		}
		req.Finalize = &fin
	}

	res, err := h.Service.Request(c.Request().Context(), credential(c), req)
	if err != nil {
		return h.transitionError(c, err)
	}
	return c.JSON(http.StatusOK, transitionResponse(res))
}

// OpenPortal handles POST /v1/tickets/:id/portal.  Opening a service
// portal link auto-advances a pending ticket to in_progress; tickets in
// any other status are untouched.
func (h *TransitionHandler) OpenPortal(c echo.Context) error {
	ticketID := c.Param("id")
	if ticketID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	res, err := h.Service.PortalOpened(c.Request().Context(), credential(c), ticketID)
	if err != nil {
		return h.transitionError(c, err)
	}
	return c.JSON(http.StatusOK, transitionResponse(res))
}

// ListTransitions handles GET /v1/tickets/:id/transitions, returning the
// locally recorded transition attempts, newest first.
func (h *TransitionHandler) ListTransitions(c echo.Context) error {
	if h.Audit == nil {
		return c.JSON(http.StatusNotImplemented, echo.Map{"error": "transition audit not configured"})
	}
	ticketID := c.Param("id")
	if ticketID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	records, err := h.Audit.ListByTicket(c.Request().Context(), ticketID, 50)
	if err != nil {
		h.Logger.Warn("audit listing failed", zap.String("ticket_id", ticketID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load transition history"})
	}
	return c.JSON(http.StatusOK, echo.Map{"transitions": records})
}

func transitionResponse(res lifecycle.Result) echo.Map {
	out := echo.Map{
		"ticket": res.Ticket,
		"noOp":   res.NoOp,
	}
	if res.DocumentAdded {
		out["documentAdded"] = true
	}
	if res.InvoiceSent {
		out["invoiceSent"] = true
	}
	if res.InvoiceError != "" {
		// The status change is committed; the client shows this as a
		// warning, not a failure.
		out["invoiceError"] = res.InvoiceError
	}
	return out
}

func (h *TransitionHandler) transitionError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrTicketNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrConfirmationRequired):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":                err.Error(),
			"confirmationRequired": true,
		})
	case errors.Is(err, lifecycle.ErrTerminalStatus):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrDocumentUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":               err.Error(),
			"documentUnavailable": true,
		})
	case errors.Is(err, lifecycle.ErrFinalizeRequired),
		errors.Is(err, lifecycle.ErrAmountRequired),
		errors.Is(err, lifecycle.ErrInvalidAmount),
		errors.Is(err, lifecycle.ErrInvalidInvoiceChannel),
		errors.Is(err, lifecycle.ErrDocumentFieldsMissing),
		errors.Is(err, model.ErrUnknownStatus):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		// Persistence failure: the store has already rolled back.
		return c.JSON(upstreamStatus(err), echo.Map{"error": err.Error()})
	}
}

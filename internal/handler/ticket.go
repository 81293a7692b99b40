package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/akshayadesk/ticket-board/internal/store"
	"github.com/akshayadesk/ticket-board/internal/upstream"
)

// TicketHandler covers ticket creation and non-status field edits.  Both
// are pass-throughs to the upstream API followed by a board reload so the
// store reflects the change.
type TicketHandler struct {
	Upstream *upstream.Client
	Store    *store.Store
	Logger   *zap.Logger
}

// NewTicketHandler constructs a TicketHandler.
func NewTicketHandler(client *upstream.Client, st *store.Store, logger *zap.Logger) *TicketHandler {
	if client == nil || st == nil {
		panic("nil dependency passed to NewTicketHandler")
	}
	return &TicketHandler{Upstream: client, Store: st, Logger: logger}
}

// CreateTicket handles POST /v1/tickets.  The server assigns id,
// timestamps and the initial pending status.
func (h *TicketHandler) CreateTicket(c echo.Context) error {
	var body struct {
		CustomerName  string  `json:"customerName"`
		CustomerPhone string  `json:"customerPhone"`
		ServiceType   string  `json:"serviceType"`
		Amount        float64 `json:"amount"`
		EmployeeID    string  `json:"employeeId"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.CustomerName) == "" || strings.TrimSpace(body.CustomerPhone) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customerName and customerPhone are required"})
	}
	if strings.TrimSpace(body.ServiceType) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "serviceType is required"})
	}
	if body.Amount < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount cannot be negative"})
	}

	cred := credential(c)
	ctx := c.Request().Context()
	ticket, err := h.Upstream.CreateTicket(ctx, cred, upstream.CreateTicketInput{
		CustomerName:  body.CustomerName,
		CustomerPhone: body.CustomerPhone,
		ServiceType:   body.ServiceType,
		Amount:        body.Amount,
		EmployeeID:    body.EmployeeID,
	})
	if err != nil {
		return c.JSON(upstreamStatus(err), echo.Map{"error": err.Error()})
	}

	if h.Store.Loaded() {
		if err := h.Store.Load(ctx, cred, h.Store.Filter()); err != nil {
			h.Logger.Warn("board reload after create failed", zap.Error(err))
		}
	}
	return c.JSON(http.StatusCreated, ticket)
}

// UpdateTicket handles PATCH /v1/tickets/:id for non-status field edits.
// Status never moves through this endpoint; transitions have their own
// gated path.
func (h *TicketHandler) UpdateTicket(c echo.Context) error {
	ticketID := c.Param("id")
	if ticketID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}

	var body upstream.UpdateTicketInput
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Amount != nil && *body.Amount < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount cannot be negative"})
	}

	cred := credential(c)
	ctx := c.Request().Context()
	ticket, err := h.Upstream.UpdateTicket(ctx, cred, ticketID, body)
	if err != nil {
		return c.JSON(upstreamStatus(err), echo.Map{"error": err.Error()})
	}

	if h.Store.Loaded() {
		if err := h.Store.Load(ctx, cred, h.Store.Filter()); err != nil {
			h.Logger.Warn("board reload after edit failed", zap.Error(err))
		}
	}
	return c.JSON(http.StatusOK, ticket)
}

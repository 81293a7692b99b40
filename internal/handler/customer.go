package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/akshayadesk/ticket-board/internal/upstream"
)

// CustomerHandler exposes the document-expiry and notification-history
// listings, thin pass-throughs to the upstream API.
type CustomerHandler struct {
	Upstream *upstream.Client
	Logger   *zap.Logger
}

// NewCustomerHandler constructs a CustomerHandler.
func NewCustomerHandler(client *upstream.Client, logger *zap.Logger) *CustomerHandler {
	if client == nil {
		panic("nil client passed to NewCustomerHandler")
	}
	return &CustomerHandler{Upstream: client, Logger: logger}
}

// ListExpirations handles GET /v1/expirations.  Query parameters: range
// (day window such as 30d), search, sort (asc/desc).
func (h *CustomerHandler) ListExpirations(c echo.Context) error {
	out, err := h.Upstream.ListExpirations(c.Request().Context(), credential(c), upstream.ExpirationParams{
		Range:  c.QueryParam("range"),
		Search: c.QueryParam("search"),
		Sort:   c.QueryParam("sort"),
	})
	if err != nil {
		return c.JSON(upstreamStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}

// ListAlerts handles GET /v1/alerts, the paginated notification history.
func (h *CustomerHandler) ListAlerts(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	out, err := h.Upstream.NotificationHistory(c.Request().Context(), credential(c), upstream.HistoryParams{
		Phone:   c.QueryParam("phone"),
		Email:   c.QueryParam("email"),
		Channel: c.QueryParam("channel"),
		Page:    page,
		Limit:   limit,
	})
	if err != nil {
		return c.JSON(upstreamStatus(err), echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, out)
}

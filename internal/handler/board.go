package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/akshayadesk/ticket-board/internal/model"
	"github.com/akshayadesk/ticket-board/internal/store"
)

// BoardHandler serves the kanban board: the filtered ticket list grouped
// into status columns.  Loading the board replaces the store's active
// view, which subsequent transitions operate against — the store mirrors
// the most recently loaded board, the same way the dashboard holds one
// filtered list at a time.
type BoardHandler struct {
	Store  *store.Store
	Logger *zap.Logger
}

// NewBoardHandler constructs a BoardHandler.
func NewBoardHandler(st *store.Store, logger *zap.Logger) *BoardHandler {
	if st == nil {
		panic("nil store passed to NewBoardHandler")
	}
	return &BoardHandler{Store: st, Logger: logger}
}

// GetBoard handles GET /v1/board.  Query parameters narrow the listing:
// search, employeeId, serviceType, createdAt (YYYY-MM-DD).  The response
// contains the full list plus per-status buckets in column order.
func (h *BoardHandler) GetBoard(c echo.Context) error {
	f := model.TicketFilter{
		Search:      c.QueryParam("search"),
		EmployeeID:  c.QueryParam("employeeId"),
		ServiceType: c.QueryParam("serviceType"),
		CreatedAt:   c.QueryParam("createdAt"),
	}

	if err := h.Store.Load(c.Request().Context(), credential(c), f); err != nil {
		h.Logger.Warn("board load failed", zap.Error(err))
		return c.JSON(upstreamStatus(err), echo.Map{"error": err.Error()})
	}

	buckets := h.Store.GroupByStatus()
	return c.JSON(http.StatusOK, echo.Map{
		"tickets": h.Store.Snapshot(),
		"board":   buckets,
		"columns": model.Statuses(),
		"counts": echo.Map{
			"pending":     len(buckets[model.StatusPending]),
			"in_progress": len(buckets[model.StatusInProgress]),
			"completed":   len(buckets[model.StatusCompleted]),
			"cancelled":   len(buckets[model.StatusCancelled]),
		},
	})
}

// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/akshayadesk/ticket-board/internal/config"
	"github.com/akshayadesk/ticket-board/internal/handler"
	"github.com/akshayadesk/ticket-board/internal/middleware"
)

// Handlers groups everything the router needs to wire the API surface.
type Handlers struct {
	Board      *handler.BoardHandler
	Ticket     *handler.TicketHandler
	Transition *handler.TransitionHandler
	Customer   *handler.CustomerHandler
}

// RegisterRoutes registers all routes.  The health check stays
// unauthenticated for load balancers; everything else lives under /v1
// behind bearer-token validation and the shared rate limiter.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.NewTokenBucket(rlCfg, rdb))

	// Board view: the filtered ticket list grouped into status columns.
	v1.GET("/board", h.Board.GetBoard)

	// Ticket creation and non-status field edits.
	v1.POST("/tickets", h.Ticket.CreateTicket)
	v1.PATCH("/tickets/:id", h.Ticket.UpdateTicket)

	// Gated status transitions and the portal quick-action, plus the
	// locally recorded transition history.
	v1.PUT("/tickets/:id/status", h.Transition.UpdateStatus)
	v1.POST("/tickets/:id/portal", h.Transition.OpenPortal)
	v1.GET("/tickets/:id/transitions", h.Transition.ListTransitions)

	// Upstream pass-throughs used by the expirations and alerts screens.
	v1.GET("/expirations", h.Customer.ListExpirations)
	v1.GET("/alerts", h.Customer.ListAlerts)
}

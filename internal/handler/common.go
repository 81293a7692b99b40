package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/akshayadesk/ticket-board/internal/middleware"
	"github.com/akshayadesk/ticket-board/internal/upstream"
)

// credential builds the explicit upstream credential from the bearer
// token the JWT middleware stored on the request.
func credential(c echo.Context) upstream.Credential {
	return upstream.Credential{Token: middleware.Token(c)}
}

// upstreamStatus maps an upstream failure onto the status this service
// reports.  Upstream rejections keep their own status where it makes
// sense; transport failures surface as a bad gateway.
func upstreamStatus(err error) int {
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusNotFound:
			return http.StatusNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return apiErr.Status
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return http.StatusBadRequest
		}
	}
	return http.StatusBadGateway
}

package handler

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/locvowork/dayplanner/internal/logger"
)

// RequestID tags each request's context with the caller's X-Request-ID, or
// a fresh uuid, so every log line of the request carries it.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), id)))
			return next(c)
		}
	}
}

package serviceutils

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/dayplanner/internal/domain"
	"github.com/locvowork/dayplanner/internal/logger"
)

type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func ResponseSuccess(c echo.Context, code int, msg string, data interface{}) error {
	return c.JSON(code, GenericResponse{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

func ResponseError(c echo.Context, code int, msg string, err error) error {
	resp := GenericResponse{
		Success: false,
		Message: msg,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return c.JSON(code, resp)
}

// StatusFromError maps a service error to the HTTP status it is reported with.
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ResponseServiceError writes err with the status StatusFromError picks.
// Internal errors are logged and their detail is not sent to the client.
func ResponseServiceError(c echo.Context, msg string, err error) error {
	code := StatusFromError(err)
	if code == http.StatusInternalServerError {
		logger.ErrorLog(c.Request().Context(), "%s: %v", msg, err)
		return ResponseError(c, code, msg, nil)
	}
	return ResponseError(c, code, msg, err)
}

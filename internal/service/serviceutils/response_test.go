package serviceutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/dayplanner/internal/domain"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("edit: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrInvalidRange, http.StatusBadRequest},
		{domain.ErrInvalidFrequency, http.StatusBadRequest},
		{domain.ErrInvalidDate, http.StatusBadRequest},
		{domain.ErrInconsistentSeries, http.StatusInternalServerError},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFromError(tt.err), tt.err.Error())
	}
}

func TestResponseServiceError(t *testing.T) {
	e := echo.New()

	t.Run("client error carries detail", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, ResponseServiceError(c, "failed to edit task", domain.ErrInvalidRange))

		var resp GenericResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, resp.Success)
		assert.Equal(t, domain.ErrInvalidRange.Error(), resp.Error)
	})

	t.Run("internal error hides detail", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, ResponseServiceError(c, "failed to edit task", domain.ErrInconsistentSeries))

		var resp GenericResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "failed to edit task", resp.Message)
		assert.Empty(t, resp.Error)
	})
}

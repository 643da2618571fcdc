package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/dayplanner/internal/repository"
)

func TestInitializeMemoryStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("LOG_LEVEL", "error")

	app := NewApp()
	require.NoError(t, app.Initialize(context.Background()))
	defer app.Close()

	assert.IsType(t, &repository.MemoryTaskRepository{}, app.Repo)
	assert.Nil(t, app.DB)

	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/owners/1/tasks",
		strings.NewReader(`{"body":"standup","date":"2024-01-01","start_minute":540,"end_minute":570}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestOpenStoreSQLite(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", ":memory:")
	t.Setenv("LOG_LEVEL", "error")

	ctx := context.Background()
	app := NewApp()
	require.NoError(t, app.LoadConfig(ctx))
	require.NoError(t, app.OpenStore(ctx, true))
	defer app.Close()

	require.NotNil(t, app.DB)
	owners, err := app.Repo.ListOwnerIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, owners)
	assert.NotNil(t, app.NewDuePoller())
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "cassandra")
	assert.Error(t, NewApp().LoadConfig(context.Background()))
}

package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/locvowork/dayplanner/internal/domain"
	"github.com/locvowork/dayplanner/internal/handler"
	"github.com/locvowork/dayplanner/internal/repository"
	"github.com/locvowork/dayplanner/internal/service"
	"github.com/locvowork/dayplanner/pkg/simpleexcel"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type day struct {
	TaskID      int64               `json:"task_id"`
	Date        string              `json:"date"`
	Occurrences []domain.Occurrence `json:"occurrences"`
}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(handler.RequestID())
	svc := service.NewTaskService(repository.NewMemoryTaskRepository())
	handler.NewTaskHandler(svc, nil).RegisterRoutes(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func decodeDay(t *testing.T, env envelope) day {
	t.Helper()
	var d day
	require.NoError(t, json.Unmarshal(env.Data, &d))
	return d
}

func TestTaskEndpoints(t *testing.T) {
	e := newServer(t)

	rec, env := do(t, e, http.MethodPost, "/api/owners/7/tasks",
		`{"body":"standup","date":"2024-01-01","start_minute":540,"end_minute":570,"frequency_days":7}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeDay(t, env)
	rootID := created.TaskID
	assert.NotZero(t, rootID)
	assert.Equal(t, "2024-01-01", created.Date)
	require.Len(t, created.Occurrences, 1)

	t.Run("day shows the computed occurrence", func(t *testing.T) {
		rec, env := do(t, e, http.MethodGet, "/api/owners/7/days/2024-01-08", "")
		require.Equal(t, http.StatusOK, rec.Code)
		d := decodeDay(t, env)
		require.Len(t, d.Occurrences, 1)
		assert.True(t, d.Occurrences[0].Virtual)
		assert.Equal(t, rootID, *d.Occurrences[0].RootID)
	})

	t.Run("single occurrence edit re-renders the day", func(t *testing.T) {
		rec, env := do(t, e, http.MethodPut, "/api/owners/7/tasks/"+itoa(rootID),
			`{"single_occurrence":true,"occurrence_date":"2024-01-15","values":{"body":"dentist","start_minute":600,"end_minute":660}}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		d := decodeDay(t, env)
		assert.Equal(t, "2024-01-15", d.Date)
		require.Len(t, d.Occurrences, 1)
		assert.Equal(t, "dentist", d.Occurrences[0].Body)
		assert.False(t, d.Occurrences[0].Virtual)
		assert.Equal(t, d.TaskID, *d.Occurrences[0].ID)
	})

	t.Run("reschedule", func(t *testing.T) {
		rec, env := do(t, e, http.MethodPatch, "/api/owners/7/tasks/"+itoa(rootID)+"/schedule",
			`{"start_minute":480,"end_minute":510}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var task domain.Task
		require.NoError(t, json.Unmarshal(env.Data, &task))
		assert.Equal(t, 480, task.StartMinute)
		assert.Equal(t, 510, task.EndMinute)
	})

	t.Run("agenda", func(t *testing.T) {
		rec, env := do(t, e, http.MethodGet, "/api/owners/7/agenda?from=2024-01-01&to=2024-01-15", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var agenda []domain.DayAgenda
		require.NoError(t, json.Unmarshal(env.Data, &agenda))
		assert.Len(t, agenda, 15)
		assert.Len(t, agenda[7].Occurrences, 1)
		assert.Empty(t, agenda[1].Occurrences)
	})

	t.Run("agenda export", func(t *testing.T) {
		rec, _ := do(t, e, http.MethodGet, "/api/owners/7/agenda/export?from=2024-01-01&to=2024-01-08", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get(echo.HeaderContentType))
		assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "agenda_2024-01-01_2024-01-08.xlsx")

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows("Agenda")
		require.NoError(t, err)
		assert.Len(t, rows, 4)
	})
}

func TestTaskEndpointErrors(t *testing.T) {
	e := newServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"bad owner", http.MethodGet, "/api/owners/x/days/2024-01-01", "", http.StatusBadRequest},
		{"bad date", http.MethodGet, "/api/owners/1/days/01-01-2024", "", http.StatusBadRequest},
		{"missing range", http.MethodGet, "/api/owners/1/agenda", "", http.StatusBadRequest},
		{"inverted range", http.MethodGet, "/api/owners/1/agenda?from=2024-01-08&to=2024-01-01", "", http.StatusBadRequest},
		{"invalid minutes", http.MethodPost, "/api/owners/1/tasks", `{"date":"2024-01-01","start_minute":600,"end_minute":540}`, http.StatusBadRequest},
		{"negative frequency", http.MethodPost, "/api/owners/1/tasks", `{"date":"2024-01-01","start_minute":540,"end_minute":600,"frequency_days":-1}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/owners/1/tasks", `{"date":`, http.StatusBadRequest},
		{"unknown task", http.MethodPut, "/api/owners/1/tasks/999", `{"values":{"start_minute":540,"end_minute":600}}`, http.StatusNotFound},
		{"unknown task schedule", http.MethodPatch, "/api/owners/1/tasks/999/schedule", `{"start_minute":540,"end_minute":600}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := do(t, e, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestExportFailureAfterCommit(t *testing.T) {
	e := echo.New()
	layout := &simpleexcel.Layout{
		Sheet:   "Agenda",
		Columns: []simpleexcel.ColumnConfig{{FieldName: "Body", Header: "Task", FormatterName: "missing"}},
	}
	svc := service.NewTaskService(repository.NewMemoryTaskRepository())
	handler.NewTaskHandler(svc, layout).RegisterRoutes(e)

	rec, _ := do(t, e, http.MethodGet, "/api/owners/1/agenda/export?from=2024-01-01&to=2024-01-02", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get(echo.HeaderContentType))
	assert.NotContains(t, rec.Body.String(), `"message"`)
}

func TestRequestID(t *testing.T) {
	e := newServer(t)

	rec, _ := do(t, e, http.MethodGet, "/api/owners/1/days/2024-01-01", "")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/api/owners/1/days/2024-01-01", nil)
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(echo.HeaderXRequestID))
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

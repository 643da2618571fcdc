package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/dayplanner/internal/domain"
	"github.com/locvowork/dayplanner/internal/logger"
	"github.com/locvowork/dayplanner/internal/service"
	"github.com/locvowork/dayplanner/internal/service/serviceutils"
	"github.com/locvowork/dayplanner/pkg/simpleexcel"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type TaskHandler struct {
	svc    service.TaskService
	layout *simpleexcel.Layout
}

// NewTaskHandler builds the task endpoints. A nil layout exports with the
// default agenda columns.
func NewTaskHandler(svc service.TaskService, layout *simpleexcel.Layout) *TaskHandler {
	return &TaskHandler{svc: svc, layout: layout}
}

// RegisterRoutes mounts the handlers under /api/owners/:owner.
func (h *TaskHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/owners/:owner")
	g.GET("/days/:date", h.DayHandler)
	g.GET("/agenda", h.AgendaHandler)
	g.GET("/agenda/export", h.ExportAgendaHandler)
	g.POST("/tasks", h.CreateHandler)
	g.PUT("/tasks/:id", h.EditHandler)
	g.PATCH("/tasks/:id/schedule", h.RescheduleHandler)
}

// dayResponse is returned by every endpoint that re-renders a day.
type dayResponse struct {
	TaskID      int64               `json:"task_id,omitempty"`
	Date        domain.Date         `json:"date"`
	Occurrences []domain.Occurrence `json:"occurrences"`
}

// DayHandler handles GET /api/owners/:owner/days/:date
func (h *TaskHandler) DayHandler(c echo.Context) error {
	ctx := c.Request().Context()
	ownerID, err := int64Param(c, "owner")
	if err != nil {
		return err
	}
	date, err := domain.ParseDate(c.Param("date"))
	if err != nil {
		return serviceutils.ResponseError(c, http.StatusBadRequest, "invalid date", err)
	}

	day, err := h.svc.MaterializeDay(ctx, ownerID, date)
	if err != nil {
		return serviceutils.ResponseServiceError(c, "failed to load day", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "", dayResponse{Date: date, Occurrences: nonNil(day)})
}

// AgendaHandler handles GET /api/owners/:owner/agenda?from=&to=
func (h *TaskHandler) AgendaHandler(c echo.Context) error {
	ctx := c.Request().Context()
	ownerID, from, to, err := agendaParams(c)
	if err != nil {
		return err
	}

	agenda, err := h.svc.MaterializeRange(ctx, ownerID, from, to)
	if err != nil {
		return serviceutils.ResponseServiceError(c, "failed to load agenda", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "", agenda)
}

// ExportAgendaHandler handles GET /api/owners/:owner/agenda/export?from=&to=
func (h *TaskHandler) ExportAgendaHandler(c echo.Context) error {
	ctx := c.Request().Context()
	ownerID, from, to, err := agendaParams(c)
	if err != nil {
		return err
	}

	agenda, err := h.svc.MaterializeRange(ctx, ownerID, from, to)
	if err != nil {
		return serviceutils.ResponseServiceError(c, "failed to load agenda", err)
	}

	c.Response().Header().Set(echo.HeaderContentType, xlsxContentType)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="agenda_%s_%s.xlsx"`, from, to))
	c.Response().WriteHeader(http.StatusOK)

	// Content-Length is unknown for streaming. Once the header is committed
	// a failure can only be logged.
	if err := service.ExportAgenda(c.Response(), h.layout, agenda); err != nil {
		logger.ErrorLog(ctx, "failed to stream agenda for owner %d: %v", ownerID, err)
	}
	return nil
}

// CreateHandler handles POST /api/owners/:owner/tasks
func (h *TaskHandler) CreateHandler(c echo.Context) error {
	ctx := c.Request().Context()
	ownerID, err := int64Param(c, "owner")
	if err != nil {
		return err
	}
	var req domain.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.OwnerID = ownerID

	id, err := h.svc.CreateTask(ctx, req)
	if err != nil {
		return serviceutils.ResponseServiceError(c, "failed to create task", err)
	}
	return h.respondDay(c, http.StatusCreated, "task created", ownerID, id, req.Date)
}

// EditHandler handles PUT /api/owners/:owner/tasks/:id
func (h *TaskHandler) EditHandler(c echo.Context) error {
	ctx := c.Request().Context()
	ownerID, err := int64Param(c, "owner")
	if err != nil {
		return err
	}
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	var req domain.EditTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.OwnerID = ownerID
	req.TargetID = id

	result, err := h.svc.EditTask(ctx, req)
	if err != nil {
		return serviceutils.ResponseServiceError(c, "failed to edit task", err)
	}
	return h.respondDay(c, http.StatusOK, "task updated", ownerID, result.TaskID, result.Date)
}

type scheduleRequest struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// RescheduleHandler handles PATCH /api/owners/:owner/tasks/:id/schedule
func (h *TaskHandler) RescheduleHandler(c echo.Context) error {
	ctx := c.Request().Context()
	ownerID, err := int64Param(c, "owner")
	if err != nil {
		return err
	}
	id, err := int64Param(c, "id")
	if err != nil {
		return err
	}
	var body scheduleRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	task, err := h.svc.Reschedule(ctx, domain.RescheduleRequest{
		OwnerID:     ownerID,
		TaskID:      id,
		StartMinute: body.StartMinute,
		EndMinute:   body.EndMinute,
	})
	if err != nil {
		return serviceutils.ResponseServiceError(c, "failed to reschedule task", err)
	}
	return serviceutils.ResponseSuccess(c, http.StatusOK, "task rescheduled", task)
}

func (h *TaskHandler) respondDay(c echo.Context, code int, msg string, ownerID, taskID int64, date domain.Date) error {
	day, err := h.svc.MaterializeDay(c.Request().Context(), ownerID, date)
	if err != nil {
		return serviceutils.ResponseServiceError(c, "failed to load day", err)
	}
	return serviceutils.ResponseSuccess(c, code, msg, dayResponse{TaskID: taskID, Date: date, Occurrences: nonNil(day)})
}

func int64Param(c echo.Context, name string) (int64, error) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
	}
	return v, nil
}

func agendaParams(c echo.Context) (ownerID int64, from, to domain.Date, err error) {
	if ownerID, err = int64Param(c, "owner"); err != nil {
		return
	}
	if from, err = domain.ParseDate(c.QueryParam("from")); err != nil {
		err = echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
		return
	}
	if to, err = domain.ParseDate(c.QueryParam("to")); err != nil {
		err = echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
	}
	return
}

// nonNil keeps empty days rendering as [] instead of null.
func nonNil(day []domain.Occurrence) []domain.Occurrence {
	if day == nil {
		return []domain.Occurrence{}
	}
	return day
}

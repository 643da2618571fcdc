package service

import (
	"context"

	"github.com/locvowork/dayplanner/internal/domain"
)

type TaskService interface {
	MaterializeDay(ctx context.Context, ownerID int64, date domain.Date) ([]domain.Occurrence, error)
	MaterializeRange(ctx context.Context, ownerID int64, from, to domain.Date) ([]domain.DayAgenda, error)
	CreateTask(ctx context.Context, req domain.CreateTaskRequest) (int64, error)
	EditTask(ctx context.Context, req domain.EditTaskRequest) (*EditResult, error)
	CarveException(ctx context.Context, ownerID, rootID int64, date domain.Date, values domain.TaskValues) (*EditResult, error)
	Reschedule(ctx context.Context, req domain.RescheduleRequest) (*domain.Task, error)
}

type taskService struct {
	*RecurrenceResolver
	*RecurrenceEditor
}

func NewTaskService(repo domain.TaskRepository) TaskService {
	return &taskService{
		RecurrenceResolver: NewRecurrenceResolver(repo),
		RecurrenceEditor:   NewRecurrenceEditor(repo),
	}
}

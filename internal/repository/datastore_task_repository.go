package repository

import (
	"context"
	"fmt"

	"github.com/locvowork/dayplanner/internal/domain"
	"github.com/locvowork/dayplanner/pkg/googlecloud"
)

// DatastoreTaskRepository stores tasks in Google Cloud Datastore, one entity
// group per owner.
type DatastoreTaskRepository struct {
	client *googlecloud.Client
}

func NewDatastoreTaskRepository(client *googlecloud.Client) *DatastoreTaskRepository {
	return &DatastoreTaskRepository{client: client}
}

func (r *DatastoreTaskRepository) GetByID(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	e, err := r.client.GetTask(ctx, ownerID, id)
	return entityResult(e, id, err)
}

func (r *DatastoreTaskRepository) ListByDate(ctx context.Context, ownerID int64, date domain.Date) ([]domain.Task, error) {
	return entitiesResult(r.client.ListTasksByDate(ctx, ownerID, date.String()))
}

func (r *DatastoreTaskRepository) ListRecurring(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	return entitiesResult(r.client.ListRecurringTasks(ctx, ownerID))
}

func (r *DatastoreTaskRepository) ListByLink(ctx context.Context, ownerID, linkID int64) ([]domain.Task, error) {
	return entitiesResult(r.client.ListTasksByLink(ctx, ownerID, linkID))
}

func (r *DatastoreTaskRepository) ListOwnerIDs(ctx context.Context) ([]int64, error) {
	return r.client.ListOwnerIDs(ctx)
}

func (r *DatastoreTaskRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.TaskTx) error) error {
	return r.client.RunInTransaction(ctx, func(tx *googlecloud.Tx) error {
		return fn(ctx, &datastoreTaskTx{tx: tx})
	})
}

type datastoreTaskTx struct {
	tx *googlecloud.Tx
}

func (t *datastoreTaskTx) GetByID(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	e, err := t.tx.GetTask(ctx, ownerID, id)
	return entityResult(e, id, err)
}

func (t *datastoreTaskTx) ListByDate(ctx context.Context, ownerID int64, date domain.Date) ([]domain.Task, error) {
	return entitiesResult(t.tx.ListTasksByDate(ctx, ownerID, date.String()))
}

func (t *datastoreTaskTx) ListRecurring(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	return entitiesResult(t.tx.ListRecurringTasks(ctx, ownerID))
}

func (t *datastoreTaskTx) ListByLink(ctx context.Context, ownerID, linkID int64) ([]domain.Task, error) {
	return entitiesResult(t.tx.ListTasksByLink(ctx, ownerID, linkID))
}

func (t *datastoreTaskTx) Insert(ctx context.Context, task *domain.Task) error {
	if task.Color == "" {
		task.Color = domain.DefaultColor
	}
	e := toEntity(*task)
	if err := t.tx.InsertTask(ctx, &e); err != nil {
		return err
	}
	task.ID = e.ID
	task.CreatedAt = e.CreatedAt
	return nil
}

func (t *datastoreTaskTx) Update(ctx context.Context, task *domain.Task) error {
	e := toEntity(*task)
	err := t.tx.UpdateTask(ctx, &e)
	if googlecloud.IsNotFoundError(err) {
		return fmt.Errorf("task %d: %w", task.ID, domain.ErrNotFound)
	}
	return err
}

func entityResult(e *googlecloud.TaskEntity, id int64, err error) (*domain.Task, error) {
	if googlecloud.IsNotFoundError(err) {
		return nil, fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %d: %w", id, err)
	}
	task, err := fromEntity(*e)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func entitiesResult(entities []googlecloud.TaskEntity, err error) ([]domain.Task, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	tasks := make([]domain.Task, 0, len(entities))
	for _, e := range entities {
		task, err := fromEntity(e)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func toEntity(t domain.Task) googlecloud.TaskEntity {
	e := googlecloud.TaskEntity{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Body:        t.Body,
		Date:        t.Date.String(),
		StartMinute: t.StartMinute,
		EndMinute:   t.EndMinute,
		Done:        t.Done,
		Color:       t.Color,
		Recurring:   t.Frequency() > 0,
		CreatedAt:   t.CreatedAt,
	}
	if t.FrequencyDays != nil {
		e.FrequencySet = true
		e.FrequencyDays = *t.FrequencyDays
	}
	if t.SeriesEndDate != nil {
		e.SeriesEndDate = t.SeriesEndDate.String()
	}
	if t.LinkID != nil {
		e.LinkID = *t.LinkID
	}
	return e
}

func fromEntity(e googlecloud.TaskEntity) (domain.Task, error) {
	date, err := domain.ParseDate(e.Date)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %d has a bad date: %w", e.ID, err)
	}
	t := domain.Task{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		Body:        e.Body,
		Date:        date,
		StartMinute: e.StartMinute,
		EndMinute:   e.EndMinute,
		Done:        e.Done,
		Color:       e.Color,
		CreatedAt:   e.CreatedAt,
	}
	if e.FrequencySet {
		t.FrequencyDays = domain.IntPtr(e.FrequencyDays)
	}
	if e.SeriesEndDate != "" {
		end, err := domain.ParseDate(e.SeriesEndDate)
		if err != nil {
			return domain.Task{}, fmt.Errorf("task %d has a bad series end: %w", e.ID, err)
		}
		t.SeriesEndDate = &end
	}
	if e.LinkID != 0 {
		t.LinkID = domain.Int64Ptr(e.LinkID)
	}
	return t, nil
}

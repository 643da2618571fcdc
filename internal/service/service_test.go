package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/locvowork/dayplanner/internal/domain"
	"github.com/locvowork/dayplanner/internal/repository"
)

const owner int64 = 1

var (
	jan1  = domain.MustParseDate("2024-01-01")
	jan8  = domain.MustParseDate("2024-01-08")
	jan15 = domain.MustParseDate("2024-01-15")
)

func newTestService(t *testing.T) (TaskService, *repository.MemoryTaskRepository) {
	t.Helper()
	repo := repository.NewMemoryTaskRepository()
	return NewTaskService(repo), repo
}

func values(body string) domain.TaskValues {
	return domain.TaskValues{Body: body, StartMinute: 540, EndMinute: 600}
}

func createRoot(t *testing.T, svc TaskService, date domain.Date, freq int) int64 {
	t.Helper()
	id, err := svc.CreateTask(context.Background(), domain.CreateTaskRequest{
		OwnerID: owner, Body: "standup", Date: date, StartMinute: 540, EndMinute: 570,
		FrequencyDays: domain.IntPtr(freq),
	})
	require.NoError(t, err)
	return id
}

func createBounded(t *testing.T, svc TaskService, from, to domain.Date) int64 {
	t.Helper()
	id, err := svc.CreateTask(context.Background(), domain.CreateTaskRequest{
		OwnerID: owner, Body: "course", Date: from, StartMinute: 600, EndMinute: 660,
		FrequencyDays: domain.IntPtr(1), SeriesEndDate: domain.DatePtr(to),
	})
	require.NoError(t, err)
	return id
}

func mustGet(t *testing.T, repo domain.TaskReader, id int64) *domain.Task {
	t.Helper()
	task, err := repo.GetByID(context.Background(), owner, id)
	require.NoError(t, err)
	return task
}

// seed writes rows as-is, bypassing the editor, to build broken stores.
func seed(t *testing.T, repo domain.TaskRepository, tasks ...*domain.Task) {
	t.Helper()
	err := repo.WithinTx(context.Background(), func(ctx context.Context, tx domain.TaskTx) error {
		for _, task := range tasks {
			if err := tx.Insert(ctx, task); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

var errInjected = errors.New("injected failure")

// faultyRepo fails the n-th write of every transaction.
type faultyRepo struct {
	domain.TaskRepository
	failAt int
}

func (r *faultyRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.TaskTx) error) error {
	return r.TaskRepository.WithinTx(ctx, func(ctx context.Context, tx domain.TaskTx) error {
		return fn(ctx, &faultyTx{TaskTx: tx, failAt: r.failAt})
	})
}

type faultyTx struct {
	domain.TaskTx
	failAt int
	writes int
}

func (tx *faultyTx) write() error {
	tx.writes++
	if tx.writes == tx.failAt {
		return errInjected
	}
	return nil
}

func (tx *faultyTx) Insert(ctx context.Context, task *domain.Task) error {
	if err := tx.write(); err != nil {
		return err
	}
	return tx.TaskTx.Insert(ctx, task)
}

func (tx *faultyTx) Update(ctx context.Context, task *domain.Task) error {
	if err := tx.write(); err != nil {
		return err
	}
	return tx.TaskTx.Update(ctx, task)
}

package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/locvowork/dayplanner/internal/domain"
)

// MemoryTaskRepository keeps tasks in process memory. A transaction works on
// a copy of the table and swaps it in on success, so a failed fn leaves no trace.
type MemoryTaskRepository struct {
	mu     sync.RWMutex
	tasks  map[int64]domain.Task
	nextID int64
}

func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: make(map[int64]domain.Task), nextID: 1}
}

func (r *MemoryTaskRepository) GetByID(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return memoryView{tasks: r.tasks}.GetByID(ctx, ownerID, id)
}

func (r *MemoryTaskRepository) ListByDate(ctx context.Context, ownerID int64, date domain.Date) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return memoryView{tasks: r.tasks}.ListByDate(ctx, ownerID, date)
}

func (r *MemoryTaskRepository) ListRecurring(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return memoryView{tasks: r.tasks}.ListRecurring(ctx, ownerID)
}

func (r *MemoryTaskRepository) ListByLink(ctx context.Context, ownerID, linkID int64) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return memoryView{tasks: r.tasks}.ListByLink(ctx, ownerID, linkID)
}

func (r *MemoryTaskRepository) ListOwnerIDs(_ context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[int64]struct{})
	var ids []int64
	for _, t := range r.tasks {
		if _, ok := seen[t.OwnerID]; ok {
			continue
		}
		seen[t.OwnerID] = struct{}{}
		ids = append(ids, t.OwnerID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// WithinTx holds the write lock for the whole of fn.
func (r *MemoryTaskRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.TaskTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := make(map[int64]domain.Task, len(r.tasks))
	for id, t := range r.tasks {
		working[id] = t
	}
	tx := &memoryTx{memoryView: memoryView{tasks: working}, nextID: r.nextID}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	r.tasks = working
	r.nextID = tx.nextID
	return nil
}

type memoryView struct {
	tasks map[int64]domain.Task
}

func (v memoryView) GetByID(_ context.Context, ownerID, id int64) (*domain.Task, error) {
	t, ok := v.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	return cloneTask(t), nil
}

func (v memoryView) ListByDate(_ context.Context, ownerID int64, date domain.Date) ([]domain.Task, error) {
	return v.filter(func(t domain.Task) bool {
		return t.OwnerID == ownerID && t.Date.Equal(date)
	}), nil
}

func (v memoryView) ListRecurring(_ context.Context, ownerID int64) ([]domain.Task, error) {
	return v.filter(func(t domain.Task) bool {
		return t.OwnerID == ownerID && t.Frequency() > 0
	}), nil
}

func (v memoryView) ListByLink(_ context.Context, ownerID, linkID int64) ([]domain.Task, error) {
	return v.filter(func(t domain.Task) bool {
		return t.OwnerID == ownerID && t.LinkID != nil && *t.LinkID == linkID
	}), nil
}

// filter returns matching rows in id order, which is creation order.
func (v memoryView) filter(keep func(domain.Task) bool) []domain.Task {
	var out []domain.Task
	for _, t := range v.tasks {
		if keep(t) {
			out = append(out, *cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memoryTx struct {
	memoryView
	nextID int64
}

func (tx *memoryTx) Insert(_ context.Context, task *domain.Task) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	if task.Color == "" {
		task.Color = domain.DefaultColor
	}
	task.ID = tx.nextID
	tx.nextID++
	tx.tasks[task.ID] = *cloneTask(*task)
	return nil
}

func (tx *memoryTx) Update(_ context.Context, task *domain.Task) error {
	existing, ok := tx.tasks[task.ID]
	if !ok || existing.OwnerID != task.OwnerID {
		return fmt.Errorf("task %d: %w", task.ID, domain.ErrNotFound)
	}
	updated := *cloneTask(*task)
	updated.CreatedAt = existing.CreatedAt
	tx.tasks[task.ID] = updated
	return nil
}

// cloneTask copies t including the values behind its pointer fields.
func cloneTask(t domain.Task) *domain.Task {
	c := t
	if t.FrequencyDays != nil {
		c.FrequencyDays = domain.IntPtr(*t.FrequencyDays)
	}
	if t.SeriesEndDate != nil {
		c.SeriesEndDate = domain.DatePtr(*t.SeriesEndDate)
	}
	if t.LinkID != nil {
		c.LinkID = domain.Int64Ptr(*t.LinkID)
	}
	return &c
}

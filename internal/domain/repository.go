package domain

import "context"

// TaskReader is the query side of the task store. Every query is scoped to one owner.
type TaskReader interface {
	// GetByID returns ErrNotFound when id does not exist or belongs to another owner.
	GetByID(ctx context.Context, ownerID, id int64) (*Task, error)
	ListByDate(ctx context.Context, ownerID int64, date Date) ([]Task, error)
	// ListRecurring returns the rows with FrequencyDays > 0.
	ListRecurring(ctx context.Context, ownerID int64) ([]Task, error)
	// ListByLink returns the rows whose LinkID equals linkID, oldest first.
	ListByLink(ctx context.Context, ownerID, linkID int64) ([]Task, error)
}

// TaskTx is a transaction over the task store. Rows read through it stay
// locked against other writers until the transaction ends.
type TaskTx interface {
	TaskReader
	// Insert assigns ID and CreatedAt.
	Insert(ctx context.Context, task *Task) error
	Update(ctx context.Context, task *Task) error
}

// TaskRepository owns all persisted tasks. Writes happen only inside WithinTx:
// if fn returns an error nothing it wrote is kept.
type TaskRepository interface {
	TaskReader
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TaskTx) error) error
	// ListOwnerIDs returns every owner that has at least one task.
	ListOwnerIDs(ctx context.Context) ([]int64, error)
}

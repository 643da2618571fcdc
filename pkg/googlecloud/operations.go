package googlecloud

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/datastore"
)

const (
	KindOwner = "Owner"
	KindTask  = "Task"
)

// OwnerKey is the ancestor of every task an owner has.
func OwnerKey(ownerID int64) *datastore.Key {
	return datastore.IDKey(KindOwner, ownerID, nil)
}

func TaskKey(ownerID, taskID int64) *datastore.Key {
	return datastore.IDKey(KindTask, taskID, OwnerKey(ownerID))
}

// reader runs lookups either directly or inside a transaction.
type reader struct {
	c  *Client
	tx *datastore.Transaction
}

func (r reader) get(ctx context.Context, ownerID, taskID int64) (*TaskEntity, error) {
	key := TaskKey(ownerID, taskID)
	var e TaskEntity
	var err error
	if r.tx != nil {
		err = r.tx.Get(key, &e)
	} else {
		err = r.c.ds.Get(ctx, key, &e)
	}
	if err != nil {
		return nil, WrapDatastoreError(err)
	}
	e.ID = taskID
	e.OwnerID = ownerID
	return &e, nil
}

func (r reader) getAll(ctx context.Context, ownerID int64, q *datastore.Query) ([]TaskEntity, error) {
	q = q.Ancestor(OwnerKey(ownerID))
	if r.tx != nil {
		q = q.Transaction(r.tx)
	}

	var tasks []TaskEntity
	keys, err := r.c.ds.GetAll(ctx, q, &tasks)
	if err != nil {
		return nil, err
	}
	for i, key := range keys {
		tasks[i].ID = key.ID
		tasks[i].OwnerID = ownerID
	}
	sortByCreation(tasks)
	return tasks, nil
}

// Equality filters under an ancestor are served by built-in indexes; ordering
// would need a composite index, so results are sorted here instead.
func (r reader) listByDate(ctx context.Context, ownerID int64, date string) ([]TaskEntity, error) {
	return r.getAll(ctx, ownerID, datastore.NewQuery(KindTask).Filter("date =", date))
}

func (r reader) listRecurring(ctx context.Context, ownerID int64) ([]TaskEntity, error) {
	return r.getAll(ctx, ownerID, datastore.NewQuery(KindTask).Filter("recurring =", true))
}

func (r reader) listByLink(ctx context.Context, ownerID, linkID int64) ([]TaskEntity, error) {
	return r.getAll(ctx, ownerID, datastore.NewQuery(KindTask).Filter("link_id =", linkID))
}

// sortByCreation orders rows oldest first. Rows written by one transaction
// can share a timestamp; their dates then break the tie.
func sortByCreation(tasks []TaskEntity) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.ID < b.ID
	})
}

// GetTask returns ErrNotFound when the owner has no such task.
func (c *Client) GetTask(ctx context.Context, ownerID, taskID int64) (*TaskEntity, error) {
	return reader{c: c}.get(ctx, ownerID, taskID)
}

func (c *Client) ListTasksByDate(ctx context.Context, ownerID int64, date string) ([]TaskEntity, error) {
	return reader{c: c}.listByDate(ctx, ownerID, date)
}

func (c *Client) ListRecurringTasks(ctx context.Context, ownerID int64) ([]TaskEntity, error) {
	return reader{c: c}.listRecurring(ctx, ownerID)
}

func (c *Client) ListTasksByLink(ctx context.Context, ownerID, linkID int64) ([]TaskEntity, error) {
	return reader{c: c}.listByLink(ctx, ownerID, linkID)
}

// ListOwnerIDs walks task keys only and returns each distinct parent.
func (c *Client) ListOwnerIDs(ctx context.Context) ([]int64, error) {
	keys, err := c.ds.GetAll(ctx, datastore.NewQuery(KindTask).KeysOnly(), nil)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{})
	var ids []int64
	for _, key := range keys {
		if key.Parent == nil {
			continue
		}
		if _, ok := seen[key.Parent.ID]; ok {
			continue
		}
		seen[key.Parent.ID] = struct{}{}
		ids = append(ids, key.Parent.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Tx is a Datastore transaction over tasks. Datastore reads inside a
// transaction do not observe its own writes, so puts are buffered and
// written once when the callback returns; a later put of the same key
// replaces an earlier one.
type Tx struct {
	reader
	pending map[int64]*TaskEntity
	order   []int64
}

// RunInTransaction calls fn in a transaction and commits its buffered puts.
// The client retries fn on contention, so fn must not keep state between calls.
func (c *Client) RunInTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	_, err := c.ds.RunInTransaction(ctx, func(dtx *datastore.Transaction) error {
		tx := &Tx{reader: reader{c: c, tx: dtx}, pending: make(map[int64]*TaskEntity)}
		if err := fn(tx); err != nil {
			return err
		}
		return tx.flush()
	})
	return err
}

func (tx *Tx) GetTask(ctx context.Context, ownerID, taskID int64) (*TaskEntity, error) {
	if e, ok := tx.pending[taskID]; ok && e.OwnerID == ownerID {
		cp := *e
		return &cp, nil
	}
	return tx.get(ctx, ownerID, taskID)
}

func (tx *Tx) ListTasksByDate(ctx context.Context, ownerID int64, date string) ([]TaskEntity, error) {
	return tx.listByDate(ctx, ownerID, date)
}

func (tx *Tx) ListRecurringTasks(ctx context.Context, ownerID int64) ([]TaskEntity, error) {
	return tx.listRecurring(ctx, ownerID)
}

func (tx *Tx) ListTasksByLink(ctx context.Context, ownerID, linkID int64) ([]TaskEntity, error) {
	return tx.listByLink(ctx, ownerID, linkID)
}

// InsertTask allocates the task's ID up front so later puts in the same
// transaction can refer to it.
func (tx *Tx) InsertTask(ctx context.Context, task *TaskEntity) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	keys, err := tx.c.ds.AllocateIDs(ctx, []*datastore.Key{datastore.IncompleteKey(KindTask, OwnerKey(task.OwnerID))})
	if err != nil {
		return fmt.Errorf("failed to allocate task id: %w", err)
	}
	task.ID = keys[0].ID
	tx.stage(task)
	return nil
}

// UpdateTask overwrites an existing task; it returns ErrNotFound otherwise.
func (tx *Tx) UpdateTask(ctx context.Context, task *TaskEntity) error {
	if _, ok := tx.pending[task.ID]; !ok {
		if _, err := tx.get(ctx, task.OwnerID, task.ID); err != nil {
			return err
		}
	}
	tx.stage(task)
	return nil
}

func (tx *Tx) stage(task *TaskEntity) {
	cp := *task
	if _, ok := tx.pending[cp.ID]; !ok {
		tx.order = append(tx.order, cp.ID)
	}
	tx.pending[cp.ID] = &cp
}

func (tx *Tx) flush() error {
	if len(tx.order) == 0 {
		return nil
	}
	keys := make([]*datastore.Key, 0, len(tx.order))
	entities := make([]*TaskEntity, 0, len(tx.order))
	for _, id := range tx.order {
		e := tx.pending[id]
		keys = append(keys, TaskKey(e.OwnerID, e.ID))
		entities = append(entities, e)
	}
	if _, err := tx.tx.PutMulti(keys, entities); err != nil {
		return fmt.Errorf("failed to write tasks: %w", err)
	}
	return nil
}

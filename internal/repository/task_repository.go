package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/locvowork/dayplanner/internal/database"
	"github.com/locvowork/dayplanner/internal/domain"
)

const taskColumns = `id, owner_id, body, task_date, start_minute, end_minute, done, color,
	frequency_days, series_end_date, link_id, created_at`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SQLTaskRepository stores tasks in PostgreSQL or SQLite.
type SQLTaskRepository struct {
	db      *sql.DB
	dialect database.Dialect
	sqlTaskQueries
}

func NewSQLTaskRepository(db *sql.DB, dialect database.Dialect) *SQLTaskRepository {
	return &SQLTaskRepository{
		db:             db,
		dialect:        dialect,
		sqlTaskQueries: sqlTaskQueries{q: db, dialect: dialect},
	}
}

func (r *SQLTaskRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.TaskTx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &sqlTaskQueries{q: tx, dialect: r.dialect, lock: true}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *SQLTaskRepository) ListOwnerIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT owner_id FROM tasks ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// sqlTaskQueries implements the reads and writes shared by the pool and a transaction.
type sqlTaskQueries struct {
	q       queryer
	dialect database.Dialect
	// lock adds FOR UPDATE to reads on PostgreSQL. SQLite holds a database
	// lock for the whole write transaction instead.
	lock bool
}

func (s *sqlTaskQueries) GetByID(ctx context.Context, ownerID, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ? AND id = ?` + s.lockClause()
	row := s.q.QueryRowContext(ctx, s.rebind(query), ownerID, id)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %d: %w", id, err)
	}
	return task, nil
}

func (s *sqlTaskQueries) ListByDate(ctx context.Context, ownerID int64, date domain.Date) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ? AND task_date = ? ORDER BY id`
	return s.list(ctx, query, ownerID, date)
}

func (s *sqlTaskQueries) ListRecurring(ctx context.Context, ownerID int64) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ? AND frequency_days > 0 ORDER BY id`
	return s.list(ctx, query, ownerID)
}

func (s *sqlTaskQueries) ListByLink(ctx context.Context, ownerID, linkID int64) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ? AND link_id = ? ORDER BY id` + s.lockClause()
	return s.list(ctx, query, ownerID, linkID)
}

func (s *sqlTaskQueries) Insert(ctx context.Context, task *domain.Task) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	if task.Color == "" {
		task.Color = domain.DefaultColor
	}

	query := `INSERT INTO tasks (owner_id, body, task_date, start_minute, end_minute, done, color,
		frequency_days, series_end_date, link_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`
	err := s.q.QueryRowContext(ctx, s.rebind(query),
		task.OwnerID, task.Body, task.Date, task.StartMinute, task.EndMinute, task.Done, task.Color,
		task.FrequencyDays, task.SeriesEndDate, task.LinkID, task.CreatedAt,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

func (s *sqlTaskQueries) Update(ctx context.Context, task *domain.Task) error {
	query := `UPDATE tasks SET body = ?, task_date = ?, start_minute = ?, end_minute = ?, done = ?,
		color = ?, frequency_days = ?, series_end_date = ?, link_id = ?
		WHERE owner_id = ? AND id = ?`
	res, err := s.q.ExecContext(ctx, s.rebind(query),
		task.Body, task.Date, task.StartMinute, task.EndMinute, task.Done,
		task.Color, task.FrequencyDays, task.SeriesEndDate, task.LinkID,
		task.OwnerID, task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task %d: %w", task.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", task.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *sqlTaskQueries) list(ctx context.Context, query string, args ...interface{}) ([]domain.Task, error) {
	rows, err := s.q.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (s *sqlTaskQueries) lockClause() string {
	if s.lock && s.dialect == database.Postgres {
		return ` FOR UPDATE`
	}
	return ""
}

// rebind turns ? placeholders into $1, $2, ... for PostgreSQL.
func (s *sqlTaskQueries) rebind(query string) string {
	if s.dialect != database.Postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID, &t.OwnerID, &t.Body, &t.Date, &t.StartMinute, &t.EndMinute, &t.Done, &t.Color,
		&t.FrequencyDays, &t.SeriesEndDate, &t.LinkID, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

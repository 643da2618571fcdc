package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/locvowork/dayplanner/internal/domain"
	"github.com/locvowork/dayplanner/internal/logger"
)

// EditResult names the row an edit produced or changed for the occurrence
// the caller was looking at, and the day to re-render.
type EditResult struct {
	TaskID int64       `json:"task_id"`
	Date   domain.Date `json:"date"`
}

// RecurrenceEditor creates and edits tasks. Each operation reads what it
// needs, plans every write, and applies the plan in one transaction.
type RecurrenceEditor struct {
	repo domain.TaskRepository
}

func NewRecurrenceEditor(repo domain.TaskRepository) *RecurrenceEditor {
	return &RecurrenceEditor{repo: repo}
}

// CreateTask inserts a one-off task, an unbounded root, or a bounded run,
// and returns the id of the first row written.
func (e *RecurrenceEditor) CreateTask(ctx context.Context, req domain.CreateTaskRequest) (int64, error) {
	var rootID int64
	err := e.repo.WithinTx(ctx, func(ctx context.Context, tx domain.TaskTx) error {
		plan, err := planCreate(req)
		if err != nil {
			return err
		}
		if err := plan.apply(ctx, tx); err != nil {
			return err
		}
		rootID = plan.inserts[0].ID
		logger.DebugLog(ctx, "created %d task row(s) for owner %d, root %d", len(plan.inserts), req.OwnerID, rootID)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return rootID, nil
}

// EditTask applies one of the three edits:
//   - a single occurrence backed by an exception or bounded-run row is
//     overwritten in place;
//   - a single occurrence of a root gets a new exception;
//   - a whole-series edit rewrites the root and every row linked to it, or
//     the target alone when nothing links to it.
func (e *RecurrenceEditor) EditTask(ctx context.Context, req domain.EditTaskRequest) (*EditResult, error) {
	if err := validateValues(req.Values); err != nil {
		return nil, err
	}
	var result EditResult
	err := e.repo.WithinTx(ctx, func(ctx context.Context, tx domain.TaskTx) error {
		target, err := tx.GetByID(ctx, req.OwnerID, req.TargetID)
		if err != nil {
			return err
		}
		cls, err := checkClassified(target)
		if err != nil {
			return err
		}

		var (
			plan    *mutationSet
			written = target
			day     = target.Date
		)
		switch {
		case req.SingleOccurrence && cls.Kind == domain.KindLinked:
			plan = planLinkedEdit(target, req.Values)

		case req.SingleOccurrence:
			plan, written, err = planSingleOccurrence(ctx, tx, target, req)
			if err != nil {
				return err
			}
			day = written.Date

		case target.LinkID != nil:
			root, err := loadRoot(ctx, tx, target, cls)
			if err != nil {
				return err
			}
			members, err := tx.ListByLink(ctx, req.OwnerID, root.ID)
			if err != nil {
				return err
			}
			plan = planSeriesEdit(root, members, req.Values)
			if !req.OccurrenceDate.IsZero() {
				day = req.OccurrenceDate
			}

		default:
			plan = planDirectEdit(target, req.OccurrenceDate, req.Values)
			day = target.Date
		}

		if err := plan.apply(ctx, tx); err != nil {
			return err
		}
		result = EditResult{TaskID: written.ID, Date: day}
		logger.DebugLog(ctx, "edited task %d for owner %d: %d update(s), %d insert(s)",
			req.TargetID, req.OwnerID, len(plan.updates), len(plan.inserts))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// planSingleOccurrence carves an exception out of target on the occurrence
// date. If that date already has a row linked to target, the edit goes to
// that row instead so a date never holds two rows of one series. The
// returned task is the row the occurrence ends up backed by.
func planSingleOccurrence(ctx context.Context, tx domain.TaskReader, target *domain.Task, req domain.EditTaskRequest) (*mutationSet, *domain.Task, error) {
	if req.OccurrenceDate.IsZero() {
		return nil, nil, fmt.Errorf("%w: carving an occurrence needs its date", domain.ErrInvalidDate)
	}
	if target.LinkID != nil {
		linked, err := tx.ListByLink(ctx, req.OwnerID, target.ID)
		if err != nil {
			return nil, nil, err
		}
		for i := range linked {
			row := &linked[i]
			if row.ID != target.ID && row.Date.Equal(req.OccurrenceDate) {
				return planLinkedEdit(row, req.Values), row, nil
			}
		}
	}

	plan, exception := planCarve(target, req.OccurrenceDate, req.Values)
	return plan, exception, nil
}

// loadRoot resolves the series head a linked target belongs to.
func loadRoot(ctx context.Context, tx domain.TaskTx, target *domain.Task, cls domain.Classification) (*domain.Task, error) {
	if cls.Kind != domain.KindLinked {
		return target, nil
	}
	root, err := tx.GetByID(ctx, target.OwnerID, cls.RootID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: task %d links to missing task %d", domain.ErrInconsistentSeries, target.ID, cls.RootID)
	}
	if err != nil {
		return nil, err
	}
	if !root.IsSelfLinked() {
		return nil, fmt.Errorf("%w: task %d links to task %d which is not a series head", domain.ErrInconsistentSeries, target.ID, root.ID)
	}
	return root, nil
}

// CarveException overrides the occurrence of rootID on date with values.
func (e *RecurrenceEditor) CarveException(ctx context.Context, ownerID, rootID int64, date domain.Date, values domain.TaskValues) (*EditResult, error) {
	return e.EditTask(ctx, domain.EditTaskRequest{
		OwnerID:          ownerID,
		TargetID:         rootID,
		SingleOccurrence: true,
		OccurrenceDate:   date,
		Values:           values,
	})
}

// Reschedule moves one row's time slot. Its series links are left alone.
func (e *RecurrenceEditor) Reschedule(ctx context.Context, req domain.RescheduleRequest) (*domain.Task, error) {
	if err := domain.ValidateMinutes(req.StartMinute, req.EndMinute); err != nil {
		return nil, err
	}

	var updated *domain.Task
	err := e.repo.WithinTx(ctx, func(ctx context.Context, tx domain.TaskTx) error {
		task, err := tx.GetByID(ctx, req.OwnerID, req.TaskID)
		if err != nil {
			return err
		}
		task.StartMinute = req.StartMinute
		task.EndMinute = req.EndMinute
		if err := tx.Update(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/locvowork/dayplanner/internal/domain"
)

// MaxRangeDays bounds MaterializeRange.
const MaxRangeDays = 366

// RecurrenceResolver builds the visible occurrences of a day from explicit
// rows and the computed instances of unbounded roots. It never writes.
type RecurrenceResolver struct {
	repo domain.TaskReader
}

func NewRecurrenceResolver(repo domain.TaskReader) *RecurrenceResolver {
	return &RecurrenceResolver{repo: repo}
}

// MaterializeDay returns what is due for ownerID on date, sorted by slot.
// An owner with no tasks gets an empty list.
func (r *RecurrenceResolver) MaterializeDay(ctx context.Context, ownerID int64, date domain.Date) ([]domain.Occurrence, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: missing day", domain.ErrInvalidDate)
	}
	explicit, err := r.repo.ListByDate(ctx, ownerID, date)
	if err != nil {
		return nil, err
	}
	candidates, err := r.repo.ListRecurring(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return materialize(date, explicit, candidates)
}

// MaterializeRange materializes every day in [from, to].
func (r *RecurrenceResolver) MaterializeRange(ctx context.Context, ownerID int64, from, to domain.Date) ([]domain.DayAgenda, error) {
	if from.IsZero() || to.IsZero() {
		return nil, fmt.Errorf("%w: missing range bound", domain.ErrInvalidDate)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("%w: %s is before %s", domain.ErrInvalidRange, to, from)
	}
	if days := to.DaysSince(from) + 1; days > MaxRangeDays {
		return nil, fmt.Errorf("%w: %d days exceeds %d", domain.ErrInvalidRange, days, MaxRangeDays)
	}

	// Roots do not depend on the day, so they are read once.
	candidates, err := r.repo.ListRecurring(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var agenda []domain.DayAgenda
	for d := from; !d.After(to); d = d.AddDays(1) {
		explicit, err := r.repo.ListByDate(ctx, ownerID, d)
		if err != nil {
			return nil, err
		}
		occurrences, err := materialize(d, explicit, candidates)
		if err != nil {
			return nil, err
		}
		agenda = append(agenda, domain.DayAgenda{Date: d, Occurrences: occurrences})
	}
	return agenda, nil
}

// materialize merges the rows stored on date with the computed occurrences
// of candidates. A root is skipped on any day where some row links to it.
func materialize(date domain.Date, explicit, candidates []domain.Task) ([]domain.Occurrence, error) {
	excluded := make(map[int64]struct{}, len(explicit))
	for _, t := range explicit {
		if t.LinkID != nil {
			excluded[*t.LinkID] = struct{}{}
		}
	}

	visible := make([]domain.Occurrence, 0, len(explicit))
	for _, t := range explicit {
		if !t.Done {
			visible = append(visible, domain.OccurrenceFromTask(t))
		}
	}

	for _, c := range candidates {
		if domain.Classify(c).Kind != domain.KindRoot {
			return nil, fmt.Errorf("%w: recurring task %d links to task %d", domain.ErrInconsistentSeries, c.ID, *c.LinkID)
		}
		if _, ok := excluded[c.ID]; ok {
			continue
		}
		if c.OccursOn(date) {
			visible = append(visible, domain.VirtualOccurrence(c, date))
		}
	}

	sortOccurrences(visible)
	return visible, nil
}

func sortOccurrences(occ []domain.Occurrence) {
	sort.SliceStable(occ, func(i, j int) bool {
		a, b := occ[i], occ[j]
		if a.StartMinute != b.StartMinute {
			return a.StartMinute < b.StartMinute
		}
		if a.EndMinute != b.EndMinute {
			return a.EndMinute < b.EndMinute
		}
		return a.TargetID() < b.TargetID()
	})
}

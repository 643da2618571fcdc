package service

import (
	"context"

	"github.com/locvowork/dayplanner/internal/domain"
)

// mutationSet is everything one editor operation writes. It is computed in
// full from rows already read, then applied inside the same transaction.
type mutationSet struct {
	updates []*domain.Task
	inserts []*domain.Task
	// series makes the first insert link to itself and every later insert
	// link to the first.
	series bool
}

func (m *mutationSet) update(t *domain.Task) { m.updates = append(m.updates, t) }
func (m *mutationSet) insert(t *domain.Task) { m.inserts = append(m.inserts, t) }

func (m *mutationSet) apply(ctx context.Context, tx domain.TaskTx) error {
	for _, t := range m.updates {
		if err := tx.Update(ctx, t); err != nil {
			return err
		}
	}

	for i, t := range m.inserts {
		if m.series && i > 0 {
			t.LinkID = domain.Int64Ptr(m.inserts[0].ID)
		}
		if err := tx.Insert(ctx, t); err != nil {
			return err
		}
		if m.series && i == 0 {
			t.LinkID = domain.Int64Ptr(t.ID)
			if err := tx.Update(ctx, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyValues copies the fields every edit case writes.
func applyValues(t *domain.Task, v domain.TaskValues) {
	t.Body = v.Body
	t.StartMinute = v.StartMinute
	t.EndMinute = v.EndMinute
	t.Done = v.Done
	if v.Color != "" {
		t.Color = v.Color
	}
}

// planCreate turns a create request into the rows to insert. A request with
// both a positive frequency and an end date becomes a bounded run with one
// row per calendar day; anything else is a single row.
func planCreate(req domain.CreateTaskRequest) (*mutationSet, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	base := domain.Task{
		OwnerID:     req.OwnerID,
		Body:        req.Body,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
		Color:       req.Color,
	}

	freq := 0
	if req.FrequencyDays != nil {
		freq = *req.FrequencyDays
	}
	if freq == 0 || req.SeriesEndDate == nil {
		t := base
		t.Date = req.Date
		if req.FrequencyDays != nil {
			t.FrequencyDays = domain.IntPtr(freq)
		}
		return &mutationSet{inserts: []*domain.Task{&t}}, nil
	}

	end := *req.SeriesEndDate
	days := end.DaysSince(req.Date)
	m := &mutationSet{series: true, inserts: make([]*domain.Task, 0, days+1)}
	for k := 0; k <= days; k++ {
		t := base
		t.Date = req.Date.AddDays(k)
		t.FrequencyDays = domain.IntPtr(0)
		t.SeriesEndDate = domain.DatePtr(end)
		m.insert(&t)
	}
	return m, nil
}

// planLinkedEdit overwrites an exception or a bounded-run row in place.
func planLinkedEdit(target *domain.Task, v domain.TaskValues) *mutationSet {
	applyValues(target, v)
	target.FrequencyDays = domain.IntPtr(0)
	return &mutationSet{updates: []*domain.Task{target}}
}

// planCarve adds an exception for date under target and flags target as
// excepted. An exception on the root's own date hides the root row.
func planCarve(target *domain.Task, date domain.Date, v domain.TaskValues) (*mutationSet, *domain.Task) {
	exception := &domain.Task{
		OwnerID:       target.OwnerID,
		Date:          date,
		Color:         target.Color,
		FrequencyDays: domain.IntPtr(0),
		LinkID:        domain.Int64Ptr(target.ID),
	}
	applyValues(exception, v)

	target.LinkID = domain.Int64Ptr(target.ID)
	if date.Equal(target.Date) {
		target.Done = true
	}
	return &mutationSet{updates: []*domain.Task{target}, inserts: []*domain.Task{exception}}, exception
}

// planSeriesEdit rewrites every row linked to root. members must be ordered
// by creation and include root itself. A nil frequency leaves the cadence
// alone; only an explicit value collapses or re-spaces the series.
func planSeriesEdit(root *domain.Task, members []domain.Task, v domain.TaskValues) *mutationSet {
	m := &mutationSet{}
	last := len(members) - 1
	for i := range members {
		member := &members[i]
		if member.ID == root.ID && root.SeriesEndDate == nil && v.FrequencyDays != nil {
			member.FrequencyDays = domain.IntPtr(*v.FrequencyDays)
		}
		applyValues(member, v)

		switch {
		case v.Done:
			member.FrequencyDays = domain.IntPtr(0)
		case v.FrequencyDays == nil:
		case *v.FrequencyDays == 0 && i != last:
			member.Done = true
		case *v.FrequencyDays > 0 && root.Date.DaysSince(member.Date)%*v.FrequencyDays != 0:
			member.Done = true
		}
		m.update(member)
	}
	return m
}

// planDirectEdit edits a row that no other row links to.
func planDirectEdit(target *domain.Task, date domain.Date, v domain.TaskValues) *mutationSet {
	applyValues(target, v)
	if !date.IsZero() {
		target.Date = date
	}
	if v.Done {
		target.FrequencyDays = domain.IntPtr(0)
	} else {
		target.FrequencyDays = v.FrequencyDays
	}
	return &mutationSet{updates: []*domain.Task{target}}
}

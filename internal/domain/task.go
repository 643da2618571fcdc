package domain

import (
	"fmt"
	"time"
)

const (
	MinutesPerDay = 1440
	DefaultColor  = "6c757d"
)

// Task is one persisted row. Recurrence relationships are encoded in
// FrequencyDays and LinkID; use Classify to read them.
//
// FrequencyDays keeps nil and 0 apart: nil was never recurring, 0 marks a row
// that has been superseded or belongs to a bounded run.
type Task struct {
	ID            int64     `json:"id"`
	OwnerID       int64     `json:"owner_id"`
	Body          string    `json:"body"`
	Date          Date      `json:"date"`
	StartMinute   int       `json:"start_minute"`
	EndMinute     int       `json:"end_minute"`
	Done          bool      `json:"done"`
	Color         string    `json:"color"`
	FrequencyDays *int      `json:"frequency_days,omitempty"`
	SeriesEndDate *Date     `json:"series_end_date,omitempty"`
	LinkID        *int64    `json:"link_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Frequency returns FrequencyDays with nil read as 0.
func (t Task) Frequency() int {
	if t.FrequencyDays == nil {
		return 0
	}
	return *t.FrequencyDays
}

func (t Task) IsSelfLinked() bool {
	return t.LinkID != nil && *t.LinkID == t.ID
}

// LinksElsewhere reports whether the row points at a different row.
func (t Task) LinksElsewhere() bool {
	return t.LinkID != nil && *t.LinkID != t.ID
}

// Kind is the role a row plays in the recurrence model.
type Kind int

const (
	KindInvalid Kind = iota
	// KindStandalone does not recur and is not part of any series.
	KindStandalone
	// KindRoot recurs without an end; its later occurrences are computed.
	KindRoot
	// KindSeriesRoot is the first row of a bounded run, or a former
	// standalone row that has had an occurrence carved out of it.
	KindSeriesRoot
	// KindLinked overrides a root's occurrence (Exception) or is a later
	// row of a bounded run (SeriesChild). Both are edited the same way.
	KindLinked
)

func (k Kind) String() string {
	switch k {
	case KindStandalone:
		return "standalone"
	case KindRoot:
		return "root"
	case KindSeriesRoot:
		return "series_root"
	case KindLinked:
		return "linked"
	default:
		return "invalid"
	}
}

// Classification is the decoded form of a row's link and frequency fields.
type Classification struct {
	Kind          Kind
	FrequencyDays int
	// HasExceptions is set on a KindRoot that has been self-linked.
	HasExceptions bool
	// RootID is the row a KindLinked task points at, or the task's own id
	// for KindRoot and KindSeriesRoot.
	RootID int64
}

// Classify decodes t without consulting any other row.
func Classify(t Task) Classification {
	freq := t.Frequency()
	switch {
	case freq < 0:
		return Classification{Kind: KindInvalid}
	case freq > 0 && t.LinksElsewhere():
		return Classification{Kind: KindInvalid}
	case freq > 0:
		return Classification{Kind: KindRoot, FrequencyDays: freq, HasExceptions: t.IsSelfLinked(), RootID: t.ID}
	case t.LinkID == nil:
		return Classification{Kind: KindStandalone}
	case t.IsSelfLinked():
		return Classification{Kind: KindSeriesRoot, RootID: t.ID}
	default:
		return Classification{Kind: KindLinked, RootID: *t.LinkID}
	}
}

// OccursOn reports whether an unbounded root produces a computed occurrence on d.
// The root's own creation date is never computed: the row itself covers it.
func (t Task) OccursOn(d Date) bool {
	freq := t.Frequency()
	if freq <= 0 || !t.Date.Before(d) {
		return false
	}
	delta := d.DaysSince(t.Date)
	return delta > 0 && delta%freq == 0
}

// Occurrence is a single visible instance of a task on one day.
// A persisted row sets ID; a computed one sets RootID and leaves ID nil.
type Occurrence struct {
	ID            *int64 `json:"id"`
	RootID        *int64 `json:"root_id,omitempty"`
	Date          Date   `json:"date"`
	Body          string `json:"body"`
	StartMinute   int    `json:"start_minute"`
	EndMinute     int    `json:"end_minute"`
	Color         string `json:"color"`
	Done          bool   `json:"done"`
	Virtual       bool   `json:"virtual"`
	FrequencyDays int    `json:"frequency_days"`
}

// TargetID is the id an editor should be given for this occurrence.
func (o Occurrence) TargetID() int64 {
	if o.ID != nil {
		return *o.ID
	}
	return *o.RootID
}

// OccurrenceFromTask exposes a persisted row.
func OccurrenceFromTask(t Task) Occurrence {
	id := t.ID
	return Occurrence{
		ID:            &id,
		Date:          t.Date,
		Body:          t.Body,
		StartMinute:   t.StartMinute,
		EndMinute:     t.EndMinute,
		Color:         t.Color,
		Done:          t.Done,
		FrequencyDays: t.Frequency(),
	}
}

// VirtualOccurrence exposes root's computed instance on d. It is never done.
func VirtualOccurrence(root Task, d Date) Occurrence {
	rootID := root.ID
	return Occurrence{
		RootID:        &rootID,
		Date:          d,
		Body:          root.Body,
		StartMinute:   root.StartMinute,
		EndMinute:     root.EndMinute,
		Color:         root.Color,
		Virtual:       true,
		FrequencyDays: root.Frequency(),
	}
}

// CreateTaskRequest creates a one-off task, an unbounded root, or a bounded run.
type CreateTaskRequest struct {
	OwnerID       int64  `json:"owner_id"`
	Body          string `json:"body"`
	Date          Date   `json:"date"`
	StartMinute   int    `json:"start_minute"`
	EndMinute     int    `json:"end_minute"`
	Color         string `json:"color"`
	FrequencyDays *int   `json:"frequency_days,omitempty"`
	SeriesEndDate *Date  `json:"series_end_date,omitempty"`
}

// TaskValues are the editable fields of an edit request.
type TaskValues struct {
	Body          string `json:"body"`
	StartMinute   int    `json:"start_minute"`
	EndMinute     int    `json:"end_minute"`
	Color         string `json:"color"`
	Done          bool   `json:"done"`
	FrequencyDays *int   `json:"frequency_days,omitempty"`
}

// EditTaskRequest edits the row TargetID or the occurrence of it the user is
// looking at on OccurrenceDate.
type EditTaskRequest struct {
	OwnerID          int64      `json:"owner_id"`
	TargetID         int64      `json:"target_id"`
	SingleOccurrence bool       `json:"single_occurrence"`
	OccurrenceDate   Date       `json:"occurrence_date"`
	Values           TaskValues `json:"values"`
}

// RescheduleRequest moves one row's time slot without touching its series.
type RescheduleRequest struct {
	OwnerID     int64 `json:"owner_id"`
	TaskID      int64 `json:"task_id"`
	StartMinute int   `json:"start_minute"`
	EndMinute   int   `json:"end_minute"`
}

// ValidateMinutes checks that [start, end) is a non-empty slot inside one day.
func ValidateMinutes(start, end int) error {
	if start < 0 || end < 0 || start >= MinutesPerDay || end >= MinutesPerDay {
		return fmt.Errorf("%w: minutes %d-%d outside a day", ErrInvalidRange, start, end)
	}
	if start >= end {
		return fmt.Errorf("%w: start %d must be before end %d", ErrInvalidRange, start, end)
	}
	return nil
}

// ValidateFrequency rejects negative frequencies; nil is allowed.
func ValidateFrequency(freq *int) error {
	if freq != nil && *freq < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidFrequency, *freq)
	}
	return nil
}

func IntPtr(v int) *int       { return &v }
func Int64Ptr(v int64) *int64 { return &v }
func DatePtr(d Date) *Date    { return &d }

// DayAgenda is the materialized view of one day.
type DayAgenda struct {
	Date        Date         `json:"date"`
	Occurrences []Occurrence `json:"occurrences"`
}

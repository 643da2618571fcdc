package googlecloud

import (
	"time"
)

// TaskEntity is a task row as stored in Datastore. Its key is
// Task/<id> under the ancestor Owner/<owner_id>, so every per-owner query
// is an ancestor query and may run inside a transaction.
//
// Datastore has no nullable scalars: FrequencySet, an empty SeriesEndDate
// and a zero LinkID stand in for NULL.
type TaskEntity struct {
	ID      int64 `datastore:"-" json:"id"`      // Key ID
	OwnerID int64 `datastore:"-" json:"owner_id"` // Parent key ID

	Body          string    `datastore:"body,noindex" json:"body"`
	Date          string    `datastore:"date" json:"date"`
	StartMinute   int       `datastore:"start_minute,noindex" json:"start_minute"`
	EndMinute     int       `datastore:"end_minute,noindex" json:"end_minute"`
	Done          bool      `datastore:"done,noindex" json:"done"`
	Color         string    `datastore:"color,noindex" json:"color"`
	FrequencySet  bool      `datastore:"frequency_set,noindex" json:"frequency_set"`
	FrequencyDays int       `datastore:"frequency_days,noindex" json:"frequency_days"`
	Recurring     bool      `datastore:"recurring" json:"recurring"`
	SeriesEndDate string    `datastore:"series_end_date,noindex" json:"series_end_date,omitempty"`
	LinkID        int64     `datastore:"link_id" json:"link_id,omitempty"`
	CreatedAt     time.Time `datastore:"created_at" json:"created_at"`
}

package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/locvowork/dayplanner/internal/domain"
	"github.com/locvowork/dayplanner/internal/logger"
	"github.com/locvowork/dayplanner/pkg/googlecloud"
)

// Notifier delivers the occurrences that are about to start for one owner.
type Notifier interface {
	Notify(ctx context.Context, ownerID int64, due []domain.Occurrence) error
}

// LogNotifier writes one log line per due occurrence.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, ownerID int64, due []domain.Occurrence) error {
	for _, o := range due {
		logger.Fields(ctx).
			Int64("owner_id", ownerID).
			Int64("task_id", o.TargetID()).
			Bool("virtual", o.Virtual).
			Int("start_minute", o.StartMinute).
			Msgf("due: %s", o.Body)
	}
	return nil
}

type DuePollerConfig struct {
	Interval time.Duration
	// Window is how far ahead of now an occurrence counts as due.
	Window      time.Duration
	Concurrency int
	Retry       googlecloud.RetryConfig
	// Location decides which calendar day "today" is. Defaults to UTC.
	Location *time.Location
	Now      func() time.Time
}

type ownerLister interface {
	ListOwnerIDs(ctx context.Context) ([]int64, error)
}

// DuePoller periodically materializes today for every owner and notifies
// about occurrences starting within the window.
type DuePoller struct {
	owners   ownerLister
	resolver *RecurrenceResolver
	notifier Notifier
	cfg      DuePollerConfig
}

func NewDuePoller(repo domain.TaskRepository, notifier Notifier, cfg DuePollerConfig) *DuePoller {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Window <= 0 {
		cfg.Window = cfg.Interval
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = googlecloud.DefaultRetryConfig()
	}
	if cfg.Retry.Retryable == nil {
		cfg.Retry.Retryable = isTransient
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &DuePoller{
		owners:   repo,
		resolver: NewRecurrenceResolver(repo),
		notifier: notifier,
		cfg:      cfg,
	}
}

// Run polls until ctx is cancelled.
func (p *DuePoller) Run(ctx context.Context) error {
	logger.InfoLog(ctx, "due poller started: interval %s, window %s", p.cfg.Interval, p.cfg.Window)
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := p.Tick(ctx); err != nil && ctx.Err() == nil {
			logger.ErrorLog(ctx, "due poller tick failed: %v", err)
		}
		select {
		case <-ctx.Done():
			logger.InfoLog(ctx, "due poller stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one poll and returns how many occurrences were handed to the
// notifier. A failing owner is logged and skipped.
func (p *DuePoller) Tick(ctx context.Context) (int, error) {
	now := p.cfg.Now().In(p.cfg.Location)
	today := domain.DateOf(now)
	from := now.Hour()*60 + now.Minute()
	// The window does not cross midnight; tomorrow's early tasks are picked
	// up by the first ticks after it.
	to := from + int(p.cfg.Window/time.Minute)
	if to > domain.MinutesPerDay {
		to = domain.MinutesPerDay
	}

	owners, err := p.owners.ListOwnerIDs(ctx)
	if err != nil {
		return 0, err
	}

	var notified int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for _, ownerID := range owners {
		ownerID := ownerID
		g.Go(func() error {
			var day []domain.Occurrence
			err := googlecloud.WithRetry(gctx, p.cfg.Retry, func() error {
				var err error
				day, err = p.resolver.MaterializeDay(gctx, ownerID, today)
				return err
			})
			if err != nil {
				logger.ErrorLog(gctx, "due poller: owner %d: %v", ownerID, err)
				return nil
			}

			due := dueBetween(day, from, to)
			if len(due) == 0 {
				return nil
			}
			if err := p.notifier.Notify(gctx, ownerID, due); err != nil {
				logger.ErrorLog(gctx, "due poller: notify owner %d: %v", ownerID, err)
				return nil
			}
			atomic.AddInt64(&notified, int64(len(due)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(notified), err
	}
	return int(notified), ctx.Err()
}

// isTransient reports whether a failed owner read may succeed if repeated.
// Corrupt series and bad input fail the same way every time.
func isTransient(err error) bool {
	if googlecloud.IsContention(err) {
		return true
	}
	switch {
	case errors.Is(err, domain.ErrInconsistentSeries),
		errors.Is(err, domain.ErrNotFound),
		domain.IsValidationError(err),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// dueBetween keeps the occurrences that start in [from, to). Materialized
// days never contain done rows.
func dueBetween(day []domain.Occurrence, from, to int) []domain.Occurrence {
	var due []domain.Occurrence
	for _, o := range day {
		if o.StartMinute >= from && o.StartMinute < to {
			due = append(due, o)
		}
	}
	return due
}

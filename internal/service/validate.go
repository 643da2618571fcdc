package service

import (
	"fmt"

	"github.com/locvowork/dayplanner/internal/domain"
)

// MaxSeriesDays caps how many rows one bounded run may create.
const MaxSeriesDays = 366

func validateCreate(req domain.CreateTaskRequest) error {
	if req.Date.IsZero() {
		return fmt.Errorf("%w: task needs a date", domain.ErrInvalidDate)
	}
	if err := domain.ValidateMinutes(req.StartMinute, req.EndMinute); err != nil {
		return err
	}
	if err := domain.ValidateFrequency(req.FrequencyDays); err != nil {
		return err
	}
	if req.SeriesEndDate != nil {
		if req.SeriesEndDate.Before(req.Date) {
			return fmt.Errorf("%w: series ends %s before it starts %s", domain.ErrInvalidRange, req.SeriesEndDate, req.Date)
		}
		if days := req.SeriesEndDate.DaysSince(req.Date) + 1; days > MaxSeriesDays {
			return fmt.Errorf("%w: series of %d days exceeds %d", domain.ErrInvalidRange, days, MaxSeriesDays)
		}
	}
	return nil
}

func validateValues(v domain.TaskValues) error {
	if err := domain.ValidateMinutes(v.StartMinute, v.EndMinute); err != nil {
		return err
	}
	return domain.ValidateFrequency(v.FrequencyDays)
}

// checkClassified rejects rows whose link and frequency fields contradict each other.
func checkClassified(t *domain.Task) (domain.Classification, error) {
	c := domain.Classify(*t)
	if c.Kind == domain.KindInvalid {
		return c, fmt.Errorf("%w: task %d has frequency %d and links to another task", domain.ErrInconsistentSeries, t.ID, t.Frequency())
	}
	return c, nil
}

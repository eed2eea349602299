package cron

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrInvalidCronExpression = errors.New("invalid cron expression")

// Schedule wraps a parsed five-field cron expression used to drive
// time-based aggregation wake-ups.
type Schedule struct {
	spec cron.Schedule
}

func Parse(expr string) (*Schedule, error) {
	if expr == "" {
		return nil, ErrInvalidCronExpression
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	spec, err := parser.Parse(expr)
	if err != nil {
		return nil, ErrInvalidCronExpression
	}

	return &Schedule{spec: spec}, nil
}

func Validate(expr string) error {
	_, err := Parse(expr)

	return err
}

// Next returns the first activation time after from.
func (s *Schedule) Next(from time.Time) time.Time {
	if s == nil || s.spec == nil {
		return time.Time{}
	}

	return s.spec.Next(from)
}

// Until returns the duration from now until the next activation.
func (s *Schedule) Until(now time.Time) time.Duration {
	next := s.Next(now)
	if next.IsZero() {
		return 0
	}

	return next.Sub(now)
}

package cron

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		expr string
		err  error
	}{
		{name: "every 30 minutes", expr: "*/30 * * * *"},
		{name: "hourly", expr: "0 * * * *"},
		{name: "empty", expr: "", err: ErrInvalidCronExpression},
		{name: "gibberish", expr: "not a cron", err: ErrInvalidCronExpression},
		{name: "too many fields", expr: "* * * * * *", err: ErrInvalidCronExpression},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Parse(tc.expr)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestNext(t *testing.T) {
	s, err := Parse("*/30 * * * *")
	require.NoError(t, err)

	from := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)
	next := s.Next(from)
	assert.Equal(t, time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC), next)

	assert.Equal(t, 25*time.Minute, s.Until(from))
}

func TestNextNilSchedule(t *testing.T) {
	var s *Schedule
	assert.True(t, s.Next(time.Now()).IsZero())
}

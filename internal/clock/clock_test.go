package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jmorken/codeclock/internal/clock"
)

func TestRemainingAndElapsed(t *testing.T) {
	anchor := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	now := anchor.Add(90 * time.Second)
	require.Equal(t, 30*time.Second, clock.Remaining(now, anchor, 2*time.Minute))
	require.Equal(t, 90*time.Second, clock.Elapsed(now, anchor))
	require.False(t, clock.IsDue(now, anchor, 2*time.Minute))

	now = anchor.Add(2 * time.Minute)
	require.Equal(t, time.Duration(0), clock.Remaining(now, anchor, 2*time.Minute))
	require.True(t, clock.IsDue(now, anchor, 2*time.Minute))
}

func TestRemainingInvariantUnderSuspension(t *testing.T) {
	// A 47-minute gap between observations must give the same answer as
	// direct computation from absolute instants: nothing accumulates.
	anchor := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	resumed := anchor.Add(47 * time.Minute)

	require.Equal(t, time.Duration(0), clock.Remaining(resumed, anchor, 4*time.Minute))
	require.Equal(t, 47*time.Minute, clock.Elapsed(resumed, anchor))
	require.True(t, clock.IsDue(resumed, anchor, 4*time.Minute))
}

func TestRemainingNeverNegative(t *testing.T) {
	anchor := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	// Clock skew can put now before the anchor; clamp instead of going
	// negative.
	now := anchor.Add(-10 * time.Second)
	require.Equal(t, 2*time.Minute, clock.Remaining(now, anchor, 2*time.Minute))
	require.Equal(t, time.Duration(0), clock.Elapsed(now, anchor))
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := clock.NewFake(start)
	require.Equal(t, start, fake.Now())

	fake.Advance(90 * time.Second)
	require.Equal(t, start.Add(90*time.Second), fake.Now())

	fake.Set(start.Add(time.Hour))
	require.Equal(t, start.Add(time.Hour), fake.Now())
}

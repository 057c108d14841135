package timeutil_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/studytime/internal/timeutil"
)

func TestClock(t *testing.T) {
	long := time.Hour + 2*time.Minute + 1500*time.Millisecond

	cases := map[time.Duration]string{
		0:                               "00:00",
		-time.Second:                    "00:00",
		90 * time.Second:                "01:30",
		59*time.Minute + 59*time.Second: "59:59",
		long:                            "1:02:01",
	}

	for in, want := range cases {
		assert.Equal(t, want, timeutil.Clock(in), "Clock(%v)", in)
	}
}

func TestDayKeyChangesAtMidnight(t *testing.T) {
	late := time.Date(2024, 5, 1, 23, 59, 59, 0, time.Local)
	early := late.Add(2 * time.Second)

	assert.Equal(t, "2024-05-01", timeutil.DayKey(late))
	assert.Equal(t, "2024-05-02", timeutil.DayKey(early))
}

func TestBounds(t *testing.T) {
	now := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

	start, end, err := timeutil.Bounds(timeutil.Period7Days, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 5, 10, 23, 59, 59, 0, time.UTC), end)

	start, end, err = timeutil.Bounds(timeutil.PeriodYesterday, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 5, 9, 23, 59, 59, 0, time.UTC), end)

	start, _, err = timeutil.Bounds(timeutil.PeriodAllTime, now)
	require.NoError(t, err)
	assert.True(t, start.IsZero())

	_, _, err = timeutil.Bounds("fortnight", now)
	assert.Error(t, err)
}

package timeline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swaxidriver/swaxi-dispo-v6-sub000/internal/domain"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Minutes
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:30", 510, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"8:30", 0, true},
		{"08.30", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				var vErr *domain.ValidationError
				assert.True(t, errors.As(err, &vErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       int
	}{
		{"plain day shift", "08:00", "16:00", 480},
		{"one minute", "12:00", "12:01", 1},
		{"cross midnight", "22:00", "06:00", 480},
		{"ends at midnight", "17:45", "00:00", 375},
		{"full day", "09:00", "09:00", 1440},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseClock(tt.start)
			require.NoError(t, err)
			e, err := ParseClock(tt.end)
			require.NoError(t, err)

			got := Duration(s, e)
			assert.Equal(t, tt.want, got)
			assert.Greater(t, got, 0)
			assert.LessOrEqual(t, got, 1440)
		})
	}
}

func mustClock(t *testing.T, s string) Minutes {
	t.Helper()
	m, err := ParseClock(s)
	require.NoError(t, err)
	return m
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name         string
		aStart, aEnd string
		bStart, bEnd string
		want         bool
	}{
		{"disjoint same day", "08:00", "12:00", "13:00", "17:00", false},
		{"touching ranges do not overlap", "08:00", "12:00", "12:00", "16:00", false},
		{"nested", "08:00", "18:00", "10:00", "12:00", true},
		{"partial", "08:00", "12:00", "11:00", "15:00", true},
		{"night tail hits morning", "22:00", "06:00", "05:00", "09:00", true},
		{"night vs disjoint afternoon", "22:00", "06:00", "10:00", "14:00", false},
		{"two night shifts", "21:00", "05:00", "23:00", "07:00", true},
		{"head before wrap", "22:00", "06:00", "20:00", "23:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aS, aE := mustClock(t, tt.aStart), mustClock(t, tt.aEnd)
			bS, bE := mustClock(t, tt.bStart), mustClock(t, tt.bEnd)

			assert.Equal(t, tt.want, Overlaps(aS, aE, bS, bE))
			// symmetry
			assert.Equal(t, tt.want, Overlaps(bS, bE, aS, aE))
		})
	}
}

func TestNewInterval(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	t.Run("same day", func(t *testing.T) {
		iv, err := NewInterval("2025-01-15", mustClock(t, "08:00"), mustClock(t, "16:00"), loc)
		require.NoError(t, err)
		assert.Equal(t, 15, iv.StartLocal.Day())
		assert.Equal(t, 15, iv.EndLocal.Day())
		assert.True(t, iv.End.After(iv.Start))
	})

	t.Run("cross midnight rolls end to next day", func(t *testing.T) {
		iv, err := NewInterval("2025-01-15", mustClock(t, "22:00"), mustClock(t, "06:00"), loc)
		require.NoError(t, err)
		assert.Equal(t, 15, iv.StartLocal.Day())
		assert.Equal(t, 16, iv.EndLocal.Day())
		assert.True(t, iv.End.After(iv.Start))
		assert.Equal(t, 480, int(iv.End.Sub(iv.Start)/time.Minute))
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := NewInterval("15.01.2025", 0, 60, loc)
		require.Error(t, err)
	})
}

func TestIntervalOverlapsAcrossDates(t *testing.T) {
	loc := time.UTC

	// Night shift on the 15th vs morning shift on the 16th: naive
	// time-of-day comparison cannot see this, instants can.
	night, err := NewInterval("2025-01-15", mustClock(t, "22:00"), mustClock(t, "06:00"), loc)
	require.NoError(t, err)
	morning, err := NewInterval("2025-01-16", mustClock(t, "05:00"), mustClock(t, "13:00"), loc)
	require.NoError(t, err)

	assert.True(t, night.Overlaps(morning))
	assert.True(t, morning.Overlaps(night))

	// A morning shift two days later does not intersect.
	later, err := NewInterval("2025-01-17", mustClock(t, "05:00"), mustClock(t, "13:00"), loc)
	require.NoError(t, err)
	assert.False(t, night.Overlaps(later))
}

func TestIntervalAgreesWithClockOverlapSameDay(t *testing.T) {
	loc := time.UTC
	pairs := []struct {
		aStart, aEnd, bStart, bEnd string
	}{
		{"08:00", "12:00", "11:00", "15:00"},
		{"08:00", "12:00", "13:00", "17:00"},
		{"06:00", "14:00", "14:00", "22:00"},
		{"09:00", "17:00", "10:00", "11:00"},
	}

	for _, p := range pairs {
		aS, aE := mustClock(t, p.aStart), mustClock(t, p.aEnd)
		bS, bE := mustClock(t, p.bStart), mustClock(t, p.bEnd)

		a, err := NewInterval("2025-03-03", aS, aE, loc)
		require.NoError(t, err)
		b, err := NewInterval("2025-03-03", bS, bE, loc)
		require.NoError(t, err)

		assert.Equal(t, Overlaps(aS, aE, bS, bE), a.Overlaps(b),
			"instants disagree with clock overlap for %+v", p)
	}
}

func TestMinutesBetween(t *testing.T) {
	loc := time.UTC

	night, err := NewInterval("2025-01-15", mustClock(t, "22:00"), mustClock(t, "06:00"), loc)
	require.NoError(t, err)
	morning, err := NewInterval("2025-01-16", mustClock(t, "08:00"), mustClock(t, "16:00"), loc)
	require.NoError(t, err)

	assert.Equal(t, 120, MinutesBetween(night, morning))

	overlapping, err := NewInterval("2025-01-16", mustClock(t, "05:00"), mustClock(t, "13:00"), loc)
	require.NoError(t, err)
	assert.Equal(t, -60, MinutesBetween(night, overlapping))
}

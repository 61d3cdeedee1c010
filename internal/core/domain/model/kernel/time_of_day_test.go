package kernel_test

import (
	"testing"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"cutoff", "17:00", "17:00", false},
		{"midnight", "00:00", "00:00", false},
		{"leading zero", "07:05", "07:05", false},
		{"hour out of range", "24:00", "", true},
		{"seconds", "17:00:00", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := kernel.ParseTimeOfDay(tt.input)

			if tt.wantErr {
				require.ErrorIs(t, err, errs.ErrValueIsInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestTimeOfDay_Reached(t *testing.T) {
	cutoff := kernel.MustParseTimeOfDay("17:00")
	loc := time.FixedZone("lab", 3*60*60)

	assert.False(t, cutoff.Reached(time.Date(2025, 3, 14, 16, 59, 59, 0, loc)))
	assert.True(t, cutoff.Reached(time.Date(2025, 3, 14, 17, 0, 0, 0, loc)))
	assert.True(t, cutoff.Reached(time.Date(2025, 3, 14, 23, 59, 0, 0, loc)))
	assert.False(t, cutoff.Reached(time.Date(2025, 3, 15, 0, 1, 0, 0, loc)))
}

func TestTimeOfDay_On(t *testing.T) {
	cutoff := kernel.MustParseTimeOfDay("17:30")
	ts := time.Date(2025, 3, 14, 9, 12, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 3, 14, 17, 30, 0, 0, time.UTC), cutoff.On(ts))
}

func TestDayWindow(t *testing.T) {
	loc := time.FixedZone("lab", -5*60*60)
	ts := time.Date(2025, 3, 14, 17, 0, 0, 0, loc)

	from, to := kernel.DayWindow(ts)

	assert.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, loc), to)
}

func TestMinutesBetween(t *testing.T) {
	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, kernel.MinutesBetween(base, base))
	assert.Equal(t, 45, kernel.MinutesBetween(base, base.Add(45*time.Minute)))
	assert.Equal(t, 45, kernel.MinutesBetween(base, base.Add(45*time.Minute+59*time.Second)))
	assert.Equal(t, -1, kernel.MinutesBetween(base.Add(90*time.Second), base))
}

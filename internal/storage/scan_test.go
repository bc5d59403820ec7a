package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTime_Scan(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 30, 15, 123456000, time.UTC)

	tests := []struct {
		name string
		src  any
		want time.Time
	}{
		{"time value", want.In(time.FixedZone("X", 3600)), want},
		{"sqlite text", "2024-03-01 10:30:15.123456+00:00", want},
		{"go string format", "2024-03-01 10:30:15.123456 +0000 UTC", want},
		{"rfc3339 bytes", []byte("2024-03-01T10:30:15.123456Z"), want},
		{"no fraction", "2024-03-01 10:30:15", time.Date(2024, 3, 1, 10, 30, 15, 0, time.UTC)},
		{"unix seconds", int64(1709289015), time.Date(2024, 3, 1, 10, 30, 15, 0, time.UTC)},
		{"null", nil, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Time
			require.NoError(t, got.Scan(tt.src))
			assert.True(t, tt.want.Equal(got.Time), "want %v got %v", tt.want, got.Time)
		})
	}
}

func TestTime_ScanRejectsGarbage(t *testing.T) {
	var got Time
	assert.Error(t, got.Scan("yesterday"))
	assert.Error(t, got.Scan(3.14))
}

func TestDate_ScanNormalizesToMidnight(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2024-04-15"))
	assert.Equal(t, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC), d.Time)

	require.NoError(t, d.Scan(time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC), d.Time)

	assert.Equal(t, "2024-04-16", FormatDate(d.Time))
}

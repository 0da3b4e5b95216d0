package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBuildDailySpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "00:00", want: "0 0 0 * * *"},
		{in: "07:30", want: "0 30 7 * * *"},
		{in: "23:59", want: "0 59 23 * * *"},
		{in: "24:00", wantErr: true},
		{in: "7", wantErr: true},
		{in: "aa:bb", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := buildDailySpec(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScheduleDailyNextRun(t *testing.T) {
	sched := NewSchedulerService(time.UTC, zaptest.NewLogger(t).Sugar())

	id, err := sched.ScheduleDaily("00:00", func() {})
	require.NoError(t, err)

	sched.Start()
	defer sched.Stop()

	next := sched.Next(id)
	require.False(t, next.IsZero())
	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))

	_, err = sched.ScheduleDaily("25:00", func() {})
	assert.Error(t, err)
}

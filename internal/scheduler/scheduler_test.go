package scheduler_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/wkillerud/some-sass-sub003/internal/scheduler"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestOrder(t *testing.T) {
	s := scheduler.NewScheduler(4)
	s.RunScheduler()

	var mu sync.Mutex
	var got []int
	for i := 0; i < 20; i++ {
		require.NoError(t, s.ScheduleHighPriorityTask(scheduler.Task{
			Name: "append",
			Execute: func() error {
				mu.Lock()
				defer mu.Unlock()
				got = append(got, i)
				return nil
			},
		}))
	}
	s.StopScheduler()

	require.Len(t, got, 20)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestDo(t *testing.T) {
	s := scheduler.NewScheduler(1)
	s.RunScheduler()
	defer s.StopScheduler()

	boom := errors.New("boom")
	assert.ErrorIs(t, s.Do("fail", func() error { return boom }), boom)
	assert.NoError(t, s.Do("ok", func() error { return nil }))
}

func TestStopped(t *testing.T) {
	s := scheduler.NewScheduler(1)
	s.RunScheduler()
	s.StopScheduler()
	s.StopScheduler()

	err := s.ScheduleHighPriorityTask(scheduler.Task{Name: "late", Execute: func() error { return nil }})
	assert.ErrorIs(t, err, scheduler.ErrStopped)
	assert.ErrorIs(t, s.Do("late", func() error { return nil }), scheduler.ErrStopped)
}

func TestPeriodic(t *testing.T) {
	s := scheduler.NewScheduler(2)
	s.RunScheduler()

	var runs atomic.Int32
	s.SchedulePeriodicTask(5*time.Millisecond, scheduler.Task{
		Name: "prune",
		Execute: func() error {
			runs.Add(1)
			return nil
		},
	})
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, time.Millisecond)
	s.StopScheduler()

	after := runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

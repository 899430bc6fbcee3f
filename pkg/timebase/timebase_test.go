package timebase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/swali.go/pkg/framework"
)

func TestSince(t *testing.T) {
	testCases := []struct {
		name       string
		now, start Millis
		expect     Millis
	}{
		{"plain", 1500, 1000, 500},
		{"zero", 42, 42, 0},
		{"wrapped", 100, 65000, 636},
		{"wrapped to zero", 0, 0xffff, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, Since(tc.now, tc.start))
		})
	}
}

func TestManualClock(t *testing.T) {
	var c Manual
	c.Set(0xfff0)
	require.Equal(t, Millis(0x10), c.Advance(0x20))
	require.Equal(t, Millis(0x10), c.Now())
}

func TestSchedulerCapacity(t *testing.T) {
	s := NewScheduler(&Manual{})
	for i := 0; i < MaxCallbacks; i++ {
		require.NoError(t, s.Register(func() {}))
	}
	require.Equal(t, ErrTableFull, s.Register(func() {}))
	require.Panics(t, func() { s.MustRegister(func() {}) })
	require.Equal(t, MaxCallbacks, s.Len())
}

func TestSchedulerServiceOrder(t *testing.T) {
	s := NewScheduler(&Manual{})
	var calls []int
	s.MustRegister(func() { calls = append(calls, 1) })
	s.MustRegister(func() { calls = append(calls, 2) })
	s.Service()
	s.Service()
	require.Equal(t, []int{1, 2, 1, 2}, calls)
}

func TestSchedulerControlCatchesUp(t *testing.T) {
	clock := &Manual{}
	s := NewScheduler(clock)
	var ticks int
	s.MustRegister(func() { ticks++ })
	loop := fx.NewLoop().Add(s)

	loop.RunOnce(context.Background())
	require.Equal(t, 1, ticks)

	loop.RunOnce(context.Background())
	require.Equal(t, 1, ticks)

	clock.Advance(3)
	loop.RunOnce(context.Background())
	require.Equal(t, 4, ticks)
}

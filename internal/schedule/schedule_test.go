package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsTask(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	defer func() { _ = s.Stop() }()

	var runs atomic.Int32
	require.NoError(t, s.Every("tick", 10*time.Millisecond, func() { runs.Add(1) }))
	s.Start()

	require.Eventually(t, func() bool { return runs.Load() >= 2 },
		2*time.Second, 10*time.Millisecond)
}

func TestScheduler_StopIsIdempotentEnough(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	s.Start()
	require.NoError(t, s.Stop())
}

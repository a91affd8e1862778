package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfiler_LogsOncePerInterval(t *testing.T) {
	var buf bytes.Buffer
	prev := common.Logger()
	common.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer common.SetLogger(prev)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewProfiler(WithInterval(time.Second), WithClock(func() time.Time { return now }))

	for i := 0; i < 9; i++ {
		now = now.Add(100 * time.Millisecond)
		require.False(t, p.Tick(Counters{FramesExecuted: uint64(i)}), "tick %d", i)
	}
	assert.Empty(t, buf.String())

	now = now.Add(100 * time.Millisecond)
	require.True(t, p.Tick(Counters{FramesExecuted: 20, FramesDropped: 3, CommandsExecuted: 100, CulledSessions: 7, VisibleSessions: 2}))

	r := p.Last()
	assert.InDelta(t, 10, r.FPS, 1e-9)
	assert.InDelta(t, 20, r.FramesPerSec, 1e-9)
	assert.InDelta(t, 100, r.CommandsSec, 1e-9)
	assert.Equal(t, uint64(3), r.DroppedDelta)
	assert.Equal(t, uint64(7), r.CulledDelta)
	assert.Equal(t, 2, r.Visible)
	assert.Contains(t, buf.String(), "msg=profiler")
	assert.Contains(t, buf.String(), "framesDropped=3")

	now = now.Add(2 * time.Second)
	require.True(t, p.Tick(Counters{FramesExecuted: 30, FramesDropped: 3, CommandsExecuted: 100, CulledSessions: 9}))
	r = p.Last()
	assert.InDelta(t, 0.5, r.FPS, 1e-9)
	assert.InDelta(t, 5, r.FramesPerSec, 1e-9, "counters are reported as deltas")
	assert.Equal(t, uint64(0), r.DroppedDelta)
	assert.Equal(t, uint64(2), r.CulledDelta)
}

func TestProfiler_IgnoresInvalidOptions(t *testing.T) {
	p := NewProfiler(WithInterval(0), WithClock(nil))
	assert.Equal(t, time.Second, p.updateInterval)
	assert.NotNil(t, p.clock)
}

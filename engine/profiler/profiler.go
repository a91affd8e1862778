package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/common"
)

// Counters are the cumulative runtime counters sampled on every Tick.
type Counters struct {
	FramesExecuted   uint64
	FramesDropped    uint64
	CommandsExecuted uint64
	CommandErrors    uint64
	CulledSessions   uint64
	VisibleSessions  int
}

// Report is one logged profiler sample. Rates are per second over the elapsed interval.
type Report struct {
	FPS          float64
	HeapMB       float64
	SysMB        float64
	AllocRateMB  float64
	GCCount      uint32
	LastPauseUs  uint64
	MaxPauseUs   uint64
	FramesPerSec float64
	DroppedDelta uint64
	CommandsSec  float64
	ErrorsDelta  uint64
	CulledDelta  uint64
	Visible      int
}

// Profiler tracks render loop rate, memory statistics and XR counters.
// Logs a line at a configurable interval.
type Profiler struct {
	iterations     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	lastCounters   Counters
	last           Report
	clock          func() time.Time
}

// ProfilerOption is a functional option for configuring a Profiler.
type ProfilerOption func(*Profiler)

// WithInterval sets how often Tick logs. Values <= 0 are ignored.
//
// Parameters:
//   - d: the log interval
//
// Returns:
//   - ProfilerOption: functional option to set the interval
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithClock replaces the time source.
func WithClock(clock func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		clock:          time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.clock()
	return p
}

// Tick should be called once per render loop iteration.
// Logs FPS, heap usage, allocation rate, GC pauses and the deltas of the XR counters when the
// update interval has elapsed.
//
// Parameters:
//   - c: the current cumulative counters
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(c Counters) bool {
	p.iterations++
	now := p.clock()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}
	secs := elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	r := Report{
		FPS:         float64(p.iterations) / secs,
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / secs,
		GCCount:     p.memStats.NumGC,
		Visible:     c.VisibleSessions,
	}

	if gcCount := p.memStats.NumGC; gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		r.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	prev := p.lastCounters
	r.FramesPerSec = float64(c.FramesExecuted-prev.FramesExecuted) / secs
	r.CommandsSec = float64(c.CommandsExecuted-prev.CommandsExecuted) / secs
	r.DroppedDelta = c.FramesDropped - prev.FramesDropped
	r.ErrorsDelta = c.CommandErrors - prev.CommandErrors
	r.CulledDelta = c.CulledSessions - prev.CulledSessions

	common.Logger().Info("profiler",
		"fps", r.FPS,
		"heapMB", r.HeapMB,
		"allocRateMB", r.AllocRateMB,
		"gc", r.GCCount,
		"gcLastPauseUs", r.LastPauseUs,
		"gcMaxPauseUs", r.MaxPauseUs,
		"sysMB", r.SysMB,
		"framesPerSec", r.FramesPerSec,
		"framesDropped", r.DroppedDelta,
		"commandsPerSec", r.CommandsSec,
		"commandErrors", r.ErrorsDelta,
		"sessionsCulled", r.CulledDelta,
		"sessionsVisible", r.Visible,
	)

	p.iterations = 0
	p.lastTime = now
	p.lastGCCount = p.memStats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.lastCounters = c
	p.last = r
	return true
}

// Last returns the most recently logged report.
func (p *Profiler) Last() Report {
	return p.last
}

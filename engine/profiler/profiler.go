// Package profiler times named pipeline stages and reports them with memory statistics.
package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-shade/common"
)

// StageStats accumulates the timings of one named stage.
type StageStats struct {
	Name  string
	Count int
	Total time.Duration
	Max   time.Duration
}

// Mean returns the average duration of the stage, zero before the first sample.
func (s StageStats) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Profiler tracks stage timings and memory statistics for performance monitoring.
// A nil *Profiler is valid and records nothing, so callers need no guards.
type Profiler struct {
	mu             sync.Mutex
	stages         map[string]*StageStats
	order          []string
	memStats       runtime.MemStats
	lastReport     time.Time
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler with no recorded stages.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		stages:     make(map[string]*StageStats),
		lastReport: time.Now(),
	}
}

// Start begins timing one run of a stage. Calling the returned function records it.
//
// Parameters:
//   - stage: the stage name
//
// Returns:
//   - func(): stops the timer
func (p *Profiler) Start(stage string) func() {
	if p == nil {
		return func() {}
	}
	begin := time.Now()
	return func() {
		p.Record(stage, time.Since(begin))
	}
}

// Record adds one sample to a stage.
//
// Parameters:
//   - stage: the stage name
//   - d: the measured duration
func (p *Profiler) Record(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stages[stage]
	if !ok {
		s = &StageStats{Name: stage}
		p.stages[stage] = s
		p.order = append(p.order, stage)
	}
	s.Count++
	s.Total += d
	s.Max = max(s.Max, d)
}

// Stages returns a snapshot of every stage in first-recorded order.
//
// Returns:
//   - []StageStats: the stage statistics
func (p *Profiler) Stages() []StageStats {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]StageStats, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, *p.stages[name])
	}
	return out
}

// Report logs every stage and the heap, allocation rate and GC pauses since the previous
// report through common.Logger at Info level.
//
// Returns:
//   - []StageStats: the stages that were logged
func (p *Profiler) Report() []StageStats {
	if p == nil {
		return nil
	}
	stages := p.Stages()
	log := common.Logger()
	for _, s := range stages {
		log.Info("stage",
			"name", s.Name,
			"count", s.Count,
			"total", s.Total,
			"mean", s.Mean(),
			"max", s.Max)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(p.lastReport).Seconds()
	runtime.ReadMemStats(&p.memStats)

	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	var allocRateMB float64
	if elapsed > 0 {
		allocRateMB = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed
	}

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	log.Info("memory",
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"last_pause_us", lastPauseUs,
		"max_pause_us", maxPauseUs,
		"sys_mb", sysMB)

	p.lastReport = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return stages
}

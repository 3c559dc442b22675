package memory

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/internal/config"
	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
)

const (
	mb = 1024 * 1024

	criticalPercent = 90
	mediumPercent   = 60

	gcPause = time.Second
)

type Pressure string

const (
	PressureLow      Pressure = "LOW"
	PressureMedium   Pressure = "MEDIUM"
	PressureHigh     Pressure = "HIGH"
	PressureCritical Pressure = "CRITICAL"
	PressureUnknown  Pressure = "UNKNOWN"
)

// Source names which bound was used as the denominator of a Snapshot.
type Source string

const (
	SourceHost       Source = "host"
	SourceCgroup     Source = "cgroup"
	SourceGoMemLimit Source = "gomemlimit"
)

type Config struct {
	EnableMonitoring   bool    `json:"enable_memory_monitoring"`
	ThresholdPercent   float64 `json:"memory_threshold_percentage"`
	MinFreeMB          int64   `json:"min_free_memory_mb"`
	MaxConcurrentTasks int     `json:"max_concurrent_tasks"`
	PerTaskMB          int64   `json:"per_task_memory_mb"`
	MaxFileSizeMB      int64   `json:"max_file_size_mb"`
	EnableAdaptive     bool    `json:"enable_adaptive_processing"`
}

func ConfigFrom(p *config.ProcessingConfig) Config {
	return Config{
		EnableMonitoring:   p.EnableMemoryMonitoring,
		ThresholdPercent:   p.MemoryThresholdPercentage,
		MinFreeMB:          p.MinFreeMemoryMB,
		MaxConcurrentTasks: p.MaxConcurrentTasks,
		PerTaskMB:          p.PerTaskMemoryMB,
		MaxFileSizeMB:      p.MaxFileSizeMB,
		EnableAdaptive:     p.EnableAdaptiveProcessing,
	}
}

type Snapshot struct {
	Total       uint64  `json:"total"`
	Free        uint64  `json:"free"`
	Used        uint64  `json:"used"`
	Max         uint64  `json:"max"`
	UsedPercent float64 `json:"used_pct"`
	FreePercent float64 `json:"free_pct"`
	Source      Source  `json:"source"`

	HeapUsed    uint64  `json:"heap_used"`
	HeapSys     uint64  `json:"heap_sys"`
	NonHeapUsed uint64  `json:"non_heap_used"`
	NumGC       uint32  `json:"num_gc"`
	Goroutines  int     `json:"goroutines"`
	CPUPercent  float64 `json:"cpu_percent"`
}

func (s *Snapshot) FreeMB() int64 {
	return int64(s.Free / mb)
}

// NewSnapshot picks the tightest of the host, cgroup and GOMEMLIMIT bounds
// and measures usage against it.
func NewSnapshot(f *Facts) *Snapshot {
	s := &Snapshot{
		Total:      f.HostTotal,
		Max:        f.HostTotal,
		Source:     SourceHost,
		HeapUsed:   f.HeapAlloc,
		HeapSys:    f.HeapSys,
		NumGC:      f.NumGC,
		Goroutines: f.Goroutines,
		CPUPercent: f.CPUPercent,
	}
	if f.Sys > f.HeapSys {
		s.NonHeapUsed = f.Sys - f.HeapSys
	}
	if f.HostTotal > f.HostAvailable {
		s.Used = f.HostTotal - f.HostAvailable
	}

	if f.CgroupLimit > 0 && f.CgroupLimit < s.Max {
		s.Max = f.CgroupLimit
		s.Used = f.CgroupUsage
		s.Source = SourceCgroup
	}
	if f.GoMemLimit > 0 && f.GoMemLimit != math.MaxInt64 && uint64(f.GoMemLimit) < s.Max {
		s.Max = uint64(f.GoMemLimit)
		s.Used = f.Sys - f.HeapReleased
		s.Source = SourceGoMemLimit
	}

	if s.Used > s.Max {
		s.Used = s.Max
	}
	s.Free = s.Max - s.Used
	if s.Max > 0 {
		s.UsedPercent = float64(s.Used) / float64(s.Max) * 100
		s.FreePercent = float64(s.Free) / float64(s.Max) * 100
	}
	return s
}

type Governor struct {
	reader Reader
	logger logger.Logger

	mu       sync.RWMutex
	cfg      Config
	disabled bool
	timer    *time.Timer

	collect func()
	pause   time.Duration
}

func NewGovernor(cfg Config, reader Reader, logger logger.Logger) *Governor {
	return &Governor{
		reader: reader,
		logger: logger,
		cfg:    cfg,
		collect: func() {
			runtime.GC()
			debug.FreeOSMemory()
		},
		pause: gcPause,
	}
}

func (g *Governor) Config() Config {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg
}

func (g *Governor) UpdateConfig(cfg Config) {
	g.mu.Lock()
	g.cfg = cfg
	g.mu.Unlock()
	g.logger.Infof("Memory governor config updated: %+v", cfg)
}

func (g *Governor) SetMaxConcurrentTasks(n int) {
	g.mu.Lock()
	g.cfg.MaxConcurrentTasks = n
	g.mu.Unlock()
}

// MonitoringActive is false when monitoring is switched off in config or
// temporarily disabled by an operator.
func (g *Governor) MonitoringActive() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cfg.EnableMonitoring && !g.disabled
}

func (g *Governor) Snapshot(ctx context.Context) (*Snapshot, error) {
	facts, err := g.reader.Read(ctx)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(facts), nil
}

// HasEnough reports whether free memory and usage are within the configured
// bounds. An unreadable snapshot does not block processing.
func (g *Governor) HasEnough(ctx context.Context) bool {
	if !g.MonitoringActive() {
		return true
	}
	snap, err := g.Snapshot(ctx)
	if err != nil {
		g.logger.Warnf("Governor.HasEnough - snapshot error: %v", err)
		return true
	}
	return g.hasEnough(snap, g.Config())
}

func (g *Governor) hasEnough(snap *Snapshot, cfg Config) bool {
	if free := snap.FreeMB(); free < cfg.MinFreeMB {
		g.logger.Warnf("Insufficient free memory: %d MB (minimum required: %d MB)", free, cfg.MinFreeMB)
		return false
	}
	if snap.UsedPercent > cfg.ThresholdPercent {
		g.logger.Warnf("Memory usage too high: %.1f%% (threshold: %.1f%%)", snap.UsedPercent, cfg.ThresholdPercent)
		return false
	}
	return true
}

func (g *Governor) RecommendedConcurrency(ctx context.Context) int {
	cfg := g.Config()
	if !cfg.EnableAdaptive || !g.MonitoringActive() {
		return cfg.MaxConcurrentTasks
	}
	snap, err := g.Snapshot(ctx)
	if err != nil {
		g.logger.Warnf("Governor.RecommendedConcurrency - snapshot error: %v", err)
		return cfg.MaxConcurrentTasks
	}

	perTask := cfg.PerTaskMB
	if perTask <= 0 {
		perTask = 1
	}
	byMemory := snap.FreeMB() / perTask
	recommended := cfg.MaxConcurrentTasks
	if byMemory < int64(recommended) {
		recommended = int(byMemory)
	}
	if recommended < 1 && g.hasEnough(snap, cfg) {
		recommended = 1
	}
	g.logger.Debugf("Memory-based task recommendation: %d (max: %d, memory-based: %d)", recommended, cfg.MaxConcurrentTasks, byMemory)
	return recommended
}

func (g *Governor) Pressure(ctx context.Context) Pressure {
	snap, err := g.Snapshot(ctx)
	if err != nil {
		g.logger.Warnf("Governor.Pressure - snapshot error: %v", err)
		return PressureUnknown
	}
	return PressureOf(snap.UsedPercent, g.Config().ThresholdPercent)
}

func PressureOf(usedPercent, threshold float64) Pressure {
	switch {
	case usedPercent >= criticalPercent:
		return PressureCritical
	case usedPercent >= threshold:
		return PressureHigh
	case usedPercent >= mediumPercent:
		return PressureMedium
	default:
		return PressureLow
	}
}

// MaybeGC forces a collection under HIGH or CRITICAL pressure and then
// pauses briefly. It reports whether a collection ran.
func (g *Governor) MaybeGC(ctx context.Context) bool {
	p := g.Pressure(ctx)
	if p != PressureHigh && p != PressureCritical {
		return false
	}
	g.logger.Infof("High memory pressure detected (%s), performing garbage collection", p)
	g.collect()

	t := time.NewTimer(g.pause)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
	return true
}

func (g *Governor) FileSizeAcceptable(size int64) bool {
	limit := g.Config().MaxFileSizeMB * mb
	if limit <= 0 {
		return false
	}
	return size <= limit
}

// TemporarilyDisable turns the HasEnough check off for d. A later call
// replaces the pending re-enable.
func (g *Governor) TemporarilyDisable(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.timer != nil {
		g.timer.Stop()
	}
	g.disabled = true
	g.timer = time.AfterFunc(d, func() {
		g.mu.Lock()
		g.disabled = false
		g.timer = nil
		g.mu.Unlock()
		g.logger.Info("Memory monitoring re-enabled")
	})
	g.logger.Warnf("Memory monitoring temporarily disabled for %s", d)
}

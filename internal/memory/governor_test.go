package memory

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/amankumarsingh77/tg-video-relay/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	facts *Facts
	err   error
}

func (f *fakeReader) Read(ctx context.Context) (*Facts, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.facts, nil
}

// hostFacts describes a host with total MiB and used MiB and no other bound.
func hostFacts(totalMB, usedMB uint64) *Facts {
	return &Facts{
		HostTotal:     totalMB * mb,
		HostAvailable: (totalMB - usedMB) * mb,
		GoMemLimit:    math.MaxInt64,
	}
}

func defaultConfig() Config {
	return Config{
		EnableMonitoring:   true,
		ThresholdPercent:   80,
		MinFreeMB:          512,
		MaxConcurrentTasks: 4,
		PerTaskMB:          200,
		MaxFileSizeMB:      2000,
		EnableAdaptive:     true,
	}
}

func newTestGovernor(cfg Config, reader Reader) (*Governor, *int) {
	g := NewGovernor(cfg, reader, logger.NewNopLogger())
	collections := 0
	g.collect = func() { collections++ }
	g.pause = 0
	return g, &collections
}

func TestNewSnapshot(t *testing.T) {
	t.Run("host", func(t *testing.T) {
		s := NewSnapshot(hostFacts(1000, 250))
		assert.Equal(t, SourceHost, s.Source)
		assert.Equal(t, uint64(1000*mb), s.Max)
		assert.InDelta(t, 25.0, s.UsedPercent, 0.001)
		assert.InDelta(t, 75.0, s.FreePercent, 0.001)
		assert.Equal(t, int64(750), s.FreeMB())
	})

	t.Run("cgroup limit narrows max", func(t *testing.T) {
		f := hostFacts(8000, 1000)
		f.CgroupLimit = 1000 * mb
		f.CgroupUsage = 900 * mb
		s := NewSnapshot(f)
		assert.Equal(t, SourceCgroup, s.Source)
		assert.Equal(t, uint64(1000*mb), s.Max)
		assert.InDelta(t, 90.0, s.UsedPercent, 0.001)
	})

	t.Run("unlimited cgroup ignored", func(t *testing.T) {
		f := hostFacts(8000, 1000)
		f.CgroupLimit = math.MaxUint64
		f.CgroupUsage = 10 * mb
		s := NewSnapshot(f)
		assert.Equal(t, SourceHost, s.Source)
	})

	t.Run("go memory limit", func(t *testing.T) {
		f := hostFacts(8000, 1000)
		f.GoMemLimit = 400 * mb
		f.Sys = 150 * mb
		f.HeapSys = 120 * mb
		f.HeapReleased = 50 * mb
		s := NewSnapshot(f)
		assert.Equal(t, SourceGoMemLimit, s.Source)
		assert.Equal(t, uint64(100*mb), s.Used)
		assert.Equal(t, uint64(30*mb), s.NonHeapUsed)
		assert.InDelta(t, 25.0, s.UsedPercent, 0.001)
	})

	t.Run("usage above max is clamped", func(t *testing.T) {
		f := hostFacts(8000, 1000)
		f.CgroupLimit = 100 * mb
		f.CgroupUsage = 200 * mb
		s := NewSnapshot(f)
		assert.Equal(t, uint64(0), s.Free)
		assert.InDelta(t, 100.0, s.UsedPercent, 0.001)
	})
}

func TestGovernor_HasEnough(t *testing.T) {
	ctx := context.Background()
	reader := &fakeReader{facts: hostFacts(4000, 1000)}
	g, _ := newTestGovernor(defaultConfig(), reader)
	assert.True(t, g.HasEnough(ctx))

	// 3700 used of 4000: 300 MiB free is under the floor.
	reader.facts = hostFacts(4000, 3700)
	assert.False(t, g.HasEnough(ctx))

	// Plenty free in absolute terms but above the threshold.
	reader.facts = hostFacts(100000, 85000)
	assert.False(t, g.HasEnough(ctx))

	cfg := defaultConfig()
	cfg.EnableMonitoring = false
	g.UpdateConfig(cfg)
	assert.True(t, g.HasEnough(ctx))

	g.UpdateConfig(defaultConfig())
	reader.err = errors.New("boom")
	assert.True(t, g.HasEnough(ctx))
}

func TestGovernor_RecommendedConcurrency(t *testing.T) {
	ctx := context.Background()
	reader := &fakeReader{facts: hostFacts(10000, 2000)}
	g, _ := newTestGovernor(defaultConfig(), reader)

	// 8000 MiB free allows 40 tasks; capped by max.
	assert.Equal(t, 4, g.RecommendedConcurrency(ctx))

	// 500 MiB free allows 2.
	cfg := defaultConfig()
	cfg.MinFreeMB = 100
	cfg.ThresholdPercent = 99.9
	g.UpdateConfig(cfg)
	reader.facts = hostFacts(10000, 9500)
	assert.Equal(t, 2, g.RecommendedConcurrency(ctx))

	// 150 MiB free allows 0 but memory is still sufficient, so 1.
	reader.facts = hostFacts(100000, 99850)
	assert.Equal(t, 1, g.RecommendedConcurrency(ctx))

	// Insufficient memory can recommend 0.
	reader.facts = hostFacts(10000, 9950)
	assert.Equal(t, 0, g.RecommendedConcurrency(ctx))

	cfg.EnableAdaptive = false
	g.UpdateConfig(cfg)
	assert.Equal(t, 4, g.RecommendedConcurrency(ctx))
}

func TestPressureOf(t *testing.T) {
	tests := []struct {
		used float64
		want Pressure
	}{
		{10, PressureLow},
		{59.9, PressureLow},
		{60, PressureMedium},
		{79.9, PressureMedium},
		{80, PressureHigh},
		{89.9, PressureHigh},
		{90, PressureCritical},
		{100, PressureCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PressureOf(tt.used, 80), "used %.1f", tt.used)
	}
}

func TestGovernor_MaybeGC(t *testing.T) {
	ctx := context.Background()
	reader := &fakeReader{facts: hostFacts(1000, 500)}
	g, collections := newTestGovernor(defaultConfig(), reader)

	assert.False(t, g.MaybeGC(ctx))
	reader.facts = hostFacts(1000, 700)
	assert.False(t, g.MaybeGC(ctx))
	assert.Equal(t, 0, *collections)

	reader.facts = hostFacts(1000, 850)
	assert.True(t, g.MaybeGC(ctx))
	reader.facts = hostFacts(1000, 950)
	assert.True(t, g.MaybeGC(ctx))
	assert.Equal(t, 2, *collections)
}

func TestGovernor_FileSizeAcceptable(t *testing.T) {
	g, _ := newTestGovernor(defaultConfig(), &fakeReader{facts: hostFacts(1000, 0)})
	assert.True(t, g.FileSizeAcceptable(2000*mb))
	assert.False(t, g.FileSizeAcceptable(2000*mb+1))

	cfg := defaultConfig()
	cfg.MaxFileSizeMB = 0
	g.UpdateConfig(cfg)
	assert.False(t, g.FileSizeAcceptable(1))
	assert.False(t, g.FileSizeAcceptable(0))
}

func TestGovernor_TemporarilyDisable(t *testing.T) {
	ctx := context.Background()
	reader := &fakeReader{facts: hostFacts(1000, 950)}
	g, _ := newTestGovernor(defaultConfig(), reader)
	require.False(t, g.HasEnough(ctx))

	g.TemporarilyDisable(50 * time.Millisecond)
	assert.False(t, g.MonitoringActive())
	assert.True(t, g.HasEnough(ctx))

	assert.Eventually(t, func() bool { return g.MonitoringActive() }, time.Second, 10*time.Millisecond)
	assert.False(t, g.HasEnough(ctx))
}

func TestGovernor_SetMaxConcurrentTasks(t *testing.T) {
	g, _ := newTestGovernor(defaultConfig(), &fakeReader{facts: hostFacts(100000, 0)})
	g.SetMaxConcurrentTasks(7)
	assert.Equal(t, 7, g.Config().MaxConcurrentTasks)
	assert.Equal(t, 7, g.RecommendedConcurrency(context.Background()))
}

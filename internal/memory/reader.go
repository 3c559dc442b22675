package memory

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/amankumarsingh77/tg-video-relay/pkg/utils"
	"github.com/shirou/gopsutil/mem"
)

// Facts are the raw memory readings a Snapshot is derived from.
type Facts struct {
	HostTotal     uint64
	HostAvailable uint64
	// CgroupLimit is zero when the process is not confined by a memory cgroup.
	CgroupLimit uint64
	CgroupUsage uint64
	// GoMemLimit is the runtime soft limit; math.MaxInt64 when unset.
	GoMemLimit int64

	HeapAlloc    uint64
	HeapSys      uint64
	HeapReleased uint64
	Sys          uint64
	NumGC        uint32
	Goroutines   int
	CPUPercent   float64
}

type Reader interface {
	Read(ctx context.Context) (*Facts, error)
}

type systemReader struct{}

// NewSystemReader reads host memory with gopsutil, the cgroup memory
// controller where there is one, and the Go runtime statistics.
func NewSystemReader() Reader {
	return systemReader{}
}

func (systemReader) Read(ctx context.Context) (*Facts, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read host memory: %w", err)
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	facts := &Facts{
		HostTotal:     vm.Total,
		HostAvailable: vm.Available,
		GoMemLimit:    debug.SetMemoryLimit(-1),
		HeapAlloc:     ms.HeapAlloc,
		HeapSys:       ms.HeapSys,
		HeapReleased:  ms.HeapReleased,
		Sys:           ms.Sys,
		NumGC:         ms.NumGC,
		Goroutines:    runtime.NumGoroutine(),
	}
	if limit, usage, ok := containerMemory(); ok {
		facts.CgroupLimit = limit
		facts.CgroupUsage = usage
	}
	if pct, err := utils.CPUPercent(ctx); err == nil {
		facts.CPUPercent = pct
	}
	return facts, nil
}

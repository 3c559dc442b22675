//go:build linux

package memory

import (
	"github.com/containerd/cgroups"
	cgroupsv2 "github.com/containerd/cgroups/v2"
)

const unifiedMountpoint = "/sys/fs/cgroup"

// containerMemory reports the memory limit and usage of the cgroup the
// process runs in.
func containerMemory() (limit, usage uint64, ok bool) {
	if cgroups.Mode() == cgroups.Unified {
		group, err := cgroupsv2.NestedGroupPath("")
		if err != nil {
			return 0, 0, false
		}
		manager, err := cgroupsv2.LoadManager(unifiedMountpoint, group)
		if err != nil {
			return 0, 0, false
		}
		stats, err := manager.Stat()
		if err != nil || stats.Memory == nil {
			return 0, 0, false
		}
		return stats.Memory.UsageLimit, stats.Memory.Usage, true
	}

	control, err := cgroups.Load(cgroups.V1, cgroups.NestedPath(""))
	if err != nil {
		return 0, 0, false
	}
	stats, err := control.Stat(cgroups.IgnoreNotExist)
	if err != nil || stats.Memory == nil || stats.Memory.Usage == nil {
		return 0, 0, false
	}
	return stats.Memory.Usage.Limit, stats.Memory.Usage.Usage, true
}

package utils

import (
	"context"

	"github.com/shirou/gopsutil/cpu"
)

// CPUPercent is the host wide CPU usage since the previous call.
func CPUPercent(ctx context.Context) (float64, error) {
	usage, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(usage) == 0 {
		return 0, nil
	}
	return usage[0], nil
}

// Package monitor reports process and host resource usage.
package monitor

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceStats is a point-in-time snapshot of runtime and host resources.
type ResourceStats struct {
	HeapAllocMB   float64 `json:"heap_alloc_mb"`
	HeapSysMB     float64 `json:"heap_sys_mb"`
	NumGoroutine  int     `json:"num_goroutine"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

// Snapshot collects current resource usage. Host-level metrics that fail
// to collect are reported as zero rather than failing the snapshot.
func Snapshot(ctx context.Context) ResourceStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := ResourceStats{
		HeapAllocMB:  float64(ms.HeapAlloc) / 1024 / 1024,
		HeapSysMB:    float64(ms.HeapSys) / 1024 / 1024,
		NumGoroutine: runtime.NumGoroutine(),
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryPercent = vm.UsedPercent
	}
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	return stats
}

package telemetry

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStats is a point-in-time host and process snapshot for the admin console.
type SystemStats struct {
	Timestamp time.Time   `json:"timestamp"`
	CPUCount  int         `json:"cpu_count"`
	Memory    MemoryStats `json:"memory"`
	Disk      DiskStats   `json:"disk"`
	Process   ProcStats   `json:"process"`
}

type MemoryStats struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Available   uint64  `json:"available"`
	UsedPercent float64 `json:"used_percent"`
}

type DiskStats struct {
	Path        string  `json:"path"`
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"used_percent"`
}

type ProcStats struct {
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapInuse  uint64 `json:"heap_inuse"`
}

// CollectSystemStats gathers host statistics. Probes that fail on the current
// platform leave their section zeroed.
func CollectSystemStats(ctx context.Context, diskPath string) SystemStats {
	if diskPath == "" {
		diskPath = "/"
	}
	stats := SystemStats{Timestamp: time.Now().UTC()}

	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		stats.CPUCount = n
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.Memory = MemoryStats{
			Total:       vm.Total,
			Used:        vm.Used,
			Available:   vm.Available,
			UsedPercent: vm.UsedPercent,
		}
	}

	if du, err := disk.UsageWithContext(ctx, diskPath); err == nil {
		stats.Disk = DiskStats{
			Path:        du.Path,
			Total:       du.Total,
			Used:        du.Used,
			Free:        du.Free,
			UsedPercent: du.UsedPercent,
		}
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	stats.Process = ProcStats{
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		HeapInuse:  ms.HeapInuse,
	}

	return stats
}

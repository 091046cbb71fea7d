package services

import (
	"context"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type HealthReport struct {
	Status                string  `json:"status"`
	Database              string  `json:"database"`
	UptimeSeconds         int64   `json:"uptime_seconds"`
	ProcessRSSBytes       int64   `json:"process_rss_bytes"`
	ProcessCPUPercent     float64 `json:"process_cpu_percent"`
	SystemMemoryUsedBytes int64   `json:"system_memory_used_bytes"`
}

func (h HealthReport) Healthy() bool {
	return h.Status == "ok"
}

// CaptureHealth pings the database and samples process figures. Resource
// sampling failures leave the figure at zero; only the database decides the
// status.
func CaptureHealth(ctx context.Context, db *sqlx.DB, startedAt time.Time) HealthReport {
	report := HealthReport{
		Status:        "ok",
		Database:      "up",
		UptimeSeconds: int64(time.Since(startedAt).Seconds()),
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		report.Status = "degraded"
		report.Database = "down"
	}

	if proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfoWithContext(ctx); err == nil && info != nil {
			report.ProcessRSSBytes = int64(info.RSS)
		}
		if cpuPerc, err := proc.CPUPercentWithContext(ctx); err == nil {
			report.ProcessCPUPercent = cpuPerc
		}
	}
	if memStat, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		report.SystemMemoryUsedBytes = int64(memStat.Total - memStat.Available)
	}
	return report
}

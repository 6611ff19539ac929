package telemetry

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

const perfStatsInterval = 30 * time.Second

var perfMeter = otel.Meter("github-retriever/perf_stats")
var cpuGauge, _ = perfMeter.Float64Gauge("process.cpu_percent")
var heapGauge, _ = perfMeter.Int64Gauge("process.heap_alloc_mb")
var goroutineGauge, _ = perfMeter.Int64Gauge("process.goroutines")

// InstrumentPerfStats samples process gauges until ctx is done. A crawl
// spends most of its time waiting on the scheduler, so these mostly show leaks.
func InstrumentPerfStats(ctx context.Context, tel API) {
	go func() {
		ticker := time.NewTicker(perfStatsInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				recordPerfStats(ctx, tel, 5*time.Second)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func recordPerfStats(ctx context.Context, tel API, cpuWindow time.Duration) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	heapGauge.Record(ctx, int64(memStats.HeapAlloc/1_000_000))
	goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))

	usage, err := cpu.PercentWithContext(ctx, cpuWindow, false)
	if err != nil {
		tel.ReportWarning("perf-stats.cpu", err)
		return
	}
	if len(usage) > 0 {
		cpuGauge.Record(ctx, usage[0])
	}
}

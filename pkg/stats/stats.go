package stats

import (
	"context"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	BYTE = 1 << (10 * iota)
	KILOBYTE
	MEGABYTE
	GIGABYTE
)

// EnableMemoryStatistics enables go routine that periodically logs memory
// usage and number of go routines of the process, until ctx is done.
func EnableMemoryStatistics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				PrintMemoryStatistics()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// toMegabytes returns given memory in bytes to megabytes.
func toMegabytes(bytes uint64) float64 {
	return float64(bytes) / MEGABYTE
}

// PrintMemoryStatistics logs memory statistics using go runtime library.
func PrintMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.WithFields(log.Fields{
		"total_alloc_mb": toMegabytes(memStats.TotalAlloc),
		"heap_alloc_mb":  toMegabytes(memStats.HeapAlloc),
		"mallocs":        memStats.Mallocs,
		"frees":          memStats.Frees,
		"goroutines":     runtime.NumGoroutine(),
	}).Info("memory statistics")
}

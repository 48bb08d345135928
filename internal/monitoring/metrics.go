package monitoring

import (
	"net/http"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type Metrics struct {
	mu              sync.RWMutex
	RequestCount    int64            `json:"request_count"`
	ActiveRequests  int64            `json:"active_requests"`
	ErrorCount      int64            `json:"error_count"`
	ConflictCount   int64            `json:"conflict_count"`
	StatusCodes     map[string]int64 `json:"status_codes"`
	StartTime       time.Time        `json:"start_time"`
	LastRequest     time.Time        `json:"last_request"`
	totalDuration   time.Duration
}

var globalMetrics = &Metrics{
	StatusCodes: make(map[string]int64),
	StartTime:   time.Now(),
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		globalMetrics.mu.Lock()
		globalMetrics.ActiveRequests++
		globalMetrics.mu.Unlock()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		globalMetrics.mu.Lock()
		globalMetrics.ActiveRequests--
		globalMetrics.RequestCount++
		globalMetrics.totalDuration += duration
		globalMetrics.LastRequest = time.Now()
		globalMetrics.StatusCodes[strconv.Itoa(status)]++
		if status >= 500 {
			globalMetrics.ErrorCount++
		}
		if status == http.StatusConflict {
			globalMetrics.ConflictCount++
		}
		globalMetrics.mu.Unlock()
	}
}

func MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		globalMetrics.mu.RLock()
		defer globalMetrics.mu.RUnlock()

		avgDuration := time.Duration(0)
		if globalMetrics.RequestCount > 0 {
			avgDuration = globalMetrics.totalDuration / time.Duration(globalMetrics.RequestCount)
		}

		c.JSON(http.StatusOK, gin.H{
			"request_count":           globalMetrics.RequestCount,
			"active_requests":         globalMetrics.ActiveRequests,
			"error_count":             globalMetrics.ErrorCount,
			"conflict_count":          globalMetrics.ConflictCount,
			"status_codes":            globalMetrics.StatusCodes,
			"avg_request_duration_ms": avgDuration.Milliseconds(),
			"uptime_seconds":          time.Since(globalMetrics.StartTime).Seconds(),
			"goroutines":              runtime.NumGoroutine(),
			"heap_alloc_bytes":        memStats.HeapAlloc,
		})
	}
}

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"property-portal/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DBPinger is optional for health check. If nil, database is reported as disabled.
type DBPinger interface {
	Ping() error
}

// Probe is an upstream reached over HTTP, such as the listings API.
type Probe struct {
	Name string
	URL  string
}

// CollectResult is the /health/json payload.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	Alloc    int `json:"alloc"`
	HeapUsed int `json:"heapUsed"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
}

const probeTimeout = 3 * time.Second

// CollectHealth gathers traffic stats from Redis and pings Redis, the optional
// DB and every probe. Status is "ok" when every configured dependency answers.
func CollectHealth(ctx context.Context, rdb *redis.Client, db DBPinger, probes ...Probe) CollectResult {
	result := CollectResult{
		Status:       "ok",
		Dependencies: make(map[string]DepStatus),
	}

	dbStatus := DepStatus{Status: "disabled"}
	if db != nil {
		start := time.Now()
		if err := db.Ping(); err == nil {
			ms := time.Since(start).Milliseconds()
			dbStatus = DepStatus{Status: "connected", PingMs: ms}
		} else {
			dbStatus = DepStatus{Status: "error"}
			result.Status = "issue"
		}
	}
	result.Dependencies["database"] = dbStatus

	redisStatus := DepStatus{Status: "disconnected"}
	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	startTimeMs := time.Now().UnixMilli()
	if rdb != nil {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err == nil {
			redisStatus = DepStatus{Status: "connected", PingMs: time.Since(start).Milliseconds()}
			startTimeMs = readTraffic(ctx, rdb, &stats, startTimeMs)
		} else {
			redisStatus = DepStatus{Status: "error"}
		}
	}
	if redisStatus.Status != "connected" {
		result.Status = "issue"
	}
	result.Dependencies["redis"] = redisStatus
	result.Traffic = stats

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptimeSec := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptimeSec < 0 {
		uptimeSec = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptimeSec,
		Memory:        MemoryInfo{Alloc: int(m.Alloc / 1024 / 1024), HeapUsed: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	for _, p := range probes {
		if ms := httpPing(ctx, p.URL, probeTimeout); ms != nil {
			result.Dependencies[p.Name] = DepStatus{Status: "reachable", PingMs: *ms}
		} else {
			result.Dependencies[p.Name] = DepStatus{Status: "unreachable"}
			result.Status = "issue"
		}
	}
	return result
}

func readTraffic(ctx context.Context, rdb *redis.Client, stats *TrafficInfo, startTimeMs int64) int64 {
	totalReq, _ := rdb.Get(ctx, middleware.KeyReqTotal).Result()
	totalErr, _ := rdb.Get(ctx, middleware.KeyReqErrors).Result()
	totalTime, _ := rdb.Get(ctx, middleware.KeyResTime).Result()
	resCount, _ := rdb.Get(ctx, middleware.KeyResCount).Result()
	startTimeStr, _ := rdb.Get(ctx, middleware.KeyStartTime).Result()
	lastReqStr, _ := rdb.Get(ctx, middleware.KeyLastReq).Result()

	if startTimeStr != "" {
		if t, err := strconv.ParseInt(startTimeStr, 10, 64); err == nil {
			startTimeMs = t
		}
	} else {
		rdb.Set(ctx, middleware.KeyStartTime, startTimeMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(totalReq)
	stats.FailedCount, _ = strconv.Atoi(totalErr)
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(totalTime, 64)
	countSum, _ := strconv.Atoi(resCount)
	if countSum > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(countSum), 'f', 2, 64)
	}
	if lastReqStr != "" {
		var lastReq map[string]interface{}
		_ = json.Unmarshal([]byte(lastReqStr), &lastReq)
		stats.LastRequest = lastReq
	}
	return startTimeMs
}

// httpPing returns the round trip in ms, or nil when the URL cannot be reached
// or answers 5xx.
func httpPing(ctx context.Context, url string, timeout time.Duration) *int64 {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil
	}
	ms := time.Since(start).Milliseconds()
	return &ms
}

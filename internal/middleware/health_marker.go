package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Redis keys for request stats, read back by the health endpoints.
const (
	KeyReqTotal  = "health:global:req_total"
	KeyReqErrors = "health:global:req_errors"
	KeyResTime   = "health:global:res_time_total"
	KeyResCount  = "health:global:res_count"
	KeyStartTime = "health:global:start_time"
	KeyLastReq   = "health:global:last_request"
	KeyErrorLog  = "health:global:error_log"
)

// HealthKeys lists every stats key, for resets.
var HealthKeys = []string{KeyReqTotal, KeyReqErrors, KeyResTime, KeyResCount, KeyStartTime, KeyLastReq, KeyErrorLog}

// HealthMarker records request stats in Redis (skip /, /health*, /reset, favicon).
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/" || path == "/reset" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		start := time.Now()
		b, _ := json.Marshal(map[string]interface{}{
			"time":   start,
			"ip":     c.IP(),
			"path":   c.OriginalURL(),
			"method": c.Method(),
		})
		ctx := context.Background()
		_ = rdb.Set(ctx, KeyLastReq, b, 0).Err()
		_ = rdb.Incr(ctx, KeyReqTotal).Err()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// Not yet written by the error handler.
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		ms := time.Since(start).Milliseconds()
		_ = rdb.Incr(ctx, KeyResCount).Err()
		_ = rdb.IncrByFloat(ctx, KeyResTime, float64(ms)).Err()
		if status >= fiber.StatusInternalServerError {
			_ = rdb.Incr(ctx, KeyReqErrors).Err()
		}
		return err
	}
}

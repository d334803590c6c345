package health

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	healthsvc "property-portal/internal/application/health"
	"property-portal/internal/middleware"
	"property-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const serviceName = "property-portal-api"

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Rdb            *redis.Client
	DB             healthsvc.DBPinger
	Probes         []healthsvc.Probe
	HealthAdminKey string
}

// Reset clears health stats in Redis. Requires query key=HEALTH_ADMIN_KEY.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" || key != h.HealthAdminKey {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	ctx := context.Background()
	if err := h.Rdb.Del(ctx, middleware.HealthKeys...).Err(); err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	if err := h.Rdb.Set(ctx, middleware.KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0).Err(); err != nil {
		return response.Error(c, err.Error(), fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}

// JSON returns service status, runtime, traffic and dependencies.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := healthsvc.CollectHealth(c.UserContext(), h.Rdb, h.DB, h.Probes...)
	return c.JSON(fiber.Map{
		"service":      serviceName,
		"status":       result.Status,
		"runtime":      result.Runtime,
		"traffic":      result.Traffic,
		"dependencies": result.Dependencies,
	})
}

// Errors returns the last 50 error log entries from Redis.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	entries, err := h.Rdb.LRange(context.Background(), middleware.KeyErrorLog, 0, 49).Result()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON([]interface{}{})
	}
	errs := make([]map[string]interface{}, 0, len(entries))
	for _, s := range entries {
		var m map[string]interface{}
		if json.Unmarshal([]byte(s), &m) == nil && m != nil {
			errs = append(errs, m)
		}
	}
	return c.JSON(errs)
}

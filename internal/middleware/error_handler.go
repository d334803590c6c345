package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"property-portal/internal/application/properties"
	"property-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const errorLogSize = 50

// ErrorHandler is the global error handler. Returns the standard error format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return NewErrorHandler(nil)(c, err)
}

// NewErrorHandler returns the global error handler; 5xx errors are pushed to
// the health error log when rdb is set.
func NewErrorHandler(rdb *redis.Client) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		var rf *properties.RetrievalFailure
		switch {
		case errors.As(err, &fe):
			code = fe.Code
			message = fe.Message
		case errors.As(err, &rf):
			code = fiber.StatusBadGateway
			message = rf.Error()
		}

		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("trace_id", GetTraceID(c)).Str("method", c.Method()).Str("path", c.Path()).Msg("Request failed")
			if rdb != nil {
				recordError(rdb, c, err)
			}
		}
		return response.Error(c, message, code, nil)
	}
}

func recordError(rdb *redis.Client, c *fiber.Ctx, err error) {
	entry, _ := json.Marshal(map[string]interface{}{
		"time":     time.Now(),
		"method":   c.Method(),
		"path":     c.OriginalURL(),
		"message":  err.Error(),
		"trace_id": GetTraceID(c),
	})
	ctx := context.Background()
	pipe := rdb.TxPipeline()
	pipe.LPush(ctx, KeyErrorLog, entry)
	pipe.LTrim(ctx, KeyErrorLog, 0, errorLogSize-1)
	if _, perr := pipe.Exec(ctx); perr != nil {
		log.Warn().Err(perr).Msg("health: error log write failed")
	}
}

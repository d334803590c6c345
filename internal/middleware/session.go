package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig for the Redis-backed cookie session.
type SessionConfig struct {
	Secret            string
	RedisURL          string
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName  = "portal.sid"
	SessionRedisPrefix = "session:"
	sessionMaxAge      = 24 * time.Hour

	sessionIDLocal   = "session_id"
	sessionDataLocal = "session_data"
)

// SessionUser is the signed-in user kept in the session.
type SessionUser struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
}

type sessionData struct {
	User *SessionUser `json:"user,omitempty"`
}

// Session returns a Fiber middleware that loads the session named by the
// portal.sid cookie from Redis and saves it back after the handler ran.
func Session(cfg SessionConfig) (fiber.Handler, *redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(opt)
	return SessionWithClient(rdb), rdb, nil
}

// SessionWithClient is Session for an existing Redis client.
func SessionWithClient(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := context.Background()
		sessionID := c.Cookies(SessionCookieName)

		data := &sessionData{}
		if sessionID != "" {
			b, err := rdb.Get(ctx, SessionRedisPrefix+sessionID).Bytes()
			switch {
			case err == redis.Nil:
				sessionID = ""
			case err != nil:
				log.Warn().Err(err).Msg("session: load failed")
				sessionID = ""
			default:
				_ = json.Unmarshal(b, data)
			}
		}

		c.Locals(sessionIDLocal, sessionID)
		c.Locals(sessionDataLocal, data)
		c.Locals(userLocal, data.User)

		if err := c.Next(); err != nil {
			return err
		}

		sid := GetSessionID(c)
		updated, _ := c.Locals(sessionDataLocal).(*sessionData)
		if sid == "" || updated == nil || updated.User == nil {
			return nil
		}
		b, _ := json.Marshal(updated)
		if err := rdb.Set(ctx, SessionRedisPrefix+sid, b, sessionMaxAge).Err(); err != nil {
			log.Warn().Err(err).Msg("session: save failed")
		}
		return nil
	}
}

// GetSessionID returns the current session ID from context (for login/logout).
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(sessionIDLocal).(string)
	return sid
}

// SetSessionUser puts user in the session; it is saved when the handler returns.
// Call RegenerateSessionID first on login.
func SetSessionUser(c *fiber.Ctx, user SessionUser) {
	data, _ := c.Locals(sessionDataLocal).(*sessionData)
	if data == nil {
		data = &sessionData{}
	}
	data.User = &user
	c.Locals(sessionDataLocal, data)
	c.Locals(userLocal, data.User)
}

// RegenerateSessionID creates a new session ID and sets it in Locals (cookie set by handler).
func RegenerateSessionID(c *fiber.Ctx) string {
	newID := uuid.New().String()
	c.Locals(sessionIDLocal, newID)
	return newID
}

// DestroySession clears the session from Locals; caller must clear cookie and Redis.
func DestroySession(c *fiber.Ctx) {
	c.Locals(sessionDataLocal, &sessionData{})
	c.Locals(sessionIDLocal, "")
	c.Locals(userLocal, nil)
}

// SessionCookieConfig returns the cookie options for SetCookie/ClearCookie.
func SessionCookieConfig(cfg SessionConfig) fiber.Cookie {
	sameSite := "Lax"
	if cfg.AllowCrossSiteDev {
		sameSite = "None"
	}
	return fiber.Cookie{
		Name:     SessionCookieName,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction || cfg.AllowCrossSiteDev,
		SameSite: sameSite,
	}
}

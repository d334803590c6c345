package auth

import (
	"context"
	"errors"

	authsvc "property-portal/internal/application/auth"
	"property-portal/internal/middleware"
	"property-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const userSessionsPrefix = "user_sessions:"

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Service *authsvc.Service
	Rdb     *redis.Client
	Config  middleware.SessionConfig
}

// LoginRequest body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetRequest body for POST /reset-password.
type ResetRequest struct {
	Email string `json:"email"`
}

// ConfirmResetRequest body for POST /reset-password/confirm.
type ConfirmResetRequest struct {
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// Signup POST /api/v1/auth/signup: create the account, sign the user in, 201.
func (h *Handlers) Signup(c *fiber.Ctx) error {
	if h.Service == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req authsvc.SignUpInput
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, authsvc.ErrFieldsRequired.Error(), fiber.StatusBadRequest, nil)
	}
	id, err := h.Service.SignUp(c.UserContext(), req)
	if err != nil {
		return authError(c, err)
	}
	if err := h.startSession(c, id); err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	log.Info().Str("uid", id.UID).Str("provider", id.Provider).Msg("auth: account created")
	return response.SuccessCreated(c, "Account created successfully", fiber.Map{"user": sessionUser(id)}, nil)
}

// Login POST /api/v1/auth/login: authenticate, create session, set cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	if h.Service == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, authsvc.ErrEmailPasswordRequired.Error(), fiber.StatusBadRequest, nil)
	}
	id, err := h.Service.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return authError(c, err)
	}
	if err := h.startSession(c, id); err != nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Login successful", fiber.Map{"user": sessionUser(id)}, nil)
}

// ResetPassword POST /api/v1/auth/reset-password: send the reset link.
func (h *Handlers) ResetPassword(c *fiber.Ctx) error {
	if h.Service == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req ResetRequest
	_ = c.BodyParser(&req)
	if err := h.Service.ResetPassword(c.UserContext(), req.Email); err != nil {
		return authError(c, err)
	}
	return response.Success(c, "Password reset email sent!", nil, nil)
}

// ConfirmResetPassword POST /api/v1/auth/reset-password/confirm: set the new password.
func (h *Handlers) ConfirmResetPassword(c *fiber.Ctx) error {
	if h.Service == nil {
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
	var req ConfirmResetRequest
	_ = c.BodyParser(&req)
	if err := h.Service.ConfirmPasswordReset(c.UserContext(), req.Code, req.NewPassword); err != nil {
		return authError(c, err)
	}
	return response.Success(c, "Password has been reset", nil, nil)
}

// Me GET /api/v1/auth/me: return current session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		log.Debug().Str("path", "/auth/me").
			Bool("cookie_present", c.Cookies(middleware.SessionCookieName) != "").
			Msg("auth/me: no session user")
		return response.Error(c, authsvc.ErrNotAuthenticated.Error(), fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Logout DELETE /api/v1/auth/logout: drop the session from Redis and clear the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	user := middleware.GetUser(c)
	ctx := context.Background()

	if sessionID != "" {
		if user != nil {
			_ = h.Rdb.SRem(ctx, userSessionsPrefix+user.UID, sessionID).Err()
		}
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.MaxAge = -1
	c.Cookie(&cookie)
	return response.Success(c, "Logged out successfully", nil, nil)
}

func (h *Handlers) startSession(c *fiber.Ctx, id *authsvc.Identity) error {
	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, sessionUser(id))
	if err := h.Rdb.SAdd(context.Background(), userSessionsPrefix+id.UID, sessionID).Err(); err != nil {
		return err
	}
	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = sessionID
	c.Cookie(&cookie)
	return nil
}

func sessionUser(id *authsvc.Identity) middleware.SessionUser {
	return middleware.SessionUser{UID: id.UID, Name: id.Name, Email: id.Email, Provider: id.Provider}
}

func authError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, authsvc.ErrEmailPasswordRequired),
		errors.Is(err, authsvc.ErrFieldsRequired),
		errors.Is(err, authsvc.ErrPasswordMismatch),
		errors.Is(err, authsvc.ErrInvalidEmail),
		errors.Is(err, authsvc.ErrInvalidName),
		errors.Is(err, authsvc.ErrWeakPassword),
		errors.Is(err, authsvc.ErrEmailRequired),
		errors.Is(err, authsvc.ErrInvalidResetCode):
		return response.Error(c, err.Error(), fiber.StatusBadRequest, nil)
	case errors.Is(err, authsvc.ErrInvalidCredentials):
		return response.Error(c, err.Error(), fiber.StatusUnauthorized, nil)
	case errors.Is(err, authsvc.ErrAccountNotFound):
		return response.Error(c, err.Error(), fiber.StatusNotFound, nil)
	case errors.Is(err, authsvc.ErrEmailExists):
		return response.Error(c, err.Error(), fiber.StatusConflict, nil)
	case errors.Is(err, authsvc.ErrTooManyAttempts):
		return response.Error(c, err.Error(), fiber.StatusTooManyRequests, nil)
	default:
		log.Error().Err(err).Str("path", c.Path()).Msg("auth: provider call failed")
		return response.Error(c, "Internal Server Error", fiber.StatusInternalServerError, nil)
	}
}

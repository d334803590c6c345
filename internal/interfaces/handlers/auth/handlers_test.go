package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authsvc "property-portal/internal/application/auth"
	"property-portal/internal/middleware"
	"property-portal/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuthApp(t *testing.T) (*fiber.App, *redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Account{}))

	h := &Handlers{
		Service: &authsvc.Service{Provider: &authsvc.LocalProvider{DB: db, Rdb: rdb}, DB: db},
		Rdb:     rdb,
	}
	app := fiber.New()
	app.Use(middleware.SessionWithClient(rdb))
	g := app.Group("/api/v1/auth")
	g.Post("/signup", h.Signup)
	g.Post("/login", h.Login)
	g.Post("/reset-password", h.ResetPassword)
	g.Post("/reset-password/confirm", h.ConfirmResetPassword)
	g.Get("/me", h.Me)
	g.Delete("/logout", h.Logout)
	return app, rdb, mr
}

func post(t *testing.T, app *fiber.App, path string, body interface{}, cookie string) (*http.Response, map[string]interface{}) {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func errMsg(out map[string]interface{}) string {
	e, _ := out["error"].(map[string]interface{})
	m, _ := e["message"].(string)
	return m
}

// sessionCookie returns "portal.sid=<id>" from the response.
func sessionCookie(t *testing.T, resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == middleware.SessionCookieName {
			return c.Name + "=" + c.Value
		}
	}
	t.Fatalf("no %s cookie in response", middleware.SessionCookieName)
	return ""
}

var jane = map[string]string{
	"name":             "Jane Doe",
	"email":            "jane@example.com",
	"password":         "secret123",
	"confirm_password": "secret123",
}

func TestSignup_PasswordMismatch(t *testing.T) {
	app, _, _ := setupAuthApp(t)
	body := map[string]string{"name": "Jane", "email": "jane@example.com", "password": "secret123", "confirm_password": "secret124"}
	resp, out := post(t, app, "/api/v1/auth/signup", body, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Passwords do not match", errMsg(out))
}

func TestSignup_ThenMeAndLogout(t *testing.T) {
	app, rdb, _ := setupAuthApp(t)

	resp, out := post(t, app, "/api/v1/auth/signup", jane, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	data, _ := out["data"].(map[string]interface{})
	user, _ := data["user"].(map[string]interface{})
	assert.Equal(t, "jane@example.com", user["email"])
	cookie := sessionCookie(t, resp)

	req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req.Header.Set("Cookie", cookie)
	meResp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, meResp.StatusCode)

	sid := strings.TrimPrefix(cookie, middleware.SessionCookieName+"=")
	req = httptest.NewRequest("DELETE", "/api/v1/auth/logout", nil)
	req.Header.Set("Cookie", cookie)
	outResp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, outResp.StatusCode)
	n, _ := rdb.Exists(context.Background(), middleware.SessionRedisPrefix+sid).Result()
	assert.Equal(t, int64(0), n)

	req = httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req.Header.Set("Cookie", cookie)
	meResp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, meResp.StatusCode)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	app, _, _ := setupAuthApp(t)
	resp, _ := post(t, app, "/api/v1/auth/signup", jane, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, _ = post(t, app, "/api/v1/auth/signup", jane, "")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	app, rdb, _ := setupAuthApp(t)
	resp, _ := post(t, app, "/api/v1/auth/signup", jane, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, out := post(t, app, "/api/v1/auth/login", map[string]string{"email": "jane@example.com"}, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Email and password are required", errMsg(out))

	resp, _ = post(t, app, "/api/v1/auth/login", map[string]string{"email": "jane@example.com", "password": "wrong123"}, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, out = post(t, app, "/api/v1/auth/login", map[string]string{"email": "jane@example.com", "password": "secret123"}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Login successful", out["message"])
	assert.NotEmpty(t, sessionCookie(t, resp))

	keys, err := rdb.Keys(context.Background(), "user_sessions:*").Result()
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestResetPassword(t *testing.T) {
	app, _, mr := setupAuthApp(t)
	resp, _ := post(t, app, "/api/v1/auth/signup", jane, "")
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, out := post(t, app, "/api/v1/auth/reset-password", map[string]string{"email": ""}, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Please enter your email address first", errMsg(out))

	resp, _ = post(t, app, "/api/v1/auth/reset-password", map[string]string{"email": "nobody@example.com"}, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, out = post(t, app, "/api/v1/auth/reset-password", map[string]string{"email": "jane@example.com"}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Password reset email sent!", out["message"])

	var code string
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, "password_reset:") {
			code = strings.TrimPrefix(k, "password_reset:")
		}
	}
	require.NotEmpty(t, code)

	resp, _ = post(t, app, "/api/v1/auth/reset-password/confirm", map[string]string{"code": code, "new_password": "fresh456"}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = post(t, app, "/api/v1/auth/login", map[string]string{"email": "jane@example.com", "password": "fresh456"}, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestLogout_NoSession(t *testing.T) {
	app, _, _ := setupAuthApp(t)
	req := httptest.NewRequest("DELETE", "/api/v1/auth/logout", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Values("Set-Cookie"))
}

func TestNilService(t *testing.T) {
	h := &Handlers{}
	app := fiber.New()
	app.Post("/login", h.Login)
	resp, _ := post(t, app, "/login", map[string]string{"email": "a@b.com", "password": "x"}, "")
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

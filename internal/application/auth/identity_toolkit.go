package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultIdentityToolkitURL is the Firebase Auth REST endpoint.
const DefaultIdentityToolkitURL = "https://identitytoolkit.googleapis.com/v1"

// IdentityToolkit is a Provider backed by the Firebase Auth REST API.
type IdentityToolkit struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewIdentityToolkit(baseURL, apiKey string) *IdentityToolkit {
	if baseURL == "" {
		baseURL = DefaultIdentityToolkitURL
	}
	return &IdentityToolkit{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type toolkitAuthResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
}

type toolkitErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *IdentityToolkit) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	var out toolkitAuthResponse
	err := p.post(ctx, "accounts:signInWithPassword", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.identity(), nil
}

func (p *IdentityToolkit) SignUp(ctx context.Context, name, email, password string) (*Identity, error) {
	var out toolkitAuthResponse
	err := p.post(ctx, "accounts:signUp", map[string]interface{}{
		"email":             email,
		"password":          password,
		"displayName":       name,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return nil, err
	}
	id := out.identity()
	if id.Name == "" {
		id.Name = name
	}
	return id, nil
}

func (p *IdentityToolkit) SendPasswordReset(ctx context.Context, email string) error {
	err := p.post(ctx, "accounts:sendOobCode", map[string]interface{}{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
	if err == ErrInvalidCredentials {
		return ErrAccountNotFound
	}
	return err
}

func (p *IdentityToolkit) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	return p.post(ctx, "accounts:resetPassword", map[string]interface{}{
		"oobCode":     code,
		"newPassword": newPassword,
	}, nil)
}

func (r toolkitAuthResponse) identity() *Identity {
	id := &Identity{
		UID:      r.LocalID,
		Email:    r.Email,
		Name:     r.DisplayName,
		Provider: "firebase",
		IDToken:  r.IDToken,
	}
	id.ExpiresAt = tokenExpiry(r.IDToken)
	return id
}

// tokenExpiry reads exp from an ID token that came straight from the provider
// over TLS; the signature is not checked here.
func tokenExpiry(idToken string) *time.Time {
	if idToken == "" {
		return nil
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, &claims); err != nil || claims.ExpiresAt == nil {
		return nil
	}
	t := claims.ExpiresAt.Time
	return &t
}

func (p *IdentityToolkit) post(ctx context.Context, method string, body interface{}, out interface{}) error {
	if p.APIKey == "" {
		return fmt.Errorf("identity toolkit: FIREBASE_API_KEY is not set")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	endpoint := fmt.Sprintf("%s/%s?key=%s", strings.TrimRight(p.BaseURL, "/"), method, url.QueryEscape(p.APIKey))

	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("identity toolkit request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e toolkitErrorResponse
		if json.Unmarshal(respBody, &e) == nil && e.Error.Message != "" {
			return mapToolkitError(e.Error.Message)
		}
		return fmt.Errorf("identity toolkit error: status %d body: %s", resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("identity toolkit response decode: %w", err)
	}
	return nil
}

// mapToolkitError translates provider codes such as "EMAIL_EXISTS" or
// "WEAK_PASSWORD : Password should be at least 6 characters".
func mapToolkitError(message string) error {
	code := strings.TrimSpace(strings.SplitN(message, ":", 2)[0])
	switch code {
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return ErrInvalidCredentials
	case "EMAIL_EXISTS":
		return ErrEmailExists
	case "WEAK_PASSWORD":
		return ErrWeakPassword
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return ErrInvalidEmail
	case "EXPIRED_OOB_CODE", "INVALID_OOB_CODE":
		return ErrInvalidResetCode
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return ErrTooManyAttempts
	default:
		return fmt.Errorf("identity toolkit: %s", message)
	}
}

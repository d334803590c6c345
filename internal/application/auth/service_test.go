package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"property-portal/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupLocalAuth(t *testing.T) (*Service, *gorm.DB, *miniredis.Miniredis) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Account{}))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})

	provider := &LocalProvider{DB: db, Rdb: rdb}
	return &Service{Provider: provider, DB: db}, db, mr
}

func signUpJane(t *testing.T, s *Service) *Identity {
	id, err := s.SignUp(context.Background(), SignUpInput{
		Name:            "Jane Doe",
		Email:           "Jane@Example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	})
	require.NoError(t, err)
	return id
}

func TestSignUp_Validation(t *testing.T) {
	s, _, _ := setupLocalAuth(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   SignUpInput
		want error
	}{
		{"missing fields", SignUpInput{Email: "a@b.com", Password: "abc123", ConfirmPassword: "abc123"}, ErrFieldsRequired},
		{"mismatch", SignUpInput{Name: "A", Email: "a@b.com", Password: "abc123", ConfirmPassword: "abc124"}, ErrPasswordMismatch},
		{"bad email", SignUpInput{Name: "A", Email: "a@b", Password: "abc123", ConfirmPassword: "abc123"}, ErrInvalidEmail},
		{"bad name", SignUpInput{Name: "A1", Email: "a@b.com", Password: "abc123", ConfirmPassword: "abc123"}, ErrInvalidName},
		{"weak password", SignUpInput{Name: "A", Email: "a@b.com", Password: "abc", ConfirmPassword: "abc"}, ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.SignUp(ctx, tc.in)
			assert.Equal(t, tc.want, err)
		})
	}
}

func TestSignUp_CreatesAccount(t *testing.T) {
	s, db, _ := setupLocalAuth(t)
	id := signUpJane(t, s)

	assert.Equal(t, "jane@example.com", id.Email)
	assert.Equal(t, "Jane Doe", id.Name)
	assert.Equal(t, "local", id.Provider)
	assert.True(t, strings.HasPrefix(id.UID, "local:"))

	var acc models.Account
	require.NoError(t, db.Where("email = ?", "jane@example.com").First(&acc).Error)
	assert.NotEmpty(t, acc.PasswordHash)
	assert.NotEqual(t, "secret123", acc.PasswordHash)
	assert.Contains(t, string(acc.ProviderData), `"provider":"local"`)

	_, err := s.SignUp(context.Background(), SignUpInput{
		Name: "Jane Again", Email: "jane@example.com", Password: "secret123", ConfirmPassword: "secret123",
	})
	assert.Equal(t, ErrEmailExists, err)
}

func TestSignIn(t *testing.T) {
	s, db, _ := setupLocalAuth(t)
	signUpJane(t, s)
	ctx := context.Background()

	_, err := s.SignIn(ctx, "", "x")
	assert.Equal(t, ErrEmailPasswordRequired, err)

	_, err = s.SignIn(ctx, "jane@example.com", "wrong123")
	assert.Equal(t, ErrInvalidCredentials, err)

	_, err = s.SignIn(ctx, "nobody@example.com", "secret123")
	assert.Equal(t, ErrInvalidCredentials, err)

	id, err := s.SignIn(ctx, " JANE@example.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", id.Name)

	var acc models.Account
	require.NoError(t, db.Where("email = ?", "jane@example.com").First(&acc).Error)
	assert.NotNil(t, acc.LastSignInAt)
	assert.NotEmpty(t, acc.PasswordHash)
}

func TestResetPassword_Flow(t *testing.T) {
	s, _, mr := setupLocalAuth(t)
	signUpJane(t, s)
	ctx := context.Background()

	assert.Equal(t, ErrEmailRequired, s.ResetPassword(ctx, "  "))
	assert.Equal(t, ErrAccountNotFound, s.ResetPassword(ctx, "nobody@example.com"))
	require.NoError(t, s.ResetPassword(ctx, "jane@example.com"))

	keys := mr.Keys()
	require.Len(t, keys, 1)
	require.True(t, strings.HasPrefix(keys[0], resetTokenPrefix))
	code := strings.TrimPrefix(keys[0], resetTokenPrefix)

	assert.Equal(t, ErrInvalidResetCode, s.ConfirmPasswordReset(ctx, "bogus", "newpass123"))
	assert.Equal(t, ErrWeakPassword, s.ConfirmPasswordReset(ctx, code, "short"))
	require.NoError(t, s.ConfirmPasswordReset(ctx, code, "newpass123"))
	assert.False(t, mr.Exists(keys[0]))

	_, err := s.SignIn(ctx, "jane@example.com", "secret123")
	assert.Equal(t, ErrInvalidCredentials, err)
	_, err = s.SignIn(ctx, "jane@example.com", "newpass123")
	assert.NoError(t, err)
}

func TestConfirmPasswordReset_CodeIsSingleUse(t *testing.T) {
	s, db, mr := setupLocalAuth(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	signUpJane(t, s)
	ctx := context.Background()

	require.NoError(t, s.ResetPassword(ctx, "jane@example.com"))
	keys := mr.Keys()
	require.Len(t, keys, 1)
	code := strings.TrimPrefix(keys[0], resetTokenPrefix)

	const attempts = 4
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.ConfirmPasswordReset(ctx, code, "newpass123")
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, ErrInvalidResetCode, err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, ErrInvalidResetCode, s.ConfirmPasswordReset(ctx, code, "another123"))
}

type recordingMailer struct {
	welcomed []string
	resets   map[string]string
	fail     error
}

func (m *recordingMailer) SendWelcome(ctx context.Context, toEmail, name string) error {
	m.welcomed = append(m.welcomed, toEmail)
	return m.fail
}

func (m *recordingMailer) SendPasswordReset(ctx context.Context, toEmail, code string) error {
	if m.fail != nil {
		return m.fail
	}
	if m.resets == nil {
		m.resets = map[string]string{}
	}
	m.resets[toEmail] = code
	return nil
}

func TestMailer_WelcomeAndReset(t *testing.T) {
	s, _, mr := setupLocalAuth(t)
	mailer := &recordingMailer{}
	s.Mailer = mailer
	s.Provider.(*LocalProvider).Mailer = mailer
	ctx := context.Background()

	signUpJane(t, s)
	assert.Equal(t, []string{"jane@example.com"}, mailer.welcomed)

	require.NoError(t, s.ResetPassword(ctx, "jane@example.com"))
	code := mailer.resets["jane@example.com"]
	require.NotEmpty(t, code)
	assert.True(t, mr.Exists(resetTokenPrefix+code))
	require.NoError(t, s.ConfirmPasswordReset(ctx, code, "newpass123"))
}

func TestMailer_ResetSendFailureDropsCode(t *testing.T) {
	s, _, mr := setupLocalAuth(t)
	signUpJane(t, s)
	s.Provider.(*LocalProvider).Mailer = &recordingMailer{fail: errors.New("brevo down")}

	err := s.ResetPassword(context.Background(), "jane@example.com")
	require.Error(t, err)
	assert.Empty(t, mr.Keys())
}

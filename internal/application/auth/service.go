package auth

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"property-portal/internal/application/emails"
	"property-portal/internal/models"
	"property-portal/internal/pkg/validation"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service is the auth context handed to every consumer that needs it. It is
// built once at startup; nothing in this package keeps global session state.
type Service struct {
	Provider Provider
	// DB mirrors provider accounts locally; nil skips the mirror.
	DB *gorm.DB
	// Mailer sends the welcome email; nil sends nothing.
	Mailer emails.Sender
}

// SignUpInput is the sign-up form.
type SignUpInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// SignUp validates the form and creates the account with the provider.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (*Identity, error) {
	name := strings.TrimSpace(in.Name)
	email := validation.NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, ErrFieldsRequired
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if !validation.IsValidName(name) {
		return nil, ErrInvalidName
	}
	if !validation.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, ErrWeakPassword
	}

	id, err := s.Provider.SignUp(ctx, name, email, in.Password)
	if err != nil {
		return nil, err
	}
	s.mirror(ctx, id, false)
	if s.Mailer != nil {
		if err := s.Mailer.SendWelcome(ctx, id.Email, id.Name); err != nil {
			log.Warn().Err(err).Str("email", id.Email).Msg("auth: welcome email failed")
		}
	}
	return id, nil
}

// SignIn checks credentials with the provider.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrEmailPasswordRequired
	}
	id, err := s.Provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.mirror(ctx, id, true)
	return id, nil
}

// ResetPassword asks the provider to send a reset link to email.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)
	if email == "" {
		return ErrEmailRequired
	}
	if !validation.IsValidEmail(email) {
		return ErrInvalidEmail
	}
	return s.Provider.SendPasswordReset(ctx, email)
}

// ConfirmPasswordReset sets a new password using the code from the reset link.
func (s *Service) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	if strings.TrimSpace(code) == "" {
		return ErrInvalidResetCode
	}
	if !validation.IsValidPassword(newPassword) {
		return ErrWeakPassword
	}
	return s.Provider.ConfirmPasswordReset(ctx, code, newPassword)
}

// mirror upserts the account row keyed by email. Failures are logged only:
// the provider stays the source of truth.
func (s *Service) mirror(ctx context.Context, id *Identity, signedIn bool) {
	if s.DB == nil || id == nil {
		return
	}
	meta := map[string]interface{}{"provider": id.Provider}
	now := time.Now().UTC()
	if signedIn {
		meta["last_sign_in"] = now
	}
	if id.ExpiresAt != nil {
		meta["token_expires_at"] = id.ExpiresAt.UTC()
	}
	raw, _ := json.Marshal(meta)

	acc := models.Account{
		ProviderUID:  id.UID,
		Name:         id.Name,
		Email:        id.Email,
		ProviderData: datatypes.JSON(raw),
	}
	update := []string{"provider_uid", "provider_data", "updated_at"}
	if id.Name != "" {
		update = append(update, "name")
	}
	if signedIn {
		acc.LastSignInAt = &now
		update = append(update, "last_sign_in_at")
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns(update),
	}).Create(&acc).Error
	if err != nil {
		log.Warn().Err(err).Str("email", id.Email).Msg("auth: account mirror failed")
	}
}

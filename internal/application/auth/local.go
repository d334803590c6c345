package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"property-portal/internal/application/emails"
	"property-portal/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	resetTokenPrefix  = "password_reset:"
	defaultResetTTL   = time.Hour
	localProviderName = "local"
)

// LocalProvider keeps accounts in the database with bcrypt hashes. It stands
// in for the hosted provider in development. Reset codes live in Redis; they
// are mailed when a Mailer is set and logged otherwise.
type LocalProvider struct {
	DB       *gorm.DB
	Rdb      *redis.Client
	Mailer   emails.Sender
	ResetTTL time.Duration
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	var acc models.Account
	if err := p.DB.WithContext(ctx).Where("email = ?", email).First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if acc.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return localIdentity(&acc), nil
}

func (p *LocalProvider) SignUp(ctx context.Context, name, email, password string) (*Identity, error) {
	var count int64
	if err := p.DB.WithContext(ctx).Model(&models.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acc := models.Account{
		ProviderUID:  localProviderName + ":" + uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := p.DB.WithContext(ctx).Create(&acc).Error; err != nil {
		return nil, err
	}
	return localIdentity(&acc), nil
}

func (p *LocalProvider) SendPasswordReset(ctx context.Context, email string) error {
	var acc models.Account
	if err := p.DB.WithContext(ctx).Where("email = ? AND password_hash <> ''", email).First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	code := uuid.New().String()
	if err := p.Rdb.Set(ctx, resetTokenPrefix+code, acc.AccountID.String(), p.resetTTL()).Err(); err != nil {
		return fmt.Errorf("store reset code: %w", err)
	}
	if p.Mailer == nil {
		log.Info().Str("email", acc.Email).Str("code", code).Msg("Password reset code issued (no mailer configured)")
		return nil
	}
	if err := p.Mailer.SendPasswordReset(ctx, acc.Email, code); err != nil {
		p.Rdb.Del(ctx, resetTokenPrefix+code)
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

func (p *LocalProvider) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	// GETDEL consumes the code atomically so it confirms at most once.
	accountID, err := p.Rdb.GetDel(ctx, resetTokenPrefix+code).Result()
	if err == redis.Nil {
		return ErrInvalidResetCode
	}
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res := p.DB.WithContext(ctx).Model(&models.Account{}).Where("account_id = ?", accountID).Update("password_hash", string(hash))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInvalidResetCode
	}
	return nil
}

func (p *LocalProvider) resetTTL() time.Duration {
	if p.ResetTTL > 0 {
		return p.ResetTTL
	}
	return defaultResetTTL
}

func localIdentity(acc *models.Account) *Identity {
	return &Identity{
		UID:      acc.ProviderUID,
		Email:    acc.Email,
		Name:     acc.Name,
		Provider: localProviderName,
	}
}

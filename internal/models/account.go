package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Account mirrors a user known to the auth provider. PasswordHash is only
// set for accounts owned by the local provider.
type Account struct {
	AccountID    uuid.UUID      `gorm:"column:account_id;type:uuid;primaryKey" json:"account_id"`
	ProviderUID  string         `gorm:"column:provider_uid;not null;index" json:"provider_uid"`
	Name         string         `gorm:"column:name;not null" json:"name"`
	Email        string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	PasswordHash string         `gorm:"column:password_hash" json:"-"`
	ProviderData datatypes.JSON `gorm:"column:provider_data" json:"provider_data"`
	LastSignInAt *time.Time     `gorm:"column:last_sign_in_at" json:"last_sign_in_at"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Account) TableName() string {
	return "Accounts"
}

// BeforeCreate sets AccountID if not set (for DBs without gen_random_uuid).
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.AccountID == uuid.Nil {
		a.AccountID = uuid.New()
	}
	return nil
}

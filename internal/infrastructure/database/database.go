package database

import (
	"strings"

	"property-portal/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite:"

// Open opens a GORM DB from DSN. "sqlite:<path>" opens a local SQLite file for
// development; anything else is a Postgres / pooler URL.
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind connection poolers such as PgBouncer.
func Open(dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	if strings.HasPrefix(dsn, sqlitePrefix) {
		return gorm.Open(sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix)), cfg)
	}
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), cfg)
}

// AutoMigrate runs migrations for the accounts table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Account{})
}

// Pinger adapts a GORM DB to the health check.
type Pinger struct {
	DB *gorm.DB
}

func (p *Pinger) Ping() error {
	if p == nil || p.DB == nil {
		return nil
	}
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

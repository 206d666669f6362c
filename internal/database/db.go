package database

import (
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/EZ-CORE/EZ-GEN/internal/models"
)

var DB *gorm.DB

// Enabled reports whether the registry is usable. The generator itself never
// requires it; registry writes are best effort everywhere.
func Enabled() bool { return DB != nil }

func Connect(dsn string) error {
	if dsn == "" {
		return errors.New("empty DSN")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(60 * time.Minute)

	DB = db
	return nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&models.BuildRecord{},
		&models.PushDevice{},
	)
}

// Package bootstrap prepares a fresh database: schema migration and the
// first administrator account.
package bootstrap

import (
	"context"
	"errors"

	"github.com/punjabready/portal-api/internal/entity"
	"github.com/punjabready/portal-api/pkg/logging"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(entity.Models()...)
}

// SeedAdmin creates an active administrator with email unless an account
// with that email already exists. An existing account is left untouched.
func SeedAdmin(ctx context.Context, db *gorm.DB, email, password string) error {
	if password == "" {
		return errors.New("admin password is required")
	}
	email = entity.NormalizeEmail(email)

	var count int64
	if err := db.WithContext(ctx).
		Model(&entity.User{}).
		Where("email = ?", email).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logging.Info().Str("email", email).Msg("admin user already exists, skipping seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := entity.User{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: string(hash),
		Role:         entity.RoleAdmin,
		Department:   "Disaster Management",
		IsActive:     true,
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return err
	}

	logging.Info().Str("email", email).Msg("admin user seeded")
	return nil
}

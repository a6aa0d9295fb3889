// Package bootstrap wires the process-wide runtime shared by the commands.
package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"lukeblog/internal/cache"
	"lukeblog/internal/config"
	"lukeblog/internal/database"
	"lukeblog/internal/middleware"
	"lukeblog/internal/models"
	"lukeblog/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis and makes sure the
// development superuser exists. The Redis client is nil when Redis is not
// reachable.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	rdb := cache.InitRedis(cfg.RedisURL)

	if err := EnsureDevSuperuser(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development superuser: %w", err)
	}
	return db, rdb, nil
}

// EnsureDevSuperuser creates DEV_ROOT_USERNAME as a superuser, or promotes
// the existing account. It does nothing in production or when no username
// is configured.
func EnsureDevSuperuser(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || cfg.IsProduction() {
		return nil
	}
	username := strings.TrimSpace(cfg.DevRootUsername)
	if username == "" {
		return nil
	}
	if cfg.DevRootPassword == "" {
		return errors.New("DEV_ROOT_PASSWORD must be set when DEV_ROOT_USERNAME is")
	}

	hash, err := service.HashPassword(cfg.DevRootPassword)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var root models.User
		findErr := tx.Where("username = ?", username).First(&root).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			root = models.User{
				Username:    username,
				Email:       username + "@localhost",
				Password:    hash,
				IsStaff:     true,
				IsSuperuser: true,
			}
			return tx.Create(&root).Error
		case findErr != nil:
			return findErr
		default:
			return tx.Model(&root).Updates(map[string]any{
				"is_staff":     true,
				"is_superuser": true,
			}).Error
		}
	})
	if err != nil {
		return err
	}

	middleware.Logger.Info("development superuser ensured", slog.String("username", username))
	return nil
}

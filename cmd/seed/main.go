package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"trimsdesk/internal/config"
	"trimsdesk/internal/db"
	"trimsdesk/internal/identity"
	"trimsdesk/internal/logging"
	"trimsdesk/internal/model"
	"trimsdesk/internal/module"
	"trimsdesk/internal/repository"
	"trimsdesk/internal/session"
)

const (
	defaultAdminUsername = "zahidadmin"
	defaultAdminFullName = "Zahid Admin"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	log.Info("Starting seed script...")

	store, err := db.OpenStore(cfg.StoreBackend, cfg.MySQLDSN, false, log.WithField("component", "db"))
	if err != nil {
		log.WithError(err).Fatal("Failed to open document store")
	}

	username := envOr("ADMIN_USERNAME", defaultAdminUsername)
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("ADMIN_PASSWORD must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := createAdmin(ctx, repository.NewUserRepository(store), username, password, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create admin")
	}
	if created {
		log.WithField("username", username).Info("Default admin created")
	} else {
		log.WithField("username", username).Info("Admin already exists, permissions enforced")
	}
}

// createAdmin creates the admin account, or forces the admin role and
// approval onto an existing account of that name. It reports whether a new
// account was written.
func createAdmin(ctx context.Context, users repository.UserRepository, username, password string, log logrus.FieldLogger) (bool, error) {
	exists, err := users.Exists(ctx, username)
	if err != nil {
		return false, fmt.Errorf("check admin %s: %w", username, err)
	}
	if exists {
		patch := map[string]any{
			"role":       string(identity.RoleAdmin),
			"isApproved": true,
		}
		if err := users.Update(ctx, username, patch); err != nil {
			return false, fmt.Errorf("enforce admin %s: %w", username, err)
		}
		return false, nil
	}

	hash, err := session.HashPassword(password)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	admin := &model.User{
		Username:       username,
		PasswordHash:   hash,
		FullName:       defaultAdminFullName,
		Role:           string(identity.RoleAdmin),
		AllowedModules: []module.Page{},
		IsApproved:     true,
		CreatedAt:      &now,
	}
	if err := users.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("create admin %s: %w", username, err)
	}
	log.WithField("username", username).Debug("admin record written")
	return true, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

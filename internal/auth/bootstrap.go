package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/petermazzocco/memory-wall/internal/store"
	"github.com/petermazzocco/memory-wall/models"
)

// EnsureAdmin seeds the administrative user when it does not exist yet. It is
// safe to call on every start. Failures are logged and returned but must not
// stop the process.
func EnsureAdmin(ctx context.Context, users store.UserStore, username, password string, log *slog.Logger) error {
	_, err := users.GetUserByUsername(ctx, username)
	if err == nil {
		log.Debug("admin user present", "username", username)
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Error("checking admin user", "err", err)
		return fmt.Errorf("checking admin user: %w", err)
	}

	hash, err := HashPassword(password, AdminHashCost)
	if err != nil {
		log.Error("hashing admin password", "err", err)
		return fmt.Errorf("hashing admin password: %w", err)
	}

	err = users.CreateUser(ctx, &models.User{Username: username, PasswordHash: hash})
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		// another instance won the race
		return nil
	case err != nil:
		log.Error("creating admin user", "err", err)
		return fmt.Errorf("creating admin user: %w", err)
	}

	log.Info("default admin created", "username", username)
	return nil
}

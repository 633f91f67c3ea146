// Package store defines the persistence contracts for memories and
// administrative users. Implementations live in the sub-packages.
package store

import (
	"context"
	"errors"

	"github.com/petermazzocco/memory-wall/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// MemoryStore persists guest submissions.
type MemoryStore interface {
	// CreateMemory inserts m atomically. Implementations assign m.ID when it is
	// empty and keep m.Images in the given order.
	CreateMemory(ctx context.Context, m *models.Memory) error
	// ListMemories returns every memory ordered by CreatedAt, newest first.
	ListMemories(ctx context.Context) ([]models.Memory, error)
}

// UserStore persists administrative credentials.
type UserStore interface {
	// GetUserByUsername returns ErrNotFound when no user has that name.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// CreateUser returns ErrAlreadyExists when the username is taken.
	CreateUser(ctx context.Context, u *models.User) error
}

// Store is implemented by every backend: one handle serves both collections.
type Store interface {
	MemoryStore
	UserStore
	Close(ctx context.Context) error
}

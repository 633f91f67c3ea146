package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/petermazzocco/memory-wall/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Service exchanges a username and password for a bearer token.
type Service struct {
	users     store.UserStore
	tokens    *TokenIssuer
	dummyHash string
}

func NewService(users store.UserStore, tokens *TokenIssuer) (*Service, error) {
	// Compared against when the user is unknown so both failure paths cost a
	// bcrypt comparison.
	dummy, err := HashPassword("memory-wall-unknown-user", AdminHashCost)
	if err != nil {
		return nil, fmt.Errorf("preparing dummy hash: %w", err)
	}
	return &Service{users: users, tokens: tokens, dummyHash: dummy}, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			CheckPassword(s.dummyHash, password)
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("looking up user: %w", err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", err
	}
	return token, nil
}

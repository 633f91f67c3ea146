package auth

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/petermazzocco/memory-wall/internal/store"
	"github.com/petermazzocco/memory-wall/internal/store/memstore"
	"github.com/petermazzocco/memory-wall/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsers struct {
	getOut    *models.User
	getErr    error
	createErr error
	created   []*models.User
}

func (f *fakeUsers) GetUserByUsername(context.Context, string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsers) CreateUser(_ context.Context, u *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, u)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestEnsureAdmin_SeedsOnce(t *testing.T) {
	ctx := context.Background()
	users := memstore.New()

	require.NoError(t, EnsureAdmin(ctx, users, "Estrel&Kevin", "pw", discardLogger()))
	first, err := users.GetUserByUsername(ctx, "Estrel&Kevin")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(first.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, AdminHashCost, cost)
	assert.True(t, CheckPassword(first.PasswordHash, "pw"))
	assert.NotEqual(t, "pw", first.PasswordHash)

	require.NoError(t, EnsureAdmin(ctx, users, "Estrel&Kevin", "other", discardLogger()))
	second, err := users.GetUserByUsername(ctx, "Estrel&Kevin")
	require.NoError(t, err)
	assert.Equal(t, first.PasswordHash, second.PasswordHash)
}

func TestEnsureAdmin_StoreFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	users := &fakeUsers{getErr: errors.New("connection refused")}

	err := EnsureAdmin(context.Background(), users, "admin", "pw", log)
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "connection refused")
	assert.Empty(t, users.created)
}

func TestEnsureAdmin_LostRaceIsFine(t *testing.T) {
	users := &fakeUsers{getErr: store.ErrNotFound, createErr: store.ErrAlreadyExists}

	assert.NoError(t, EnsureAdmin(context.Background(), users, "admin", "pw", discardLogger()))
}

func newLoginService(t *testing.T) (*Service, *TokenIssuer, string) {
	t.Helper()
	ctx := context.Background()
	users := memstore.New()
	require.NoError(t, EnsureAdmin(ctx, users, "admin", "correct horse", discardLogger()))
	u, err := users.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)

	issuer := NewTokenIssuer("secret", time.Hour)
	svc, err := NewService(users, issuer)
	require.NoError(t, err)
	return svc, issuer, u.ID
}

func TestLogin_Success(t *testing.T) {
	svc, issuer, adminID := newLoginService(t)

	tok, err := svc.Login(context.Background(), "admin", "correct horse")
	require.NoError(t, err)

	got, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, adminID, got)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _, _ := newLoginService(t)

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "battery staple"},
		{"unknown user", "guest", "correct horse"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tok, err := svc.Login(context.Background(), tc.username, tc.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Empty(t, tok)
		})
	}
}

func TestLogin_StoreError(t *testing.T) {
	svc, err := NewService(&fakeUsers{getErr: errors.New("boom")}, NewTokenIssuer("s", time.Hour))
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "admin", "pw")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

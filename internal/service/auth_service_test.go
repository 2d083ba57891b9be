package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/senai-mf/aquisicoes-api/internal/models"
	"github.com/senai-mf/aquisicoes-api/pkg/config"
	appErrors "github.com/senai-mf/aquisicoes-api/pkg/errors"
)

type stubAuthUserStore struct {
	byUsername map[string]*models.User
	byID       map[string]*models.User
	passwords  map[string]string
}

func (s *stubAuthUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *stubAuthUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	user, ok := s.byUsername[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *stubAuthUserStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.passwords[id] = passwordHash
	if user, ok := s.byID[id]; ok {
		user.PasswordHash = &passwordHash
		user.NeedsPasswordReset = false
	}
	return nil
}

func newTestAuthService(t *testing.T) (*AuthService, *stubAuthUserStore) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("senha-segura"), bcrypt.MinCost)
	require.NoError(t, err)
	hashStr := string(hash)

	active := &models.User{ID: "u-1", Username: "ana.lima", FullName: "Ana Lima", PasswordHash: &hashStr, Active: true}
	firstLogin := &models.User{ID: "u-2", Username: "novo.user", FullName: "Novo Usuário", PasswordHash: &hashStr, Active: true, NeedsPasswordReset: true}
	inactive := &models.User{ID: "u-3", Username: "desligado", FullName: "Conta Desligada", PasswordHash: &hashStr, Active: false}

	store := &stubAuthUserStore{
		byUsername: map[string]*models.User{
			active.Username:     active,
			firstLogin.Username: firstLogin,
			inactive.Username:   inactive,
		},
		byID: map[string]*models.User{
			active.ID:     active,
			firstLogin.ID: firstLogin,
			inactive.ID:   inactive,
		},
		passwords: make(map[string]string),
	}
	cfg := config.JWTConfig{Secret: "test-secret", Expiration: time.Hour}
	return NewAuthService(store, cfg, nil, nil), store
}

func TestAuthServiceLoginIssuesValidToken(t *testing.T) {
	svc, _ := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "ana.lima", Password: "senha-segura"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Equal(t, int64(3600), resp.ExpiresIn)
	require.False(t, resp.NeedsPasswordReset)
	require.Equal(t, "u-1", resp.User.ID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "u-1", claims.UserID)
	require.False(t, claims.IsAdmin)
}

func TestAuthServiceLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "ana.lima", Password: "errada"})
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginRejectsUnknownUser(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "ninguem", Password: "senha-segura"})
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginRejectsInactiveAccount(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "desligado", Password: "senha-segura"})
	require.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginFlagsFirstLogin(t *testing.T) {
	svc, _ := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "novo.user", Password: "senha-segura"})
	require.NoError(t, err)
	require.True(t, resp.NeedsPasswordReset)
}

func TestAuthServiceSetFirstPassword(t *testing.T) {
	svc, store := newTestAuthService(t)

	require.NoError(t, svc.SetFirstPassword(context.Background(), "u-2", models.FirstPasswordRequest{NewPassword: "nova-senha"}))
	require.Contains(t, store.passwords, "u-2")
	require.False(t, store.byID["u-2"].NeedsPasswordReset)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "novo.user", Password: "nova-senha"})
	require.NoError(t, err)
	require.False(t, resp.NeedsPasswordReset)

	err = svc.SetFirstPassword(context.Background(), "u-1", models.FirstPasswordRequest{NewPassword: "qualquer-senha"})
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	err = svc.SetFirstPassword(context.Background(), "u-2", models.FirstPasswordRequest{NewPassword: "123"})
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsTampered(t *testing.T) {
	svc, _ := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "ana.lima", Password: "senha-segura"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	require.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

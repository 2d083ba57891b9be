package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/senai-mf/aquisicoes-api/internal/models"
	appErrors "github.com/senai-mf/aquisicoes-api/pkg/errors"
)

type stubUserAdminStore struct {
	byID    map[string]*models.User
	updated []string
}

func newStubUserAdminStore() *stubUserAdminStore {
	return &stubUserAdminStore{
		byID: map[string]*models.User{
			"u-admin": {ID: "u-admin", Username: "admin", FullName: "Administrador", IsAdmin: true, Active: true},
			"u-ana":   {ID: "u-ana", Username: "ana.lima", FullName: "Ana Lima", Active: true},
			"u-off":   {ID: "u-off", Username: "desligado", FullName: "Conta Desligada", Active: false},
		},
	}
}

func (s *stubUserAdminStore) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (s *stubUserAdminStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	for _, user := range s.byID {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubUserAdminStore) FindActive(context.Context) ([]models.User, error) {
	users := make([]models.User, 0, len(s.byID))
	for _, user := range s.byID {
		if user.Active {
			users = append(users, *user)
		}
	}
	return users, nil
}

func (s *stubUserAdminStore) List(context.Context, models.UserFilter) ([]models.User, error) {
	users := make([]models.User, 0, len(s.byID))
	for _, user := range s.byID {
		users = append(users, *user)
	}
	return users, nil
}

func (s *stubUserAdminStore) Create(_ context.Context, user *models.User) error {
	s.byID[user.ID] = user
	return nil
}

func (s *stubUserAdminStore) Update(_ context.Context, user *models.User) error {
	copied := *user
	s.byID[user.ID] = &copied
	s.updated = append(s.updated, user.ID)
	return nil
}

func TestUserServiceDeactivate(t *testing.T) {
	store := newStubUserAdminStore()
	svc := NewUserService(store, nil, nil)
	actor := &models.JWTClaims{UserID: "u-admin", IsAdmin: true}

	user, err := svc.Deactivate(context.Background(), "u-ana", actor)
	require.NoError(t, err)
	require.False(t, user.Active)
	require.False(t, store.byID["u-ana"].Active)
}

func TestUserServiceDeactivateRejectsSelf(t *testing.T) {
	store := newStubUserAdminStore()
	svc := NewUserService(store, nil, nil)
	actor := &models.JWTClaims{UserID: "u-admin", IsAdmin: true}

	_, err := svc.Deactivate(context.Background(), "u-admin", actor)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	require.True(t, store.byID["u-admin"].Active)
	require.Empty(t, store.updated)
}

func TestUserServiceDeactivateIsIdempotent(t *testing.T) {
	store := newStubUserAdminStore()
	svc := NewUserService(store, nil, nil)
	actor := &models.JWTClaims{UserID: "u-admin", IsAdmin: true}

	user, err := svc.Deactivate(context.Background(), "u-off", actor)
	require.NoError(t, err)
	require.False(t, user.Active)
	require.Empty(t, store.updated)
}

func TestUserServiceDeactivateUnknownUser(t *testing.T) {
	store := newStubUserAdminStore()
	svc := NewUserService(store, nil, nil)
	actor := &models.JWTClaims{UserID: "u-admin", IsAdmin: true}

	_, err := svc.Deactivate(context.Background(), "u-missing", actor)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

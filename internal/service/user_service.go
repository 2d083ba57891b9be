package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/senai-mf/aquisicoes-api/internal/dto"
	"github.com/senai-mf/aquisicoes-api/internal/models"
	appErrors "github.com/senai-mf/aquisicoes-api/pkg/errors"
)

type userStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindActive(ctx context.Context) ([]models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// UserService manages accounts. All mutations are restricted to
// administrators at the routing layer; accounts are deactivated rather than
// deleted so request history keeps valid author references.
type UserService struct {
	repo      userStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(repo userStore, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns users matching the query.
func (s *UserService) List(ctx context.Context, query dto.UserQuery) ([]models.User, error) {
	users, err := s.repo.List(ctx, models.UserFilter{Search: strings.TrimSpace(query.Search), Active: query.Active})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// ListActive returns the active users offered as responsible candidates.
func (s *UserService) ListActive(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active users")
	}
	return users, nil
}

// Get loads one user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create opens a new account with a provisional password and the
// first-login flag set.
func (s *UserService) Create(ctx context.Context, payload dto.CreateUserPayload) (*models.User, error) {
	payload.Username = strings.ToLower(strings.TrimSpace(payload.Username))
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	payload.FullName = strings.TrimSpace(payload.FullName)
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	if _, err := s.repo.FindByUsername(ctx, payload.Username); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already taken")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.ProvisionalPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	hashStr := string(hash)

	user := &models.User{
		Username:           payload.Username,
		Email:              payload.Email,
		FullName:           payload.FullName,
		PasswordHash:       &hashStr,
		NeedsPasswordReset: true,
		IsAdmin:            payload.IsAdmin,
		Active:             true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.Bool("is_admin", user.IsAdmin))
	return user, nil
}

// Update mutates account metadata.
func (s *UserService) Update(ctx context.Context, id string, payload dto.UpdateUserPayload) (*models.User, error) {
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	payload.FullName = strings.TrimSpace(payload.FullName)
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Email = payload.Email
	user.FullName = payload.FullName
	if payload.IsAdmin != nil {
		user.IsAdmin = *payload.IsAdmin
	}
	if payload.Active != nil {
		user.Active = *payload.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// Deactivate marks an account inactive, keeping it referenced by history.
// Administrators cannot deactivate their own account.
func (s *UserService) Deactivate(ctx context.Context, id string, actor *models.JWTClaims) (*models.User, error) {
	if actor != nil && actor.UserID == id {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot deactivate your own account")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return user, nil
	}
	user.Active = false
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate user")
	}
	s.logger.Info("user deactivated", zap.String("user_id", id))
	return user, nil
}

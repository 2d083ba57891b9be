package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/senai-mf/aquisicoes-api/internal/models"
	appErrors "github.com/senai-mf/aquisicoes-api/pkg/errors"
	"github.com/senai-mf/aquisicoes-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	SetFirstPassword(ctx context.Context, userID string, req models.FirstPasswordRequest) error
}

type profileService interface {
	Get(ctx context.Context, id string) (*models.User, error)
}

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	auth  authService
	users profileService
}

// NewAuthHandler builds a new handler.
func NewAuthHandler(auth authService, users profileService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

// Login godoc
// @Summary Authenticate and obtain an access token
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// FirstPassword godoc
// @Summary Replace the provisional password assigned at account creation
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.FirstPasswordRequest true "New password"
// @Success 204
// @Router /auth/first-password [post]
func (h *AuthHandler) FirstPassword(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.FirstPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid password payload"))
		return
	}
	if err := h.auth.SetFirstPassword(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Me godoc
// @Summary Return the authenticated user's profile
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.users.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

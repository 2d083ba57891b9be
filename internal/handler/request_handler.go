package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/senai-mf/aquisicoes-api/internal/catalog"
	"github.com/senai-mf/aquisicoes-api/internal/dto"
	"github.com/senai-mf/aquisicoes-api/internal/models"
	appErrors "github.com/senai-mf/aquisicoes-api/pkg/errors"
	"github.com/senai-mf/aquisicoes-api/pkg/response"
)

type requestService interface {
	Create(ctx context.Context, payload dto.CreateRequestPayload, creatorID string) (*models.AcquisitionRequest, error)
	Update(ctx context.Context, id string, payload dto.UpdateRequestPayload, actor *models.JWTClaims) (*models.AcquisitionRequest, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	Reassign(ctx context.Context, id string, payload dto.ReassignPayload, actor *models.JWTClaims) error
	Get(ctx context.Context, id string) (*models.AcquisitionRequest, error)
	History(ctx context.Context, id string) ([]models.StatusChange, error)
	List(ctx context.Context, query dto.RequestQuery) ([]models.AcquisitionRequest, *models.Pagination, error)
}

type summaryInvalidator interface {
	Invalidate(ctx context.Context)
}

// RequestHandler exposes the acquisition request endpoints.
type RequestHandler struct {
	service   requestService
	dashboard summaryInvalidator
}

// NewRequestHandler builds a new handler.
func NewRequestHandler(service requestService, dashboard summaryInvalidator) *RequestHandler {
	return &RequestHandler{service: service, dashboard: dashboard}
}

// List godoc
// @Summary List requests with filters and pagination
// @Tags Requests
// @Produce json
// @Param search query string false "Match against title and description"
// @Param status query string false "Status code or label"
// @Param classe query string false "Classe code or label"
// @Param categoria query string false "Categoria code or label"
// @Param responsible_id query string false "Responsible user id"
// @Param date_from query string false "Request date lower bound (YYYY-MM-DD)"
// @Param date_to query string false "Request date upper bound (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	var query dto.RequestQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	requests, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, pagination)
}

// Get godoc
// @Summary Get one request
// @Tags Requests
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	request, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Create godoc
// @Summary Open a new request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateRequestPayload true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /requests [post]
func (h *RequestHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload dto.CreateRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}
	request, err := h.service.Create(c.Request.Context(), payload, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.dashboard.Invalidate(c.Request.Context())
	response.Created(c, request)
}

// Update godoc
// @Summary Update a request, recording a ledger entry when the status changes
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request id"
// @Param payload body dto.UpdateRequestPayload true "Request payload"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [put]
func (h *RequestHandler) Update(c *gin.Context) {
	var payload dto.UpdateRequestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}
	request, err := h.service.Update(c.Request.Context(), c.Param("id"), payload, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.dashboard.Invalidate(c.Request.Context())
	response.JSON(c, http.StatusOK, request, nil)
}

// Delete godoc
// @Summary Delete a request and its attachments (administrators only)
// @Tags Requests
// @Param id path string true "Request id"
// @Success 204
// @Router /requests/{id} [delete]
func (h *RequestHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	h.dashboard.Invalidate(c.Request.Context())
	response.NoContent(c)
}

// Reassign godoc
// @Summary Set or clear the responsible party
// @Tags Requests
// @Accept json
// @Param id path string true "Request id"
// @Param payload body dto.ReassignPayload true "Responsible payload"
// @Success 204
// @Router /requests/{id}/responsible [put]
func (h *RequestHandler) Reassign(c *gin.Context) {
	var payload dto.ReassignPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.Reassign(c.Request.Context(), c.Param("id"), payload, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// History godoc
// @Summary List the status change ledger of a request in chronological order
// @Tags Requests
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/history [get]
func (h *RequestHandler) History(c *gin.Context) {
	entries, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Catalog godoc
// @Summary List the enumeration values used by request forms
// @Tags Requests
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *RequestHandler) Catalog(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"statuses":   catalog.Statuses().Values(),
		"classes":    catalog.Classes().Values(),
		"categorias": catalog.Categorias().Values(),
		"priorities": catalog.Priorities().Values(),
		"impacts":    catalog.Impacts().Values(),
	}, nil)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/senai-mf/aquisicoes-api/internal/catalog"
	"github.com/senai-mf/aquisicoes-api/internal/dto"
	"github.com/senai-mf/aquisicoes-api/internal/middleware"
	"github.com/senai-mf/aquisicoes-api/internal/models"
	appErrors "github.com/senai-mf/aquisicoes-api/pkg/errors"
	"github.com/senai-mf/aquisicoes-api/pkg/response"
)

type stubRequestService struct {
	created   *models.AcquisitionRequest
	createErr error
	updateErr error
	history   []models.StatusChange
}

func (s *stubRequestService) Create(_ context.Context, payload dto.CreateRequestPayload, creatorID string) (*models.AcquisitionRequest, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = &models.AcquisitionRequest{
		ID:          "req-1",
		Title:       payload.Title,
		Description: payload.Description,
		Status:      catalog.DefaultStatus,
		CreatedByID: creatorID,
	}
	return s.created, nil
}

func (s *stubRequestService) Update(_ context.Context, id string, payload dto.UpdateRequestPayload, _ *models.JWTClaims) (*models.AcquisitionRequest, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &models.AcquisitionRequest{ID: id, Title: payload.Title, Status: payload.Status}, nil
}

func (s *stubRequestService) Delete(context.Context, string, *models.JWTClaims) error { return nil }

func (s *stubRequestService) Reassign(context.Context, string, dto.ReassignPayload, *models.JWTClaims) error {
	return nil
}

func (s *stubRequestService) Get(_ context.Context, id string) (*models.AcquisitionRequest, error) {
	if id != "req-1" {
		return nil, appErrors.ErrNotFound
	}
	return &models.AcquisitionRequest{ID: id}, nil
}

func (s *stubRequestService) History(context.Context, string) ([]models.StatusChange, error) {
	return s.history, nil
}

func (s *stubRequestService) List(context.Context, dto.RequestQuery) ([]models.AcquisitionRequest, *models.Pagination, error) {
	return []models.AcquisitionRequest{{ID: "req-1"}}, &models.Pagination{Page: 1, PageSize: 10, TotalCount: 1}, nil
}

type stubInvalidator struct {
	calls int
}

func (s *stubInvalidator) Invalidate(context.Context) { s.calls++ }

func newRequestRouter(svc *stubRequestService, invalidator *stubInvalidator, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ContextUserKey, claims)
		}
		c.Next()
	})
	h := NewRequestHandler(svc, invalidator)
	r.GET("/requests", h.List)
	r.POST("/requests", h.Create)
	r.GET("/requests/:id", h.Get)
	r.PUT("/requests/:id", h.Update)
	r.GET("/requests/:id/history", h.History)
	return r
}

func TestRequestHandlerCreate(t *testing.T) {
	svc := &stubRequestService{}
	invalidator := &stubInvalidator{}
	router := newRequestRouter(svc, invalidator, &models.JWTClaims{UserID: "user-1"})

	body, _ := json.Marshal(dto.CreateRequestPayload{
		Title:       "Compra de notebooks",
		Description: "Notebooks para o laboratório de informática",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "user-1", svc.created.CreatedByID)
	require.Equal(t, 1, invalidator.calls)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Nil(t, envelope.Error)
}

func TestRequestHandlerCreateRequiresAuth(t *testing.T) {
	router := newRequestRouter(&stubRequestService{}, &stubInvalidator{}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestHandlerUpdateMapsForbidden(t *testing.T) {
	svc := &stubRequestService{updateErr: appErrors.ErrForbidden}
	invalidator := &stubInvalidator{}
	router := newRequestRouter(svc, invalidator, &models.JWTClaims{UserID: "user-2"})

	body, _ := json.Marshal(dto.UpdateRequestPayload{
		Title:       "Compra de notebooks",
		Description: "Notebooks para o laboratório de informática",
		Status:      catalog.StatusFaseCompra,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/requests/req-1", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Equal(t, 0, invalidator.calls)
}

func TestRequestHandlerGetNotFound(t *testing.T) {
	router := newRequestRouter(&stubRequestService{}, &stubInvalidator{}, &models.JWTClaims{UserID: "user-1"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/requests/missing", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestHandlerHistory(t *testing.T) {
	old := catalog.StatusOrcamento
	svc := &stubRequestService{history: []models.StatusChange{
		{ID: "sc-1", NewStatus: catalog.StatusOrcamento},
		{ID: "sc-2", OldStatus: &old, NewStatus: catalog.StatusFaseCompra},
	}}
	router := newRequestRouter(svc, &stubInvalidator{}, &models.JWTClaims{UserID: "user-1"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/requests/req-1/history", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.StatusChange `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	require.Equal(t, catalog.StatusFaseCompra, envelope.Data[1].NewStatus)
}

func TestRequestHandlerListReturnsPagination(t *testing.T) {
	router := newRequestRouter(&stubRequestService{}, &stubInvalidator{}, &models.JWTClaims{UserID: "user-1"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/requests?page=1&page_size=10", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Pagination)
	require.Equal(t, 1, envelope.Pagination.TotalCount)
}

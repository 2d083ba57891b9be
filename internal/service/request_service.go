package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/senai-mf/aquisicoes-api/internal/catalog"
	"github.com/senai-mf/aquisicoes-api/internal/dto"
	"github.com/senai-mf/aquisicoes-api/internal/models"
	appErrors "github.com/senai-mf/aquisicoes-api/pkg/errors"
)

const businessDateLayout = "2006-01-02"

// initialLedgerComment is recorded on the ledger entry written at creation.
const initialLedgerComment = "Pedido criado"

type requestStore interface {
	Create(ctx context.Context, request *models.AcquisitionRequest, comments *string) error
	GetByID(ctx context.Context, id string) (*models.AcquisitionRequest, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.AcquisitionRequest, int, error)
	Update(ctx context.Context, request *models.AcquisitionRequest, actorID string, comments *string) (bool, error)
	UpdateResponsible(ctx context.Context, id string, responsibleID *string) error
	Delete(ctx context.Context, id string) error
	History(ctx context.Context, requestID string) ([]models.StatusChange, error)
}

type userDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindActive(ctx context.Context) ([]models.User, error)
}

type requestAttachmentStore interface {
	ListByRequest(ctx context.Context, requestID string) ([]models.Attachment, error)
}

type attachmentFileStore interface {
	Delete(filename string) error
}

// RequestService is the lifecycle engine: every mutation of a request goes
// through here so the entity and its status ledger stay consistent.
type RequestService struct {
	repo        requestStore
	users       userDirectory
	attachments requestAttachmentStore
	files       attachmentFileStore
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
}

// NewRequestService constructs the service.
func NewRequestService(repo requestStore, users userDirectory, attachments requestAttachmentStore, files attachmentFileStore, validate *validator.Validate, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RequestService{
		repo:        repo,
		users:       users,
		attachments: attachments,
		files:       files,
		validator:   validate,
		logger:      logger,
	}
}

// WithMetrics attaches the metrics sink; nil disables instrumentation.
func (s *RequestService) WithMetrics(metrics *MetricsService) *RequestService {
	s.metrics = metrics
	return s
}

// Create validates the payload and persists a new request together with its
// initial ledger entry.
func (s *RequestService) Create(ctx context.Context, payload dto.CreateRequestPayload, creatorID string) (*models.AcquisitionRequest, error) {
	payload.Title = strings.TrimSpace(payload.Title)
	payload.Description = strings.TrimSpace(payload.Description)
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}

	status, err := resolveCode(catalog.Statuses(), payload.Status, catalog.DefaultStatus)
	if err != nil {
		return nil, err
	}
	priority, err := resolveCode(catalog.Priorities(), payload.Priority, catalog.DefaultPriority)
	if err != nil {
		return nil, err
	}
	impact, err := resolveCode(catalog.Impacts(), payload.Impact, catalog.DefaultImpact)
	if err != nil {
		return nil, err
	}
	classe, err := resolveCode(catalog.Classes(), payload.Classe, catalog.DefaultClasse)
	if err != nil {
		return nil, err
	}

	estimated, err := toMoney(payload.EstimatedValue, "estimated_value")
	if err != nil {
		return nil, err
	}
	final, err := toMoney(payload.FinalValue, "final_value")
	if err != nil {
		return nil, err
	}

	requestDate, err := parseBusinessDate(payload.RequestDate, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid request_date, expected YYYY-MM-DD")
	}
	var deliveryDate *time.Time
	if strings.TrimSpace(payload.DeliveryDate) != "" {
		parsed, err := time.Parse(businessDateLayout, strings.TrimSpace(payload.DeliveryDate))
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid delivery_date, expected YYYY-MM-DD")
		}
		deliveryDate = &parsed
	}

	responsibleID, err := s.resolveResponsible(ctx, payload.ResponsibleID)
	if err != nil {
		return nil, err
	}

	request := &models.AcquisitionRequest{
		Title:          payload.Title,
		Description:    payload.Description,
		Status:         status,
		Priority:       priority,
		Impact:         impact,
		Classe:         classe,
		Categoria:      catalog.ParseCategoria(payload.Categoria),
		Observations:   optionalText(payload.Observations),
		EstimatedValue: estimated,
		FinalValue:     final,
		RequestDate:    requestDate,
		DeliveryDate:   deliveryDate,
		CreatedByID:    creatorID,
		ResponsibleID:  responsibleID,
	}

	comments := initialLedgerComment
	if err := s.repo.Create(ctx, request, &comments); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}
	s.metrics.ObserveStatusChange(request.Status)
	s.logger.Info("request created",
		zap.String("request_id", request.ID),
		zap.String("status", request.Status),
		zap.String("created_by", creatorID),
	)
	return request, nil
}

// Update applies field changes. When the status differs from the stored one
// the repository appends exactly one ledger entry in the same transaction;
// the update timestamp refreshes either way. Concurrent edits resolve as
// last write wins.
func (s *RequestService) Update(ctx context.Context, id string, payload dto.UpdateRequestPayload, actor *models.JWTClaims) (*models.AcquisitionRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if !actor.IsAdmin && existing.CreatedByID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the creator or an administrator may edit this request")
	}

	payload.Title = strings.TrimSpace(payload.Title)
	payload.Description = strings.TrimSpace(payload.Description)
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}

	status, ok := catalog.Statuses().Lookup(payload.Status)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid status")
	}
	priority, err := resolveCode(catalog.Priorities(), payload.Priority, existing.Priority)
	if err != nil {
		return nil, err
	}
	impact, err := resolveCode(catalog.Impacts(), payload.Impact, existing.Impact)
	if err != nil {
		return nil, err
	}
	classe, err := resolveCode(catalog.Classes(), payload.Classe, existing.Classe)
	if err != nil {
		return nil, err
	}

	estimated, err := toMoney(payload.EstimatedValue, "estimated_value")
	if err != nil {
		return nil, err
	}
	final, err := toMoney(payload.FinalValue, "final_value")
	if err != nil {
		return nil, err
	}

	requestDate := existing.RequestDate
	if strings.TrimSpace(payload.RequestDate) != "" {
		requestDate, err = time.Parse(businessDateLayout, strings.TrimSpace(payload.RequestDate))
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid request_date, expected YYYY-MM-DD")
		}
	}
	deliveryDate := existing.DeliveryDate
	if strings.TrimSpace(payload.DeliveryDate) != "" {
		parsed, err := time.Parse(businessDateLayout, strings.TrimSpace(payload.DeliveryDate))
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid delivery_date, expected YYYY-MM-DD")
		}
		deliveryDate = &parsed
	}

	responsibleID := existing.ResponsibleID
	if payload.ResponsibleID != "" {
		responsibleID, err = s.resolveResponsible(ctx, payload.ResponsibleID)
		if err != nil {
			return nil, err
		}
	}

	updated := *existing
	updated.Title = payload.Title
	updated.Description = payload.Description
	updated.Status = status
	updated.Priority = priority
	updated.Impact = impact
	updated.Classe = classe
	updated.Categoria = existing.Categoria
	if strings.TrimSpace(payload.Categoria) != "" {
		updated.Categoria = catalog.ParseCategoria(payload.Categoria)
	}
	updated.Observations = optionalText(payload.Observations)
	updated.EstimatedValue = estimated
	updated.FinalValue = final
	updated.RequestDate = requestDate
	updated.DeliveryDate = deliveryDate
	updated.ResponsibleID = responsibleID

	statusChanged, err := s.repo.Update(ctx, &updated, actor.UserID, optionalText(payload.ChangeComments))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}
	if statusChanged {
		s.metrics.ObserveStatusChange(updated.Status)
		s.logger.Info("request status changed",
			zap.String("request_id", updated.ID),
			zap.String("old_status", existing.Status),
			zap.String("new_status", updated.Status),
			zap.String("actor", actor.UserID),
		)
	}
	return &updated, nil
}

// Delete removes a request, its ledger and its attachments. Administrators
// only; attachment files are removed from storage after the transaction
// commits.
func (s *RequestService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if !actor.IsAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators may delete requests")
	}

	attachments, err := s.attachments.ListByRequest(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list request attachments")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request")
	}

	for _, attachment := range attachments {
		if err := s.files.Delete(attachment.Filename); err != nil {
			s.logger.Warn("failed to remove attachment file",
				zap.String("attachment_id", attachment.ID),
				zap.Error(err),
			)
		}
	}
	s.logger.Info("request deleted", zap.String("request_id", id), zap.String("actor", actor.UserID))
	return nil
}

// Reassign sets or clears the responsible party. No ledger entry is
// written; responsibility is not part of the status audit trail.
func (s *RequestService) Reassign(ctx context.Context, id string, payload dto.ReassignPayload, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if !actor.IsAdmin && existing.CreatedByID != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the creator or an administrator may reassign this request")
	}

	var responsibleID *string
	if payload.ResponsibleID != nil && *payload.ResponsibleID != "" {
		responsibleID, err = s.resolveResponsible(ctx, *payload.ResponsibleID)
		if err != nil {
			return err
		}
	}

	if err := s.repo.UpdateResponsible(ctx, id, responsibleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reassign request")
	}
	return nil
}

// Get loads one request.
func (s *RequestService) Get(ctx context.Context, id string) (*models.AcquisitionRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	return request, nil
}

// History returns the request's ledger in chronological order.
func (s *RequestService) History(ctx context.Context, id string) ([]models.StatusChange, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.repo.History(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status history")
	}
	return entries, nil
}

// List returns requests matching the query plus pagination metadata.
func (s *RequestService) List(ctx context.Context, query dto.RequestQuery) ([]models.AcquisitionRequest, *models.Pagination, error) {
	filter := models.RequestFilter{
		Search:        strings.TrimSpace(query.Search),
		ResponsibleID: strings.TrimSpace(query.ResponsibleID),
		Page:          query.Page,
		PageSize:      query.PageSize,
	}
	if query.Status != "" {
		if code, ok := catalog.Statuses().Lookup(query.Status); ok {
			filter.Status = code
		}
	}
	if query.Classe != "" {
		if code, ok := catalog.Classes().Lookup(query.Classe); ok {
			filter.Classe = code
		}
	}
	if query.Categoria != "" {
		filter.Categoria = catalog.ParseCategoria(query.Categoria)
	}
	if raw := strings.TrimSpace(query.DateFrom); raw != "" {
		if parsed, err := time.Parse(businessDateLayout, raw); err == nil {
			filter.DateFrom = &parsed
		}
	}
	if raw := strings.TrimSpace(query.DateTo); raw != "" {
		if parsed, err := time.Parse(businessDateLayout, raw); err == nil {
			filter.DateTo = &parsed
		}
	}

	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	return requests, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

func (s *RequestService) resolveResponsible(ctx context.Context, id string) (*string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "responsible user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve responsible user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "responsible user is inactive")
	}
	return &user.ID, nil
}

func resolveCode(domain *catalog.Domain, raw, fallback string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	code, ok := domain.Lookup(raw)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, "invalid "+domain.Name())
	}
	return code, nil
}

func toMoney(value *decimal.Decimal, field string) (decimal.NullDecimal, error) {
	if value == nil {
		return decimal.NullDecimal{}, nil
	}
	if value.IsNegative() {
		return decimal.NullDecimal{}, appErrors.Clone(appErrors.ErrValidation, field+" must be non-negative")
	}
	return decimal.NullDecimal{Decimal: value.Round(2), Valid: true}, nil
}

func optionalText(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func parseBusinessDate(raw string, fallback time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return dateOnly(fallback), nil
	}
	return time.Parse(businessDateLayout, trimmed)
}

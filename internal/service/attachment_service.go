package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/senai-mf/aquisicoes-api/internal/dto"
	"github.com/senai-mf/aquisicoes-api/internal/models"
	"github.com/senai-mf/aquisicoes-api/pkg/config"
	appErrors "github.com/senai-mf/aquisicoes-api/pkg/errors"
	"github.com/senai-mf/aquisicoes-api/pkg/storage"
)

type attachmentStore interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	GetByID(ctx context.Context, id string) (*models.Attachment, error)
	ListByRequest(ctx context.Context, requestID string) ([]models.Attachment, error)
	Delete(ctx context.Context, id string) error
}

type fileStorage interface {
	SaveStream(filename string, r io.Reader) (int64, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

// AttachmentService manages files attached to requests. Uploads are stored
// under an opaque per-request path; downloads go through short-lived signed
// tokens so storage paths never leak into client URLs.
type AttachmentService struct {
	attachments attachmentStore
	requests    requestStore
	files       fileStorage
	signer      *storage.SignedURLSigner
	cfg         config.UploadsConfig
	logger      *zap.Logger
}

// NewAttachmentService constructs the service.
func NewAttachmentService(attachments attachmentStore, requests requestStore, files fileStorage, signer *storage.SignedURLSigner, cfg config.UploadsConfig, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttachmentService{
		attachments: attachments,
		requests:    requests,
		files:       files,
		signer:      signer,
		cfg:         cfg,
		logger:      logger,
	}
}

// Upload stores the file and records its metadata. Only the request creator
// or an administrator may attach files.
func (s *AttachmentService) Upload(ctx context.Context, requestID, originalFilename string, size int64, r io.Reader, actor *models.JWTClaims) (*models.Attachment, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if !actor.IsAdmin && request.CreatedByID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the creator or an administrator may attach files")
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(originalFilename)), ".")
	if !s.extensionAllowed(ext) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type %q is not allowed", ext))
	}
	if s.cfg.MaxFileSizeBytes > 0 && size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file exceeds the maximum allowed size")
	}

	storedName := path.Join(requestID, uuid.NewString()+"."+ext)
	written, err := s.files.SaveStream(storedName, r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	attachment := &models.Attachment{
		RequestID:        requestID,
		Filename:         storedName,
		OriginalFilename: originalFilename,
		FileSize:         written,
		UploadedByID:     actor.UserID,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		_ = s.files.Delete(storedName)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attachment")
	}
	s.logger.Info("attachment uploaded",
		zap.String("attachment_id", attachment.ID),
		zap.String("request_id", requestID),
		zap.Int64("size", written),
	)
	return attachment, nil
}

// List returns the attachments of a request.
func (s *AttachmentService) List(ctx context.Context, requestID string) ([]models.Attachment, error) {
	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	attachments, err := s.attachments.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attachments")
	}
	return attachments, nil
}

// Delete removes an attachment. The uploader, the request creator and
// administrators may delete.
func (s *AttachmentService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	attachment, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	request, err := s.requests.GetByID(ctx, attachment.RequestID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	allowed := actor.IsAdmin || attachment.UploadedByID == actor.UserID ||
		(request != nil && request.CreatedByID == actor.UserID)
	if !allowed {
		return appErrors.Clone(appErrors.ErrForbidden, "not allowed to delete this attachment")
	}

	if err := s.attachments.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attachment")
	}
	if err := s.files.Delete(attachment.Filename); err != nil {
		s.logger.Warn("failed to remove attachment file", zap.String("attachment_id", id), zap.Error(err))
	}
	return nil
}

// SignedDownload issues a time-limited token for fetching the file.
func (s *AttachmentService) SignedDownload(ctx context.Context, id string) (*dto.AttachmentDownload, error) {
	attachment, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	token, expiresAt, err := s.signer.Generate(attachment.ID, attachment.Filename)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}
	return &dto.AttachmentDownload{
		Token:     token,
		URL:       "/api/v1/attachments/download?token=" + token,
		ExpiresAt: expiresAt,
	}, nil
}

// ResolveDownload validates a signed token and opens the stored file. The
// caller is responsible for closing the returned handle.
func (s *AttachmentService) ResolveDownload(ctx context.Context, token string) (*models.Attachment, *os.File, error) {
	attachmentID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	attachment, err := s.attachments.GetByID(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.ErrNotFound
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}
	if attachment.Filename != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "download token does not match attachment")
	}
	file, err := s.files.Open(attachment.Filename)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open attachment file")
	}
	return attachment, file, nil
}

func (s *AttachmentService) extensionAllowed(ext string) bool {
	if ext == "" {
		return false
	}
	if len(s.cfg.AllowedExtensions) == 0 {
		return true
	}
	for _, allowed := range s.cfg.AllowedExtensions {
		if strings.EqualFold(allowed, ext) {
			return true
		}
	}
	return false
}

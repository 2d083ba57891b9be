package handler

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/senai-mf/aquisicoes-api/internal/dto"
	"github.com/senai-mf/aquisicoes-api/internal/models"
	appErrors "github.com/senai-mf/aquisicoes-api/pkg/errors"
	"github.com/senai-mf/aquisicoes-api/pkg/response"
)

type attachmentService interface {
	Upload(ctx context.Context, requestID, originalFilename string, size int64, r io.Reader, actor *models.JWTClaims) (*models.Attachment, error)
	List(ctx context.Context, requestID string) ([]models.Attachment, error)
	Delete(ctx context.Context, id string, actor *models.JWTClaims) error
	SignedDownload(ctx context.Context, id string) (*dto.AttachmentDownload, error)
	ResolveDownload(ctx context.Context, token string) (*models.Attachment, *os.File, error)
}

// AttachmentHandler exposes file attachment endpoints.
type AttachmentHandler struct {
	service attachmentService
}

// NewAttachmentHandler builds a new handler.
func NewAttachmentHandler(service attachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

// Upload godoc
// @Summary Attach a file to a request
// @Tags Attachments
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Request id"
// @Param file formData file true "File"
// @Success 201 {object} response.Envelope
// @Router /requests/{id}/attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing file"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file"))
		return
	}
	defer file.Close() //nolint:errcheck

	attachment, err := h.service.Upload(c.Request.Context(), c.Param("id"), fileHeader.Filename, fileHeader.Size, file, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, attachment)
}

// List godoc
// @Summary List the attachments of a request
// @Tags Attachments
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/attachments [get]
func (h *AttachmentHandler) List(c *gin.Context) {
	attachments, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attachments, nil)
}

// Delete godoc
// @Summary Delete an attachment
// @Tags Attachments
// @Param id path string true "Attachment id"
// @Success 204
// @Router /attachments/{id} [delete]
func (h *AttachmentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Sign godoc
// @Summary Issue a time-limited download token for an attachment
// @Tags Attachments
// @Produce json
// @Param id path string true "Attachment id"
// @Success 200 {object} response.Envelope
// @Router /attachments/{id}/sign [get]
func (h *AttachmentHandler) Sign(c *gin.Context) {
	download, err := h.service.SignedDownload(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, download, nil)
}

// Download godoc
// @Summary Download an attachment using a signed token
// @Tags Attachments
// @Param token query string true "Signed download token"
// @Success 200
// @Router /attachments/download [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing download token"))
		return
	}
	attachment, file, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", `attachment; filename="`+attachment.OriginalFilename+`"`)
	c.DataFromReader(http.StatusOK, attachment.FileSize, "application/octet-stream", file, nil)
}

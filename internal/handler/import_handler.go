package handler

import (
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/senai-mf/aquisicoes-api/internal/dto"
	appErrors "github.com/senai-mf/aquisicoes-api/pkg/errors"
	"github.com/senai-mf/aquisicoes-api/pkg/response"
	"github.com/senai-mf/aquisicoes-api/pkg/spreadsheet"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type importService interface {
	Run(ctx context.Context, rows []dto.ImportRow, actorID string) (*dto.ImportReport, error)
}

type templateService interface {
	ImportTemplate() ([]byte, string, error)
}

type rowMapper func(cells [][]string) []dto.ImportRow

// ImportHandler exposes the bulk import endpoints.
type ImportHandler struct {
	service   importService
	templates templateService
	dashboard summaryInvalidator
	mapRows   rowMapper
}

// NewImportHandler builds a new handler.
func NewImportHandler(service importService, templates templateService, dashboard summaryInvalidator, mapRows rowMapper) *ImportHandler {
	return &ImportHandler{service: service, templates: templates, dashboard: dashboard, mapRows: mapRows}
}

// Run godoc
// @Summary Bulk import requests from a spreadsheet
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "XLSX or CSV file"
// @Success 200 {object} response.Envelope
// @Router /requests/import [post]
func (h *ImportHandler) Run(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing import file"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable import file"))
		return
	}
	defer file.Close() //nolint:errcheck

	var cells [][]string
	switch strings.ToLower(path.Ext(fileHeader.Filename)) {
	case ".xlsx":
		cells, err = spreadsheet.ReadXLSX(file)
	case ".csv":
		cells, err = spreadsheet.ReadCSV(file)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "import file must be .xlsx or .csv"))
		return
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read import file"))
		return
	}

	report, err := h.service.Run(c.Request.Context(), h.mapRows(cells), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if report.Created > 0 {
		h.dashboard.Invalidate(c.Request.Context())
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Template godoc
// @Summary Download the bulk import spreadsheet template
// @Tags Import
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200
// @Router /requests/import/template [get]
func (h *ImportHandler) Template(c *gin.Context) {
	payload, filename, err := h.templates.ImportTemplate()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, payload)
}

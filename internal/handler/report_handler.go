package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/senai-mf/aquisicoes-api/internal/dto"
	"github.com/senai-mf/aquisicoes-api/internal/models"
	appErrors "github.com/senai-mf/aquisicoes-api/pkg/errors"
	"github.com/senai-mf/aquisicoes-api/pkg/response"
)

type reportService interface {
	ExportCSV(ctx context.Context, query dto.RequestQuery) ([]byte, string, error)
	ExportXLSX(ctx context.Context, query dto.RequestQuery) ([]byte, string, error)
	ExportPDF(ctx context.Context, query dto.RequestQuery) ([]byte, string, error)
}

type dashboardService interface {
	Summary(ctx context.Context) (*models.RequestSummary, error)
}

// ReportHandler exposes the dashboard summary and file exports.
type ReportHandler struct {
	reports   reportService
	dashboard dashboardService
}

// NewReportHandler builds a new handler.
func NewReportHandler(reports reportService, dashboard dashboardService) *ReportHandler {
	return &ReportHandler{reports: reports, dashboard: dashboard}
}

// Summary godoc
// @Summary Aggregate request counts and value totals
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export filtered requests as csv, xlsx or pdf
// @Tags Reports
// @Param format query string true "csv, xlsx or pdf"
// @Success 200
// @Router /requests/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	var query dto.RequestQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}

	var (
		payload     []byte
		filename    string
		contentType string
		err         error
	)
	switch c.Query("format") {
	case "csv":
		payload, filename, err = h.reports.ExportCSV(c.Request.Context(), query)
		contentType = "text/csv"
	case "xlsx":
		payload, filename, err = h.reports.ExportXLSX(c.Request.Context(), query)
		contentType = xlsxContentType
	case "pdf":
		payload, filename, err = h.reports.ExportPDF(c.Request.Context(), query)
		contentType = "application/pdf"
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv, xlsx or pdf"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

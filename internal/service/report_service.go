package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/senai-mf/aquisicoes-api/internal/catalog"
	"github.com/senai-mf/aquisicoes-api/internal/dto"
	"github.com/senai-mf/aquisicoes-api/internal/models"
	appErrors "github.com/senai-mf/aquisicoes-api/pkg/errors"
	"github.com/senai-mf/aquisicoes-api/pkg/export"
	"github.com/senai-mf/aquisicoes-api/pkg/spreadsheet"
)

const exportPageSize = 100

var exportHeaders = []string{
	"Título", "Descrição", "Status", "Prioridade", "Impacto", "Classe",
	"Categoria", "Data do Pedido", "Valor Estimado", "Valor Final",
	"Responsável", "Criado por",
}

// ReportService projects filtered request listings into downloadable files
// and builds the bulk import template.
type ReportService struct {
	requests *RequestService
	users    userDirectory
	csv      *export.CSVExporter
	xlsx     *export.XLSXExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(requests *RequestService, users userDirectory, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		requests: requests,
		users:    users,
		csv:      export.NewCSVExporter(),
		xlsx:     export.NewXLSXExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// ExportCSV renders the filtered requests as CSV.
func (s *ReportService) ExportCSV(ctx context.Context, query dto.RequestQuery) ([]byte, string, error) {
	dataset, err := s.dataset(ctx, query)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return payload, exportFilename("csv"), nil
}

// ExportXLSX renders the filtered requests as an Excel workbook.
func (s *ReportService) ExportXLSX(ctx context.Context, query dto.RequestQuery) ([]byte, string, error) {
	dataset, err := s.dataset(ctx, query)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.xlsx.Render(dataset, "Pedidos")
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render xlsx export")
	}
	return payload, exportFilename("xlsx"), nil
}

// ExportPDF renders the filtered requests as a tabular PDF.
func (s *ReportService) ExportPDF(ctx context.Context, query dto.RequestQuery) ([]byte, string, error) {
	dataset, err := s.dataset(ctx, query)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.pdf.Render(dataset, "Pedidos de Aquisição")
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	return payload, exportFilename("pdf"), nil
}

// ImportTemplate builds the spreadsheet users fill in for bulk import.
func (s *ReportService) ImportTemplate() ([]byte, string, error) {
	payload, err := spreadsheet.BuildTemplate("Pedidos", ImportColumnHeaders, ImportTemplateExample)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build import template")
	}
	return payload, "modelo_importacao_pedidos.xlsx", nil
}

// dataset pages through every matching request and resolves user IDs to
// display names.
func (s *ReportService) dataset(ctx context.Context, query dto.RequestQuery) (export.Dataset, error) {
	names, err := s.userNames(ctx)
	if err != nil {
		return export.Dataset{}, err
	}

	rows := make([]map[string]string, 0, exportPageSize)
	query.PageSize = exportPageSize
	for page := 1; ; page++ {
		query.Page = page
		requests, pagination, err := s.requests.List(ctx, query)
		if err != nil {
			return export.Dataset{}, err
		}
		for _, request := range requests {
			rows = append(rows, exportRow(request, names))
		}
		if page*pagination.PageSize >= pagination.TotalCount {
			break
		}
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}, nil
}

func (s *ReportService) userNames(ctx context.Context) (map[string]string, error) {
	users, err := s.users.FindActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load users for export")
	}
	names := make(map[string]string, len(users))
	for _, user := range users {
		names[user.ID] = user.FullName
	}
	return names, nil
}

func exportRow(request models.AcquisitionRequest, names map[string]string) map[string]string {
	responsible := ""
	if request.ResponsibleID != nil {
		responsible = names[*request.ResponsibleID]
	}
	estimated := ""
	if request.EstimatedValue.Valid {
		estimated = request.EstimatedValue.Decimal.StringFixed(2)
	}
	final := ""
	if request.FinalValue.Valid {
		final = request.FinalValue.Decimal.StringFixed(2)
	}
	return map[string]string{
		"Título":         request.Title,
		"Descrição":      request.Description,
		"Status":         catalog.Statuses().Label(request.Status),
		"Prioridade":     catalog.Priorities().Label(request.Priority),
		"Impacto":        catalog.Impacts().Label(request.Impact),
		"Classe":         catalog.Classes().Label(request.Classe),
		"Categoria":      catalog.CategoriaLabel(request.Categoria),
		"Data do Pedido": request.RequestDate.Format("02/01/2006"),
		"Valor Estimado": estimated,
		"Valor Final":    final,
		"Responsável":    responsible,
		"Criado por":     names[request.CreatedByID],
	}
}

func exportFilename(ext string) string {
	return fmt.Sprintf("pedidos_%s.%s", time.Now().UTC().Format("20060102_150405"), ext)
}

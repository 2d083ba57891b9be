package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/senai-mf/aquisicoes-api/internal/dto"
	"github.com/senai-mf/aquisicoes-api/internal/models"
	appErrors "github.com/senai-mf/aquisicoes-api/pkg/errors"
)

// ImportService runs the bulk import pipeline: normalize the raw rows, then
// commit each accepted candidate independently. One bad row never aborts the
// batch; the report always reaches the caller.
type ImportService struct {
	normalizer *ImportNormalizer
	repo       requestStore
	users      userDirectory
	logger     *zap.Logger
	metrics    *MetricsService
}

// NewImportService constructs the service.
func NewImportService(normalizer *ImportNormalizer, repo requestStore, users userDirectory, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if normalizer == nil {
		normalizer = NewImportNormalizer(0)
	}
	return &ImportService{normalizer: normalizer, repo: repo, users: users, logger: logger}
}

// WithMetrics attaches the metrics sink; nil disables instrumentation.
func (s *ImportService) WithMetrics(metrics *MetricsService) *ImportService {
	s.metrics = metrics
	return s
}

// Run imports the given rows on behalf of actorID. Every created request
// gets its initial ledger entry exactly like a manually created one.
func (s *ImportService) Run(ctx context.Context, rows []dto.ImportRow, actorID string) (*dto.ImportReport, error) {
	users, err := s.users.FindActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load users for import")
	}

	candidates, issues := s.normalizer.Normalize(rows, users, time.Now().UTC())

	report := &dto.ImportReport{Issues: issues}
	report.Failed = countFailedRows(issues)

	comments := initialLedgerComment
	for _, candidate := range candidates {
		request := &models.AcquisitionRequest{
			Title:          candidate.Title,
			Description:    candidate.Description,
			Status:         candidate.Status,
			Priority:       candidate.Priority,
			Impact:         candidate.Impact,
			Classe:         candidate.Classe,
			Categoria:      candidate.Categoria,
			Observations:   candidate.Observations,
			EstimatedValue: toNullDecimal(candidate.EstimatedValue),
			FinalValue:     toNullDecimal(candidate.FinalValue),
			RequestDate:    candidate.RequestDate,
			CreatedByID:    actorID,
			ResponsibleID:  candidate.ResponsibleID,
		}
		if err := s.repo.Create(ctx, request, &comments); err != nil {
			s.logger.Warn("import row failed to persist",
				zap.Int("row", candidate.Row),
				zap.Error(err),
			)
			report.Failed++
			report.Issues = append(report.Issues, dto.ImportIssue{
				Row:      candidate.Row,
				Severity: dto.ImportSeverityError,
				Message:  fmt.Sprintf("failed to save row: %v", err),
			})
			continue
		}
		report.Created++
	}

	s.metrics.ObserveImportRows(report.Created, report.Failed)
	s.logger.Info("bulk import finished",
		zap.String("actor", actorID),
		zap.Int("created", report.Created),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// countFailedRows counts distinct rows dropped during normalization.
func countFailedRows(issues []dto.ImportIssue) int {
	seen := make(map[int]struct{})
	for _, issue := range issues {
		if issue.Severity != dto.ImportSeverityError {
			continue
		}
		seen[issue.Row] = struct{}{}
	}
	return len(seen)
}

func toNullDecimal(value *decimal.Decimal) decimal.NullDecimal {
	if value == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *value, Valid: true}
}

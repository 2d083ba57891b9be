package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/senai-mf/aquisicoes-api/internal/models"
	appErrors "github.com/senai-mf/aquisicoes-api/pkg/errors"
)

const dashboardCacheKey = "aquisicoes:dashboard:summary"

type summaryStore interface {
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
	Totals(ctx context.Context) (estimated, final string, err error)
}

// DashboardService builds the status summary shown on the landing page.
// Results are cached in Redis for a short window; the cache is best effort
// and a broken cache never fails the request.
type DashboardService struct {
	repo   summaryStore
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewDashboardService constructs the service. cache may be nil, disabling
// caching entirely.
func NewDashboardService(repo summaryStore, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Summary returns aggregate request counts and value totals.
func (s *DashboardService) Summary(ctx context.Context) (*models.RequestSummary, error) {
	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate requests")
	}
	estimatedRaw, finalRaw, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum request values")
	}

	estimated, err := decimal.NewFromString(estimatedRaw)
	if err != nil {
		estimated = decimal.Zero
	}
	final, err := decimal.NewFromString(finalRaw)
	if err != nil {
		final = decimal.Zero
	}

	total := 0
	for _, count := range counts {
		total += count.Count
	}

	summary := &models.RequestSummary{
		TotalRequests:  total,
		StatusCounts:   counts,
		TotalEstimated: estimated,
		TotalFinal:     final,
		GeneratedAt:    time.Now().UTC(),
	}
	s.toCache(ctx, summary)
	return summary, nil
}

// Invalidate drops the cached summary after request mutations.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, dashboardCacheKey).Err(); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func (s *DashboardService) fromCache(ctx context.Context) *models.RequestSummary {
	if s.cache == nil {
		return nil
	}
	payload, err := s.cache.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var summary models.RequestSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		s.logger.Warn("dropping unreadable dashboard cache entry", zap.Error(err))
		return nil
	}
	return &summary
}

func (s *DashboardService) toCache(ctx context.Context, summary *models.RequestSummary) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, dashboardCacheKey, payload, s.ttl).Err(); err != nil {
		s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
	}
}

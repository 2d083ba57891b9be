package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/senai-mf/aquisicoes-api/internal/catalog"
	"github.com/senai-mf/aquisicoes-api/internal/models"
)

type stubSummaryStore struct {
	counts    []models.StatusCount
	estimated string
	final     string
	calls     int
}

func (s *stubSummaryStore) CountByStatus(context.Context) ([]models.StatusCount, error) {
	s.calls++
	return s.counts, nil
}

func (s *stubSummaryStore) Totals(context.Context) (string, string, error) {
	return s.estimated, s.final, nil
}

func TestDashboardServiceSummary(t *testing.T) {
	store := &stubSummaryStore{
		counts: []models.StatusCount{
			{Status: catalog.StatusOrcamento, Count: 3},
			{Status: catalog.StatusFinalizado, Count: 2},
		},
		estimated: "1250.50",
		final:     "980.00",
	}
	svc := NewDashboardService(store, nil, 0, nil)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, summary.TotalRequests)
	require.Equal(t, "1250.5", summary.TotalEstimated.String())
	require.Equal(t, "980", summary.TotalFinal.String())
	require.Len(t, summary.StatusCounts, 2)
	require.False(t, summary.GeneratedAt.IsZero())
}

func TestDashboardServiceSummaryToleratesBadTotals(t *testing.T) {
	store := &stubSummaryStore{estimated: "not-a-number", final: ""}
	svc := NewDashboardService(store, nil, 0, nil)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.True(t, summary.TotalEstimated.IsZero())
	require.True(t, summary.TotalFinal.IsZero())
}

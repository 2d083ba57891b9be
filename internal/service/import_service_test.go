package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/senai-mf/aquisicoes-api/internal/catalog"
	"github.com/senai-mf/aquisicoes-api/internal/dto"
	"github.com/senai-mf/aquisicoes-api/internal/models"
)

func TestImportServiceIsolatesRowFailures(t *testing.T) {
	store := newStubRequestStore()
	users := &stubUserDirectory{users: map[string]*models.User{
		"u-ana": {ID: "u-ana", Username: "ana.lima", FullName: "Ana Lima", Active: true},
	}}
	svc := NewImportService(NewImportNormalizer(0), store, users, nil)

	rows := []dto.ImportRow{
		{
			RowNumber:       2,
			Title:           "Compra de projetores",
			Description:     "Projetores para as salas do bloco B",
			Status:          "Fase de Compra",
			EstimatedValue:  "R$ 1.250,50",
			ResponsibleName: "Ana Lima",
		},
		{
			RowNumber:   3,
			Title:       "abc",
			Description: "Descrição longa o suficiente para passar",
		},
		{
			RowNumber:   4,
			Title:       "Manutenção do ar condicionado",
			Description: "Revisão dos aparelhos da biblioteca",
			Classe:      "Manutenção",
			RequestDate: "20/08/2025",
		},
	}

	report, err := svc.Run(context.Background(), rows, "admin-1")
	require.NoError(t, err)
	require.Equal(t, 2, report.Created)
	require.Equal(t, 1, report.Failed)
	require.Len(t, store.requests, 2)

	var errorRows []int
	for _, issue := range report.Issues {
		if issue.Severity == dto.ImportSeverityError {
			errorRows = append(errorRows, issue.Row)
		}
	}
	require.Equal(t, []int{3}, errorRows)

	for _, request := range store.requests {
		require.Equal(t, "admin-1", request.CreatedByID)
		entries := store.ledger[request.ID]
		require.Len(t, entries, 1)
		require.Nil(t, entries[0].OldStatus)
		require.Equal(t, "Pedido criado", *entries[0].Comments)
		switch request.Title {
		case "Compra de projetores":
			require.Equal(t, catalog.StatusFaseCompra, request.Status)
			require.True(t, request.EstimatedValue.Valid)
			require.Equal(t, "1250.5", request.EstimatedValue.Decimal.String())
			require.NotNil(t, request.ResponsibleID)
			require.Equal(t, "u-ana", *request.ResponsibleID)
		case "Manutenção do ar condicionado":
			require.Equal(t, catalog.ClasseManutencao, request.Classe)
			require.Equal(t, "2025-08-20", request.RequestDate.Format("2006-01-02"))
		default:
			t.Fatalf("unexpected request %q", request.Title)
		}
	}
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/senai-mf/aquisicoes-api/internal/catalog"
	"github.com/senai-mf/aquisicoes-api/internal/dto"
	"github.com/senai-mf/aquisicoes-api/internal/models"
)

var importToday = time.Date(2025, 8, 25, 13, 45, 0, 0, time.UTC)

func importUsers() []models.User {
	return []models.User{
		{ID: "u-ana", Username: "ana.lima", FullName: "Ana Lima", Active: true},
		{ID: "u-jose", Username: "jose.santos", FullName: "José dos Santos", Active: true},
		{ID: "u-maria", Username: "maria.souza", FullName: "Maria Souza", Active: true},
	}
}

func goodRow(rowNumber int) dto.ImportRow {
	return dto.ImportRow{
		RowNumber:   rowNumber,
		Title:       "Compra de projetores",
		Description: "Projetores para as salas de aula do bloco B",
	}
}

func TestParseMoney(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"1.250,50", "1250.5"},
		{"R$ 150,00", "150"},
		{"R$ 2.300", "2300"},
		{"1250.50", "1250.5"},
		{"1,250.50", "1250.5"},
		{"99", "99"},
		{"0,75", "0.75"},
	}
	for _, tc := range cases {
		value, err := ParseMoney(tc.raw)
		require.NoError(t, err, tc.raw)
		require.Equal(t, tc.want, value.String(), tc.raw)
	}

	_, err := ParseMoney("quinhentos reais")
	require.Error(t, err)
}

func TestNormalizeAppliesDefaultsOnEmptyCells(t *testing.T) {
	n := NewImportNormalizer(0)

	candidates, issues := n.Normalize([]dto.ImportRow{goodRow(2)}, importUsers(), importToday)
	require.Len(t, candidates, 1)
	require.Empty(t, issues)

	c := candidates[0]
	require.Equal(t, catalog.DefaultStatus, c.Status)
	require.Equal(t, catalog.DefaultPriority, c.Priority)
	require.Equal(t, catalog.DefaultImpact, c.Impact)
	require.Equal(t, catalog.DefaultClasse, c.Classe)
	require.Equal(t, catalog.DefaultCategoria, c.Categoria)
	require.Equal(t, time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC), c.RequestDate)
	require.Nil(t, c.EstimatedValue)
	require.Nil(t, c.ResponsibleID)
}

func TestNormalizeResolvesAccentedEnumCells(t *testing.T) {
	n := NewImportNormalizer(0)

	row := goodRow(2)
	row.Status = "FASE DE COMPRA"
	row.Classe = "manutenção"
	row.Categoria = "Serviço"
	row.Priority = "alta"
	row.Impact = "Médio"

	candidates, issues := n.Normalize([]dto.ImportRow{row}, importUsers(), importToday)
	require.Len(t, candidates, 1)
	require.Empty(t, issues)
	require.Equal(t, catalog.StatusFaseCompra, candidates[0].Status)
	require.Equal(t, catalog.ClasseManutencao, candidates[0].Classe)
	require.Equal(t, catalog.CategoriaServico, candidates[0].Categoria)
	require.Equal(t, catalog.PriorityAlta, candidates[0].Priority)
	require.Equal(t, catalog.ImpactMedio, candidates[0].Impact)
}

func TestNormalizeCombinedCategoriaCell(t *testing.T) {
	n := NewImportNormalizer(0)

	row := goodRow(2)
	row.Categoria = "Material, Serviço"

	candidates, _ := n.Normalize([]dto.ImportRow{row}, importUsers(), importToday)
	require.Len(t, candidates, 1)
	require.Equal(t, catalog.CategoriaMaterialServico, candidates[0].Categoria)
}

func TestNormalizeUnknownEnumFallsBackWithWarning(t *testing.T) {
	n := NewImportNormalizer(0)

	row := goodRow(2)
	row.Priority = "urgentíssima"
	row.Classe = "administrativo"

	candidates, issues := n.Normalize([]dto.ImportRow{row}, importUsers(), importToday)
	require.Len(t, candidates, 1)
	require.Equal(t, catalog.DefaultPriority, candidates[0].Priority)
	require.Equal(t, catalog.DefaultClasse, candidates[0].Classe)
	require.Len(t, issues, 2)
	for _, issue := range issues {
		require.Equal(t, dto.ImportSeverityWarning, issue.Severity)
		require.Equal(t, 2, issue.Row)
	}
}

func TestNormalizeUnknownStatusRejectsRow(t *testing.T) {
	n := NewImportNormalizer(0)

	row := goodRow(2)
	row.Status = "status inexistente"

	candidates, issues := n.Normalize([]dto.ImportRow{row}, importUsers(), importToday)
	require.Empty(t, candidates)
	require.Len(t, issues, 1)
	require.Equal(t, dto.ImportSeverityError, issues[0].Severity)
	require.Equal(t, "status", issues[0].Field)
	require.Equal(t, 2, issues[0].Row)

	empty := goodRow(3)
	candidates, issues = n.Normalize([]dto.ImportRow{empty}, importUsers(), importToday)
	require.Len(t, candidates, 1)
	require.Empty(t, issues)
	require.Equal(t, catalog.DefaultStatus, candidates[0].Status)
}

func TestNormalizeDateFormats(t *testing.T) {
	n := NewImportNormalizer(0)
	want := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{"2025-08-20", "20/08/2025", "20/08/25"} {
		row := goodRow(2)
		row.RequestDate = raw
		candidates, issues := n.Normalize([]dto.ImportRow{row}, importUsers(), importToday)
		require.Len(t, candidates, 1, raw)
		require.Empty(t, issues, raw)
		require.Equal(t, want, candidates[0].RequestDate, raw)
	}

	row := goodRow(2)
	row.RequestDate = "agosto de 2025"
	candidates, issues := n.Normalize([]dto.ImportRow{row}, importUsers(), importToday)
	require.Len(t, candidates, 1)
	require.Empty(t, issues)
	require.Equal(t, time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC), candidates[0].RequestDate)
}

func TestNormalizeMoneyCells(t *testing.T) {
	n := NewImportNormalizer(0)

	row := goodRow(2)
	row.EstimatedValue = "R$ 1.250,50"
	row.FinalValue = "abc"

	candidates, issues := n.Normalize([]dto.ImportRow{row}, importUsers(), importToday)
	require.Len(t, candidates, 1)
	require.NotNil(t, candidates[0].EstimatedValue)
	require.Equal(t, "1250.5", candidates[0].EstimatedValue.String())
	require.Nil(t, candidates[0].FinalValue)
	require.Len(t, issues, 1)
	require.Equal(t, "final_value", issues[0].Field)
	require.Equal(t, dto.ImportSeverityWarning, issues[0].Severity)
}

func TestNormalizeRejectsShortTitleAndDescription(t *testing.T) {
	n := NewImportNormalizer(0)

	row := dto.ImportRow{RowNumber: 3, Title: "abc", Description: "curta"}
	candidates, issues := n.Normalize([]dto.ImportRow{row}, importUsers(), importToday)
	require.Empty(t, candidates)
	require.Len(t, issues, 2)
	for _, issue := range issues {
		require.Equal(t, dto.ImportSeverityError, issue.Severity)
		require.Equal(t, 3, issue.Row)
	}
}

func TestNormalizeSkipsBlankRows(t *testing.T) {
	n := NewImportNormalizer(0)

	rows := []dto.ImportRow{goodRow(2), {RowNumber: 3}, goodRow(4)}
	candidates, issues := n.Normalize(rows, importUsers(), importToday)
	require.Len(t, candidates, 2)
	require.Empty(t, issues)
}

func TestNormalizeEnforcesBatchCap(t *testing.T) {
	n := NewImportNormalizer(3)

	rows := make([]dto.ImportRow, 0, 5)
	for i := 0; i < 5; i++ {
		rows = append(rows, goodRow(i+2))
	}
	candidates, issues := n.Normalize(rows, importUsers(), importToday)
	require.Len(t, candidates, 3)
	require.Len(t, issues, 1)
	require.Equal(t, dto.ImportSeverityWarning, issues[0].Severity)
	require.Contains(t, issues[0].Message, "3 rows")
}

func TestNormalizeBatchCapCountsAcceptedRowsOnly(t *testing.T) {
	n := NewImportNormalizer(2)

	bad := dto.ImportRow{RowNumber: 2, Title: "abc", Description: "curta"}
	rows := []dto.ImportRow{bad, goodRow(3), goodRow(4)}

	candidates, issues := n.Normalize(rows, importUsers(), importToday)
	require.Len(t, candidates, 2)
	require.Equal(t, 3, candidates[0].Row)
	require.Equal(t, 4, candidates[1].Row)
	for _, issue := range issues {
		require.Equal(t, dto.ImportSeverityError, issue.Severity)
		require.Equal(t, 2, issue.Row)
	}
}

func TestResolveUserByName(t *testing.T) {
	users := importUsers()

	id, ok := ResolveUserByName("ana lima", users)
	require.True(t, ok)
	require.Equal(t, "u-ana", id)

	id, ok = ResolveUserByName("JOSÉ DOS SANTOS", users)
	require.True(t, ok)
	require.Equal(t, "u-jose", id)

	id, ok = ResolveUserByName("jose.santos", users)
	require.True(t, ok)
	require.Equal(t, "u-jose", id)

	id, ok = ResolveUserByName("maria", users)
	require.True(t, ok)
	require.Equal(t, "u-maria", id)

	_, ok = ResolveUserByName("Carlos Pereira", users)
	require.False(t, ok)
}

func TestNormalizeWarnsOnUnmatchedResponsible(t *testing.T) {
	n := NewImportNormalizer(0)

	row := goodRow(2)
	row.ResponsibleName = "Fulano de Tal"

	candidates, issues := n.Normalize([]dto.ImportRow{row}, importUsers(), importToday)
	require.Len(t, candidates, 1)
	require.Nil(t, candidates[0].ResponsibleID)
	require.Len(t, issues, 1)
	require.Equal(t, "responsible", issues[0].Field)
	require.Equal(t, dto.ImportSeverityWarning, issues[0].Severity)
}

package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusLookupByCodeAndLabel(t *testing.T) {
	cases := map[string]string{
		"orcamento":       StatusOrcamento,
		"Orçamento":       StatusOrcamento,
		"  ORCAMENTO  ":   StatusOrcamento,
		"fase de compra":  StatusFaseCompra,
		"FASE_COMPRA":     StatusFaseCompra,
		"A Caminho":       StatusACaminho,
		"a_caminho":       StatusACaminho,
		"Finalizado":      StatusFinalizado,
		"finalizado":      StatusFinalizado,
	}
	for input, want := range cases {
		code, ok := Statuses().Lookup(input)
		require.True(t, ok, "input %q", input)
		require.Equal(t, want, code, "input %q", input)
	}
}

func TestLookupMissReturnsNotFound(t *testing.T) {
	_, ok := Statuses().Lookup("entregue")
	require.False(t, ok)

	_, ok = Statuses().Lookup("")
	require.False(t, ok)

	_, ok = Classes().Lookup("administrativo")
	require.False(t, ok)
}

func TestClasseAndPriorityAccentFolding(t *testing.T) {
	code, ok := Classes().Lookup("Manutenção")
	require.True(t, ok)
	require.Equal(t, ClasseManutencao, code)

	code, ok = Priorities().Lookup("média")
	require.True(t, ok)
	require.Equal(t, PriorityMedia, code)

	code, ok = Impacts().Lookup("MÉDIO")
	require.True(t, ok)
	require.Equal(t, ImpactMedio, code)
}

func TestCanTransitionAllowsAnyValidPair(t *testing.T) {
	for _, from := range Statuses().Codes() {
		for _, to := range Statuses().Codes() {
			require.True(t, CanTransition(from, to))
		}
	}
	require.False(t, CanTransition(StatusFinalizado, "arquivado"))
	require.False(t, CanTransition("", StatusOrcamento))
}

func TestParseCategoria(t *testing.T) {
	cases := map[string]string{
		"":                    DefaultCategoria,
		"Serviço":             CategoriaServico,
		"servico":             CategoriaServico,
		"Material":            CategoriaMaterial,
		"Material, Serviço":   CategoriaMaterialServico,
		"servico, material":   CategoriaMaterialServico,
		"Material e Serviço":  CategoriaMaterialServico,
		"outra coisa":         DefaultCategoria,
		"materiais":           CategoriaMaterial,
	}
	for input, want := range cases {
		require.Equal(t, want, ParseCategoria(input), "input %q", input)
	}
}

func TestCategoriaLabel(t *testing.T) {
	require.Equal(t, "Material", CategoriaLabel("material"))
	require.Equal(t, "Material e Serviço", CategoriaLabel("material,servico"))
	require.Equal(t, "Não definida", CategoriaLabel(""))
}

package catalog

import "strings"

// categoriaSynonyms maps folded spellings seen in spreadsheets to canonical
// single-value categoria codes.
var categoriaSynonyms = map[string]string{
	"material":  CategoriaMaterial,
	"materiais": CategoriaMaterial,
	"servico":   CategoriaServico,
	"servicos":  CategoriaServico,
	"service":   CategoriaServico,
}

// combined spellings of the two-value categoria.
var categoriaCombined = map[string]struct{}{
	"material e servico":  {},
	"material e servicos": {},
	"material,servico":    {},
	"servico e material":  {},
}

// ParseCategoria normalises a raw categoria cell into a canonical code.
// Pieces are split on comma, folded and mapped through the synonym table;
// duplicates collapse and the combined code keeps material before servico.
// Empty or fully invalid input falls back to the default categoria.
func ParseCategoria(raw string) string {
	folded := Fold(raw)
	if folded == "" {
		return DefaultCategoria
	}
	if _, ok := categoriaCombined[folded]; ok {
		return CategoriaMaterialServico
	}

	hasMaterial := false
	hasServico := false
	for _, piece := range strings.Split(folded, ",") {
		piece = strings.TrimSpace(piece)
		switch categoriaSynonyms[piece] {
		case CategoriaMaterial:
			hasMaterial = true
		case CategoriaServico:
			hasServico = true
		}
	}

	switch {
	case hasMaterial && hasServico:
		return CategoriaMaterialServico
	case hasServico:
		return CategoriaServico
	case hasMaterial:
		return CategoriaMaterial
	default:
		return DefaultCategoria
	}
}

// CategoriaLabel renders the display label for a stored categoria code,
// joining multi-value codes with "e".
func CategoriaLabel(code string) string {
	if code == "" {
		return "Não definida"
	}
	if code == CategoriaMaterialServico {
		return categorias.Label(CategoriaMaterialServico)
	}
	parts := strings.Split(code, ",")
	labels := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		labels = append(labels, categorias.Label(part))
	}
	if len(labels) == 0 {
		return "Não definida"
	}
	return strings.Join(labels, " e ")
}

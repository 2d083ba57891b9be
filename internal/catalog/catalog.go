package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Value pairs a stable canonical code with its display label.
type Value struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Canonical status codes for the acquisition workflow.
const (
	StatusOrcamento  = "orcamento"
	StatusFaseCompra = "fase_compra"
	StatusACaminho   = "a_caminho"
	StatusFinalizado = "finalizado"
)

// Canonical classe codes.
const (
	ClasseEnsino     = "ensino"
	ClasseManutencao = "manutencao"
)

// Canonical categoria codes. CategoriaMaterialServico is the combined
// multi-value code stored as an ordered comma-joined list.
const (
	CategoriaMaterial        = "material"
	CategoriaServico         = "servico"
	CategoriaMaterialServico = "material,servico"
)

// Canonical priority codes.
const (
	PriorityBaixa = "baixa"
	PriorityMedia = "media"
	PriorityAlta  = "alta"
)

// Canonical impact codes.
const (
	ImpactBaixo = "baixo"
	ImpactMedio = "medio"
	ImpactAlto  = "alto"
)

// Defaults applied when a field is omitted.
const (
	DefaultStatus    = StatusOrcamento
	DefaultClasse    = ClasseEnsino
	DefaultCategoria = CategoriaMaterial
	DefaultPriority  = PriorityMedia
	DefaultImpact    = ImpactMedio
)

// Domain holds the ordered values of one enumeration and a folded lookup
// index keyed by both code and label.
type Domain struct {
	name   string
	values []Value
	index  map[string]string
}

func newDomain(name string, values []Value) *Domain {
	d := &Domain{name: name, values: values, index: make(map[string]string, len(values)*2)}
	for _, v := range values {
		d.index[Fold(v.Code)] = v.Code
		d.index[Fold(v.Label)] = v.Code
	}
	return d
}

// Name identifies the enumeration domain.
func (d *Domain) Name() string { return d.name }

// Values returns the ordered (code, label) pairs defining display order.
func (d *Domain) Values() []Value {
	out := make([]Value, len(d.values))
	copy(out, d.values)
	return out
}

// Codes returns the valid codes in display order.
func (d *Domain) Codes() []string {
	codes := make([]string, len(d.values))
	for i, v := range d.values {
		codes[i] = v.Code
	}
	return codes
}

// Lookup resolves a raw cell value (code or label, any casing or accents)
// to its canonical code. The second return reports whether a match exists.
func (d *Domain) Lookup(raw string) (string, bool) {
	folded := Fold(raw)
	if folded == "" {
		return "", false
	}
	code, ok := d.index[folded]
	return code, ok
}

// Label returns the display label for a canonical code, falling back to the
// code itself for unknown values.
func (d *Domain) Label(code string) string {
	for _, v := range d.values {
		if v.Code == code {
			return v.Label
		}
	}
	return code
}

// Contains reports whether code is a valid canonical code of this domain.
func (d *Domain) Contains(code string) bool {
	for _, v := range d.values {
		if v.Code == code {
			return true
		}
	}
	return false
}

var (
	statuses = newDomain("status", []Value{
		{Code: StatusOrcamento, Label: "Orçamento"},
		{Code: StatusFaseCompra, Label: "Fase de Compra"},
		{Code: StatusACaminho, Label: "A Caminho"},
		{Code: StatusFinalizado, Label: "Finalizado"},
	})

	classes = newDomain("classe", []Value{
		{Code: ClasseEnsino, Label: "Ensino"},
		{Code: ClasseManutencao, Label: "Manutenção"},
	})

	categorias = newDomain("categoria", []Value{
		{Code: CategoriaMaterial, Label: "Material"},
		{Code: CategoriaServico, Label: "Serviço"},
		{Code: CategoriaMaterialServico, Label: "Material e Serviço"},
	})

	priorities = newDomain("priority", []Value{
		{Code: PriorityBaixa, Label: "Baixa"},
		{Code: PriorityMedia, Label: "Média"},
		{Code: PriorityAlta, Label: "Alta"},
	})

	impacts = newDomain("impact", []Value{
		{Code: ImpactBaixo, Label: "Baixo"},
		{Code: ImpactMedio, Label: "Médio"},
		{Code: ImpactAlto, Label: "Alto"},
	})
)

// Statuses returns the status domain.
func Statuses() *Domain { return statuses }

// Classes returns the classe domain.
func Classes() *Domain { return classes }

// Categorias returns the categoria domain.
func Categorias() *Domain { return categorias }

// Priorities returns the priority domain.
func Priorities() *Domain { return priorities }

// Impacts returns the impact domain.
func Impacts() *Domain { return impacts }

// CanTransition reports whether a request may move between the two statuses.
// Any valid status may transition to any other valid status; historical
// ordering lives in the status change ledger, not in a transition graph.
func CanTransition(from, to string) bool {
	return statuses.Contains(from) && statuses.Contains(to)
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold normalises raw user input for lookups: trims whitespace, lowercases
// and strips combining accent marks ("Orçamento" and " ORCAMENTO " fold to
// the same key).
func Fold(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	folded, _, err := transform.String(foldTransformer, trimmed)
	if err != nil {
		folded = trimmed
	}
	return strings.ToLower(folded)
}

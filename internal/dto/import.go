package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportRow is one raw data row from the bulk import spreadsheet with named
// optional slots, in the fixed column order of the template. RowNumber is
// the 1-based position in the file including the header row.
type ImportRow struct {
	RowNumber       int
	Title           string
	Description     string
	Status          string
	Priority        string
	Impact          string
	Classe          string
	Categoria       string
	RequestDate     string
	EstimatedValue  string
	FinalValue      string
	ResponsibleName string
	Observations    string
}

// Blank reports whether every cell of the row is empty.
func (r ImportRow) Blank() bool {
	return r.Title == "" && r.Description == "" && r.Status == "" &&
		r.Priority == "" && r.Impact == "" && r.Classe == "" &&
		r.Categoria == "" && r.RequestDate == "" && r.EstimatedValue == "" &&
		r.FinalValue == "" && r.ResponsibleName == "" && r.Observations == ""
}

// Issue severities for import reporting.
const (
	ImportSeverityError   = "error"
	ImportSeverityWarning = "warning"
)

// ImportIssue describes one normalization or commit problem, tagged with the
// row it belongs to. Errors drop the row; warnings record a tolerant
// fallback that was applied without blocking the record.
type ImportIssue struct {
	Row      int    `json:"row"`
	Field    string `json:"field,omitempty"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// ImportCandidate is a normalized, not-yet-persisted record produced from
// one accepted row.
type ImportCandidate struct {
	Row            int
	Title          string
	Description    string
	Status         string
	Priority       string
	Impact         string
	Classe         string
	Categoria      string
	RequestDate    time.Time
	EstimatedValue *decimal.Decimal
	FinalValue     *decimal.Decimal
	ResponsibleID  *string
	Observations   *string
}

// ImportReport summarises one bulk import run: the batch never fails as a
// whole, so counts and itemized issues are always reported.
type ImportReport struct {
	Created int           `json:"created"`
	Failed  int           `json:"failed"`
	Issues  []ImportIssue `json:"issues"`
}

package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/shopspring/decimal"

	"github.com/senai-mf/aquisicoes-api/internal/catalog"
	"github.com/senai-mf/aquisicoes-api/internal/dto"
	"github.com/senai-mf/aquisicoes-api/internal/models"
)

// DefaultImportMaxRows caps one bulk import batch.
const DefaultImportMaxRows = 100

// importDateLayouts are tried in order against raw date cells.
var importDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02/01/06",
}

// ImportNormalizer turns raw spreadsheet rows into persistable candidates.
// It is deliberately lenient: recoverable problems fall back to defaults and
// surface as warnings. Rows are dropped only for a missing usable title or
// description, or for a status that names no known workflow stage.
// Normalization is pure; nothing is persisted here.
type ImportNormalizer struct {
	maxRows int
}

// NewImportNormalizer constructs a normalizer. maxRows <= 0 selects the
// default batch cap.
func NewImportNormalizer(maxRows int) *ImportNormalizer {
	if maxRows <= 0 {
		maxRows = DefaultImportMaxRows
	}
	return &ImportNormalizer{maxRows: maxRows}
}

// Normalize processes the raw rows against the known user directory. today
// anchors the fallback for absent or unparseable dates. Blank rows are
// skipped silently; rows beyond the batch cap are dropped with a single
// warning.
func (n *ImportNormalizer) Normalize(rows []dto.ImportRow, users []models.User, today time.Time) ([]dto.ImportCandidate, []dto.ImportIssue) {
	candidates := make([]dto.ImportCandidate, 0, len(rows))
	issues := make([]dto.ImportIssue, 0)

	for _, row := range rows {
		if row.Blank() {
			continue
		}
		if len(candidates) >= n.maxRows {
			issues = append(issues, dto.ImportIssue{
				Row:      row.RowNumber,
				Severity: dto.ImportSeverityWarning,
				Message:  fmt.Sprintf("batch limited to %d rows, remaining rows ignored", n.maxRows),
			})
			break
		}

		candidate, rowIssues := n.normalizeRow(row, users, today)
		issues = append(issues, rowIssues...)
		if candidate != nil {
			candidates = append(candidates, *candidate)
		}
	}
	return candidates, issues
}

func (n *ImportNormalizer) normalizeRow(row dto.ImportRow, users []models.User, today time.Time) (*dto.ImportCandidate, []dto.ImportIssue) {
	issues := make([]dto.ImportIssue, 0, 2)
	failed := false

	title := strings.TrimSpace(row.Title)
	if len([]rune(title)) < 5 {
		issues = append(issues, dto.ImportIssue{
			Row: row.RowNumber, Field: "title", Severity: dto.ImportSeverityError,
			Message: "title must have at least 5 characters",
		})
		failed = true
	}
	description := strings.TrimSpace(row.Description)
	if len([]rune(description)) < 10 {
		issues = append(issues, dto.ImportIssue{
			Row: row.RowNumber, Field: "description", Severity: dto.ImportSeverityError,
			Message: "description must have at least 10 characters",
		})
		failed = true
	}
	// An unrecognized status would place the record in a workflow stage
	// nobody chose, so unlike the other enums it rejects the row.
	status := catalog.DefaultStatus
	if raw := strings.TrimSpace(row.Status); raw != "" {
		code, ok := catalog.Statuses().Lookup(raw)
		if !ok {
			issues = append(issues, dto.ImportIssue{
				Row: row.RowNumber, Field: "status", Severity: dto.ImportSeverityError,
				Message: fmt.Sprintf("unrecognized status %q", raw),
			})
			failed = true
		} else {
			status = code
		}
	}
	if failed {
		return nil, issues
	}

	candidate := dto.ImportCandidate{
		Row:         row.RowNumber,
		Title:       title,
		Description: description,
		Status:      status,
		Categoria:   catalog.ParseCategoria(row.Categoria),
	}

	candidate.Priority = n.lookupOrDefault(row, "priority", row.Priority, catalog.Priorities(), catalog.DefaultPriority, &issues)
	candidate.Impact = n.lookupOrDefault(row, "impact", row.Impact, catalog.Impacts(), catalog.DefaultImpact, &issues)
	candidate.Classe = n.lookupOrDefault(row, "classe", row.Classe, catalog.Classes(), catalog.DefaultClasse, &issues)

	candidate.RequestDate = parseImportDate(row.RequestDate, today)

	candidate.EstimatedValue = n.parseMoneyCell(row, "estimated_value", row.EstimatedValue, &issues)
	candidate.FinalValue = n.parseMoneyCell(row, "final_value", row.FinalValue, &issues)

	if raw := strings.TrimSpace(row.ResponsibleName); raw != "" {
		if id, ok := ResolveUserByName(raw, users); ok {
			candidate.ResponsibleID = &id
		} else {
			issues = append(issues, dto.ImportIssue{
				Row: row.RowNumber, Field: "responsible", Severity: dto.ImportSeverityWarning,
				Message: fmt.Sprintf("responsible %q not matched to any active user, left unassigned", raw),
			})
		}
	}

	if obs := strings.TrimSpace(row.Observations); obs != "" {
		if len([]rune(obs)) > 500 {
			obs = string([]rune(obs)[:500])
			issues = append(issues, dto.ImportIssue{
				Row: row.RowNumber, Field: "observations", Severity: dto.ImportSeverityWarning,
				Message: "observations truncated to 500 characters",
			})
		}
		candidate.Observations = &obs
	}

	return &candidate, issues
}

func (n *ImportNormalizer) lookupOrDefault(row dto.ImportRow, field, raw string, domain *catalog.Domain, fallback string, issues *[]dto.ImportIssue) string {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	code, ok := domain.Lookup(raw)
	if !ok {
		*issues = append(*issues, dto.ImportIssue{
			Row: row.RowNumber, Field: field, Severity: dto.ImportSeverityWarning,
			Message: fmt.Sprintf("unrecognized %s %q, using %q", field, raw, fallback),
		})
		return fallback
	}
	return code
}

func (n *ImportNormalizer) parseMoneyCell(row dto.ImportRow, field, raw string, issues *[]dto.ImportIssue) *decimal.Decimal {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	value, err := ParseMoney(raw)
	if err != nil {
		*issues = append(*issues, dto.ImportIssue{
			Row: row.RowNumber, Field: field, Severity: dto.ImportSeverityWarning,
			Message: fmt.Sprintf("unparseable value %q, left empty", raw),
		})
		return nil
	}
	if value.IsNegative() {
		*issues = append(*issues, dto.ImportIssue{
			Row: row.RowNumber, Field: field, Severity: dto.ImportSeverityWarning,
			Message: fmt.Sprintf("negative value %q, left empty", raw),
		})
		return nil
	}
	rounded := value.Round(2)
	return &rounded
}

// parseImportDate tries the accepted layouts and silently falls back to
// today; spreadsheet exports mangle dates too often to reject the row over
// them.
func parseImportDate(raw string, today time.Time) time.Time {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return dateOnly(today)
	}
	for _, layout := range importDateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed
		}
	}
	return dateOnly(today)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseMoney parses a currency cell tolerating Brazilian and plain formats:
// "R$ 1.250,50", "1.250,50", "1250.50" and "1,250.50" all resolve to the
// same amount. The rightmost separator with one or two trailing digits is
// taken as the decimal mark; remaining separators are grouping.
func ParseMoney(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "R$", "")
	cleaned = strings.ReplaceAll(cleaned, "r$", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("empty value")
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	decimalSep := byte(0)
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			decimalSep = ','
		} else {
			decimalSep = '.'
		}
	case lastComma >= 0:
		if isDecimalTail(cleaned, lastComma) {
			decimalSep = ','
		}
	case lastDot >= 0:
		if isDecimalTail(cleaned, lastDot) {
			decimalSep = '.'
		}
	}

	var b strings.Builder
	for i := 0; i < len(cleaned); i++ {
		c := cleaned[i]
		switch c {
		case ',', '.':
			if decimalSep != 0 && c == decimalSep && i == strings.LastIndexByte(cleaned, decimalSep) {
				b.WriteByte('.')
			}
		default:
			b.WriteByte(c)
		}
	}
	return decimal.NewFromString(b.String())
}

// isDecimalTail reports whether the separator at pos is followed by one or
// two digits, the shape of a decimal mark rather than a thousands group.
func isDecimalTail(s string, pos int) bool {
	tail := len(s) - pos - 1
	return tail == 1 || tail == 2
}

// ResolveUserByName maps a free-text responsible cell to a user ID. It tries
// exact folded equality on full name and username, then unique substring
// containment, then fuzzy matching as a last resort. Ambiguous matches
// resolve to no user.
func ResolveUserByName(raw string, users []models.User) (string, bool) {
	folded := catalog.Fold(raw)
	if folded == "" {
		return "", false
	}

	for _, user := range users {
		if catalog.Fold(user.FullName) == folded || catalog.Fold(user.Username) == folded {
			return user.ID, true
		}
	}

	var partial []string
	for _, user := range users {
		if strings.Contains(catalog.Fold(user.FullName), folded) {
			partial = append(partial, user.ID)
		}
	}
	if len(partial) == 1 {
		return partial[0], true
	}
	if len(partial) > 1 {
		return "", false
	}

	bestRank := -1
	bestID := ""
	bestCount := 0
	for _, user := range users {
		rank := fuzzy.RankMatchNormalizedFold(raw, user.FullName)
		if rank < 0 {
			continue
		}
		if bestRank == -1 || rank < bestRank {
			bestRank = rank
			bestID = user.ID
			bestCount = 1
		} else if rank == bestRank {
			bestCount++
		}
	}
	if bestCount == 1 {
		return bestID, true
	}
	return "", false
}

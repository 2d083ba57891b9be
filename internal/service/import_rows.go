package service

import (
	"strings"

	"github.com/senai-mf/aquisicoes-api/internal/dto"
)

// ImportColumnHeaders is the fixed column order of the bulk import template.
var ImportColumnHeaders = []string{
	"Título",
	"Descrição",
	"Status",
	"Prioridade",
	"Impacto",
	"Classe",
	"Categoria",
	"Data do Pedido",
	"Valor Estimado",
	"Valor Final",
	"Responsável",
	"Observações",
}

// ImportTemplateExample is the sample row shipped in the import template.
var ImportTemplateExample = []string{
	"Compra de projetores",
	"Projetores multimídia para as salas do bloco B",
	"Orçamento",
	"Média",
	"Médio",
	"Ensino",
	"Material",
	"20/08/2025",
	"R$ 1.250,50",
	"",
	"Ana Lima",
	"Entrega no almoxarifado",
}

// RowsFromCells maps a raw cell grid onto named import rows. The first row
// is assumed to be the header and skipped; RowNumber stays 1-based against
// the original file so issues point at the row the user sees.
func RowsFromCells(cells [][]string) []dto.ImportRow {
	rows := make([]dto.ImportRow, 0, len(cells))
	for i, record := range cells {
		if i == 0 {
			continue
		}
		rows = append(rows, dto.ImportRow{
			RowNumber:       i + 1,
			Title:           cellAt(record, 0),
			Description:     cellAt(record, 1),
			Status:          cellAt(record, 2),
			Priority:        cellAt(record, 3),
			Impact:          cellAt(record, 4),
			Classe:          cellAt(record, 5),
			Categoria:       cellAt(record, 6),
			RequestDate:     cellAt(record, 7),
			EstimatedValue:  cellAt(record, 8),
			FinalValue:      cellAt(record, 9),
			ResponsibleName: cellAt(record, 10),
			Observations:    cellAt(record, 11),
		})
	}
	return rows
}

func cellAt(record []string, index int) string {
	if index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

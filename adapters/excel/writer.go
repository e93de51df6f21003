package excel

import (
	"fmt"
	"log"
	"math"

	"github.com/xuri/excelize/v2"

	"cellmap/domain/interaction"
)

const resultSheet = "Sheet1"

// WriteResultTable writes a merged result table to an xlsx workbook: pair
// key columns first, then every per-image result column in table order.
// NaN absence markers become blank cells.
func WriteResultTable(path string, table *interaction.ResultTable) error {
	f := excelize.NewFile()
	defer f.Close()

	headers := append([]string{"phenotype", "neighbour_phenotype"}, table.Columns...)
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := f.SetCellValue(resultSheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header %s: %w", h, err)
		}
	}

	for row, pair := range table.Pairs {
		values := []interface{}{pair.Phenotype, pair.NeighbourPhenotype}
		for _, name := range table.Columns {
			v := table.Data[name][row]
			if math.IsNaN(v) {
				values = append(values, nil)
			} else {
				values = append(values, v)
			}
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("failed to address result cell: %w", err)
			}
			if err := f.SetCellValue(resultSheet, cell, v); err != nil {
				return fmt.Errorf("failed to write result cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save results workbook: %w", err)
	}
	log.Printf("[ResultWriter] Wrote %d pairs x %d columns to %s", len(table.Pairs), len(table.Columns), path)
	return nil
}

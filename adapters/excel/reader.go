package excel

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"cellmap/domain/cells"
)

// Columns names the input columns carrying coordinates, phenotype and
// image identity. Z is optional; leave it empty for 2D datasets.
type Columns struct {
	X         string
	Y         string
	Z         string
	Phenotype string
	ImageID   string
}

// DefaultColumns mirrors the reference column naming.
func DefaultColumns() Columns {
	return Columns{
		X:         "X_centroid",
		Y:         "Y_centroid",
		Phenotype: "phenotype",
		ImageID:   "imageid",
	}
}

// CellReader handles reading per-cell tables from Excel and CSV files
type CellReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	columns  Columns
}

// NewCellReader creates a reader that handles both Excel and CSV files
func NewCellReader(filePath string, columns Columns) *CellReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &CellReader{filePath: filePath, fileType: fileType, columns: columns}
}

// ReadCellTable reads the configured columns into a cell table.
func (r *CellReader) ReadCellTable() (*cells.Table, error) {
	log.Printf("[CellReader] Reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("input file not found: %s", r.filePath)
	}

	var rows [][]string
	var err error
	if r.fileType == "csv" {
		rows, err = r.readCSV()
	} else {
		rows, err = r.readXLSX()
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("input file %s has no data rows", r.filePath)
	}

	header := rows[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	required := map[string]string{
		"x":         r.columns.X,
		"y":         r.columns.Y,
		"phenotype": r.columns.Phenotype,
		"imageid":   r.columns.ImageID,
	}
	cols := make(map[string]int, len(required))
	for role, name := range required {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("missing %s column %q in %s", role, name, r.filePath)
		}
		cols[role] = i
	}
	zCol := -1
	if r.columns.Z != "" {
		i, ok := index[r.columns.Z]
		if !ok {
			return nil, fmt.Errorf("missing z column %q in %s", r.columns.Z, r.filePath)
		}
		zCol = i
	}

	table := &cells.Table{}
	if zCol >= 0 {
		table.Z = []float64{}
	}
	for rowNum, row := range rows[1:] {
		get := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		x, err := strconv.ParseFloat(get(cols["x"]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad x value %q: %w", rowNum+2, get(cols["x"]), err)
		}
		y, err := strconv.ParseFloat(get(cols["y"]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad y value %q: %w", rowNum+2, get(cols["y"]), err)
		}
		table.X = append(table.X, x)
		table.Y = append(table.Y, y)
		if zCol >= 0 {
			z, err := strconv.ParseFloat(get(zCol), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad z value %q: %w", rowNum+2, get(zCol), err)
			}
			table.Z = append(table.Z, z)
		}
		table.Phenotype = append(table.Phenotype, get(cols["phenotype"]))
		table.ImageID = append(table.ImageID, get(cols["imageid"]))
	}

	log.Printf("[CellReader] Loaded %d cells across %d image(s)", table.Len(), len(table.ImageIDs()))
	return table, table.Validate()
}

func (r *CellReader) readCSV() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

func (r *CellReader) readXLSX() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

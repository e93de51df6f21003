package cells

import (
	"fmt"
	"sort"

	"cellmap/domain/core"
)

// Table is the canonical per-cell input for spatial interaction analysis.
// Columnar layout: one entry per cell across all columns. Z is nil for 2D
// datasets. A Table is immutable for the duration of a run.
type Table struct {
	X         []float64
	Y         []float64
	Z         []float64 // nil when the dataset is 2D
	Phenotype []string
	ImageID   []string
}

// Len returns the number of cells in the table.
func (t *Table) Len() int {
	return len(t.X)
}

// Is3D reports whether the table carries a Z coordinate column.
func (t *Table) Is3D() bool {
	return t.Z != nil
}

// Dims returns the coordinate dimensionality (2 or 3).
func (t *Table) Dims() int {
	if t.Is3D() {
		return 3
	}
	return 2
}

// Validate ensures the table is internally consistent
func (t *Table) Validate() error {
	n := len(t.X)
	if n == 0 {
		return core.ErrInsufficientData
	}
	if len(t.Y) != n {
		return fmt.Errorf("%w: y column has %d entries, expected %d", core.ErrInvalidCellTable, len(t.Y), n)
	}
	if t.Z != nil && len(t.Z) != n {
		return fmt.Errorf("%w: z column has %d entries, expected %d", core.ErrInvalidCellTable, len(t.Z), n)
	}
	if len(t.Phenotype) != n {
		return fmt.Errorf("%w: phenotype column has %d entries, expected %d", core.ErrInvalidCellTable, len(t.Phenotype), n)
	}
	if len(t.ImageID) != n {
		return fmt.Errorf("%w: image column has %d entries, expected %d", core.ErrInvalidCellTable, len(t.ImageID), n)
	}
	return nil
}

// ImageIDs returns the distinct image identifiers in first-appearance order.
func (t *Table) ImageIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, id := range t.ImageID {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// Subset returns the cells belonging to a single image. Cell indices are
// re-based to the subset; the subset owns fresh slices.
func (t *Table) Subset(imageID string) (*Table, error) {
	sub := &Table{}
	if t.Z != nil {
		sub.Z = []float64{}
	}
	for i, id := range t.ImageID {
		if id != imageID {
			continue
		}
		sub.X = append(sub.X, t.X[i])
		sub.Y = append(sub.Y, t.Y[i])
		if t.Z != nil {
			sub.Z = append(sub.Z, t.Z[i])
		}
		sub.Phenotype = append(sub.Phenotype, t.Phenotype[i])
		sub.ImageID = append(sub.ImageID, id)
	}
	if sub.Len() == 0 {
		return nil, core.NewNotFoundError("image", imageID)
	}
	return sub, nil
}

// SplitByImage partitions the table into independent per-image subsets,
// ordered by first appearance of each image identifier.
func (t *Table) SplitByImage() ([]*Table, error) {
	var subsets []*Table
	for _, id := range t.ImageIDs() {
		sub, err := t.Subset(id)
		if err != nil {
			return nil, err
		}
		subsets = append(subsets, sub)
	}
	return subsets, nil
}

// Categories returns the sorted distinct phenotype labels of the table.
// Every pairwise matrix downstream is square over this set.
func (t *Table) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, p := range t.Phenotype {
		if !seen[p] {
			seen[p] = true
			cats = append(cats, p)
		}
	}
	sort.Strings(cats)
	return cats
}

// Codes maps the phenotype column onto indices into categories.
// Labels absent from categories map to -1.
func (t *Table) Codes(categories []string) []int {
	index := make(map[string]int, len(categories))
	for i, c := range categories {
		index[c] = i
	}
	codes := make([]int, t.Len())
	for i, p := range t.Phenotype {
		code, ok := index[p]
		if !ok {
			code = -1
		}
		codes[i] = code
	}
	return codes
}

// PhenotypeCounts returns the number of cells per category, aligned with
// the given category order. Categories with no cells count 0.
func (t *Table) PhenotypeCounts(categories []string) []float64 {
	index := make(map[string]int, len(categories))
	for i, c := range categories {
		index[c] = i
	}
	counts := make([]float64, len(categories))
	for _, p := range t.Phenotype {
		if i, ok := index[p]; ok {
			counts[i]++
		}
	}
	return counts
}

// Coordinates returns the coordinate row for cell i.
func (t *Table) Coordinates(i int) []float64 {
	if t.Is3D() {
		return []float64{t.X[i], t.Y[i], t.Z[i]}
	}
	return []float64{t.X[i], t.Y[i]}
}

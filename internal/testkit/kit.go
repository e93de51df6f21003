package testkit

import (
	"math/rand"

	"cellmap/domain/cells"
)

// GridTable builds a rows x cols lattice of cells with the given spacing,
// all in one image, with phenotypes assigned round-robin from labels.
// Cell index order is row-major.
func GridTable(imageID string, rows, cols int, spacing float64, labels []string) *cells.Table {
	t := &cells.Table{}
	i := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			t.X = append(t.X, float64(c)*spacing)
			t.Y = append(t.Y, float64(r)*spacing)
			t.Phenotype = append(t.Phenotype, labels[i%len(labels)])
			t.ImageID = append(t.ImageID, imageID)
			i++
		}
	}
	return t
}

// TwoPhenotypeSquare is the canonical 4-cell scenario: a 2x2 grid with
// spacing 1 and phenotypes [A, A, B, B], where radius 1.5 connects every
// cell to every other cell.
func TwoPhenotypeSquare(imageID string) *cells.Table {
	return &cells.Table{
		X:         []float64{0, 1, 0, 1},
		Y:         []float64{0, 0, 1, 1},
		Phenotype: []string{"A", "A", "B", "B"},
		ImageID:   []string{imageID, imageID, imageID, imageID},
	}
}

// RandomTable scatters n cells uniformly in a span x span box with labels
// drawn uniformly under the given seed.
func RandomTable(imageID string, n int, span float64, labels []string, seed int64) *cells.Table {
	rng := rand.New(rand.NewSource(seed))
	t := &cells.Table{}
	for i := 0; i < n; i++ {
		t.X = append(t.X, rng.Float64()*span)
		t.Y = append(t.Y, rng.Float64()*span)
		t.Phenotype = append(t.Phenotype, labels[rng.Intn(len(labels))])
		t.ImageID = append(t.ImageID, imageID)
	}
	return t
}

// Concat stacks per-image tables into one multi-image table.
func Concat(tables ...*cells.Table) *cells.Table {
	out := &cells.Table{}
	for _, t := range tables {
		out.X = append(out.X, t.X...)
		out.Y = append(out.Y, t.Y...)
		if t.Z != nil {
			out.Z = append(out.Z, t.Z...)
		}
		out.Phenotype = append(out.Phenotype, t.Phenotype...)
		out.ImageID = append(out.ImageID, t.ImageID...)
	}
	return out
}

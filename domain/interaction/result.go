package interaction

import (
	"fmt"
	"math"
)

// PairKey identifies one ordered phenotype pair (own, neighbour).
type PairKey struct {
	Phenotype          string
	NeighbourPhenotype string
}

// PairKeys enumerates the full category set row-major, giving the
// deterministic flatten order shared by observed and permuted matrices.
func PairKeys(categories []string) []PairKey {
	pairs := make([]PairKey, 0, len(categories)*len(categories))
	for _, own := range categories {
		for _, neigh := range categories {
			pairs = append(pairs, PairKey{Phenotype: own, NeighbourPhenotype: neigh})
		}
	}
	return pairs
}

// ResultTable is a pair-keyed columnar table of per-image interaction
// results. NaN marks absence: a pair that an image never produced keeps
// NaN in that image's columns after merging, never a silent zero.
type ResultTable struct {
	Pairs   []PairKey
	Columns []string
	Data    map[string][]float64
}

// NewResultTable creates an empty table over the given pair keys.
func NewResultTable(pairs []PairKey) *ResultTable {
	return &ResultTable{
		Pairs: pairs,
		Data:  make(map[string][]float64),
	}
}

// AddColumn appends a named column aligned with the table's pair keys.
func (t *ResultTable) AddColumn(name string, values []float64) error {
	if len(values) != len(t.Pairs) {
		return fmt.Errorf("column %s has %d values, expected %d", name, len(values), len(t.Pairs))
	}
	if _, exists := t.Data[name]; exists {
		return fmt.Errorf("column %s already present", name)
	}
	t.Columns = append(t.Columns, name)
	t.Data[name] = values
	return nil
}

// Column returns a named column and whether it exists.
func (t *ResultTable) Column(name string) ([]float64, bool) {
	v, ok := t.Data[name]
	return v, ok
}

// Value returns the cell for a pair/column combination. Absent pairs and
// absent columns both report NaN, false.
func (t *ResultTable) Value(pair PairKey, column string) (float64, bool) {
	col, ok := t.Data[column]
	if !ok {
		return math.NaN(), false
	}
	for i, p := range t.Pairs {
		if p == pair {
			return col[i], true
		}
	}
	return math.NaN(), false
}

// ImageResult is the output of one image's pipeline run.
type ImageResult struct {
	ImageID string
	Table   *ResultTable
	// SuppressedFraction is the share of phenotype pairs forced to 0 by
	// the conditional count threshold (0 under total normalization).
	SuppressedFraction float64
}

// OuterJoin merges per-image result tables with full outer join semantics
// on the pair key: the merged table spans the union of pairs, keyed in
// first-appearance order, and columns from images missing a pair hold NaN.
func OuterJoin(tables []*ResultTable) *ResultTable {
	var pairs []PairKey
	position := make(map[PairKey]int)
	for _, t := range tables {
		for _, p := range t.Pairs {
			if _, seen := position[p]; !seen {
				position[p] = len(pairs)
				pairs = append(pairs, p)
			}
		}
	}

	merged := NewResultTable(pairs)
	for _, t := range tables {
		for _, name := range t.Columns {
			values := make([]float64, len(pairs))
			for i := range values {
				values[i] = math.NaN()
			}
			src := t.Data[name]
			for i, p := range t.Pairs {
				values[position[p]] = src[i]
			}
			// Column names are image-suffixed upstream, so collisions
			// indicate duplicate image identifiers; last write wins is
			// never reached because AddColumn rejects duplicates.
			_ = merged.AddColumn(name, values)
		}
	}
	return merged
}

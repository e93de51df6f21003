package engine

// InteractionTable is the flattened edge table one image's neighbor graph
// produces: one row per (cell, neighbor) edge, carrying the cell's own
// phenotype code and the neighbor's phenotype code. It is the shared,
// read-only input to the observed computation and every permutation trial.
type InteractionTable struct {
	Cell  []int
	Own   []int
	Neigh []int
	// K is the size of the image's phenotype category set; every matrix
	// derived from this table is KxK.
	K int
}

// BuildInteractionTable resolves neighbor indices to phenotype codes and
// flattens the per-cell lists. Cells with empty neighbor lists simply
// contribute no rows.
func BuildInteractionTable(codes []int, neighbors [][]int, k int) *InteractionTable {
	t := &InteractionTable{K: k}
	for cell, list := range neighbors {
		for _, idx := range list {
			t.Cell = append(t.Cell, cell)
			t.Own = append(t.Own, codes[cell])
			t.Neigh = append(t.Neigh, codes[idx])
		}
	}
	return t
}

// Len returns the number of (cell, neighbor) edges.
func (t *InteractionTable) Len() int {
	return len(t.Cell)
}

// countMatrix tallies phenotype pair counts row-major over the full KxK
// category set. Absent pairs stay 0, keeping the matrix square across all
// trials.
func countMatrix(own, neigh []int, k int) []float64 {
	counts := make([]float64, k*k)
	for i := range own {
		counts[own[i]*k+neigh[i]]++
	}
	return counts
}

// dedupPairCounts counts distinct (cell, neighbour-phenotype) pairs per
// phenotype pair: a cell neighboring three B cells contributes a single
// (cell, B) pair. This is the conditional normalization denominator and is
// always derived from the unshuffled table.
func dedupPairCounts(t *InteractionTable) []float64 {
	counts := make([]float64, t.K*t.K)
	seen := make(map[[2]int]bool, t.Len())
	for i := range t.Cell {
		key := [2]int{t.Cell[i], t.Neigh[i]}
		if seen[key] {
			continue
		}
		seen[key] = true
		counts[t.Own[i]*t.K+t.Neigh[i]]++
	}
	return counts
}

// totalFrequencies divides pair counts by the source phenotype's total
// cell count in the image. Phenotypes with no cells resolve to 0 rather
// than propagating a division artifact.
func totalFrequencies(counts, totals []float64, k int) []float64 {
	freq := make([]float64, k*k)
	for i := 0; i < k; i++ {
		if totals[i] == 0 {
			continue
		}
		for j := 0; j < k; j++ {
			freq[i*k+j] = counts[i*k+j] / totals[i]
		}
	}
	return freq
}

// conditionalObserved computes the observed conditional matrix: each
// deduplicated pair count divided by itself, with pairs below the support
// threshold suppressed to 0. The self-referential ratio is preserved
// verbatim from the histoCAT-adapted normalization. The second return is
// the fraction of matrix entries suppressed by the threshold.
func conditionalObserved(dedup []float64, threshold int, k int) ([]float64, float64) {
	freq := make([]float64, k*k)
	below := 0
	for i, d := range dedup {
		if d < float64(threshold) {
			below++
			continue
		}
		if d > 0 {
			freq[i] = d / d
		}
	}
	return freq, float64(below) / float64(k*k)
}

// conditionalPermuted divides post-shuffle pair counts by the unshuffled
// deduplicated counts. Pairs the observed table never produced resolve
// to 0.
func conditionalPermuted(counts, dedup []float64) []float64 {
	freq := make([]float64, len(counts))
	for i := range counts {
		if dedup[i] == 0 {
			continue
		}
		freq[i] = counts[i] / dedup[i]
	}
	return freq
}

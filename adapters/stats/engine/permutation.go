package engine

import (
	"context"
	"fmt"
	"sync"

	"cellmap/domain/interaction"
)

// MasterSeed is the fixed process-wide seed every permutation run derives
// its per-trial seed sequence from. It is a constant, not configuration:
// repeated runs on the same inputs are bit-identical across platforms.
const MasterSeed = 42

// nullDistribution produces the [nPairs][permutation] null matrix: for
// each trial, the neighbour-phenotype column is shuffled under that
// trial's seed (the own-phenotype column is never permuted, preserving
// each cell's degree), the square count matrix is recomputed, and the
// selected normalization is applied.
//
// Trials are distributed over a small worker pool; trial i always uses
// seeds[i] and writes only column i, so the result is independent of
// scheduling and needs no locking.
func (e *Engine) nullDistribution(ctx context.Context, t *InteractionTable, cfg interaction.Config, totals, dedup []float64) ([][]float64, error) {
	seeds, err := e.rng.TrialSeeds(ctx, "spatial-interaction", MasterSeed, cfg.Permutation)
	if err != nil {
		return nil, fmt.Errorf("failed to derive trial seeds: %w", err)
	}

	nPairs := t.K * t.K
	null := make([][]float64, nPairs)
	for p := range null {
		null[p] = make([]float64, cfg.Permutation)
	}

	numWorkers := 4
	if cfg.Permutation < 100 {
		numWorkers = 1
	}

	workChan := make(chan int, cfg.Permutation)
	errChan := make(chan error, numWorkers)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for trial := range workChan {
				if err := e.runTrial(ctx, t, cfg, totals, dedup, seeds[trial], trial, null); err != nil {
					errChan <- fmt.Errorf("permutation trial %d: %w", trial, err)
					return
				}
			}
		}()
	}

	for i := 0; i < cfg.Permutation; i++ {
		workChan <- i
	}
	close(workChan)
	wg.Wait()
	close(errChan)

	// A failed trial fails the whole image rather than silently biasing
	// the null distribution.
	if err := <-errChan; err != nil {
		return nil, err
	}
	return null, nil
}

// runTrial executes one permutation trial into the null matrix column for
// its trial index.
func (e *Engine) runTrial(ctx context.Context, t *InteractionTable, cfg interaction.Config, totals, dedup []float64, seed int64, trial int, null [][]float64) error {
	stream, err := e.rng.SeededStream(ctx, "permutation-trial", seed)
	if err != nil {
		return err
	}

	n := t.Len()
	order := stream.Perm(n)
	shuffled := make([]int, n)
	for j, src := range order {
		shuffled[j] = t.Neigh[src]
	}

	counts := countMatrix(t.Own, shuffled, t.K)

	var freq []float64
	switch cfg.Normalization {
	case interaction.NormalizationTotal:
		freq = totalFrequencies(counts, totals, t.K)
	case interaction.NormalizationConditional:
		freq = conditionalPermuted(counts, dedup)
	default:
		return fmt.Errorf("unsupported normalization %q", cfg.Normalization)
	}

	for p, v := range freq {
		null[p][trial] = v
	}
	return nil
}

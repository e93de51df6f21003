package engine

import (
	"context"
	"fmt"
	"log"

	"cellmap/domain/cells"
	"cellmap/domain/core"
	"cellmap/domain/interaction"
	"cellmap/ports"
)

// Engine runs the full single-image interaction pipeline: neighbor graph,
// phenotype mapping, observed frequencies, permutation null, significance.
type Engine struct {
	finder ports.NeighborFinder
	rng    ports.RNGPort
}

// New creates an interaction engine over a neighbor finder and a
// deterministic RNG source.
func New(finder ports.NeighborFinder, rng ports.RNGPort) *Engine {
	return &Engine{finder: finder, rng: rng}
}

// AnalyzeImage processes one image's cells and returns its pair-keyed
// result table. The table's columns are suffixed with the image
// identifier so per-image results stay distinguishable after merging.
func (e *Engine) AnalyzeImage(ctx context.Context, table *cells.Table, cfg interaction.Config) (*interaction.ImageResult, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	imageID := table.ImageID[0]
	log.Printf("[InteractionEngine] Processing image %s (%d cells)", imageID, table.Len())

	categories := table.Categories()
	k := len(categories)

	neighbors, err := e.finder.Find(ctx, table, cfg)
	if err != nil {
		return nil, core.NewImageError(imageID, err)
	}

	it := BuildInteractionTable(table.Codes(categories), neighbors, k)
	if it.Len() == 0 {
		return nil, core.NewImageError(imageID, fmt.Errorf("%w: neighbor graph has no edges", core.ErrInsufficientData))
	}
	log.Printf("[InteractionEngine] Mapped %d neighbor edges across %d phenotypes", it.Len(), k)

	totals := table.PhenotypeCounts(categories)
	dedup := dedupPairCounts(it)

	observed, suppressed, err := e.observedFrequencies(it, cfg, totals, dedup)
	if err != nil {
		return nil, core.NewImageError(imageID, err)
	}
	if suppressed > 0 {
		log.Printf("[InteractionEngine] Warning: %.1f%% of phenotype pairs fall below the conditional count threshold %d; their results are suppressed",
			suppressed*100, cfg.CondCountsThreshold)
	}

	log.Printf("[InteractionEngine] Performing %d permutations", cfg.Permutation)
	null, err := e.nullDistribution(ctx, it, cfg, totals, dedup)
	if err != nil {
		return nil, core.NewImageError(imageID, err)
	}

	scores, err := evaluateSignificance(observed, null, cfg)
	if err != nil {
		return nil, core.NewImageError(imageID, err)
	}

	result := interaction.NewResultTable(interaction.PairKeys(categories))
	pvalues := make([]float64, len(scores))
	for i, s := range scores {
		pvalues[i] = s.PValue
	}

	switch cfg.PValMethod {
	case interaction.PValAbs:
		counts := make([]float64, len(scores))
		for i, s := range scores {
			counts[i] = s.SignedCount
		}
		if err := result.AddColumn(imageID, counts); err != nil {
			return nil, core.NewImageError(imageID, err)
		}
		if err := result.AddColumn("pvalue_"+imageID, pvalues); err != nil {
			return nil, core.NewImageError(imageID, err)
		}

	case interaction.PValZScore:
		zscores := make([]float64, len(scores))
		counts := make([]float64, len(scores))
		for i, s := range scores {
			zscores[i] = s.ZScore
			counts[i] = s.Observed
		}
		if err := result.AddColumn("zscore_"+imageID, zscores); err != nil {
			return nil, core.NewImageError(imageID, err)
		}
		if err := result.AddColumn("pvalue_"+imageID, pvalues); err != nil {
			return nil, core.NewImageError(imageID, err)
		}
		if err := result.AddColumn("count_"+imageID, counts); err != nil {
			return nil, core.NewImageError(imageID, err)
		}
	}

	return &interaction.ImageResult{
		ImageID:            imageID,
		Table:              result,
		SuppressedFraction: suppressed,
	}, nil
}

// observedFrequencies computes the observed KxK matrix under the selected
// normalization, plus the conditional suppressed fraction.
func (e *Engine) observedFrequencies(it *InteractionTable, cfg interaction.Config, totals, dedup []float64) ([]float64, float64, error) {
	switch cfg.Normalization {
	case interaction.NormalizationTotal:
		counts := countMatrix(it.Own, it.Neigh, it.K)
		return totalFrequencies(counts, totals, it.K), 0, nil
	case interaction.NormalizationConditional:
		freq, suppressed := conditionalObserved(dedup, cfg.CondCountsThreshold, it.K)
		return freq, suppressed, nil
	default:
		return nil, 0, fmt.Errorf("unsupported normalization %q", cfg.Normalization)
	}
}

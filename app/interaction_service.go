package app

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/semaphore"

	"cellmap/adapters/stats/engine"
	"cellmap/domain/cells"
	"cellmap/domain/interaction"
)

// maxConcurrentImages bounds how many per-image pipelines run at once;
// each pipeline already parallelizes its permutation trials internally.
const maxConcurrentImages = 4

// SpatialInteractionService orchestrates the full dataset run: it splits
// the cell table per image, runs each image's pipeline independently, and
// outer-joins the per-image result tables on the phenotype pair key.
type SpatialInteractionService struct {
	engine *engine.Engine
	sem    *semaphore.Weighted
}

// NewSpatialInteractionService creates the orchestrator.
func NewSpatialInteractionService(eng *engine.Engine) *SpatialInteractionService {
	return &SpatialInteractionService{
		engine: eng,
		sem:    semaphore.NewWeighted(maxConcurrentImages),
	}
}

// Run analyzes the whole table (or the single image named by cfg.Subset)
// and returns the merged result table. A failure in any image fails the
// run; images are never silently skipped from the merged output.
func (s *SpatialInteractionService) Run(ctx context.Context, table *cells.Table, cfg interaction.Config) (*interaction.ResultTable, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}

	var subsets []*cells.Table
	if cfg.Subset != "" {
		sub, err := table.Subset(cfg.Subset)
		if err != nil {
			return nil, err
		}
		subsets = []*cells.Table{sub}
	} else {
		var err error
		subsets, err = table.SplitByImage()
		if err != nil {
			return nil, err
		}
	}
	log.Printf("[SpatialInteraction] Analyzing %d image(s), %d cells total", len(subsets), table.Len())

	// Images are independent pipelines; results land in image order so
	// the merged column order is deterministic.
	results := make([]*interaction.ImageResult, len(subsets))
	errs := make([]error, len(subsets))

	var wg sync.WaitGroup
	for i, sub := range subsets {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(i int, sub *cells.Table) {
			defer wg.Done()
			defer s.sem.Release(1)
			results[i], errs[i] = s.engine.AnalyzeImage(ctx, sub, cfg)
		}(i, sub)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	tables := make([]*interaction.ResultTable, len(results))
	for i, r := range results {
		tables[i] = r.Table
	}
	merged := interaction.OuterJoin(tables)
	log.Printf("[SpatialInteraction] Merged %d phenotype pairs across %d image(s)", len(merged.Pairs), len(subsets))
	return merged, nil
}

package interaction

import (
	"cellmap/domain/core"
)

// Method selects the neighbor definition used to build the spatial graph.
type Method string

const (
	MethodKNN      Method = "knn"
	MethodRadius   Method = "radius"
	MethodDelaunay Method = "delaunay"
)

// Normalization selects the frequency semantics applied to both the
// observed matrix and every permutation trial.
type Normalization string

const (
	// NormalizationTotal divides pair counts by the source phenotype's
	// total cell count in the image.
	NormalizationTotal Normalization = "total"
	// NormalizationConditional divides deduplicated pair counts by
	// themselves with a minimum-support cutoff (adapted from histoCAT).
	NormalizationConditional Normalization = "conditional"
)

// PValMethod selects how significance is computed against the null.
type PValMethod string

const (
	PValAbs    PValMethod = "abs"
	PValZScore PValMethod = "zscore"
)

// Config carries every caller-supplied option for a spatial interaction run.
type Config struct {
	Method Method
	// Radius is the inclusive distance threshold for MethodRadius.
	Radius float64
	// KNN is the neighbor count for MethodKNN, counting the cell itself.
	KNN int
	// Permutation is the number of null-model trials.
	Permutation int
	Normalization Normalization
	// CondCountsThreshold is the minimum raw pair count a conditional
	// pair needs to escape suppression.
	CondCountsThreshold int
	PValMethod          PValMethod
	// Scaling enables per-pair min-max rescaling into [-1, 1] before scoring.
	Scaling bool
	// Subset restricts processing to a single image identifier.
	Subset string
}

// DefaultConfig mirrors the reference defaults.
func DefaultConfig() Config {
	return Config{
		Method:              MethodRadius,
		Radius:              30,
		KNN:                 10,
		Permutation:         1000,
		Normalization:       NormalizationTotal,
		CondCountsThreshold: 5,
		PValMethod:          PValZScore,
	}
}

// Validate fails fast on any option that would otherwise surface deep in
// the geometry or permutation phases.
func (c Config) Validate() error {
	switch c.Method {
	case MethodKNN:
		if c.KNN < 2 {
			return core.NewConfigError("knn", "must be at least 2 (count includes the cell itself)")
		}
	case MethodRadius:
		if c.Radius <= 0 {
			return core.NewConfigError("radius", "must be positive")
		}
	case MethodDelaunay:
		// Dimensionality is checked against the cell table at build time.
	default:
		return core.NewConfigError("method", "must be one of knn, radius, delaunay")
	}

	switch c.Normalization {
	case NormalizationTotal:
	case NormalizationConditional:
		if c.CondCountsThreshold < 0 {
			return core.NewConfigError("cond_counts_threshold", "must not be negative")
		}
	default:
		return core.NewConfigError("normalization", "must be one of total, conditional")
	}

	switch c.PValMethod {
	case PValAbs, PValZScore:
	default:
		return core.NewConfigError("pval_method", "must be one of abs, zscore")
	}

	if c.Permutation < 1 {
		return core.NewConfigError("permutation", "must be at least 1")
	}
	return nil
}

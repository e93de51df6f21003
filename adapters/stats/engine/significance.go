package engine

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"cellmap/domain/interaction"
)

// PairScore holds the per-pair outcome of comparing the observed
// frequency against its null distribution. Observed is the possibly
// scaled value actually scored.
type PairScore struct {
	Observed    float64
	Direction   float64
	PValue      float64
	ZScore      float64
	SignedCount float64
}

// evaluateSignificance scores every phenotype pair against its null row.
//
// With scaling enabled, each null row is rescaled to [-1, 1] by its own
// min/max and the observed value is transformed with that same row's
// bounds, not a separately computed scale. Degenerate rows (min == max)
// rescale to 0 instead of propagating NaN.
func evaluateSignificance(observed []float64, null [][]float64, cfg interaction.Config) ([]PairScore, error) {
	if len(observed) != len(null) {
		return nil, fmt.Errorf("observed vector has %d pairs, null distribution has %d", len(observed), len(null))
	}

	scores := make([]PairScore, len(observed))
	for p := range observed {
		row := null[p]
		obs := observed[p]

		if cfg.Scaling {
			rowMin, err := stats.Min(row)
			if err != nil {
				return nil, err
			}
			rowMax, err := stats.Max(row)
			if err != nil {
				return nil, err
			}
			scaled := make([]float64, len(row))
			for i, v := range row {
				scaled[i] = minMaxScale(v, rowMin, rowMax)
			}
			obs = minMaxScale(obs, rowMin, rowMax)
			row = scaled
		}

		mean, err := stats.Mean(row)
		if err != nil {
			return nil, err
		}
		std, err := stats.StandardDeviationSample(row)
		if err != nil {
			return nil, err
		}

		// Ties resolve to +1: the ratio form diff/|diff| underflows to
		// NaN at exact equality.
		direction := 1.0
		if obs-mean < 0 {
			direction = -1.0
		}

		score := PairScore{Observed: obs, Direction: direction}
		switch cfg.PValMethod {
		case interaction.PValAbs:
			greaterEqual := 0
			for _, v := range row {
				if v >= obs {
					greaterEqual++
				}
			}
			score.PValue = float64(greaterEqual) / float64(cfg.Permutation+1)
			score.SignedCount = obs * direction

		case interaction.PValZScore:
			z := 0.0
			if std != 0 {
				z = (obs - mean) / std
			}
			score.ZScore = z
			score.PValue = 2 * distuv.UnitNormal.Survival(math.Abs(z))

		default:
			return nil, fmt.Errorf("unsupported pval_method %q", cfg.PValMethod)
		}
		scores[p] = score
	}
	return scores, nil
}

// minMaxScale maps x into [-1, 1] using the row bounds; a zero-width row
// maps to 0.
func minMaxScale(x, min, max float64) float64 {
	if max == min {
		return 0
	}
	return 2*(x-min)/(max-min) - 1
}

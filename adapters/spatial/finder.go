package spatial

import (
	"context"
	"fmt"

	"cellmap/domain/cells"
	"cellmap/domain/core"
	"cellmap/domain/interaction"
	"cellmap/ports"
)

// Finder implements ports.NeighborFinder over a kd-tree spatial index and
// Delaunay triangulation.
type Finder struct{}

var _ ports.NeighborFinder = (*Finder)(nil)

// NewFinder creates a neighbor graph builder.
func NewFinder() *Finder {
	return &Finder{}
}

// Find builds the per-cell neighbor lists for the configured method.
func (f *Finder) Find(ctx context.Context, table *cells.Table, cfg interaction.Config) ([][]int, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Method {
	case interaction.MethodKNN:
		if cfg.KNN > table.Len() {
			return nil, fmt.Errorf("%w: knn=%d exceeds cell count %d", core.ErrInsufficientData, cfg.KNN, table.Len())
		}
		return knnNeighbors(table, cfg.KNN), nil

	case interaction.MethodRadius:
		return radiusNeighbors(table, cfg.Radius), nil

	case interaction.MethodDelaunay:
		// The triangulation backend is planar; the reference reaches for
		// scipy's nD Delaunay here, which has no Go counterpart.
		if table.Is3D() {
			return nil, fmt.Errorf("%w: delaunay method requires 2D coordinates", core.ErrUnsupportedDims)
		}
		return delaunayNeighbors(table)

	default:
		return nil, core.NewConfigError("method", fmt.Sprintf("unsupported neighbor method %q", cfg.Method))
	}
}

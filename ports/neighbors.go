package ports

import (
	"context"

	"cellmap/domain/cells"
	"cellmap/domain/interaction"
)

// NeighborFinder builds the spatial neighbor graph for one image's cells.
// The returned lists are per-cell ordered neighbor indices with the cell
// itself excluded; lengths vary by method (fixed knn-1 for knn, variable
// for radius and delaunay, possibly empty).
type NeighborFinder interface {
	Find(ctx context.Context, table *cells.Table, cfg interaction.Config) ([][]int, error)
}

package spatial

import (
	"fmt"
	"sort"

	"github.com/fogleman/delaunay"

	"cellmap/domain/cells"
	"cellmap/domain/core"
)

// delaunayNeighbors triangulates the cells and connects every pair of
// vertices sharing a simplex, both directions. Adjacency is presence-only:
// a pair appearing in many triangles still yields a single edge. Lists are
// variable-length, sparse per cell, ordered by cell index.
func delaunayNeighbors(table *cells.Table) ([][]int, error) {
	n := table.Len()
	points := make([]delaunay.Point, n)
	for i := 0; i < n; i++ {
		points[i] = delaunay.Point{X: table.X[i], Y: table.Y[i]}
	}

	tri, err := delaunay.Triangulate(points)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDegenerateGeometry, err)
	}
	if len(tri.Triangles) == 0 {
		return nil, fmt.Errorf("%w: triangulation produced no simplices", core.ErrDegenerateGeometry)
	}

	adjacency := make([]map[int]bool, n)
	for i := range adjacency {
		adjacency[i] = make(map[int]bool)
	}
	for t := 0; t+2 < len(tri.Triangles); t += 3 {
		simplex := tri.Triangles[t : t+3]
		for i := 0; i < len(simplex); i++ {
			for j := i + 1; j < len(simplex); j++ {
				adjacency[simplex[i]][simplex[j]] = true
				adjacency[simplex[j]][simplex[i]] = true
			}
		}
	}

	lists := make([][]int, n)
	for i, set := range adjacency {
		neighbors := make([]int, 0, len(set))
		for idx := range set {
			neighbors = append(neighbors, idx)
		}
		sort.Ints(neighbors)
		lists[i] = neighbors
	}
	return lists, nil
}

package spatial

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"cellmap/domain/cells"
)

// cellPoint is a kd-tree comparable that remembers which cell it came
// from, so query results can be resolved back to cell indices.
type cellPoint struct {
	kdtree.Point
	index int
}

func (p cellPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(cellPoint)
	return p.Point[d] - q.Point[d]
}

func (p cellPoint) Dims() int { return len(p.Point) }

// Distance returns the squared Euclidean distance between points, per the
// kdtree.Point convention. Radius queries square the threshold to match.
func (p cellPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(cellPoint)
	return p.Point.Distance(q.Point)
}

type cellPoints []cellPoint

func (p cellPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p cellPoints) Len() int                              { return len(p) }
func (p cellPoints) Pivot(d kdtree.Dim) int                { return plane{Dim: d, cellPoints: p}.Pivot() }
func (p cellPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

type plane struct {
	kdtree.Dim
	cellPoints
}

func (p plane) Less(i, j int) bool {
	return p.cellPoints[i].Point[p.Dim] < p.cellPoints[j].Point[p.Dim]
}
func (p plane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.cellPoints = p.cellPoints[start:end]
	return p
}
func (p plane) Swap(i, j int) {
	p.cellPoints[i], p.cellPoints[j] = p.cellPoints[j], p.cellPoints[i]
}

// buildTree indexes the table's coordinates. The tree reorders its input,
// so queries use a separate index-ordered point slice.
func buildTree(table *cells.Table) (*kdtree.Tree, cellPoints) {
	query := make(cellPoints, table.Len())
	for i := range query {
		query[i] = cellPoint{Point: kdtree.Point(table.Coordinates(i)), index: i}
	}
	indexed := make(cellPoints, len(query))
	copy(indexed, query)
	return kdtree.New(indexed, false), query
}

// knnNeighbors returns, for every cell, the k nearest cells including the
// cell itself with the self entry dropped: exactly k-1 neighbors per cell,
// ordered by increasing distance.
func knnNeighbors(table *cells.Table, k int) [][]int {
	tree, query := buildTree(table)
	lists := make([][]int, table.Len())

	for i, q := range query {
		keep := kdtree.NewNKeeper(k)
		tree.NearestSet(keep, q)

		type hit struct {
			index int
			dist  float64
		}
		hits := make([]hit, 0, k)
		for _, c := range keep.Heap {
			if c.Comparable == nil {
				continue
			}
			hits = append(hits, hit{index: c.Comparable.(cellPoint).index, dist: c.Dist})
		}
		sort.Slice(hits, func(a, b int) bool {
			if hits[a].dist != hits[b].dist {
				return hits[a].dist < hits[b].dist
			}
			return hits[a].index < hits[b].index
		})

		neighbors := make([]int, 0, k-1)
		for _, h := range hits {
			if h.index == i {
				continue
			}
			neighbors = append(neighbors, h.index)
		}
		if len(neighbors) > k-1 {
			neighbors = neighbors[:k-1]
		}
		lists[i] = neighbors
	}
	return lists
}

// radiusNeighbors returns every cell within the inclusive distance
// threshold, self excluded, ordered by cell index. Lists can be empty.
func radiusNeighbors(table *cells.Table, radius float64) [][]int {
	tree, query := buildTree(table)
	lists := make([][]int, table.Len())

	for i, q := range query {
		keep := kdtree.NewDistKeeper(radius * radius)
		tree.NearestSet(keep, q)

		neighbors := []int{}
		for _, c := range keep.Heap {
			if c.Comparable == nil {
				continue
			}
			idx := c.Comparable.(cellPoint).index
			if idx == i {
				continue
			}
			neighbors = append(neighbors, idx)
		}
		sort.Ints(neighbors)
		lists[i] = neighbors
	}
	return lists
}

package spatial

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"cellmap/domain/cells"
	"cellmap/domain/core"
	"cellmap/domain/interaction"
	"cellmap/internal/testkit"
)

func grid3x3() *cells.Table {
	return testkit.GridTable("img1", 3, 3, 1.0, []string{"A"})
}

func TestFinder_KNN(t *testing.T) {
	table := grid3x3()
	cfg := interaction.DefaultConfig()
	cfg.Method = interaction.MethodKNN
	cfg.KNN = 4

	lists, err := NewFinder().Find(context.Background(), table, cfg)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if len(lists) != table.Len() {
		t.Fatalf("got %d lists, want %d", len(lists), table.Len())
	}
	for i, list := range lists {
		if len(list) != cfg.KNN-1 {
			t.Errorf("cell %d has %d neighbors, want %d", i, len(list), cfg.KNN-1)
		}
		for _, j := range list {
			if j == i {
				t.Errorf("cell %d lists itself as a neighbor", i)
			}
			if j < 0 || j >= table.Len() {
				t.Errorf("cell %d has out-of-range neighbor %d", i, j)
			}
		}
	}

	// Corner cell (0,0): the 3 nearest others are unambiguous, ordered by
	// increasing distance with index breaking the tie at distance 1.
	if !reflect.DeepEqual(lists[0], []int{1, 3, 4}) {
		t.Errorf("corner neighbors = %v, want [1 3 4]", lists[0])
	}
}

func TestFinder_KNN_CenterCell(t *testing.T) {
	table := grid3x3()
	cfg := interaction.DefaultConfig()
	cfg.Method = interaction.MethodKNN
	cfg.KNN = 5

	lists, err := NewFinder().Find(context.Background(), table, cfg)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	// Center cell (1,1): the 4 orthogonal cells all sit at distance 1.
	if !reflect.DeepEqual(lists[4], []int{1, 3, 5, 7}) {
		t.Errorf("center neighbors = %v, want [1 3 5 7]", lists[4])
	}
}

func TestFinder_KNN_InsufficientCells(t *testing.T) {
	table := grid3x3()
	cfg := interaction.DefaultConfig()
	cfg.Method = interaction.MethodKNN
	cfg.KNN = 10

	_, err := NewFinder().Find(context.Background(), table, cfg)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("Find() error = %v, want insufficient data", err)
	}
}

func TestFinder_Radius(t *testing.T) {
	table := grid3x3()
	cfg := interaction.DefaultConfig()
	cfg.Method = interaction.MethodRadius
	cfg.Radius = 1.0

	lists, err := NewFinder().Find(context.Background(), table, cfg)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}

	// The threshold is inclusive, so radius 1.0 on a unit grid connects
	// exactly the orthogonal cells.
	want := map[int][]int{
		0: {1, 3},
		1: {0, 2, 4},
		4: {1, 3, 5, 7},
		8: {5, 7},
	}
	for cell, neighbors := range want {
		if !reflect.DeepEqual(lists[cell], neighbors) {
			t.Errorf("cell %d neighbors = %v, want %v", cell, lists[cell], neighbors)
		}
	}

	for i, list := range lists {
		for _, j := range list {
			dx := table.X[i] - table.X[j]
			dy := table.Y[i] - table.Y[j]
			if d := math.Sqrt(dx*dx + dy*dy); d > cfg.Radius {
				t.Errorf("cells %d and %d are %v apart, beyond radius %v", i, j, d, cfg.Radius)
			}
		}
	}
}

func TestFinder_Radius_IsolatedCell(t *testing.T) {
	table := &cells.Table{
		X:         []float64{0, 1, 100},
		Y:         []float64{0, 0, 100},
		Phenotype: []string{"A", "A", "B"},
		ImageID:   []string{"img1", "img1", "img1"},
	}
	cfg := interaction.DefaultConfig()
	cfg.Method = interaction.MethodRadius
	cfg.Radius = 1.5

	lists, err := NewFinder().Find(context.Background(), table, cfg)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if len(lists[2]) != 0 {
		t.Errorf("isolated cell has neighbors %v, want none", lists[2])
	}
}

func TestFinder_Delaunay_Symmetric(t *testing.T) {
	table := testkit.RandomTable("img1", 30, 100, []string{"A", "B"}, 11)
	cfg := interaction.DefaultConfig()
	cfg.Method = interaction.MethodDelaunay

	lists, err := NewFinder().Find(context.Background(), table, cfg)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	if len(lists) != table.Len() {
		t.Fatalf("got %d lists, want %d", len(lists), table.Len())
	}

	contains := func(list []int, v int) bool {
		for _, x := range list {
			if x == v {
				return true
			}
		}
		return false
	}
	for i, list := range lists {
		if len(list) == 0 {
			t.Errorf("cell %d has no neighbors in the triangulation", i)
		}
		for _, j := range list {
			if j == i {
				t.Errorf("cell %d lists itself", i)
			}
			if !contains(lists[j], i) {
				t.Errorf("edge %d->%d is not symmetric", i, j)
			}
		}
	}
}

func TestFinder_Delaunay_Square(t *testing.T) {
	table := testkit.TwoPhenotypeSquare("img1")
	cfg := interaction.DefaultConfig()
	cfg.Method = interaction.MethodDelaunay

	lists, err := NewFinder().Find(context.Background(), table, cfg)
	if err != nil {
		t.Fatalf("Find() error: %v", err)
	}
	// Two triangles cover the square; every vertex touches at least its
	// two adjacent sides.
	for i, list := range lists {
		if len(list) < 2 {
			t.Errorf("cell %d has %d neighbors, want at least 2", i, len(list))
		}
	}
}

func TestFinder_Delaunay_Degenerate(t *testing.T) {
	table := &cells.Table{
		X:         []float64{0, 1},
		Y:         []float64{0, 0},
		Phenotype: []string{"A", "B"},
		ImageID:   []string{"img1", "img1"},
	}
	cfg := interaction.DefaultConfig()
	cfg.Method = interaction.MethodDelaunay

	_, err := NewFinder().Find(context.Background(), table, cfg)
	if !errors.Is(err, core.ErrDegenerateGeometry) {
		t.Fatalf("Find() error = %v, want degenerate geometry", err)
	}
}

func TestFinder_Delaunay_Rejects3D(t *testing.T) {
	table := testkit.TwoPhenotypeSquare("img1")
	table.Z = []float64{0, 0, 1, 1}
	cfg := interaction.DefaultConfig()
	cfg.Method = interaction.MethodDelaunay

	_, err := NewFinder().Find(context.Background(), table, cfg)
	if !errors.Is(err, core.ErrUnsupportedDims) {
		t.Fatalf("Find() error = %v, want unsupported dims", err)
	}
}

func TestFinder_UnknownMethod(t *testing.T) {
	table := grid3x3()
	cfg := interaction.DefaultConfig()
	cfg.Method = "voronoi"

	_, err := NewFinder().Find(context.Background(), table, cfg)
	if !core.IsConfigError(err) {
		t.Fatalf("Find() error = %v, want config error", err)
	}
}

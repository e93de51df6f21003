package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"cellmap/adapters/rng"
	"cellmap/adapters/spatial"
	"cellmap/domain/cells"
	"cellmap/domain/core"
	"cellmap/domain/interaction"
	"cellmap/internal/testkit"
)

func newTestEngine() *Engine {
	return New(spatial.NewFinder(), rng.NewAdapter())
}

func squareConfig() interaction.Config {
	cfg := interaction.DefaultConfig()
	cfg.Method = interaction.MethodRadius
	cfg.Radius = 1.5
	cfg.Permutation = 50
	return cfg
}

func TestAnalyzeImage_ZScoreColumns(t *testing.T) {
	table := testkit.TwoPhenotypeSquare("img1")
	result, err := newTestEngine().AnalyzeImage(context.Background(), table, squareConfig())
	if err != nil {
		t.Fatalf("AnalyzeImage() error: %v", err)
	}
	if result.ImageID != "img1" {
		t.Errorf("ImageID = %q, want img1", result.ImageID)
	}

	wantColumns := []string{"zscore_img1", "pvalue_img1", "count_img1"}
	if !reflect.DeepEqual(result.Table.Columns, wantColumns) {
		t.Fatalf("columns = %v, want %v", result.Table.Columns, wantColumns)
	}

	wantPairs := interaction.PairKeys([]string{"A", "B"})
	if !reflect.DeepEqual(result.Table.Pairs, wantPairs) {
		t.Fatalf("pairs = %v, want %v", result.Table.Pairs, wantPairs)
	}

	// With radius 1.5 every cell touches every other cell: each A cell
	// sees one A and two Bs, over two A cells total.
	counts, _ := result.Table.Column("count_img1")
	wantCounts := []float64{1, 2, 2, 1}
	if !reflect.DeepEqual(counts, wantCounts) {
		t.Errorf("observed frequencies = %v, want %v", counts, wantCounts)
	}

	pvalues, _ := result.Table.Column("pvalue_img1")
	for i, p := range pvalues {
		if p < 0 || p > 1 {
			t.Errorf("pvalue[%d] = %v, outside [0, 1]", i, p)
		}
	}
	if result.SuppressedFraction != 0 {
		t.Errorf("SuppressedFraction = %v, want 0 under total normalization", result.SuppressedFraction)
	}
}

func TestAnalyzeImage_AbsColumns(t *testing.T) {
	table := testkit.TwoPhenotypeSquare("img1")
	cfg := squareConfig()
	cfg.PValMethod = interaction.PValAbs
	cfg.Permutation = 100

	result, err := newTestEngine().AnalyzeImage(context.Background(), table, cfg)
	if err != nil {
		t.Fatalf("AnalyzeImage() error: %v", err)
	}

	wantColumns := []string{"img1", "pvalue_img1"}
	if !reflect.DeepEqual(result.Table.Columns, wantColumns) {
		t.Fatalf("columns = %v, want %v", result.Table.Columns, wantColumns)
	}

	// The A->B frequency is as high as the geometry allows, but the
	// four-cell null still reaches it often; the empirical p stays
	// moderate rather than collapsing toward 0 or 1.
	p, ok := result.Table.Value(interaction.PairKey{Phenotype: "A", NeighbourPhenotype: "B"}, "pvalue_img1")
	if !ok {
		t.Fatal("missing A->B pvalue")
	}
	if p < 0.02 || p > 0.65 {
		t.Errorf("A->B pvalue = %v, want a moderate value in (0.02, 0.65)", p)
	}

	counts, _ := result.Table.Column("img1")
	if counts[1] <= 0 {
		t.Errorf("A->B signed count = %v, want positive (observed above null mean)", counts[1])
	}
}

func TestAnalyzeImage_Reproducible(t *testing.T) {
	table := testkit.TwoPhenotypeSquare("img1")
	cfg := squareConfig()
	cfg.Permutation = 128

	eng := newTestEngine()
	first, err := eng.AnalyzeImage(context.Background(), table, cfg)
	if err != nil {
		t.Fatalf("AnalyzeImage() error: %v", err)
	}
	second, err := eng.AnalyzeImage(context.Background(), table, cfg)
	if err != nil {
		t.Fatalf("AnalyzeImage() error: %v", err)
	}
	if !reflect.DeepEqual(first.Table.Data, second.Table.Data) {
		t.Error("repeated analysis of the same image must be bit-identical")
	}
}

func TestAnalyzeImage_ConditionalSuppression(t *testing.T) {
	table := testkit.TwoPhenotypeSquare("img1")
	cfg := squareConfig()
	cfg.Normalization = interaction.NormalizationConditional

	// Every deduplicated pair count is 2, below the default threshold of 5.
	result, err := newTestEngine().AnalyzeImage(context.Background(), table, cfg)
	if err != nil {
		t.Fatalf("AnalyzeImage() error: %v", err)
	}
	if result.SuppressedFraction != 1 {
		t.Errorf("SuppressedFraction = %v, want 1", result.SuppressedFraction)
	}
	counts, _ := result.Table.Column("count_img1")
	for i, v := range counts {
		if v != 0 {
			t.Errorf("observed[%d] = %v, want 0 when suppressed", i, v)
		}
	}

	// Lowering the threshold below the support lets every pair through.
	cfg.CondCountsThreshold = 2
	result, err = newTestEngine().AnalyzeImage(context.Background(), table, cfg)
	if err != nil {
		t.Fatalf("AnalyzeImage() error: %v", err)
	}
	if result.SuppressedFraction != 0 {
		t.Errorf("SuppressedFraction = %v, want 0", result.SuppressedFraction)
	}
	counts, _ = result.Table.Column("count_img1")
	for i, v := range counts {
		if v != 1 {
			t.Errorf("observed[%d] = %v, want 1", i, v)
		}
	}
}

func TestAnalyzeImage_NoEdges(t *testing.T) {
	table := &cells.Table{
		X:         []float64{0, 100},
		Y:         []float64{0, 100},
		Phenotype: []string{"A", "B"},
		ImageID:   []string{"img1", "img1"},
	}
	cfg := squareConfig()

	_, err := newTestEngine().AnalyzeImage(context.Background(), table, cfg)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("AnalyzeImage() error = %v, want insufficient data", err)
	}
}

func TestAnalyzeImage_SingleImageColumnSuffix(t *testing.T) {
	table := testkit.GridTable("slide_7", 4, 4, 10, []string{"A", "B", "C"})
	cfg := interaction.DefaultConfig()
	cfg.Method = interaction.MethodKNN
	cfg.KNN = 4
	cfg.Permutation = 50

	result, err := newTestEngine().AnalyzeImage(context.Background(), table, cfg)
	if err != nil {
		t.Fatalf("AnalyzeImage() error: %v", err)
	}
	wantColumns := []string{"zscore_slide_7", "pvalue_slide_7", "count_slide_7"}
	if !reflect.DeepEqual(result.Table.Columns, wantColumns) {
		t.Errorf("columns = %v, want %v", result.Table.Columns, wantColumns)
	}
	if len(result.Table.Pairs) != 9 {
		t.Errorf("got %d pairs, want 9 for 3 phenotypes", len(result.Table.Pairs))
	}
}

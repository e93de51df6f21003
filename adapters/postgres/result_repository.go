package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"

	"cellmap/domain/core"
	"cellmap/domain/interaction"
	"cellmap/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS interaction_results (
	run_id              UUID NOT NULL,
	label               TEXT NOT NULL,
	pair_order          INT NOT NULL,
	phenotype           TEXT NOT NULL,
	neighbour_phenotype TEXT NOT NULL,
	column_order        INT NOT NULL,
	column_name         TEXT NOT NULL,
	value               DOUBLE PRECISION,
	created_at          TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interaction_results_label ON interaction_results (label);
`

// ResultRepository persists merged result tables in postgres, one row per
// (pair, column) cell. NaN absence markers round-trip as SQL NULL.
type ResultRepository struct {
	db *sqlx.DB
}

var _ ports.ResultRepository = (*ResultRepository)(nil)

// NewResultRepository creates a new result repository
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// EnsureSchema creates the backing table when missing.
func (r *ResultRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure interaction_results schema: %w", err)
	}
	return nil
}

// Save stores the table under the given label, replacing any previous
// table saved with that label.
func (r *ResultRepository) Save(ctx context.Context, label string, table *interaction.ResultTable) (core.RunID, error) {
	runID := core.RunID(core.NewID())

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM interaction_results WHERE label = $1`, label); err != nil {
		return "", fmt.Errorf("failed to clear label %s: %w", label, err)
	}

	insert := `INSERT INTO interaction_results (
		run_id, label, pair_order, phenotype, neighbour_phenotype,
		column_order, column_name, value, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	createdAt := core.Now().Time()
	for pairOrder, pair := range table.Pairs {
		for colOrder, name := range table.Columns {
			v := table.Data[name][pairOrder]
			var value sql.NullFloat64
			if !math.IsNaN(v) {
				value = sql.NullFloat64{Float64: v, Valid: true}
			}
			if _, err := tx.ExecContext(ctx, insert,
				runID.String(), label, pairOrder, pair.Phenotype, pair.NeighbourPhenotype,
				colOrder, name, value, createdAt,
			); err != nil {
				return "", fmt.Errorf("failed to insert result row: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit results: %w", err)
	}
	return runID, nil
}

// Load reconstructs the table stored under a label.
func (r *ResultRepository) Load(ctx context.Context, label string) (*interaction.ResultTable, error) {
	query := `SELECT pair_order, phenotype, neighbour_phenotype, column_order, column_name, value
	FROM interaction_results WHERE label = $1
	ORDER BY pair_order, column_order`

	rows, err := r.db.QueryContext(ctx, query, label)
	if err != nil {
		return nil, fmt.Errorf("failed to load results for label %s: %w", label, err)
	}
	defer rows.Close()

	var pairs []interaction.PairKey
	var columns []string
	type cell struct {
		pair, col int
		value     float64
	}
	var cellValues []cell

	for rows.Next() {
		var pairOrder, colOrder int
		var phenotype, neighbour, name string
		var value sql.NullFloat64
		if err := rows.Scan(&pairOrder, &phenotype, &neighbour, &colOrder, &name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		for len(pairs) <= pairOrder {
			pairs = append(pairs, interaction.PairKey{})
		}
		pairs[pairOrder] = interaction.PairKey{Phenotype: phenotype, NeighbourPhenotype: neighbour}
		for len(columns) <= colOrder {
			columns = append(columns, "")
		}
		columns[colOrder] = name
		v := math.NaN()
		if value.Valid {
			v = value.Float64
		}
		cellValues = append(cellValues, cell{pair: pairOrder, col: colOrder, value: v})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read result rows: %w", err)
	}
	if len(pairs) == 0 {
		return nil, core.NewNotFoundError("result table", label)
	}

	table := interaction.NewResultTable(pairs)
	data := make([][]float64, len(columns))
	for i := range data {
		data[i] = make([]float64, len(pairs))
		for j := range data[i] {
			data[i][j] = math.NaN()
		}
	}
	for _, c := range cellValues {
		data[c.col][c.pair] = c.value
	}
	for i, name := range columns {
		if err := table.AddColumn(name, data[i]); err != nil {
			return nil, err
		}
	}
	return table, nil
}

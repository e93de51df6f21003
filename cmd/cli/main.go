package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"cellmap/adapters/excel"
	"cellmap/adapters/postgres"
	"cellmap/adapters/rng"
	"cellmap/adapters/spatial"
	"cellmap/adapters/stats/engine"
	"cellmap/app"
	"cellmap/domain/interaction"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cellmap",
		Short: "Spatial co-localization analysis for single-cell imaging data",
	}

	rootCmd.AddCommand(newRunCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		input    string
		output   string
		xColumn  string
		yColumn  string
		zColumn  string
		phColumn string
		imColumn string
		store    bool
		label    string
	)
	cfg := interaction.DefaultConfig()
	method := string(cfg.Method)
	normalization := string(cfg.Normalization)
	pvalMethod := string(cfg.PValMethod)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the permutation-based interaction analysis over a cell table",
		Long: `Run spatial interaction analysis on a per-cell table (xlsx or csv).

Example: cellmap run --input cells.csv --method radius --radius 30 --permutation 1000 --output interactions.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Method = interaction.Method(method)
			cfg.Normalization = interaction.Normalization(normalization)
			cfg.PValMethod = interaction.PValMethod(pvalMethod)
			if err := cfg.Validate(); err != nil {
				return err
			}

			columns := excel.DefaultColumns()
			columns.X = xColumn
			columns.Y = yColumn
			columns.Z = zColumn
			columns.Phenotype = phColumn
			columns.ImageID = imColumn

			table, err := excel.NewCellReader(input, columns).ReadCellTable()
			if err != nil {
				return err
			}

			service := app.NewSpatialInteractionService(engine.New(spatial.NewFinder(), rng.NewAdapter()))
			merged, err := service.Run(cmd.Context(), table, cfg)
			if err != nil {
				return err
			}

			if output != "" {
				if err := excel.WriteResultTable(output, merged); err != nil {
					return err
				}
			}

			if store {
				if err := godotenv.Load(); err != nil {
					log.Printf("[CLI] No .env file loaded: %v", err)
				}
				dsn := os.Getenv("DATABASE_URL")
				if dsn == "" {
					return fmt.Errorf("--store requires DATABASE_URL to be set")
				}
				db, err := sqlx.Connect("postgres", dsn)
				if err != nil {
					return fmt.Errorf("failed to connect to database: %w", err)
				}
				defer db.Close()

				repo := postgres.NewResultRepository(db)
				if err := repo.EnsureSchema(cmd.Context()); err != nil {
					return err
				}
				runID, err := repo.Save(cmd.Context(), label, merged)
				if err != nil {
					return err
				}
				log.Printf("[CLI] Stored results under label %q (run %s)", label, runID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "per-cell table (xlsx or csv)")
	cmd.Flags().StringVar(&output, "output", "", "write the merged result table to this xlsx path")
	cmd.Flags().StringVar(&xColumn, "x-column", excel.DefaultColumns().X, "x coordinate column")
	cmd.Flags().StringVar(&yColumn, "y-column", excel.DefaultColumns().Y, "y coordinate column")
	cmd.Flags().StringVar(&zColumn, "z-column", "", "z coordinate column (3D datasets)")
	cmd.Flags().StringVar(&phColumn, "phenotype-column", excel.DefaultColumns().Phenotype, "phenotype column")
	cmd.Flags().StringVar(&imColumn, "image-column", excel.DefaultColumns().ImageID, "image identifier column")
	cmd.Flags().StringVar(&method, "method", method, "neighbor method: knn, radius or delaunay")
	cmd.Flags().Float64Var(&cfg.Radius, "radius", cfg.Radius, "neighborhood radius (radius method)")
	cmd.Flags().IntVar(&cfg.KNN, "knn", cfg.KNN, "neighbor count including self (knn method)")
	cmd.Flags().IntVar(&cfg.Permutation, "permutation", cfg.Permutation, "number of permutation trials")
	cmd.Flags().StringVar(&normalization, "normalization", normalization, "frequency normalization: total or conditional")
	cmd.Flags().IntVar(&cfg.CondCountsThreshold, "cond-counts-threshold", cfg.CondCountsThreshold, "minimum raw pair count (conditional normalization)")
	cmd.Flags().StringVar(&pvalMethod, "pval-method", pvalMethod, "p-value method: abs or zscore")
	cmd.Flags().BoolVar(&cfg.Scaling, "scaling", false, "min-max rescale observed and null values to [-1, 1] before scoring")
	cmd.Flags().StringVar(&cfg.Subset, "subset", "", "restrict analysis to one image identifier")
	cmd.Flags().BoolVar(&store, "store", false, "persist the merged table to postgres (DATABASE_URL)")
	cmd.Flags().StringVar(&label, "label", "spatial_interaction", "storage label for the merged table")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

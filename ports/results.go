package ports

import (
	"context"

	"cellmap/domain/core"
	"cellmap/domain/interaction"
)

// ResultRepository persists merged interaction result tables under a
// caller-chosen label.
type ResultRepository interface {
	Save(ctx context.Context, label string, table *interaction.ResultTable) (core.RunID, error)
	Load(ctx context.Context, label string) (*interaction.ResultTable, error)
}

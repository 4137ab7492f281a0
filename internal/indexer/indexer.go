// Package indexer pushes the report dataset into queryable stores. The TSV
// file stays the contractual output; these sinks serve the dashboard.
package indexer

import (
	"context"

	"github.com/project-tktt/salary-pulse/internal/domain"
)

// Indexer stores the full dataset of a run.
type Indexer interface {
	BulkIndex(ctx context.Context, reports []domain.Report) error
}

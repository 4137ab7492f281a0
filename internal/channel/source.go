// Package channel defines where salary reports come from.
package channel

import (
	"context"

	"github.com/project-tktt/salary-pulse/internal/domain"
)

// Source supplies the full message history of a channel, oldest first.
// A run reads the stream exactly once; a fresh run re-reads from the start.
// Failure to reach the channel is fatal for the run.
type Source interface {
	Messages(ctx context.Context, channel string) ([]domain.RawMessage, error)
}

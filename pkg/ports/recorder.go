package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// Recorder receives the final snapshot of every run. Implementations must
// not block the caller and must not report persistence failures back to it.
type Recorder interface {
	Record(ctx context.Context, snapshot domain.Snapshot)
}

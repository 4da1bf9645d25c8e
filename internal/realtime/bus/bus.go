package bus

import (
	"context"

	"github.com/edupulse/a11y-backend/internal/realtime"
)

// Bus fans narration/style events out across server instances, so the
// instance holding a client's SSE stream delivers events produced by any
// instance that handled one of the session's requests.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}

package video

import (
	"context"

	"github.com/google/uuid"
)

// Store persists Video records. TransitionStatus is the only status
// write path: callers never update the status field directly.
type Store interface {
	Insert(ctx context.Context, v *Video) error
	Get(ctx context.Context, id uuid.UUID) (*Video, error)

	// TransitionStatus applies the lifecycle state machine: the write
	// happens only when next is the current status or a direct
	// successor of it. Invalid requests are ignored, not errors, and
	// the resulting status is returned either way.
	TransitionStatus(ctx context.Context, id uuid.UUID, next Status) (Status, error)

	ListByStatus(ctx context.Context, status Status) ([]Video, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

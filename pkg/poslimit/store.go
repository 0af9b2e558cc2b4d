package poslimit

import (
	"context"

	"github.com/google/uuid"
)

// ResourceStore is the persistence boundary for limited resources.
// Methods join an ambient transaction when the context carries one, so a
// plan change can deactivate resources atomically with the plan pointer
// move.
type ResourceStore interface {
	// CountActive returns the number of active resources held by the owner.
	CountActive(ctx context.Context, ownerID uuid.UUID) (int, error)

	// ListActiveOrderedByCreation returns the owner's active resources in
	// ascending CreatedAt order, oldest first.
	ListActiveOrderedByCreation(ctx context.Context, ownerID uuid.UUID) ([]Resource, error)

	// Deactivate marks the given resources inactive. Unknown or already
	// inactive IDs are ignored.
	Deactivate(ctx context.Context, ids []uuid.UUID) error
}

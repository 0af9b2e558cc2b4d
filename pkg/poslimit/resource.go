package poslimit

import (
	"time"

	"github.com/google/uuid"
)

// Unlimited is the plan limit value that disables enforcement entirely.
const Unlimited = 0

// Resource is a limited, owner-scoped resource, typically a point of sale.
// CreatedAt is the ordering key: on downgrade the oldest resources survive
// and everything newer is deactivated.
type Resource struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Active    bool
	CreatedAt time.Time
}

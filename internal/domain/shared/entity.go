package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity is the identity and audit stamp embedded by products and orders.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Now is the clock behind entity timestamps. Values are UTC at microsecond
// precision, which is what timestamptz keeps.
var Now = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func NewBaseEntity() BaseEntity {
	at := Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: at, UpdatedAt: at}
}

// Touch records a modification.
func (e *BaseEntity) Touch() {
	e.UpdatedAt = Now()
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Thread is a named, owned conversation. Threads are created explicitly or
// lazily on the first question asked without an active thread, in which case
// the name is derived from the question text.
type Thread struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

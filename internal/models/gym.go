package models

import (
	"time"

	"github.com/google/uuid"
)

// Gym is the tenant root; every other entity's tenant filter traces to Gym.ID.
type Gym struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Address   *string   `json:"address" db:"address"`
	Phone     *string   `json:"phone" db:"phone"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

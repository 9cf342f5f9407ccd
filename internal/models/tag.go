package models

import (
	"time"

	"github.com/google/uuid"
)

// Tag categorizes leads; many-to-many via the lead_tags table.
type Tag struct {
	ID        uuid.UUID `json:"id" db:"id"`
	GymID     uuid.UUID `json:"gym_id" db:"gym_id"`
	Name      string    `json:"name" db:"name"`
	Color     *string   `json:"color" db:"color"` // hex color code
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

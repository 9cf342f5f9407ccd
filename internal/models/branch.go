package models

import (
	"time"

	"github.com/google/uuid"
)

type Branch struct {
	ID        uuid.UUID `json:"id" db:"id"`
	GymID     uuid.UUID `json:"gym_id" db:"gym_id"`
	Name      string    `json:"name" db:"name"`
	Address   *string   `json:"address" db:"address"`
	Phone     *string   `json:"phone" db:"phone"`
	Email     *string   `json:"email" db:"email"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

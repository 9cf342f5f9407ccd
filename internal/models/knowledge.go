package models

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeItem is a Q&A entry or uploaded document the voice agent draws on.
type KnowledgeItem struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	GymID     uuid.UUID  `json:"gym_id" db:"gym_id"`
	BranchID  *uuid.UUID `json:"branch_id" db:"branch_id"`
	Question  *string    `json:"question" db:"question"`
	Answer    *string    `json:"answer" db:"answer"`
	PDFURL    *string    `json:"pdf_url" db:"pdf_url"`
	Tags      *string    `json:"tags" db:"tags"` // JSON array of tag names
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// KnowledgeFilter is the closed set of list predicates for knowledge items.
type KnowledgeFilter struct {
	BranchID *uuid.UUID `json:"branch_id,omitempty"`
	Search   string     `json:"search,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}

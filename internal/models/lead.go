package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead statuses. "lost" is the soft-delete used in normal flow; hard deletes
// exist only for erroneous records.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusConverted = "converted"
	LeadStatusLost      = "lost"
)

// Lead sources.
const (
	LeadSourceWebsite  = "website"
	LeadSourceReferral = "referral"
	LeadSourceWalkIn   = "walk_in"
	LeadSourcePhone    = "phone"
	LeadSourceSocial   = "social"
	LeadSourceOther    = "other"
)

// ValidLeadStatus reports whether status is a known lead status.
func ValidLeadStatus(status string) bool {
	switch status {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost:
		return true
	}
	return false
}

// ValidLeadSource reports whether source is a known lead source.
func ValidLeadSource(source string) bool {
	switch source {
	case LeadSourceWebsite, LeadSourceReferral, LeadSourceWalkIn, LeadSourcePhone, LeadSourceSocial, LeadSourceOther:
		return true
	}
	return false
}

type Lead struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	GymID              uuid.UUID  `json:"gym_id" db:"gym_id"`
	BranchID           *uuid.UUID `json:"branch_id" db:"branch_id"`
	AssignedToUserID   *uuid.UUID `json:"assigned_to_user_id" db:"assigned_to_user_id"`
	FirstName          string     `json:"first_name" db:"first_name"`
	LastName           string     `json:"last_name" db:"last_name"`
	Phone              string     `json:"phone" db:"phone"`
	Email              *string    `json:"email" db:"email"`
	Status             string     `json:"status" db:"status"`
	Source             *string    `json:"source" db:"source"`
	Notes              *string    `json:"notes" db:"notes"`
	Interest           *string    `json:"interest" db:"interest"`
	LastConvSummary    *string    `json:"last_conversation_summary" db:"last_conversation_summary"`
	LastCalled         *time.Time `json:"last_called" db:"last_called"`
	QualificationScore *int       `json:"qualification_score" db:"qualification_score"`
	QualificationNotes *string    `json:"qualification_notes" db:"qualification_notes"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// LeadFilter is the closed set of list predicates for leads. Filtering is by
// struct field only, so there is no unknown-key laxity to inherit.
type LeadFilter struct {
	Status     *string    `json:"status,omitempty"`
	Source     *string    `json:"source,omitempty"`
	BranchID   *uuid.UUID `json:"branch_id,omitempty"`
	AssignedTo *uuid.UUID `json:"assigned_to,omitempty"`
	Search     string     `json:"search,omitempty"` // name/phone/email containment
	SortBy     string     `json:"sort_by,omitempty"`
	SortOrder  string     `json:"sort_order,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}

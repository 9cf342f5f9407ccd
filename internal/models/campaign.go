package models

import (
	"time"

	"github.com/google/uuid"
)

// Campaign statuses. completed and cancelled are terminal; paused campaigns
// may resume.
const (
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
	CampaignStatusCancelled = "cancelled"
)

var campaignTransitions = map[string][]string{
	CampaignStatusActive: {CampaignStatusPaused, CampaignStatusCompleted, CampaignStatusCancelled},
	CampaignStatusPaused: {CampaignStatusActive, CampaignStatusCompleted, CampaignStatusCancelled},
}

// CampaignStatusTerminal reports whether status permits no further transitions.
func CampaignStatusTerminal(status string) bool {
	switch status {
	case CampaignStatusCompleted, CampaignStatusCancelled:
		return true
	}
	return false
}

// CanTransitionCampaign reports whether a campaign may move from one status to
// another.
func CanTransitionCampaign(from, to string) bool {
	for _, next := range campaignTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidCampaignStatus reports whether status is a known campaign status.
func ValidCampaignStatus(status string) bool {
	switch status {
	case CampaignStatusActive, CampaignStatusPaused, CampaignStatusCompleted, CampaignStatusCancelled:
		return true
	}
	return false
}

// Campaign is a recurring outbound follow-up drive over a set of member leads.
// The dialer visits an active campaign every FrequencyDays and never calls the
// same lead again within GapDays of its last call.
type Campaign struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	GymID         uuid.UUID  `json:"gym_id" db:"gym_id"`
	BranchID      *uuid.UUID `json:"branch_id" db:"branch_id"`
	Name          string     `json:"name" db:"name"`
	Description   *string    `json:"description" db:"description"`
	StartDate     time.Time  `json:"start_date" db:"start_date"`
	EndDate       *time.Time `json:"end_date" db:"end_date"`
	FrequencyDays int        `json:"frequency_days" db:"frequency_days"`
	GapDays       int        `json:"gap_days" db:"gap_days"`
	Status        string     `json:"status" db:"status"`
	LastRunAt     *time.Time `json:"last_run_at" db:"last_run_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// CampaignFilter is the closed set of list predicates for campaigns.
type CampaignFilter struct {
	Status *string `json:"status,omitempty"`
	Limit  int     `json:"limit,omitempty"`
	Offset int     `json:"offset,omitempty"`
}

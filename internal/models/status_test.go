package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionCall(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"scheduled to in_progress", CallStatusScheduled, CallStatusInProgress, true},
		{"scheduled to canceled", CallStatusScheduled, CallStatusCanceled, true},
		{"scheduled straight to no_answer", CallStatusScheduled, CallStatusNoAnswer, true},
		{"in_progress to completed", CallStatusInProgress, CallStatusCompleted, true},
		{"in_progress to failed", CallStatusInProgress, CallStatusFailed, true},
		{"in_progress cannot be canceled", CallStatusInProgress, CallStatusCanceled, false},
		{"completed is final", CallStatusCompleted, CallStatusInProgress, false},
		{"failed cannot complete", CallStatusFailed, CallStatusCompleted, false},
		{"canceled cannot restart", CallStatusCanceled, CallStatusScheduled, false},
		{"no self transition", CallStatusScheduled, CallStatusScheduled, false},
		{"unknown source", "ringing", CallStatusCompleted, false},
		{"unknown target", CallStatusScheduled, "ringing", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransitionCall(tt.from, tt.to))
		})
	}
}

func TestCallStatusTerminal(t *testing.T) {
	assert.True(t, CallStatusTerminal(CallStatusCompleted))
	assert.True(t, CallStatusTerminal(CallStatusFailed))
	assert.True(t, CallStatusTerminal(CallStatusNoAnswer))
	assert.True(t, CallStatusTerminal(CallStatusCanceled))
	assert.False(t, CallStatusTerminal(CallStatusScheduled))
	assert.False(t, CallStatusTerminal(CallStatusInProgress))
	assert.False(t, CallStatusTerminal("ringing"))
}

func TestCanTransitionAppointment(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"scheduled to confirmed", AppointmentStatusScheduled, AppointmentStatusConfirmed, true},
		{"scheduled straight to completed", AppointmentStatusScheduled, AppointmentStatusCompleted, true},
		{"scheduled to no_show", AppointmentStatusScheduled, AppointmentStatusNoShow, true},
		{"confirmed to completed", AppointmentStatusConfirmed, AppointmentStatusCompleted, true},
		{"confirmed to cancelled", AppointmentStatusConfirmed, AppointmentStatusCancelled, true},
		{"confirmed cannot go back", AppointmentStatusConfirmed, AppointmentStatusScheduled, false},
		{"completed is final", AppointmentStatusCompleted, AppointmentStatusConfirmed, false},
		{"cancelled cannot complete", AppointmentStatusCancelled, AppointmentStatusCompleted, false},
		{"no_show is final", AppointmentStatusNoShow, AppointmentStatusScheduled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransitionAppointment(tt.from, tt.to))
		})
	}
}

func TestAppointmentStatusTerminal(t *testing.T) {
	assert.True(t, AppointmentStatusTerminal(AppointmentStatusCompleted))
	assert.True(t, AppointmentStatusTerminal(AppointmentStatusCancelled))
	assert.True(t, AppointmentStatusTerminal(AppointmentStatusNoShow))
	assert.False(t, AppointmentStatusTerminal(AppointmentStatusScheduled))
	assert.False(t, AppointmentStatusTerminal(AppointmentStatusConfirmed))
}

func TestValidLeadStatus(t *testing.T) {
	for _, status := range []string{LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost} {
		assert.True(t, ValidLeadStatus(status), status)
	}
	assert.False(t, ValidLeadStatus(""))
	assert.False(t, ValidLeadStatus("archived"))
	assert.False(t, ValidLeadStatus("New")) // statuses are case-sensitive
}

func TestValidCallOutcome(t *testing.T) {
	for _, outcome := range []string{CallOutcomeAppointmentBooked, CallOutcomeFollowUpNeeded, CallOutcomeNotInterested,
		CallOutcomeWrongNumber, CallOutcomeVoicemail, CallOutcomeNoAnswer, CallOutcomeOther} {
		assert.True(t, ValidCallOutcome(outcome), outcome)
	}
	assert.False(t, ValidCallOutcome("hung_up"))
}

func TestValidAppointmentType(t *testing.T) {
	assert.True(t, ValidAppointmentType(AppointmentTypeTour))
	assert.True(t, ValidAppointmentType(AppointmentTypeFollowUp))
	assert.False(t, ValidAppointmentType("sauna"))
}

func TestCanTransitionCampaign(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"active to paused", CampaignStatusActive, CampaignStatusPaused, true},
		{"paused back to active", CampaignStatusPaused, CampaignStatusActive, true},
		{"active to completed", CampaignStatusActive, CampaignStatusCompleted, true},
		{"paused to cancelled", CampaignStatusPaused, CampaignStatusCancelled, true},
		{"completed is final", CampaignStatusCompleted, CampaignStatusActive, false},
		{"cancelled is final", CampaignStatusCancelled, CampaignStatusPaused, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransitionCampaign(tt.from, tt.to))
		})
	}
}

func TestCampaignStatusTerminal(t *testing.T) {
	assert.True(t, CampaignStatusTerminal(CampaignStatusCompleted))
	assert.True(t, CampaignStatusTerminal(CampaignStatusCancelled))
	assert.False(t, CampaignStatusTerminal(CampaignStatusActive))
	assert.False(t, CampaignStatusTerminal(CampaignStatusPaused))
}

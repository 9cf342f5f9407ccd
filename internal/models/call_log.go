package models

import (
	"time"

	"github.com/google/uuid"
)

// Call directions.
const (
	CallDirectionInbound  = "inbound"
	CallDirectionOutbound = "outbound"
)

// Call statuses. completed, failed, no_answer and canceled are terminal.
const (
	CallStatusScheduled  = "scheduled"
	CallStatusInProgress = "in_progress"
	CallStatusCompleted  = "completed"
	CallStatusFailed     = "failed"
	CallStatusNoAnswer   = "no_answer"
	CallStatusCanceled   = "canceled"
)

// Call outcomes, set only once a call reaches a terminal status.
const (
	CallOutcomeAppointmentBooked = "appointment_booked"
	CallOutcomeFollowUpNeeded    = "follow_up_needed"
	CallOutcomeNotInterested     = "not_interested"
	CallOutcomeWrongNumber       = "wrong_number"
	CallOutcomeVoicemail         = "voicemail"
	CallOutcomeNoAnswer          = "no_answer"
	CallOutcomeOther             = "other"
)

// callTransitions is the forward-only call state machine. Terminal statuses
// have no outgoing edges.
var callTransitions = map[string][]string{
	CallStatusScheduled:  {CallStatusInProgress, CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusCanceled},
	CallStatusInProgress: {CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer},
}

// CallStatusTerminal reports whether status permits no further transitions.
func CallStatusTerminal(status string) bool {
	switch status {
	case CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusCanceled:
		return true
	}
	return false
}

// CanTransitionCall reports whether a call may move from one status to another.
func CanTransitionCall(from, to string) bool {
	for _, next := range callTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidCallDirection reports whether direction is a known call direction.
func ValidCallDirection(direction string) bool {
	return direction == CallDirectionInbound || direction == CallDirectionOutbound
}

// ValidCallOutcome reports whether outcome is a known call outcome.
func ValidCallOutcome(outcome string) bool {
	switch outcome {
	case CallOutcomeAppointmentBooked, CallOutcomeFollowUpNeeded, CallOutcomeNotInterested,
		CallOutcomeWrongNumber, CallOutcomeVoicemail, CallOutcomeNoAnswer, CallOutcomeOther:
		return true
	}
	return false
}

type CallLog struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	GymID          uuid.UUID  `json:"gym_id" db:"gym_id"`
	LeadID         uuid.UUID  `json:"lead_id" db:"lead_id"`
	AgentUserID    *uuid.UUID `json:"agent_user_id" db:"agent_user_id"` // nil for AI calls
	Direction      string     `json:"direction" db:"direction"`
	Status         string     `json:"status" db:"status"`
	Outcome        *string    `json:"outcome" db:"outcome"`
	Duration       *int       `json:"duration" db:"duration"` // seconds
	StartTime      *time.Time `json:"start_time" db:"start_time"`
	EndTime        *time.Time `json:"end_time" db:"end_time"`
	RecordingURL   *string    `json:"recording_url" db:"recording_url"`
	Transcript     *string    `json:"transcript" db:"transcript"`
	Summary        *string    `json:"summary" db:"summary"`
	Sentiment      *string    `json:"sentiment" db:"sentiment"`
	HumanNotes     *string    `json:"human_notes" db:"human_notes"`
	ExternalCallID *string    `json:"external_call_id" db:"external_call_id"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// CallFilter is the closed set of list predicates for call logs.
type CallFilter struct {
	LeadID    *uuid.UUID `json:"lead_id,omitempty"`
	Status    *string    `json:"status,omitempty"`
	Direction *string    `json:"direction,omitempty"`
	Outcome   *string    `json:"outcome,omitempty"`
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
	Limit     int        `json:"limit,omitempty"`
	Offset    int        `json:"offset,omitempty"`
}

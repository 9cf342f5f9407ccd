package models

import (
	"time"

	"github.com/google/uuid"
)

// Appointment types.
const (
	AppointmentTypeTour         = "tour"
	AppointmentTypeConsultation = "consultation"
	AppointmentTypeTraining     = "training"
	AppointmentTypeFollowUp     = "follow_up"
	AppointmentTypeOther        = "other"
)

// Appointment statuses. completed, cancelled and no_show are terminal.
const (
	AppointmentStatusScheduled = "scheduled"
	AppointmentStatusConfirmed = "confirmed"
	AppointmentStatusCompleted = "completed"
	AppointmentStatusCancelled = "cancelled"
	AppointmentStatusNoShow    = "no_show"
)

var appointmentTransitions = map[string][]string{
	AppointmentStatusScheduled: {AppointmentStatusConfirmed, AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow},
}

// AppointmentStatusTerminal reports whether status permits no further transitions.
func AppointmentStatusTerminal(status string) bool {
	switch status {
	case AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// CanTransitionAppointment reports whether an appointment may move from one
// status to another.
func CanTransitionAppointment(from, to string) bool {
	for _, next := range appointmentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidAppointmentType reports whether t is a known appointment type.
func ValidAppointmentType(t string) bool {
	switch t {
	case AppointmentTypeTour, AppointmentTypeConsultation, AppointmentTypeTraining, AppointmentTypeFollowUp, AppointmentTypeOther:
		return true
	}
	return false
}

type Appointment struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	GymID          uuid.UUID  `json:"gym_id" db:"gym_id"`
	LeadID         uuid.UUID  `json:"lead_id" db:"lead_id"`
	BranchID       uuid.UUID  `json:"branch_id" db:"branch_id"`
	EmployeeUserID *uuid.UUID `json:"employee_user_id" db:"employee_user_id"`
	Type           string     `json:"type" db:"appointment_type"`
	StartTime      time.Time  `json:"start_time" db:"start_time"`
	EndTime        time.Time  `json:"end_time" db:"end_time"`
	Status         string     `json:"status" db:"status"`
	Notes          *string    `json:"notes" db:"notes"`
	ReminderSent   bool       `json:"reminder_sent" db:"reminder_sent"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// AppointmentFilter is the closed set of list predicates for appointments.
type AppointmentFilter struct {
	LeadID     *uuid.UUID `json:"lead_id,omitempty"`
	BranchID   *uuid.UUID `json:"branch_id,omitempty"`
	EmployeeID *uuid.UUID `json:"employee_id,omitempty"`
	Status     *string    `json:"status,omitempty"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
	Limit      int        `json:"limit,omitempty"`
	Offset     int        `json:"offset,omitempty"`
}

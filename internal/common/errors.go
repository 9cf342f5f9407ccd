package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityNotFoundError means the referenced entity is absent or outside the
// caller's tenant scope. The two cases are indistinguishable on purpose.
type EntityNotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InvalidStatusTransitionError means the requested state change violates the
// forward-only status machine.
type InvalidStatusTransitionError struct {
	Entity    string
	Current   string
	Requested string
}

func (e *InvalidStatusTransitionError) Error() string {
	return fmt.Sprintf("%s status cannot change from %q to %q", e.Entity, e.Current, e.Requested)
}

// SchedulingConflictError means the requested appointment window overlaps an
// existing one for the same staff member. It carries both the requested window
// and the window of the appointment it collided with.
type SchedulingConflictError struct {
	EmployeeUserID   uuid.UUID
	Start            time.Time
	End              time.Time
	ConflictingID    uuid.UUID
	ConflictingStart time.Time
	ConflictingEnd   time.Time
}

func (e *SchedulingConflictError) Error() string {
	return fmt.Sprintf("staff %s is already booked from %s to %s, overlapping the requested %s to %s",
		e.EmployeeUserID, e.ConflictingStart.Format(time.RFC3339), e.ConflictingEnd.Format(time.RFC3339),
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// LimitExceededError means a tenant-level dialing cap blocks the request for
// now. The caller may retry once capacity frees up.
type LimitExceededError struct {
	Resource string
	Limit    int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s limit of %d reached", e.Resource, e.Limit)
}

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ServiceError wraps unexpected failures before they cross the API boundary
// so internal detail never reaches the client.
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("failed to %s: operation could not be completed", e.Op)
}

func (e *ServiceError) Unwrap() error { return e.Err }

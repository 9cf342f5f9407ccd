package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]any) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, RespondError(c, err))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestRespondError_NotFound(t *testing.T) {
	rec, body := respond(t, &EntityNotFoundError{Entity: "lead", ID: uuid.New()})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errObj["code"])
}

func TestRespondError_InvalidStatusTransition(t *testing.T) {
	rec, body := respond(t, &InvalidStatusTransitionError{
		Entity:    "call",
		Current:   "completed",
		Requested: "in_progress",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", errObj["code"])
	details := errObj["details"].(map[string]any)
	assert.Equal(t, "completed", details["current_status"])
	assert.Equal(t, "in_progress", details["requested_status"])
}

func TestRespondError_SchedulingConflict(t *testing.T) {
	day := time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC)
	conflictingID := uuid.New()
	rec, body := respond(t, &SchedulingConflictError{
		EmployeeUserID:   uuid.New(),
		Start:            day.Add(14*time.Hour + 30*time.Minute),
		End:              day.Add(15*time.Hour + 30*time.Minute),
		ConflictingID:    conflictingID,
		ConflictingStart: day.Add(14 * time.Hour),
		ConflictingEnd:   day.Add(15 * time.Hour),
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "SCHEDULING_CONFLICT", errObj["code"])
	details := errObj["details"].(map[string]any)
	assert.Equal(t, "2026-09-14T14:30:00Z", details["start_time"])
	assert.Equal(t, conflictingID.String(), details["conflicting_appointment_id"])
	assert.Equal(t, "2026-09-14T14:00:00Z", details["conflicting_start_time"])
	assert.Equal(t, "2026-09-14T15:00:00Z", details["conflicting_end_time"])
	assert.Contains(t, errObj["message"], "14:00:00Z", "message names the colliding booking's window")
}

func TestRespondError_LimitExceeded(t *testing.T) {
	rec, body := respond(t, &LimitExceededError{Resource: "daily calls", Limit: 50})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "LIMIT_EXCEEDED", errObj["code"])
	details := errObj["details"].(map[string]any)
	assert.Equal(t, "daily calls", details["resource"])
	assert.Equal(t, "50", details["limit"])
}

func TestRespondError_Validation(t *testing.T) {
	rec, _ := respond(t, &ValidationError{Field: "phone", Message: "phone is required"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRespondError_WrappedDomainError(t *testing.T) {
	// errors.As must see through wrapping.
	wrapped := fmt.Errorf("handling request: %w", &EntityNotFoundError{Entity: "tag", ID: uuid.New()})
	rec, _ := respond(t, wrapped)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRespondError_ServiceErrorHidesInternals(t *testing.T) {
	rec, body := respond(t, &ServiceError{
		Op:  "create lead",
		Err: errors.New("pq: connection refused on 10.0.3.7"),
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.3.7", "internal detail must not reach the client")
	errObj := body["error"].(map[string]any)
	assert.NotEmpty(t, errObj["code"])
}

func TestRespondError_UnknownError(t *testing.T) {
	rec, _ := respond(t, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServiceError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := &ServiceError{Op: "list calls", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Error(), "timeout", "message must stay generic")
}

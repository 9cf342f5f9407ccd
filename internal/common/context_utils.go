package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	GymIDKey  contextKey = "gym_id"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", details))
}

// SendClientError sends a client error response
func SendClientError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("CLIENT_ERROR", message, nil))
}

// SendServerError sends a server error response
func SendServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", message, nil))
}

// SendNotFoundError sends a not found error response
func SendNotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", fmt.Sprintf("%s not found", resource), nil))
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, CreateErrorResponse("UNAUTHORIZED", "Unauthorized access", nil))
}

// RespondError translates domain errors into client-facing responses. Anything
// outside the taxonomy is logged with full context and surfaced as a generic
// server error.
func RespondError(c echo.Context, err error) error {
	var notFound *EntityNotFoundError
	if errors.As(err, &notFound) {
		return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", err.Error(), nil))
	}

	var transition *InvalidStatusTransitionError
	if errors.As(err, &transition) {
		details := map[string]string{
			"current_status":   transition.Current,
			"requested_status": transition.Requested,
		}
		return c.JSON(http.StatusUnprocessableEntity, CreateErrorResponse("INVALID_STATUS_TRANSITION", err.Error(), details))
	}

	var conflict *SchedulingConflictError
	if errors.As(err, &conflict) {
		details := map[string]string{
			"start_time":                 conflict.Start.Format(time.RFC3339),
			"end_time":                   conflict.End.Format(time.RFC3339),
			"conflicting_appointment_id": conflict.ConflictingID.String(),
			"conflicting_start_time":     conflict.ConflictingStart.Format(time.RFC3339),
			"conflicting_end_time":       conflict.ConflictingEnd.Format(time.RFC3339),
		}
		return c.JSON(http.StatusConflict, CreateErrorResponse("SCHEDULING_CONFLICT", err.Error(), details))
	}

	var limit *LimitExceededError
	if errors.As(err, &limit) {
		details := map[string]string{
			"resource": limit.Resource,
			"limit":    strconv.Itoa(limit.Limit),
		}
		return c.JSON(http.StatusTooManyRequests, CreateErrorResponse("LIMIT_EXCEEDED", err.Error(), details))
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return SendValidationError(c, validation.Field, validation.Message)
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		log.Printf("ERROR: %s %s: %v", c.Request().Method, c.Request().URL.Path, svcErr.Unwrap())
	} else {
		log.Printf("ERROR: %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	return SendServerError(c, "Request could not be completed")
}

// ValidateUUID validates UUID format with comprehensive checks
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	if strings.TrimSpace(idStr) == "" {
		return uuid.Nil, fmt.Errorf("%s is required", fieldName)
	}

	idStr = strings.TrimSpace(idStr)

	if len(idStr) != 36 {
		return uuid.Nil, fmt.Errorf("%s must be exactly 36 characters (including hyphens)", fieldName)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s contains invalid characters: %v", fieldName, err)
	}

	return id, nil
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateOptionalString validates optional string fields
func ValidateOptionalString(value *string, fieldName string, maxLength int) error {
	if value != nil {
		if len(*value) > maxLength {
			return fmt.Errorf("%s cannot exceed %d characters", fieldName, maxLength)
		}
		*value = strings.TrimSpace(*value)
	}
	return nil
}

// ValidateTimeWindow validates an appointment time window.
func ValidateTimeWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("start_time and end_time are required")
	}
	if !end.After(start) {
		return fmt.Errorf("end_time must be after start_time")
	}
	if end.Sub(start) > 8*time.Hour {
		return fmt.Errorf("appointment window cannot exceed 8 hours")
	}
	return nil
}

// ValidatePaginationParams validates pagination parameters
func ValidatePaginationParams(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = 50 // Default
	}
	if limit > 1000 {
		limit = 1000 // Maximum
	}

	if offset < 0 {
		offset = 0
	}
	if offset > 1000000 {
		return 0, 0, fmt.Errorf("offset cannot exceed 1,000,000")
	}

	return limit, offset, nil
}

// ValidateDateRange validates date ranges to prevent abuse
func ValidateDateRange(startDate, endDate time.Time) error {
	if endDate.Before(startDate) {
		return fmt.Errorf("end date cannot be before start date")
	}

	duration := endDate.Sub(startDate)
	maxDuration := time.Hour * 24 * 365 * 2 // 2 years
	if duration > maxDuration {
		return fmt.Errorf("date range cannot exceed 2 years")
	}

	return nil
}

// ValidateSortOrder validates sort order parameters
func ValidateSortOrder(sortOrder string) string {
	order := strings.ToLower(sortOrder)
	if order == "asc" {
		return "ASC"
	}
	return "DESC" // Default to DESC
}

// SafeString safely handles string pointer operations
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GetUserIDFromContext extracts the user ID from the request context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetGymIDFromContext extracts the tenant gym ID from the request context
func GetGymIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	gymID, ok := ctx.Value(GymIDKey).(uuid.UUID)
	return gymID, ok
}

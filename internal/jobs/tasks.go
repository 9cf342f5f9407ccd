package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type definitions
const (
	TypeInitiateCall   = "call:initiate"
	TypeGenerateReport = "report:generate"
)

// Task execution limits, mirroring the worker queue's soft/hard wall-clock
// policy. A task past the soft limit should wind down; past the hard limit the
// triggering record must end up in a terminal failed state, never in_progress.
const (
	SoftTimeLimit = 45 * time.Minute
	HardTimeLimit = 60 * time.Minute
	MaxRetries    = 3
)

// InitiateCallPayload defines the payload for voice call initiation tasks.
type InitiateCallPayload struct {
	GymID  uuid.UUID `json:"gym_id"`
	CallID uuid.UUID `json:"call_id"`
	LeadID uuid.UUID `json:"lead_id"`
}

// GenerateReportPayload defines the payload for analytics report tasks.
type GenerateReportPayload struct {
	GymID     uuid.UUID `json:"gym_id"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Format    string    `json:"format"`
}

// NewInitiateCallTask creates a voice call initiation task.
func NewInitiateCallTask(gymID, callID, leadID uuid.UUID) (*asynq.Task, error) {
	payload := InitiateCallPayload{
		GymID:  gymID,
		CallID: callID,
		LeadID: leadID,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeInitiateCall, data), nil
}

// NewGenerateReportTask creates a report generation task.
func NewGenerateReportTask(gymID uuid.UUID, startDate, endDate, format string) (*asynq.Task, error) {
	payload := GenerateReportPayload{
		GymID:     gymID,
		StartDate: startDate,
		EndDate:   endDate,
		Format:    format,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGenerateReport, data), nil
}

// EnqueueOptions returns the standard options for background tasks: bounded
// retries, the soft limit as the task timeout, and the hard limit as an
// absolute deadline.
func EnqueueOptions() []asynq.Option {
	return []asynq.Option{
		asynq.MaxRetry(MaxRetries),
		asynq.Timeout(SoftTimeLimit),
		asynq.Deadline(time.Now().Add(HardTimeLimit)),
	}
}

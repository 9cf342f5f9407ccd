package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"gymflow/internal/caching"
	"gymflow/internal/common"
	"gymflow/internal/config"
	"gymflow/internal/jobs"
	"gymflow/internal/models"
	"gymflow/internal/repositories"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TaskEnqueuer hands work to the background queue. Satisfied by asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// CallResult is the terminal update a voice-gateway webhook or manual close
// delivers for a call.
type CallResult struct {
	Status       string
	Outcome      *string
	Duration     *int
	RecordingURL *string
	Transcript   *string
	Summary      *string
	Sentiment    *string
}

type CallService interface {
	Schedule(ctx context.Context, gymID uuid.UUID, call *models.CallLog) error
	GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.CallLog, error)
	List(ctx context.Context, gymID uuid.UUID, filter *models.CallFilter) ([]*models.CallLog, error)
	UpdateStatus(ctx context.Context, gymID, id uuid.UUID, status string) error
	Complete(ctx context.Context, gymID, id uuid.UUID, result CallResult) (*models.CallLog, error)
	CompleteByExternalID(ctx context.Context, gymID uuid.UUID, externalCallID string, result CallResult) (*models.CallLog, error)
	AmendNotes(ctx context.Context, gymID, id uuid.UUID, notes string) error
	Cancel(ctx context.Context, gymID, id uuid.UUID) error
}

type callService struct {
	callRepo repositories.CallLogRepository
	leadRepo repositories.LeadRepository
	cache    caching.CacheService
	queue    TaskEnqueuer
	limits   config.CallingConfig
}

func NewCallService(callRepo repositories.CallLogRepository, leadRepo repositories.LeadRepository,
	cache caching.CacheService, queue TaskEnqueuer, limits config.CallingConfig) CallService {
	return &callService{
		callRepo: callRepo,
		leadRepo: leadRepo,
		cache:    cache,
		queue:    queue,
		limits:   limits,
	}
}

// Schedule records the call and enqueues the voice task, returning without
// waiting for the call to be placed. The task runtime reports progress back
// through the webhook.
func (s *callService) Schedule(ctx context.Context, gymID uuid.UUID, call *models.CallLog) error {
	if call.ID == uuid.Nil {
		call.ID = uuid.New()
	}
	call.GymID = gymID
	call.Status = models.CallStatusScheduled
	if call.Direction == "" {
		call.Direction = models.CallDirectionOutbound
	}
	if !models.ValidCallDirection(call.Direction) {
		return &common.ValidationError{Field: "direction", Message: fmt.Sprintf("unknown call direction %q", call.Direction)}
	}

	if call.Direction == models.CallDirectionOutbound {
		if err := s.checkDialingLimits(ctx, gymID); err != nil {
			return err
		}
	}

	lead, err := s.leadRepo.GetByID(ctx, gymID, call.LeadID)
	if err != nil {
		return &common.ServiceError{Op: "resolve call lead", Err: err}
	}
	if lead == nil {
		return &common.EntityNotFoundError{Entity: "lead", ID: call.LeadID}
	}

	if err := s.callRepo.Create(ctx, call); err != nil {
		return &common.ServiceError{Op: "create call log", Err: err}
	}

	if call.Direction == models.CallDirectionOutbound {
		task, err := jobs.NewInitiateCallTask(gymID, call.ID, call.LeadID)
		if err != nil {
			return &common.ServiceError{Op: "build call task", Err: err}
		}
		if _, err := s.queue.EnqueueContext(ctx, task, jobs.EnqueueOptions()...); err != nil {
			return &common.ServiceError{Op: "enqueue call task", Err: err}
		}
	}

	s.invalidate(ctx, gymID, call.ID, call.LeadID)
	return nil
}

// checkDialingLimits enforces the per-tenant caps on outbound dialing. A zero
// limit disables the corresponding check.
func (s *callService) checkDialingLimits(ctx context.Context, gymID uuid.UUID) error {
	if s.limits.MaxConcurrentCalls > 0 {
		active, err := s.callRepo.CountActive(ctx, gymID)
		if err != nil {
			return &common.ServiceError{Op: "count active calls", Err: err}
		}
		if active >= s.limits.MaxConcurrentCalls {
			return &common.LimitExceededError{Resource: "concurrent calls", Limit: s.limits.MaxConcurrentCalls}
		}
	}
	if s.limits.DailyCallCap > 0 {
		midnight := time.Now().UTC().Truncate(24 * time.Hour)
		dialed, err := s.callRepo.CountOutboundSince(ctx, gymID, midnight)
		if err != nil {
			return &common.ServiceError{Op: "count daily calls", Err: err}
		}
		if dialed >= s.limits.DailyCallCap {
			return &common.LimitExceededError{Resource: "daily calls", Limit: s.limits.DailyCallCap}
		}
	}
	return nil
}

func (s *callService) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.CallLog, error) {
	if cached, err := s.cache.GetCallLog(ctx, gymID, id); err == nil && cached != nil {
		return cached, nil
	}

	call, err := s.callRepo.GetByID(ctx, gymID, id)
	if err != nil {
		return nil, &common.ServiceError{Op: "get call log", Err: err}
	}
	if call == nil {
		return nil, &common.EntityNotFoundError{Entity: "call", ID: id}
	}

	if err := s.cache.SetCallLog(ctx, gymID, call, caching.TTLDetail); err != nil {
		log.Printf("WARN: call cache write failed for %s: %v", id, err)
	}
	return call, nil
}

func (s *callService) List(ctx context.Context, gymID uuid.UUID, filter *models.CallFilter) ([]*models.CallLog, error) {
	key := caching.Key("call", "list", gymID, callFilterArgs(filter))

	var cached []*models.CallLog
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	calls, err := s.callRepo.List(ctx, gymID, filter)
	if err != nil {
		return nil, &common.ServiceError{Op: "list call logs", Err: err}
	}

	if err := s.cache.SetJSON(ctx, key, calls, caching.TTLList); err != nil {
		log.Printf("WARN: call list cache write failed: %v", err)
	}
	return calls, nil
}

func (s *callService) UpdateStatus(ctx context.Context, gymID, id uuid.UUID, status string) error {
	call, err := s.callRepo.GetByID(ctx, gymID, id)
	if err != nil {
		return &common.ServiceError{Op: "resolve call log", Err: err}
	}
	if call == nil {
		return &common.EntityNotFoundError{Entity: "call", ID: id}
	}

	if !models.CanTransitionCall(call.Status, status) {
		return &common.InvalidStatusTransitionError{Entity: "call", Current: call.Status, Requested: status}
	}

	call.Status = status
	now := time.Now()
	if status == models.CallStatusInProgress && call.StartTime == nil {
		call.StartTime = &now
	}
	if models.CallStatusTerminal(status) && call.EndTime == nil {
		call.EndTime = &now
	}

	if _, err := s.callRepo.Update(ctx, call); err != nil {
		return &common.ServiceError{Op: "update call status", Err: err}
	}

	s.invalidate(ctx, gymID, id, call.LeadID)
	return nil
}

// Complete applies a terminal result to a call. Repeating the same terminal
// status is a no-op so at-least-once webhook delivery stays safe; conflicting
// terminal statuses are rejected.
func (s *callService) Complete(ctx context.Context, gymID, id uuid.UUID, result CallResult) (*models.CallLog, error) {
	call, err := s.callRepo.GetByID(ctx, gymID, id)
	if err != nil {
		return nil, &common.ServiceError{Op: "resolve call log", Err: err}
	}
	if call == nil {
		return nil, &common.EntityNotFoundError{Entity: "call", ID: id}
	}
	return s.applyResult(ctx, call, result)
}

// CompleteByExternalID is the webhook path: the gateway only knows its own
// call identifier.
func (s *callService) CompleteByExternalID(ctx context.Context, gymID uuid.UUID, externalCallID string, result CallResult) (*models.CallLog, error) {
	call, err := s.callRepo.GetByExternalID(ctx, gymID, externalCallID)
	if err != nil {
		return nil, &common.ServiceError{Op: "resolve call log", Err: err}
	}
	if call == nil {
		return nil, &common.EntityNotFoundError{Entity: "call", ID: uuid.Nil}
	}
	return s.applyResult(ctx, call, result)
}

func (s *callService) applyResult(ctx context.Context, call *models.CallLog, result CallResult) (*models.CallLog, error) {
	if !models.CallStatusTerminal(result.Status) {
		return nil, &common.ValidationError{Field: "status", Message: fmt.Sprintf("%q is not a terminal call status", result.Status)}
	}
	if result.Outcome != nil && !models.ValidCallOutcome(*result.Outcome) {
		return nil, &common.ValidationError{Field: "outcome", Message: fmt.Sprintf("unknown call outcome %q", *result.Outcome)}
	}

	if models.CallStatusTerminal(call.Status) {
		if call.Status == result.Status {
			return call, nil // duplicate delivery
		}
		return nil, &common.InvalidStatusTransitionError{Entity: "call", Current: call.Status, Requested: result.Status}
	}
	if !models.CanTransitionCall(call.Status, result.Status) {
		return nil, &common.InvalidStatusTransitionError{Entity: "call", Current: call.Status, Requested: result.Status}
	}

	now := time.Now()
	call.Status = result.Status
	call.Outcome = result.Outcome
	if result.Duration != nil {
		call.Duration = result.Duration
	}
	if result.RecordingURL != nil {
		call.RecordingURL = result.RecordingURL
	}
	if result.Transcript != nil {
		call.Transcript = result.Transcript
	}
	if result.Summary != nil {
		call.Summary = result.Summary
	}
	if result.Sentiment != nil {
		call.Sentiment = result.Sentiment
	}
	if call.EndTime == nil {
		call.EndTime = &now
	}

	if _, err := s.callRepo.Update(ctx, call); err != nil {
		return nil, &common.ServiceError{Op: "finalize call log", Err: err}
	}

	if err := s.leadRepo.TouchLastCalled(ctx, call.GymID, call.LeadID); err != nil {
		log.Printf("WARN: failed to touch last_called for lead %s: %v", call.LeadID, err)
	}

	s.invalidate(ctx, call.GymID, call.ID, call.LeadID)
	return call, nil
}

// AmendNotes is the only mutation allowed once a call is terminal.
func (s *callService) AmendNotes(ctx context.Context, gymID, id uuid.UUID, notes string) error {
	updated, err := s.callRepo.SetNotes(ctx, gymID, id, notes)
	if err != nil {
		return &common.ServiceError{Op: "amend call notes", Err: err}
	}
	if !updated {
		return &common.EntityNotFoundError{Entity: "call", ID: id}
	}

	if err := s.cache.DeleteCallLog(ctx, gymID, id); err != nil {
		log.Printf("WARN: failed to invalidate call %s detail cache: %v", id, err)
	}
	return nil
}

// Cancel aborts a call that has not started yet.
func (s *callService) Cancel(ctx context.Context, gymID, id uuid.UUID) error {
	return s.UpdateStatus(ctx, gymID, id, models.CallStatusCanceled)
}

func (s *callService) invalidate(ctx context.Context, gymID, callID, leadID uuid.UUID) {
	if err := s.cache.DeleteCallLog(ctx, gymID, callID); err != nil {
		log.Printf("WARN: failed to invalidate call %s detail cache: %v", callID, err)
	}
	if err := s.cache.InvalidateLists(ctx, "call", gymID); err != nil {
		log.Printf("WARN: failed to invalidate call list cache for gym %s: %v", gymID, err)
	}
	if err := s.cache.DeleteLead(ctx, gymID, leadID); err != nil {
		log.Printf("WARN: failed to invalidate lead %s detail cache: %v", leadID, err)
	}
	// Prioritization keys depend on call recency, so lead lists go too.
	if err := s.cache.InvalidateLists(ctx, "lead", gymID); err != nil {
		log.Printf("WARN: failed to invalidate lead list cache for gym %s: %v", gymID, err)
	}
	if err := s.cache.InvalidateTenantAnalytics(ctx, gymID); err != nil {
		log.Printf("WARN: failed to invalidate analytics cache for gym %s: %v", gymID, err)
	}
}

func callFilterArgs(filter *models.CallFilter) map[string]string {
	if filter == nil {
		return nil
	}
	args := make(map[string]string)
	if filter.LeadID != nil {
		args["lead"] = filter.LeadID.String()
	}
	if filter.Status != nil {
		args["status"] = *filter.Status
	}
	if filter.Direction != nil {
		args["direction"] = *filter.Direction
	}
	if filter.Outcome != nil {
		args["outcome"] = *filter.Outcome
	}
	if filter.From != nil {
		args["from"] = filter.From.UTC().Format("2006-01-02T15:04:05")
	}
	if filter.To != nil {
		args["to"] = filter.To.UTC().Format("2006-01-02T15:04:05")
	}
	if filter.Limit > 0 {
		args["limit"] = strconv.Itoa(filter.Limit)
	}
	if filter.Offset > 0 {
		args["offset"] = strconv.Itoa(filter.Offset)
	}
	return args
}

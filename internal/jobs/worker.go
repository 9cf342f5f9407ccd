package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"gymflow/internal/analytics"
	"gymflow/internal/caching"
	"gymflow/internal/models"
	"gymflow/internal/repositories"
	"gymflow/internal/voice"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// ReportStore is the slice of object storage the report worker needs.
type ReportStore interface {
	UploadReport(ctx context.Context, gymID uuid.UUID, filename, contentType string, reader io.Reader, size int64) (string, error)
}

// CallWorker executes voice call initiation tasks. The provider's webhook,
// not this worker, delivers the terminal result.
type CallWorker struct {
	callRepo repositories.CallLogRepository
	leadRepo repositories.LeadRepository
	gateway  voice.Gateway
	cache    caching.CacheService
}

func NewCallWorker(callRepo repositories.CallLogRepository, leadRepo repositories.LeadRepository,
	gateway voice.Gateway, cache caching.CacheService) *CallWorker {
	return &CallWorker{
		callRepo: callRepo,
		leadRepo: leadRepo,
		gateway:  gateway,
		cache:    cache,
	}
}

// HandleInitiateCall moves a scheduled call to in_progress and asks the voice
// provider to place it. A call that is no longer scheduled (canceled, or a
// duplicate delivery of an already-started task) is skipped.
func (w *CallWorker) HandleInitiateCall(ctx context.Context, t *asynq.Task) error {
	var payload InitiateCallPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal call payload: %w", err)
	}

	call, err := w.callRepo.GetByID(ctx, payload.GymID, payload.CallID)
	if err != nil {
		return fmt.Errorf("failed to load call %s: %w", payload.CallID, err)
	}
	if call == nil {
		log.Printf("call %s no longer exists, skipping", payload.CallID)
		return nil
	}
	if call.Status != models.CallStatusScheduled {
		log.Printf("call %s is %s, not scheduled, skipping", call.ID, call.Status)
		return nil
	}

	lead, err := w.leadRepo.GetByID(ctx, payload.GymID, payload.LeadID)
	if err != nil {
		return fmt.Errorf("failed to load lead %s: %w", payload.LeadID, err)
	}
	if lead == nil || lead.Phone == "" {
		w.markFailed(ctx, call)
		log.Printf("call %s has no dialable lead, marked failed", call.ID)
		return nil
	}

	now := time.Now()
	call.Status = models.CallStatusInProgress
	call.StartTime = &now
	if _, err := w.callRepo.Update(ctx, call); err != nil {
		return fmt.Errorf("failed to start call %s: %w", call.ID, err)
	}
	w.invalidate(ctx, call)

	externalID, err := w.gateway.StartCall(ctx, voice.StartCallRequest{
		GymID:     call.GymID,
		CallID:    call.ID,
		LeadID:    lead.ID,
		ToNumber:  lead.Phone,
		LeadName:  lead.FirstName + " " + lead.LastName,
		Direction: call.Direction,
	})
	if err != nil {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		if retried < maxRetry {
			// Put the call back so the retry's scheduled-status check passes.
			call.Status = models.CallStatusScheduled
			call.StartTime = nil
			if _, updateErr := w.callRepo.Update(ctx, call); updateErr != nil {
				log.Printf("WARN: failed to reset call %s for retry: %v", call.ID, updateErr)
			}
			w.invalidate(ctx, call)
			return fmt.Errorf("voice provider rejected call %s: %w", call.ID, err)
		}
		w.markFailed(ctx, call)
		return fmt.Errorf("voice provider rejected call %s, retries exhausted: %v: %w", call.ID, err, asynq.SkipRetry)
	}

	call.ExternalCallID = &externalID
	if _, err := w.callRepo.Update(ctx, call); err != nil {
		return fmt.Errorf("failed to record external id for call %s: %w", call.ID, err)
	}

	if err := w.leadRepo.TouchLastCalled(ctx, call.GymID, call.LeadID); err != nil {
		log.Printf("WARN: failed to touch last_called for lead %s: %v", call.LeadID, err)
	}
	w.invalidate(ctx, call)

	log.Printf("call %s placed with provider as %s", call.ID, externalID)
	return nil
}

func (w *CallWorker) markFailed(ctx context.Context, call *models.CallLog) {
	now := time.Now()
	outcome := models.CallOutcomeOther
	call.Status = models.CallStatusFailed
	if call.Outcome == nil {
		call.Outcome = &outcome
	}
	call.EndTime = &now
	if _, err := w.callRepo.Update(ctx, call); err != nil {
		log.Printf("WARN: failed to mark call %s failed: %v", call.ID, err)
	}
	w.invalidate(ctx, call)
}

func (w *CallWorker) invalidate(ctx context.Context, call *models.CallLog) {
	if err := w.cache.DeleteCallLog(ctx, call.GymID, call.ID); err != nil {
		log.Printf("WARN: failed to invalidate call %s cache: %v", call.ID, err)
	}
	if err := w.cache.InvalidateLists(ctx, "call", call.GymID); err != nil {
		log.Printf("WARN: failed to invalidate call list cache for gym %s: %v", call.GymID, err)
	}
	if err := w.cache.DeleteLead(ctx, call.GymID, call.LeadID); err != nil {
		log.Printf("WARN: failed to invalidate lead %s cache: %v", call.LeadID, err)
	}
	if err := w.cache.InvalidateLists(ctx, "lead", call.GymID); err != nil {
		log.Printf("WARN: failed to invalidate lead list cache for gym %s: %v", call.GymID, err)
	}
}

// ReportWorker renders analytics snapshots to object storage.
type ReportWorker struct {
	analytics analytics.Service
	store     ReportStore
}

func NewReportWorker(analyticsService analytics.Service, store ReportStore) *ReportWorker {
	return &ReportWorker{analytics: analyticsService, store: store}
}

func (w *ReportWorker) HandleGenerateReport(ctx context.Context, t *asynq.Task) error {
	var payload GenerateReportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal report payload: %w", err)
	}

	from, err := time.Parse("2006-01-02", payload.StartDate)
	if err != nil {
		return fmt.Errorf("invalid report start date %q: %w", payload.StartDate, asynq.SkipRetry)
	}
	to, err := time.Parse("2006-01-02", payload.EndDate)
	if err != nil {
		return fmt.Errorf("invalid report end date %q: %w", payload.EndDate, asynq.SkipRetry)
	}
	// End of day, inclusive.
	to = to.Add(24*time.Hour - time.Second)

	dashboard, err := w.analytics.Dashboard(ctx, payload.GymID, from, to)
	if err != nil {
		return fmt.Errorf("failed to build report for gym %s: %w", payload.GymID, err)
	}

	data, err := json.MarshalIndent(dashboard, "", "  ")
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("report-%s-%s.json", payload.StartDate, payload.EndDate)
	objectName, err := w.store.UploadReport(ctx, payload.GymID, filename, "application/json",
		bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("failed to store report for gym %s: %w", payload.GymID, err)
	}

	log.Printf("report for gym %s stored as %s", payload.GymID, objectName)
	return nil
}

// NewMux registers every task handler on an asynq mux.
func NewMux(calls *CallWorker, reports *ReportWorker) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeInitiateCall, calls.HandleInitiateCall)
	mux.HandleFunc(TypeGenerateReport, reports.HandleGenerateReport)
	return mux
}

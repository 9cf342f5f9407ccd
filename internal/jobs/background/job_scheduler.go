package background

import (
	"context"
	"log"
	"sync"
	"time"

	"gymflow/internal/analytics"
	"gymflow/internal/jobs"
	"gymflow/internal/repositories"
	"gymflow/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// JobScheduler runs the periodic maintenance work: warming analytics caches,
// sweeping calls that out-stayed the task queue's hard time limit, and
// visiting campaigns whose dialing round is due.
type JobScheduler struct {
	scheduler    gocron.Scheduler
	analyticsSvc analytics.Service
	campaignSvc  services.CampaignService
	gymRepo      repositories.GymRepository
	callRepo     repositories.CallLogRepository
	jobJobs      map[string]gocron.Job
	mu           sync.RWMutex
}

func NewJobScheduler(analyticsSvc analytics.Service, campaignSvc services.CampaignService,
	gymRepo repositories.GymRepository, callRepo repositories.CallLogRepository) (*JobScheduler, error) {

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	js := &JobScheduler{
		scheduler:    scheduler,
		analyticsSvc: analyticsSvc,
		campaignSvc:  campaignSvc,
		gymRepo:      gymRepo,
		callRepo:     callRepo,
		jobJobs:      make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js, nil
}

func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	// Analytics refresh - hourly
	analyticsJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.refreshGymAnalytics, context.Background()),
		gocron.WithName("gym-analytics-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create analytics job: %v", err)
	} else {
		js.jobJobs["analytics"] = analyticsJob
	}

	// Stale call sweep - every 5 minutes
	sweepJob, err := js.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(js.sweepStaleCalls, context.Background()),
		gocron.WithName("stale-call-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create stale call sweep job: %v", err)
	} else {
		js.jobJobs["stale-calls"] = sweepJob
	}

	// Campaign dialing - hourly; due-ness per campaign is judged against
	// last_run_at, so running often costs nothing.
	dialerJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.dialDueCampaigns, context.Background()),
		gocron.WithName("campaign-dialer"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create campaign dialer job: %v", err)
	} else {
		js.jobJobs["campaign-dialer"] = dialerJob
	}

	log.Printf("Registered %d background jobs", len(js.jobJobs))
}

// dialDueCampaigns schedules outbound calls for every campaign whose dialing
// round is due.
func (js *JobScheduler) dialDueCampaigns(ctx context.Context) error {
	scheduled, err := js.campaignSvc.DialDue(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("Failed to dial due campaigns: %v", err)
		return err
	}
	if scheduled > 0 {
		log.Printf("Campaign dialer scheduled %d calls", scheduled)
	}
	return nil
}

// refreshGymAnalytics recomputes cached analytics for every active gym.
func (js *JobScheduler) refreshGymAnalytics(ctx context.Context) error {
	log.Printf("Starting gym analytics refresh")

	gyms, err := js.gymRepo.ListActive(ctx)
	if err != nil {
		log.Printf("Failed to get gyms for analytics refresh: %v", err)
		return err
	}

	semaphore := make(chan struct{}, 5)
	var wg sync.WaitGroup

	for _, gym := range gyms {
		wg.Add(1)
		go func(gymID uuid.UUID) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := js.analyticsSvc.RefreshGym(ctx, gymID); err != nil {
				log.Printf("Failed to refresh analytics for gym %s: %v", gymID.String(), err)
			} else {
				log.Printf("Refreshed analytics for gym %s", gymID.String())
			}
		}(gym.ID)
	}

	wg.Wait()
	log.Printf("Completed analytics refresh for %d gyms", len(gyms))
	return nil
}

// sweepStaleCalls forces any call still in_progress past the hard task time
// limit into a terminal failed state. A worker that died mid-call never
// reports back, and in_progress is not a state a call may sit in forever.
func (js *JobScheduler) sweepStaleCalls(ctx context.Context) error {
	cutoff := time.Now().Add(-jobs.HardTimeLimit)

	swept, err := js.callRepo.MarkStaleInProgressFailed(ctx, cutoff)
	if err != nil {
		log.Printf("Failed to sweep stale calls: %v", err)
		return err
	}
	if swept > 0 {
		log.Printf("Swept %d stale in_progress calls to failed", swept)
	}
	return nil
}

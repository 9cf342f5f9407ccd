package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"gymflow/internal/caching"
	"gymflow/internal/common"
	"gymflow/internal/models"
	"gymflow/internal/repositories"

	"github.com/google/uuid"
)

// dialBatchSize bounds how many member leads one campaign visit may dial.
const dialBatchSize = 25

// CampaignMetrics summarizes where a campaign's member leads sit in the funnel.
type CampaignMetrics struct {
	TotalLeads    int            `json:"total_leads"`
	LeadsByStatus map[string]int `json:"leads_by_status"`
}

type CampaignService interface {
	Create(ctx context.Context, gymID uuid.UUID, campaign *models.Campaign) error
	GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Campaign, error)
	List(ctx context.Context, gymID uuid.UUID, filter *models.CampaignFilter) ([]*models.Campaign, error)
	Update(ctx context.Context, gymID uuid.UUID, campaign *models.Campaign) (*models.Campaign, error)
	UpdateStatus(ctx context.Context, gymID, id uuid.UUID, status string) error
	Delete(ctx context.Context, gymID, id uuid.UUID) error
	AddLeads(ctx context.Context, gymID, campaignID uuid.UUID, leadIDs []uuid.UUID) error
	RemoveLead(ctx context.Context, gymID, campaignID, leadID uuid.UUID) error
	Metrics(ctx context.Context, gymID, id uuid.UUID) (*CampaignMetrics, error)
	DialDue(ctx context.Context, asOf time.Time) (int, error)
}

type campaignService struct {
	campaignRepo repositories.CampaignRepository
	callSvc      CallService
	cache        caching.CacheService
}

func NewCampaignService(campaignRepo repositories.CampaignRepository, callSvc CallService,
	cache caching.CacheService) CampaignService {
	return &campaignService{
		campaignRepo: campaignRepo,
		callSvc:      callSvc,
		cache:        cache,
	}
}

func validateCampaign(campaign *models.Campaign) error {
	campaign.Name = strings.TrimSpace(campaign.Name)
	if campaign.Name == "" {
		return &common.ValidationError{Field: "name", Message: "campaign name is required"}
	}
	if campaign.StartDate.IsZero() {
		return &common.ValidationError{Field: "start_date", Message: "start_date is required"}
	}
	if campaign.EndDate != nil {
		if err := common.ValidateDateRange(campaign.StartDate, *campaign.EndDate); err != nil {
			return &common.ValidationError{Field: "end_date", Message: err.Error()}
		}
	}
	if campaign.FrequencyDays < 1 {
		return &common.ValidationError{Field: "frequency_days", Message: "frequency_days must be at least 1"}
	}
	if campaign.GapDays < 0 {
		return &common.ValidationError{Field: "gap_days", Message: "gap_days cannot be negative"}
	}
	return nil
}

func (s *campaignService) Create(ctx context.Context, gymID uuid.UUID, campaign *models.Campaign) error {
	if campaign.ID == uuid.Nil {
		campaign.ID = uuid.New()
	}
	campaign.GymID = gymID
	campaign.LastRunAt = nil
	if campaign.Status == "" {
		campaign.Status = models.CampaignStatusActive
	}
	if campaign.Status != models.CampaignStatusActive && campaign.Status != models.CampaignStatusPaused {
		return &common.ValidationError{Field: "status", Message: "new campaigns must start active or paused"}
	}
	if err := validateCampaign(campaign); err != nil {
		return err
	}

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return &common.ServiceError{Op: "create campaign", Err: err}
	}
	s.invalidate(ctx, gymID, campaign.ID)
	return nil
}

func (s *campaignService) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Campaign, error) {
	key := caching.DetailKey("campaign", gymID, id)

	var cached models.Campaign
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	campaign, err := s.campaignRepo.GetByID(ctx, gymID, id)
	if err != nil {
		return nil, &common.ServiceError{Op: "get campaign", Err: err}
	}
	if campaign == nil {
		return nil, &common.EntityNotFoundError{Entity: "campaign", ID: id}
	}

	if err := s.cache.SetJSON(ctx, key, campaign, caching.TTLDetail); err != nil {
		log.Printf("WARN: campaign cache write failed for %s: %v", id, err)
	}
	return campaign, nil
}

func (s *campaignService) List(ctx context.Context, gymID uuid.UUID, filter *models.CampaignFilter) ([]*models.Campaign, error) {
	key := caching.Key("campaign", "list", gymID, campaignFilterArgs(filter))

	var cached []*models.Campaign
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	campaigns, err := s.campaignRepo.List(ctx, gymID, filter)
	if err != nil {
		return nil, &common.ServiceError{Op: "list campaigns", Err: err}
	}

	if err := s.cache.SetJSON(ctx, key, campaigns, caching.TTLList); err != nil {
		log.Printf("WARN: campaign list cache write failed: %v", err)
	}
	return campaigns, nil
}

// Update edits the campaign's definition. Status changes go through
// UpdateStatus; the dialer owns last_run_at.
func (s *campaignService) Update(ctx context.Context, gymID uuid.UUID, campaign *models.Campaign) (*models.Campaign, error) {
	existing, err := s.campaignRepo.GetByID(ctx, gymID, campaign.ID)
	if err != nil {
		return nil, &common.ServiceError{Op: "resolve campaign", Err: err}
	}
	if existing == nil {
		return nil, &common.EntityNotFoundError{Entity: "campaign", ID: campaign.ID}
	}

	campaign.GymID = existing.GymID
	campaign.Status = existing.Status
	campaign.LastRunAt = existing.LastRunAt
	campaign.CreatedAt = existing.CreatedAt
	if err := validateCampaign(campaign); err != nil {
		return nil, err
	}

	if _, err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return nil, &common.ServiceError{Op: "update campaign", Err: err}
	}

	s.invalidate(ctx, gymID, campaign.ID)
	return campaign, nil
}

func (s *campaignService) UpdateStatus(ctx context.Context, gymID, id uuid.UUID, status string) error {
	if !models.ValidCampaignStatus(status) {
		return &common.ValidationError{Field: "status", Message: fmt.Sprintf("unknown campaign status %q", status)}
	}

	campaign, err := s.campaignRepo.GetByID(ctx, gymID, id)
	if err != nil {
		return &common.ServiceError{Op: "resolve campaign", Err: err}
	}
	if campaign == nil {
		return &common.EntityNotFoundError{Entity: "campaign", ID: id}
	}

	if !models.CanTransitionCampaign(campaign.Status, status) {
		return &common.InvalidStatusTransitionError{
			Entity:    "campaign",
			Current:   campaign.Status,
			Requested: status,
		}
	}

	updated, err := s.campaignRepo.SetStatus(ctx, gymID, id, status)
	if err != nil {
		return &common.ServiceError{Op: "update campaign status", Err: err}
	}
	if !updated {
		return &common.EntityNotFoundError{Entity: "campaign", ID: id}
	}

	s.invalidate(ctx, gymID, id)
	return nil
}

func (s *campaignService) Delete(ctx context.Context, gymID, id uuid.UUID) error {
	deleted, err := s.campaignRepo.Delete(ctx, gymID, id)
	if err != nil {
		return &common.ServiceError{Op: "delete campaign", Err: err}
	}
	if !deleted {
		return &common.EntityNotFoundError{Entity: "campaign", ID: id}
	}

	s.invalidate(ctx, gymID, id)
	return nil
}

// AddLeads enrolls leads into the campaign. Leads already enrolled, or not
// belonging to the gym, are skipped silently.
func (s *campaignService) AddLeads(ctx context.Context, gymID, campaignID uuid.UUID, leadIDs []uuid.UUID) error {
	campaign, err := s.campaignRepo.GetByID(ctx, gymID, campaignID)
	if err != nil {
		return &common.ServiceError{Op: "resolve campaign", Err: err}
	}
	if campaign == nil {
		return &common.EntityNotFoundError{Entity: "campaign", ID: campaignID}
	}

	for _, leadID := range leadIDs {
		if _, err := s.campaignRepo.AddLead(ctx, gymID, campaignID, leadID); err != nil {
			return &common.ServiceError{Op: "add campaign lead", Err: err}
		}
	}

	s.invalidate(ctx, gymID, campaignID)
	return nil
}

func (s *campaignService) RemoveLead(ctx context.Context, gymID, campaignID, leadID uuid.UUID) error {
	campaign, err := s.campaignRepo.GetByID(ctx, gymID, campaignID)
	if err != nil {
		return &common.ServiceError{Op: "resolve campaign", Err: err}
	}
	if campaign == nil {
		return &common.EntityNotFoundError{Entity: "campaign", ID: campaignID}
	}

	if _, err := s.campaignRepo.RemoveLead(ctx, gymID, campaignID, leadID); err != nil {
		return &common.ServiceError{Op: "remove campaign lead", Err: err}
	}

	s.invalidate(ctx, gymID, campaignID)
	return nil
}

func (s *campaignService) Metrics(ctx context.Context, gymID, id uuid.UUID) (*CampaignMetrics, error) {
	key := campaignMetricsKey(gymID, id)

	var cached CampaignMetrics
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	campaign, err := s.campaignRepo.GetByID(ctx, gymID, id)
	if err != nil {
		return nil, &common.ServiceError{Op: "resolve campaign", Err: err}
	}
	if campaign == nil {
		return nil, &common.EntityNotFoundError{Entity: "campaign", ID: id}
	}

	counts, err := s.campaignRepo.CountLeadsByStatus(ctx, gymID, id)
	if err != nil {
		return nil, &common.ServiceError{Op: "count campaign leads", Err: err}
	}

	metrics := &CampaignMetrics{LeadsByStatus: counts}
	for _, count := range counts {
		metrics.TotalLeads += count
	}

	if err := s.cache.SetJSON(ctx, key, metrics, caching.TTLAnalytics); err != nil {
		log.Printf("WARN: campaign metrics cache write failed for %s: %v", id, err)
	}
	return metrics, nil
}

// DialDue visits every campaign whose dialing round is due and schedules
// outbound calls for its callable member leads. A tenant that hits a dialing
// cap keeps its remaining leads for the next round. Returns the number of
// calls scheduled.
func (s *campaignService) DialDue(ctx context.Context, asOf time.Time) (int, error) {
	campaigns, err := s.campaignRepo.ListDue(ctx, asOf)
	if err != nil {
		return 0, &common.ServiceError{Op: "list due campaigns", Err: err}
	}

	scheduled := 0
	for _, campaign := range campaigns {
		calledBefore := asOf.AddDate(0, 0, -campaign.GapDays)
		leads, err := s.campaignRepo.DueLeads(ctx, campaign.GymID, campaign.ID, calledBefore, dialBatchSize)
		if err != nil {
			log.Printf("WARN: failed to load due leads for campaign %s: %v", campaign.ID, err)
			continue
		}

		for _, lead := range leads {
			call := &models.CallLog{LeadID: lead.ID, Direction: models.CallDirectionOutbound}
			if err := s.callSvc.Schedule(ctx, campaign.GymID, call); err != nil {
				var limit *common.LimitExceededError
				if errors.As(err, &limit) {
					log.Printf("Campaign %s paused dialing for gym %s: %v", campaign.ID, campaign.GymID, err)
					break
				}
				log.Printf("WARN: campaign %s failed to schedule call for lead %s: %v", campaign.ID, lead.ID, err)
				continue
			}
			scheduled++
		}

		// A cap-limited visit still counts as this round; leftover leads wait
		// for the next one.
		if err := s.campaignRepo.MarkRan(ctx, campaign.GymID, campaign.ID, asOf); err != nil {
			log.Printf("WARN: failed to mark campaign %s as run: %v", campaign.ID, err)
		}
		s.invalidate(ctx, campaign.GymID, campaign.ID)
	}
	return scheduled, nil
}

func (s *campaignService) invalidate(ctx context.Context, gymID, campaignID uuid.UUID) {
	if err := s.cache.Delete(ctx, caching.DetailKey("campaign", gymID, campaignID)); err != nil {
		log.Printf("WARN: failed to invalidate campaign %s detail cache: %v", campaignID, err)
	}
	if err := s.cache.Delete(ctx, campaignMetricsKey(gymID, campaignID)); err != nil {
		log.Printf("WARN: failed to invalidate campaign %s metrics cache: %v", campaignID, err)
	}
	if err := s.cache.InvalidateLists(ctx, "campaign", gymID); err != nil {
		log.Printf("WARN: failed to invalidate campaign list cache for gym %s: %v", gymID, err)
	}
}

func campaignMetricsKey(gymID, campaignID uuid.UUID) string {
	return caching.Key("campaign", "metrics", gymID, map[string]string{"id": campaignID.String()})
}

func campaignFilterArgs(filter *models.CampaignFilter) map[string]string {
	if filter == nil {
		return nil
	}
	args := make(map[string]string)
	if filter.Status != nil {
		args["status"] = *filter.Status
	}
	if filter.Limit > 0 {
		args["limit"] = strconv.Itoa(filter.Limit)
	}
	if filter.Offset > 0 {
		args["offset"] = strconv.Itoa(filter.Offset)
	}
	return args
}

package services

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"gymflow/internal/caching"
	"gymflow/internal/common"
	"gymflow/internal/models"
	"gymflow/internal/repositories"

	"github.com/google/uuid"
)

type LeadService interface {
	Create(ctx context.Context, gymID uuid.UUID, lead *models.Lead) error
	GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Lead, error)
	List(ctx context.Context, gymID uuid.UUID, filter *models.LeadFilter) ([]*models.Lead, error)
	Update(ctx context.Context, gymID uuid.UUID, lead *models.Lead) (*models.Lead, error)
	UpdateStatus(ctx context.Context, gymID, id uuid.UUID, status string) error
	Delete(ctx context.Context, gymID, id uuid.UUID) error
	Prioritized(ctx context.Context, gymID uuid.UUID, count int) ([]*models.Lead, error)
	AttachTag(ctx context.Context, gymID, leadID, tagID uuid.UUID) error
	DetachTag(ctx context.Context, gymID, leadID, tagID uuid.UUID) error
	Tags(ctx context.Context, gymID, leadID uuid.UUID) ([]*models.Tag, error)
}

type leadService struct {
	leadRepo repositories.LeadRepository
	cache    caching.CacheService
}

func NewLeadService(leadRepo repositories.LeadRepository, cache caching.CacheService) LeadService {
	return &leadService{leadRepo: leadRepo, cache: cache}
}

// Create stamps the caller's tenant onto the new lead, overriding any gym id
// carried in the payload.
func (s *leadService) Create(ctx context.Context, gymID uuid.UUID, lead *models.Lead) error {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	lead.GymID = gymID
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	if !models.ValidLeadStatus(lead.Status) {
		return &common.ValidationError{Field: "status", Message: fmt.Sprintf("unknown lead status %q", lead.Status)}
	}
	if lead.Source != nil && !models.ValidLeadSource(*lead.Source) {
		return &common.ValidationError{Field: "source", Message: fmt.Sprintf("unknown lead source %q", *lead.Source)}
	}

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return &common.ServiceError{Op: "create lead", Err: err}
	}

	s.invalidate(ctx, gymID, lead.ID)
	return nil
}

func (s *leadService) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Lead, error) {
	if cached, err := s.cache.GetLead(ctx, gymID, id); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		log.Printf("WARN: lead cache read failed for %s: %v", id, err)
	}

	lead, err := s.leadRepo.GetByID(ctx, gymID, id)
	if err != nil {
		return nil, &common.ServiceError{Op: "get lead", Err: err}
	}
	if lead == nil {
		return nil, &common.EntityNotFoundError{Entity: "lead", ID: id}
	}

	if err := s.cache.SetLead(ctx, gymID, lead, caching.TTLDetail); err != nil {
		log.Printf("WARN: lead cache write failed for %s: %v", id, err)
	}
	return lead, nil
}

func (s *leadService) List(ctx context.Context, gymID uuid.UUID, filter *models.LeadFilter) ([]*models.Lead, error) {
	key := caching.Key("lead", "list", gymID, leadFilterArgs(filter))

	var cached []*models.Lead
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		log.Printf("WARN: lead list cache read failed: %v", err)
	}

	leads, err := s.leadRepo.List(ctx, gymID, filter)
	if err != nil {
		return nil, &common.ServiceError{Op: "list leads", Err: err}
	}

	if err := s.cache.SetJSON(ctx, key, leads, caching.TTLList); err != nil {
		log.Printf("WARN: lead list cache write failed: %v", err)
	}
	return leads, nil
}

// Update re-resolves the lead through the tenant filter before applying field
// changes, and never lets the payload move the lead to another gym.
func (s *leadService) Update(ctx context.Context, gymID uuid.UUID, lead *models.Lead) (*models.Lead, error) {
	existing, err := s.leadRepo.GetByID(ctx, gymID, lead.ID)
	if err != nil {
		return nil, &common.ServiceError{Op: "resolve lead", Err: err}
	}
	if existing == nil {
		return nil, &common.EntityNotFoundError{Entity: "lead", ID: lead.ID}
	}

	lead.GymID = existing.GymID
	lead.CreatedAt = existing.CreatedAt
	if lead.Status == "" {
		lead.Status = existing.Status
	}
	if !models.ValidLeadStatus(lead.Status) {
		return nil, &common.ValidationError{Field: "status", Message: fmt.Sprintf("unknown lead status %q", lead.Status)}
	}

	updated, err := s.leadRepo.Update(ctx, lead)
	if err != nil {
		return nil, &common.ServiceError{Op: "update lead", Err: err}
	}
	if !updated {
		return nil, &common.EntityNotFoundError{Entity: "lead", ID: lead.ID}
	}

	s.invalidate(ctx, gymID, lead.ID)
	return lead, nil
}

func (s *leadService) UpdateStatus(ctx context.Context, gymID, id uuid.UUID, status string) error {
	if !models.ValidLeadStatus(status) {
		return &common.ValidationError{Field: "status", Message: fmt.Sprintf("unknown lead status %q", status)}
	}

	updated, err := s.leadRepo.SetStatus(ctx, gymID, id, status)
	if err != nil {
		return &common.ServiceError{Op: "update lead status", Err: err}
	}
	if !updated {
		return &common.EntityNotFoundError{Entity: "lead", ID: id}
	}

	s.invalidate(ctx, gymID, id)
	return nil
}

// Delete removes the row outright; normal flow marks leads lost instead and
// reserves this for erroneous records.
func (s *leadService) Delete(ctx context.Context, gymID, id uuid.UUID) error {
	deleted, err := s.leadRepo.Delete(ctx, gymID, id)
	if err != nil {
		return &common.ServiceError{Op: "delete lead", Err: err}
	}
	if !deleted {
		return &common.EntityNotFoundError{Entity: "lead", ID: id}
	}

	s.invalidate(ctx, gymID, id)
	return nil
}

func (s *leadService) Prioritized(ctx context.Context, gymID uuid.UUID, count int) ([]*models.Lead, error) {
	if count <= 0 {
		count = 20
	}
	key := caching.Key("lead", "list", gymID, map[string]string{"prioritized": strconv.Itoa(count)})

	var cached []*models.Lead
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	leads, err := s.leadRepo.Prioritized(ctx, gymID, count)
	if err != nil {
		return nil, &common.ServiceError{Op: "prioritize leads", Err: err}
	}

	if err := s.cache.SetJSON(ctx, key, leads, caching.TTLList); err != nil {
		log.Printf("WARN: prioritized leads cache write failed: %v", err)
	}
	return leads, nil
}

func (s *leadService) AttachTag(ctx context.Context, gymID, leadID, tagID uuid.UUID) error {
	attached, err := s.leadRepo.AttachTag(ctx, gymID, leadID, tagID)
	if err != nil {
		return &common.ServiceError{Op: "attach tag", Err: err}
	}
	if !attached {
		// Either lead or tag is outside the gym, or the link already exists.
		lead, err := s.leadRepo.GetByID(ctx, gymID, leadID)
		if err != nil {
			return &common.ServiceError{Op: "attach tag", Err: err}
		}
		if lead == nil {
			return &common.EntityNotFoundError{Entity: "lead", ID: leadID}
		}
	}
	s.invalidate(ctx, gymID, leadID)
	return nil
}

func (s *leadService) DetachTag(ctx context.Context, gymID, leadID, tagID uuid.UUID) error {
	if _, err := s.leadRepo.DetachTag(ctx, gymID, leadID, tagID); err != nil {
		return &common.ServiceError{Op: "detach tag", Err: err}
	}
	s.invalidate(ctx, gymID, leadID)
	return nil
}

func (s *leadService) Tags(ctx context.Context, gymID, leadID uuid.UUID) ([]*models.Tag, error) {
	tags, err := s.leadRepo.Tags(ctx, gymID, leadID)
	if err != nil {
		return nil, &common.ServiceError{Op: "list lead tags", Err: err}
	}
	return tags, nil
}

// invalidate drops the lead's detail key, every cached lead list variant for
// the tenant, and the tenant's aggregates. Best-effort freshness: failures are
// logged, not surfaced.
func (s *leadService) invalidate(ctx context.Context, gymID, leadID uuid.UUID) {
	if err := s.cache.DeleteLead(ctx, gymID, leadID); err != nil {
		log.Printf("WARN: failed to invalidate lead %s detail cache: %v", leadID, err)
	}
	if err := s.cache.InvalidateLists(ctx, "lead", gymID); err != nil {
		log.Printf("WARN: failed to invalidate lead list cache for gym %s: %v", gymID, err)
	}
	if err := s.cache.InvalidateTenantAnalytics(ctx, gymID); err != nil {
		log.Printf("WARN: failed to invalidate analytics cache for gym %s: %v", gymID, err)
	}
}

func leadFilterArgs(filter *models.LeadFilter) map[string]string {
	if filter == nil {
		return nil
	}
	args := make(map[string]string)
	if filter.Status != nil {
		args["status"] = *filter.Status
	}
	if filter.Source != nil {
		args["source"] = *filter.Source
	}
	if filter.BranchID != nil {
		args["branch"] = filter.BranchID.String()
	}
	if filter.AssignedTo != nil {
		args["assigned"] = filter.AssignedTo.String()
	}
	if filter.Search != "" {
		args["search"] = filter.Search
	}
	if filter.SortBy != "" {
		args["sort"] = filter.SortBy + ":" + filter.SortOrder
	}
	if filter.Limit > 0 {
		args["limit"] = strconv.Itoa(filter.Limit)
	}
	if filter.Offset > 0 {
		args["offset"] = strconv.Itoa(filter.Offset)
	}
	return args
}

package services

import (
	"context"
	"log"
	"strconv"
	"strings"

	"gymflow/internal/caching"
	"gymflow/internal/common"
	"gymflow/internal/models"
	"gymflow/internal/repositories"

	"github.com/google/uuid"
)

type KnowledgeService interface {
	Create(ctx context.Context, gymID uuid.UUID, item *models.KnowledgeItem) error
	GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.KnowledgeItem, error)
	List(ctx context.Context, gymID uuid.UUID, filter *models.KnowledgeFilter) ([]*models.KnowledgeItem, error)
	Update(ctx context.Context, gymID uuid.UUID, item *models.KnowledgeItem) error
	Delete(ctx context.Context, gymID, id uuid.UUID) error
}

type knowledgeService struct {
	knowledgeRepo repositories.KnowledgeRepository
	branchRepo    repositories.BranchRepository
	storage       StorageService
	cache         caching.CacheService
}

func NewKnowledgeService(knowledgeRepo repositories.KnowledgeRepository, branchRepo repositories.BranchRepository,
	storage StorageService, cache caching.CacheService) KnowledgeService {
	return &knowledgeService{
		knowledgeRepo: knowledgeRepo,
		branchRepo:    branchRepo,
		storage:       storage,
		cache:         cache,
	}
}

func (s *knowledgeService) Create(ctx context.Context, gymID uuid.UUID, item *models.KnowledgeItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	item.GymID = gymID

	// An entry is either a Q&A pair or an uploaded document.
	hasQA := item.Question != nil && strings.TrimSpace(*item.Question) != ""
	hasPDF := item.PDFURL != nil && *item.PDFURL != ""
	if !hasQA && !hasPDF {
		return &common.ValidationError{Field: "question", Message: "knowledge item needs a question or a document"}
	}
	if hasQA && (item.Answer == nil || strings.TrimSpace(*item.Answer) == "") {
		return &common.ValidationError{Field: "answer", Message: "answer is required for a question entry"}
	}

	if item.BranchID != nil {
		branch, err := s.branchRepo.GetByID(ctx, gymID, *item.BranchID)
		if err != nil {
			return &common.ServiceError{Op: "resolve knowledge branch", Err: err}
		}
		if branch == nil {
			return &common.EntityNotFoundError{Entity: "branch", ID: *item.BranchID}
		}
	}

	if err := s.knowledgeRepo.Create(ctx, item); err != nil {
		return &common.ServiceError{Op: "create knowledge item", Err: err}
	}
	s.invalidateList(ctx, gymID)
	return nil
}

func (s *knowledgeService) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.KnowledgeItem, error) {
	key := caching.DetailKey("knowledge", gymID, id)

	var cached models.KnowledgeItem
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	item, err := s.knowledgeRepo.GetByID(ctx, gymID, id)
	if err != nil {
		return nil, &common.ServiceError{Op: "get knowledge item", Err: err}
	}
	if item == nil {
		return nil, &common.EntityNotFoundError{Entity: "knowledge item", ID: id}
	}

	if err := s.cache.SetJSON(ctx, key, item, caching.TTLReference); err != nil {
		log.Printf("WARN: knowledge cache write failed for %s: %v", id, err)
	}
	return item, nil
}

func (s *knowledgeService) List(ctx context.Context, gymID uuid.UUID, filter *models.KnowledgeFilter) ([]*models.KnowledgeItem, error) {
	key := caching.Key("knowledge", "list", gymID, knowledgeFilterArgs(filter))

	var cached []*models.KnowledgeItem
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	items, err := s.knowledgeRepo.List(ctx, gymID, filter)
	if err != nil {
		return nil, &common.ServiceError{Op: "list knowledge items", Err: err}
	}

	if err := s.cache.SetJSON(ctx, key, items, caching.TTLReference); err != nil {
		log.Printf("WARN: knowledge list cache write failed: %v", err)
	}
	return items, nil
}

func (s *knowledgeService) Update(ctx context.Context, gymID uuid.UUID, item *models.KnowledgeItem) error {
	existing, err := s.knowledgeRepo.GetByID(ctx, gymID, item.ID)
	if err != nil {
		return &common.ServiceError{Op: "resolve knowledge item", Err: err}
	}
	if existing == nil {
		return &common.EntityNotFoundError{Entity: "knowledge item", ID: item.ID}
	}

	item.GymID = gymID
	item.CreatedAt = existing.CreatedAt

	if _, err := s.knowledgeRepo.Update(ctx, item); err != nil {
		return &common.ServiceError{Op: "update knowledge item", Err: err}
	}
	s.invalidate(ctx, gymID, item.ID)
	return nil
}

func (s *knowledgeService) Delete(ctx context.Context, gymID, id uuid.UUID) error {
	item, err := s.knowledgeRepo.GetByID(ctx, gymID, id)
	if err != nil {
		return &common.ServiceError{Op: "resolve knowledge item", Err: err}
	}
	if item == nil {
		return &common.EntityNotFoundError{Entity: "knowledge item", ID: id}
	}

	if _, err := s.knowledgeRepo.Delete(ctx, gymID, id); err != nil {
		return &common.ServiceError{Op: "delete knowledge item", Err: err}
	}

	// Best effort: the database row is authoritative, a leaked object only
	// costs storage.
	if s.storage != nil && item.PDFURL != nil && *item.PDFURL != "" {
		if err := s.storage.DeleteObject(ctx, BucketKnowledge, *item.PDFURL); err != nil {
			log.Printf("WARN: failed to delete knowledge document %s: %v", *item.PDFURL, err)
		}
	}

	s.invalidate(ctx, gymID, id)
	return nil
}

func (s *knowledgeService) invalidate(ctx context.Context, gymID, id uuid.UUID) {
	if err := s.cache.Delete(ctx, caching.DetailKey("knowledge", gymID, id)); err != nil {
		log.Printf("WARN: failed to invalidate knowledge %s detail cache: %v", id, err)
	}
	s.invalidateList(ctx, gymID)
}

func (s *knowledgeService) invalidateList(ctx context.Context, gymID uuid.UUID) {
	if err := s.cache.InvalidateLists(ctx, "knowledge", gymID); err != nil {
		log.Printf("WARN: failed to invalidate knowledge list cache for gym %s: %v", gymID, err)
	}
}

func knowledgeFilterArgs(filter *models.KnowledgeFilter) map[string]string {
	if filter == nil {
		return nil
	}
	args := make(map[string]string)
	if filter.BranchID != nil {
		args["branch"] = filter.BranchID.String()
	}
	if filter.Search != "" {
		args["search"] = filter.Search
	}
	if filter.Limit > 0 {
		args["limit"] = strconv.Itoa(filter.Limit)
	}
	if filter.Offset > 0 {
		args["offset"] = strconv.Itoa(filter.Offset)
	}
	return args
}

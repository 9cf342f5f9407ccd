package services

import (
	"context"
	"log"
	"strings"

	"gymflow/internal/caching"
	"gymflow/internal/common"
	"gymflow/internal/models"
	"gymflow/internal/repositories"

	"github.com/google/uuid"
)

type TagService interface {
	Create(ctx context.Context, gymID uuid.UUID, tag *models.Tag) error
	GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Tag, error)
	List(ctx context.Context, gymID uuid.UUID) ([]*models.Tag, error)
	Update(ctx context.Context, gymID uuid.UUID, tag *models.Tag) error
	Delete(ctx context.Context, gymID, id uuid.UUID) error
}

type tagService struct {
	tagRepo repositories.TagRepository
	cache   caching.CacheService
}

func NewTagService(tagRepo repositories.TagRepository, cache caching.CacheService) TagService {
	return &tagService{tagRepo: tagRepo, cache: cache}
}

func (s *tagService) Create(ctx context.Context, gymID uuid.UUID, tag *models.Tag) error {
	if tag.ID == uuid.Nil {
		tag.ID = uuid.New()
	}
	tag.GymID = gymID
	tag.Name = strings.TrimSpace(tag.Name)
	if tag.Name == "" {
		return &common.ValidationError{Field: "name", Message: "tag name is required"}
	}

	if err := s.tagRepo.Create(ctx, tag); err != nil {
		return &common.ServiceError{Op: "create tag", Err: err}
	}
	s.invalidateList(ctx, gymID)
	return nil
}

func (s *tagService) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Tag, error) {
	tag, err := s.tagRepo.GetByID(ctx, gymID, id)
	if err != nil {
		return nil, &common.ServiceError{Op: "get tag", Err: err}
	}
	if tag == nil {
		return nil, &common.EntityNotFoundError{Entity: "tag", ID: id}
	}
	return tag, nil
}

func (s *tagService) List(ctx context.Context, gymID uuid.UUID) ([]*models.Tag, error) {
	key := caching.Key("tag", "list", gymID, nil)

	var cached []*models.Tag
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	tags, err := s.tagRepo.List(ctx, gymID)
	if err != nil {
		return nil, &common.ServiceError{Op: "list tags", Err: err}
	}

	if err := s.cache.SetJSON(ctx, key, tags, caching.TTLReference); err != nil {
		log.Printf("WARN: tag list cache write failed: %v", err)
	}
	return tags, nil
}

func (s *tagService) Update(ctx context.Context, gymID uuid.UUID, tag *models.Tag) error {
	tag.GymID = gymID
	tag.Name = strings.TrimSpace(tag.Name)
	if tag.Name == "" {
		return &common.ValidationError{Field: "name", Message: "tag name is required"}
	}

	updated, err := s.tagRepo.Update(ctx, tag)
	if err != nil {
		return &common.ServiceError{Op: "update tag", Err: err}
	}
	if !updated {
		return &common.EntityNotFoundError{Entity: "tag", ID: tag.ID}
	}
	s.invalidateList(ctx, gymID)
	return nil
}

func (s *tagService) Delete(ctx context.Context, gymID, id uuid.UUID) error {
	deleted, err := s.tagRepo.Delete(ctx, gymID, id)
	if err != nil {
		return &common.ServiceError{Op: "delete tag", Err: err}
	}
	if !deleted {
		return &common.EntityNotFoundError{Entity: "tag", ID: id}
	}
	s.invalidateList(ctx, gymID)
	// Lead lists embed tag names through their filters.
	if err := s.cache.InvalidateLists(ctx, "lead", gymID); err != nil {
		log.Printf("WARN: failed to invalidate lead list cache for gym %s: %v", gymID, err)
	}
	return nil
}

func (s *tagService) invalidateList(ctx context.Context, gymID uuid.UUID) {
	if err := s.cache.InvalidateLists(ctx, "tag", gymID); err != nil {
		log.Printf("WARN: failed to invalidate tag list cache for gym %s: %v", gymID, err)
	}
}

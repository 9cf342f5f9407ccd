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

type GymService interface {
	Create(ctx context.Context, gym *models.Gym) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Gym, error)
	Update(ctx context.Context, gym *models.Gym) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type gymService struct {
	gymRepo repositories.GymRepository
	cache   caching.CacheService
}

func NewGymService(gymRepo repositories.GymRepository, cache caching.CacheService) GymService {
	return &gymService{gymRepo: gymRepo, cache: cache}
}

func (s *gymService) Create(ctx context.Context, gym *models.Gym) error {
	if gym.ID == uuid.Nil {
		gym.ID = uuid.New()
	}
	gym.Name = strings.TrimSpace(gym.Name)
	if gym.Name == "" {
		return &common.ValidationError{Field: "name", Message: "gym name is required"}
	}
	gym.IsActive = true

	if err := s.gymRepo.Create(ctx, gym); err != nil {
		return &common.ServiceError{Op: "create gym", Err: err}
	}
	return nil
}

func (s *gymService) GetByID(ctx context.Context, id uuid.UUID) (*models.Gym, error) {
	key := caching.DetailKey("gym", id, id)

	var cached models.Gym
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	gym, err := s.gymRepo.GetByID(ctx, id)
	if err != nil {
		return nil, &common.ServiceError{Op: "get gym", Err: err}
	}
	if gym == nil {
		return nil, &common.EntityNotFoundError{Entity: "gym", ID: id}
	}

	if err := s.cache.SetJSON(ctx, key, gym, caching.TTLReference); err != nil {
		log.Printf("WARN: gym cache write failed for %s: %v", id, err)
	}
	return gym, nil
}

func (s *gymService) Update(ctx context.Context, gym *models.Gym) error {
	existing, err := s.gymRepo.GetByID(ctx, gym.ID)
	if err != nil {
		return &common.ServiceError{Op: "resolve gym", Err: err}
	}
	if existing == nil {
		return &common.EntityNotFoundError{Entity: "gym", ID: gym.ID}
	}

	gym.Name = strings.TrimSpace(gym.Name)
	if gym.Name == "" {
		return &common.ValidationError{Field: "name", Message: "gym name is required"}
	}
	gym.CreatedAt = existing.CreatedAt

	if _, err := s.gymRepo.Update(ctx, gym); err != nil {
		return &common.ServiceError{Op: "update gym", Err: err}
	}
	s.invalidate(ctx, gym.ID)
	return nil
}

// Deactivate takes the tenant out of scheduler rotation and drops every
// cache entry it owns.
func (s *gymService) Deactivate(ctx context.Context, id uuid.UUID) error {
	gym, err := s.gymRepo.GetByID(ctx, id)
	if err != nil {
		return &common.ServiceError{Op: "resolve gym", Err: err}
	}
	if gym == nil {
		return &common.EntityNotFoundError{Entity: "gym", ID: id}
	}

	gym.IsActive = false
	if _, err := s.gymRepo.Update(ctx, gym); err != nil {
		return &common.ServiceError{Op: "deactivate gym", Err: err}
	}

	if err := s.cache.InvalidateTenantCache(ctx, id); err != nil {
		log.Printf("WARN: failed to invalidate cache for gym %s: %v", id, err)
	}
	return nil
}

func (s *gymService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, caching.DetailKey("gym", id, id)); err != nil {
		log.Printf("WARN: failed to invalidate gym %s detail cache: %v", id, err)
	}
}

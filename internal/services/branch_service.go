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

type BranchService interface {
	Create(ctx context.Context, gymID uuid.UUID, branch *models.Branch) error
	GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Branch, error)
	List(ctx context.Context, gymID uuid.UUID) ([]*models.Branch, error)
	Update(ctx context.Context, gymID uuid.UUID, branch *models.Branch) error
	Delete(ctx context.Context, gymID, id uuid.UUID) error
}

type branchService struct {
	branchRepo repositories.BranchRepository
	cache      caching.CacheService
}

func NewBranchService(branchRepo repositories.BranchRepository, cache caching.CacheService) BranchService {
	return &branchService{branchRepo: branchRepo, cache: cache}
}

func (s *branchService) Create(ctx context.Context, gymID uuid.UUID, branch *models.Branch) error {
	if branch.ID == uuid.Nil {
		branch.ID = uuid.New()
	}
	branch.GymID = gymID
	branch.Name = strings.TrimSpace(branch.Name)
	if branch.Name == "" {
		return &common.ValidationError{Field: "name", Message: "branch name is required"}
	}

	if err := s.branchRepo.Create(ctx, branch); err != nil {
		return &common.ServiceError{Op: "create branch", Err: err}
	}
	s.invalidateList(ctx, gymID)
	return nil
}

func (s *branchService) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Branch, error) {
	branch, err := s.branchRepo.GetByID(ctx, gymID, id)
	if err != nil {
		return nil, &common.ServiceError{Op: "get branch", Err: err}
	}
	if branch == nil {
		return nil, &common.EntityNotFoundError{Entity: "branch", ID: id}
	}
	return branch, nil
}

func (s *branchService) List(ctx context.Context, gymID uuid.UUID) ([]*models.Branch, error) {
	key := caching.Key("branch", "list", gymID, nil)

	var cached []*models.Branch
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	branches, err := s.branchRepo.List(ctx, gymID)
	if err != nil {
		return nil, &common.ServiceError{Op: "list branches", Err: err}
	}

	if err := s.cache.SetJSON(ctx, key, branches, caching.TTLReference); err != nil {
		log.Printf("WARN: branch list cache write failed: %v", err)
	}
	return branches, nil
}

func (s *branchService) Update(ctx context.Context, gymID uuid.UUID, branch *models.Branch) error {
	branch.GymID = gymID
	branch.Name = strings.TrimSpace(branch.Name)
	if branch.Name == "" {
		return &common.ValidationError{Field: "name", Message: "branch name is required"}
	}

	updated, err := s.branchRepo.Update(ctx, branch)
	if err != nil {
		return &common.ServiceError{Op: "update branch", Err: err}
	}
	if !updated {
		return &common.EntityNotFoundError{Entity: "branch", ID: branch.ID}
	}
	s.invalidateList(ctx, gymID)
	return nil
}

func (s *branchService) Delete(ctx context.Context, gymID, id uuid.UUID) error {
	deleted, err := s.branchRepo.Delete(ctx, gymID, id)
	if err != nil {
		return &common.ServiceError{Op: "delete branch", Err: err}
	}
	if !deleted {
		return &common.EntityNotFoundError{Entity: "branch", ID: id}
	}
	s.invalidateList(ctx, gymID)
	return nil
}

func (s *branchService) invalidateList(ctx context.Context, gymID uuid.UUID) {
	if err := s.cache.InvalidateLists(ctx, "branch", gymID); err != nil {
		log.Printf("WARN: failed to invalidate branch list cache for gym %s: %v", gymID, err)
	}
}

package repositories

import (
	"context"
	"errors"

	"gymflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type BranchRepository interface {
	Create(ctx context.Context, branch *models.Branch) error
	GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Branch, error)
	Update(ctx context.Context, branch *models.Branch) (bool, error)
	Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error)
	List(ctx context.Context, gymID uuid.UUID) ([]*models.Branch, error)
}

const branchColumns = `id, gym_id, name, address, phone, email, is_active, created_at, updated_at`

type branchRepo struct {
	db DB
}

func NewBranchRepository(db DB) BranchRepository {
	return &branchRepo{db: db}
}

func (r *branchRepo) Create(ctx context.Context, branch *models.Branch) error {
	query := `
		INSERT INTO branches (id, gym_id, name, address, phone, email, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, branch.ID, branch.GymID, branch.Name, branch.Address,
		branch.Phone, branch.Email, branch.IsActive)
	return err
}

func (r *branchRepo) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Branch, error) {
	branch := &models.Branch{}
	query := `SELECT ` + branchColumns + ` FROM branches WHERE gym_id = $1 AND id = $2`
	err := r.db.QueryRow(ctx, query, gymID, id).Scan(&branch.ID, &branch.GymID, &branch.Name,
		&branch.Address, &branch.Phone, &branch.Email, &branch.IsActive, &branch.CreatedAt, &branch.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return branch, nil
}

func (r *branchRepo) Update(ctx context.Context, branch *models.Branch) (bool, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE branches
		SET name = $1, address = $2, phone = $3, email = $4, is_active = $5, updated_at = NOW()
		WHERE gym_id = $6 AND id = $7
	`, branch.Name, branch.Address, branch.Phone, branch.Email, branch.IsActive, branch.GymID, branch.ID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *branchRepo) Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM branches WHERE gym_id = $1 AND id = $2`, gymID, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *branchRepo) List(ctx context.Context, gymID uuid.UUID) ([]*models.Branch, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+branchColumns+` FROM branches WHERE gym_id = $1 ORDER BY name`, gymID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var branches []*models.Branch
	for rows.Next() {
		branch := &models.Branch{}
		if err := rows.Scan(&branch.ID, &branch.GymID, &branch.Name, &branch.Address,
			&branch.Phone, &branch.Email, &branch.IsActive, &branch.CreatedAt, &branch.UpdatedAt); err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}
	return branches, rows.Err()
}

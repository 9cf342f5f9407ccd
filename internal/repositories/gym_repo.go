package repositories

import (
	"context"
	"errors"

	"gymflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GymRepository manages the tenant roots themselves, so its queries are keyed
// by gym id alone.
type GymRepository interface {
	Create(ctx context.Context, gym *models.Gym) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Gym, error)
	Update(ctx context.Context, gym *models.Gym) (bool, error)
	ListActive(ctx context.Context) ([]*models.Gym, error)
}

type gymRepo struct {
	db DB
}

func NewGymRepository(db DB) GymRepository {
	return &gymRepo{db: db}
}

func (r *gymRepo) Create(ctx context.Context, gym *models.Gym) error {
	query := `
		INSERT INTO gyms (id, name, address, phone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, gym.ID, gym.Name, gym.Address, gym.Phone, gym.IsActive)
	return err
}

func (r *gymRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Gym, error) {
	gym := &models.Gym{}
	query := `SELECT id, name, address, phone, is_active, created_at, updated_at FROM gyms WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&gym.ID, &gym.Name, &gym.Address, &gym.Phone, &gym.IsActive, &gym.CreatedAt, &gym.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return gym, nil
}

func (r *gymRepo) Update(ctx context.Context, gym *models.Gym) (bool, error) {
	cmd, err := r.db.Exec(ctx,
		`UPDATE gyms SET name = $1, address = $2, phone = $3, is_active = $4, updated_at = NOW() WHERE id = $5`,
		gym.Name, gym.Address, gym.Phone, gym.IsActive, gym.ID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *gymRepo) ListActive(ctx context.Context) ([]*models.Gym, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, address, phone, is_active, created_at, updated_at FROM gyms WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gyms []*models.Gym
	for rows.Next() {
		gym := &models.Gym{}
		if err := rows.Scan(&gym.ID, &gym.Name, &gym.Address, &gym.Phone, &gym.IsActive, &gym.CreatedAt, &gym.UpdatedAt); err != nil {
			return nil, err
		}
		gyms = append(gyms, gym)
	}
	return gyms, rows.Err()
}

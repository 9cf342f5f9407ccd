package repositories

import (
	"context"
	"errors"

	"gymflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Tag, error)
	Update(ctx context.Context, tag *models.Tag) (bool, error)
	Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error)
	List(ctx context.Context, gymID uuid.UUID) ([]*models.Tag, error)
}

type tagRepo struct {
	db DB
}

func NewTagRepository(db DB) TagRepository {
	return &tagRepo{db: db}
}

func (r *tagRepo) Create(ctx context.Context, tag *models.Tag) error {
	query := `
		INSERT INTO tags (id, gym_id, name, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (gym_id, name) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, tag.ID, tag.GymID, tag.Name, tag.Color)
	return err
}

func (r *tagRepo) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Tag, error) {
	tag := &models.Tag{}
	query := `SELECT id, gym_id, name, color, created_at, updated_at FROM tags WHERE gym_id = $1 AND id = $2`
	err := r.db.QueryRow(ctx, query, gymID, id).Scan(&tag.ID, &tag.GymID, &tag.Name, &tag.Color, &tag.CreatedAt, &tag.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return tag, nil
}

func (r *tagRepo) Update(ctx context.Context, tag *models.Tag) (bool, error) {
	cmd, err := r.db.Exec(ctx,
		`UPDATE tags SET name = $1, color = $2, updated_at = NOW() WHERE gym_id = $3 AND id = $4`,
		tag.Name, tag.Color, tag.GymID, tag.ID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *tagRepo) Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tags WHERE gym_id = $1 AND id = $2`, gymID, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *tagRepo) List(ctx context.Context, gymID uuid.UUID) ([]*models.Tag, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, gym_id, name, color, created_at, updated_at FROM tags WHERE gym_id = $1 ORDER BY name`, gymID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag := &models.Tag{}
		if err := rows.Scan(&tag.ID, &tag.GymID, &tag.Name, &tag.Color, &tag.CreatedAt, &tag.UpdatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

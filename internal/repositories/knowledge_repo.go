package repositories

import (
	"context"
	"errors"
	"fmt"

	"gymflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type KnowledgeRepository interface {
	Create(ctx context.Context, item *models.KnowledgeItem) error
	GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.KnowledgeItem, error)
	Update(ctx context.Context, item *models.KnowledgeItem) (bool, error)
	Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error)
	List(ctx context.Context, gymID uuid.UUID, filter *models.KnowledgeFilter) ([]*models.KnowledgeItem, error)
}

const knowledgeColumns = `id, gym_id, branch_id, question, answer, pdf_url, tags, created_at, updated_at`

type knowledgeRepo struct {
	db DB
}

func NewKnowledgeRepository(db DB) KnowledgeRepository {
	return &knowledgeRepo{db: db}
}

func scanKnowledgeItem(row pgx.Row) (*models.KnowledgeItem, error) {
	item := &models.KnowledgeItem{}
	err := row.Scan(&item.ID, &item.GymID, &item.BranchID, &item.Question, &item.Answer,
		&item.PDFURL, &item.Tags, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *knowledgeRepo) Create(ctx context.Context, item *models.KnowledgeItem) error {
	query := `
		INSERT INTO knowledge_items (id, gym_id, branch_id, question, answer, pdf_url, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, item.ID, item.GymID, item.BranchID, item.Question,
		item.Answer, item.PDFURL, item.Tags)
	return err
}

func (r *knowledgeRepo) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.KnowledgeItem, error) {
	query := `SELECT ` + knowledgeColumns + ` FROM knowledge_items WHERE gym_id = $1 AND id = $2`
	item, err := scanKnowledgeItem(r.db.QueryRow(ctx, query, gymID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}

func (r *knowledgeRepo) Update(ctx context.Context, item *models.KnowledgeItem) (bool, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE knowledge_items
		SET branch_id = $1, question = $2, answer = $3, pdf_url = $4, tags = $5, updated_at = NOW()
		WHERE gym_id = $6 AND id = $7
	`, item.BranchID, item.Question, item.Answer, item.PDFURL, item.Tags, item.GymID, item.ID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *knowledgeRepo) Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM knowledge_items WHERE gym_id = $1 AND id = $2`, gymID, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *knowledgeRepo) List(ctx context.Context, gymID uuid.UUID, filter *models.KnowledgeFilter) ([]*models.KnowledgeItem, error) {
	if filter == nil {
		filter = &models.KnowledgeFilter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	queryBase := `SELECT ` + knowledgeColumns + ` FROM knowledge_items WHERE gym_id = $1`
	args := []any{gymID}
	argCount := 1

	if filter.BranchID != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND branch_id = $%d`, argCount)
		args = append(args, *filter.BranchID)
	}
	if filter.Search != "" {
		argCount++
		queryBase += fmt.Sprintf(` AND (COALESCE(question, '') ILIKE $%d OR COALESCE(answer, '') ILIKE $%d)`, argCount, argCount)
		args = append(args, "%"+filter.Search+"%")
	}

	queryBase += ` ORDER BY created_at DESC`

	argCount++
	queryBase += fmt.Sprintf(` LIMIT $%d`, argCount)
	args = append(args, limit)
	if filter.Offset > 0 {
		argCount++
		queryBase += fmt.Sprintf(` OFFSET $%d`, argCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, queryBase, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.KnowledgeItem
	for rows.Next() {
		item, err := scanKnowledgeItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

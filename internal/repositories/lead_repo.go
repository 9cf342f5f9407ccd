package repositories

import (
	"context"
	"errors"
	"fmt"

	"gymflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type LeadRepository interface {
	Create(ctx context.Context, lead *models.Lead) error
	GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Lead, error)
	Update(ctx context.Context, lead *models.Lead) (bool, error)
	Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error)
	List(ctx context.Context, gymID uuid.UUID, filter *models.LeadFilter) ([]*models.Lead, error)
	Prioritized(ctx context.Context, gymID uuid.UUID, count int) ([]*models.Lead, error)
	SetStatus(ctx context.Context, gymID, id uuid.UUID, status string) (bool, error)
	TouchLastCalled(ctx context.Context, gymID, id uuid.UUID) error
	AttachTag(ctx context.Context, gymID, leadID, tagID uuid.UUID) (bool, error)
	DetachTag(ctx context.Context, gymID, leadID, tagID uuid.UUID) (bool, error)
	Tags(ctx context.Context, gymID, leadID uuid.UUID) ([]*models.Tag, error)
	CountByStatus(ctx context.Context, gymID uuid.UUID) (map[string]int, error)
	WithTx(tx pgx.Tx) LeadRepository
}

const leadColumns = `id, gym_id, branch_id, assigned_to_user_id, first_name, last_name, phone, email,
		status, source, notes, interest, last_conversation_summary, last_called,
		qualification_score, qualification_notes, created_at, updated_at`

type leadRepo struct {
	db DB
}

func NewLeadRepository(db DB) LeadRepository {
	return &leadRepo{db: db}
}

func (r *leadRepo) WithTx(tx pgx.Tx) LeadRepository {
	return &leadRepo{db: tx}
}

func scanLead(row pgx.Row) (*models.Lead, error) {
	lead := &models.Lead{}
	err := row.Scan(&lead.ID, &lead.GymID, &lead.BranchID, &lead.AssignedToUserID, &lead.FirstName,
		&lead.LastName, &lead.Phone, &lead.Email, &lead.Status, &lead.Source, &lead.Notes,
		&lead.Interest, &lead.LastConvSummary, &lead.LastCalled, &lead.QualificationScore,
		&lead.QualificationNotes, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *leadRepo) Create(ctx context.Context, lead *models.Lead) error {
	query := `
		INSERT INTO leads (id, gym_id, branch_id, assigned_to_user_id, first_name, last_name, phone, email,
			status, source, notes, interest, last_conversation_summary, last_called,
			qualification_score, qualification_notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, lead.ID, lead.GymID, lead.BranchID, lead.AssignedToUserID,
		lead.FirstName, lead.LastName, lead.Phone, lead.Email, lead.Status, lead.Source,
		lead.Notes, lead.Interest, lead.LastConvSummary, lead.LastCalled,
		lead.QualificationScore, lead.QualificationNotes)
	return err
}

// GetByID returns (nil, nil) when the row is absent or belongs to another gym.
// The two cases are indistinguishable to the caller.
func (r *leadRepo) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE gym_id = $1 AND id = $2`, leadColumns)
	lead, err := scanLead(r.db.QueryRow(ctx, query, gymID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return lead, nil
}

func (r *leadRepo) Update(ctx context.Context, lead *models.Lead) (bool, error) {
	query := `
		UPDATE leads
		SET branch_id = $1, assigned_to_user_id = $2, first_name = $3, last_name = $4, phone = $5,
			email = $6, status = $7, source = $8, notes = $9, interest = $10,
			last_conversation_summary = $11, last_called = $12, qualification_score = $13,
			qualification_notes = $14, updated_at = NOW()
		WHERE gym_id = $15 AND id = $16
	`
	tag, err := r.db.Exec(ctx, query, lead.BranchID, lead.AssignedToUserID, lead.FirstName,
		lead.LastName, lead.Phone, lead.Email, lead.Status, lead.Source, lead.Notes,
		lead.Interest, lead.LastConvSummary, lead.LastCalled, lead.QualificationScore,
		lead.QualificationNotes, lead.GymID, lead.ID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *leadRepo) Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM leads WHERE gym_id = $1 AND id = $2`, gymID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *leadRepo) List(ctx context.Context, gymID uuid.UUID, filter *models.LeadFilter) ([]*models.Lead, error) {
	if filter == nil {
		filter = &models.LeadFilter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	queryBase := fmt.Sprintf(`SELECT %s FROM leads WHERE gym_id = $1`, leadColumns)
	args := []any{gymID}
	argCount := 1

	if filter.Status != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND status = $%d`, argCount)
		args = append(args, *filter.Status)
	}
	if filter.Source != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND source = $%d`, argCount)
		args = append(args, *filter.Source)
	}
	if filter.BranchID != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND branch_id = $%d`, argCount)
		args = append(args, *filter.BranchID)
	}
	if filter.AssignedTo != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND assigned_to_user_id = $%d`, argCount)
		args = append(args, *filter.AssignedTo)
	}
	if filter.Search != "" {
		argCount++
		queryBase += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d OR phone ILIKE $%d OR COALESCE(email, '') ILIKE $%d)`,
			argCount, argCount, argCount, argCount)
		args = append(args, "%"+filter.Search+"%")
	}

	validSortFields := map[string]bool{
		"created_at": true, "updated_at": true, "last_called": true,
		"first_name": true, "qualification_score": true,
	}
	sortField := "created_at"
	if validSortFields[filter.SortBy] {
		sortField = filter.SortBy
	}
	sortOrder := "DESC"
	if filter.SortOrder == "asc" {
		sortOrder = "ASC"
	}
	queryBase += fmt.Sprintf(` ORDER BY %s %s`, sortField, sortOrder)

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

	var leads []*models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// Prioritized returns call-worthy leads: never-called leads first, then the
// stalest last_called, skipping leads already converted or lost.
func (r *leadRepo) Prioritized(ctx context.Context, gymID uuid.UUID, count int) ([]*models.Lead, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM leads
		WHERE gym_id = $1 AND status NOT IN ('converted', 'lost')
		ORDER BY last_called ASC NULLS FIRST, created_at ASC
		LIMIT $2
	`, leadColumns)

	rows, err := r.db.Query(ctx, query, gymID, count)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (r *leadRepo) SetStatus(ctx context.Context, gymID, id uuid.UUID, status string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE leads SET status = $1, updated_at = NOW() WHERE gym_id = $2 AND id = $3`,
		status, gymID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *leadRepo) TouchLastCalled(ctx context.Context, gymID, id uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE leads SET last_called = NOW(), updated_at = NOW() WHERE gym_id = $1 AND id = $2`,
		gymID, id)
	return err
}

// AttachTag links a tag to a lead only when both belong to the gym.
func (r *leadRepo) AttachTag(ctx context.Context, gymID, leadID, tagID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO lead_tags (lead_id, tag_id)
		SELECT l.id, t.id
		FROM leads l, tags t
		WHERE l.gym_id = $1 AND l.id = $2 AND t.gym_id = $1 AND t.id = $3
		ON CONFLICT (lead_id, tag_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, gymID, leadID, tagID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *leadRepo) DetachTag(ctx context.Context, gymID, leadID, tagID uuid.UUID) (bool, error) {
	query := `
		DELETE FROM lead_tags lt
		USING leads l
		WHERE lt.lead_id = l.id AND l.gym_id = $1 AND lt.lead_id = $2 AND lt.tag_id = $3
	`
	tag, err := r.db.Exec(ctx, query, gymID, leadID, tagID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *leadRepo) Tags(ctx context.Context, gymID, leadID uuid.UUID) ([]*models.Tag, error) {
	query := `
		SELECT t.id, t.gym_id, t.name, t.color, t.created_at, t.updated_at
		FROM tags t
		JOIN lead_tags lt ON lt.tag_id = t.id
		JOIN leads l ON l.id = lt.lead_id
		WHERE l.gym_id = $1 AND l.id = $2
		ORDER BY t.name
	`
	rows, err := r.db.Query(ctx, query, gymID, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		t := &models.Tag{}
		if err := rows.Scan(&t.ID, &t.GymID, &t.Name, &t.Color, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *leadRepo) CountByStatus(ctx context.Context, gymID uuid.UUID) (map[string]int, error) {
	rows, err := r.db.Query(ctx,
		`SELECT status, COUNT(*) FROM leads WHERE gym_id = $1 GROUP BY status`, gymID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gymflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) (bool, error)
	Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error)
	List(ctx context.Context, gymID uuid.UUID, filter *models.CampaignFilter) ([]*models.Campaign, error)
	SetStatus(ctx context.Context, gymID, id uuid.UUID, status string) (bool, error)
	MarkRan(ctx context.Context, gymID, id uuid.UUID, at time.Time) error
	AddLead(ctx context.Context, gymID, campaignID, leadID uuid.UUID) (bool, error)
	RemoveLead(ctx context.Context, gymID, campaignID, leadID uuid.UUID) (bool, error)
	DueLeads(ctx context.Context, gymID, campaignID uuid.UUID, calledBefore time.Time, limit int) ([]*models.Lead, error)
	CountLeadsByStatus(ctx context.Context, gymID, campaignID uuid.UUID) (map[string]int, error)
	ListDue(ctx context.Context, asOf time.Time) ([]*models.Campaign, error)
	WithTx(tx pgx.Tx) CampaignRepository
}

const campaignColumns = `id, gym_id, branch_id, name, description, start_date, end_date,
		frequency_days, gap_days, status, last_run_at, created_at, updated_at`

type campaignRepo struct {
	db DB
}

func NewCampaignRepository(db DB) CampaignRepository {
	return &campaignRepo{db: db}
}

func (r *campaignRepo) WithTx(tx pgx.Tx) CampaignRepository {
	return &campaignRepo{db: tx}
}

func scanCampaign(row pgx.Row) (*models.Campaign, error) {
	campaign := &models.Campaign{}
	err := row.Scan(&campaign.ID, &campaign.GymID, &campaign.BranchID, &campaign.Name,
		&campaign.Description, &campaign.StartDate, &campaign.EndDate, &campaign.FrequencyDays,
		&campaign.GapDays, &campaign.Status, &campaign.LastRunAt, &campaign.CreatedAt, &campaign.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

func (r *campaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	query := `
		INSERT INTO campaigns (id, gym_id, branch_id, name, description, start_date, end_date,
			frequency_days, gap_days, status, last_run_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, campaign.ID, campaign.GymID, campaign.BranchID, campaign.Name,
		campaign.Description, campaign.StartDate, campaign.EndDate, campaign.FrequencyDays,
		campaign.GapDays, campaign.Status, campaign.LastRunAt)
	return err
}

// GetByID returns (nil, nil) when the row is absent or belongs to another gym.
func (r *campaignRepo) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE gym_id = $1 AND id = $2`, campaignColumns)
	campaign, err := scanCampaign(r.db.QueryRow(ctx, query, gymID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return campaign, nil
}

func (r *campaignRepo) Update(ctx context.Context, campaign *models.Campaign) (bool, error) {
	query := `
		UPDATE campaigns
		SET branch_id = $1, name = $2, description = $3, start_date = $4, end_date = $5,
			frequency_days = $6, gap_days = $7, status = $8, last_run_at = $9, updated_at = NOW()
		WHERE gym_id = $10 AND id = $11
	`
	tag, err := r.db.Exec(ctx, query, campaign.BranchID, campaign.Name, campaign.Description,
		campaign.StartDate, campaign.EndDate, campaign.FrequencyDays, campaign.GapDays,
		campaign.Status, campaign.LastRunAt, campaign.GymID, campaign.ID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *campaignRepo) Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM campaigns WHERE gym_id = $1 AND id = $2`, gymID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *campaignRepo) List(ctx context.Context, gymID uuid.UUID, filter *models.CampaignFilter) ([]*models.Campaign, error) {
	if filter == nil {
		filter = &models.CampaignFilter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	queryBase := fmt.Sprintf(`SELECT %s FROM campaigns WHERE gym_id = $1`, campaignColumns)
	args := []any{gymID}
	argCount := 1

	if filter.Status != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND status = $%d`, argCount)
		args = append(args, *filter.Status)
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

	var campaigns []*models.Campaign
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, rows.Err()
}

func (r *campaignRepo) SetStatus(ctx context.Context, gymID, id uuid.UUID, status string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE campaigns SET status = $1, updated_at = NOW() WHERE gym_id = $2 AND id = $3`,
		status, gymID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *campaignRepo) MarkRan(ctx context.Context, gymID, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE campaigns SET last_run_at = $1, updated_at = NOW() WHERE gym_id = $2 AND id = $3`,
		at, gymID, id)
	return err
}

// AddLead links a lead to a campaign only when both belong to the gym.
// Re-adding an existing member is a no-op.
func (r *campaignRepo) AddLead(ctx context.Context, gymID, campaignID, leadID uuid.UUID) (bool, error) {
	query := `
		INSERT INTO campaign_leads (campaign_id, lead_id)
		SELECT c.id, l.id
		FROM campaigns c, leads l
		WHERE c.gym_id = $1 AND c.id = $2 AND l.gym_id = $1 AND l.id = $3
		ON CONFLICT (campaign_id, lead_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, gymID, campaignID, leadID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *campaignRepo) RemoveLead(ctx context.Context, gymID, campaignID, leadID uuid.UUID) (bool, error) {
	query := `
		DELETE FROM campaign_leads cl
		USING campaigns c
		WHERE cl.campaign_id = c.id AND c.gym_id = $1 AND cl.campaign_id = $2 AND cl.lead_id = $3
	`
	tag, err := r.db.Exec(ctx, query, gymID, campaignID, leadID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DueLeads returns the campaign members the dialer may call now: not yet
// converted or lost, not called since calledBefore, and whose most recent
// recorded outcome was not a refusal. Never-called leads come first, then the
// stalest last_called.
func (r *campaignRepo) DueLeads(ctx context.Context, gymID, campaignID uuid.UUID, calledBefore time.Time, limit int) ([]*models.Lead, error) {
	query := `
		SELECT l.id, l.gym_id, l.branch_id, l.assigned_to_user_id, l.first_name, l.last_name, l.phone, l.email,
			l.status, l.source, l.notes, l.interest, l.last_conversation_summary, l.last_called,
			l.qualification_score, l.qualification_notes, l.created_at, l.updated_at
		FROM leads l
		JOIN campaign_leads cl ON cl.lead_id = l.id
		WHERE cl.campaign_id = $1 AND l.gym_id = $2
			AND l.status NOT IN ('converted', 'lost')
			AND (l.last_called IS NULL OR l.last_called <= $3)
			AND COALESCE((
				SELECT c.outcome FROM call_logs c
				WHERE c.gym_id = l.gym_id AND c.lead_id = l.id AND c.outcome IS NOT NULL
				ORDER BY c.created_at DESC
				LIMIT 1
			), '') <> 'not_interested'
		ORDER BY l.last_called ASC NULLS FIRST, l.created_at ASC
		LIMIT $4
	`
	rows, err := r.db.Query(ctx, query, campaignID, gymID, calledBefore, limit)
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

func (r *campaignRepo) CountLeadsByStatus(ctx context.Context, gymID, campaignID uuid.UUID) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT l.status, COUNT(*)
		FROM leads l
		JOIN campaign_leads cl ON cl.lead_id = l.id
		JOIN campaigns c ON c.id = cl.campaign_id
		WHERE c.gym_id = $1 AND c.id = $2
		GROUP BY l.status
	`, gymID, campaignID)
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

// ListDue returns, across all tenants, the active campaigns inside their date
// window that have not run within the last frequency_days. The dialer is the
// only caller.
func (r *campaignRepo) ListDue(ctx context.Context, asOf time.Time) ([]*models.Campaign, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM campaigns
		WHERE status = 'active'
			AND start_date <= $1
			AND (end_date IS NULL OR end_date >= $1)
			AND (last_run_at IS NULL OR last_run_at <= $1 - make_interval(days => frequency_days))
		ORDER BY created_at ASC
	`, campaignColumns)

	rows, err := r.db.Query(ctx, query, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []*models.Campaign
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, rows.Err()
}

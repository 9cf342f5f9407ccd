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

type CallLogRepository interface {
	Create(ctx context.Context, call *models.CallLog) error
	GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.CallLog, error)
	GetByExternalID(ctx context.Context, gymID uuid.UUID, externalCallID string) (*models.CallLog, error)
	Update(ctx context.Context, call *models.CallLog) (bool, error)
	Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error)
	List(ctx context.Context, gymID uuid.UUID, filter *models.CallFilter) ([]*models.CallLog, error)
	SetNotes(ctx context.Context, gymID, id uuid.UUID, notes string) (bool, error)
	MarkStaleInProgressFailed(ctx context.Context, olderThan time.Time) (int64, error)
	CountActive(ctx context.Context, gymID uuid.UUID) (int, error)
	CountOutboundSince(ctx context.Context, gymID uuid.UUID, since time.Time) (int, error)
	OutcomeStats(ctx context.Context, gymID uuid.UUID, from, to time.Time) (map[string]int, error)
	AverageDuration(ctx context.Context, gymID uuid.UUID, from, to time.Time) (float64, error)
	WithTx(tx pgx.Tx) CallLogRepository
}

const callColumns = `id, gym_id, lead_id, agent_user_id, direction, status, outcome, duration,
		start_time, end_time, recording_url, transcript, summary, sentiment, human_notes,
		external_call_id, created_at, updated_at`

type callLogRepo struct {
	db DB
}

func NewCallLogRepository(db DB) CallLogRepository {
	return &callLogRepo{db: db}
}

func (r *callLogRepo) WithTx(tx pgx.Tx) CallLogRepository {
	return &callLogRepo{db: tx}
}

func scanCallLog(row pgx.Row) (*models.CallLog, error) {
	call := &models.CallLog{}
	err := row.Scan(&call.ID, &call.GymID, &call.LeadID, &call.AgentUserID, &call.Direction,
		&call.Status, &call.Outcome, &call.Duration, &call.StartTime, &call.EndTime,
		&call.RecordingURL, &call.Transcript, &call.Summary, &call.Sentiment, &call.HumanNotes,
		&call.ExternalCallID, &call.CreatedAt, &call.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return call, nil
}

func (r *callLogRepo) Create(ctx context.Context, call *models.CallLog) error {
	query := `
		INSERT INTO call_logs (id, gym_id, lead_id, agent_user_id, direction, status, outcome, duration,
			start_time, end_time, recording_url, transcript, summary, sentiment, human_notes,
			external_call_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, call.ID, call.GymID, call.LeadID, call.AgentUserID,
		call.Direction, call.Status, call.Outcome, call.Duration, call.StartTime, call.EndTime,
		call.RecordingURL, call.Transcript, call.Summary, call.Sentiment, call.HumanNotes,
		call.ExternalCallID)
	return err
}

// GetByID returns (nil, nil) when the row is absent or belongs to another gym.
func (r *callLogRepo) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.CallLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM call_logs WHERE gym_id = $1 AND id = $2`, callColumns)
	call, err := scanCallLog(r.db.QueryRow(ctx, query, gymID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return call, nil
}

// GetByExternalID resolves the call a voice-gateway webhook refers to.
func (r *callLogRepo) GetByExternalID(ctx context.Context, gymID uuid.UUID, externalCallID string) (*models.CallLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM call_logs WHERE gym_id = $1 AND external_call_id = $2`, callColumns)
	call, err := scanCallLog(r.db.QueryRow(ctx, query, gymID, externalCallID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return call, nil
}

func (r *callLogRepo) Update(ctx context.Context, call *models.CallLog) (bool, error) {
	query := `
		UPDATE call_logs
		SET agent_user_id = $1, direction = $2, status = $3, outcome = $4, duration = $5,
			start_time = $6, end_time = $7, recording_url = $8, transcript = $9, summary = $10,
			sentiment = $11, human_notes = $12, external_call_id = $13, updated_at = NOW()
		WHERE gym_id = $14 AND id = $15
	`
	tag, err := r.db.Exec(ctx, query, call.AgentUserID, call.Direction, call.Status, call.Outcome,
		call.Duration, call.StartTime, call.EndTime, call.RecordingURL, call.Transcript,
		call.Summary, call.Sentiment, call.HumanNotes, call.ExternalCallID, call.GymID, call.ID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *callLogRepo) Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM call_logs WHERE gym_id = $1 AND id = $2`, gymID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *callLogRepo) List(ctx context.Context, gymID uuid.UUID, filter *models.CallFilter) ([]*models.CallLog, error) {
	if filter == nil {
		filter = &models.CallFilter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	queryBase := fmt.Sprintf(`SELECT %s FROM call_logs WHERE gym_id = $1`, callColumns)
	args := []any{gymID}
	argCount := 1

	if filter.LeadID != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND lead_id = $%d`, argCount)
		args = append(args, *filter.LeadID)
	}
	if filter.Status != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND status = $%d`, argCount)
		args = append(args, *filter.Status)
	}
	if filter.Direction != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND direction = $%d`, argCount)
		args = append(args, *filter.Direction)
	}
	if filter.Outcome != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND outcome = $%d`, argCount)
		args = append(args, *filter.Outcome)
	}
	if filter.From != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND created_at >= $%d`, argCount)
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND created_at <= $%d`, argCount)
		args = append(args, *filter.To)
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

	var calls []*models.CallLog
	for rows.Next() {
		call, err := scanCallLog(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	return calls, rows.Err()
}

func (r *callLogRepo) SetNotes(ctx context.Context, gymID, id uuid.UUID, notes string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE call_logs SET human_notes = $1, updated_at = NOW() WHERE gym_id = $2 AND id = $3`,
		notes, gymID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkStaleInProgressFailed sweeps calls stuck in_progress past the hard task
// limit into a terminal failed state, across all tenants.
func (r *callLogRepo) MarkStaleInProgressFailed(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE call_logs
		SET status = 'failed', outcome = COALESCE(outcome, 'other'), end_time = NOW(), updated_at = NOW()
		WHERE status = 'in_progress' AND updated_at < $1
	`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountActive counts calls the gym currently has in flight, scheduled or
// already dialing. The concurrency cap is judged against this number.
func (r *callLogRepo) CountActive(ctx context.Context, gymID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM call_logs
		WHERE gym_id = $1 AND status IN ('scheduled', 'in_progress')
	`, gymID).Scan(&count)
	return count, err
}

// CountOutboundSince counts outbound calls the gym created at or after since,
// canceled ones included so cancel-and-redial cannot sidestep the daily cap.
func (r *callLogRepo) CountOutboundSince(ctx context.Context, gymID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM call_logs
		WHERE gym_id = $1 AND direction = 'outbound' AND created_at >= $2
	`, gymID, since).Scan(&count)
	return count, err
}

func (r *callLogRepo) OutcomeStats(ctx context.Context, gymID uuid.UUID, from, to time.Time) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT COALESCE(outcome, 'none'), COUNT(*)
		FROM call_logs
		WHERE gym_id = $1 AND created_at >= $2 AND created_at <= $3
		GROUP BY outcome
	`, gymID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		stats[outcome] = count
	}
	return stats, rows.Err()
}

func (r *callLogRepo) AverageDuration(ctx context.Context, gymID uuid.UUID, from, to time.Time) (float64, error) {
	var avg float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(duration), 0)
		FROM call_logs
		WHERE gym_id = $1 AND status = 'completed' AND created_at >= $2 AND created_at <= $3
	`, gymID, from, to).Scan(&avg)
	return avg, err
}

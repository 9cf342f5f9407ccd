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

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Appointment, error)
	Update(ctx context.Context, appointment *models.Appointment) (bool, error)
	Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error)
	List(ctx context.Context, gymID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, error)
	SetStatus(ctx context.Context, gymID, id uuid.UUID, status string) (bool, error)
	FindConflict(ctx context.Context, gymID, employeeUserID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (*models.Appointment, error)
	CountByStatus(ctx context.Context, gymID uuid.UUID, from, to time.Time) (map[string]int, error)
	WithTx(tx pgx.Tx) AppointmentRepository
}

const appointmentColumns = `id, gym_id, lead_id, branch_id, employee_user_id, appointment_type,
		start_time, end_time, status, notes, reminder_sent, created_at, updated_at`

type appointmentRepo struct {
	db DB
}

func NewAppointmentRepository(db DB) AppointmentRepository {
	return &appointmentRepo{db: db}
}

func (r *appointmentRepo) WithTx(tx pgx.Tx) AppointmentRepository {
	return &appointmentRepo{db: tx}
}

func scanAppointment(row pgx.Row) (*models.Appointment, error) {
	a := &models.Appointment{}
	err := row.Scan(&a.ID, &a.GymID, &a.LeadID, &a.BranchID, &a.EmployeeUserID, &a.Type,
		&a.StartTime, &a.EndTime, &a.Status, &a.Notes, &a.ReminderSent, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *appointmentRepo) Create(ctx context.Context, appointment *models.Appointment) error {
	query := `
		INSERT INTO appointments (id, gym_id, lead_id, branch_id, employee_user_id, appointment_type,
			start_time, end_time, status, notes, reminder_sent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, appointment.ID, appointment.GymID, appointment.LeadID,
		appointment.BranchID, appointment.EmployeeUserID, appointment.Type, appointment.StartTime,
		appointment.EndTime, appointment.Status, appointment.Notes, appointment.ReminderSent)
	return err
}

// GetByID returns (nil, nil) when the row is absent or belongs to another gym.
func (r *appointmentRepo) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE gym_id = $1 AND id = $2`, appointmentColumns)
	appointment, err := scanAppointment(r.db.QueryRow(ctx, query, gymID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return appointment, nil
}

func (r *appointmentRepo) Update(ctx context.Context, appointment *models.Appointment) (bool, error) {
	query := `
		UPDATE appointments
		SET lead_id = $1, branch_id = $2, employee_user_id = $3, appointment_type = $4,
			start_time = $5, end_time = $6, status = $7, notes = $8, reminder_sent = $9,
			updated_at = NOW()
		WHERE gym_id = $10 AND id = $11
	`
	tag, err := r.db.Exec(ctx, query, appointment.LeadID, appointment.BranchID,
		appointment.EmployeeUserID, appointment.Type, appointment.StartTime, appointment.EndTime,
		appointment.Status, appointment.Notes, appointment.ReminderSent, appointment.GymID, appointment.ID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *appointmentRepo) Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE gym_id = $1 AND id = $2`, gymID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *appointmentRepo) List(ctx context.Context, gymID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, error) {
	if filter == nil {
		filter = &models.AppointmentFilter{}
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	queryBase := fmt.Sprintf(`SELECT %s FROM appointments WHERE gym_id = $1`, appointmentColumns)
	args := []any{gymID}
	argCount := 1

	if filter.LeadID != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND lead_id = $%d`, argCount)
		args = append(args, *filter.LeadID)
	}
	if filter.BranchID != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND branch_id = $%d`, argCount)
		args = append(args, *filter.BranchID)
	}
	if filter.EmployeeID != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND employee_user_id = $%d`, argCount)
		args = append(args, *filter.EmployeeID)
	}
	if filter.Status != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND status = $%d`, argCount)
		args = append(args, *filter.Status)
	}
	if filter.From != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND start_time >= $%d`, argCount)
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		argCount++
		queryBase += fmt.Sprintf(` AND start_time <= $%d`, argCount)
		args = append(args, *filter.To)
	}

	queryBase += ` ORDER BY start_time ASC`

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

	var appointments []*models.Appointment
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	return appointments, rows.Err()
}

func (r *appointmentRepo) SetStatus(ctx context.Context, gymID, id uuid.UUID, status string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE appointments SET status = $1, updated_at = NOW() WHERE gym_id = $2 AND id = $3`,
		status, gymID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FindConflict returns the earliest non-terminal appointment of the staff
// member overlapping [start, end), or (nil, nil) when the slot is free. Pass
// uuid.Nil as excludeID on create.
func (r *appointmentRepo) FindConflict(ctx context.Context, gymID, employeeUserID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (*models.Appointment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM appointments
		WHERE gym_id = $1 AND employee_user_id = $2
			AND status IN ('scheduled', 'confirmed')
			AND id <> $3
			AND start_time < $5 AND end_time > $4
		ORDER BY start_time ASC
		LIMIT 1
	`, appointmentColumns)

	appointment, err := scanAppointment(r.db.QueryRow(ctx, query, gymID, employeeUserID, excludeID, start, end))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return appointment, nil
}

func (r *appointmentRepo) CountByStatus(ctx context.Context, gymID uuid.UUID, from, to time.Time) (map[string]int, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*)
		FROM appointments
		WHERE gym_id = $1 AND start_time >= $2 AND start_time <= $3
		GROUP BY status
	`, gymID, from, to)
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

package services

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"gymflow/internal/caching"
	"gymflow/internal/common"
	"gymflow/internal/models"
	"gymflow/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TxStarter begins transactions for multi-step writes. Satisfied by
// pgxpool.Pool and by pgxmock under test.
type TxStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type AppointmentService interface {
	Create(ctx context.Context, gymID uuid.UUID, appointment *models.Appointment) error
	GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Appointment, error)
	List(ctx context.Context, gymID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, error)
	Reschedule(ctx context.Context, gymID uuid.UUID, appointment *models.Appointment) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, gymID, id uuid.UUID, status string) error
	Delete(ctx context.Context, gymID, id uuid.UUID) error
}

type appointmentService struct {
	db              TxStarter
	appointmentRepo repositories.AppointmentRepository
	leadRepo        repositories.LeadRepository
	cache           caching.CacheService
}

func NewAppointmentService(db TxStarter, appointmentRepo repositories.AppointmentRepository,
	leadRepo repositories.LeadRepository, cache caching.CacheService) AppointmentService {
	return &appointmentService{
		db:              db,
		appointmentRepo: appointmentRepo,
		leadRepo:        leadRepo,
		cache:           cache,
	}
}

// Create runs lead resolution, the staff conflict check, and the insert inside
// one transaction so a failure partway leaves nothing behind.
func (s *appointmentService) Create(ctx context.Context, gymID uuid.UUID, appointment *models.Appointment) error {
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.GymID = gymID
	if appointment.Status == "" {
		appointment.Status = models.AppointmentStatusScheduled
	}
	if appointment.Status != models.AppointmentStatusScheduled {
		return &common.ValidationError{Field: "status", Message: "new appointments must start as scheduled"}
	}
	if !models.ValidAppointmentType(appointment.Type) {
		return &common.ValidationError{Field: "type", Message: fmt.Sprintf("unknown appointment type %q", appointment.Type)}
	}
	if err := common.ValidateTimeWindow(appointment.StartTime, appointment.EndTime); err != nil {
		return &common.ValidationError{Field: "start_time", Message: err.Error()}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return &common.ServiceError{Op: "begin appointment transaction", Err: err}
	}
	defer tx.Rollback(ctx)

	lead, err := s.leadRepo.WithTx(tx).GetByID(ctx, gymID, appointment.LeadID)
	if err != nil {
		return &common.ServiceError{Op: "resolve appointment lead", Err: err}
	}
	if lead == nil {
		return &common.EntityNotFoundError{Entity: "lead", ID: appointment.LeadID}
	}

	txAppointments := s.appointmentRepo.WithTx(tx)
	if appointment.EmployeeUserID != nil {
		conflict, err := txAppointments.FindConflict(ctx, gymID, *appointment.EmployeeUserID,
			appointment.StartTime, appointment.EndTime, uuid.Nil)
		if err != nil {
			return &common.ServiceError{Op: "check appointment conflicts", Err: err}
		}
		if conflict != nil {
			return &common.SchedulingConflictError{
				EmployeeUserID:   *appointment.EmployeeUserID,
				Start:            appointment.StartTime,
				End:              appointment.EndTime,
				ConflictingID:    conflict.ID,
				ConflictingStart: conflict.StartTime,
				ConflictingEnd:   conflict.EndTime,
			}
		}
	}

	if err := txAppointments.Create(ctx, appointment); err != nil {
		return &common.ServiceError{Op: "create appointment", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return &common.ServiceError{Op: "commit appointment", Err: err}
	}

	s.invalidate(ctx, gymID, appointment.ID, appointment.LeadID)
	return nil
}

func (s *appointmentService) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Appointment, error) {
	if cached, err := s.cache.GetAppointment(ctx, gymID, id); err == nil && cached != nil {
		return cached, nil
	}

	appointment, err := s.appointmentRepo.GetByID(ctx, gymID, id)
	if err != nil {
		return nil, &common.ServiceError{Op: "get appointment", Err: err}
	}
	if appointment == nil {
		return nil, &common.EntityNotFoundError{Entity: "appointment", ID: id}
	}

	if err := s.cache.SetAppointment(ctx, gymID, appointment, caching.TTLDetail); err != nil {
		log.Printf("WARN: appointment cache write failed for %s: %v", id, err)
	}
	return appointment, nil
}

func (s *appointmentService) List(ctx context.Context, gymID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, error) {
	key := caching.Key("appointment", "list", gymID, appointmentFilterArgs(filter))

	var cached []*models.Appointment
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	appointments, err := s.appointmentRepo.List(ctx, gymID, filter)
	if err != nil {
		return nil, &common.ServiceError{Op: "list appointments", Err: err}
	}

	if err := s.cache.SetJSON(ctx, key, appointments, caching.TTLList); err != nil {
		log.Printf("WARN: appointment list cache write failed: %v", err)
	}
	return appointments, nil
}

// Reschedule moves an appointment's window, staff, or type. Status changes go
// through UpdateStatus; terminal appointments cannot be rescheduled.
func (s *appointmentService) Reschedule(ctx context.Context, gymID uuid.UUID, appointment *models.Appointment) (*models.Appointment, error) {
	if err := common.ValidateTimeWindow(appointment.StartTime, appointment.EndTime); err != nil {
		return nil, &common.ValidationError{Field: "start_time", Message: err.Error()}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, &common.ServiceError{Op: "begin appointment transaction", Err: err}
	}
	defer tx.Rollback(ctx)

	txAppointments := s.appointmentRepo.WithTx(tx)
	existing, err := txAppointments.GetByID(ctx, gymID, appointment.ID)
	if err != nil {
		return nil, &common.ServiceError{Op: "resolve appointment", Err: err}
	}
	if existing == nil {
		return nil, &common.EntityNotFoundError{Entity: "appointment", ID: appointment.ID}
	}
	if models.AppointmentStatusTerminal(existing.Status) {
		return nil, &common.InvalidStatusTransitionError{
			Entity:    "appointment",
			Current:   existing.Status,
			Requested: existing.Status,
		}
	}

	appointment.GymID = existing.GymID
	appointment.LeadID = existing.LeadID
	appointment.Status = existing.Status
	appointment.CreatedAt = existing.CreatedAt

	if appointment.EmployeeUserID != nil {
		conflict, err := txAppointments.FindConflict(ctx, gymID, *appointment.EmployeeUserID,
			appointment.StartTime, appointment.EndTime, appointment.ID)
		if err != nil {
			return nil, &common.ServiceError{Op: "check appointment conflicts", Err: err}
		}
		if conflict != nil {
			return nil, &common.SchedulingConflictError{
				EmployeeUserID:   *appointment.EmployeeUserID,
				Start:            appointment.StartTime,
				End:              appointment.EndTime,
				ConflictingID:    conflict.ID,
				ConflictingStart: conflict.StartTime,
				ConflictingEnd:   conflict.EndTime,
			}
		}
	}

	if _, err := txAppointments.Update(ctx, appointment); err != nil {
		return nil, &common.ServiceError{Op: "update appointment", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &common.ServiceError{Op: "commit appointment", Err: err}
	}

	s.invalidate(ctx, gymID, appointment.ID, appointment.LeadID)
	return appointment, nil
}

// UpdateStatus enforces the forward-only machine; terminal states never move
// back to non-terminal ones.
func (s *appointmentService) UpdateStatus(ctx context.Context, gymID, id uuid.UUID, status string) error {
	appointment, err := s.appointmentRepo.GetByID(ctx, gymID, id)
	if err != nil {
		return &common.ServiceError{Op: "resolve appointment", Err: err}
	}
	if appointment == nil {
		return &common.EntityNotFoundError{Entity: "appointment", ID: id}
	}

	if !models.CanTransitionAppointment(appointment.Status, status) {
		return &common.InvalidStatusTransitionError{
			Entity:    "appointment",
			Current:   appointment.Status,
			Requested: status,
		}
	}

	updated, err := s.appointmentRepo.SetStatus(ctx, gymID, id, status)
	if err != nil {
		return &common.ServiceError{Op: "update appointment status", Err: err}
	}
	if !updated {
		return &common.EntityNotFoundError{Entity: "appointment", ID: id}
	}

	s.invalidate(ctx, gymID, id, appointment.LeadID)
	return nil
}

func (s *appointmentService) Delete(ctx context.Context, gymID, id uuid.UUID) error {
	appointment, err := s.appointmentRepo.GetByID(ctx, gymID, id)
	if err != nil {
		return &common.ServiceError{Op: "resolve appointment", Err: err}
	}
	if appointment == nil {
		return &common.EntityNotFoundError{Entity: "appointment", ID: id}
	}

	if _, err := s.appointmentRepo.Delete(ctx, gymID, id); err != nil {
		return &common.ServiceError{Op: "delete appointment", Err: err}
	}

	s.invalidate(ctx, gymID, id, appointment.LeadID)
	return nil
}

func (s *appointmentService) invalidate(ctx context.Context, gymID, appointmentID, leadID uuid.UUID) {
	if err := s.cache.DeleteAppointment(ctx, gymID, appointmentID); err != nil {
		log.Printf("WARN: failed to invalidate appointment %s detail cache: %v", appointmentID, err)
	}
	if err := s.cache.InvalidateLists(ctx, "appointment", gymID); err != nil {
		log.Printf("WARN: failed to invalidate appointment list cache for gym %s: %v", gymID, err)
	}
	// The lead detail view carries upcoming-appointment data.
	if err := s.cache.DeleteLead(ctx, gymID, leadID); err != nil {
		log.Printf("WARN: failed to invalidate lead %s detail cache: %v", leadID, err)
	}
	if err := s.cache.InvalidateTenantAnalytics(ctx, gymID); err != nil {
		log.Printf("WARN: failed to invalidate analytics cache for gym %s: %v", gymID, err)
	}
}

func appointmentFilterArgs(filter *models.AppointmentFilter) map[string]string {
	if filter == nil {
		return nil
	}
	args := make(map[string]string)
	if filter.LeadID != nil {
		args["lead"] = filter.LeadID.String()
	}
	if filter.BranchID != nil {
		args["branch"] = filter.BranchID.String()
	}
	if filter.EmployeeID != nil {
		args["employee"] = filter.EmployeeID.String()
	}
	if filter.Status != nil {
		args["status"] = *filter.Status
	}
	if filter.From != nil {
		args["from"] = filter.From.UTC().Format("2006-01-02T15:04:05")
	}
	if filter.To != nil {
		args["to"] = filter.To.UTC().Format("2006-01-02T15:04:05")
	}
	if filter.Limit > 0 {
		args["limit"] = strconv.Itoa(filter.Limit)
	}
	if filter.Offset > 0 {
		args["offset"] = strconv.Itoa(filter.Offset)
	}
	return args
}

package analytics

import (
	"context"
	"log"
	"time"

	"gymflow/internal/caching"
	"gymflow/internal/common"
	"gymflow/internal/models"
	"gymflow/internal/repositories"

	"github.com/google/uuid"
)

// Metric names double as cache-key segments.
const (
	MetricLeadFunnel       = "lead_funnel"
	MetricCallStats        = "call_stats"
	MetricAppointmentStats = "appointment_stats"
)

// Service computes per-tenant aggregates. Results are cached for an hour;
// the scheduler warms them so dashboards rarely hit Postgres.
type Service interface {
	LeadFunnel(ctx context.Context, gymID uuid.UUID) (map[string]any, error)
	CallStats(ctx context.Context, gymID uuid.UUID, from, to time.Time) (map[string]any, error)
	AppointmentStats(ctx context.Context, gymID uuid.UUID, from, to time.Time) (map[string]any, error)
	Dashboard(ctx context.Context, gymID uuid.UUID, from, to time.Time) (map[string]any, error)
	RefreshGym(ctx context.Context, gymID uuid.UUID) error
}

type service struct {
	leadRepo        repositories.LeadRepository
	callRepo        repositories.CallLogRepository
	appointmentRepo repositories.AppointmentRepository
	cache           caching.CacheService
}

func NewService(leadRepo repositories.LeadRepository, callRepo repositories.CallLogRepository,
	appointmentRepo repositories.AppointmentRepository, cache caching.CacheService) Service {
	return &service{
		leadRepo:        leadRepo,
		callRepo:        callRepo,
		appointmentRepo: appointmentRepo,
		cache:           cache,
	}
}

// LeadFunnel reports lead counts per status plus the conversion rate
// (converted over total).
func (s *service) LeadFunnel(ctx context.Context, gymID uuid.UUID) (map[string]any, error) {
	if cached, err := s.cache.GetTenantAnalytics(ctx, MetricLeadFunnel, gymID); err == nil && cached != nil {
		return cached, nil
	}

	counts, err := s.leadRepo.CountByStatus(ctx, gymID)
	if err != nil {
		return nil, &common.ServiceError{Op: "compute lead funnel", Err: err}
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	conversionRate := 0.0
	if total > 0 {
		conversionRate = float64(counts[models.LeadStatusConverted]) / float64(total)
	}

	result := map[string]any{
		"total_leads":     total,
		"by_status":       counts,
		"conversion_rate": conversionRate,
	}
	s.store(ctx, MetricLeadFunnel, gymID, result)
	return result, nil
}

// CallStats reports outcome distribution and average completed-call duration
// over the window.
func (s *service) CallStats(ctx context.Context, gymID uuid.UUID, from, to time.Time) (map[string]any, error) {
	if cached, err := s.cache.GetTenantAnalytics(ctx, MetricCallStats, gymID); err == nil && cached != nil {
		return cached, nil
	}

	outcomes, err := s.callRepo.OutcomeStats(ctx, gymID, from, to)
	if err != nil {
		return nil, &common.ServiceError{Op: "compute call stats", Err: err}
	}
	avgDuration, err := s.callRepo.AverageDuration(ctx, gymID, from, to)
	if err != nil {
		return nil, &common.ServiceError{Op: "compute call stats", Err: err}
	}

	total := 0
	for _, n := range outcomes {
		total += n
	}
	booked := outcomes[models.CallOutcomeAppointmentBooked]
	bookingRate := 0.0
	if total > 0 {
		bookingRate = float64(booked) / float64(total)
	}

	result := map[string]any{
		"total_calls":      total,
		"by_outcome":       outcomes,
		"avg_duration_sec": avgDuration,
		"booking_rate":     bookingRate,
		"from":             from.UTC().Format(time.RFC3339),
		"to":               to.UTC().Format(time.RFC3339),
	}
	s.store(ctx, MetricCallStats, gymID, result)
	return result, nil
}

// AppointmentStats reports status distribution and show rate (completed over
// completed plus no-shows) for appointments starting inside the window.
func (s *service) AppointmentStats(ctx context.Context, gymID uuid.UUID, from, to time.Time) (map[string]any, error) {
	if cached, err := s.cache.GetTenantAnalytics(ctx, MetricAppointmentStats, gymID); err == nil && cached != nil {
		return cached, nil
	}

	counts, err := s.appointmentRepo.CountByStatus(ctx, gymID, from, to)
	if err != nil {
		return nil, &common.ServiceError{Op: "compute appointment stats", Err: err}
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	completed := counts[models.AppointmentStatusCompleted]
	noShow := counts[models.AppointmentStatusNoShow]
	showRate := 0.0
	if completed+noShow > 0 {
		showRate = float64(completed) / float64(completed+noShow)
	}

	result := map[string]any{
		"total_appointments": total,
		"by_status":          counts,
		"show_rate":          showRate,
		"from":               from.UTC().Format(time.RFC3339),
		"to":                 to.UTC().Format(time.RFC3339),
	}
	s.store(ctx, MetricAppointmentStats, gymID, result)
	return result, nil
}

// Dashboard combines the three metric groups into one response.
func (s *service) Dashboard(ctx context.Context, gymID uuid.UUID, from, to time.Time) (map[string]any, error) {
	funnel, err := s.LeadFunnel(ctx, gymID)
	if err != nil {
		return nil, err
	}
	calls, err := s.CallStats(ctx, gymID, from, to)
	if err != nil {
		return nil, err
	}
	appointments, err := s.AppointmentStats(ctx, gymID, from, to)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"leads":        funnel,
		"calls":        calls,
		"appointments": appointments,
	}, nil
}

// RefreshGym recomputes every metric for a tenant, dropping stale entries
// first. Called by the hourly scheduler for each active gym.
func (s *service) RefreshGym(ctx context.Context, gymID uuid.UUID) error {
	if err := s.cache.InvalidateTenantAnalytics(ctx, gymID); err != nil {
		log.Printf("WARN: failed to drop analytics cache for gym %s: %v", gymID, err)
	}

	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if _, err := s.LeadFunnel(ctx, gymID); err != nil {
		return err
	}
	if _, err := s.CallStats(ctx, gymID, from, to); err != nil {
		return err
	}
	if _, err := s.AppointmentStats(ctx, gymID, from, to); err != nil {
		return err
	}
	return nil
}

func (s *service) store(ctx context.Context, metric string, gymID uuid.UUID, result map[string]any) {
	if err := s.cache.SetTenantAnalytics(ctx, metric, gymID, result, caching.TTLAnalytics); err != nil {
		log.Printf("WARN: failed to cache %s analytics for gym %s: %v", metric, gymID, err)
	}
}

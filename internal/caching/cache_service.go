package caching

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gymflow/internal/models"
)

type CacheService interface {
	// Lead caching
	GetLead(ctx context.Context, gymID, leadID uuid.UUID) (*models.Lead, error)
	SetLead(ctx context.Context, gymID uuid.UUID, lead *models.Lead, ttl time.Duration) error
	DeleteLead(ctx context.Context, gymID, leadID uuid.UUID) error

	// Appointment caching
	GetAppointment(ctx context.Context, gymID, appointmentID uuid.UUID) (*models.Appointment, error)
	SetAppointment(ctx context.Context, gymID uuid.UUID, appointment *models.Appointment, ttl time.Duration) error
	DeleteAppointment(ctx context.Context, gymID, appointmentID uuid.UUID) error

	// Call log caching
	GetCallLog(ctx context.Context, gymID, callID uuid.UUID) (*models.CallLog, error)
	SetCallLog(ctx context.Context, gymID uuid.UUID, call *models.CallLog, ttl time.Duration) error
	DeleteCallLog(ctx context.Context, gymID, callID uuid.UUID) error

	// List and aggregate caching, keyed by the composed keys from keys.go.
	// GetJSON reports (false, nil) on a miss.
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error

	// Analytics caching
	GetTenantAnalytics(ctx context.Context, metric string, gymID uuid.UUID) (map[string]any, error)
	SetTenantAnalytics(ctx context.Context, metric string, gymID uuid.UUID, analytics map[string]any, ttl time.Duration) error

	// Cache invalidation
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) (int, error)
	InvalidateLists(ctx context.Context, entity string, gymID uuid.UUID) error
	InvalidateTenantAnalytics(ctx context.Context, gymID uuid.UUID) error
	InvalidateTenantCache(ctx context.Context, gymID uuid.UUID) error

	// Generic string operations
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port URLs as well as bare host:port.
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetLead(ctx context.Context, gymID, leadID uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	hit, err := r.GetJSON(ctx, DetailKey("lead", gymID, leadID), &lead)
	if err != nil || !hit {
		return nil, err
	}
	return &lead, nil
}

func (r *redisCacheService) SetLead(ctx context.Context, gymID uuid.UUID, lead *models.Lead, ttl time.Duration) error {
	return r.SetJSON(ctx, DetailKey("lead", gymID, lead.ID), lead, ttl)
}

func (r *redisCacheService) DeleteLead(ctx context.Context, gymID, leadID uuid.UUID) error {
	return r.client.Del(ctx, DetailKey("lead", gymID, leadID)).Err()
}

func (r *redisCacheService) GetAppointment(ctx context.Context, gymID, appointmentID uuid.UUID) (*models.Appointment, error) {
	var appointment models.Appointment
	hit, err := r.GetJSON(ctx, DetailKey("appointment", gymID, appointmentID), &appointment)
	if err != nil || !hit {
		return nil, err
	}
	return &appointment, nil
}

func (r *redisCacheService) SetAppointment(ctx context.Context, gymID uuid.UUID, appointment *models.Appointment, ttl time.Duration) error {
	return r.SetJSON(ctx, DetailKey("appointment", gymID, appointment.ID), appointment, ttl)
}

func (r *redisCacheService) DeleteAppointment(ctx context.Context, gymID, appointmentID uuid.UUID) error {
	return r.client.Del(ctx, DetailKey("appointment", gymID, appointmentID)).Err()
}

func (r *redisCacheService) GetCallLog(ctx context.Context, gymID, callID uuid.UUID) (*models.CallLog, error) {
	var call models.CallLog
	hit, err := r.GetJSON(ctx, DetailKey("call", gymID, callID), &call)
	if err != nil || !hit {
		return nil, err
	}
	return &call, nil
}

func (r *redisCacheService) SetCallLog(ctx context.Context, gymID uuid.UUID, call *models.CallLog, ttl time.Duration) error {
	return r.SetJSON(ctx, DetailKey("call", gymID, call.ID), call, ttl)
}

func (r *redisCacheService) DeleteCallLog(ctx context.Context, gymID, callID uuid.UUID) error {
	return r.client.Del(ctx, DetailKey("call", gymID, callID)).Err()
}

func (r *redisCacheService) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (r *redisCacheService) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) GetTenantAnalytics(ctx context.Context, metric string, gymID uuid.UUID) (map[string]any, error) {
	var analytics map[string]any
	hit, err := r.GetJSON(ctx, AnalyticsKey(metric, gymID), &analytics)
	if err != nil || !hit {
		return nil, err
	}
	return analytics, nil
}

func (r *redisCacheService) SetTenantAnalytics(ctx context.Context, metric string, gymID uuid.UUID, analytics map[string]any, ttl time.Duration) error {
	return r.SetJSON(ctx, AnalyticsKey(metric, gymID), analytics, ttl)
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// DeletePattern removes every key matching pattern. Deleting keys that no
// longer exist is a no-op.
func (r *redisCacheService) DeletePattern(ctx context.Context, pattern string) (int, error) {
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return 0, err
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

func (r *redisCacheService) InvalidateLists(ctx context.Context, entity string, gymID uuid.UUID) error {
	_, err := r.DeletePattern(ctx, ListPattern(entity, gymID))
	return err
}

func (r *redisCacheService) InvalidateTenantAnalytics(ctx context.Context, gymID uuid.UUID) error {
	_, err := r.DeletePattern(ctx, AnalyticsPattern(gymID))
	return err
}

func (r *redisCacheService) InvalidateTenantCache(ctx context.Context, gymID uuid.UUID) error {
	_, err := r.DeletePattern(ctx, TenantPattern(gymID))
	return err
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

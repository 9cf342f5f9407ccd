package services

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"time"

	"gymflow/internal/caching"
	"gymflow/internal/models"
	"gymflow/internal/repositories"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Lead, error) {
	args := m.Called(ctx, gymID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

func (m *MockLeadRepository) Update(ctx context.Context, lead *models.Lead) (bool, error) {
	args := m.Called(ctx, lead)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeadRepository) Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, gymID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeadRepository) List(ctx context.Context, gymID uuid.UUID, filter *models.LeadFilter) ([]*models.Lead, error) {
	args := m.Called(ctx, gymID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Lead), args.Error(1)
}

func (m *MockLeadRepository) Prioritized(ctx context.Context, gymID uuid.UUID, count int) ([]*models.Lead, error) {
	args := m.Called(ctx, gymID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Lead), args.Error(1)
}

func (m *MockLeadRepository) SetStatus(ctx context.Context, gymID, id uuid.UUID, status string) (bool, error) {
	args := m.Called(ctx, gymID, id, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeadRepository) TouchLastCalled(ctx context.Context, gymID, id uuid.UUID) error {
	args := m.Called(ctx, gymID, id)
	return args.Error(0)
}

func (m *MockLeadRepository) AttachTag(ctx context.Context, gymID, leadID, tagID uuid.UUID) (bool, error) {
	args := m.Called(ctx, gymID, leadID, tagID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeadRepository) DetachTag(ctx context.Context, gymID, leadID, tagID uuid.UUID) (bool, error) {
	args := m.Called(ctx, gymID, leadID, tagID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeadRepository) Tags(ctx context.Context, gymID, leadID uuid.UUID) ([]*models.Tag, error) {
	args := m.Called(ctx, gymID, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tag), args.Error(1)
}

func (m *MockLeadRepository) CountByStatus(ctx context.Context, gymID uuid.UUID) (map[string]int, error) {
	args := m.Called(ctx, gymID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockLeadRepository) WithTx(tx pgx.Tx) repositories.LeadRepository {
	return m
}

type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(ctx context.Context, appointment *models.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *MockAppointmentRepository) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Appointment, error) {
	args := m.Called(ctx, gymID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) Update(ctx context.Context, appointment *models.Appointment) (bool, error) {
	args := m.Called(ctx, appointment)
	return args.Bool(0), args.Error(1)
}

func (m *MockAppointmentRepository) Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, gymID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockAppointmentRepository) List(ctx context.Context, gymID uuid.UUID, filter *models.AppointmentFilter) ([]*models.Appointment, error) {
	args := m.Called(ctx, gymID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) SetStatus(ctx context.Context, gymID, id uuid.UUID, status string) (bool, error) {
	args := m.Called(ctx, gymID, id, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockAppointmentRepository) FindConflict(ctx context.Context, gymID, employeeUserID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (*models.Appointment, error) {
	args := m.Called(ctx, gymID, employeeUserID, start, end, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) CountByStatus(ctx context.Context, gymID uuid.UUID, from, to time.Time) (map[string]int, error) {
	args := m.Called(ctx, gymID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockAppointmentRepository) WithTx(tx pgx.Tx) repositories.AppointmentRepository {
	return m
}

type MockCallLogRepository struct {
	mock.Mock
}

func (m *MockCallLogRepository) Create(ctx context.Context, call *models.CallLog) error {
	args := m.Called(ctx, call)
	return args.Error(0)
}

func (m *MockCallLogRepository) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.CallLog, error) {
	args := m.Called(ctx, gymID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CallLog), args.Error(1)
}

func (m *MockCallLogRepository) GetByExternalID(ctx context.Context, gymID uuid.UUID, externalCallID string) (*models.CallLog, error) {
	args := m.Called(ctx, gymID, externalCallID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CallLog), args.Error(1)
}

func (m *MockCallLogRepository) Update(ctx context.Context, call *models.CallLog) (bool, error) {
	args := m.Called(ctx, call)
	return args.Bool(0), args.Error(1)
}

func (m *MockCallLogRepository) Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, gymID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCallLogRepository) List(ctx context.Context, gymID uuid.UUID, filter *models.CallFilter) ([]*models.CallLog, error) {
	args := m.Called(ctx, gymID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CallLog), args.Error(1)
}

func (m *MockCallLogRepository) SetNotes(ctx context.Context, gymID, id uuid.UUID, notes string) (bool, error) {
	args := m.Called(ctx, gymID, id, notes)
	return args.Bool(0), args.Error(1)
}

func (m *MockCallLogRepository) MarkStaleInProgressFailed(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCallLogRepository) OutcomeStats(ctx context.Context, gymID uuid.UUID, from, to time.Time) (map[string]int, error) {
	args := m.Called(ctx, gymID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockCallLogRepository) AverageDuration(ctx context.Context, gymID uuid.UUID, from, to time.Time) (float64, error) {
	args := m.Called(ctx, gymID, from, to)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockCallLogRepository) CountActive(ctx context.Context, gymID uuid.UUID) (int, error) {
	args := m.Called(ctx, gymID)
	return args.Int(0), args.Error(1)
}

func (m *MockCallLogRepository) CountOutboundSince(ctx context.Context, gymID uuid.UUID, since time.Time) (int, error) {
	args := m.Called(ctx, gymID, since)
	return args.Int(0), args.Error(1)
}

func (m *MockCallLogRepository) WithTx(tx pgx.Tx) repositories.CallLogRepository {
	return m
}

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}

// fakeCache is an in-memory CacheService for service tests. It stores JSON
// blobs keyed exactly like the redis implementation so tests can assert on
// cache hits, misses, and invalidation patterns.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]byte)}
}

func (f *fakeCache) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[key]
	return ok
}

func (f *fakeCache) GetLead(ctx context.Context, gymID, leadID uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	hit, err := f.GetJSON(ctx, caching.DetailKey("lead", gymID, leadID), &lead)
	if err != nil || !hit {
		return nil, err
	}
	return &lead, nil
}

func (f *fakeCache) SetLead(ctx context.Context, gymID uuid.UUID, lead *models.Lead, ttl time.Duration) error {
	return f.SetJSON(ctx, caching.DetailKey("lead", gymID, lead.ID), lead, ttl)
}

func (f *fakeCache) DeleteLead(ctx context.Context, gymID, leadID uuid.UUID) error {
	return f.Delete(ctx, caching.DetailKey("lead", gymID, leadID))
}

func (f *fakeCache) GetAppointment(ctx context.Context, gymID, appointmentID uuid.UUID) (*models.Appointment, error) {
	var appointment models.Appointment
	hit, err := f.GetJSON(ctx, caching.DetailKey("appointment", gymID, appointmentID), &appointment)
	if err != nil || !hit {
		return nil, err
	}
	return &appointment, nil
}

func (f *fakeCache) SetAppointment(ctx context.Context, gymID uuid.UUID, appointment *models.Appointment, ttl time.Duration) error {
	return f.SetJSON(ctx, caching.DetailKey("appointment", gymID, appointment.ID), appointment, ttl)
}

func (f *fakeCache) DeleteAppointment(ctx context.Context, gymID, appointmentID uuid.UUID) error {
	return f.Delete(ctx, caching.DetailKey("appointment", gymID, appointmentID))
}

func (f *fakeCache) GetCallLog(ctx context.Context, gymID, callID uuid.UUID) (*models.CallLog, error) {
	var call models.CallLog
	hit, err := f.GetJSON(ctx, caching.DetailKey("call", gymID, callID), &call)
	if err != nil || !hit {
		return nil, err
	}
	return &call, nil
}

func (f *fakeCache) SetCallLog(ctx context.Context, gymID uuid.UUID, call *models.CallLog, ttl time.Duration) error {
	return f.SetJSON(ctx, caching.DetailKey("call", gymID, call.ID), call, ttl)
}

func (f *fakeCache) DeleteCallLog(ctx context.Context, gymID, callID uuid.UUID) error {
	return f.Delete(ctx, caching.DetailKey("call", gymID, callID))
}

func (f *fakeCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	f.mu.Lock()
	data, ok := f.entries[key]
	f.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.entries[key] = data
	f.mu.Unlock()
	return nil
}

func (f *fakeCache) GetTenantAnalytics(ctx context.Context, metric string, gymID uuid.UUID) (map[string]any, error) {
	var analytics map[string]any
	hit, err := f.GetJSON(ctx, caching.AnalyticsKey(metric, gymID), &analytics)
	if err != nil || !hit {
		return nil, err
	}
	return analytics, nil
}

func (f *fakeCache) SetTenantAnalytics(ctx context.Context, metric string, gymID uuid.UUID, analytics map[string]any, ttl time.Duration) error {
	return f.SetJSON(ctx, caching.AnalyticsKey(metric, gymID), analytics, ttl)
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	delete(f.entries, key)
	f.mu.Unlock()
	return nil
}

func (f *fakeCache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := 0
	for key := range f.entries {
		if matched, _ := filepath.Match(pattern, key); matched {
			delete(f.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeCache) InvalidateLists(ctx context.Context, entity string, gymID uuid.UUID) error {
	_, err := f.DeletePattern(ctx, caching.ListPattern(entity, gymID))
	return err
}

func (f *fakeCache) InvalidateTenantAnalytics(ctx context.Context, gymID uuid.UUID) error {
	_, err := f.DeletePattern(ctx, caching.AnalyticsPattern(gymID))
	return err
}

func (f *fakeCache) InvalidateTenantCache(ctx context.Context, gymID uuid.UUID) error {
	_, err := f.DeletePattern(ctx, caching.TenantPattern(gymID))
	return err
}

func (f *fakeCache) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	f.mu.Lock()
	f.entries[key] = []byte(value)
	f.mu.Unlock()
	return nil
}

func (f *fakeCache) GetString(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if data, ok := f.entries[key]; ok {
		return string(data), nil
	}
	return "", nil
}

// stubTx satisfies pgx.Tx for services that wrap repository calls in a
// transaction. The repositories themselves are mocked, so only Commit and
// Rollback carry behavior.
type stubTx struct {
	committed  bool
	rolledBack bool
}

func (t *stubTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }

func (t *stubTx) Commit(ctx context.Context) error {
	if t.committed || t.rolledBack {
		return pgx.ErrTxClosed
	}
	t.committed = true
	return nil
}

func (t *stubTx) Rollback(ctx context.Context) error {
	if t.committed || t.rolledBack {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

func (t *stubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (t *stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }

func (t *stubTx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *stubTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (t *stubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (t *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (t *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

func (t *stubTx) Conn() *pgx.Conn { return nil }

type stubTxStarter struct {
	tx *stubTx
}

func (s *stubTxStarter) Begin(ctx context.Context) (pgx.Tx, error) {
	s.tx = &stubTx{}
	return s.tx, nil
}

type MockCampaignRepository struct {
	mock.Mock
}

func (m *MockCampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	args := m.Called(ctx, campaign)
	return args.Error(0)
}

func (m *MockCampaignRepository) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.Campaign, error) {
	args := m.Called(ctx, gymID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) Update(ctx context.Context, campaign *models.Campaign) (bool, error) {
	args := m.Called(ctx, campaign)
	return args.Bool(0), args.Error(1)
}

func (m *MockCampaignRepository) Delete(ctx context.Context, gymID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, gymID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCampaignRepository) List(ctx context.Context, gymID uuid.UUID, filter *models.CampaignFilter) ([]*models.Campaign, error) {
	args := m.Called(ctx, gymID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) SetStatus(ctx context.Context, gymID, id uuid.UUID, status string) (bool, error) {
	args := m.Called(ctx, gymID, id, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockCampaignRepository) MarkRan(ctx context.Context, gymID, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, gymID, id, at)
	return args.Error(0)
}

func (m *MockCampaignRepository) AddLead(ctx context.Context, gymID, campaignID, leadID uuid.UUID) (bool, error) {
	args := m.Called(ctx, gymID, campaignID, leadID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCampaignRepository) RemoveLead(ctx context.Context, gymID, campaignID, leadID uuid.UUID) (bool, error) {
	args := m.Called(ctx, gymID, campaignID, leadID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCampaignRepository) DueLeads(ctx context.Context, gymID, campaignID uuid.UUID, calledBefore time.Time, limit int) ([]*models.Lead, error) {
	args := m.Called(ctx, gymID, campaignID, calledBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Lead), args.Error(1)
}

func (m *MockCampaignRepository) CountLeadsByStatus(ctx context.Context, gymID, campaignID uuid.UUID) (map[string]int, error) {
	args := m.Called(ctx, gymID, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockCampaignRepository) ListDue(ctx context.Context, asOf time.Time) ([]*models.Campaign, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Campaign), args.Error(1)
}

func (m *MockCampaignRepository) WithTx(tx pgx.Tx) repositories.CampaignRepository {
	return m
}

type MockCallService struct {
	mock.Mock
}

func (m *MockCallService) Schedule(ctx context.Context, gymID uuid.UUID, call *models.CallLog) error {
	args := m.Called(ctx, gymID, call)
	return args.Error(0)
}

func (m *MockCallService) GetByID(ctx context.Context, gymID, id uuid.UUID) (*models.CallLog, error) {
	args := m.Called(ctx, gymID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CallLog), args.Error(1)
}

func (m *MockCallService) List(ctx context.Context, gymID uuid.UUID, filter *models.CallFilter) ([]*models.CallLog, error) {
	args := m.Called(ctx, gymID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CallLog), args.Error(1)
}

func (m *MockCallService) UpdateStatus(ctx context.Context, gymID, id uuid.UUID, status string) error {
	args := m.Called(ctx, gymID, id, status)
	return args.Error(0)
}

func (m *MockCallService) Complete(ctx context.Context, gymID, id uuid.UUID, result CallResult) (*models.CallLog, error) {
	args := m.Called(ctx, gymID, id, result)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CallLog), args.Error(1)
}

func (m *MockCallService) CompleteByExternalID(ctx context.Context, gymID uuid.UUID, externalCallID string, result CallResult) (*models.CallLog, error) {
	args := m.Called(ctx, gymID, externalCallID, result)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CallLog), args.Error(1)
}

func (m *MockCallService) AmendNotes(ctx context.Context, gymID, id uuid.UUID, notes string) error {
	args := m.Called(ctx, gymID, id, notes)
	return args.Error(0)
}

func (m *MockCallService) Cancel(ctx context.Context, gymID, id uuid.UUID) error {
	args := m.Called(ctx, gymID, id)
	return args.Error(0)
}

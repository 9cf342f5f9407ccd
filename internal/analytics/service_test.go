package analytics

import (
	"context"
	"testing"
	"time"

	"gymflow/internal/caching"
	"gymflow/internal/models"
	"gymflow/internal/repositories"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// nopCache never hits so every test computes from the repositories; writes
// are recorded so caching behavior can still be asserted.
type nopCache struct {
	stored map[string]map[string]any
}

func newNopCache() *nopCache {
	return &nopCache{stored: make(map[string]map[string]any)}
}

func (c *nopCache) GetLead(ctx context.Context, gymID, leadID uuid.UUID) (*models.Lead, error) {
	return nil, nil
}
func (c *nopCache) SetLead(ctx context.Context, gymID uuid.UUID, lead *models.Lead, ttl time.Duration) error {
	return nil
}
func (c *nopCache) DeleteLead(ctx context.Context, gymID, leadID uuid.UUID) error { return nil }
func (c *nopCache) GetAppointment(ctx context.Context, gymID, appointmentID uuid.UUID) (*models.Appointment, error) {
	return nil, nil
}
func (c *nopCache) SetAppointment(ctx context.Context, gymID uuid.UUID, appointment *models.Appointment, ttl time.Duration) error {
	return nil
}
func (c *nopCache) DeleteAppointment(ctx context.Context, gymID, appointmentID uuid.UUID) error {
	return nil
}
func (c *nopCache) GetCallLog(ctx context.Context, gymID, callID uuid.UUID) (*models.CallLog, error) {
	return nil, nil
}
func (c *nopCache) SetCallLog(ctx context.Context, gymID uuid.UUID, call *models.CallLog, ttl time.Duration) error {
	return nil
}
func (c *nopCache) DeleteCallLog(ctx context.Context, gymID, callID uuid.UUID) error { return nil }
func (c *nopCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	return false, nil
}
func (c *nopCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}
func (c *nopCache) GetTenantAnalytics(ctx context.Context, metric string, gymID uuid.UUID) (map[string]any, error) {
	return nil, nil
}
func (c *nopCache) SetTenantAnalytics(ctx context.Context, metric string, gymID uuid.UUID, analytics map[string]any, ttl time.Duration) error {
	c.stored[caching.AnalyticsKey(metric, gymID)] = analytics
	return nil
}
func (c *nopCache) Delete(ctx context.Context, key string) error              { return nil }
func (c *nopCache) DeletePattern(ctx context.Context, p string) (int, error)  { return 0, nil }
func (c *nopCache) InvalidateLists(ctx context.Context, e string, g uuid.UUID) error {
	return nil
}
func (c *nopCache) InvalidateTenantAnalytics(ctx context.Context, g uuid.UUID) error { return nil }
func (c *nopCache) InvalidateTenantCache(ctx context.Context, g uuid.UUID) error     { return nil }
func (c *nopCache) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}
func (c *nopCache) GetString(ctx context.Context, key string) (string, error) { return "", nil }

type AnalyticsServiceTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	cache   *nopCache
	service Service
	gymID   uuid.UUID
	context context.Context
	from    time.Time
	to      time.Time
}

func (suite *AnalyticsServiceTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock
	suite.cache = newNopCache()

	suite.service = NewService(
		repositories.NewLeadRepository(mock),
		repositories.NewCallLogRepository(mock),
		repositories.NewAppointmentRepository(mock),
		suite.cache,
	)
	suite.gymID = uuid.New()
	suite.context = context.Background()
	suite.from = time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	suite.to = suite.from.AddDate(0, 1, 0)
}

func (suite *AnalyticsServiceTestSuite) TearDownTest() {
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
	suite.mock.Close()
}

func TestAnalyticsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceTestSuite))
}

func (suite *AnalyticsServiceTestSuite) expectLeadCounts(rows *pgxmock.Rows) {
	suite.mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM leads WHERE gym_id = \$1 GROUP BY status`).
		WithArgs(suite.gymID).
		WillReturnRows(rows)
}

func (suite *AnalyticsServiceTestSuite) TestLeadFunnel_ConversionRate() {
	suite.expectLeadCounts(pgxmock.NewRows([]string{"status", "count"}).
		AddRow(models.LeadStatusNew, 10).
		AddRow(models.LeadStatusContacted, 5).
		AddRow(models.LeadStatusConverted, 5))

	funnel, err := suite.service.LeadFunnel(suite.context, suite.gymID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 20, funnel["total_leads"])
	assert.Equal(suite.T(), 0.25, funnel["conversion_rate"])
	assert.Contains(suite.T(), suite.cache.stored, caching.AnalyticsKey(MetricLeadFunnel, suite.gymID))
}

func (suite *AnalyticsServiceTestSuite) TestLeadFunnel_EmptyTenant() {
	suite.expectLeadCounts(pgxmock.NewRows([]string{"status", "count"}))

	funnel, err := suite.service.LeadFunnel(suite.context, suite.gymID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, funnel["total_leads"])
	assert.Equal(suite.T(), 0.0, funnel["conversion_rate"])
}

func (suite *AnalyticsServiceTestSuite) TestCallStats_BookingRate() {
	suite.mock.ExpectQuery(`
		SELECT COALESCE\(outcome, 'none'\), COUNT\(\*\)
		FROM call_logs
		WHERE gym_id = \$1 AND created_at >= \$2 AND created_at <= \$3
		GROUP BY outcome
	`).WithArgs(suite.gymID, suite.from, suite.to).
		WillReturnRows(pgxmock.NewRows([]string{"outcome", "count"}).
			AddRow(models.CallOutcomeAppointmentBooked, 3).
			AddRow(models.CallOutcomeNotInterested, 5).
			AddRow(models.CallOutcomeVoicemail, 2))
	suite.mock.ExpectQuery(`
		SELECT COALESCE\(AVG\(duration\), 0\)
		FROM call_logs
		WHERE gym_id = \$1 AND status = 'completed' AND created_at >= \$2 AND created_at <= \$3
	`).WithArgs(suite.gymID, suite.from, suite.to).
		WillReturnRows(pgxmock.NewRows([]string{"avg"}).AddRow(142.0))

	stats, err := suite.service.CallStats(suite.context, suite.gymID, suite.from, suite.to)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 10, stats["total_calls"])
	assert.Equal(suite.T(), 0.3, stats["booking_rate"])
	assert.Equal(suite.T(), 142.0, stats["avg_duration_sec"])
}

func (suite *AnalyticsServiceTestSuite) TestAppointmentStats_ShowRate() {
	suite.mock.ExpectQuery(`
		SELECT status, COUNT\(\*\)
		FROM appointments
		WHERE gym_id = \$1 AND start_time >= \$2 AND start_time <= \$3
		GROUP BY status
	`).WithArgs(suite.gymID, suite.from, suite.to).
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow(models.AppointmentStatusScheduled, 4).
			AddRow(models.AppointmentStatusCompleted, 6).
			AddRow(models.AppointmentStatusNoShow, 2))

	stats, err := suite.service.AppointmentStats(suite.context, suite.gymID, suite.from, suite.to)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 12, stats["total_appointments"])
	assert.Equal(suite.T(), 0.75, stats["show_rate"])
}

func (suite *AnalyticsServiceTestSuite) TestAppointmentStats_NoTerminalVisits() {
	suite.mock.ExpectQuery(`
		SELECT status, COUNT\(\*\)
		FROM appointments
		WHERE gym_id = \$1 AND start_time >= \$2 AND start_time <= \$3
		GROUP BY status
	`).WithArgs(suite.gymID, suite.from, suite.to).
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow(models.AppointmentStatusScheduled, 3))

	stats, err := suite.service.AppointmentStats(suite.context, suite.gymID, suite.from, suite.to)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0.0, stats["show_rate"], "show rate is zero before any visit resolves")
}

func (suite *AnalyticsServiceTestSuite) TestDashboard_CombinesMetricGroups() {
	suite.expectLeadCounts(pgxmock.NewRows([]string{"status", "count"}).
		AddRow(models.LeadStatusNew, 2))
	suite.mock.ExpectQuery(`SELECT COALESCE\(outcome, 'none'\), COUNT\(\*\)`).
		WithArgs(suite.gymID, suite.from, suite.to).
		WillReturnRows(pgxmock.NewRows([]string{"outcome", "count"}))
	suite.mock.ExpectQuery(`SELECT COALESCE\(AVG\(duration\), 0\)`).
		WithArgs(suite.gymID, suite.from, suite.to).
		WillReturnRows(pgxmock.NewRows([]string{"avg"}).AddRow(0.0))
	suite.mock.ExpectQuery(`SELECT status, COUNT\(\*\)
		FROM appointments`).
		WithArgs(suite.gymID, suite.from, suite.to).
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}))

	dashboard, err := suite.service.Dashboard(suite.context, suite.gymID, suite.from, suite.to)
	assert.NoError(suite.T(), err)
	assert.Contains(suite.T(), dashboard, "leads")
	assert.Contains(suite.T(), dashboard, "calls")
	assert.Contains(suite.T(), dashboard, "appointments")
}

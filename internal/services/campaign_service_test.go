package services

import (
	"context"
	"testing"
	"time"

	"gymflow/internal/caching"
	"gymflow/internal/common"
	"gymflow/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type CampaignServiceTestSuite struct {
	suite.Suite
	campaignRepo *MockCampaignRepository
	callSvc      *MockCallService
	cache        *fakeCache
	service      CampaignService
	ctx          context.Context
	gymID        uuid.UUID
}

func (suite *CampaignServiceTestSuite) SetupTest() {
	suite.campaignRepo = new(MockCampaignRepository)
	suite.callSvc = new(MockCallService)
	suite.cache = newFakeCache()
	suite.service = NewCampaignService(suite.campaignRepo, suite.callSvc, suite.cache)
	suite.ctx = context.Background()
	suite.gymID = uuid.New()
}

func (suite *CampaignServiceTestSuite) TearDownTest() {
	suite.campaignRepo.AssertExpectations(suite.T())
	suite.callSvc.AssertExpectations(suite.T())
}

func (suite *CampaignServiceTestSuite) newCampaign() *models.Campaign {
	return &models.Campaign{
		Name:          "Trial follow-up",
		StartDate:     time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC),
		FrequencyDays: 3,
		GapDays:       2,
	}
}

func (suite *CampaignServiceTestSuite) TestCreate_DefaultsToActive() {
	campaign := suite.newCampaign()

	suite.campaignRepo.On("Create", suite.ctx, mock.MatchedBy(func(c *models.Campaign) bool {
		return c.GymID == suite.gymID &&
			c.Status == models.CampaignStatusActive &&
			c.LastRunAt == nil
	})).Return(nil)

	err := suite.service.Create(suite.ctx, suite.gymID, campaign)

	suite.NoError(err)
	suite.NotEqual(uuid.Nil, campaign.ID)
}

func (suite *CampaignServiceTestSuite) TestCreate_RejectsTerminalStartStatus() {
	campaign := suite.newCampaign()
	campaign.Status = models.CampaignStatusCompleted

	err := suite.service.Create(suite.ctx, suite.gymID, campaign)

	var validationErr *common.ValidationError
	suite.ErrorAs(err, &validationErr)
	suite.Equal("status", validationErr.Field)
	suite.campaignRepo.AssertNotCalled(suite.T(), "Create")
}

func (suite *CampaignServiceTestSuite) TestCreate_RejectsZeroFrequency() {
	campaign := suite.newCampaign()
	campaign.FrequencyDays = 0

	err := suite.service.Create(suite.ctx, suite.gymID, campaign)

	var validationErr *common.ValidationError
	suite.ErrorAs(err, &validationErr)
	suite.Equal("frequency_days", validationErr.Field)
}

func (suite *CampaignServiceTestSuite) TestUpdate_PreservesStatusAndLastRun() {
	lastRun := time.Date(2026, time.August, 27, 9, 0, 0, 0, time.UTC)
	existing := suite.newCampaign()
	existing.ID = uuid.New()
	existing.GymID = suite.gymID
	existing.Status = models.CampaignStatusPaused
	existing.LastRunAt = &lastRun

	edited := suite.newCampaign()
	edited.ID = existing.ID
	edited.Name = "Renamed follow-up"
	edited.Status = models.CampaignStatusActive // must be ignored

	suite.campaignRepo.On("GetByID", suite.ctx, suite.gymID, existing.ID).Return(existing, nil)
	suite.campaignRepo.On("Update", suite.ctx, mock.MatchedBy(func(c *models.Campaign) bool {
		return c.Status == models.CampaignStatusPaused && c.LastRunAt == &lastRun
	})).Return(true, nil)

	result, err := suite.service.Update(suite.ctx, suite.gymID, edited)

	suite.NoError(err)
	suite.Equal("Renamed follow-up", result.Name)
	suite.Equal(models.CampaignStatusPaused, result.Status)
}

func (suite *CampaignServiceTestSuite) TestUpdateStatus_TerminalCampaignLocked() {
	campaignID := uuid.New()
	campaign := suite.newCampaign()
	campaign.ID = campaignID
	campaign.GymID = suite.gymID
	campaign.Status = models.CampaignStatusCompleted

	suite.campaignRepo.On("GetByID", suite.ctx, suite.gymID, campaignID).Return(campaign, nil)

	err := suite.service.UpdateStatus(suite.ctx, suite.gymID, campaignID, models.CampaignStatusActive)

	var transitionErr *common.InvalidStatusTransitionError
	suite.ErrorAs(err, &transitionErr)
	suite.Equal(models.CampaignStatusCompleted, transitionErr.Current)
	suite.campaignRepo.AssertNotCalled(suite.T(), "SetStatus")
}

func (suite *CampaignServiceTestSuite) TestUpdateStatus_PauseAndInvalidate() {
	campaignID := uuid.New()
	campaign := suite.newCampaign()
	campaign.ID = campaignID
	campaign.GymID = suite.gymID
	campaign.Status = models.CampaignStatusActive
	suite.Require().NoError(suite.cache.SetJSON(suite.ctx,
		caching.DetailKey("campaign", suite.gymID, campaignID), campaign, caching.TTLDetail))

	suite.campaignRepo.On("GetByID", suite.ctx, suite.gymID, campaignID).Return(campaign, nil)
	suite.campaignRepo.On("SetStatus", suite.ctx, suite.gymID, campaignID,
		models.CampaignStatusPaused).Return(true, nil)

	err := suite.service.UpdateStatus(suite.ctx, suite.gymID, campaignID, models.CampaignStatusPaused)

	suite.NoError(err)
	suite.False(suite.cache.has(caching.DetailKey("campaign", suite.gymID, campaignID)))
}

func (suite *CampaignServiceTestSuite) TestAddLeads_MissingCampaign() {
	campaignID := uuid.New()
	suite.campaignRepo.On("GetByID", suite.ctx, suite.gymID, campaignID).Return(nil, nil)

	err := suite.service.AddLeads(suite.ctx, suite.gymID, campaignID, []uuid.UUID{uuid.New()})

	var notFound *common.EntityNotFoundError
	suite.ErrorAs(err, &notFound)
	suite.Equal("campaign", notFound.Entity)
	suite.campaignRepo.AssertNotCalled(suite.T(), "AddLead")
}

func (suite *CampaignServiceTestSuite) TestGetByID_ServedFromCache() {
	campaignID := uuid.New()
	cached := suite.newCampaign()
	cached.ID = campaignID
	cached.GymID = suite.gymID
	suite.Require().NoError(suite.cache.SetJSON(suite.ctx,
		caching.DetailKey("campaign", suite.gymID, campaignID), cached, caching.TTLDetail))

	campaign, err := suite.service.GetByID(suite.ctx, suite.gymID, campaignID)

	suite.NoError(err)
	suite.Equal(campaignID, campaign.ID)
	suite.campaignRepo.AssertNotCalled(suite.T(), "GetByID")
}

func (suite *CampaignServiceTestSuite) TestMetrics_SumsLeadCounts() {
	campaignID := uuid.New()
	campaign := suite.newCampaign()
	campaign.ID = campaignID
	campaign.GymID = suite.gymID

	suite.campaignRepo.On("GetByID", suite.ctx, suite.gymID, campaignID).Return(campaign, nil)
	suite.campaignRepo.On("CountLeadsByStatus", suite.ctx, suite.gymID, campaignID).Return(map[string]int{
		models.LeadStatusContacted: 7,
		models.LeadStatusConverted: 2,
	}, nil)

	metrics, err := suite.service.Metrics(suite.ctx, suite.gymID, campaignID)

	suite.NoError(err)
	suite.Equal(9, metrics.TotalLeads)
	suite.Equal(7, metrics.LeadsByStatus[models.LeadStatusContacted])
	suite.True(suite.cache.has(campaignMetricsKey(suite.gymID, campaignID)), "metrics are cached")
}

func (suite *CampaignServiceTestSuite) TestDialDue_SchedulesCallsAndMarksRan() {
	asOf := time.Date(2026, time.August, 30, 9, 0, 0, 0, time.UTC)
	campaign := suite.newCampaign()
	campaign.ID = uuid.New()
	campaign.GymID = suite.gymID
	campaign.Status = models.CampaignStatusActive
	leads := []*models.Lead{
		{ID: uuid.New(), GymID: suite.gymID},
		{ID: uuid.New(), GymID: suite.gymID},
	}

	suite.campaignRepo.On("ListDue", suite.ctx, asOf).Return([]*models.Campaign{campaign}, nil)
	suite.campaignRepo.On("DueLeads", suite.ctx, suite.gymID, campaign.ID,
		asOf.AddDate(0, 0, -campaign.GapDays), dialBatchSize).Return(leads, nil)
	suite.callSvc.On("Schedule", suite.ctx, suite.gymID, mock.MatchedBy(func(c *models.CallLog) bool {
		return c.Direction == models.CallDirectionOutbound
	})).Return(nil).Twice()
	suite.campaignRepo.On("MarkRan", suite.ctx, suite.gymID, campaign.ID, asOf).Return(nil)

	scheduled, err := suite.service.DialDue(suite.ctx, asOf)

	suite.NoError(err)
	suite.Equal(2, scheduled)
}

func (suite *CampaignServiceTestSuite) TestDialDue_StopsTenantAtDialingCap() {
	asOf := time.Date(2026, time.August, 30, 9, 0, 0, 0, time.UTC)
	campaign := suite.newCampaign()
	campaign.ID = uuid.New()
	campaign.GymID = suite.gymID
	campaign.Status = models.CampaignStatusActive
	leads := []*models.Lead{
		{ID: uuid.New(), GymID: suite.gymID},
		{ID: uuid.New(), GymID: suite.gymID},
		{ID: uuid.New(), GymID: suite.gymID},
	}

	suite.campaignRepo.On("ListDue", suite.ctx, asOf).Return([]*models.Campaign{campaign}, nil)
	suite.campaignRepo.On("DueLeads", suite.ctx, suite.gymID, campaign.ID,
		asOf.AddDate(0, 0, -campaign.GapDays), dialBatchSize).Return(leads, nil)
	suite.callSvc.On("Schedule", suite.ctx, suite.gymID, mock.Anything).Return(nil).Once()
	suite.callSvc.On("Schedule", suite.ctx, suite.gymID, mock.Anything).
		Return(&common.LimitExceededError{Resource: "daily calls", Limit: 50}).Once()
	// The round still counts; remaining leads wait for the next one.
	suite.campaignRepo.On("MarkRan", suite.ctx, suite.gymID, campaign.ID, asOf).Return(nil)

	scheduled, err := suite.service.DialDue(suite.ctx, asOf)

	suite.NoError(err)
	suite.Equal(1, scheduled)
	suite.callSvc.AssertNumberOfCalls(suite.T(), "Schedule", 2)
}

func (suite *CampaignServiceTestSuite) TestDialDue_NoDueCampaigns() {
	asOf := time.Date(2026, time.August, 30, 9, 0, 0, 0, time.UTC)
	suite.campaignRepo.On("ListDue", suite.ctx, asOf).Return([]*models.Campaign{}, nil)

	scheduled, err := suite.service.DialDue(suite.ctx, asOf)

	suite.NoError(err)
	suite.Zero(scheduled)
	suite.callSvc.AssertNotCalled(suite.T(), "Schedule")
}

func TestCampaignServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CampaignServiceTestSuite))
}

package handlers

import (
	"net/http"
	"strconv"

	"gymflow/internal/common"
	"gymflow/internal/models"
	"gymflow/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CampaignHandlers handles HTTP requests for follow-up call campaigns
type CampaignHandlers struct {
	campaignService services.CampaignService
}

func NewCampaignHandlers(campaignService services.CampaignService) *CampaignHandlers {
	return &CampaignHandlers{campaignService: campaignService}
}

// CreateCampaign handles POST /campaigns
func (h *CampaignHandlers) CreateCampaign(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var campaign models.Campaign
	if err := c.Bind(&campaign); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.campaignService.Create(ctx, gymID, &campaign); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusCreated, campaign)
}

// ListCampaigns handles GET /campaigns
func (h *CampaignHandlers) ListCampaigns(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	filter := &models.CampaignFilter{}
	if status := c.QueryParam("status"); status != "" {
		filter.Status = &status
	}

	limit, offset := 50, 0
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 {
			limit = l
		}
	}
	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		if o, err := strconv.Atoi(offsetParam); err == nil && o >= 0 {
			offset = o
		}
	}
	limit, offset, err := common.ValidatePaginationParams(limit, offset)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	filter.Limit = limit
	filter.Offset = offset

	campaigns, err := h.campaignService.List(ctx, gymID, filter)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"campaigns": campaigns,
		"limit":     filter.Limit,
		"offset":    filter.Offset,
	})
}

// GetCampaignByID handles GET /campaigns/:id
func (h *CampaignHandlers) GetCampaignByID(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	campaignID, err := common.ValidateUUID(c.Param("id"), "campaign id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	campaign, err := h.campaignService.GetByID(ctx, gymID, campaignID)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, campaign)
}

// UpdateCampaign handles PUT /campaigns/:id
func (h *CampaignHandlers) UpdateCampaign(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	campaignID, err := common.ValidateUUID(c.Param("id"), "campaign id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var campaign models.Campaign
	if err := c.Bind(&campaign); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	campaign.ID = campaignID

	updated, err := h.campaignService.Update(ctx, gymID, &campaign)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, updated)
}

// UpdateCampaignStatus handles PATCH /campaigns/:id/status
func (h *CampaignHandlers) UpdateCampaignStatus(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	campaignID, err := common.ValidateUUID(c.Param("id"), "campaign id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.campaignService.UpdateStatus(ctx, gymID, campaignID, req.Status); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Campaign status updated",
		"status":  req.Status,
	})
}

// DeleteCampaign handles DELETE /campaigns/:id
func (h *CampaignHandlers) DeleteCampaign(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	campaignID, err := common.ValidateUUID(c.Param("id"), "campaign id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.campaignService.Delete(ctx, gymID, campaignID); err != nil {
		return common.RespondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// AddCampaignLeads handles POST /campaigns/:id/leads
func (h *CampaignHandlers) AddCampaignLeads(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	campaignID, err := common.ValidateUUID(c.Param("id"), "campaign id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		LeadIDs []uuid.UUID `json:"lead_ids"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if len(req.LeadIDs) == 0 {
		return common.SendValidationError(c, "lead_ids", "at least one lead id is required")
	}

	if err := h.campaignService.AddLeads(ctx, gymID, campaignID, req.LeadIDs); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"message": "Leads added to campaign"})
}

// RemoveCampaignLead handles DELETE /campaigns/:id/leads/:leadId
func (h *CampaignHandlers) RemoveCampaignLead(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	campaignID, err := common.ValidateUUID(c.Param("id"), "campaign id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	leadID, err := common.ValidateUUID(c.Param("leadId"), "lead id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.campaignService.RemoveLead(ctx, gymID, campaignID, leadID); err != nil {
		return common.RespondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// CampaignMetrics handles GET /campaigns/:id/metrics
func (h *CampaignHandlers) CampaignMetrics(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	campaignID, err := common.ValidateUUID(c.Param("id"), "campaign id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	metrics, err := h.campaignService.Metrics(ctx, gymID, campaignID)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, metrics)
}

package handlers

import (
	"net/http"
	"strconv"

	"gymflow/internal/common"
	"gymflow/internal/models"
	"gymflow/internal/services"

	"github.com/labstack/echo/v4"
)

// LeadHandlers handles HTTP requests for leads
type LeadHandlers struct {
	leadService services.LeadService
}

func NewLeadHandlers(leadService services.LeadService) *LeadHandlers {
	return &LeadHandlers{leadService: leadService}
}

// CreateLead handles POST /leads
func (h *LeadHandlers) CreateLead(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var lead models.Lead
	if err := c.Bind(&lead); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := common.ValidateRequiredString(lead.FirstName, "first_name"); err != nil {
		return common.SendValidationError(c, "first_name", err.Error())
	}
	if err := common.ValidateRequiredString(lead.Phone, "phone"); err != nil {
		return common.SendValidationError(c, "phone", err.Error())
	}

	if err := h.leadService.Create(ctx, gymID, &lead); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusCreated, lead)
}

// ListLeads handles GET /leads
func (h *LeadHandlers) ListLeads(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	filter, err := h.parseFilter(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	leads, err := h.leadService.List(ctx, gymID, filter)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"leads":  leads,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetLeadByID handles GET /leads/:id
func (h *LeadHandlers) GetLeadByID(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	leadID, err := common.ValidateUUID(c.Param("id"), "lead id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	lead, err := h.leadService.GetByID(ctx, gymID, leadID)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, lead)
}

// UpdateLead handles PUT /leads/:id
func (h *LeadHandlers) UpdateLead(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	leadID, err := common.ValidateUUID(c.Param("id"), "lead id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var lead models.Lead
	if err := c.Bind(&lead); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	lead.ID = leadID

	updated, err := h.leadService.Update(ctx, gymID, &lead)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, updated)
}

// UpdateLeadStatus handles PATCH /leads/:id/status
func (h *LeadHandlers) UpdateLeadStatus(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	leadID, err := common.ValidateUUID(c.Param("id"), "lead id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.leadService.UpdateStatus(ctx, gymID, leadID, req.Status); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Lead status updated",
		"status":  req.Status,
	})
}

// DeleteLead handles DELETE /leads/:id
func (h *LeadHandlers) DeleteLead(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	leadID, err := common.ValidateUUID(c.Param("id"), "lead id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.leadService.Delete(ctx, gymID, leadID); err != nil {
		return common.RespondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// PrioritizedLeads handles GET /leads/prioritized
func (h *LeadHandlers) PrioritizedLeads(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	count := 10
	if countParam := c.QueryParam("count"); countParam != "" {
		if n, err := strconv.Atoi(countParam); err == nil && n > 0 && n <= 100 {
			count = n
		}
	}

	leads, err := h.leadService.Prioritized(ctx, gymID, count)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"leads": leads,
		"count": len(leads),
	})
}

// AttachTag handles POST /leads/:id/tags/:tagId
func (h *LeadHandlers) AttachTag(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	leadID, err := common.ValidateUUID(c.Param("id"), "lead id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	tagID, err := common.ValidateUUID(c.Param("tagId"), "tag id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.leadService.AttachTag(ctx, gymID, leadID, tagID); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"message": "Tag attached"})
}

// DetachTag handles DELETE /leads/:id/tags/:tagId
func (h *LeadHandlers) DetachTag(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	leadID, err := common.ValidateUUID(c.Param("id"), "lead id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	tagID, err := common.ValidateUUID(c.Param("tagId"), "tag id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.leadService.DetachTag(ctx, gymID, leadID, tagID); err != nil {
		return common.RespondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListLeadTags handles GET /leads/:id/tags
func (h *LeadHandlers) ListLeadTags(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	leadID, err := common.ValidateUUID(c.Param("id"), "lead id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	tags, err := h.leadService.Tags(ctx, gymID, leadID)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"tags": tags})
}

func (h *LeadHandlers) parseFilter(c echo.Context) (*models.LeadFilter, error) {
	filter := &models.LeadFilter{}

	if status := c.QueryParam("status"); status != "" {
		filter.Status = &status
	}
	if source := c.QueryParam("source"); source != "" {
		filter.Source = &source
	}
	if branchParam := c.QueryParam("branch_id"); branchParam != "" {
		branchID, err := common.ValidateUUID(branchParam, "branch_id")
		if err != nil {
			return nil, err
		}
		filter.BranchID = &branchID
	}
	if assignedParam := c.QueryParam("assigned_to"); assignedParam != "" {
		assignedTo, err := common.ValidateUUID(assignedParam, "assigned_to")
		if err != nil {
			return nil, err
		}
		filter.AssignedTo = &assignedTo
	}
	filter.Search = c.QueryParam("search")
	filter.SortBy = c.QueryParam("sort_by")
	filter.SortOrder = common.ValidateSortOrder(c.QueryParam("sort_order"))

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
		return nil, err
	}
	filter.Limit = limit
	filter.Offset = offset

	return filter, nil
}

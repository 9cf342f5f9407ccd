package handlers

import (
	"net/http"
	"strconv"
	"time"

	"gymflow/internal/common"
	"gymflow/internal/models"
	"gymflow/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// CallHandlers handles HTTP requests for call logs
type CallHandlers struct {
	callService services.CallService
}

func NewCallHandlers(callService services.CallService) *CallHandlers {
	return &CallHandlers{callService: callService}
}

// ScheduleCall handles POST /calls
func (h *CallHandlers) ScheduleCall(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var call models.CallLog
	if err := c.Bind(&call); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if call.LeadID == uuid.Nil {
		return common.SendValidationError(c, "lead_id", "lead_id is required")
	}

	if err := h.callService.Schedule(ctx, gymID, &call); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusAccepted, call)
}

// ListCalls handles GET /calls
func (h *CallHandlers) ListCalls(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	filter, err := h.parseFilter(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	calls, err := h.callService.List(ctx, gymID, filter)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"calls":  calls,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetCallByID handles GET /calls/:id
func (h *CallHandlers) GetCallByID(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	callID, err := common.ValidateUUID(c.Param("id"), "call id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	call, err := h.callService.GetByID(ctx, gymID, callID)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, call)
}

// UpdateCallStatus handles PATCH /calls/:id/status
func (h *CallHandlers) UpdateCallStatus(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	callID, err := common.ValidateUUID(c.Param("id"), "call id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.callService.UpdateStatus(ctx, gymID, callID, req.Status); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Call status updated",
		"status":  req.Status,
	})
}

// CompleteCall handles POST /calls/:id/complete for manually logged calls
func (h *CallHandlers) CompleteCall(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	callID, err := common.ValidateUUID(c.Param("id"), "call id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Status   string  `json:"status"`
		Outcome  *string `json:"outcome"`
		Duration *int    `json:"duration"`
		Summary  *string `json:"summary"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	call, err := h.callService.Complete(ctx, gymID, callID, services.CallResult{
		Status:   req.Status,
		Outcome:  req.Outcome,
		Duration: req.Duration,
		Summary:  req.Summary,
	})
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, call)
}

// AmendCallNotes handles PATCH /calls/:id/notes
func (h *CallHandlers) AmendCallNotes(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	callID, err := common.ValidateUUID(c.Param("id"), "call id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.callService.AmendNotes(ctx, gymID, callID, req.Notes); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"message": "Notes updated"})
}

// CancelCall handles POST /calls/:id/cancel
func (h *CallHandlers) CancelCall(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	callID, err := common.ValidateUUID(c.Param("id"), "call id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.callService.Cancel(ctx, gymID, callID); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"message": "Call canceled"})
}

func (h *CallHandlers) parseFilter(c echo.Context) (*models.CallFilter, error) {
	filter := &models.CallFilter{}

	if leadParam := c.QueryParam("lead_id"); leadParam != "" {
		leadID, err := common.ValidateUUID(leadParam, "lead_id")
		if err != nil {
			return nil, err
		}
		filter.LeadID = &leadID
	}
	if status := c.QueryParam("status"); status != "" {
		filter.Status = &status
	}
	if direction := c.QueryParam("direction"); direction != "" {
		filter.Direction = &direction
	}
	if outcome := c.QueryParam("outcome"); outcome != "" {
		filter.Outcome = &outcome
	}
	if fromParam := c.QueryParam("from"); fromParam != "" {
		from, err := time.Parse(time.RFC3339, fromParam)
		if err != nil {
			return nil, err
		}
		filter.From = &from
	}
	if toParam := c.QueryParam("to"); toParam != "" {
		to, err := time.Parse(time.RFC3339, toParam)
		if err != nil {
			return nil, err
		}
		filter.To = &to
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
		return nil, err
	}
	filter.Limit = limit
	filter.Offset = offset

	return filter, nil
}

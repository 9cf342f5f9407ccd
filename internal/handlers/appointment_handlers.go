package handlers

import (
	"net/http"
	"strconv"
	"time"

	"gymflow/internal/common"
	"gymflow/internal/models"
	"gymflow/internal/services"

	"github.com/labstack/echo/v4"
)

// AppointmentHandlers handles HTTP requests for appointments
type AppointmentHandlers struct {
	appointmentService services.AppointmentService
}

func NewAppointmentHandlers(appointmentService services.AppointmentService) *AppointmentHandlers {
	return &AppointmentHandlers{appointmentService: appointmentService}
}

// CreateAppointment handles POST /appointments
func (h *AppointmentHandlers) CreateAppointment(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var appointment models.Appointment
	if err := c.Bind(&appointment); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.appointmentService.Create(ctx, gymID, &appointment); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusCreated, appointment)
}

// ListAppointments handles GET /appointments
func (h *AppointmentHandlers) ListAppointments(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	filter, err := h.parseFilter(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	appointments, err := h.appointmentService.List(ctx, gymID, filter)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"appointments": appointments,
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})
}

// GetAppointmentByID handles GET /appointments/:id
func (h *AppointmentHandlers) GetAppointmentByID(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	appointmentID, err := common.ValidateUUID(c.Param("id"), "appointment id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	appointment, err := h.appointmentService.GetByID(ctx, gymID, appointmentID)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, appointment)
}

// RescheduleAppointment handles PUT /appointments/:id
func (h *AppointmentHandlers) RescheduleAppointment(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	appointmentID, err := common.ValidateUUID(c.Param("id"), "appointment id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var appointment models.Appointment
	if err := c.Bind(&appointment); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	appointment.ID = appointmentID

	updated, err := h.appointmentService.Reschedule(ctx, gymID, &appointment)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, updated)
}

// UpdateAppointmentStatus handles PATCH /appointments/:id/status
func (h *AppointmentHandlers) UpdateAppointmentStatus(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	appointmentID, err := common.ValidateUUID(c.Param("id"), "appointment id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.appointmentService.UpdateStatus(ctx, gymID, appointmentID, req.Status); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Appointment status updated",
		"status":  req.Status,
	})
}

// DeleteAppointment handles DELETE /appointments/:id
func (h *AppointmentHandlers) DeleteAppointment(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	appointmentID, err := common.ValidateUUID(c.Param("id"), "appointment id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.appointmentService.Delete(ctx, gymID, appointmentID); err != nil {
		return common.RespondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *AppointmentHandlers) parseFilter(c echo.Context) (*models.AppointmentFilter, error) {
	filter := &models.AppointmentFilter{}

	if leadParam := c.QueryParam("lead_id"); leadParam != "" {
		leadID, err := common.ValidateUUID(leadParam, "lead_id")
		if err != nil {
			return nil, err
		}
		filter.LeadID = &leadID
	}
	if branchParam := c.QueryParam("branch_id"); branchParam != "" {
		branchID, err := common.ValidateUUID(branchParam, "branch_id")
		if err != nil {
			return nil, err
		}
		filter.BranchID = &branchID
	}
	if employeeParam := c.QueryParam("employee_user_id"); employeeParam != "" {
		employeeID, err := common.ValidateUUID(employeeParam, "employee_user_id")
		if err != nil {
			return nil, err
		}
		filter.EmployeeID = &employeeID
	}
	if status := c.QueryParam("status"); status != "" {
		filter.Status = &status
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

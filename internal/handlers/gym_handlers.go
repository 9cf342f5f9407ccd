package handlers

import (
	"net/http"

	"gymflow/internal/common"
	"gymflow/internal/models"
	"gymflow/internal/services"

	"github.com/labstack/echo/v4"
)

// GymHandlers handles HTTP requests for the tenant's own gym record
type GymHandlers struct {
	gymService services.GymService
}

func NewGymHandlers(gymService services.GymService) *GymHandlers {
	return &GymHandlers{gymService: gymService}
}

// GetGym handles GET /gym, returning the caller's own tenant record
func (h *GymHandlers) GetGym(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	gym, err := h.gymService.GetByID(ctx, gymID)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, gym)
}

// UpdateGym handles PUT /gym
func (h *GymHandlers) UpdateGym(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var gym models.Gym
	if err := c.Bind(&gym); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	gym.ID = gymID

	if err := h.gymService.Update(ctx, &gym); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, gym)
}

// DeactivateGym handles DELETE /gym. Deactivation stops the analytics
// scheduler from visiting the tenant and drops its cache.
func (h *GymHandlers) DeactivateGym(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	if err := h.gymService.Deactivate(ctx, gymID); err != nil {
		return common.RespondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// CreateGym handles POST /gyms, provisioning a new tenant
func (h *GymHandlers) CreateGym(c echo.Context) error {
	ctx := c.Request().Context()

	var gym models.Gym
	if err := c.Bind(&gym); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.gymService.Create(ctx, &gym); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusCreated, gym)
}

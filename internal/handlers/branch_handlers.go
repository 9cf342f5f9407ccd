package handlers

import (
	"net/http"

	"gymflow/internal/common"
	"gymflow/internal/models"
	"gymflow/internal/services"

	"github.com/labstack/echo/v4"
)

// BranchHandlers handles HTTP requests for gym branches
type BranchHandlers struct {
	branchService services.BranchService
}

func NewBranchHandlers(branchService services.BranchService) *BranchHandlers {
	return &BranchHandlers{branchService: branchService}
}

// CreateBranch handles POST /branches
func (h *BranchHandlers) CreateBranch(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var branch models.Branch
	if err := c.Bind(&branch); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	branch.IsActive = true

	if err := h.branchService.Create(ctx, gymID, &branch); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusCreated, branch)
}

// ListBranches handles GET /branches
func (h *BranchHandlers) ListBranches(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	branches, err := h.branchService.List(ctx, gymID)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"branches": branches})
}

// GetBranchByID handles GET /branches/:id
func (h *BranchHandlers) GetBranchByID(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	branchID, err := common.ValidateUUID(c.Param("id"), "branch id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	branch, err := h.branchService.GetByID(ctx, gymID, branchID)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, branch)
}

// UpdateBranch handles PUT /branches/:id
func (h *BranchHandlers) UpdateBranch(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	branchID, err := common.ValidateUUID(c.Param("id"), "branch id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var branch models.Branch
	if err := c.Bind(&branch); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	branch.ID = branchID

	if err := h.branchService.Update(ctx, gymID, &branch); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, branch)
}

// DeleteBranch handles DELETE /branches/:id
func (h *BranchHandlers) DeleteBranch(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	branchID, err := common.ValidateUUID(c.Param("id"), "branch id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.branchService.Delete(ctx, gymID, branchID); err != nil {
		return common.RespondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

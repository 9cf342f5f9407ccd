package handlers

import (
	"net/http"

	"gymflow/internal/common"
	"gymflow/internal/models"
	"gymflow/internal/services"

	"github.com/labstack/echo/v4"
)

// TagHandlers handles HTTP requests for lead tags
type TagHandlers struct {
	tagService services.TagService
}

func NewTagHandlers(tagService services.TagService) *TagHandlers {
	return &TagHandlers{tagService: tagService}
}

// CreateTag handles POST /tags
func (h *TagHandlers) CreateTag(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var tag models.Tag
	if err := c.Bind(&tag); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.tagService.Create(ctx, gymID, &tag); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusCreated, tag)
}

// ListTags handles GET /tags
func (h *TagHandlers) ListTags(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	tags, err := h.tagService.List(ctx, gymID)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"tags": tags})
}

// UpdateTag handles PUT /tags/:id
func (h *TagHandlers) UpdateTag(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	tagID, err := common.ValidateUUID(c.Param("id"), "tag id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var tag models.Tag
	if err := c.Bind(&tag); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	tag.ID = tagID

	if err := h.tagService.Update(ctx, gymID, &tag); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, tag)
}

// DeleteTag handles DELETE /tags/:id
func (h *TagHandlers) DeleteTag(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	tagID, err := common.ValidateUUID(c.Param("id"), "tag id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.tagService.Delete(ctx, gymID, tagID); err != nil {
		return common.RespondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

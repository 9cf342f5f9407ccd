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

const maxKnowledgePDFSize = 20 << 20 // 20 MiB

// KnowledgeHandlers handles HTTP requests for the knowledge base
type KnowledgeHandlers struct {
	knowledgeService services.KnowledgeService
	storageService   services.StorageService
}

func NewKnowledgeHandlers(knowledgeService services.KnowledgeService, storageService services.StorageService) *KnowledgeHandlers {
	return &KnowledgeHandlers{
		knowledgeService: knowledgeService,
		storageService:   storageService,
	}
}

// CreateKnowledgeItem handles POST /knowledge
func (h *KnowledgeHandlers) CreateKnowledgeItem(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var item models.KnowledgeItem
	if err := c.Bind(&item); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	if err := h.knowledgeService.Create(ctx, gymID, &item); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusCreated, item)
}

// UploadKnowledgePDF handles POST /knowledge/upload (multipart form with a
// "file" part and optional "branch_id")
func (h *KnowledgeHandlers) UploadKnowledgePDF(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return common.SendValidationError(c, "file", "file is required")
	}
	if fileHeader.Size > maxKnowledgePDFSize {
		return common.SendValidationError(c, "file", "file exceeds 20 MiB limit")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return common.SendServerError(c, "Failed to read uploaded file")
	}
	defer src.Close()

	item := models.KnowledgeItem{ID: uuid.New()}
	if branchParam := c.FormValue("branch_id"); branchParam != "" {
		branchID, err := common.ValidateUUID(branchParam, "branch_id")
		if err != nil {
			return common.SendValidationError(c, "branch_id", err.Error())
		}
		item.BranchID = &branchID
	}

	objectName, err := h.storageService.UploadKnowledgePDF(ctx, gymID, item.ID, fileHeader.Filename, src, fileHeader.Size)
	if err != nil {
		return common.SendServerError(c, "Failed to store document")
	}
	item.PDFURL = &objectName

	if err := h.knowledgeService.Create(ctx, gymID, &item); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusCreated, item)
}

// ListKnowledgeItems handles GET /knowledge
func (h *KnowledgeHandlers) ListKnowledgeItems(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	filter := &models.KnowledgeFilter{Search: c.QueryParam("search")}
	if branchParam := c.QueryParam("branch_id"); branchParam != "" {
		branchID, err := common.ValidateUUID(branchParam, "branch_id")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		filter.BranchID = &branchID
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

	items, err := h.knowledgeService.List(ctx, gymID, filter)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":  items,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// GetKnowledgeItemByID handles GET /knowledge/:id
func (h *KnowledgeHandlers) GetKnowledgeItemByID(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	itemID, err := common.ValidateUUID(c.Param("id"), "knowledge item id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	item, err := h.knowledgeService.GetByID(ctx, gymID, itemID)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

// GetKnowledgeDocumentURL handles GET /knowledge/:id/document
func (h *KnowledgeHandlers) GetKnowledgeDocumentURL(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	itemID, err := common.ValidateUUID(c.Param("id"), "knowledge item id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	item, err := h.knowledgeService.GetByID(ctx, gymID, itemID)
	if err != nil {
		return common.RespondError(c, err)
	}
	if item.PDFURL == nil || *item.PDFURL == "" {
		return common.SendNotFoundError(c, "Document")
	}

	url, err := h.storageService.GetPresignedURL(services.BucketKnowledge, *item.PDFURL, 15*time.Minute)
	if err != nil {
		return common.SendServerError(c, "Failed to generate document URL")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"url": url})
}

// UpdateKnowledgeItem handles PUT /knowledge/:id
func (h *KnowledgeHandlers) UpdateKnowledgeItem(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	itemID, err := common.ValidateUUID(c.Param("id"), "knowledge item id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var item models.KnowledgeItem
	if err := c.Bind(&item); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	item.ID = itemID

	if err := h.knowledgeService.Update(ctx, gymID, &item); err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

// DeleteKnowledgeItem handles DELETE /knowledge/:id
func (h *KnowledgeHandlers) DeleteKnowledgeItem(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	itemID, err := common.ValidateUUID(c.Param("id"), "knowledge item id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.knowledgeService.Delete(ctx, gymID, itemID); err != nil {
		return common.RespondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

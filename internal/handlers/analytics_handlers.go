package handlers

import (
	"net/http"
	"time"

	"gymflow/internal/analytics"
	"gymflow/internal/common"
	"gymflow/internal/jobs"
	"gymflow/internal/services"

	"github.com/labstack/echo/v4"
)

// AnalyticsHandlers exposes cached per-tenant aggregates and report
// generation.
type AnalyticsHandlers struct {
	analyticsService analytics.Service
	queue            services.TaskEnqueuer
}

func NewAnalyticsHandlers(analyticsService analytics.Service, queue services.TaskEnqueuer) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		analyticsService: analyticsService,
		queue:            queue,
	}
}

// LeadFunnel handles GET /analytics/leads
func (h *AnalyticsHandlers) LeadFunnel(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	funnel, err := h.analyticsService.LeadFunnel(ctx, gymID)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, funnel)
}

// CallStats handles GET /analytics/calls
func (h *AnalyticsHandlers) CallStats(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	from, to, err := h.parseWindow(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	stats, err := h.analyticsService.CallStats(ctx, gymID, from, to)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, stats)
}

// AppointmentStats handles GET /analytics/appointments
func (h *AnalyticsHandlers) AppointmentStats(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	from, to, err := h.parseWindow(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	stats, err := h.analyticsService.AppointmentStats(ctx, gymID, from, to)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, stats)
}

// Dashboard handles GET /analytics/dashboard
func (h *AnalyticsHandlers) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	from, to, err := h.parseWindow(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	dashboard, err := h.analyticsService.Dashboard(ctx, gymID, from, to)
	if err != nil {
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, dashboard)
}

// GenerateReport handles POST /analytics/reports, enqueueing report
// generation on the task queue.
func (h *AnalyticsHandlers) GenerateReport(c echo.Context) error {
	ctx := c.Request().Context()

	gymID, ok := common.GetGymIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req struct {
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
		Format    string `json:"format"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return common.SendValidationError(c, "start_date", "must be YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return common.SendValidationError(c, "end_date", "must be YYYY-MM-DD")
	}
	if err := common.ValidateDateRange(start, end); err != nil {
		return common.SendValidationError(c, "end_date", err.Error())
	}
	if req.Format == "" {
		req.Format = "json"
	}

	task, err := jobs.NewGenerateReportTask(gymID, req.StartDate, req.EndDate, req.Format)
	if err != nil {
		return common.SendServerError(c, "Failed to build report task")
	}
	info, err := h.queue.EnqueueContext(ctx, task, jobs.EnqueueOptions()...)
	if err != nil {
		return common.SendServerError(c, "Failed to enqueue report task")
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "Report generation queued",
		"task_id": info.ID,
	})
}

func (h *AnalyticsHandlers) parseWindow(c echo.Context) (time.Time, time.Time, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if fromParam := c.QueryParam("from"); fromParam != "" {
		parsed, err := time.Parse(time.RFC3339, fromParam)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if toParam := c.QueryParam("to"); toParam != "" {
		parsed, err := time.Parse(time.RFC3339, toParam)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed
	}
	if err := common.ValidateDateRange(from, to); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

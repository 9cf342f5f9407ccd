package handlers

import (
	"log"
	"net/http"

	"gymflow/internal/common"
	"gymflow/internal/services"

	"github.com/labstack/echo/v4"
)

// WebhookHandlers receives asynchronous callbacks from the voice provider.
// These routes are guarded by the shared-secret middleware, not JWT, so the
// tenant comes from the payload.
type WebhookHandlers struct {
	callService services.CallService
}

func NewWebhookHandlers(callService services.CallService) *WebhookHandlers {
	return &WebhookHandlers{callService: callService}
}

// VoiceCallResult handles POST /webhooks/voice. The provider may deliver the
// same result more than once; repeats of a terminal status are acknowledged
// without change.
func (h *WebhookHandlers) VoiceCallResult(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		GymID          string  `json:"gym_id"`
		ExternalCallID string  `json:"external_call_id"`
		Status         string  `json:"status"`
		Outcome        *string `json:"outcome"`
		Duration       *int    `json:"duration"`
		RecordingURL   *string `json:"recording_url"`
		Transcript     *string `json:"transcript"`
		Summary        *string `json:"summary"`
		Sentiment      *string `json:"sentiment"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	gymID, err := common.ValidateUUID(req.GymID, "gym_id")
	if err != nil {
		return common.SendValidationError(c, "gym_id", err.Error())
	}
	if req.ExternalCallID == "" {
		return common.SendValidationError(c, "external_call_id", "external_call_id is required")
	}

	call, err := h.callService.CompleteByExternalID(ctx, gymID, req.ExternalCallID, services.CallResult{
		Status:       req.Status,
		Outcome:      req.Outcome,
		Duration:     req.Duration,
		RecordingURL: req.RecordingURL,
		Transcript:   req.Transcript,
		Summary:      req.Summary,
		Sentiment:    req.Sentiment,
	})
	if err != nil {
		log.Printf("WEBHOOK: failed to apply result for external call %s: %v", req.ExternalCallID, err)
		return common.RespondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Call result recorded",
		"call_id": call.ID,
		"status":  call.Status,
	})
}

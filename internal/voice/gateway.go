package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// StartCallRequest carries what the voice provider needs to place a call.
type StartCallRequest struct {
	GymID     uuid.UUID `json:"gym_id"`
	CallID    uuid.UUID `json:"call_id"`
	LeadID    uuid.UUID `json:"lead_id"`
	ToNumber  string    `json:"to_number"`
	LeadName  string    `json:"lead_name"`
	Direction string    `json:"direction"`
}

// Gateway places calls with the external AI voice provider. The provider
// reports progress back asynchronously through the webhook route.
type Gateway interface {
	StartCall(ctx context.Context, req StartCallRequest) (externalCallID string, err error)
}

type httpGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPGateway builds a Gateway talking JSON over HTTP to the provider.
func NewHTTPGateway(baseURL, apiKey string) Gateway {
	return &httpGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *httpGateway) StartCall(ctx context.Context, req StartCallRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/calls", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("voice provider returned status %d", resp.StatusCode)
	}

	var out struct {
		CallID string `json:"call_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.CallID == "" {
		return "", fmt.Errorf("voice provider response missing call_id")
	}
	return out.CallID, nil
}

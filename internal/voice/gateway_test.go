package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartCall_SendsAuthorizedRequest(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody StartCallRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"call_id": "gw-call-77"})
	}))
	defer server.Close()

	gateway := NewHTTPGateway(server.URL, "test-api-key")
	req := StartCallRequest{
		GymID:     uuid.New(),
		CallID:    uuid.New(),
		LeadID:    uuid.New(),
		ToNumber:  "+14155550111",
		LeadName:  "Priya Sharma",
		Direction: "outbound",
	}

	externalID, err := gateway.StartCall(context.Background(), req)

	assert.NoError(t, err)
	assert.Equal(t, "gw-call-77", externalID)
	assert.Equal(t, "Bearer test-api-key", gotAuth)
	assert.Equal(t, "/v1/calls", gotPath)
	assert.Equal(t, req.CallID, gotBody.CallID)
	assert.Equal(t, "+14155550111", gotBody.ToNumber)
}

func TestStartCall_ProviderErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	gateway := NewHTTPGateway(server.URL, "test-api-key")

	_, err := gateway.StartCall(context.Background(), StartCallRequest{ToNumber: "+14155550111"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestStartCall_MissingCallIDInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	gateway := NewHTTPGateway(server.URL, "test-api-key")

	_, err := gateway.StartCall(context.Background(), StartCallRequest{ToNumber: "+14155550111"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing call_id")
}

func TestStartCall_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	gateway := NewHTTPGateway(server.URL, "test-api-key")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gateway.StartCall(ctx, StartCallRequest{ToNumber: "+14155550111"})
	assert.Error(t, err)
}

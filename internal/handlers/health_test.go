package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeport-qualifier/internal/handlers"
)

type pinger struct{ err error }

func (p pinger) HealthCheck(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		db       handlers.Pinger
		status   int
		health   string
		database string
	}{
		{"no database", nil, http.StatusOK, "healthy", "not configured"},
		{"connected", pinger{}, http.StatusOK, "healthy", "connected"},
		{"disconnected", pinger{err: errors.New("refused")}, http.StatusServiceUnavailable, "degraded", "disconnected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewHealthHandlerWith(tt.db, "test")

			resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{})
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body handlers.HealthResponse
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
			assert.Equal(t, tt.health, body.Status)
			assert.Equal(t, tt.database, body.Database)
			assert.Equal(t, handlers.ServiceName, body.Service)
			assert.Equal(t, "test", body.Stage)
		})
	}
}

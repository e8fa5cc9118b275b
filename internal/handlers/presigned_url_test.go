package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeport-qualifier/internal/handlers"
	s3service "homeport-qualifier/internal/services/s3"
)

type fakeSigner struct {
	key         string
	contentType string
	metadata    map[string]string
	err         error
}

func (s *fakeSigner) GeneratePresignedUploadURL(_ context.Context, key, contentType string, expiryMinutes int, metadata map[string]string) (*s3service.PresignedURLResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.key = key
	s.contentType = contentType
	s.metadata = metadata
	return &s3service.PresignedURLResult{URL: "https://upload.example.com/" + key, Key: key}, nil
}

func presignRequest(params map[string]string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, QueryStringParameters: params}
}

func TestPresignedURLHandler_Workbook(t *testing.T) {
	signer := &fakeSigner{}
	h := handlers.NewPresignedURLHandlerWith(signer)

	resp, err := h.Handle(context.Background(), presignRequest(map[string]string{
		"filename": "Smith Submission.xlsx",
		"email":    "Jo Smith <jo@example.com>",
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body handlers.PresignedURLResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))

	assert.True(t, strings.HasPrefix(body.S3Key, s3service.UploadPrefix))
	assert.True(t, strings.HasSuffix(body.S3Key, "_SmithSubmission.xlsx"))
	assert.True(t, handlers.IsWorkbookKey(body.S3Key))
	assert.Equal(t, 3600, body.ExpiresIn)
	assert.Equal(t, s3service.WorkbookContentType, signer.contentType)
	assert.Equal(t, map[string]string{s3service.NotifyEmailKey: "jo@example.com"}, signer.metadata)
	assert.Equal(t, "jo@example.com", body.Headers["x-amz-meta-notify-email"])
	assert.Equal(t, s3service.WorkbookContentType, body.Headers["Content-Type"])
}

func TestPresignedURLHandler_DefaultFilename(t *testing.T) {
	signer := &fakeSigner{}
	h := handlers.NewPresignedURLHandlerWith(signer)

	resp, err := h.Handle(context.Background(), presignRequest(nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasSuffix(signer.key, ".xlsx"))
	assert.Nil(t, signer.metadata)
}

func TestPresignedURLHandler_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
	}{
		{"csv file", map[string]string{"filename": "data.csv"}},
		{"legacy xls", map[string]string{"filename": "data.xls"}},
		{"bad email", map[string]string{"filename": "data.xlsx", "email": "not-an-address"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewPresignedURLHandlerWith(&fakeSigner{})
			resp, err := h.Handle(context.Background(), presignRequest(tt.params))
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestPresignedURLHandler_SignerFailure(t *testing.T) {
	h := handlers.NewPresignedURLHandlerWith(&fakeSigner{err: errors.New("no credentials")})

	resp, err := h.Handle(context.Background(), presignRequest(map[string]string{"filename": "a.xlsx"}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, resp.Body, "Failed to generate upload URL")
}

func TestPresignedURLHandler_Preflight(t *testing.T) {
	h := handlers.NewPresignedURLHandlerWith(&fakeSigner{})

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
}

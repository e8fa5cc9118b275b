package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	appConfig "homeport-qualifier/internal/config"
	s3service "homeport-qualifier/internal/services/s3"
	"homeport-qualifier/internal/utils"
)

const uploadURLExpiryMinutes = 60

// UploadSigner issues presigned upload URLs.
type UploadSigner interface {
	GeneratePresignedUploadURL(ctx context.Context, key, contentType string, expiryMinutes int, metadata map[string]string) (*s3service.PresignedURLResult, error)
}

// PresignedURLHandler handles requests for generating presigned S3 URLs.
type PresignedURLHandler struct {
	signer UploadSigner
	now    func() time.Time
	newID  func() string
}

// NewPresignedURLHandler creates a new presigned URL handler.
func NewPresignedURLHandler(ctx context.Context) (*PresignedURLHandler, error) {
	cfg, err := appConfig.Load()
	if err != nil {
		return nil, err
	}

	store, err := s3service.NewService(ctx, cfg.S3Bucket)
	if err != nil {
		return nil, err
	}

	return NewPresignedURLHandlerWith(store), nil
}

// NewPresignedURLHandlerWith creates a handler around an existing signer.
func NewPresignedURLHandlerWith(signer UploadSigner) *PresignedURLHandler {
	return &PresignedURLHandler{
		signer: signer,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// PresignedURLResponse is the response structure for presigned URL requests.
// Headers lists the headers the uploader must send with the PUT.
type PresignedURLResponse struct {
	UploadURL string            `json:"uploadUrl"`
	S3Key     string            `json:"s3Key"`
	ExpiresIn int               `json:"expiresIn"`
	Headers   map[string]string `json:"headers"`
}

// Handle processes the API Gateway request for generating presigned URLs.
// The optional email query parameter is attached to the object so the report
// is mailed once the workbook has been qualified.
func (h *PresignedURLHandler) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	logger := utils.GetLogger()

	headers := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": "GET,OPTIONS",
		"Content-Type":                 "application/json",
	}

	if request.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    headers,
		}, nil
	}

	filename := request.QueryStringParameters["filename"]
	if filename == "" {
		filename = "submission_" + h.newID()[:8] + ".xlsx"
	}
	if !strings.EqualFold(path.Ext(filename), ".xlsx") {
		return errorResponse(headers, http.StatusBadRequest, "Only .xlsx workbooks are allowed")
	}

	var metadata map[string]string
	if email := strings.TrimSpace(request.QueryStringParameters["email"]); email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil {
			return errorResponse(headers, http.StatusBadRequest, "Invalid email address")
		}
		metadata = map[string]string{s3service.NotifyEmailKey: addr.Address}
	}

	s3Key := s3service.UploadPrefix + h.now().UTC().Format("2006/01/02") + "/" + h.newID() + "_" + sanitizeFilename(filename)

	presigned, err := h.signer.GeneratePresignedUploadURL(ctx, s3Key, s3service.WorkbookContentType, uploadURLExpiryMinutes, metadata)
	if err != nil {
		logger.Error("Failed to generate presigned URL", utils.Error(err))
		return errorResponse(headers, http.StatusInternalServerError, "Failed to generate upload URL")
	}

	uploadHeaders := map[string]string{"Content-Type": s3service.WorkbookContentType}
	for k, v := range metadata {
		uploadHeaders["x-amz-meta-"+k] = v
	}

	body, _ := json.Marshal(PresignedURLResponse{
		UploadURL: presigned.URL,
		S3Key:     s3Key,
		ExpiresIn: uploadURLExpiryMinutes * 60,
		Headers:   uploadHeaders,
	})

	logger.Info("Generated presigned URL", utils.String("s3Key", s3Key))

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

// sanitizeFilename keeps letters, digits and ".-_", truncated to 100 bytes.
func sanitizeFilename(filename string) string {
	var b strings.Builder
	for _, r := range filename {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	safe := b.String()
	if len(safe) > 100 {
		safe = safe[len(safe)-100:]
	}
	return safe
}

// errorResponse creates an error response.
func errorResponse(headers map[string]string, statusCode int, message string) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"error":   http.StatusText(statusCode),
		"message": message,
	})

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

// Package handlers provides Lambda handlers for the homeport qualifier.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"

	appConfig "homeport-qualifier/internal/config"
	"homeport-qualifier/internal/models"
	"homeport-qualifier/internal/services/analysis"
	"homeport-qualifier/internal/services/database"
	s3service "homeport-qualifier/internal/services/s3"
	"homeport-qualifier/internal/services/ses"
	"homeport-qualifier/internal/utils"
)

// ObjectStore is the part of the S3 service the analyze handler uses.
type ObjectStore interface {
	DownloadFile(ctx context.Context, key string) (*s3service.Object, error)
	UploadReport(ctx context.Context, runID, report string) (string, error)
	ArchiveFile(ctx context.Context, key string) (string, error)
	RejectFile(ctx context.Context, key string) (string, error)
	GeneratePresignedDownloadURL(ctx context.Context, key string, expiryMinutes int) (*s3service.PresignedURLResult, error)
}

// ReportMailer sends rendered reports.
type ReportMailer interface {
	SendQualificationReport(ctx context.Context, params ses.ReportParams) (*ses.SendEmailResult, error)
}

// Analyzer qualifies an uploaded workbook.
type Analyzer interface {
	AnalyzeReader(ctx context.Context, r io.Reader, fileName string, source models.RunSource) (*analysis.Result, error)
}

// AnalyzeHandler handles S3 events for uploaded submission workbooks.
type AnalyzeHandler struct {
	analyzer   Analyzer
	storeFor   func(bucket string) ObjectStore
	mailer     ReportMailer
	webhookURL string
	httpClient *http.Client
	db         *database.DB
}

// NewAnalyzeHandler creates a new analyze handler. The database and SES are
// optional: without them runs are not recorded and no e-mail is sent.
func NewAnalyzeHandler(ctx context.Context) (*AnalyzeHandler, error) {
	cfg, err := appConfig.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load app config: %w", err)
	}
	logger := utils.GetLogger()

	layout, err := cfg.ResolveLayout()
	if err != nil {
		return nil, fmt.Errorf("failed to load layout: %w", err)
	}

	store, err := s3service.NewService(ctx, cfg.S3Bucket)
	if err != nil {
		return nil, err
	}

	h := &AnalyzeHandler{
		storeFor:   func(bucket string) ObjectStore { return store.WithBucket(bucket) },
		webhookURL: cfg.ReportWebhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	var runs analysis.RunStore
	if db, err := database.New(cfg); err != nil {
		logger.Warn("Database unavailable, runs will not be recorded", utils.Error(err))
	} else {
		h.db = db
		runs = database.NewRunRepository(db)
	}
	h.analyzer = analysis.NewService(cfg, layout, runs)

	if cfg.SESSenderEmail != "" {
		mailer, err := ses.NewService(ctx, cfg.SESSenderEmail)
		if err != nil {
			logger.Warn("SES unavailable, reports will not be e-mailed", utils.Error(err))
		} else {
			h.mailer = mailer
		}
	}

	return h, nil
}

// NewAnalyzeHandlerWith assembles a handler from its collaborators.
func NewAnalyzeHandlerWith(analyzer Analyzer, storeFor func(bucket string) ObjectStore, mailer ReportMailer, webhookURL string) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer:   analyzer,
		storeFor:   storeFor,
		mailer:     mailer,
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// AnalyzeResult is the outcome of one uploaded workbook.
type AnalyzeResult struct {
	Key         string   `json:"key"`
	RunID       string   `json:"run_id,omitempty"`
	Verdict     string   `json:"verdict,omitempty"`
	ReportKey   string   `json:"report_key,omitempty"`
	ArchivedKey string   `json:"archived_key,omitempty"`
	Emailed     bool     `json:"emailed"`
	Defaulted   []string `json:"defaulted,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// AnalyzeResponse summarises one S3 event.
type AnalyzeResponse struct {
	Message   string          `json:"message"`
	Processed int             `json:"processed"`
	Failed    int             `json:"failed"`
	Results   []AnalyzeResult `json:"results"`
}

// Handle processes S3 events for uploaded workbooks. A workbook that cannot
// be qualified is moved under failed/ and reported in the response; it does
// not fail the invocation, since a retry would fail the same way.
func (h *AnalyzeHandler) Handle(ctx context.Context, s3Event events.S3Event) (AnalyzeResponse, error) {
	logger := utils.GetLogger()

	if len(s3Event.Records) == 0 {
		return AnalyzeResponse{Message: "No records to process", Results: []AnalyzeResult{}}, nil
	}

	resp := AnalyzeResponse{Results: make([]AnalyzeResult, 0, len(s3Event.Records))}
	for _, record := range s3Event.Records {
		bucket := record.S3.Bucket.Name
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			return AnalyzeResponse{}, fmt.Errorf("failed to decode S3 key: %w", err)
		}

		if !IsWorkbookKey(key) {
			logger.Info("Skipping non-workbook object", utils.String("key", key))
			continue
		}

		result := h.processObject(ctx, h.storeFor(bucket), key)
		if result.Error != "" {
			resp.Failed++
		} else {
			resp.Processed++
		}
		resp.Results = append(resp.Results, result)
	}

	resp.Message = fmt.Sprintf("Processed %d workbook(s), %d failed", resp.Processed, resp.Failed)
	return resp, nil
}

func (h *AnalyzeHandler) processObject(ctx context.Context, store ObjectStore, key string) AnalyzeResult {
	logger := utils.GetLogger().With(utils.String("key", key))
	result := AnalyzeResult{Key: key}

	obj, err := store.DownloadFile(ctx, key)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	fileName := path.Base(key)
	res, err := h.analyzer.AnalyzeReader(ctx, bytes.NewReader(obj.Body), fileName, models.RunSourceS3)
	if err != nil {
		result.Error = err.Error()
		if dest, mvErr := store.RejectFile(ctx, key); mvErr != nil {
			logger.Warn("Failed to move rejected workbook", utils.Error(mvErr))
		} else {
			result.ArchivedKey = dest
		}
		return result
	}

	result.RunID = res.RunID
	result.Verdict = string(res.State.Results.Verdict)
	result.Defaulted = res.State.Defaulted

	reportKey, err := store.UploadReport(ctx, res.RunID, res.Report)
	if err != nil {
		logger.Warn("Failed to upload report", utils.Error(err))
	} else {
		result.ReportKey = reportKey
	}

	if to := obj.Metadata[s3service.NotifyEmailKey]; to != "" && h.mailer != nil {
		result.Emailed = h.sendReport(ctx, store, to, fileName, reportKey, res)
	}

	if h.webhookURL != "" {
		if err := h.triggerWebhook(ctx, key, result); err != nil {
			logger.Warn("Failed to trigger report webhook", utils.Error(err))
		}
	}

	if dest, err := store.ArchiveFile(ctx, key); err != nil {
		logger.Warn("Failed to archive file", utils.Error(err))
	} else {
		result.ArchivedKey = dest
	}

	return result
}

func (h *AnalyzeHandler) sendReport(ctx context.Context, store ObjectStore, to, fileName, reportKey string, res *analysis.Result) bool {
	logger := utils.GetLogger()

	params := ses.ReportParams{
		To:       to,
		RunID:    res.RunID,
		FileName: fileName,
		Verdict:  res.State.Results.Verdict,
		Report:   res.Report,
	}
	if reportKey != "" {
		if link, err := store.GeneratePresignedDownloadURL(ctx, reportKey, 7*24*60); err == nil {
			params.ReportURL = link.URL
		}
	}

	if _, err := h.mailer.SendQualificationReport(ctx, params); err != nil {
		logger.Warn("Failed to e-mail report", utils.String("to", to), utils.Error(err))
		return false
	}
	return true
}

// triggerWebhook posts the run summary to the configured webhook.
func (h *AnalyzeHandler) triggerWebhook(ctx context.Context, key string, result AnalyzeResult) error {
	payload := map[string]interface{}{
		"run_id":       result.RunID,
		"key":          key,
		"verdict":      result.Verdict,
		"report_key":   result.ReportKey,
		"defaulted":    len(result.Defaulted),
		"trigger_type": "workbook_upload",
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// Close cleans up resources.
func (h *AnalyzeHandler) Close() {
	if h.db != nil {
		h.db.Close()
	}
}

// IsWorkbookKey reports whether an object key names an uploaded workbook.
func IsWorkbookKey(key string) bool {
	return strings.HasPrefix(key, s3service.UploadPrefix) && strings.EqualFold(path.Ext(key), ".xlsx")
}

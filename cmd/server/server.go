package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"homeport-qualifier/internal/handlers"
	"homeport-qualifier/internal/models"
	"homeport-qualifier/internal/services/analysis"
	"homeport-qualifier/internal/utils"
)

// Analyzer qualifies uploaded workbooks and looks up recorded runs.
type Analyzer interface {
	AnalyzeReader(ctx context.Context, r io.Reader, fileName string, source models.RunSource) (*analysis.Result, error)
	GetRun(ctx context.Context, id string) (*models.QualificationRun, error)
}

// RunLister lists recorded runs.
type RunLister interface {
	ListRecent(ctx context.Context, limit int) ([]*models.QualificationRun, error)
}

// Server holds all dependencies
type Server struct {
	analyzer  Analyzer
	runs      RunLister
	health    *handlers.HealthHandler
	maxUpload int64
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

const defaultRunsLimit = 20

// Routes returns the server's handler wrapped in CORS.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.rootHandler)
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/api/health", s.healthHandler)
	mux.HandleFunc("/api/homeport/analyze", s.analyzeHandler)
	mux.HandleFunc("/api/homeport/runs", s.runsHandler)
	mux.Handle("/metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"X-Run-ID"},
	})

	return c.Handler(mux)
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Backend is active and running!")
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response, status := s.health.Check(r.Context())
	writeJSON(w, status, response)
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	logger := utils.GetLogger()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "File too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "No file uploaded"})
		return
	}
	defer file.Close()

	logger.Info("Workbook upload received",
		utils.String("file", header.Filename),
		utils.Int64("size", header.Size))

	result, err := s.analyzer.AnalyzeReader(r.Context(), file, header.Filename, models.RunSourceHTTP)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Run-ID", result.RunID)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, result.Report)
}

func (s *Server) runsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		s.listRuns(w, r)
		return
	}

	run, err := s.analyzer.GetRun(r.Context(), id)
	switch {
	case errors.Is(err, models.ErrRunNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrAuditDisabled):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, run)
	}
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: models.ErrAuditDisabled.Error()})
		return
	}

	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRecent(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

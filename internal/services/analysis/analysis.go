// Package analysis runs one qualification per submitted workbook and records
// the outcome.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"homeport-qualifier/internal/config"
	"homeport-qualifier/internal/metrics"
	"homeport-qualifier/internal/models"
	"homeport-qualifier/internal/services/qualifier"
	"homeport-qualifier/internal/utils"
)

// RunStore persists finished runs.
type RunStore interface {
	Record(ctx context.Context, run *models.QualificationRun) error
	GetByID(ctx context.Context, id string) (*models.QualificationRun, error)
}

// Result is the outcome of one analysed workbook.
type Result struct {
	RunID  string                   `json:"run_id"`
	Report string                   `json:"report"`
	State  *models.CalculationState `json:"state"`
	Run    *models.QualificationRun `json:"run"`
}

// Service analyses workbooks. It holds no per-run state and is safe for
// concurrent use.
type Service struct {
	layout        *models.Layout
	baseThreshold float64
	seed          uint64
	seeded        bool
	store         RunStore
	logger        *zap.Logger
	newID         func() string
	extra         []qualifier.Option
}

// NewService creates an analysis service. store may be nil, in which case
// runs are not recorded.
func NewService(cfg *config.Config, layout *models.Layout, store RunStore) *Service {
	if layout == nil {
		layout = models.DefaultLayout()
	}

	return &Service{
		layout:        layout,
		baseThreshold: cfg.BaseThreshold,
		seed:          cfg.RandomSeed,
		seeded:        cfg.Seeded(),
		store:         store,
		logger:        utils.GetLogger(),
		newID:         uuid.NewString,
	}
}

// WithQualifierOptions appends options applied to every run.
func (s *Service) WithQualifierOptions(opts ...qualifier.Option) *Service {
	s.extra = append(s.extra, opts...)
	return s
}

// WithLogger replaces the service logger.
func (s *Service) WithLogger(logger *zap.Logger) *Service {
	s.logger = logger
	return s
}

// Layout returns the layout every run uses.
func (s *Service) Layout() *models.Layout {
	return s.layout
}

// AuditEnabled reports whether runs are recorded.
func (s *Service) AuditEnabled() bool {
	return s.store != nil
}

// AnalyzeFile qualifies the workbook at path.
func (s *Service) AnalyzeFile(ctx context.Context, path, fileName string, source models.RunSource) (*Result, error) {
	start := time.Now()
	runID := s.newID()
	logger := utils.RunLogger(s.logger, runID, string(source))

	logger.Info("Starting qualification", zap.String("file", fileName))

	opts := []qualifier.Option{
		qualifier.WithLayout(s.layout),
		qualifier.WithBaseThreshold(s.baseThreshold),
		qualifier.WithLogger(logger),
	}
	if s.seeded {
		opts = append(opts, qualifier.WithRandomSource(qualifier.NewSeededSource(s.seed)))
	}
	opts = append(opts, s.extra...)

	q := qualifier.New(path, opts...)
	defer func() {
		if err := q.Close(); err != nil {
			logger.Warn("Failed to close workbook", zap.Error(err))
		}
	}()

	report, err := q.Evaluate()
	metrics.QualificationDuration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QualificationFailures.WithLabelValues(string(source), failureReason(err)).Inc()
		logger.Error("Qualification failed", zap.String("file", fileName), zap.Error(err))
		return nil, err
	}

	state := q.State()
	metrics.QualificationRuns.WithLabelValues(string(source), string(state.Results.Verdict)).Inc()
	metrics.DefaultedFields.WithLabelValues(string(source)).Add(float64(len(state.Defaulted)))
	metrics.TemplateWarnings.WithLabelValues(string(source)).Add(float64(len(state.Warnings)))

	run := models.NewQualificationRun(runID, source, fileName, q.Layout().SheetName, state)
	if s.store != nil {
		if err := s.store.Record(ctx, run); err != nil {
			logger.Warn("Failed to record qualification run", zap.Error(err))
		}
	}

	logger.Info("Qualification completed",
		zap.String("verdict", string(state.Results.Verdict)),
		zap.Float64("residual", state.Results.Residual),
		zap.Float64("final_threshold", state.Results.FinalThreshold),
		zap.Strings("defaulted", state.Defaulted),
		zap.Duration("duration", time.Since(start)),
	)

	return &Result{
		RunID:  runID,
		Report: report,
		State:  state,
		Run:    run,
	}, nil
}

// AnalyzeReader persists r to a temporary .xlsx file, qualifies it and
// removes the file whether or not the run succeeds.
func (s *Service) AnalyzeReader(ctx context.Context, r io.Reader, fileName string, source models.RunSource) (*Result, error) {
	path, err := SaveTemp(r)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	return s.AnalyzeFile(ctx, path, fileName, source)
}

// GetRun returns a recorded run.
func (s *Service) GetRun(ctx context.Context, id string) (*models.QualificationRun, error) {
	if s.store == nil {
		return nil, models.ErrAuditDisabled
	}
	return s.store.GetByID(ctx, id)
}

// SaveTemp copies r into a new temporary .xlsx file and returns its path.
func SaveTemp(r io.Reader) (string, error) {
	f, err := os.CreateTemp("", "homeport-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}

	return f.Name(), nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrWorkbookNotFound):
		return "not_found"
	case errors.Is(err, models.ErrWorkbookFormat):
		return "format"
	case errors.Is(err, models.ErrInvalidLocation):
		return "layout"
	default:
		return "internal"
	}
}

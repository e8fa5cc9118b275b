package qualifier

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"homeport-qualifier/internal/models"
	"homeport-qualifier/internal/services/report"
	"homeport-qualifier/internal/services/workbook"
	"homeport-qualifier/internal/utils"
)

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// NewSeededSource returns a deterministic random source.
func NewSeededSource(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed))
}

func newUnseededSource() RandomSource {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Source is an opened workbook that can be released.
type Source interface {
	workbook.CellSource
	Close() error
}

// Opener opens the workbook at path.
type Opener func(path string) (Source, error)

func openWorkbook(path string) (Source, error) {
	wb, err := workbook.Open(path)
	if err != nil {
		return nil, err
	}
	return wb, nil
}

// Option configures a Qualifier.
type Option func(*Qualifier)

// WithLayout sets the template layout.
func WithLayout(layout *models.Layout) Option {
	return func(q *Qualifier) {
		if layout != nil {
			q.layout = layout.WithDefaults()
		}
	}
}

// WithSheetName overrides the sheet of the layout.
func WithSheetName(sheet string) Option {
	return func(q *Qualifier) {
		if sheet != "" {
			q.sheetName = sheet
		}
	}
}

// WithBaseThreshold sets the threshold before the random premium.
func WithBaseThreshold(threshold float64) Option {
	return func(q *Qualifier) {
		q.baseThreshold = threshold
	}
}

// WithRandomSource sets the source of the threshold premium.
func WithRandomSource(rng RandomSource) Option {
	return func(q *Qualifier) {
		if rng != nil {
			q.rng = rng
		}
	}
}

// WithOpener replaces the workbook opener.
func WithOpener(open Opener) Option {
	return func(q *Qualifier) {
		if open != nil {
			q.open = open
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(q *Qualifier) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// Qualifier runs one qualification over one workbook. It is not safe for
// concurrent use; create one per run.
type Qualifier struct {
	path          string
	layout        *models.Layout
	sheetName     string
	coefficients  models.AssetCoefficientTable
	baseThreshold float64
	rng           RandomSource
	open          Opener
	logger        *zap.Logger

	src   Source
	state *models.CalculationState
}

// New creates a qualifier for the workbook at path.
func New(path string, opts ...Option) *Qualifier {
	q := &Qualifier{
		path:          path,
		layout:        models.DefaultLayout(),
		coefficients:  models.DefaultAssetCoefficients(),
		baseThreshold: models.DefaultBaseThreshold,
		open:          openWorkbook,
	}

	for _, opt := range opts {
		opt(q)
	}

	if q.sheetName != "" {
		l := *q.layout
		l.SheetName = q.sheetName
		q.layout = &l
	}
	if q.rng == nil {
		q.rng = newUnseededSource()
	}
	if q.logger == nil {
		q.logger = utils.GetLogger()
	}

	return q
}

// Layout returns the layout in effect.
func (q *Qualifier) Layout() *models.Layout {
	return q.layout
}

// workbook opens the workbook on first use and returns the same handle
// afterwards.
func (q *Qualifier) workbook() (workbook.CellSource, error) {
	if q.src != nil {
		return q.src, nil
	}

	src, err := q.open(q.path)
	if err != nil {
		return nil, err
	}
	q.src = src
	return src, nil
}

// Calculate extracts every input and computes the results. On failure no
// state is kept.
func (q *Qualifier) Calculate() (*models.CalculationState, error) {
	start := time.Now()
	state := models.NewCalculationState()

	src, err := q.workbook()
	if err != nil {
		return nil, err
	}

	basic, err := ExtractBasicInfo(src, q.layout)
	if err != nil {
		return nil, err
	}
	state.SubjectAddress = basic.SubjectAddress
	state.LoanPurpose = basic.LoanPurpose
	state.SubjectValue = basic.SubjectValue
	state.DownPaymentClosingCost = basic.DownPaymentClosingCost
	merge(state, basic.Diagnostics)

	assets, err := ExtractAssets(src, q.layout, q.coefficients)
	if err != nil {
		return nil, err
	}
	state.Assets = assets.Records
	state.LiquidAssets = assets.LiquidAssets
	merge(state, assets.Diagnostics)

	reo, err := ExtractREO(src, q.layout, state.SubjectAddress)
	if err != nil {
		return nil, err
	}
	state.Properties = reo.Records
	state.NonSubjectValue = reo.NonSubjectValue
	state.NonSubjectValueAdjusted = reo.NonSubjectValueAdjusted
	state.SubjectPITIA = reo.SubjectPITIA
	state.NonSubjectPITIASM = reo.NonSubjectPITIASM
	merge(state, reo.Diagnostics)

	other, err := ExtractOther(src, q.layout)
	if err != nil {
		return nil, err
	}
	state.GiftAmount = other.GiftAmount
	state.OtherMonthlyDebt = other.OtherMonthlyDebt
	merge(state, other.Diagnostics)

	state.Results = Compute(state, q.baseThreshold, q.drawPremium())
	q.state = state

	for _, w := range state.Warnings {
		q.logger.Warn("Workbook template warning", zap.String("path", q.path), zap.String("warning", w))
	}
	q.logger.Info("Qualification calculated",
		zap.String("path", q.path),
		zap.String("sheet", q.layout.SheetName),
		zap.Float64("monthly_income", state.Results.MonthlyIncome),
		zap.Float64("monthly_debt", state.Results.MonthlyDebt),
		zap.Float64("residual", state.Results.Residual),
		zap.Float64("final_threshold", state.Results.FinalThreshold),
		zap.String("verdict", string(state.Results.Verdict)),
		zap.Int("defaulted_fields", len(state.Defaulted)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return state, nil
}

// State returns the last calculated state, or nil.
func (q *Qualifier) State() *models.CalculationState {
	return q.state
}

// Evaluate calculates if needed and renders the report.
func (q *Qualifier) Evaluate() (string, error) {
	if q.state == nil {
		if _, err := q.Calculate(); err != nil {
			return "", err
		}
	}
	return report.Format(q.state), nil
}

// Close releases the workbook if it was opened.
func (q *Qualifier) Close() error {
	if q.src == nil {
		return nil
	}
	err := q.src.Close()
	q.src = nil
	if err != nil {
		return fmt.Errorf("failed to close workbook: %w", err)
	}
	return nil
}

// drawPremium returns a uniform value in [0, 100) rounded to cents.
func (q *Qualifier) drawPremium() float64 {
	v := q.rng.Float64() * models.RandomPremiumUpperBound
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Compute applies the residual income formula and the verdict rules.
func Compute(s *models.CalculationState, baseThreshold, premium float64) models.Results {
	numerator := s.LiquidAssets + s.SubjectValue + s.NonSubjectValueAdjusted -
		s.DownPaymentClosingCost + s.GiftAmount

	r := models.Results{
		MonthlyIncome: numerator / models.QualifyingMonths,
		MonthlyDebt:   s.OtherMonthlyDebt + s.SubjectPITIA + s.NonSubjectPITIASM,
		BaseThreshold: baseThreshold,
		RandomPremium: premium,
	}
	r.Residual = r.MonthlyIncome - r.MonthlyDebt
	r.FinalThreshold = baseThreshold + premium
	r.Verdict = models.DetermineVerdict(r.FinalThreshold, r.Residual, s.GiftAmount, s.DownPaymentClosingCost)

	return r
}

func merge(state *models.CalculationState, d Diagnostics) {
	for _, f := range d.Defaulted {
		state.AddDefaulted(f)
	}
	for _, w := range d.Warnings {
		state.AddWarning(w)
	}
}

package qualifier_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"homeport-qualifier/internal/models"
	"homeport-qualifier/internal/services/qualifier"
)

// fakeSheet is an in-memory workbook with a single sheet.
type fakeSheet struct {
	sheet  string
	cells  map[string]string
	reads  int
	closed bool
}

func newFakeSheet() *fakeSheet {
	return &fakeSheet{sheet: models.DefaultSheetName, cells: map[string]string{}}
}

func (f *fakeSheet) CellValue(sheet, axis string) (string, error) {
	f.reads++
	if sheet != f.sheet {
		return "", fmt.Errorf("%w: sheet %q does not exist", models.ErrWorkbookFormat, sheet)
	}
	return f.cells[axis], nil
}

func (f *fakeSheet) Close() error {
	f.closed = true
	return nil
}

// table writes headers and rows starting at the top-left cell.
func (f *fakeSheet) table(topLeft string, headers []string, rows ...[]string) {
	col, row, err := excelize.CellNameToCoordinates(topLeft)
	if err != nil {
		panic(err)
	}
	for i, h := range headers {
		axis, _ := excelize.CoordinatesToCellName(col+i, row)
		f.cells[axis] = h
	}
	for r, values := range rows {
		for i, v := range values {
			axis, _ := excelize.CoordinatesToCellName(col+i, row+1+r)
			f.cells[axis] = v
		}
	}
}

func (f *fakeSheet) basic(address, purpose, appraised, purchase, dpcc string) {
	f.cells["E6"] = address
	f.cells["E7"] = purpose
	f.cells["E12"] = appraised
	f.cells["E13"] = purchase
	f.cells["E15"] = dpcc
}

var (
	assetHeaders = []string{"Type", "Balance", "Borrowers' ownership of account (%)"}
	reoHeaders   = []string{"Address", "Zillow Value", "Ownership(%)", "Monthly PI", "Monthly Tax",
		"Monthly Ins", "Monthly HOA", "Monthly Solar", "Monthly MI"}
	giftHeaders = []string{"Donor", "Amount"}
	debtHeaders = []string{"Creditor", "Monthly Payment"}
)

type fixedRandom float64

func (r fixedRandom) Float64() float64 { return float64(r) }

func newQualifier(src *fakeSheet, opts ...qualifier.Option) *qualifier.Qualifier {
	opts = append([]qualifier.Option{
		qualifier.WithOpener(func(string) (qualifier.Source, error) { return src, nil }),
		qualifier.WithRandomSource(fixedRandom(0)),
		qualifier.WithLogger(zap.NewNop()),
	}, opts...)
	return qualifier.New("submission.xlsx", opts...)
}

func TestCalculate_RefinanceWithEmptyTables(t *testing.T) {
	src := newFakeSheet()
	src.basic("123 Main St", "Refinance", "100000", "120000", "5000")

	state, err := newQualifier(src).Calculate()
	require.NoError(t, err)

	assert.Equal(t, 0.0, state.LiquidAssets)
	assert.Equal(t, 100000.0, state.SubjectValue)
	assert.Equal(t, 5000.0, state.DownPaymentClosingCost)
	assert.InDelta(t, 2638.89, state.Results.MonthlyIncome, 0.005)
	assert.Equal(t, 0.0, state.Results.MonthlyDebt)
	assert.InDelta(t, 2638.89, state.Results.Residual, 0.005)
	assert.Equal(t, 2800.0, state.Results.FinalThreshold)
	assert.Equal(t, models.VerdictNotEligible, state.Results.Verdict)
	assert.Empty(t, state.Defaulted)
}

func TestCalculate_SingleCheckingAsset(t *testing.T) {
	src := newFakeSheet()
	src.basic("123 Main St", "Purchase", "", "", "0")
	src.table("B32", assetHeaders, []string{"Checking/Saving/CD", "10000", "100"})

	state, err := newQualifier(src).Calculate()
	require.NoError(t, err)

	require.Len(t, state.Assets, 1)
	assert.Equal(t, 1.0, state.Assets[0].Coefficient)
	assert.Equal(t, 10000.0, state.Assets[0].AdjustedBalance())
	assert.Equal(t, 10000.0, state.LiquidAssets)
}

func TestCalculate_AssetCoefficients(t *testing.T) {
	src := newFakeSheet()
	src.basic("", "Purchase", "", "", "")
	src.table("B32", assetHeaders,
		[]string{"  Stocks, Bonds, Mutual funds ", "1000", "50"},
		[]string{"Retirement < 59 1/2", "2000", "100"},
		[]string{"Crypto", "5000", "100"},
		[]string{"529 account(Soly owned)", "not a number", "100"},
	)

	state, err := newQualifier(src).Calculate()
	require.NoError(t, err)

	require.Len(t, state.Assets, 4)
	assert.Equal(t, 0.9, state.Assets[0].Coefficient)
	assert.Equal(t, 0.7, state.Assets[1].Coefficient)
	assert.Equal(t, 0.0, state.Assets[2].Coefficient)
	assert.Equal(t, 0.0, state.Assets[3].Balance)
	assert.InDelta(t, 450.0+1400.0, state.LiquidAssets, 1e-9)
	assert.Contains(t, state.Defaulted, "assets[4].Balance")
}

func TestCalculate_InfiniteTextDefaultsToZero(t *testing.T) {
	src := newFakeSheet()
	src.basic("123 Main St", "Refinance", "100000", "120000", "5000")
	src.table("B32", assetHeaders, []string{"Checking/Saving/CD", "inf", "0"})

	state, err := newQualifier(src).Calculate()
	require.NoError(t, err)

	assert.Equal(t, 0.0, state.LiquidAssets)
	assert.InDelta(t, 2638.89, state.Results.Residual, 0.005)
	assert.Equal(t, models.VerdictNotEligible, state.Results.Verdict)
	assert.Equal(t, []string{"assets[1].Balance"}, state.Defaulted)
}

func TestCalculate_SubjectPropertyMatching(t *testing.T) {
	src := newFakeSheet()
	src.basic("  123 MAIN ST ", "Refinance", "400000", "", "0")
	src.table("B47", reoHeaders,
		[]string{"123 Main St, Unit 4", "500000", "100", "1000", "200", "100", "50", "75", "25"},
		[]string{"9 Oak Ave", "300000", "50", "800", "150", "60", "0", "40", "10"},
	)

	state, err := newQualifier(src).Calculate()
	require.NoError(t, err)

	assert.Equal(t, "123 main st", state.SubjectAddress)
	require.Len(t, state.Properties, 2)
	assert.True(t, state.Properties[0].IsSubjectProperty)
	assert.False(t, state.Properties[1].IsSubjectProperty)

	assert.Equal(t, 1350.0, state.SubjectPITIA)
	assert.Equal(t, 150000.0, state.NonSubjectValue)
	assert.Equal(t, 150000.0*0.9, state.NonSubjectValueAdjusted)
	assert.Equal(t, 1060.0, state.NonSubjectPITIASM)
	assert.Equal(t, 400000.0, state.SubjectValue)
	assert.Contains(t, state.Defaulted, "basic_info.Sub_Pur_Value")
}

func TestCalculate_EmptySubjectAddressMatchesEveryProperty(t *testing.T) {
	src := newFakeSheet()
	src.basic("", "Refinance", "100000", "100000", "0")
	src.table("B47", reoHeaders,
		[]string{"1 First St", "100000", "100", "100", "0", "0", "0", "0", "0"},
		[]string{"2 Second St", "100000", "100", "200", "0", "0", "0", "0", "0"},
	)

	state, err := newQualifier(src).Calculate()
	require.NoError(t, err)

	assert.Equal(t, 300.0, state.SubjectPITIA)
	assert.Equal(t, 0.0, state.NonSubjectValue)
	assert.NotEmpty(t, state.Warnings)
}

func TestCalculate_REOHeadersAreWhitespaceNormalized(t *testing.T) {
	src := newFakeSheet()
	src.basic("elm", "Refinance", "0", "0", "0")
	src.table("B47", []string{"Address", "Zillow   Value", " Ownership(%) ", "Monthly\nPI"},
		[]string{"7 Pine Rd", "200000", "100", "900"},
	)

	state, err := newQualifier(src).Calculate()
	require.NoError(t, err)

	assert.Equal(t, 200000.0, state.NonSubjectValue)
	assert.Equal(t, 900.0, state.NonSubjectPITIASM)
	assert.Contains(t, state.Defaulted, "reo.Monthly Solar (missing column)")
}

func TestCalculate_PurchaseExcludesSubjectValue(t *testing.T) {
	tests := []struct {
		purpose  string
		expected float64
	}{
		{"Purchase", 0},
		{"  Purchase  ", 0},
		{"purchase", 250000},
		{"Refinance", 250000},
		{"", 250000},
	}

	for _, tt := range tests {
		t.Run(tt.purpose, func(t *testing.T) {
			src := newFakeSheet()
			src.basic("1 Main St", tt.purpose, "250000", "300000", "0")

			state, err := newQualifier(src).Calculate()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, state.SubjectValue)
		})
	}
}

func TestCalculate_NonNumericBasicInfoDefaultsToZero(t *testing.T) {
	src := newFakeSheet()
	src.basic("1 Main St", "Refinance", "TBD", "n/a", "$5,000")

	state, err := newQualifier(src).Calculate()
	require.NoError(t, err)

	assert.Equal(t, 0.0, state.SubjectValue)
	assert.Equal(t, 0.0, state.DownPaymentClosingCost)
	assert.ElementsMatch(t, []string{
		"basic_info.Sub_App_Value",
		"basic_info.Sub_Pur_Value",
		"basic_info.DP_CC",
	}, state.Defaulted)
}

func TestCalculate_GiftExceedsDownPayment(t *testing.T) {
	src := newFakeSheet()
	src.basic("1 Main St", "Refinance", "500000", "500000", "5000")
	src.table("B39", giftHeaders, []string{"Parent", "6000"})

	state, err := newQualifier(src).Calculate()
	require.NoError(t, err)

	assert.Equal(t, 6000.0, state.GiftAmount)
	assert.Greater(t, state.Results.Residual, state.Results.FinalThreshold)
	assert.Equal(t, models.VerdictEligibilityWarning, state.Results.Verdict)
}

func TestCalculate_PotentiallyEligible(t *testing.T) {
	src := newFakeSheet()
	src.basic("1 Main St", "Refinance", "500000", "500000", "5000")
	src.table("B21", debtHeaders,
		[]string{"Auto", "450"},
		[]string{"Card", "120.5"},
	)

	state, err := newQualifier(src, qualifier.WithRandomSource(fixedRandom(0.425))).Calculate()
	require.NoError(t, err)

	assert.Equal(t, 570.5, state.OtherMonthlyDebt)
	assert.Equal(t, 42.5, state.Results.RandomPremium)
	assert.Equal(t, 2842.5, state.Results.FinalThreshold)
	assert.Equal(t, models.VerdictPotentiallyEligible, state.Results.Verdict)
}

func TestCalculate_DuplicateHeadersWarn(t *testing.T) {
	src := newFakeSheet()
	src.basic("1 Main St", "Refinance", "0", "0", "0")
	src.table("B21", []string{"Monthly Payment", "Monthly Payment"}, []string{"100", "250"})

	state, err := newQualifier(src).Calculate()
	require.NoError(t, err)

	assert.Equal(t, 250.0, state.OtherMonthlyDebt)
	require.Len(t, state.Warnings, 1)
	assert.Contains(t, state.Warnings[0], "Monthly Payment")
}

func TestCalculate_MissingSheet(t *testing.T) {
	src := newFakeSheet()
	src.sheet = "Version#2"

	q := newQualifier(src)
	state, err := q.Calculate()

	assert.Nil(t, state)
	assert.True(t, errors.Is(err, models.ErrWorkbookFormat))
	assert.Nil(t, q.State())
}

func TestCalculate_OpenFailurePropagates(t *testing.T) {
	q := qualifier.New("missing.xlsx",
		qualifier.WithOpener(func(string) (qualifier.Source, error) {
			return nil, models.ErrWorkbookNotFound
		}),
		qualifier.WithLogger(zap.NewNop()),
	)

	_, err := q.Calculate()
	assert.ErrorIs(t, err, models.ErrWorkbookNotFound)
	assert.NoError(t, q.Close())
}

func TestQualifier_OpensWorkbookOnce(t *testing.T) {
	src := newFakeSheet()
	src.basic("1 Main St", "Refinance", "100", "100", "0")
	opened := 0

	q := qualifier.New("submission.xlsx",
		qualifier.WithOpener(func(string) (qualifier.Source, error) {
			opened++
			return src, nil
		}),
		qualifier.WithRandomSource(fixedRandom(0)),
		qualifier.WithLogger(zap.NewNop()),
	)

	_, err := q.Calculate()
	require.NoError(t, err)
	_, err = q.Calculate()
	require.NoError(t, err)

	assert.Equal(t, 1, opened)
	require.NoError(t, q.Close())
	assert.True(t, src.closed)
}

func TestQualifier_SheetNameOverride(t *testing.T) {
	src := newFakeSheet()
	src.sheet = "Version#2"
	src.basic("1 Main St", "Refinance", "100", "100", "0")

	q := newQualifier(src, qualifier.WithSheetName("Version#2"))
	_, err := q.Calculate()

	require.NoError(t, err)
	assert.Equal(t, "Version#2", q.Layout().SheetName)
	assert.Equal(t, "B32:G37", q.Layout().AssetTable)
}

func TestQualifier_BaseThreshold(t *testing.T) {
	src := newFakeSheet()
	src.basic("1 Main St", "Refinance", "36000", "36000", "0")

	state, err := newQualifier(src, qualifier.WithBaseThreshold(500)).Calculate()
	require.NoError(t, err)

	assert.Equal(t, 500.0, state.Results.BaseThreshold)
	assert.Equal(t, 1000.0, state.Results.Residual)
	assert.Equal(t, models.VerdictPotentiallyEligible, state.Results.Verdict)
}

func TestEvaluate_CalculatesOnFirstCall(t *testing.T) {
	src := newFakeSheet()
	src.basic("1 Main St", "Refinance", "100000", "120000", "5000")

	q := newQualifier(src)
	report, err := q.Evaluate()
	require.NoError(t, err)

	assert.NotNil(t, q.State())
	assert.Contains(t, report, "HOMEPORT QUALIFICATION REPORT")
	assert.Contains(t, report, "xx NOT ELIGIBLE xx")

	reads := src.reads
	again, err := q.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, report, again)
	assert.Equal(t, reads, src.reads)
}

func TestSeededSource_IsDeterministic(t *testing.T) {
	a := qualifier.NewSeededSource(42)
	b := qualifier.NewSeededSource(42)

	for i := 0; i < 5; i++ {
		v := a.Float64()
		assert.Equal(t, v, b.Float64())
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestCompute_VerdictPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		state    models.CalculationState
		expected models.Verdict
	}{
		{
			name:     "threshold beats gift warning",
			state:    models.CalculationState{LiquidAssets: 36000, GiftAmount: 6000, DownPaymentClosingCost: 5000},
			expected: models.VerdictNotEligible,
		},
		{
			name:     "gift exceeds down payment",
			state:    models.CalculationState{LiquidAssets: 360000, GiftAmount: 6000, DownPaymentClosingCost: 5000},
			expected: models.VerdictEligibilityWarning,
		},
		{
			name:     "gift equals down payment",
			state:    models.CalculationState{LiquidAssets: 360000, GiftAmount: 5000, DownPaymentClosingCost: 5000},
			expected: models.VerdictPotentiallyEligible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := qualifier.Compute(&tt.state, 2800, 99.99)
			assert.Equal(t, tt.expected, r.Verdict)
		})
	}
}

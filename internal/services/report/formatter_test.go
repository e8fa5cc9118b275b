package report_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homeport-qualifier/internal/models"
	"homeport-qualifier/internal/services/report"
)

func sampleState(verdict models.Verdict) *models.CalculationState {
	return &models.CalculationState{
		LiquidAssets:            1234567.891,
		SubjectValue:            0,
		NonSubjectValueAdjusted: 135000,
		DownPaymentClosingCost:  5000,
		GiftAmount:              6000,
		OtherMonthlyDebt:        570.5,
		SubjectPITIA:            1350,
		NonSubjectPITIASM:       -12.5,
		Results: models.Results{
			MonthlyIncome:  37069.94,
			MonthlyDebt:    1908,
			Residual:       35161.94,
			BaseThreshold:  2800,
			RandomPremium:  42.5,
			FinalThreshold: 2842.5,
			Verdict:        verdict,
		},
	}
}

func TestFormat_Layout(t *testing.T) {
	out := report.Format(sampleState(models.VerdictPotentiallyEligible))
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 38)
	assert.Equal(t, "", lines[0])
	assert.Equal(t, strings.Repeat("=", 50), lines[1])
	assert.Equal(t, "<strong>      >>> HOMEPORT QUALIFICATION REPORT <<<       </strong>", lines[2])
	assert.Equal(t, "Liquid Assets:                       1,234,567.89", lines[4])
	assert.Equal(t, "Subject Value Used:                          0.00", lines[5])
	assert.Equal(t, "Non-Sub Value (90%):                   135,000.00", lines[6])
	assert.Equal(t, strings.Repeat("-", 50), lines[9])
	assert.Equal(t, "Non-Sub PITIASM:                           -12.50", lines[14])
	assert.Equal(t, "Base Threshold:                              2800", lines[19])
	assert.Equal(t, "Random Premium:                              42.5", lines[20])
	assert.Equal(t, "Final Threshold:                         2,842.50", lines[21])
	assert.Equal(t, "<strong>                 QUALIFIER STATUS                 </strong>", lines[23])
	assert.Equal(t, "<strong>            >> POTENTIALLY ELIGIBLE <<            </strong>", lines[25])
	assert.Equal(t, "", lines[26])
	assert.Equal(t, "You <strong>MAY BE ELIGIBLE</strong> for Homeport Program.", lines[27])
	assert.Equal(t, "This is a preliminary calculation — this <strong>does not</strong>", lines[29])
	assert.Equal(t, "Matrix and rate sheet.", lines[36])
	assert.Equal(t, strings.Repeat("=", 50), lines[37])
}

func TestFormat_RowsAreFiftyColumns(t *testing.T) {
	out := report.Format(sampleState(models.VerdictNotEligible))

	for _, line := range strings.Split(report.StripMarkup(out), "\n")[1:26] {
		assert.Equal(t, 50, utf8.RuneCountInString(line), "line %q", line)
	}
}

func TestFormat_VerdictBlocks(t *testing.T) {
	tests := []struct {
		verdict models.Verdict
		title   string
		message string
	}{
		{
			models.VerdictNotEligible,
			"<strong>                xx NOT ELIGIBLE xx                </strong>",
			"You <strong>MAY NOT BE ELIGIBLE</strong> for Homeport Program.",
		},
		{
			models.VerdictEligibilityWarning,
			"<strong>            !! ELIGIBILITY WARNING !!             </strong>",
			"<strong>Gift Amount Exceeds Down Payment/Closing Costs.</strong>",
		},
		{
			models.VerdictPotentiallyEligible,
			"<strong>            >> POTENTIALLY ELIGIBLE <<            </strong>",
			"You <strong>MAY BE ELIGIBLE</strong> for Homeport Program.",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.verdict), func(t *testing.T) {
			lines := strings.Split(report.Format(sampleState(tt.verdict)), "\n")
			assert.Equal(t, tt.title, lines[25])
			assert.Equal(t, tt.message, lines[27])
		})
	}
}

func TestFormat_UnsetVerdictIsDerived(t *testing.T) {
	s := sampleState("")
	s.Results.FinalThreshold = 99999

	out := report.Format(s)
	assert.Contains(t, out, "xx NOT ELIGIBLE xx")
}

func TestFormat_WholePremiumKeepsDecimal(t *testing.T) {
	s := sampleState(models.VerdictNotEligible)
	s.Results.RandomPremium = 0
	s.Results.BaseThreshold = 2750.25

	lines := strings.Split(report.Format(s), "\n")
	assert.Equal(t, "Base Threshold:                           2750.25", lines[19])
	assert.Equal(t, "Random Premium:                               0.0", lines[20])
}

func TestStripMarkup(t *testing.T) {
	out := report.StripMarkup(report.Format(sampleState(models.VerdictNotEligible)))

	assert.NotContains(t, out, "<strong>")
	assert.NotContains(t, out, "</strong>")
	assert.Contains(t, out, "You MAY NOT BE ELIGIBLE for Homeport Program.")
}

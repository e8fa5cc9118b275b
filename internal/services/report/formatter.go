// Package report renders a calculation into the fixed-width qualification
// report.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"homeport-qualifier/internal/models"
)

// Width is the column width of the report.
const Width = 50

const (
	labelWidth = 30
	valueWidth = 18
)

var (
	separator = strings.Repeat("=", Width)
	dash      = strings.Repeat("-", Width)

	printer = message.NewPrinter(language.English)
)

type verdictBlock struct {
	title   string
	message string
}

var verdictBlocks = map[models.Verdict]verdictBlock{
	models.VerdictNotEligible: {
		title:   "xx NOT ELIGIBLE xx",
		message: "You <strong>MAY NOT BE ELIGIBLE</strong> for Homeport Program.",
	},
	models.VerdictEligibilityWarning: {
		title:   "!! ELIGIBILITY WARNING !!",
		message: "<strong>Gift Amount Exceeds Down Payment/Closing Costs.</strong>",
	},
	models.VerdictPotentiallyEligible: {
		title:   ">> POTENTIALLY ELIGIBLE <<",
		message: "You <strong>MAY BE ELIGIBLE</strong> for Homeport Program.",
	},
}

var disclaimer = []string{
	"This is a preliminary calculation — this <strong>does not</strong>",
	"<strong>constitute loan approval</strong>. Results are subject to",
	"change during underwriting. New/updated",
	"documentation or revised loan details may require",
	"adjusted qualifying calculations, all subject to",
	"underwriting review. Any loan information not on",
	"the Submission Ticket must adhere to the AAA",
	"Matrix and rate sheet.",
}

// Format renders the report for a calculated state. Lines are joined with
// "\n" and headings are wrapped in <strong> markup.
func Format(s *models.CalculationState) string {
	r := s.Results
	lines := make([]string, 0, 40)

	lines = append(lines, "", separator, heading(">>> HOMEPORT QUALIFICATION REPORT <<<"), separator)

	lines = append(lines,
		amountRow("Liquid Assets:", s.LiquidAssets),
		amountRow("Subject Value Used:", s.SubjectValue),
		amountRow("Non-Sub Value (90%):", s.NonSubjectValueAdjusted),
		amountRow("DP & Closing Cost:", s.DownPaymentClosingCost),
		amountRow("Gift Amount:", s.GiftAmount),
		dash,
		amountRow("Monthly Income:", r.MonthlyIncome),
		dash,
		amountRow("Payment (except REO):", s.OtherMonthlyDebt),
		amountRow("Sub PITIA:", s.SubjectPITIA),
		amountRow("Non-Sub PITIASM:", s.NonSubjectPITIASM),
		dash,
		amountRow("Monthly Debt:", r.MonthlyDebt),
		separator,
	)

	lines = append(lines,
		amountRow("Residual Income:", r.Residual),
		textRow("Base Threshold:", formatThreshold(r.BaseThreshold)),
		textRow("Random Premium:", formatPremium(r.RandomPremium)),
		amountRow("Final Threshold:", r.FinalThreshold),
		separator,
	)

	verdict := r.Verdict
	if !verdict.IsValid() {
		verdict = models.DetermineVerdict(r.FinalThreshold, r.Residual, s.GiftAmount, s.DownPaymentClosingCost)
	}
	block := verdictBlocks[verdict]

	lines = append(lines,
		heading("QUALIFIER STATUS"),
		dash,
		heading(block.title),
		"",
		block.message,
		separator,
	)

	lines = append(lines, disclaimer...)
	lines = append(lines, separator)

	return strings.Join(lines, "\n")
}

// StripMarkup removes the emphasis markup from a rendered report.
func StripMarkup(report string) string {
	return strings.NewReplacer("<strong>", "", "</strong>", "").Replace(report)
}

func heading(title string) string {
	return "<strong>" + center(title, Width) + "</strong>"
}

// center pads s to width with the odd space on the right.
func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

func amountRow(label string, v float64) string {
	return textRow(label, printer.Sprintf("%.2f", v))
}

func textRow(label, value string) string {
	return fmt.Sprintf("%-*s %*s", labelWidth, label, valueWidth, value)
}

// formatThreshold prints the threshold in its shortest form, so a whole
// threshold has no decimal part.
func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatPremium prints the premium in its shortest form, keeping one decimal
// place for whole values.
func formatPremium(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

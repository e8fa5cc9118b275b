// Package models defines the data structures for the homeport qualifier.
package models

// Verdict is the outcome of a qualification run.
type Verdict string

const (
	VerdictNotEligible         Verdict = "not_eligible"
	VerdictEligibilityWarning  Verdict = "eligibility_warning"
	VerdictPotentiallyEligible Verdict = "potentially_eligible"
)

// ValidVerdicts returns all verdict values in evaluation order.
func ValidVerdicts() []Verdict {
	return []Verdict{
		VerdictNotEligible,
		VerdictEligibilityWarning,
		VerdictPotentiallyEligible,
	}
}

// IsValid checks if the verdict is one of the known values.
func (v Verdict) IsValid() bool {
	for _, valid := range ValidVerdicts() {
		if v == valid {
			return true
		}
	}
	return false
}

// Label returns the heading used for the verdict in reports and e-mails.
func (v Verdict) Label() string {
	switch v {
	case VerdictNotEligible:
		return "NOT ELIGIBLE"
	case VerdictEligibilityWarning:
		return "ELIGIBILITY WARNING"
	case VerdictPotentiallyEligible:
		return "POTENTIALLY ELIGIBLE"
	default:
		return "UNKNOWN"
	}
}

// Results holds the figures derived from the extracted values.
type Results struct {
	MonthlyIncome  float64 `json:"monthly_income"`
	MonthlyDebt    float64 `json:"monthly_debt"`
	Residual       float64 `json:"residual"`
	BaseThreshold  float64 `json:"base_threshold"`
	RandomPremium  float64 `json:"random_premium"`
	FinalThreshold float64 `json:"final_threshold"`
	Verdict        Verdict `json:"verdict"`
}

// CalculationState accumulates everything one qualification run extracts and
// derives. It is created per run and never shared.
type CalculationState struct {
	SubjectAddress string `json:"subject_address"`
	LoanPurpose    string `json:"loan_purpose"`

	LiquidAssets            float64 `json:"liquid_assets"`
	SubjectValue            float64 `json:"subject_value"`
	NonSubjectValue         float64 `json:"non_subject_value"`
	NonSubjectValueAdjusted float64 `json:"non_subject_value_adjusted"`
	DownPaymentClosingCost  float64 `json:"down_payment_closing_cost"`
	GiftAmount              float64 `json:"gift_amount"`
	OtherMonthlyDebt        float64 `json:"other_monthly_debt"`
	SubjectPITIA            float64 `json:"subject_pitia"`
	NonSubjectPITIASM       float64 `json:"non_subject_pitiasm"`

	Assets     []AssetRecord       `json:"assets,omitempty"`
	Properties []REOPropertyRecord `json:"properties,omitempty"`

	Results Results `json:"results"`

	// Defaulted lists the inputs that failed numeric coercion or were absent
	// and fell back to zero.
	Defaulted []string `json:"defaulted,omitempty"`
	// Warnings lists non-fatal template problems such as duplicate headers.
	Warnings []string `json:"warnings,omitempty"`
}

// NewCalculationState creates an empty state.
func NewCalculationState() *CalculationState {
	return &CalculationState{
		Defaulted: []string{},
		Warnings:  []string{},
	}
}

// AddDefaulted records an input that fell back to its default.
func (s *CalculationState) AddDefaulted(field string) {
	s.Defaulted = append(s.Defaulted, field)
}

// AddWarning records a non-fatal template problem.
func (s *CalculationState) AddWarning(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// DetermineVerdict applies the verdict rules in order; the first match wins.
func DetermineVerdict(finalThreshold, residual, giftAmount, downPaymentClosingCost float64) Verdict {
	if finalThreshold > residual {
		return VerdictNotEligible
	}
	if giftAmount > downPaymentClosingCost {
		return VerdictEligibilityWarning
	}
	return VerdictPotentiallyEligible
}

// Package models defines the data structures for the homeport qualifier.
package models

import (
	"time"
)

// RunSource indicates which entry point produced a qualification run.
type RunSource string

const (
	RunSourceHTTP   RunSource = "http"
	RunSourceS3     RunSource = "s3"
	RunSourceCLI    RunSource = "cli"
	RunSourceManual RunSource = "manual"
)

// QualificationRun is the audit record of one finished run.
type QualificationRun struct {
	ID                      string    `json:"id" db:"id"`
	Source                  RunSource `json:"source" db:"source"`
	FileName                string    `json:"file_name" db:"file_name"`
	SheetName               string    `json:"sheet_name" db:"sheet_name"`
	LiquidAssets            float64   `json:"liquid_assets" db:"liquid_assets"`
	SubjectValue            float64   `json:"subject_value" db:"subject_value"`
	NonSubjectValueAdjusted float64   `json:"non_subject_value_adjusted" db:"non_subject_value_adjusted"`
	DownPaymentClosingCost  float64   `json:"down_payment_closing_cost" db:"down_payment_closing_cost"`
	GiftAmount              float64   `json:"gift_amount" db:"gift_amount"`
	MonthlyIncome           float64   `json:"monthly_income" db:"monthly_income"`
	MonthlyDebt             float64   `json:"monthly_debt" db:"monthly_debt"`
	Residual                float64   `json:"residual" db:"residual"`
	BaseThreshold           float64   `json:"base_threshold" db:"base_threshold"`
	RandomPremium           float64   `json:"random_premium" db:"random_premium"`
	FinalThreshold          float64   `json:"final_threshold" db:"final_threshold"`
	Verdict                 Verdict   `json:"verdict" db:"verdict"`
	DefaultedFields         []string  `json:"defaulted_fields" db:"defaulted_fields"`
	CreatedAt               time.Time `json:"created_at" db:"created_at"`
}

// NewQualificationRun builds the audit record of a finished calculation.
func NewQualificationRun(id string, source RunSource, fileName, sheetName string, s *CalculationState) *QualificationRun {
	defaulted := make([]string, len(s.Defaulted))
	copy(defaulted, s.Defaulted)

	return &QualificationRun{
		ID:                      id,
		Source:                  source,
		FileName:                fileName,
		SheetName:               sheetName,
		LiquidAssets:            s.LiquidAssets,
		SubjectValue:            s.SubjectValue,
		NonSubjectValueAdjusted: s.NonSubjectValueAdjusted,
		DownPaymentClosingCost:  s.DownPaymentClosingCost,
		GiftAmount:              s.GiftAmount,
		MonthlyIncome:           s.Results.MonthlyIncome,
		MonthlyDebt:             s.Results.MonthlyDebt,
		Residual:                s.Results.Residual,
		BaseThreshold:           s.Results.BaseThreshold,
		RandomPremium:           s.Results.RandomPremium,
		FinalThreshold:          s.Results.FinalThreshold,
		Verdict:                 s.Results.Verdict,
		DefaultedFields:         defaulted,
		CreatedAt:               time.Now().UTC(),
	}
}

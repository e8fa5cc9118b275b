// Package qualifier extracts the underwriting inputs from a submission
// workbook and computes residual income and eligibility.
package qualifier

import (
	"fmt"
	"math"
	"strings"

	"homeport-qualifier/internal/models"
	"homeport-qualifier/internal/services/workbook"
	"homeport-qualifier/internal/utils"
)

// Diagnostics collects inputs that fell back to defaults and template
// warnings found while extracting.
type Diagnostics struct {
	Defaulted []string
	Warnings  []string
}

func (d *Diagnostics) defaulted(format string, args ...interface{}) {
	d.Defaulted = append(d.Defaulted, fmt.Sprintf(format, args...))
}

func (d *Diagnostics) warn(format string, args ...interface{}) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

// BasicInfo holds the fixed-cell inputs of the submission.
type BasicInfo struct {
	Diagnostics
	SubjectAddress         string
	LoanPurpose            string
	SubjectValue           float64
	DownPaymentClosingCost float64
}

// AssetSummary is the result of the liquid asset table.
type AssetSummary struct {
	Diagnostics
	Records      []models.AssetRecord
	LiquidAssets float64
}

// REOSummary is the result of the real-estate-owned table.
type REOSummary struct {
	Diagnostics
	Records                 []models.REOPropertyRecord
	NonSubjectValue         float64
	NonSubjectValueAdjusted float64
	SubjectPITIA            float64
	NonSubjectPITIASM       float64
}

// OtherSummary holds gift funds and other recurring debts.
type OtherSummary struct {
	Diagnostics
	GiftAmount       float64
	OtherMonthlyDebt float64
}

// ExtractBasicInfo reads the fixed basic-info cells.
func ExtractBasicInfo(src workbook.CellSource, layout *models.Layout) (*BasicInfo, error) {
	record, err := workbook.ReadMapping(src, layout.SheetName, layout.BasicInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to read basic info: %w", err)
	}

	info := &BasicInfo{
		SubjectAddress: models.NormalizeSubjectAddress(record[models.FieldSubjectAddress]),
		LoanPurpose:    strings.TrimSpace(record[models.FieldLoanPurpose]),
	}

	appraised, okAppraised := utils.ParseNumber(record[models.FieldAppraisedValue])
	if !okAppraised {
		info.defaulted("basic_info.%s", models.FieldAppraisedValue)
	}
	purchase, okPurchase := utils.ParseNumber(record[models.FieldPurchaseValue])
	if !okPurchase {
		info.defaulted("basic_info.%s", models.FieldPurchaseValue)
	}

	// Missing values are skipped, as a row-wise minimum would skip them.
	switch {
	case okAppraised && okPurchase:
		info.SubjectValue = math.Min(appraised, purchase)
	case okAppraised:
		info.SubjectValue = appraised
	case okPurchase:
		info.SubjectValue = purchase
	}

	// Purchase transactions exclude subject-property equity.
	if info.LoanPurpose == models.LoanPurposePurchase {
		info.SubjectValue = 0
	}

	dpcc, ok := utils.ParseNumber(record[models.FieldDownPaymentCost])
	if !ok {
		info.defaulted("basic_info.%s", models.FieldDownPaymentCost)
	}
	info.DownPaymentClosingCost = dpcc

	if info.SubjectAddress == "" {
		info.warn("subject address is empty: every REO record is treated as the subject property")
	}

	return info, nil
}

// ExtractAssets reads the liquid asset table and applies the coefficients.
func ExtractAssets(src workbook.CellSource, layout *models.Layout, coefficients models.AssetCoefficientTable) (*AssetSummary, error) {
	table, err := workbook.ReadTable(src, layout.SheetName, layout.AssetTable)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset table: %w", err)
	}

	summary := &AssetSummary{}
	if table.Empty() {
		return summary, nil
	}
	summary.Warnings = append(summary.Warnings, table.Warnings...)
	checkColumns(table, "assets", &summary.Diagnostics,
		models.ColumnAssetType, models.ColumnAssetBalance, models.ColumnAssetOwnership)

	for i := range table.Rows {
		assetType, _ := table.Value(i, models.ColumnAssetType)
		rec := models.AssetRecord{
			Type:             strings.TrimSpace(assetType),
			Balance:          cellNumber(table, i, models.ColumnAssetBalance, "assets", &summary.Diagnostics),
			OwnershipPercent: cellNumber(table, i, models.ColumnAssetOwnership, "assets", &summary.Diagnostics),
		}
		rec.Coefficient, _ = coefficients.Lookup(rec.Type)

		summary.Records = append(summary.Records, rec)
		summary.LiquidAssets += rec.AdjustedBalance()
	}

	return summary, nil
}

// ExtractREO reads the real-estate-owned table and splits it into subject and
// non-subject property by address.
func ExtractREO(src workbook.CellSource, layout *models.Layout, subjectAddress string) (*REOSummary, error) {
	table, err := workbook.ReadTable(src, layout.SheetName, layout.REOTable)
	if err != nil {
		return nil, fmt.Errorf("failed to read REO table: %w", err)
	}

	summary := &REOSummary{}
	if table.Empty() {
		return summary, nil
	}
	table.NormalizeHeaders()
	summary.Warnings = append(summary.Warnings, table.Warnings...)
	checkColumns(table, "reo", &summary.Diagnostics,
		models.ColumnAddress, models.ColumnZillowValue, models.ColumnREOOwnership,
		models.ColumnMonthlyPI, models.ColumnMonthlyTax, models.ColumnMonthlyIns,
		models.ColumnMonthlyHOA, models.ColumnMonthlySolar, models.ColumnMonthlyMI)

	d := &summary.Diagnostics
	for i := range table.Rows {
		address, _ := table.Value(i, models.ColumnAddress)
		rec := models.REOPropertyRecord{
			Address:           address,
			ZillowValue:       cellNumber(table, i, models.ColumnZillowValue, "reo", d),
			OwnershipPercent:  cellNumber(table, i, models.ColumnREOOwnership, "reo", d),
			MonthlyPI:         cellNumber(table, i, models.ColumnMonthlyPI, "reo", d),
			MonthlyTax:        cellNumber(table, i, models.ColumnMonthlyTax, "reo", d),
			MonthlyIns:        cellNumber(table, i, models.ColumnMonthlyIns, "reo", d),
			MonthlyHOA:        cellNumber(table, i, models.ColumnMonthlyHOA, "reo", d),
			MonthlySolar:      cellNumber(table, i, models.ColumnMonthlySolar, "reo", d),
			MonthlyMI:         cellNumber(table, i, models.ColumnMonthlyMI, "reo", d),
			IsSubjectProperty: models.MatchesSubject(address, subjectAddress),
		}

		if rec.IsSubjectProperty {
			summary.SubjectPITIA += rec.PITIA()
		} else {
			summary.NonSubjectValue += rec.OwnedValue()
			summary.NonSubjectPITIASM += rec.PITIASM()
		}
		summary.Records = append(summary.Records, rec)
	}
	summary.NonSubjectValueAdjusted = summary.NonSubjectValue * models.NonSubjectValueFactor

	return summary, nil
}

// ExtractOther reads the gift and other-debt tables.
func ExtractOther(src workbook.CellSource, layout *models.Layout) (*OtherSummary, error) {
	summary := &OtherSummary{}

	gifts, err := workbook.ReadTable(src, layout.SheetName, layout.GiftTable)
	if err != nil {
		return nil, fmt.Errorf("failed to read gift table: %w", err)
	}
	summary.GiftAmount = sumColumn(gifts, models.ColumnGiftAmount, "gifts", &summary.Diagnostics)

	debts, err := workbook.ReadTable(src, layout.SheetName, layout.DebtTable)
	if err != nil {
		return nil, fmt.Errorf("failed to read debt table: %w", err)
	}
	summary.OtherMonthlyDebt = sumColumn(debts, models.ColumnMonthlyPayment, "debts", &summary.Diagnostics)

	return summary, nil
}

func sumColumn(table *workbook.TabularExtract, column, scope string, d *Diagnostics) float64 {
	if table.Empty() {
		return 0
	}
	d.Warnings = append(d.Warnings, table.Warnings...)
	checkColumns(table, scope, d, column)

	var total float64
	for i := range table.Rows {
		total += cellNumber(table, i, column, scope, d)
	}
	return total
}

// checkColumns records every expected column the table lacks.
func checkColumns(table *workbook.TabularExtract, scope string, d *Diagnostics, columns ...string) {
	for _, c := range columns {
		if !table.HasColumn(c) {
			d.defaulted("%s.%s (missing column)", scope, c)
		}
	}
}

// cellNumber coerces one table cell. Blank cells are an ordinary zero;
// non-blank text that is not a number is recorded as defaulted.
func cellNumber(table *workbook.TabularExtract, row int, column, scope string, d *Diagnostics) float64 {
	v, ok := table.Value(row, column)
	if !ok {
		return 0
	}
	f, ok := utils.ParseNumber(v)
	if !ok && strings.TrimSpace(v) != "" {
		d.defaulted("%s[%d].%s", scope, row+1, column)
	}
	return f
}

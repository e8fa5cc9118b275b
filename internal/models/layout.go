// Package models defines the data structures for the homeport qualifier.
package models

// Basic-info field names used as keys in the extracted record.
const (
	FieldSubjectAddress  = "Sub_Add"
	FieldLoanPurpose     = "Loan_Purpose"
	FieldAppraisedValue  = "Sub_App_Value"
	FieldPurchaseValue   = "Sub_Pur_Value"
	FieldDownPaymentCost = "DP_CC"
)

// Table column headers expected in the template.
const (
	ColumnAssetType      = "Type"
	ColumnAssetBalance   = "Balance"
	ColumnAssetOwnership = "Borrowers' ownership of account (%)"
	ColumnAddress        = "Address"
	ColumnZillowValue    = "Zillow Value"
	ColumnREOOwnership   = "Ownership(%)"
	ColumnMonthlyPI      = "Monthly PI"
	ColumnMonthlyTax     = "Monthly Tax"
	ColumnMonthlyIns     = "Monthly Ins"
	ColumnMonthlyHOA     = "Monthly HOA"
	ColumnMonthlySolar   = "Monthly Solar"
	ColumnMonthlyMI      = "Monthly MI"
	ColumnGiftAmount     = "Amount"
	ColumnMonthlyPayment = "Monthly Payment"
)

// Underwriting constants.
const (
	DefaultSheetName        = "Version#1"
	DefaultBaseThreshold    = 2800.0
	LoanPurposePurchase     = "Purchase"
	NonSubjectValueFactor   = 0.90
	QualifyingMonths        = 36
	RandomPremiumUpperBound = 100.0
)

// FieldLocation maps a field name to a cell ("E6") or a range ("B2:C3").
type FieldLocation struct {
	Field    string `json:"field" mapstructure:"field"`
	Location string `json:"location" mapstructure:"location"`
}

// CellMapping is an ordered list of field locations.
type CellMapping []FieldLocation

// Layout describes where every input lives in a workbook template version.
type Layout struct {
	SheetName  string      `json:"sheet_name" mapstructure:"sheet_name"`
	BasicInfo  CellMapping `json:"basic_info" mapstructure:"basic_info"`
	AssetTable string      `json:"asset_table" mapstructure:"asset_table"`
	GiftTable  string      `json:"gift_table" mapstructure:"gift_table"`
	REOTable   string      `json:"reo_table" mapstructure:"reo_table"`
	DebtTable  string      `json:"debt_table" mapstructure:"debt_table"`
}

// DefaultLayout returns the layout of the "Version#1" submission template.
func DefaultLayout() *Layout {
	return &Layout{
		SheetName: DefaultSheetName,
		BasicInfo: CellMapping{
			{Field: FieldSubjectAddress, Location: "E6"},
			{Field: FieldLoanPurpose, Location: "E7"},
			{Field: FieldAppraisedValue, Location: "E12"},
			{Field: FieldPurchaseValue, Location: "E13"},
			{Field: FieldDownPaymentCost, Location: "E15"},
		},
		AssetTable: "B32:G37",
		GiftTable:  "B39:G43",
		REOTable:   "B47:K55",
		DebtTable:  "B21:G29",
	}
}

// WithDefaults returns a copy of l where every empty entry is taken from the
// default layout.
func (l Layout) WithDefaults() *Layout {
	def := DefaultLayout()
	out := l
	if out.SheetName == "" {
		out.SheetName = def.SheetName
	}
	if len(out.BasicInfo) == 0 {
		out.BasicInfo = def.BasicInfo
	}
	if out.AssetTable == "" {
		out.AssetTable = def.AssetTable
	}
	if out.GiftTable == "" {
		out.GiftTable = def.GiftTable
	}
	if out.REOTable == "" {
		out.REOTable = def.REOTable
	}
	if out.DebtTable == "" {
		out.DebtTable = def.DebtTable
	}
	return &out
}

// Package models defines the data structures for the homeport qualifier.
package models

import "strings"

// AssetCoefficient is the share of a declared balance that counts toward
// qualifying assets for one asset type.
type AssetCoefficient struct {
	Type        string  `json:"type"`
	Coefficient float64 `json:"coefficient"`
}

// AssetCoefficientTable is ordered; the first exact match wins.
type AssetCoefficientTable []AssetCoefficient

// DefaultAssetCoefficients returns the liquidity coefficients of the template.
// Labels must match the workbook drop-down values exactly.
func DefaultAssetCoefficients() AssetCoefficientTable {
	return AssetCoefficientTable{
		{Type: "Checking/Saving/CD", Coefficient: 1.00},
		{Type: "Stocks, Bonds, Mutual funds", Coefficient: 0.90},
		{Type: "Retirement >= 59 1/2", Coefficient: 0.90},
		{Type: "Retirement < 59 1/2", Coefficient: 0.70},
		{Type: "Life Insurance(cash surrender value-loans)", Coefficient: 0.90},
		{Type: "529 account(Soly owned)", Coefficient: 0.60},
	}
}

// Lookup returns the coefficient for an asset type after trimming it.
// Unknown types return 0 and false.
func (t AssetCoefficientTable) Lookup(assetType string) (float64, bool) {
	assetType = strings.TrimSpace(assetType)
	for _, c := range t {
		if c.Type == assetType {
			return c.Coefficient, true
		}
	}
	return 0, false
}

// AssetRecord is one row of the liquid asset table.
type AssetRecord struct {
	Type             string  `json:"type"`
	Balance          float64 `json:"balance"`
	OwnershipPercent float64 `json:"ownership_percent"`
	Coefficient      float64 `json:"coefficient"`
}

// AdjustedBalance is Balance × OwnershipPercent × Coefficient / 100.
func (a AssetRecord) AdjustedBalance() float64 {
	return a.Balance * a.OwnershipPercent * a.Coefficient / 100
}

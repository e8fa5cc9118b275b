// Package models defines the data structures for the homeport qualifier.
package models

import "strings"

// REOPropertyRecord is one row of the real-estate-owned table.
type REOPropertyRecord struct {
	Address           string  `json:"address"`
	ZillowValue       float64 `json:"zillow_value"`
	OwnershipPercent  float64 `json:"ownership_percent"`
	MonthlyPI         float64 `json:"monthly_pi"`
	MonthlyTax        float64 `json:"monthly_tax"`
	MonthlyIns        float64 `json:"monthly_ins"`
	MonthlyHOA        float64 `json:"monthly_hoa"`
	MonthlySolar      float64 `json:"monthly_solar"`
	MonthlyMI         float64 `json:"monthly_mi"`
	IsSubjectProperty bool    `json:"is_subject_property"`
}

// OwnedValue is ZillowValue × OwnershipPercent / 100.
func (r REOPropertyRecord) OwnedValue() float64 {
	return r.ZillowValue * r.OwnershipPercent / 100
}

// PITIA sums principal, interest, tax, insurance and HOA dues.
func (r REOPropertyRecord) PITIA() float64 {
	return r.MonthlyPI + r.MonthlyTax + r.MonthlyIns + r.MonthlyHOA
}

// PITIASM is PITIA plus solar and mortgage insurance.
func (r REOPropertyRecord) PITIASM() float64 {
	return r.PITIA() + r.MonthlySolar + r.MonthlyMI
}

// NormalizeSubjectAddress trims and lower-cases an address for matching.
func NormalizeSubjectAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// MatchesSubject reports whether address contains the subject address as a
// case-insensitive literal substring. An empty subject matches everything.
func MatchesSubject(address, subject string) bool {
	return strings.Contains(strings.ToLower(address), NormalizeSubjectAddress(subject))
}

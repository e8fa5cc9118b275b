// Package models defines the data structures for the homeport qualifier.
package models

import (
	"errors"
	"strings"
)

// Common errors
var (
	ErrWorkbookNotFound = errors.New("workbook not found")
	ErrWorkbookFormat   = errors.New("invalid workbook format")
	ErrInvalidLocation  = errors.New("invalid cell location")
	ErrEmptyLayout      = errors.New("layout has no sheet name")
	ErrRunNotFound      = errors.New("qualification run not found")
	ErrAuditDisabled    = errors.New("run audit log is not configured")
)

// ValidateLayout checks that every location in the layout is a well-formed
// cell address or range. It does not touch any workbook.
func ValidateLayout(l *Layout) error {
	if strings.TrimSpace(l.SheetName) == "" {
		return ErrEmptyLayout
	}

	for _, loc := range l.BasicInfo {
		if !isValidLocation(loc.Location) {
			return &LocationError{Field: loc.Field, Location: loc.Location}
		}
	}

	tables := map[string]string{
		"asset_table": l.AssetTable,
		"gift_table":  l.GiftTable,
		"reo_table":   l.REOTable,
		"debt_table":  l.DebtTable,
	}
	for name, rng := range tables {
		if !isValidLocation(rng) {
			return &LocationError{Field: name, Location: rng}
		}
	}

	return nil
}

// LocationError reports a malformed address in a layout.
type LocationError struct {
	Field    string
	Location string
}

func (e *LocationError) Error() string {
	return "invalid location " + `"` + e.Location + `"` + " for " + e.Field
}

func (e *LocationError) Unwrap() error {
	return ErrInvalidLocation
}

// isValidLocation performs a syntactic check of "A1" or "A1:C5".
func isValidLocation(loc string) bool {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return false
	}

	parts := strings.Split(loc, ":")
	if len(parts) > 2 {
		return false
	}
	for _, p := range parts {
		if !isCellName(p) {
			return false
		}
	}
	return true
}

// isCellName accepts A1 and absolute $A$1 references.
func isCellName(s string) bool {
	s = strings.ReplaceAll(s, "$", "")
	i := 0
	for i < len(s) && ((s[i] >= 'A' && s[i] <= 'Z') || (s[i] >= 'a' && s[i] <= 'z')) {
		i++
	}
	if i == 0 || i > 3 || i == len(s) {
		return false
	}
	if s[i] == '0' {
		return false
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

package service

import (
	"errors"
	"strings"
)

// ValidRow is a raw CSV row that passed validation.
// Description is absent when the column was missing or blank.
type ValidRow struct {
	SKU         string
	Name        string
	Description *string
}

// ErrMissingRequired is the rejection reason for rows without a usable sku
// or name. The message is part of the job error contract, keep it stable.
var ErrMissingRequired = errors.New("Missing sku or name")

// ValidateRow checks one raw row (header column → cell value).
// Pure: no I/O, no side effects, never panics on string input.
func ValidateRow(raw map[string]string) (ValidRow, error) {
	sku := strings.TrimSpace(raw["sku"])
	name := strings.TrimSpace(raw["name"])

	if sku == "" || name == "" {
		return ValidRow{}, ErrMissingRequired
	}

	row := ValidRow{
		SKU:  sku,
		Name: name,
	}

	if desc := strings.TrimSpace(raw["description"]); desc != "" {
		row.Description = &desc
	}

	return row, nil
}

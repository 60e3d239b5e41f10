package model

import (
	"strings"
	"time"
)

// Product represents one SKU's current catalog state.
// SKU keeps the original casing for display; SKUNorm is the uniqueness key.
type Product struct {
	ID          int64     `json:"id" db:"id"`
	SKU         string    `json:"sku" db:"sku"`
	SKUNorm     string    `json:"-" db:"sku_norm"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// NormalizeSKU derives the uniqueness key for a SKU: trimmed and lowercased.
// This is the only place the derivation lives; it is idempotent.
func NormalizeSKU(sku string) string {
	return strings.ToLower(strings.TrimSpace(sku))
}

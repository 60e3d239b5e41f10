package model

import "errors"

var (
	// ErrProductNotFound is returned when a product lookup misses.
	ErrProductNotFound = errors.New("product not found")

	// ErrSKUConflict is returned when a create collides on the normalized SKU.
	ErrSKUConflict = errors.New("product with this SKU already exists")
)

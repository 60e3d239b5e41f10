package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CreateProductRequest is the body of POST /products.
type CreateProductRequest struct {
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (r CreateProductRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SKU, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Name, validation.Required, validation.Length(1, 500)),
	)
}

// UpdateProductRequest is the body of PUT /products/:id. All fields optional.
type UpdateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (r UpdateProductRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 500)),
	)
}

// ListProductsFilter carries pagination and partial-match filters.
type ListProductsFilter struct {
	SKU         string
	Name        string
	Description string
	Limit       int
	Offset      int
}

// Normalize clamps pagination to the supported range (limit 1..100).
func (f *ListProductsFilter) Normalize() {
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

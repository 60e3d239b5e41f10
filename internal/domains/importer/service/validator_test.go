package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRow(t *testing.T) {
	t.Run("valid row with description", func(t *testing.T) {
		row, err := ValidateRow(map[string]string{
			"sku":         " PROD-001 ",
			"name":        "Product 1",
			"description": "First",
		})
		require.NoError(t, err)
		assert.Equal(t, "PROD-001", row.SKU)
		assert.Equal(t, "Product 1", row.Name)
		require.NotNil(t, row.Description)
		assert.Equal(t, "First", *row.Description)
	})

	t.Run("blank description becomes absent", func(t *testing.T) {
		row, err := ValidateRow(map[string]string{
			"sku":         "PROD-001",
			"name":        "Product 1",
			"description": "   ",
		})
		require.NoError(t, err)
		assert.Nil(t, row.Description)
	})

	t.Run("missing description column becomes absent", func(t *testing.T) {
		row, err := ValidateRow(map[string]string{
			"sku":  "PROD-001",
			"name": "Product 1",
		})
		require.NoError(t, err)
		assert.Nil(t, row.Description)
	})

	t.Run("empty sku rejected", func(t *testing.T) {
		_, err := ValidateRow(map[string]string{
			"sku":  "   ",
			"name": "Product 1",
		})
		require.Error(t, err)
		assert.Equal(t, "Missing sku or name", err.Error())
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := ValidateRow(map[string]string{
			"sku":  "PROD-001",
			"name": "",
		})
		require.ErrorIs(t, err, ErrMissingRequired)
	})
}

package internal

import (
	"testing"

	"payfast/entity"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{10, "10.00"},
		{10.5, "10.50"},
		{0, "0.00"},
		{1234.567, "1234.57"},
		{0.1 + 0.2, "0.30"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.amount))
	}
}

func TestAdditionalHandlingFee(t *testing.T) {
	tests := []struct {
		name     string
		subtotal float64
		settings entity.Settings
		want     float64
	}{
		{"no fee", 100, entity.Settings{}, 0},
		{"negative fee", 100, entity.Settings{AdditionalFee: -5}, 0},
		{"fixed fee", 100, entity.Settings{AdditionalFee: 5}, 5},
		{"fixed fee ignores subtotal", 0, entity.Settings{AdditionalFee: 5}, 5},
		{"percentage", 200, entity.Settings{AdditionalFee: 2.5, AdditionalFeePercentage: true}, 5},
		{"percentage rounded", 33.33, entity.Settings{AdditionalFee: 3, AdditionalFeePercentage: true}, 1},
		{"percentage of nothing", 0, entity.Settings{AdditionalFee: 3, AdditionalFeePercentage: true}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AdditionalHandlingFee(tt.subtotal, tt.settings), 0.0001)
		})
	}
}

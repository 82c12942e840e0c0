package internal

import (
	"math"
	"strconv"

	"payfast/entity"
)

// FormatAmount renders an amount with exactly two decimals and a '.'
// separator, whatever the host locale.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// AdditionalHandlingFee returns the fee charged on top of the order for
// paying with PayFast. A percentage fee is taken from the subtotal.
func AdditionalHandlingFee(subtotal float64, settings entity.Settings) float64 {
	if settings.AdditionalFee <= 0 {
		return 0
	}
	if !settings.AdditionalFeePercentage {
		return settings.AdditionalFee
	}
	fee := roundAmount(subtotal * settings.AdditionalFee / 100)
	if fee < 0 {
		return 0
	}
	return fee
}

func roundAmount(amount float64) float64 {
	return math.Round(amount*100) / 100
}

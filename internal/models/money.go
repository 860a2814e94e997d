package models

import "github.com/shopspring/decimal"

// MoneyTolerance is the epsilon used when deciding whether a payment covers a total
const MoneyTolerance = 0.001

// DecompositionTolerance bounds rounding drift when checking total = taxable + tax + delivery
const DecompositionTolerance = 0.01

// RoundMoney rounds to two decimal places, half away from zero
func RoundMoney(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// FormatMoney renders an amount with two decimals
func FormatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// MoneyCovers returns true if paid covers total within MoneyTolerance
func MoneyCovers(paid, total float64) bool {
	return total-paid <= MoneyTolerance
}

// MoneyEqual compares two amounts within the given tolerance
func MoneyEqual(a, b, tolerance float64) bool {
	d := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Abs()
	return d.LessThanOrEqual(decimal.NewFromFloat(tolerance))
}

package quotes

import "github.com/shopspring/decimal"

var (
	taxRate   = decimal.RequireFromString("0.19")
	grossRate = decimal.RequireFromString("1.19")
	half      = decimal.RequireFromString("0.5")
)

// Totals are the amounts shown for a quote.
type Totals struct {
	Net   decimal.Decimal
	Tax   decimal.Decimal
	Gross decimal.Decimal
}

// ComputeTotals derives tax and gross from net. Tax and gross are rounded to
// whole currency units independently, so Net+Tax may differ from Gross by one.
func ComputeTotals(net decimal.Decimal) Totals {
	return Totals{
		Net:   net,
		Tax:   roundHalfUp(net.Mul(taxRate)),
		Gross: roundHalfUp(net.Mul(grossRate)),
	}
}

// roundHalfUp rounds to the nearest integer with halves going towards +Inf.
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

package auctionapi

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// currencyDecimals is the shift between ledger micro-units and display
// units: 1 display unit = 1_000_000 micro-units.
const currencyDecimals int32 = 6

// FormatAmount renders a micro-unit amount in display units, e.g.
// 1_100_000 -> "1.1". Uses decimal arithmetic so rendering is exact.
func FormatAmount(microUnits uint64) string {
	return decimal.NewFromUint64(microUnits).
		Shift(-currencyDecimals).
		String()
}

// ParseAmount parses a display-unit amount into micro-units. Amounts with
// more than six decimal places or outside the uint64 range are rejected.
func ParseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	shifted := d.Shift(currencyDecimals)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", s, currencyDecimals)
	}
	if shifted.IsNegative() {
		return 0, fmt.Errorf("amount %q is negative", s)
	}
	if !shifted.BigInt().IsUint64() {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return shifted.BigInt().Uint64(), nil
}

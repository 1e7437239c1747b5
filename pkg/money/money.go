package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// DefaultDecimalPlaces is used for any currency missing from the precision table
	DefaultDecimalPlaces int32 = 2

	minDecimalPlaces int32 = 0
	maxDecimalPlaces int32 = 4
)

// PrecisionLookup resolves the number of minor-unit decimal places for a currency code
type PrecisionLookup interface {
	DecimalPlaces(currency string) int32
}

// PrecisionTable is a static currency → decimal places mapping
// Currencies not present fall back to DefaultDecimalPlaces
type PrecisionTable map[string]int32

// DefaultPrecision covers the ISO 4217 currencies whose minor unit is not 2
var DefaultPrecision = PrecisionTable{
	// Zero-decimal currencies (amounts stay in major units)
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0, "KRW": 0,
	"PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0, "XOF": 0, "XPF": 0,

	// Three-decimal currencies
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,

	// Four-decimal units of account
	"CLF": 4, "UYW": 4,
}

// DecimalPlaces implements PrecisionLookup
func (t PrecisionTable) DecimalPlaces(currency string) int32 {
	if places, ok := t[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return clampPlaces(places)
	}
	return DefaultDecimalPlaces
}

// ToMinorUnits converts a decimal amount to integer minor units
// Rounds half away from zero: 10.005 USD -> 1001
func ToMinorUnits(amount decimal.Decimal, places int32) int64 {
	places = clampPlaces(places)
	return amount.Shift(places).Round(0).IntPart()
}

// ToDecimal converts integer minor units back to a decimal amount
func ToDecimal(minorUnits int64, places int32) decimal.Decimal {
	return decimal.New(minorUnits, -clampPlaces(places))
}

// Abs returns |amount| in minor units
func Abs(amount decimal.Decimal, places int32) int64 {
	return ToMinorUnits(amount.Abs(), places)
}

func clampPlaces(places int32) int32 {
	if places < minDecimalPlaces {
		return minDecimalPlaces
	}
	if places > maxDecimalPlaces {
		return maxDecimalPlaces
	}
	return places
}

package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// zeroDecimalCurrencies are charged in whole units rather than cents.
var zeroDecimalCurrencies = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {}, "kmf": {}, "krw": {}, "mga": {},
	"pyg": {}, "rwf": {}, "ugx": {}, "vnd": {}, "vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
}

// MajorUnits converts an amount in minor units to a decimal in major units.
func MajorUnits(amount int64, currency string) decimal.Decimal {
	if _, ok := zeroDecimalCurrencies[strings.ToLower(currency)]; ok {
		return decimal.NewFromInt(amount)
	}
	return decimal.New(amount, -2)
}

// FormatAmount renders amount for logs and event payloads, e.g. "6.99 USD".
func FormatAmount(amount int64, currency string) string {
	d := MajorUnits(amount, currency)
	places := int32(2)
	if _, ok := zeroDecimalCurrencies[strings.ToLower(currency)]; ok {
		places = 0
	}
	return d.StringFixed(places) + " " + strings.ToUpper(currency)
}

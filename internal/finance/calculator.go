// Package finance computes the derived financial fields of a variant.
// Every function is total: bad input degrades to Unavailable.
package finance

import (
	"math"
	"strconv"
	"strings"
)

// Unavailable is the token rendered for any value that cannot be computed.
const Unavailable = "unavailable"

// ProfitAndMargin returns price-cost and 100*profit/price, both to 2 decimals
// with the margin suffixed by "%".
func ProfitAndMargin(cost, price string) (profit, margin string) {
	c, ok := parseAmount(cost)
	if !ok {
		return Unavailable, Unavailable
	}
	p, ok := parseAmount(price)
	if !ok {
		return Unavailable, Unavailable
	}

	diff := p - c
	return format(diff), format(100*diff/p) + "%"
}

// Markup returns price/cost to 2 decimals.
func Markup(cost, price string) string {
	c, ok := parseAmount(cost)
	if !ok {
		return Unavailable
	}
	p, ok := parseAmount(price)
	if !ok {
		return Unavailable
	}
	return format(p / c)
}

// Financials bundles the derived fields for one cost/price pair.
type Financials struct {
	Profit string `json:"profit"`
	Margin string `json:"margin"`
	Markup string `json:"markup"`
}

func Compute(cost, price string) Financials {
	profit, margin := ProfitAndMargin(cost, price)
	return Financials{
		Profit: profit,
		Margin: margin,
		Markup: Markup(cost, price),
	}
}

// parseAmount accepts plain decimals, optionally with a leading "$" and
// thousands separators. Zero, NaN and infinities are rejected.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
		return 0, false
	}
	return v, true
}

func format(v float64) string {
	out := strconv.FormatFloat(v, 'f', 2, 64)
	if out == "-0.00" {
		return "0.00"
	}
	return out
}

// FormatAmount renders a catalog amount to 2 decimals. ok is false when the
// amount is absent or non-numeric; zero is a valid amount here.
func FormatAmount(s string) (string, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return "", false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}
	return format(v), true
}

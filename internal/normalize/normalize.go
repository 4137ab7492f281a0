// Package normalize converts extracted amounts into home-currency rubles.
package normalize

import (
	"math"

	"github.com/project-tktt/salary-pulse/internal/domain"
)

// Rates provides a same-day conversion rate into rubles for an ISO code.
// A missing rate means the lookup was unavailable for this run.
type Rates interface {
	Rate(code string) (float64, bool)
}

// Amount converts an amount in the given currency into whole rubles.
// Ruble and glyph-less amounts pass through unchanged, as does any amount
// whose rate is unavailable. Converted amounts are rounded to the nearest
// thousand; ties round half away from zero (math.Round), which is the
// rounding rule this dataset is pinned to.
func Amount(amount float64, currency domain.Currency, rates Rates) int {
	if code := currency.Code(); code != "" && rates != nil {
		if rate, ok := rates.Rate(code); ok {
			return int(math.Round(amount*rate/1000)) * 1000
		}
	}
	return int(math.Round(amount))
}

// BonusFromPercent derives a bonus amount from a percentage of the base
// salary, converted with the rate of the currency the salary was denominated
// in. The result is always rounded to the nearest thousand; an unavailable
// rate degrades to no conversion.
func BonusFromPercent(percent, baseSalary int, salaryCurrency domain.Currency, rates Rates) int {
	value := float64(percent) * float64(baseSalary) / 100
	rate := 1.0
	if code := salaryCurrency.Code(); code != "" && rates != nil {
		if r, ok := rates.Rate(code); ok {
			rate = r
		}
	}
	return int(math.Round(value*rate/1000)) * 1000
}

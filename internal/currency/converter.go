// Package currency converts amounts between currency codes using a
// same-base exchange-rate table.
package currency

import (
	"errors"
	"fmt"
)

// ErrRateUnavailable is returned when no exchange rate is known for a
// currency involved in a conversion.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// Convert converts amount from one currency code to another. Rates are
// expressed relative to a single implicit base currency: rates[code] is the
// number of units of code per one unit of base.
//
// When from and to are equal the amount is returned unchanged, with no
// floating-point operation performed. A missing or non-positive rate is an
// error; the unconverted amount is never returned silently.
func Convert(amount float64, from, to string, rates map[string]float64) (float64, error) {
	if from == to {
		return amount, nil
	}

	fromRate, ok := rates[from]
	if !ok || fromRate <= 0 {
		return 0, fmt.Errorf("%w: no rate for %s", ErrRateUnavailable, from)
	}
	toRate, ok := rates[to]
	if !ok || toRate <= 0 {
		return 0, fmt.Errorf("%w: no rate for %s", ErrRateUnavailable, to)
	}

	amountInBase := amount / fromRate
	return amountInBase * toRate, nil
}

package plans

import (
	"errors"
	"time"
)

var ErrUnknownPrice = errors.New("unknown price id")

// PriceCatalog classifies Stripe price ids into billing periods.
type PriceCatalog struct {
	YearlyPriceID  string
	MonthlyPriceID string
}

// PeriodFor returns the billing period a recurring price id belongs to.
func (c PriceCatalog) PeriodFor(priceID string) (Period, error) {
	switch {
	case priceID == "":
		return "", ErrUnknownPrice
	case priceID == c.YearlyPriceID:
		return Yearly, nil
	case priceID == c.MonthlyPriceID:
		return Monthly, nil
	default:
		return "", ErrUnknownPrice
	}
}

// EndDate adds one billing period to start.
func (p Period) EndDate(start time.Time) time.Time {
	if p == Yearly {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

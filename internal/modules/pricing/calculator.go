package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"venuebook/internal/domain"
	"venuebook/internal/modules/errclass"
)

const minorUnits = 2

var nanosPerHour = decimal.NewFromInt(int64(time.Hour))

// SpaceTotal returns rate × hours(end-start), rounded to the currency minor
// unit. Fractional hours are priced pro rata.
func SpaceTotal(ratePerHour decimal.Decimal, start, end time.Time) (decimal.Decimal, error) {
	if !end.After(start) {
		return decimal.Zero, errclass.Validationf("end must be after start")
	}
	if ratePerHour.IsNegative() {
		return decimal.Zero, errclass.Validationf("rate must not be negative")
	}
	nanos := decimal.NewFromInt(int64(end.Sub(start)))
	return ratePerHour.Mul(nanos).Div(nanosPerHour).Round(minorUnits), nil
}

// ResourceTotal prices an interval on a resource according to its rate kind.
func ResourceTotal(res *domain.Resource, start, end time.Time) (decimal.Decimal, error) {
	switch res.RateKind {
	case domain.RateHourly:
		return SpaceTotal(res.Rate, start, end)
	case domain.RateFlat:
		if !end.After(start) {
			return decimal.Zero, errclass.Validationf("end must be after start")
		}
		if res.Rate.IsNegative() {
			return decimal.Zero, errclass.Validationf("rate must not be negative")
		}
		return res.Rate.Round(minorUnits), nil
	}
	return decimal.Zero, errclass.Validationf("unknown rate kind %q", res.RateKind)
}

type OrderInput struct {
	Items       []domain.OrderItem
	Discount    decimal.Decimal
	TaxRate     decimal.Decimal
	TaxRequired bool
}

type OrderTotals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Discount  decimal.Decimal `json:"discount"`
	TaxAmount decimal.Decimal `json:"tax_amount"`
	Total     decimal.Decimal `json:"total"`
}

// ComputeOrder totals a service order as subtotal - discount + tax. Tax is
// levied on the undiscounted subtotal. The total is not clamped: a discount
// larger than subtotal+tax yields a negative total (a credit).
func ComputeOrder(in OrderInput) OrderTotals {
	subtotal := decimal.Zero
	for _, it := range in.Items {
		subtotal = subtotal.Add(it.Quantity.Mul(it.UnitPrice))
	}
	subtotal = subtotal.Round(minorUnits)

	tax := decimal.Zero
	if in.TaxRequired {
		tax = subtotal.Mul(in.TaxRate).Round(minorUnits)
	}

	discount := in.Discount.Round(minorUnits)
	return OrderTotals{
		Subtotal:  subtotal,
		Discount:  discount,
		TaxAmount: tax,
		Total:     subtotal.Sub(discount).Add(tax),
	}
}

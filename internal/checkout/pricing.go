package checkout

import "github.com/shopspring/decimal"

type Totals struct {
	CartTotal   decimal.Decimal
	DeliveryFee *decimal.Decimal // nil for pickup
	TotalAmount decimal.Decimal
}

// CalculateTotals sums the cart's snapshot prices and applies the delivery
// surcharge when the total is under the configured minimum. Deterministic,
// no I/O.
func CalculateTotals(items []CartItem, ft FulfillmentType, minTotal, underMinFee decimal.Decimal) Totals {
	cartTotal := decimal.Zero
	for _, it := range items {
		cartTotal = cartTotal.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	var fee *decimal.Decimal
	if ft == FulfillmentDelivery {
		f := decimal.Zero
		if cartTotal.LessThan(minTotal) {
			f = underMinFee
		}
		fee = &f
	}

	total := cartTotal
	if fee != nil {
		total = total.Add(*fee)
	}
	return Totals{CartTotal: cartTotal, DeliveryFee: fee, TotalAmount: total}
}

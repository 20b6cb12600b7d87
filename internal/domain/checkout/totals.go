package checkout

import "github.com/shopspring/decimal"

// recalculateTotals rebuilds the derived totals from scratch
// It is a pure function of the current items, coupon and shipping
// method, never incremental, so re-running it is always safe
func (s *State) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range s.Items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	discount := decimal.Zero
	if s.AppliedCoupon != nil {
		discount = s.AppliedCoupon.CalculatedDiscount
	}

	// Free shipping is an entitlement, not a choice: the threshold
	// forces the method in both directions
	shipping := decimal.Zero
	if subtotal.GreaterThanOrEqual(s.pricing.FreeShippingMin) {
		s.ShippingMethod = ShippingFree
	} else {
		s.ShippingMethod = ShippingStandard
		shipping = s.pricing.StandardShippingCost
	}

	grandTotal := subtotal.Sub(discount).Add(shipping)

	s.Totals = Totals{
		Subtotal:   subtotal,
		Shipping:   shipping,
		Discount:   discount,
		GrandTotal: grandTotal,
		// Informational display figure; already contained in the total
		TaxIncluded: grandTotal.Mul(s.pricing.TaxRate),
	}
}

package orders

import "github.com/shopspring/decimal"

// TaxRate is the VAT applied to every order subtotal.
var TaxRate = decimal.RequireFromString("0.18")

// RecalculateTotals derives subtotal, tax and total from the current items.
// It is the only writer of those three fields.
func (o *Order) RecalculateTotals() {
	subtotal := decimal.Zero
	for _, it := range o.Items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	o.Subtotal = subtotal.Round(2)
	o.Tax = o.Subtotal.Mul(TaxRate).Round(2)
	o.Total = o.Subtotal.Add(o.Tax)
}

// IsEditable reports whether items and notes may still change.
func (o *Order) IsEditable() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

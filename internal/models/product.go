package models

import "github.com/shopspring/decimal"

// Product is a catalog item snapshot copied into a cart when it is added.
// Everything except Quantity stays as it was at add-time.
type Product struct {
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	PriceOriginal decimal.Decimal `json:"priceOriginal"`
	PriceCurrent  decimal.Decimal `json:"priceCurrent"`
	Quantity      int             `json:"quantity"`
}

// NewProduct builds a product snapshot. The quantity is not checked here;
// the cart rejects non-positive quantities when the product is inserted.
func NewProduct(code, description string, priceOriginal, priceCurrent decimal.Decimal, quantity int) Product {
	return Product{
		Code:          code,
		Description:   description,
		PriceOriginal: priceOriginal,
		PriceCurrent:  priceCurrent,
		Quantity:      quantity,
	}
}

// SetQuantity replaces the quantity. Non-positive values are rejected and
// leave the product untouched.
func (p *Product) SetQuantity(quantity int) error {
	if quantity <= 0 {
		return &ValidationError{Field: "quantity", Value: quantity, Reason: "must be positive"}
	}
	p.Quantity = quantity
	return nil
}

// LineTotal is quantity * current price.
func (p Product) LineTotal() decimal.Decimal {
	return p.PriceCurrent.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

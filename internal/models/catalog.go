package models

import "github.com/shopspring/decimal"

// CatalogProduct is a product as the catalog stores it. Stock is
// informational; carts never reserve it.
type CatalogProduct struct {
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	PriceOriginal decimal.Decimal `json:"priceOriginal"`
	PriceCurrent  decimal.Decimal `json:"priceCurrent"`
	Stock         int             `json:"stock"`
}

// Snapshot copies the catalog entry into a single-unit cart line.
func (p CatalogProduct) Snapshot() Product {
	return NewProduct(p.Code, p.Description, p.PriceOriginal, p.PriceCurrent, 1)
}

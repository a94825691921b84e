package models

import "github.com/shopspring/decimal"

// Coupon is a flat-value discount. Validity is decided by whoever resolves
// the coupon before handing it to a cart.
type Coupon struct {
	Code  string          `json:"code"`
	Value decimal.Decimal `json:"value"`
}

func NewCoupon(code string, value decimal.Decimal) Coupon {
	return Coupon{Code: code, Value: value}
}

// Equal reports whether both coupons carry the same code and value.
func (c Coupon) Equal(other Coupon) bool {
	return c.Code == other.Code && c.Value.Equal(other.Value)
}

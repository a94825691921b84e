package models

import (
	"errors"
	"fmt"
)

// Resource names used by NotFoundError.
const (
	ResourceCart        = "cart"
	ResourceCartProduct = "cart_product"
	ResourceProduct     = "product"
	ResourceCoupon      = "coupon"
)

// ValidationError reports a rejected input value.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == nil || e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// NotFoundError reports a missing cart, cart line, catalog product or coupon.
type NotFoundError struct {
	Resource string
	Code     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Code)
}

// IsNotFound reports whether err wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

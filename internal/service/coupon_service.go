package service

import (
	"context"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/coupon"
	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/models"
)

// CouponValidator decides whether a known coupon may currently be applied.
type CouponValidator interface {
	IsValid(ctx context.Context, code string) bool
}

// CouponLookup resolves a coupon code to its discount.
type CouponLookup interface {
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// CouponStatus is a resolved coupon together with its current validity.
type CouponStatus struct {
	Coupon models.Coupon `json:"coupon"`
	Valid  bool          `json:"valid"`
}

// CouponService resolves coupons and reports whether they can be applied.
type CouponService struct {
	coupons   CouponLookup
	validator CouponValidator
}

// NewCouponService creates a coupon service. A nil validator accepts every
// known coupon.
func NewCouponService(coupons CouponLookup, validator CouponValidator) *CouponService {
	if validator == nil {
		validator = coupon.AllowAll{}
	}
	return &CouponService{coupons: coupons, validator: validator}
}

// Check looks code up and evaluates its validity.
func (s *CouponService) Check(ctx context.Context, code string) (CouponStatus, error) {
	cp, err := s.resolve(ctx, code)
	if err != nil {
		return CouponStatus{}, err
	}
	return CouponStatus{Coupon: *cp, Valid: s.validator.IsValid(ctx, code)}, nil
}

// Resolve returns the coupon for code, failing with a ValidationError when it
// exists but is not currently valid.
func (s *CouponService) Resolve(ctx context.Context, code string) (*models.Coupon, error) {
	cp, err := s.resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	if !s.validator.IsValid(ctx, code) {
		return nil, &models.ValidationError{Field: "coupon", Value: code, Reason: "is not valid"}
	}
	return cp, nil
}

func (s *CouponService) resolve(ctx context.Context, code string) (*models.Coupon, error) {
	if code == "" {
		return nil, &models.ValidationError{Field: "coupon", Value: code, Reason: "must not be empty"}
	}
	return s.coupons.GetByCode(ctx, code)
}

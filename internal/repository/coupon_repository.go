package repository

import (
	"context"
	"sort"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/models"
	"github.com/shopspring/decimal"
)

// CouponRepository resolves coupon codes to their discount.
type CouponRepository interface {
	GetAll(ctx context.Context) ([]models.Coupon, error)
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type InMemoryCouponRepository struct {
	coupons map[string]models.Coupon
}

// NewInMemoryCouponRepository creates a coupon store holding the given
// coupons, or VALE10 and BLACKFRIDAY15 when none are given.
func NewInMemoryCouponRepository(coupons ...models.Coupon) *InMemoryCouponRepository {
	if len(coupons) == 0 {
		coupons = []models.Coupon{
			models.NewCoupon("VALE10", decimal.NewFromInt(10)),
			models.NewCoupon("BLACKFRIDAY15", decimal.NewFromInt(15)),
		}
	}

	byCode := make(map[string]models.Coupon, len(coupons))
	for _, c := range coupons {
		byCode[c.Code] = c
	}
	return &InMemoryCouponRepository{coupons: byCode}
}

func (r *InMemoryCouponRepository) GetAll(ctx context.Context) ([]models.Coupon, error) {
	coupons := make([]models.Coupon, 0, len(r.coupons))
	for _, c := range r.coupons {
		coupons = append(coupons, c)
	}
	sort.Slice(coupons, func(i, j int) bool { return coupons[i].Code < coupons[j].Code })
	return coupons, nil
}

func (r *InMemoryCouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	c, ok := r.coupons[code]
	if !ok {
		return nil, &models.NotFoundError{Resource: models.ResourceCoupon, Code: code}
	}
	return &c, nil
}

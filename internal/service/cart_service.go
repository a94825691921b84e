package service

import (
	"context"
	"log/slog"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/metrics"
	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/repository"
)

// Cart operation names, used for logging and metrics.
const (
	OpCreate             = "create"
	OpGet                = "get"
	OpDelete             = "delete"
	OpSetCustomer        = "set_customer"
	OpAddProduct         = "product_add"
	OpRemoveProduct      = "product_remove"
	OpSetProductQuantity = "product_set_quantity"
	OpClear              = "clear"
	OpSetCoupon          = "coupon_set"
)

// ProductCatalog resolves a product code to its catalog entry.
type ProductCatalog interface {
	GetByCode(ctx context.Context, code string) (*models.CatalogProduct, error)
}

// CouponResolver returns an applicable coupon or the reason it is not.
type CouponResolver interface {
	Resolve(ctx context.Context, code string) (*models.Coupon, error)
}

// CartService orchestrates fetch, mutate and save for every cart operation.
// Mutations run inside CartRepository.Update, so concurrent requests for the
// same cart never lose each other's writes.
type CartService struct {
	carts    repository.CartRepository
	products ProductCatalog
	coupons  CouponResolver
	metrics  *metrics.CartMetrics
	logger   *slog.Logger
	cartOpts []models.CartOption
}

// CartServiceOption configures a CartService.
type CartServiceOption func(*CartService)

// WithCartMetrics records each operation's outcome.
func WithCartMetrics(m *metrics.CartMetrics) CartServiceOption {
	return func(s *CartService) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) CartServiceOption {
	return func(s *CartService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCartOptions applies opts to every cart the service creates.
func WithCartOptions(opts ...models.CartOption) CartServiceOption {
	return func(s *CartService) { s.cartOpts = append(s.cartOpts, opts...) }
}

// NewCartService creates a new cart service
func NewCartService(carts repository.CartRepository, products ProductCatalog, coupons CouponResolver, opts ...CartServiceOption) *CartService {
	s := &CartService{
		carts:    carts,
		products: products,
		coupons:  coupons,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts an empty cart. An empty customerID creates a guest cart.
func (s *CartService) Create(ctx context.Context, customerID string) (models.CartSnapshot, error) {
	cart := models.NewCart(customerID, s.cartOpts...)
	if err := s.carts.Save(ctx, cart); err != nil {
		return s.fail(ctx, OpCreate, cart.ID(), err)
	}
	return s.done(ctx, OpCreate, cart)
}

// Get returns the current snapshot of a cart.
func (s *CartService) Get(ctx context.Context, cartID string) (models.CartSnapshot, error) {
	if err := requireCartID(cartID); err != nil {
		return s.fail(ctx, OpGet, cartID, err)
	}
	cart, err := s.carts.Fetch(ctx, cartID)
	if err != nil {
		return s.fail(ctx, OpGet, cartID, err)
	}
	s.metrics.IncOperation(OpGet, metrics.OutcomeOK)
	return cart.Snapshot(), nil
}

// Delete removes a cart.
func (s *CartService) Delete(ctx context.Context, cartID string) error {
	if err := requireCartID(cartID); err != nil {
		_, err = s.fail(ctx, OpDelete, cartID, err)
		return err
	}
	if err := s.carts.Delete(ctx, cartID); err != nil {
		_, err = s.fail(ctx, OpDelete, cartID, err)
		return err
	}
	s.metrics.IncOperation(OpDelete, metrics.OutcomeOK)
	s.logger.DebugContext(ctx, "cart deleted", "cart_id", cartID)
	return nil
}

// SetCustomer replaces the cart's customer; an empty id makes it a guest cart.
func (s *CartService) SetCustomer(ctx context.Context, cartID, customerID string) (models.CartSnapshot, error) {
	return s.update(ctx, OpSetCustomer, cartID, func(c *models.Cart) error {
		c.SetCustomer(customerID)
		return nil
	})
}

// AddProduct adds one unit of a catalog product. The catalog entry is copied
// into the cart at this point; later catalog changes do not affect the line.
func (s *CartService) AddProduct(ctx context.Context, cartID, code string) (models.CartSnapshot, error) {
	if err := requireProductCode(code); err != nil {
		return s.fail(ctx, OpAddProduct, cartID, err)
	}
	return s.update(ctx, OpAddProduct, cartID, func(c *models.Cart) error {
		p, err := s.products.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		return c.AddProduct(p.Snapshot())
	})
}

// RemoveProduct drops a line. Removing a product that is not in the cart
// succeeds and changes nothing.
func (s *CartService) RemoveProduct(ctx context.Context, cartID, code string) (models.CartSnapshot, error) {
	if err := requireProductCode(code); err != nil {
		return s.fail(ctx, OpRemoveProduct, cartID, err)
	}
	return s.update(ctx, OpRemoveProduct, cartID, func(c *models.Cart) error {
		c.RemoveProduct(code)
		return nil
	})
}

// SetProductQuantity replaces the quantity of a line already in the cart.
func (s *CartService) SetProductQuantity(ctx context.Context, cartID, code string, quantity int) (models.CartSnapshot, error) {
	if err := requireProductCode(code); err != nil {
		return s.fail(ctx, OpSetProductQuantity, cartID, err)
	}
	return s.update(ctx, OpSetProductQuantity, cartID, func(c *models.Cart) error {
		return c.SetProductQuantity(code, quantity)
	})
}

// Clear removes every line. The coupon stays attached.
func (s *CartService) Clear(ctx context.Context, cartID string) (models.CartSnapshot, error) {
	return s.update(ctx, OpClear, cartID, func(c *models.Cart) error {
		c.ClearProducts()
		return nil
	})
}

// SetCoupon attaches the coupon for code, replacing any previous one. An
// empty code detaches the current coupon.
func (s *CartService) SetCoupon(ctx context.Context, cartID, code string) (models.CartSnapshot, error) {
	return s.update(ctx, OpSetCoupon, cartID, func(c *models.Cart) error {
		if code == "" {
			c.SetCoupon(nil)
			return nil
		}
		coupon, err := s.coupons.Resolve(ctx, code)
		if err != nil {
			return err
		}
		c.SetCoupon(coupon)
		return nil
	})
}

func (s *CartService) update(ctx context.Context, op, cartID string, fn func(*models.Cart) error) (models.CartSnapshot, error) {
	if err := requireCartID(cartID); err != nil {
		return s.fail(ctx, op, cartID, err)
	}
	cart, err := s.carts.Update(ctx, cartID, fn)
	if err != nil {
		return s.fail(ctx, op, cartID, err)
	}
	return s.done(ctx, op, cart)
}

func (s *CartService) done(ctx context.Context, op string, cart *models.Cart) (models.CartSnapshot, error) {
	snap := cart.Snapshot()
	s.metrics.IncOperation(op, metrics.OutcomeOK)
	s.logger.DebugContext(ctx, "cart updated",
		"operation", op,
		"cart_id", snap.ID,
		"items", len(snap.Items),
		"total", snap.Totals.Total.String(),
	)
	return snap, nil
}

func (s *CartService) fail(ctx context.Context, op, cartID string, err error) (models.CartSnapshot, error) {
	switch {
	case models.IsNotFound(err):
		s.metrics.IncOperation(op, metrics.OutcomeNotFound)
		s.logger.InfoContext(ctx, "cart operation rejected", "operation", op, "cart_id", cartID, "error", err)
	case models.IsValidation(err):
		s.metrics.IncOperation(op, metrics.OutcomeValidation)
		s.logger.InfoContext(ctx, "cart operation rejected", "operation", op, "cart_id", cartID, "error", err)
	default:
		s.metrics.IncOperation(op, metrics.OutcomeError)
		s.logger.ErrorContext(ctx, "cart operation failed", "operation", op, "cart_id", cartID, "error", err)
	}
	return models.CartSnapshot{}, err
}

func requireCartID(id string) error {
	if id == "" {
		return &models.ValidationError{Field: "cart", Value: id, Reason: "must not be empty"}
	}
	return nil
}

func requireProductCode(code string) error {
	if code == "" {
		return &models.ValidationError{Field: "product", Value: code, Reason: "must not be empty"}
	}
	return nil
}

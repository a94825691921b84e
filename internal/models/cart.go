package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Totals is derived from a cart's lines and coupon and is only ever
// recomputed by the cart itself.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Total    decimal.Decimal `json:"total"`
}

// CartSnapshot is a read-only projection of a cart. Repositories also use it
// as the persisted shape of a cart.
type CartSnapshot struct {
	ID             string    `json:"id"`
	CustomerID     string    `json:"customerId,omitempty"`
	LastModifiedAt time.Time `json:"lastModifiedAt"`
	Items          []Product `json:"items"`
	Coupon         *Coupon   `json:"coupon,omitempty"`
	Totals         Totals    `json:"totals"`
}

// Cart is the shopping cart aggregate. All state changes go through its
// methods; after any of them returns, Totals matches the lines and coupon.
//
// A Cart is not safe for concurrent use. Callers serialize access per cart id.
type Cart struct {
	id             string
	customerID     string
	lastModifiedAt time.Time
	items          map[string]*Product
	order          []string
	coupon         *Coupon
	totals         Totals
	now            func() time.Time
}

// CartOption configures a Cart on construction.
type CartOption func(*Cart)

// WithClock overrides the time source used for lastModifiedAt.
func WithClock(now func() time.Time) CartOption {
	return func(c *Cart) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCart creates an empty cart with a fresh UUID v4 id. An empty customerID
// means a guest cart.
func NewCart(customerID string, opts ...CartOption) *Cart {
	c := newCart(uuid.NewString(), customerID, opts)
	c.recalculate()
	c.touch()
	return c
}

// RestoreCart rebuilds a cart from a persisted snapshot. Totals in the
// snapshot are ignored and recomputed; lastModifiedAt is kept as stored.
func RestoreCart(s CartSnapshot, opts ...CartOption) (*Cart, error) {
	if s.ID == "" {
		return nil, &ValidationError{Field: "id", Value: s.ID, Reason: "must not be empty"}
	}
	c := newCart(s.ID, s.CustomerID, opts)
	for _, p := range s.Items {
		if p.Quantity <= 0 {
			return nil, &ValidationError{Field: "quantity", Value: p.Quantity, Reason: "must be positive"}
		}
		if _, dup := c.items[p.Code]; dup {
			return nil, &ValidationError{Field: "code", Value: p.Code, Reason: "duplicate line"}
		}
		line := p
		c.items[p.Code] = &line
		c.order = append(c.order, p.Code)
	}
	if s.Coupon != nil {
		cp := *s.Coupon
		c.coupon = &cp
	}
	c.lastModifiedAt = s.LastModifiedAt
	c.recalculate()
	return c, nil
}

func newCart(id, customerID string, opts []CartOption) *Cart {
	c := &Cart{
		id:         id,
		customerID: customerID,
		items:      make(map[string]*Product),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cart) ID() string                { return c.id }
func (c *Cart) CustomerID() string        { return c.customerID }
func (c *Cart) IsGuest() bool             { return c.customerID == "" }
func (c *Cart) LastModifiedAt() time.Time { return c.lastModifiedAt }
func (c *Cart) Totals() Totals            { return c.totals }
func (c *Cart) Len() int                  { return len(c.order) }

// Coupon returns a copy of the attached coupon, or nil.
func (c *Cart) Coupon() *Coupon {
	if c.coupon == nil {
		return nil
	}
	cp := *c.coupon
	return &cp
}

// Item returns a copy of the line for code.
func (c *Cart) Item(code string) (Product, bool) {
	p, ok := c.items[code]
	if !ok {
		return Product{}, false
	}
	return *p, true
}

// Items returns copies of all lines in insertion order.
func (c *Cart) Items() []Product {
	out := make([]Product, 0, len(c.order))
	for _, code := range c.order {
		out = append(out, *c.items[code])
	}
	return out
}

// SetCustomer replaces the customer id. An empty id turns the cart into a
// guest cart.
func (c *Cart) SetCustomer(customerID string) {
	c.customerID = customerID
	c.touch()
}

// AddProduct adds one unit of p. If a line for p.Code exists its quantity
// grows by one and p's own quantity is ignored; otherwise p becomes a new
// line with the quantity it carries, which must be positive.
func (c *Cart) AddProduct(p Product) error {
	if p.Code == "" {
		return &ValidationError{Field: "code", Value: p.Code, Reason: "must not be empty"}
	}
	if existing, ok := c.items[p.Code]; ok {
		existing.Quantity++
	} else {
		if p.Quantity <= 0 {
			return &ValidationError{Field: "quantity", Value: p.Quantity, Reason: "must be positive"}
		}
		line := p
		c.items[p.Code] = &line
		c.order = append(c.order, p.Code)
	}
	c.recalculate()
	c.touch()
	return nil
}

// RemoveProduct drops the line for code. Removing an absent code is a no-op
// and leaves the cart untouched, timestamp included.
func (c *Cart) RemoveProduct(code string) {
	if _, ok := c.items[code]; !ok {
		return
	}
	delete(c.items, code)
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == code })
	c.recalculate()
	c.touch()
}

// SetProductQuantity replaces the quantity of an existing line.
func (c *Cart) SetProductQuantity(code string, quantity int) error {
	if quantity <= 0 {
		return &ValidationError{Field: "quantity", Value: quantity, Reason: "must be positive"}
	}
	line, ok := c.items[code]
	if !ok {
		return &NotFoundError{Resource: ResourceCartProduct, Code: code}
	}
	if err := line.SetQuantity(quantity); err != nil {
		return err
	}
	c.recalculate()
	c.touch()
	return nil
}

// ClearProducts removes every line, even when the cart is already empty.
func (c *Cart) ClearProducts() {
	clear(c.items)
	c.order = c.order[:0]
	c.recalculate()
	c.touch()
}

// SetCoupon attaches coupon, replacing any previous one. A nil coupon
// detaches it.
func (c *Cart) SetCoupon(coupon *Coupon) {
	if coupon == nil {
		c.coupon = nil
	} else {
		cp := *coupon
		c.coupon = &cp
	}
	c.recalculate()
	c.touch()
}

// Snapshot returns a detached read-only view of the cart.
func (c *Cart) Snapshot() CartSnapshot {
	return CartSnapshot{
		ID:             c.id,
		CustomerID:     c.customerID,
		LastModifiedAt: c.lastModifiedAt,
		Items:          c.Items(),
		Coupon:         c.Coupon(),
		Totals:         c.totals,
	}
}

// recalculate rebuilds totals from scratch. The total is not clamped and goes
// negative when the coupon exceeds the subtotal.
func (c *Cart) recalculate() {
	subtotal := decimal.Zero
	for _, code := range c.order {
		subtotal = subtotal.Add(c.items[code].LineTotal())
	}
	total := subtotal
	if c.coupon != nil {
		total = total.Sub(c.coupon.Value)
	}
	c.totals = Totals{Subtotal: subtotal, Total: total}
}

// touch records the modification time at microsecond precision, which is
// what the SQL store keeps.
func (c *Cart) touch() {
	c.lastModifiedAt = c.now().UTC().Truncate(time.Microsecond)
}

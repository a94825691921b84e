package repository

import (
	"context"
	"sync"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/models"
)

// CartRepository stores carts by id. Fetch and Delete report a missing cart
// as *models.NotFoundError.
//
// Update is the read-modify-write path: it fetches the cart, applies fn and
// saves the result as one critical section per cart id. Nothing is saved when
// fn fails.
type CartRepository interface {
	Fetch(ctx context.Context, id string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, fn func(*models.Cart) error) (*models.Cart, error)
}

func cartNotFound(id string) error {
	return &models.NotFoundError{Resource: models.ResourceCart, Code: id}
}

// InMemoryCartRepository implements CartRepository with in-memory storage.
// Carts are stored as snapshots, so callers never share state with the store.
// Save, Delete and Update hold a per-cart lock; a lock entry lives only while
// some call holds or waits for it.
type InMemoryCartRepository struct {
	mu    sync.RWMutex
	carts map[string]models.CartSnapshot
	locks map[string]*cartLock
}

type cartLock struct {
	mu   sync.Mutex
	refs int
}

// NewInMemoryCartRepository creates an empty in-memory cart store
func NewInMemoryCartRepository() *InMemoryCartRepository {
	return &InMemoryCartRepository{
		carts: make(map[string]models.CartSnapshot),
		locks: make(map[string]*cartLock),
	}
}

func (r *InMemoryCartRepository) Fetch(ctx context.Context, id string) (*models.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	snap, ok := r.carts[id]
	r.mu.RUnlock()
	if !ok {
		return nil, cartNotFound(id)
	}
	return models.RestoreCart(snap)
}

func (r *InMemoryCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l := r.acquire(cart.ID())
	defer r.release(cart.ID(), l)
	r.store(cart)
	return nil
}

func (r *InMemoryCartRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l := r.acquire(id)
	defer r.release(id, l)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.carts[id]; !ok {
		return cartNotFound(id)
	}
	delete(r.carts, id)
	return nil
}

func (r *InMemoryCartRepository) Update(ctx context.Context, id string, fn func(*models.Cart) error) (*models.Cart, error) {
	l := r.acquire(id)
	defer r.release(id, l)

	cart, err := r.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store(cart)
	return cart, nil
}

// Len returns the number of stored carts.
func (r *InMemoryCartRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.carts)
}

func (r *InMemoryCartRepository) store(cart *models.Cart) {
	snap := cart.Snapshot()
	r.mu.Lock()
	r.carts[snap.ID] = snap
	r.mu.Unlock()
}

// acquire locks the cart id, creating the lock entry on first use.
func (r *InMemoryCartRepository) acquire(id string) *cartLock {
	r.mu.Lock()
	l, ok := r.locks[id]
	if !ok {
		l = &cartLock{}
		r.locks[id] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return l
}

// release unlocks the cart id and drops the entry once no caller holds or
// waits for it.
func (r *InMemoryCartRepository) release(id string, l *cartLock) {
	l.mu.Unlock()

	r.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(r.locks, id)
	}
	r.mu.Unlock()
}

package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded goose migrations to the database behind pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// PostgresCartRepository implements CartRepository on PostgreSQL.
// Update locks the cart row with SELECT ... FOR UPDATE for the duration of
// the transaction.
type PostgresCartRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresCartRepository(pool *pgxpool.Pool) *PostgresCartRepository {
	return &PostgresCartRepository{pool: pool}
}

func (r *PostgresCartRepository) Fetch(ctx context.Context, id string) (*models.Cart, error) {
	snap, err := loadCart(ctx, r.pool, id, false)
	if err != nil {
		return nil, err
	}
	return models.RestoreCart(snap)
}

func (r *PostgresCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	snap := cart.Snapshot()
	_, err := withTx(ctx, r.pool, func(q querier) (struct{}, error) {
		return struct{}{}, storeCart(ctx, q, snap)
	})
	return err
}

func (r *PostgresCartRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cartNotFound(id)
	}
	return nil
}

func (r *PostgresCartRepository) Update(ctx context.Context, id string, fn func(*models.Cart) error) (*models.Cart, error) {
	return withTx(ctx, r.pool, func(q querier) (*models.Cart, error) {
		snap, err := loadCart(ctx, q, id, true)
		if err != nil {
			return nil, err
		}
		cart, err := models.RestoreCart(snap)
		if err != nil {
			return nil, fmt.Errorf("restore cart %s: %w", id, err)
		}
		if err := fn(cart); err != nil {
			return nil, err
		}
		if err := storeCart(ctx, q, cart.Snapshot()); err != nil {
			return nil, err
		}
		return cart, nil
	})
}

func loadCart(ctx context.Context, q querier, id string, forUpdate bool) (models.CartSnapshot, error) {
	query := `SELECT id, customer_id, coupon_code, coupon_value::text, last_modified_at FROM carts WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var (
		snap        models.CartSnapshot
		couponCode  *string
		couponValue *string
		modifiedAt  time.Time
	)
	err := q.QueryRow(ctx, query, id).Scan(&snap.ID, &snap.CustomerID, &couponCode, &couponValue, &modifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.CartSnapshot{}, cartNotFound(id)
		}
		return models.CartSnapshot{}, fmt.Errorf("select cart: %w", err)
	}
	snap.LastModifiedAt = modifiedAt.UTC()

	if couponCode != nil {
		value, err := parseDecimal(couponValue)
		if err != nil {
			return models.CartSnapshot{}, fmt.Errorf("coupon value: %w", err)
		}
		c := models.NewCoupon(*couponCode, value)
		snap.Coupon = &c
	}

	rows, err := q.Query(ctx, `
SELECT code, description, price_original::text, price_current::text, quantity
FROM cart_items
WHERE cart_id = $1
ORDER BY position`, id)
	if err != nil {
		return models.CartSnapshot{}, fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p                       models.Product
			priceOriginal, priceCur string
		)
		if err := rows.Scan(&p.Code, &p.Description, &priceOriginal, &priceCur, &p.Quantity); err != nil {
			return models.CartSnapshot{}, fmt.Errorf("scan cart item: %w", err)
		}
		if p.PriceOriginal, err = decimal.NewFromString(priceOriginal); err != nil {
			return models.CartSnapshot{}, fmt.Errorf("price_original: %w", err)
		}
		if p.PriceCurrent, err = decimal.NewFromString(priceCur); err != nil {
			return models.CartSnapshot{}, fmt.Errorf("price_current: %w", err)
		}
		snap.Items = append(snap.Items, p)
	}
	if err := rows.Err(); err != nil {
		return models.CartSnapshot{}, fmt.Errorf("iterate cart items: %w", err)
	}

	return snap, nil
}

func storeCart(ctx context.Context, q querier, snap models.CartSnapshot) error {
	var couponCode, couponValue *string
	if snap.Coupon != nil {
		code, value := snap.Coupon.Code, snap.Coupon.Value.String()
		couponCode, couponValue = &code, &value
	}

	const upsertCart = `
INSERT INTO carts (id, customer_id, coupon_code, coupon_value, last_modified_at)
VALUES ($1, $2, $3, $4::numeric, $5)
ON CONFLICT (id) DO UPDATE
SET customer_id = EXCLUDED.customer_id,
    coupon_code = EXCLUDED.coupon_code,
    coupon_value = EXCLUDED.coupon_value,
    last_modified_at = EXCLUDED.last_modified_at`
	if _, err := q.Exec(ctx, upsertCart, snap.ID, snap.CustomerID, couponCode, couponValue, snap.LastModifiedAt); err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	if _, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, snap.ID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}

	if len(snap.Items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, p := range snap.Items {
		batch.Queue(`
INSERT INTO cart_items (cart_id, position, code, description, price_original, price_current, quantity)
VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7)`,
			snap.ID, i, p.Code, p.Description, p.PriceOriginal.String(), p.PriceCurrent.String(), p.Quantity)
	}
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert cart items: %w", err)
	}
	return nil
}

func parseDecimal(s *string) (decimal.Decimal, error) {
	if s == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*s)
}

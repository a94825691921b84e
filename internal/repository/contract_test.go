package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCartRepository exercises the CartRepository contract against any backend.
func testCartRepository(t *testing.T, repo CartRepository) {
	t.Helper()

	newCart := func(t *testing.T) *models.Cart {
		t.Helper()
		c := models.NewCart("123456")
		require.NoError(t, c.AddProduct(models.NewProduct("AB1234567", "Camiseta Pólo", decimal.NewFromInt(170), decimal.NewFromInt(170), 1)))
		require.NoError(t, c.AddProduct(models.NewProduct("CD7654321", "Calça Jeans", decimal.NewFromInt(280), decimal.RequireFromString("249.90"), 2)))
		c.SetCoupon(&models.Coupon{Code: "VALE10", Value: decimal.NewFromInt(10)})
		return c
	}

	t.Run("fetch missing cart", func(t *testing.T) {
		_, err := repo.Fetch(context.Background(), "00000000-0000-4000-8000-000000000000")
		var nf *models.NotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, models.ResourceCart, nf.Resource)
	})

	t.Run("save and fetch", func(t *testing.T) {
		ctx := context.Background()
		c := newCart(t)
		require.NoError(t, repo.Save(ctx, c))

		got, err := repo.Fetch(ctx, c.ID())
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(c.Snapshot(), got.Snapshot()))
	})

	t.Run("save guest cart without coupon", func(t *testing.T) {
		ctx := context.Background()
		c := models.NewCart("")
		require.NoError(t, repo.Save(ctx, c))

		got, err := repo.Fetch(ctx, c.ID())
		require.NoError(t, err)
		assert.True(t, got.IsGuest())
		assert.Nil(t, got.Coupon())
		assert.Equal(t, 0, got.Len())
	})

	t.Run("save overwrites", func(t *testing.T) {
		ctx := context.Background()
		c := newCart(t)
		require.NoError(t, repo.Save(ctx, c))

		c.RemoveProduct("AB1234567")
		c.SetCoupon(nil)
		require.NoError(t, repo.Save(ctx, c))

		got, err := repo.Fetch(ctx, c.ID())
		require.NoError(t, err)
		assert.Equal(t, 1, got.Len())
		assert.Nil(t, got.Coupon())
		assert.True(t, got.Totals().Total.Equal(decimal.RequireFromString("499.80")))
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		c := newCart(t)
		require.NoError(t, repo.Save(ctx, c))

		require.NoError(t, repo.Delete(ctx, c.ID()))
		_, err := repo.Fetch(ctx, c.ID())
		assert.True(t, models.IsNotFound(err))

		err = repo.Delete(ctx, c.ID())
		assert.True(t, models.IsNotFound(err))
	})

	t.Run("update applies and persists", func(t *testing.T) {
		ctx := context.Background()
		c := newCart(t)
		require.NoError(t, repo.Save(ctx, c))

		updated, err := repo.Update(ctx, c.ID(), func(cart *models.Cart) error {
			return cart.SetProductQuantity("AB1234567", 4)
		})
		require.NoError(t, err)
		line, _ := updated.Item("AB1234567")
		assert.Equal(t, 4, line.Quantity)

		got, err := repo.Fetch(ctx, c.ID())
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(updated.Snapshot(), got.Snapshot()))
	})

	t.Run("update failure saves nothing", func(t *testing.T) {
		ctx := context.Background()
		c := newCart(t)
		require.NoError(t, repo.Save(ctx, c))

		_, err := repo.Update(ctx, c.ID(), func(cart *models.Cart) error {
			cart.ClearProducts()
			return &models.ValidationError{Field: "test", Value: 0, Reason: "forced"}
		})
		assert.True(t, models.IsValidation(err))

		got, err := repo.Fetch(ctx, c.ID())
		require.NoError(t, err)
		assert.Equal(t, 2, got.Len())
	})

	t.Run("update missing cart", func(t *testing.T) {
		called := false
		_, err := repo.Update(context.Background(), "00000000-0000-4000-8000-000000000001", func(*models.Cart) error {
			called = true
			return nil
		})
		assert.True(t, models.IsNotFound(err))
		assert.False(t, called)
	})

	t.Run("delete during update stays deleted", func(t *testing.T) {
		ctx := context.Background()
		c := newCart(t)
		require.NoError(t, repo.Save(ctx, c))

		inUpdate := make(chan struct{})
		proceed := make(chan struct{})
		updateErr := make(chan error, 1)
		go func() {
			_, err := repo.Update(ctx, c.ID(), func(cart *models.Cart) error {
				select {
				case <-inUpdate:
				default:
					close(inUpdate)
				}
				<-proceed
				return cart.SetProductQuantity("AB1234567", 5)
			})
			updateErr <- err
		}()

		<-inUpdate
		deleteErr := make(chan error, 1)
		go func() {
			deleteErr <- repo.Delete(ctx, c.ID())
		}()
		// give Delete time to reach the store while fn is still running
		time.Sleep(50 * time.Millisecond)
		close(proceed)

		require.NoError(t, <-deleteErr)
		if err := <-updateErr; err != nil {
			assert.True(t, models.IsNotFound(err), "update failed with %v", err)
		}

		_, err := repo.Fetch(ctx, c.ID())
		assert.True(t, models.IsNotFound(err), "cart came back after delete: %v", err)
	})

	t.Run("concurrent updates are serialized", func(t *testing.T) {
		ctx := context.Background()
		c := models.NewCart("")
		require.NoError(t, repo.Save(ctx, c))

		const workers = 20
		product := models.NewProduct("EF3567942", "Sapato Social Masculino", decimal.NewFromInt(500), decimal.NewFromInt(450), 1)

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Update(ctx, c.ID(), func(cart *models.Cart) error {
					return cart.AddProduct(product)
				})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			require.NoError(t, err)
		}

		got, err := repo.Fetch(ctx, c.ID())
		require.NoError(t, err)
		line, ok := got.Item("EF3567942")
		require.True(t, ok)
		assert.Equal(t, workers, line.Quantity)
		assert.True(t, got.Totals().Subtotal.Equal(decimal.NewFromInt(450*workers)))
	})
}

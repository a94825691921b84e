package repository

import (
	"context"
	"sort"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/models"
	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for catalog data access
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.CatalogProduct, error)
	GetByCode(ctx context.Context, code string) (*models.CatalogProduct, error)
}

// InMemoryProductRepository implements ProductRepository with in-memory storage
type InMemoryProductRepository struct {
	products map[string]models.CatalogProduct
}

// NewInMemoryProductRepository creates a catalog holding the given products,
// or the default seed catalog when none are given.
func NewInMemoryProductRepository(products ...models.CatalogProduct) *InMemoryProductRepository {
	if len(products) == 0 {
		products = seedProducts()
	}

	byCode := make(map[string]models.CatalogProduct, len(products))
	for _, p := range products {
		byCode[p.Code] = p
	}

	return &InMemoryProductRepository{
		products: byCode,
	}
}

func seedProducts() []models.CatalogProduct {
	return []models.CatalogProduct{
		{Code: "AB1234567", Description: "Camiseta Pólo", PriceOriginal: decimal.NewFromInt(170), PriceCurrent: decimal.NewFromInt(170), Stock: 10},
		{Code: "CD7654321", Description: "Calça Jeans", PriceOriginal: decimal.NewFromInt(280), PriceCurrent: decimal.NewFromInt(250), Stock: 5},
		{Code: "EF3567942", Description: "Sapato Social Masculino", PriceOriginal: decimal.NewFromInt(500), PriceCurrent: decimal.NewFromInt(450), Stock: 1},
	}
}

// GetAll returns all products ordered by code
func (r *InMemoryProductRepository) GetAll(ctx context.Context) ([]models.CatalogProduct, error) {
	products := make([]models.CatalogProduct, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, product)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Code < products[j].Code })
	return products, nil
}

// GetByCode returns a product by its code
func (r *InMemoryProductRepository) GetByCode(ctx context.Context, code string) (*models.CatalogProduct, error) {
	product, exists := r.products[code]
	if !exists {
		return nil, &models.NotFoundError{Resource: models.ResourceProduct, Code: code}
	}
	return &product, nil
}

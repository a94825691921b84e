package service

import (
	"context"

	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/models"
	"github.com/Lixing-Zhang/kart-challenge/cart-api/internal/repository"
)

// ProductService exposes the read-only catalog.
type ProductService struct {
	repo repository.ProductRepository
}

// NewProductService creates a new product service
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListProducts returns the catalog ordered by code
func (s *ProductService) ListProducts(ctx context.Context) ([]models.CatalogProduct, error) {
	return s.repo.GetAll(ctx)
}

// GetProduct returns a catalog product by code
func (s *ProductService) GetProduct(ctx context.Context, code string) (*models.CatalogProduct, error) {
	if code == "" {
		return nil, &models.ValidationError{Field: "product", Value: code, Reason: "must not be empty"}
	}
	return s.repo.GetByCode(ctx, code)
}

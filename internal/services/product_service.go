package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oms/internal/models"
	"oms/internal/repositories"
	"oms/pkg/cache"
)

const (
	productCachePrefix = "products:"
	productCacheTTL    = 10 * time.Minute
)

// ProductService handles business logic related to products. Listings are
// cached; every write invalidates the product cache prefix only.
type ProductService struct {
	repo  repositories.ProductRepository
	cache cache.Cache
}

// NewProductService creates a new ProductService. c may be nil.
func NewProductService(repo repositories.ProductRepository, c cache.Cache) *ProductService {
	return &ProductService{
		repo:  repo,
		cache: c,
	}
}

// GetAllProducts retrieves products matching the filter, through the cache.
func (s *ProductService) GetAllProducts(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, error) {
	key := fmt.Sprintf("%slist:%s:%s", productCachePrefix, filter.CategoryID, filter.Search)
	return cache.Remember(ctx, s.cache, key, productCacheTTL, func() ([]models.Product, error) {
		return s.repo.GetAll(filter)
	})
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Resource: "product", ID: id}
		}
		return nil, err
	}
	return product, nil
}

// CreateProduct creates a new product and invalidates cached listings.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := s.repo.Create(product); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// UpdateProduct updates an existing product and invalidates cached listings.
func (s *ProductService) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := s.repo.Update(product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &NotFoundError{Resource: "product", ID: product.ID}
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

// DeleteProduct deletes a product by its ID and invalidates cached listings.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return &NotFoundError{Resource: "product", ID: id}
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *ProductService) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.DeletePrefix(ctx, productCachePrefix)
	}
}

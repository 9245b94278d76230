package services

import (
	"context"
	"time"

	"oms/internal/models"
	"oms/internal/repositories"
	"oms/pkg/cache"
)

const (
	categoryCacheKey = "categories:all"
	categoryCacheTTL = time.Hour
)

// CategoryService handles business logic related to categories.
type CategoryService struct {
	repo  repositories.CategoryRepository
	cache cache.Cache
}

// NewCategoryService creates a new CategoryService. c may be nil.
func NewCategoryService(repo repositories.CategoryRepository, c cache.Cache) *CategoryService {
	return &CategoryService{
		repo:  repo,
		cache: c,
	}
}

// GetAllCategories retrieves all categories, through the cache.
func (s *CategoryService) GetAllCategories(ctx context.Context) ([]models.Category, error) {
	return cache.Remember(ctx, s.cache, categoryCacheKey, categoryCacheTTL, func() ([]models.Category, error) {
		return s.repo.GetAll()
	})
}

// CreateCategory creates a new category and drops the cached list.
func (s *CategoryService) CreateCategory(ctx context.Context, category *models.Category) error {
	if err := s.repo.Create(category); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, categoryCacheKey)
	}
	return nil
}

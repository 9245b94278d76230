package repositories

import (
	"oms/internal/models"
)

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	CategoryID string
	Search     string // matches against the product name
}

// ProductRepository defines the interface for product data access.
// Stock is deliberately absent here: it is only mutated through the order
// unit of work.
type ProductRepository interface {
	GetAll(filter ProductFilter) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}

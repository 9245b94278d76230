package models

import "gorm.io/gorm"

// Product represents a product in the store. StockQuantity is only ever
// mutated through the order workflows, inside their transactions.
type Product struct {
	ID            string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	CategoryID    string    `json:"category_id" gorm:"type:varchar(36)" validate:"omitempty,uuid"`
	Category      *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Name          string    `json:"name" validate:"required,min=3,max=100"`
	SKU           string    `json:"sku" gorm:"uniqueIndex;type:varchar(50)" validate:"omitempty,max=50"`
	Description   string    `json:"description" validate:"omitempty,max=500"`
	Price         float64   `json:"price" validate:"required,gt=0"`
	StockQuantity int       `json:"stock_quantity" validate:"gte=0"`
	gorm.Model              // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}

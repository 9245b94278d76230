package services

import (
	"errors"
	"fmt"

	"oms/internal/models"
	"oms/internal/repositories"
)

// InventoryLedger owns every stock mutation. Both operations run against an
// open OrderTx and so commit or roll back with the calling workflow.
type InventoryLedger struct{}

// Reserve locks the product row, verifies availability, and decrements
// stock. On a shortfall it returns InsufficientStockError and mutates
// nothing. The returned product is the locked row, so its price is safe to
// snapshot onto an order item.
func (InventoryLedger) Reserve(tx repositories.OrderTx, productID string, quantity int) (*models.Product, error) {
	product, err := tx.LockProduct(productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Resource: "product", ID: productID}
		}
		return nil, fmt.Errorf("failed to lock product %s: %w", productID, err)
	}

	if product.StockQuantity < quantity {
		return nil, &InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   product.StockQuantity,
		}
	}

	if err := tx.AdjustStock(productID, -quantity); err != nil {
		return nil, fmt.Errorf("failed to reserve stock for product %s: %w", productID, err)
	}
	return product, nil
}

// Release hands quantity units back to the product's stock. There is no
// upper bound check: a correctly audited order can never over-restore.
func (InventoryLedger) Release(tx repositories.OrderTx, productID string, quantity int) error {
	if err := tx.AdjustStock(productID, quantity); err != nil {
		return fmt.Errorf("failed to release stock for product %s: %w", productID, err)
	}
	return nil
}

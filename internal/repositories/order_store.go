package repositories

import (
	"context"

	"oms/internal/models"
)

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID string             // restrict to one owner; empty = all
	Status models.OrderStatus // restrict to one status; empty = all
	Page   int                // 1-based; PageSize rows per page
}

// PageSize is the fixed page length for order listings.
const PageSize = 15

// OrderTx is the view of the datastore inside one atomic unit of work.
// It exposes the row-level primitives the order workflows need: locked
// product reads, stock adjustment, and order/item/history writes. An OrderTx
// is only valid for the duration of the Execute call that produced it.
type OrderTx interface {
	// LockProduct reads a product row under an exclusive lock, blocking
	// concurrent workflows touching the same product until commit.
	LockProduct(productID string) (*models.Product, error)
	// AdjustStock adds delta (possibly negative) to a product's stock.
	AdjustStock(productID string, delta int) error

	// LockOrder reads an order row (with its items) under an exclusive
	// lock, serializing concurrent transitions on the same order.
	LockOrder(orderID string) (*models.Order, error)
	InsertOrder(order *models.Order) error
	InsertItems(items []models.OrderItem) error
	UpdateOrderTotal(orderID string, total float64) error
	UpdateOrderStatus(orderID string, status models.OrderStatus) error
	AppendHistory(entry *models.OrderStatusHistory) error
}

// OrderStore is the persistence boundary of the order workflows: reads plus
// an atomic unit of work. Any error returned from the Execute callback rolls
// the whole transaction back; nothing written inside survives.
type OrderStore interface {
	Execute(ctx context.Context, fn func(tx OrderTx) error) error
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	GetByID(ctx context.Context, id string) (*models.Order, error)
}

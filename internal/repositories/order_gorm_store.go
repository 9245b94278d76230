package repositories

import (
	"context"
	"errors"
	"fmt"

	"oms/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMOrderStore is a GORM implementation of OrderStore.
type GORMOrderStore struct {
	db *gorm.DB
}

// NewGORMOrderStore creates a new instance of GORMOrderStore.
func NewGORMOrderStore(db *gorm.DB) *GORMOrderStore {
	return &GORMOrderStore{
		db: db,
	}
}

// Execute runs fn inside a single database transaction. The context bounds
// the whole unit of work, including time spent waiting on row locks.
func (s *GORMOrderStore) Execute(ctx context.Context, fn func(tx OrderTx) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormOrderTx{db: tx})
	})
	if err != nil {
		return mapConflict(err)
	}
	return nil
}

// mapConflict translates serialization failures, deadlocks, and lock
// timeouts into ErrTxConflict so callers can retry the whole workflow.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return fmt.Errorf("%w: %s", ErrTxConflict, pgErr.Code)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTxConflict, err)
	}
	return err
}

// List retrieves orders matching the filter, newest first.
func (s *GORMOrderStore) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := s.db.WithContext(ctx).Preload("User.Role").Preload("Items.Product")
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Page > 0 {
		query = query.Offset((filter.Page - 1) * PageSize).Limit(PageSize)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves one order with items, product references, and the full
// status history with actors, oldest history entry first.
func (s *GORMOrderStore) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("User.Role").
		Preload("Items.Product").
		Preload("StatusHistories", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_status_histories.created_at ASC")
		}).
		Preload("StatusHistories.Actor").
		First(&order, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// gormOrderTx adapts a transaction-scoped *gorm.DB to OrderTx.
type gormOrderTx struct {
	db *gorm.DB
}

// locked returns the transaction with a FOR UPDATE clause on dialects that
// support it. SQLite serializes writers on its own and rejects the clause.
func (t *gormOrderTx) locked() *gorm.DB {
	if t.db.Dialector.Name() == "sqlite" {
		return t.db
	}
	return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func (t *gormOrderTx) LockProduct(productID string) (*models.Product, error) {
	var product models.Product
	if err := t.locked().First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock product %s: %w", productID, err)
	}
	return &product, nil
}

func (t *gormOrderTx) AdjustStock(productID string, delta int) error {
	res := t.db.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("failed to adjust stock for product %s: %w", productID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	return nil
}

func (t *gormOrderTx) LockOrder(orderID string) (*models.Order, error) {
	var order models.Order
	if err := t.locked().First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock order %s: %w", orderID, err)
	}
	// Items load after the header lock is held; they are immutable anyway.
	if err := t.db.Where("order_id = ?", orderID).Find(&order.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to load items for order %s: %w", orderID, err)
	}
	return &order, nil
}

func (t *gormOrderTx) InsertOrder(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	// Items and histories are inserted separately by the workflow.
	if err := t.db.Omit("Items", "StatusHistories").Create(order).Error; err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (t *gormOrderTx) InsertItems(items []models.OrderItem) error {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
	}
	if err := t.db.Omit("Product").Create(&items).Error; err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	return nil
}

func (t *gormOrderTx) UpdateOrderTotal(orderID string, total float64) error {
	res := t.db.Model(&models.Order{}).Where("id = ?", orderID).Update("total_amount", total)
	if res.Error != nil {
		return fmt.Errorf("failed to update total for order %s: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return nil
}

func (t *gormOrderTx) UpdateOrderStatus(orderID string, status models.OrderStatus) error {
	res := t.db.Model(&models.Order{}).Where("id = ?", orderID).Update("status", string(status))
	if res.Error != nil {
		return fmt.Errorf("failed to update status for order %s: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return nil
}

func (t *gormOrderTx) AppendHistory(entry *models.OrderStatusHistory) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if err := t.db.Omit("Actor").Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}
	return nil
}

package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"oms/internal/models"

	"github.com/google/uuid"
)

// MockOrderStore is an in-memory implementation of OrderStore. Execute is
// atomic: state is snapshotted up front and restored when the callback
// fails, so rollback behavior matches the database-backed store. A single
// mutex serializes units of work the way row locks do.
type MockOrderStore struct {
	products  map[string]models.Product
	orders    map[string]models.Order
	items     map[string][]models.OrderItem          // keyed by order ID
	histories map[string][]models.OrderStatusHistory // keyed by order ID
	mu        sync.Mutex
}

// NewMockOrderStore creates a new instance of MockOrderStore.
func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{
		products:  make(map[string]models.Product),
		orders:    make(map[string]models.Order),
		items:     make(map[string][]models.OrderItem),
		histories: make(map[string][]models.OrderStatusHistory),
	}
}

// SeedProduct inserts or replaces a product row.
func (s *MockOrderStore) SeedProduct(product models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	s.products[product.ID] = product
}

// ProductStock returns the current stock for a product, for assertions.
func (s *MockOrderStore) ProductStock(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].StockQuantity
}

// Execute runs fn atomically against the in-memory state.
func (s *MockOrderStore) Execute(ctx context.Context, fn func(tx OrderTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshot()
	if err := fn(&mockOrderTx{store: s}); err != nil {
		s.restore(snapshot)
		return err
	}
	return nil
}

// List returns orders matching the filter, newest first.
func (s *MockOrderStore) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]models.Order, 0, len(s.orders))
	for _, order := range s.orders {
		if filter.UserID != "" && order.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		order.Items = append([]models.OrderItem(nil), s.items[order.ID]...)
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if filter.Page > 0 {
		start := (filter.Page - 1) * PageSize
		if start >= len(orders) {
			return []models.Order{}, nil
		}
		end := start + PageSize
		if end > len(orders) {
			end = len(orders)
		}
		orders = orders[start:end]
	}
	return orders, nil
}

// GetByID returns one order with its items and history.
func (s *MockOrderStore) GetByID(ctx context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	order.Items = append([]models.OrderItem(nil), s.items[id]...)
	order.StatusHistories = append([]models.OrderStatusHistory(nil), s.histories[id]...)
	return &order, nil
}

type memorySnapshot struct {
	products  map[string]models.Product
	orders    map[string]models.Order
	items     map[string][]models.OrderItem
	histories map[string][]models.OrderStatusHistory
}

func (s *MockOrderStore) snapshot() memorySnapshot {
	snap := memorySnapshot{
		products:  make(map[string]models.Product, len(s.products)),
		orders:    make(map[string]models.Order, len(s.orders)),
		items:     make(map[string][]models.OrderItem, len(s.items)),
		histories: make(map[string][]models.OrderStatusHistory, len(s.histories)),
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	for k, v := range s.items {
		snap.items[k] = append([]models.OrderItem(nil), v...)
	}
	for k, v := range s.histories {
		snap.histories[k] = append([]models.OrderStatusHistory(nil), v...)
	}
	return snap
}

func (s *MockOrderStore) restore(snap memorySnapshot) {
	s.products = snap.products
	s.orders = snap.orders
	s.items = snap.items
	s.histories = snap.histories
}

// mockOrderTx mutates the store directly; the store mutex is already held
// for the duration of Execute.
type mockOrderTx struct {
	store *MockOrderStore
}

func (t *mockOrderTx) LockProduct(productID string) (*models.Product, error) {
	product, ok := t.store.products[productID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	return &product, nil
}

func (t *mockOrderTx) AdjustStock(productID string, delta int) error {
	product, ok := t.store.products[productID]
	if !ok {
		return fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	product.StockQuantity += delta
	t.store.products[productID] = product
	return nil
}

func (t *mockOrderTx) LockOrder(orderID string) (*models.Order, error) {
	order, ok := t.store.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	order.Items = append([]models.OrderItem(nil), t.store.items[orderID]...)
	return &order, nil
}

func (t *mockOrderTx) InsertOrder(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	stored := *order
	stored.Items = nil
	stored.StatusHistories = nil
	t.store.orders[order.ID] = stored
	return nil
}

func (t *mockOrderTx) InsertItems(items []models.OrderItem) error {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.New().String()
		}
		t.store.items[items[i].OrderID] = append(t.store.items[items[i].OrderID], items[i])
	}
	return nil
}

func (t *mockOrderTx) UpdateOrderTotal(orderID string, total float64) error {
	order, ok := t.store.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	order.TotalAmount = total
	order.UpdatedAt = time.Now()
	t.store.orders[orderID] = order
	return nil
}

func (t *mockOrderTx) UpdateOrderStatus(orderID string, status models.OrderStatus) error {
	order, ok := t.store.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	t.store.orders[orderID] = order
	return nil
}

func (t *mockOrderTx) AppendHistory(entry *models.OrderStatusHistory) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	t.store.histories[entry.OrderID] = append(t.store.histories[entry.OrderID], *entry)
	return nil
}

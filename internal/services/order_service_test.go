package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"oms/internal/models"
	"oms/internal/repositories"
	"oms/internal/services"
	"oms/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventPublisher is a mock implementation of services.EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(exchange, routingKey string, body []byte) error {
	args := m.Called(exchange, routingKey, body)
	return args.Error(0)
}

var (
	customer      = models.Identity{UserID: "user-1", Name: "Alice", Role: models.RoleCustomer}
	otherCustomer = models.Identity{UserID: "user-2", Name: "Bob", Role: models.RoleCustomer}
	staff         = models.Identity{UserID: "staff-1", Name: "Carol", Role: models.RoleStaff}
)

func newTestService(store *repositories.MockOrderStore) *services.OrderService {
	return services.NewOrderService(store, nil, nil)
}

func seedWidget(store *repositories.MockOrderStore, stock int) {
	store.SeedProduct(models.Product{ID: "prod-1", Name: "Widget", Price: 10.00, StockQuantity: stock})
}

func TestOrderService_Create_Success(t *testing.T) {
	store := repositories.NewMockOrderStore()
	seedWidget(store, 5)
	service := newTestService(store)

	order, err := service.Create(context.Background(), customer, services.CreateOrderInput{
		ShippingAddress: "1 Main St",
		Items:           []services.CartItem{{ProductID: "prod-1", Quantity: 3}},
	})

	require.NoError(t, err)
	assert.Equal(t, customer.UserID, order.UserID)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, 30.00, order.TotalAmount)
	assert.Equal(t, "1 Main St", order.ShippingAddress)

	require.Len(t, order.Items, 1)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.Equal(t, 10.00, order.Items[0].UnitPrice)
	assert.Equal(t, 30.00, order.Items[0].Subtotal)

	require.Len(t, order.StatusHistories, 1)
	assert.Equal(t, models.StatusPending, order.StatusHistories[0].Status)
	assert.Equal(t, customer.UserID, order.StatusHistories[0].ChangedBy)
	assert.Equal(t, "Order placed successfully", order.StatusHistories[0].Notes)

	assert.Equal(t, 2, store.ProductStock("prod-1"))
}

func TestOrderService_Create_TotalMatchesSubtotals(t *testing.T) {
	store := repositories.NewMockOrderStore()
	store.SeedProduct(models.Product{ID: "prod-1", Name: "Widget", Price: 10.00, StockQuantity: 10})
	store.SeedProduct(models.Product{ID: "prod-2", Name: "Gadget", Price: 19.99, StockQuantity: 10})
	service := newTestService(store)

	order, err := service.Create(context.Background(), customer, services.CreateOrderInput{
		ShippingAddress: "1 Main St",
		Items: []services.CartItem{
			{ProductID: "prod-1", Quantity: 2},
			{ProductID: "prod-2", Quantity: 3},
		},
	})

	require.NoError(t, err)
	require.Len(t, order.Items, 2)

	var sum float64
	for _, item := range order.Items {
		assert.Equal(t, float64(item.Quantity)*item.UnitPrice, item.Subtotal)
		sum += item.Subtotal
	}
	assert.Equal(t, sum, order.TotalAmount)
}

func TestOrderService_Create_UnitPriceSnapshot(t *testing.T) {
	store := repositories.NewMockOrderStore()
	seedWidget(store, 5)
	service := newTestService(store)

	order, err := service.Create(context.Background(), customer, services.CreateOrderInput{
		ShippingAddress: "1 Main St",
		Items:           []services.CartItem{{ProductID: "prod-1", Quantity: 1}},
	})
	require.NoError(t, err)

	// Reprice the product after the sale.
	store.SeedProduct(models.Product{ID: "prod-1", Name: "Widget", Price: 99.00, StockQuantity: 4})

	got, err := service.Get(context.Background(), customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.00, got.Items[0].UnitPrice)
	assert.Equal(t, 10.00, got.TotalAmount)
}

func TestOrderService_Create_InsufficientStock_RollsBackEverything(t *testing.T) {
	store := repositories.NewMockOrderStore()
	store.SeedProduct(models.Product{ID: "prod-1", Name: "Widget", Price: 10.00, StockQuantity: 10})
	store.SeedProduct(models.Product{ID: "prod-2", Name: "Gadget", Price: 5.00, StockQuantity: 1})
	service := newTestService(store)

	_, err := service.Create(context.Background(), customer, services.CreateOrderInput{
		ShippingAddress: "1 Main St",
		Items: []services.CartItem{
			{ProductID: "prod-1", Quantity: 2}, // would succeed alone
			{ProductID: "prod-2", Quantity: 3}, // short by 2
		},
	})

	var stockErr *services.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "prod-2", stockErr.ProductID)
	assert.Equal(t, "Gadget", stockErr.ProductName)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)

	// Nothing survives the rollback: no order, no items, no decrements.
	orders, err := store.List(context.Background(), repositories.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, 10, store.ProductStock("prod-1"))
	assert.Equal(t, 1, store.ProductStock("prod-2"))
}

func TestOrderService_Create_ProductNotFound(t *testing.T) {
	store := repositories.NewMockOrderStore()
	seedWidget(store, 5)
	service := newTestService(store)

	_, err := service.Create(context.Background(), customer, services.CreateOrderInput{
		ShippingAddress: "1 Main St",
		Items: []services.CartItem{
			{ProductID: "prod-1", Quantity: 1},
			{ProductID: "prod-missing", Quantity: 1},
		},
	})

	var notFoundErr *services.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "product", notFoundErr.Resource)

	assert.Equal(t, 5, store.ProductStock("prod-1"))
	orders, _ := store.List(context.Background(), repositories.OrderFilter{})
	assert.Empty(t, orders)
}

func TestOrderService_Create_InvalidCart(t *testing.T) {
	store := repositories.NewMockOrderStore()
	seedWidget(store, 5)
	service := newTestService(store)

	cases := []struct {
		name  string
		input services.CreateOrderInput
	}{
		{"empty items", services.CreateOrderInput{ShippingAddress: "1 Main St"}},
		{"zero quantity", services.CreateOrderInput{
			ShippingAddress: "1 Main St",
			Items:           []services.CartItem{{ProductID: "prod-1", Quantity: 0}},
		}},
		{"negative quantity", services.CreateOrderInput{
			ShippingAddress: "1 Main St",
			Items:           []services.CartItem{{ProductID: "prod-1", Quantity: -2}},
		}},
		{"missing address", services.CreateOrderInput{
			Items: []services.CartItem{{ProductID: "prod-1", Quantity: 1}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Create(context.Background(), customer, tc.input)
			var validationErr *services.ValidationError
			assert.ErrorAs(t, err, &validationErr)
			assert.Equal(t, 5, store.ProductStock("prod-1"))
		})
	}
}

func TestOrderService_Create_ConcurrentLastUnit(t *testing.T) {
	store := repositories.NewMockOrderStore()
	seedWidget(store, 1)
	service := newTestService(store)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Create(context.Background(), customer, services.CreateOrderInput{
				ShippingAddress: "1 Main St",
				Items:           []services.CartItem{{ProductID: "prod-1", Quantity: 1}},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, stockFailures int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var stockErr *services.InsufficientStockError
		if assert.ErrorAs(t, err, &stockErr) {
			stockFailures++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, stockFailures)
	assert.Equal(t, 0, store.ProductStock("prod-1"))
}

// conflictingOrderStore fails every unit of work the way a store does when
// it loses a serialization race.
type conflictingOrderStore struct {
	*repositories.MockOrderStore
}

func (s *conflictingOrderStore) Execute(ctx context.Context, fn func(tx repositories.OrderTx) error) error {
	return fmt.Errorf("commit: %w", repositories.ErrTxConflict)
}

func TestOrderService_TxConflictSurfacesAsRetryable(t *testing.T) {
	store := &conflictingOrderStore{MockOrderStore: repositories.NewMockOrderStore()}
	service := services.NewOrderService(store, nil, nil)

	_, err := service.Create(context.Background(), customer, services.CreateOrderInput{
		ShippingAddress: "1 Main St",
		Items:           []services.CartItem{{ProductID: "prod-1", Quantity: 1}},
	})
	assert.ErrorIs(t, err, services.ErrConflict)

	_, err = service.UpdateStatus(context.Background(), staff, "order-1", models.StatusPacked, "")
	assert.ErrorIs(t, err, services.ErrConflict)
}

func createPendingOrder(t *testing.T, service *services.OrderService, identity models.Identity, qty int) *models.Order {
	t.Helper()
	order, err := service.Create(context.Background(), identity, services.CreateOrderInput{
		ShippingAddress: "1 Main St",
		Items:           []services.CartItem{{ProductID: "prod-1", Quantity: qty}},
	})
	require.NoError(t, err)
	return order
}

func TestOrderService_UpdateStatus_CancelRestoresStock(t *testing.T) {
	store := repositories.NewMockOrderStore()
	seedWidget(store, 5)
	service := newTestService(store)

	order := createPendingOrder(t, service, customer, 3)
	assert.Equal(t, 2, store.ProductStock("prod-1"))

	updated, err := service.UpdateStatus(context.Background(), staff, order.ID, models.StatusCancelled, "customer changed their mind")
	require.NoError(t, err)

	assert.Equal(t, models.StatusCancelled, updated.Status)
	assert.Equal(t, 5, store.ProductStock("prod-1"))

	require.Len(t, updated.StatusHistories, 2)
	assert.Equal(t, models.StatusCancelled, updated.StatusHistories[1].Status)
	assert.Equal(t, staff.UserID, updated.StatusHistories[1].ChangedBy)
	assert.Equal(t, "customer changed their mind", updated.StatusHistories[1].Notes)
}

func TestOrderService_UpdateStatus_RecancelDoesNotDoubleRestore(t *testing.T) {
	store := repositories.NewMockOrderStore()
	seedWidget(store, 5)
	service := newTestService(store)

	order := createPendingOrder(t, service, customer, 3)

	_, err := service.UpdateStatus(context.Background(), staff, order.ID, models.StatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, 5, store.ProductStock("prod-1"))

	// Cancelling again is inventory-neutral but still audited.
	updated, err := service.UpdateStatus(context.Background(), staff, order.ID, models.StatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, 5, store.ProductStock("prod-1"))
	assert.Len(t, updated.StatusHistories, 3)
}

func TestOrderService_UpdateStatus_ReturnRestoresStock(t *testing.T) {
	store := repositories.NewMockOrderStore()
	seedWidget(store, 5)
	service := newTestService(store)

	order := createPendingOrder(t, service, customer, 2)

	_, err := service.UpdateStatus(context.Background(), staff, order.ID, models.StatusPacked, "")
	require.NoError(t, err)
	_, err = service.UpdateStatus(context.Background(), staff, order.ID, models.StatusShipped, "")
	require.NoError(t, err)

	updated, err := service.UpdateStatus(context.Background(), staff, order.ID, models.StatusReturned, "damaged in transit")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReturned, updated.Status)
	assert.Equal(t, 5, store.ProductStock("prod-1"))
}

func TestOrderService_UpdateStatus_AuditTrailCompleteAndOrdered(t *testing.T) {
	store := repositories.NewMockOrderStore()
	seedWidget(store, 5)
	service := newTestService(store)

	order := createPendingOrder(t, service, customer, 1)

	steps := []models.OrderStatus{models.StatusPacked, models.StatusShipped, models.StatusDelivered}
	for _, status := range steps {
		_, err := service.UpdateStatus(context.Background(), staff, order.ID, status, "")
		require.NoError(t, err)
	}

	got, err := service.Get(context.Background(), staff, order.ID)
	require.NoError(t, err)

	require.Len(t, got.StatusHistories, 1+len(steps))
	expected := append([]models.OrderStatus{models.StatusPending}, steps...)
	for i, entry := range got.StatusHistories {
		assert.Equal(t, expected[i], entry.Status)
	}
}

func TestOrderService_UpdateStatus_IllegalTransitions(t *testing.T) {
	store := repositories.NewMockOrderStore()
	seedWidget(store, 5)
	service := newTestService(store)

	order := createPendingOrder(t, service, customer, 1)

	// Skipping straight to delivered is not allowed.
	_, err := service.UpdateStatus(context.Background(), staff, order.ID, models.StatusDelivered, "")
	var transitionErr *services.IllegalTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.StatusPending, transitionErr.From)
	assert.Equal(t, models.StatusDelivered, transitionErr.To)

	// A rejected transition leaves no audit residue.
	got, err := service.Get(context.Background(), staff, order.ID)
	require.NoError(t, err)
	assert.Len(t, got.StatusHistories, 1)
	assert.Equal(t, models.StatusPending, got.Status)

	// Leaving a terminal state is not allowed either.
	_, err = service.UpdateStatus(context.Background(), staff, order.ID, models.StatusCancelled, "")
	require.NoError(t, err)
	_, err = service.UpdateStatus(context.Background(), staff, order.ID, models.StatusPending, "")
	require.ErrorAs(t, err, &transitionErr)
}

func TestOrderService_UpdateStatus_UnrecognizedStatus(t *testing.T) {
	store := repositories.NewMockOrderStore()
	seedWidget(store, 5)
	service := newTestService(store)

	order := createPendingOrder(t, service, customer, 1)

	_, err := service.UpdateStatus(context.Background(), staff, order.ID, "processing", "")
	var validationErr *services.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestOrderService_UpdateStatus_OrderNotFound(t *testing.T) {
	store := repositories.NewMockOrderStore()
	service := newTestService(store)

	_, err := service.UpdateStatus(context.Background(), staff, "missing", models.StatusPacked, "")
	var notFoundErr *services.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "order", notFoundErr.Resource)
}

func TestOrderService_ListAndGet_CustomerScoping(t *testing.T) {
	store := repositories.NewMockOrderStore()
	store.SeedProduct(models.Product{ID: "prod-1", Name: "Widget", Price: 10.00, StockQuantity: 50})
	service := newTestService(store)

	mine := createPendingOrder(t, service, customer, 1)
	theirs := createPendingOrder(t, service, otherCustomer, 1)

	// Customers only see their own orders.
	orders, err := service.List(context.Background(), customer, "", 0)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, mine.ID, orders[0].ID)

	// Staff see everything.
	orders, err = service.List(context.Background(), staff, "", 0)
	require.NoError(t, err)
	assert.Len(t, orders, 2)

	// A customer reading another user's order gets a not-found, not a leak.
	_, err = service.Get(context.Background(), customer, theirs.ID)
	var notFoundErr *services.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)

	got, err := service.Get(context.Background(), staff, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, otherCustomer.UserID, got.UserID)
}

func TestOrderService_List_StatusFilter(t *testing.T) {
	store := repositories.NewMockOrderStore()
	store.SeedProduct(models.Product{ID: "prod-1", Name: "Widget", Price: 10.00, StockQuantity: 50})
	service := newTestService(store)

	first := createPendingOrder(t, service, customer, 1)
	createPendingOrder(t, service, customer, 1)

	_, err := service.UpdateStatus(context.Background(), staff, first.ID, models.StatusCancelled, "")
	require.NoError(t, err)

	cancelled, err := service.List(context.Background(), staff, models.StatusCancelled, 0)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, first.ID, cancelled[0].ID)

	_, err = service.List(context.Background(), staff, "bogus", 0)
	var validationErr *services.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestOrderService_PublishesLifecycleEvents(t *testing.T) {
	store := repositories.NewMockOrderStore()
	seedWidget(store, 5)

	mockMQ := new(MockEventPublisher)
	mockMQ.On("Publish", "order", "order.created", mock.Anything).Return(nil).Once()
	mockMQ.On("Publish", "order", "order.status_updated", mock.Anything).Return(nil).Once()

	service := services.NewOrderService(store, mockMQ, nil)

	order := createPendingOrder(t, service, customer, 1)
	_, err := service.UpdateStatus(context.Background(), staff, order.ID, models.StatusPacked, "")
	require.NoError(t, err)

	mockMQ.AssertExpectations(t)
}

func TestOrderService_Metrics(t *testing.T) {
	store := repositories.NewMockOrderStore()
	store.SeedProduct(models.Product{ID: "prod-1", Name: "Widget", Price: 10.00, StockQuantity: 1})

	orderMetrics := metrics.NewOrderMetrics(prometheus.NewRegistry())
	service := services.NewOrderService(store, nil, orderMetrics)

	order := createPendingOrder(t, service, customer, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(orderMetrics.OrdersCreated))

	_, err := service.Create(context.Background(), customer, services.CreateOrderInput{
		ShippingAddress: "1 Main St",
		Items:           []services.CartItem{{ProductID: "prod-1", Quantity: 1}},
	})
	var stockErr *services.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1.0, testutil.ToFloat64(orderMetrics.StockRejections))

	_, err = service.UpdateStatus(context.Background(), staff, order.ID, models.StatusCancelled, "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(orderMetrics.StatusTransitions.WithLabelValues(string(models.StatusCancelled))))
}

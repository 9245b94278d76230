package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"oms/internal/models"
	"oms/internal/repositories"
	"oms/pkg/metrics"
	"oms/pkg/rabbitmq"

	"github.com/google/uuid"
)

// placedNote is the audit note on the initial history entry of every order.
const placedNote = "Order placed successfully"

// EventPublisher is the outbound messaging surface of the order workflows.
// Satisfied by *rabbitmq.Client; nil disables publishing.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// CartItem is one product/quantity pair submitted at checkout.
type CartItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput is the validated payload of the creation workflow.
type CreateOrderInput struct {
	ShippingAddress string     `json:"shipping_address" validate:"required"`
	Items           []CartItem `json:"items" validate:"required,min=1,dive"`
}

// OrderService runs the order creation and status transition workflows and
// the role-scoped order reads around them.
type OrderService struct {
	store   repositories.OrderStore
	ledger  InventoryLedger
	mq      EventPublisher
	metrics *metrics.OrderMetrics
}

// NewOrderService creates a new OrderService. mq and m may be nil.
func NewOrderService(store repositories.OrderStore, mq EventPublisher, m *metrics.OrderMetrics) *OrderService {
	return &OrderService{
		store:   store,
		mq:      mq,
		metrics: m,
	}
}

// List retrieves orders visible to the caller. Customers only ever see
// their own; elevated roles see everything.
func (s *OrderService) List(ctx context.Context, identity models.Identity, status models.OrderStatus, page int) ([]models.Order, error) {
	if status != "" && !status.Valid() {
		return nil, &ValidationError{Msg: fmt.Sprintf("unrecognized order status: %s", status)}
	}

	filter := repositories.OrderFilter{Status: status, Page: page}
	if !identity.Role.CanViewAllOrders() {
		filter.UserID = identity.UserID
	}
	return s.store.List(ctx, filter)
}

// Get retrieves a single order with items and status history, subject to
// the same ownership scoping as List.
func (s *OrderService) Get(ctx context.Context, identity models.Identity, orderID string) (*models.Order, error) {
	order, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, &NotFoundError{Resource: "order", ID: orderID}
		}
		return nil, err
	}
	if !identity.Role.CanViewAllOrders() && order.UserID != identity.UserID {
		// Hide other users' orders rather than confirming they exist.
		return nil, &NotFoundError{Resource: "order", ID: orderID}
	}
	return order, nil
}

// Create converts a cart into a persisted order in one atomic transaction:
// per line it locks the product row, checks stock, snapshots the unit
// price, and decrements inventory; then it fixes the total and writes the
// initial history entry. Any failure rolls the whole order back.
func (s *OrderService) Create(ctx context.Context, identity models.Identity, input CreateOrderInput) (*models.Order, error) {
	if input.ShippingAddress == "" {
		return nil, &ValidationError{Msg: "shipping address is required"}
	}
	if len(input.Items) == 0 {
		return nil, &ValidationError{Msg: "order must contain at least one item"}
	}
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, &ValidationError{Msg: fmt.Sprintf("quantity for product %s must be positive", item.ProductID)}
		}
	}

	order := &models.Order{
		ID:              uuid.New().String(),
		UserID:          identity.UserID,
		Status:          models.StatusPending,
		TotalAmount:     0, // placeholder until all lines are priced
		ShippingAddress: input.ShippingAddress,
	}

	err := s.store.Execute(ctx, func(tx repositories.OrderTx) error {
		if err := tx.InsertOrder(order); err != nil {
			return err
		}

		var total float64
		items := make([]models.OrderItem, 0, len(input.Items))
		for _, line := range input.Items {
			product, err := s.ledger.Reserve(tx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}

			subtotal := product.Price * float64(line.Quantity)
			items = append(items, models.OrderItem{
				ID:        uuid.New().String(),
				OrderID:   order.ID,
				ProductID: product.ID,
				Quantity:  line.Quantity,
				UnitPrice: product.Price, // snapshot, immune to later price changes
				Subtotal:  subtotal,
			})
			total += subtotal
		}

		if err := tx.InsertItems(items); err != nil {
			return err
		}
		if err := tx.UpdateOrderTotal(order.ID, total); err != nil {
			return err
		}
		order.TotalAmount = total
		order.Items = items

		return tx.AppendHistory(&models.OrderStatusHistory{
			OrderID:   order.ID,
			Status:    models.StatusPending,
			ChangedBy: identity.UserID,
			Notes:     placedNote,
		})
	})
	if err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) && s.metrics != nil {
			s.metrics.StockRejections.Inc()
		}
		if errors.Is(err, repositories.ErrTxConflict) {
			return nil, ErrConflict
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.OrdersCreated.Inc()
	}
	s.publish("order.created", map[string]interface{}{
		"order_id": order.ID,
		"user_id":  order.UserID,
		"status":   order.Status,
		"total":    order.TotalAmount,
	})

	return s.store.GetByID(ctx, order.ID)
}

// UpdateStatus moves an order through the state machine in one atomic
// transaction. Entering cancelled or returned from a state that is neither
// releases every line's stock, exactly once; re-entering the same terminal
// state is audited but inventory-neutral.
func (s *OrderService) UpdateStatus(ctx context.Context, identity models.Identity, orderID string, newStatus models.OrderStatus, notes string) (*models.Order, error) {
	if !newStatus.Valid() {
		return nil, &ValidationError{Msg: fmt.Sprintf("unrecognized order status: %s", newStatus)}
	}

	err := s.store.Execute(ctx, func(tx repositories.OrderTx) error {
		order, err := tx.LockOrder(orderID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return &NotFoundError{Resource: "order", ID: orderID}
			}
			return err
		}

		if !models.CanTransition(order.Status, newStatus) {
			return &IllegalTransitionError{From: order.Status, To: newStatus}
		}

		// Restore inventory on first entry into a restoring state. The
		// prior-status guard makes a repeated cancel a no-op here.
		if newStatus.RestoresStock() && !order.Status.RestoresStock() {
			for _, item := range order.Items {
				if err := s.ledger.Release(tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		if err := tx.UpdateOrderStatus(orderID, newStatus); err != nil {
			return err
		}
		return tx.AppendHistory(&models.OrderStatusHistory{
			OrderID:   orderID,
			Status:    newStatus,
			ChangedBy: identity.UserID,
			Notes:     notes,
		})
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTxConflict) {
			return nil, ErrConflict
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(newStatus)).Inc()
	}
	s.publish("order.status_updated", map[string]interface{}{
		"order_id":   orderID,
		"status":     newStatus,
		"changed_by": identity.UserID,
	})

	return s.store.GetByID(ctx, orderID)
}

// publish sends an event after commit. Failures are logged, never surfaced:
// the order is already durable.
func (s *OrderService) publish(routingKey string, payload map[string]interface{}) {
	if s.mq == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.mq.Publish(rabbitmq.OrderExchange, routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}

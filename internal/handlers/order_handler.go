package handlers

import (
	"errors"
	"log"

	"oms/internal/middleware"
	"oms/internal/models"
	"oms/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service  *services.OrderService
	validate *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the order routes. The status transition route is
// additionally gated on the transition capability.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Patch("/:id/status",
		middleware.Require(models.RoleName.CanTransitionOrders),
		h.HandleUpdateOrderStatus)
}

// HandleGetOrders retrieves orders visible to the caller, optionally
// filtered by status.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	identity := middleware.Identity(c)
	status := models.OrderStatus(c.Query("status"))
	page := c.QueryInt("page", 1)

	orders, err := h.service.List(c.UserContext(), identity, status, page)
	if err != nil {
		log.Printf("Error listing orders: %v", err)
		return writeServiceError(c, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order with items, product
// references, and the status history with actors.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	identity := middleware.Identity(c)
	orderID := c.Params("id")

	order, err := h.service.Get(c.UserContext(), identity, orderID)
	if err != nil {
		var notFoundErr *services.NotFoundError
		if !errors.As(err, &notFoundErr) {
			log.Printf("Error getting order %s: %v", orderID, err)
		}
		return writeServiceError(c, err)
	}
	return c.JSON(order)
}

// HandleCreateOrder converts the submitted cart into an order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var input services.CreateOrderInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing order request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(input); err != nil {
		return writeValidationErrors(c, err)
	}

	identity := middleware.Identity(c)
	order, err := h.service.Create(c.UserContext(), identity, input)
	if err != nil {
		log.Printf("Error creating order for user %s: %v", identity.UserID, err)
		// A missing product in the cart is a bad cart, not a missing route
		// resource.
		var notFoundErr *services.NotFoundError
		if errors.As(err, &notFoundErr) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": err.Error(),
			})
		}
		return writeServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(order)
}

// UpdateOrderStatusRequest is the PATCH body for a status transition.
type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
	Notes  string             `json:"notes"`
}

// HandleUpdateOrderStatus moves an order through the status state machine.
func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Params("id")

	var req UpdateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing status update body for order %s: %v", orderID, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body for status update",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return writeValidationErrors(c, err)
	}

	identity := middleware.Identity(c)
	order, err := h.service.UpdateStatus(c.UserContext(), identity, orderID, req.Status, req.Notes)
	if err != nil {
		log.Printf("Error updating status for order %s: %v", orderID, err)
		return writeServiceError(c, err)
	}
	return c.JSON(order)
}

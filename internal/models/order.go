package models

import "time"

// OrderItem is a single line within an order. The unit price is snapshotted
// at purchase time and never follows later product price changes.
type OrderItem struct {
	ID        string   `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string   `json:"order_id" gorm:"index;type:varchar(36)"`
	ProductID string   `json:"product_id" gorm:"type:varchar(36)"`
	Product   *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int      `json:"quantity"`
	UnitPrice float64  `json:"unit_price"`
	Subtotal  float64  `json:"subtotal"` // Quantity * UnitPrice
}

// OrderStatusHistory is one append-only audit record per status change,
// including the initial "pending" entry written at creation.
type OrderStatusHistory struct {
	ID        string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string      `json:"order_id" gorm:"index;type:varchar(36)"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(20)"`
	ChangedBy string      `json:"changed_by" gorm:"type:varchar(36)"`
	Actor     *User       `json:"actor,omitempty" gorm:"foreignKey:ChangedBy"`
	Notes     string      `json:"notes"`
	CreatedAt time.Time   `json:"created_at"`
}

// Order is the aggregate root: header plus immutable line items. TotalAmount
// is computed during creation and never changes afterward; Status only moves
// through the transition workflow.
type Order struct {
	ID              string               `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string               `json:"user_id" gorm:"index;type:varchar(36)"`
	User            *User                `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Status          OrderStatus          `json:"status" gorm:"type:varchar(20)"`
	TotalAmount     float64              `json:"total_amount"`
	ShippingAddress string               `json:"shipping_address"`
	Items           []OrderItem          `json:"items" gorm:"foreignKey:OrderID"`
	StatusHistories []OrderStatusHistory `json:"status_histories,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

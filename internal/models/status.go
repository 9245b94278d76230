package models

// OrderStatus is the closed set of order lifecycle states.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPacked    OrderStatus = "packed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
	StatusReturned  OrderStatus = "returned"
)

// AllStatuses lists every recognized status, for boundary validation.
var AllStatuses = []OrderStatus{
	StatusPending, StatusPacked, StatusShipped,
	StatusDelivered, StatusCancelled, StatusReturned,
}

// Valid reports whether s is one of the recognized statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPacked, StatusShipped,
		StatusDelivered, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusReturned
}

// RestoresStock reports whether entering s hands reserved units back to
// inventory.
func (s OrderStatus) RestoresStock() bool {
	return s == StatusCancelled || s == StatusReturned
}

var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:   {StatusPacked: true, StatusCancelled: true, StatusReturned: true},
	StatusPacked:    {StatusShipped: true, StatusCancelled: true, StatusReturned: true},
	StatusShipped:   {StatusDelivered: true, StatusCancelled: true, StatusReturned: true},
	StatusDelivered: {},
	StatusCancelled: {},
	StatusReturned:  {},
}

// CanTransition reports whether an order may move from one status to
// another. Re-submitting the current status is always allowed: it is
// audited but has no inventory effect.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	return validNext[from][to]
}

package domain

import "time"

// OrderStatus is the lifecycle status of an Order.
type OrderStatus string

const (
	OrderStatusPending      OrderStatus = "PENDING"
	OrderStatusProcessing   OrderStatus = "PROCESSING"
	OrderStatusCompleted    OrderStatus = "COMPLETED"
	OrderStatusFailed       OrderStatus = "FAILED"
	OrderStatusCompensating OrderStatus = "COMPENSATING"
	OrderStatusCompensated  OrderStatus = "COMPENSATED"
)

// IsTerminal reports whether the status ends the order's lifecycle.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusFailed, OrderStatusCompensated:
		return true
	default:
		return false
	}
}

// Order is the customer-facing aggregate root the saga drives to a terminal
// status. Money is integer minor units (cents); items are immutable once
// created alongside the order.
type Order struct {
	Base

	CustomerID              string      `json:"customerId"`
	TotalAmountInMinorUnits int64       `json:"totalAmountInMinorUnits"`
	Status                  OrderStatus `json:"status"`
}

// NewOrder constructs a new, not-yet-persisted order in PENDING status.
//
// totalAmountInMinorUnits must be > 0 per the order's monetary invariant;
// callers are expected to have validated it against the sum of item
// subtotals before calling NewOrder (see OrderItem).
func NewOrder(id string, customerID string, totalAmountInMinorUnits int64, now NowFunc) *Order {
	return &Order{
		Base:                    NewBase(id, now()),
		CustomerID:              customerID,
		TotalAmountInMinorUnits: totalAmountInMinorUnits,
		Status:                  OrderStatusPending,
	}
}

// NowFunc is the shape expected from an injected clock (see package clock).
// Kept here, rather than importing clock, to avoid a domain -> clock
// dependency cycle; clock.Clock.Now satisfies this signature directly.
type NowFunc func() time.Time

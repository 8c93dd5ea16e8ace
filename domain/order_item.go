package domain

// OrderItem is an immutable line item owned exclusively by one Order.
type OrderItem struct {
	Base

	OrderID               string `json:"orderId"`
	ProductID             string `json:"productId"`
	ProductName           string `json:"productName"`
	Quantity              int    `json:"quantity"`
	UnitPriceInMinorUnits int64  `json:"unitPriceInMinorUnits"`
}

// Subtotal is quantity * unit price, in minor units.
func (i *OrderItem) Subtotal() int64 {
	return int64(i.Quantity) * i.UnitPriceInMinorUnits
}

// NewOrderItem constructs a new, not-yet-persisted order item.
//
// quantity must be > 0 and unitPriceInMinorUnits >= 0; callers validate the
// aggregate invariant sum(items.Subtotal()) == Order.TotalAmountInMinorUnits
// before persisting the order and its items together.
func NewOrderItem(id, orderID, productID, productName string, quantity int, unitPriceInMinorUnits int64, now NowFunc) *OrderItem {
	return &OrderItem{
		Base:                  NewBase(id, now()),
		OrderID:               orderID,
		ProductID:             productID,
		ProductName:           productName,
		Quantity:              quantity,
		UnitPriceInMinorUnits: unitPriceInMinorUnits,
	}
}

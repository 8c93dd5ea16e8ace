package collaborators

import (
	"fmt"
	"time"

	"ordersaga/clock"
	"ordersaga/sagactx"
	"ordersaga/step"
)

// ShippingArrangement books a shipment and estimates delivery, keyed by
// orderId for the same at-least-once-safe reasons as the other two
// collaborators.
type ShippingArrangement struct {
	clock clock.Clock

	shipments map[string]string // orderId -> shipmentId
}

// NewShippingArrangement builds a fresh collaborator with no booked
// shipments.
func NewShippingArrangement(clk clock.Clock) *ShippingArrangement {
	return &ShippingArrangement{clock: clk, shipments: make(map[string]string)}
}

func (s *ShippingArrangement) Name() string { return "Shipping Arrangement" }

func (s *ShippingArrangement) Execute(ctx *sagactx.Context) step.Result {
	raw, _ := ctx.GetValue("orderId")
	orderID, ok := raw.(string)
	if !ok || orderID == "" {
		return step.Result{Success: false, ErrorCode: "INVALID_INPUT", ErrorMessage: "orderId missing from context"}
	}

	shipmentID, exists := s.shipments[orderID]
	if !exists {
		shipmentID = "ship-" + s.clock.NewID()
		s.shipments[orderID] = shipmentID
	}
	trackingNumber := "TRACK-" + shipmentID
	estimatedDelivery := s.clock.Now().Add(5 * 24 * time.Hour).Format(time.RFC3339)

	return step.Result{
		Success: true,
		Data: map[string]any{
			sagactx.KeyShipmentID.Name():        shipmentID,
			sagactx.KeyTrackingNumber.Name():    trackingNumber,
			sagactx.KeyEstimatedDelivery.Name(): estimatedDelivery,
		},
	}
}

func (s *ShippingArrangement) Compensate(ctx *sagactx.Context) step.CompensationResult {
	shipmentID, ok := sagactx.Get(ctx, sagactx.KeyShipmentID)
	if !ok || shipmentID == "" {
		return step.CompensationResult{Success: true, Message: "no shipment recorded, nothing to cancel"}
	}
	for orderID, id := range s.shipments {
		if id == shipmentID {
			delete(s.shipments, orderID)
			break
		}
	}
	return step.CompensationResult{Success: true, Message: fmt.Sprintf("cancelled shipment %s", shipmentID)}
}

func (s *ShippingArrangement) CheckValidity(ctx *sagactx.Context) step.ValidityResult {
	shipmentID, ok := sagactx.Get(ctx, sagactx.KeyShipmentID)
	if !ok {
		return step.ValidityResult{Validity: step.ValidityInvalidRequiresReExecution, Reason: "no prior shipment recorded"}
	}
	for _, id := range s.shipments {
		if id == shipmentID {
			return step.ValidityResult{Validity: step.ValidityValid, Reason: "shipment still booked"}
		}
	}
	return step.ValidityResult{Validity: step.ValidityExpiredButRefreshable, Reason: "shipment no longer found"}
}

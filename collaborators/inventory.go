// Package collaborators holds deterministic implementations of the three
// canonical domain steps named in the collaborator contract table (spec
// §6): Inventory Reservation, Payment Processing, and Shipping Arrangement.
// They stand in for the real remote services a production deployment would
// call through the Step Runtime, but follow the exact same Definition
// contract real collaborators must: idempotent forward/compensate under
// at-least-once invocation, and a CheckValidity answer the retry
// coordinator can trust.
package collaborators

import (
	"fmt"

	"ordersaga/clock"
	"ordersaga/sagactx"
	"ordersaga/step"
)

// InventoryReservation records one reservation per orderId in an in-memory
// ledger, so repeated invocation with the same orderId returns the same
// reservation rather than creating a second one. Line items and stock
// levels are not consulted.
type InventoryReservation struct {
	clock clock.Clock

	reservations map[string]string // orderId -> reservationId, simulates the remote ledger
}

// NewInventoryReservation builds a fresh collaborator with an empty ledger.
func NewInventoryReservation(clk clock.Clock) *InventoryReservation {
	return &InventoryReservation{clock: clk, reservations: make(map[string]string)}
}

func (s *InventoryReservation) Name() string { return "Inventory Reservation" }

func (s *InventoryReservation) Execute(ctx *sagactx.Context) step.Result {
	orderID, _ := ctx.GetValue("orderId")
	id, ok := orderID.(string)
	if !ok || id == "" {
		return step.Result{Success: false, ErrorCode: "INVALID_INPUT", ErrorMessage: "orderId missing from context"}
	}

	reservationID, exists := s.reservations[id]
	if !exists {
		reservationID = "resv-" + s.clock.NewID()
		s.reservations[id] = reservationID
	}

	return step.Result{
		Success: true,
		Data:    map[string]any{sagactx.KeyReservationID.Name(): reservationID},
	}
}

func (s *InventoryReservation) Compensate(ctx *sagactx.Context) step.CompensationResult {
	reservationID, ok := sagactx.Get(ctx, sagactx.KeyReservationID)
	if !ok || reservationID == "" {
		return step.CompensationResult{Success: true, Message: "no reservation recorded, nothing to release"}
	}
	for orderID, id := range s.reservations {
		if id == reservationID {
			delete(s.reservations, orderID)
			break
		}
	}
	return step.CompensationResult{Success: true, Message: fmt.Sprintf("released reservation %s", reservationID)}
}

func (s *InventoryReservation) CheckValidity(ctx *sagactx.Context) step.ValidityResult {
	reservationID, ok := sagactx.Get(ctx, sagactx.KeyReservationID)
	if !ok {
		return step.ValidityResult{Validity: step.ValidityInvalidRequiresReExecution, Reason: "no prior reservation recorded"}
	}
	for _, id := range s.reservations {
		if id == reservationID {
			return step.ValidityResult{Validity: step.ValidityValid, Reason: "reservation still held"}
		}
	}
	return step.ValidityResult{Validity: step.ValidityExpiredButRefreshable, Reason: "reservation no longer found in ledger"}
}

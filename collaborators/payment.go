package collaborators

import (
	"fmt"

	"ordersaga/clock"
	"ordersaga/sagactx"
	"ordersaga/step"
)

// PaymentProcessing authorizes payment per orderId (the order total is not
// read), declining a configurable set of orderIds so callers can script a failing saga. Like
// InventoryReservation, it is keyed by orderId so at-least-once invocation
// returns the same authorization rather than double-charging.
type PaymentProcessing struct {
	clock clock.Clock

	declinedOrderIDs map[string]bool
	authorizations   map[string]string // orderId -> authorizationId
}

// NewPaymentProcessing builds a collaborator that declines every orderId in
// declinedOrderIDs and authorizes everything else.
func NewPaymentProcessing(clk clock.Clock, declinedOrderIDs ...string) *PaymentProcessing {
	declined := make(map[string]bool, len(declinedOrderIDs))
	for _, id := range declinedOrderIDs {
		declined[id] = true
	}
	return &PaymentProcessing{clock: clk, declinedOrderIDs: declined, authorizations: make(map[string]string)}
}

func (s *PaymentProcessing) Name() string { return "Payment Processing" }

// Decline marks orderID so future Execute calls for it return
// PAYMENT_DECLINED, letting tests and demos flip a saga from success to
// failure without rebuilding the collaborator.
func (s *PaymentProcessing) Decline(orderID string) {
	s.declinedOrderIDs[orderID] = true
}

// Allow reverses Decline.
func (s *PaymentProcessing) Allow(orderID string) {
	delete(s.declinedOrderIDs, orderID)
}

func (s *PaymentProcessing) Execute(ctx *sagactx.Context) step.Result {
	raw, _ := ctx.GetValue("orderId")
	orderID, ok := raw.(string)
	if !ok || orderID == "" {
		return step.Result{Success: false, ErrorCode: "INVALID_INPUT", ErrorMessage: "orderId missing from context"}
	}

	if s.declinedOrderIDs[orderID] {
		return step.Result{
			Success:      false,
			ErrorCode:    "PAYMENT_DECLINED",
			ErrorMessage: "the payment method was declined by the issuer",
		}
	}

	authorizationID, exists := s.authorizations[orderID]
	if !exists {
		authorizationID = "auth-" + s.clock.NewID()
		s.authorizations[orderID] = authorizationID
	}

	return step.Result{
		Success: true,
		Data:    map[string]any{sagactx.KeyAuthorizationID.Name(): authorizationID},
	}
}

func (s *PaymentProcessing) Compensate(ctx *sagactx.Context) step.CompensationResult {
	authorizationID, ok := sagactx.Get(ctx, sagactx.KeyAuthorizationID)
	if !ok || authorizationID == "" {
		return step.CompensationResult{Success: true, Message: "no authorization recorded, nothing to void"}
	}
	for orderID, id := range s.authorizations {
		if id == authorizationID {
			delete(s.authorizations, orderID)
			break
		}
	}
	return step.CompensationResult{Success: true, Message: fmt.Sprintf("voided authorization %s", authorizationID)}
}

func (s *PaymentProcessing) CheckValidity(ctx *sagactx.Context) step.ValidityResult {
	authorizationID, ok := sagactx.Get(ctx, sagactx.KeyAuthorizationID)
	if !ok {
		return step.ValidityResult{Validity: step.ValidityInvalidRequiresReExecution, Reason: "no prior authorization recorded"}
	}
	for _, id := range s.authorizations {
		if id == authorizationID {
			return step.ValidityResult{Validity: step.ValidityValid, Reason: "authorization still active"}
		}
	}
	return step.ValidityResult{Validity: step.ValidityExpiredButRefreshable, Reason: "authorization no longer found"}
}

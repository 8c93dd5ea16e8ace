// Package timeline is the Timeline Projector (spec §4.8): a pure function
// from an order's OrderEvent log to a human-readable OrderTimeline, plus
// the OrderHistory aggregate built from it. Reconstruction is
// deterministic: the same event prefix always yields the same timeline
// (spec §8 property 7), since Project touches nothing but its events
// argument.
package timeline

import (
	"encoding/json"
	"fmt"
	"time"

	"ordersaga/domain"
)

// Status is the closed set of per-entry outcomes a TimelineEntry carries.
type Status string

const (
	StatusSuccess     Status = "SUCCESS"
	StatusFailed      Status = "FAILED"
	StatusCompensated Status = "COMPENSATED"
	StatusNeutral     Status = "NEUTRAL"
)

// TimelineEntry is one human-readable rendering of an OrderEvent.
type TimelineEntry struct {
	Timestamp   time.Time         `json:"timestamp"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      Status            `json:"status"`
	StepName    string            `json:"stepName,omitempty"`
	Error       *domain.ErrorInfo `json:"error,omitempty"`
}

// Project renders events, in the order given, into an OrderTimeline. The
// caller is responsible for passing events already ordered by
// (recordedAt, id) -- the Persistence Gateway's contract for
// ListEventsForOrder.
func Project(events []*domain.OrderEvent) []TimelineEntry {
	entries := make([]TimelineEntry, 0, len(events))
	for _, event := range events {
		entries = append(entries, render(event))
	}
	return entries
}

func render(event *domain.OrderEvent) TimelineEntry {
	stepName := ""
	if event.StepName != nil {
		stepName = *event.StepName
	}
	title, description, status := templateFor(event, stepName)
	return TimelineEntry{
		Timestamp:   event.RecordedAt,
		Title:       title,
		Description: description,
		Status:      status,
		StepName:    stepName,
		Error:       event.ErrorInfo,
	}
}

// templateFor maps (eventType, stepName) to a title/description/status per
// spec §4.8. Unrecognized step names fall back to a generic rendering of
// the event type so a new collaborator step never produces an empty
// timeline entry.
func templateFor(event *domain.OrderEvent, stepName string) (title, description string, status Status) {
	switch event.EventType {
	case domain.EventOrderCreated:
		return "Order Created", "The order was received and a saga was started", StatusNeutral
	case domain.EventSagaStarted:
		return "Processing Started", "The orchestrator began executing the order's saga", StatusNeutral
	case domain.EventStepStarted:
		return fmt.Sprintf("%s Started", stepName), fmt.Sprintf("%s is in progress", stepName), StatusNeutral
	case domain.EventStepCompleted:
		return stepCompletedTemplate(stepName, event.Details)
	case domain.EventStepFailed:
		return stepFailedTemplate(stepName, event.ErrorInfo)
	case domain.EventCompensationStarted:
		return "Compensation Started", "Reversing previously completed steps", StatusNeutral
	case domain.EventStepCompensated:
		return stepCompensatedTemplate(stepName, event.Outcome, event.ErrorInfo)
	case domain.EventSagaCompleted:
		return "Saga Completed", "All steps completed successfully", StatusSuccess
	case domain.EventSagaFailed:
		return "Saga Failed", "The saga could not complete", StatusFailed
	case domain.EventSagaCompensated:
		return "Saga Compensated", "All completed steps were reversed", StatusCompensated
	case domain.EventRetryInitiated:
		return "Retry Initiated", retryDescription(event.Details), StatusNeutral
	case domain.EventOrderCompleted:
		return "Order Completed", "The order was fulfilled", StatusSuccess
	case domain.EventOrderCancelled:
		return "Order Cancelled", "The order could not be fulfilled and was cancelled", StatusCompensated
	default:
		return string(event.EventType), "", StatusNeutral
	}
}

func stepCompletedTemplate(stepName string, details []byte) (string, string, Status) {
	switch stepName {
	case "Inventory Reservation":
		return "Inventory Reserved", detailOrDefault(details, "RESERVATION_ID", "Items were reserved"), StatusSuccess
	case "Payment Processing":
		return "Payment Processed", detailOrDefault(details, "AUTHORIZATION_ID", "Payment was authorized"), StatusSuccess
	case "Shipping Arrangement":
		return "Shipment Arranged", detailOrDefault(details, "TRACKING_NUMBER", "Shipment was arranged"), StatusSuccess
	default:
		return fmt.Sprintf("%s Completed", stepName), fmt.Sprintf("%s completed successfully", stepName), StatusSuccess
	}
}

func stepFailedTemplate(stepName string, info *domain.ErrorInfo) (string, string, Status) {
	description := fmt.Sprintf("%s did not succeed", stepName)
	if info != nil {
		description = info.Message
	}
	switch stepName {
	case "Payment Processing":
		return "Payment Failed", description, StatusFailed
	case "Inventory Reservation":
		return "Inventory Unavailable", description, StatusFailed
	case "Shipping Arrangement":
		return "Shipping Failed", description, StatusFailed
	default:
		return fmt.Sprintf("%s Failed", stepName), description, StatusFailed
	}
}

func stepCompensatedTemplate(stepName string, outcome domain.Outcome, failure *domain.ErrorInfo) (string, string, Status) {
	if outcome == domain.OutcomeFailed {
		description := fmt.Sprintf("Reversing %s failed", stepName)
		if failure != nil {
			description = failure.Message
		}
		return fmt.Sprintf("%s Compensation Failed", stepName), description, StatusFailed
	}
	switch stepName {
	case "Inventory Reservation":
		return "Inventory Released", "The reservation was released", StatusCompensated
	case "Payment Processing":
		return "Payment Voided", "The authorization was voided", StatusCompensated
	case "Shipping Arrangement":
		return "Shipment Cancelled", "The shipment was cancelled", StatusCompensated
	default:
		return fmt.Sprintf("%s Reversed", stepName), fmt.Sprintf("%s was reversed", stepName), StatusCompensated
	}
}

// detailOrDefault extracts key from JSON-encoded details for a one-line
// description, falling back to fallback when the key is absent.
func detailOrDefault(details []byte, key, fallback string) string {
	if len(details) == 0 {
		return fallback
	}
	var parsed map[string]any
	if err := json.Unmarshal(details, &parsed); err != nil {
		return fallback
	}
	value, ok := parsed[key]
	if !ok {
		return fallback
	}
	return fmt.Sprintf("%s: %v", key, value)
}

func retryDescription(details []byte) string {
	if len(details) == 0 {
		return "A retry execution was created"
	}
	var parsed struct {
		AttemptNumber int `json:"attemptNumber"`
	}
	if err := json.Unmarshal(details, &parsed); err != nil {
		return "A retry execution was created"
	}
	return fmt.Sprintf("Retry attempt %d was initiated", parsed.AttemptNumber)
}

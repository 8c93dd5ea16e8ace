// Package statusstream is the Status Stream (spec §4.9): a per-order
// broadcast of every committed SagaExecution transition, so a caller waiting
// on an order's outcome never has to poll the Persistence Gateway. Hub is
// the in-process subscriber registry; Publisher additionally fans transitions
// out over NATS so other processes can subscribe to the same feed.
package statusstream

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"ordersaga/domain"
	"ordersaga/logging"
)

// Update is one message delivered to a Status Stream subscriber.
type Update struct {
	OrderID     string                     `json:"orderId"`
	ExecutionID string                     `json:"executionId"`
	Status      domain.SagaExecutionStatus `json:"status"`
	EventType   domain.EventType           `json:"eventType"`
	StepName    string                     `json:"stepName,omitempty"`
	RecordedAt  time.Time                  `json:"recordedAt"`
}

// subscription is one Subscribe call's channel plus the unsubscribe key.
type subscription struct {
	id string
	ch chan Update
}

// Hub fans each Publish call out to every subscriber currently registered
// for that order. Subscribers that are not draining their channel do not
// block the publisher: Publish drops an update for a full channel rather
// than wait, logging the drop.
type Hub struct {
	mu     sync.Mutex
	subs   map[string][]subscription
	buffer int
	logger logging.ILogger
	nextID uint64
}

// NewHub builds a Hub. buffer sets each subscriber channel's capacity; a
// subscriber slower than the publish rate by more than buffer updates starts
// losing updates rather than stalling the saga engine.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[string][]subscription),
		buffer: buffer,
		logger: logging.ComponentLogger("statusstream.hub"),
	}
}

// Subscribe registers a new listener for orderID and returns its channel and
// an Unsubscribe func. The channel is closed by Unsubscribe, never by Hub on
// its own, so callers must always call the returned func to avoid leaking
// the subscription.
func (h *Hub) Subscribe(orderID string) (<-chan Update, func()) {
	h.mu.Lock()
	h.nextID++
	id := strconv.FormatUint(h.nextID, 36)
	sub := subscription{id: id, ch: make(chan Update, h.buffer)}
	h.subs[orderID] = append(h.subs[orderID], sub)
	h.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			remaining := h.subs[orderID][:0]
			for _, s := range h.subs[orderID] {
				if s.id != id {
					remaining = append(remaining, s)
				}
			}
			if len(remaining) == 0 {
				delete(h.subs, orderID)
			} else {
				h.subs[orderID] = remaining
			}
			close(sub.ch)
		})
	}
	return sub.ch, unsubscribe
}

// Publish implements sagaengine.StatusPublisher. It never blocks: a full
// subscriber channel causes that one update to be dropped, not the caller.
func (h *Hub) Publish(orderID string, exec *domain.SagaExecution, event *domain.OrderEvent) {
	update := toUpdate(orderID, exec, event)

	h.mu.Lock()
	subs := append([]subscription(nil), h.subs[orderID]...)
	h.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- update:
		default:
			h.logger.Warn(context.Background(), "dropping status update for slow subscriber",
				logging.String("orderId", orderID), logging.String("subscriptionId", s.id))
		}
	}
}

func toUpdate(orderID string, exec *domain.SagaExecution, event *domain.OrderEvent) Update {
	if event == nil {
		return Update{OrderID: orderID, ExecutionID: exec.ID, Status: exec.Status}
	}
	stepName := ""
	if event.StepName != nil {
		stepName = *event.StepName
	}
	return Update{
		OrderID:     orderID,
		ExecutionID: exec.ID,
		Status:      exec.Status,
		EventType:   event.EventType,
		StepName:    stepName,
		RecordedAt:  event.RecordedAt,
	}
}

func (u Update) marshal() ([]byte, error) {
	return json.Marshal(u)
}

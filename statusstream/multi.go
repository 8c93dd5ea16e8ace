package statusstream

import "ordersaga/domain"

// Multi fans a single Publish call out to several StatusPublishers, so an
// Engine can be wired with both an in-process Hub and a NATSPublisher via
// one sagaengine.WithPublisher option.
type Multi []interface {
	Publish(orderID string, exec *domain.SagaExecution, event *domain.OrderEvent)
}

// Publish implements sagaengine.StatusPublisher by calling every element in
// order.
func (m Multi) Publish(orderID string, exec *domain.SagaExecution, event *domain.OrderEvent) {
	for _, p := range m {
		p.Publish(orderID, exec, event)
	}
}

package statusstream

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"ordersaga/domain"
	"ordersaga/logging"
)

// NATSConfig configures the NATS-backed fan-out publisher.
type NATSConfig struct {
	URL    string
	Prefix string // defaults to "orders"; subjects are "<Prefix>.<orderId>.status"
	Conn   *nats.Conn
}

// NATSPublisher fans every status update out onto NATS core pub/sub (not
// JetStream: a missed update is re-derivable by polling the Persistence
// Gateway, so Status Stream delivery does not need durability). Subscribers
// listen on "<prefix>.<orderId>.status".
type NATSPublisher struct {
	conn     *nats.Conn
	ownsConn bool
	prefix   string
	logger   logging.ILogger
}

// NewNATSPublisher connects (or reuses cfg.Conn) and returns a ready
// publisher. Callers own shutdown via Close.
func NewNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = "orders"
	}
	conn := cfg.Conn
	ownsConn := false
	if conn == nil {
		url := cfg.URL
		if url == "" {
			url = nats.DefaultURL
		}
		var err error
		conn, err = nats.Connect(url)
		if err != nil {
			return nil, err
		}
		ownsConn = true
	}
	return &NATSPublisher{
		conn:     conn,
		ownsConn: ownsConn,
		prefix:   cfg.Prefix,
		logger:   logging.ComponentLogger("statusstream.nats"),
	}, nil
}

// Publish implements sagaengine.StatusPublisher.
func (p *NATSPublisher) Publish(orderID string, exec *domain.SagaExecution, event *domain.OrderEvent) {
	update := toUpdate(orderID, exec, event)
	data, err := update.marshal()
	if err != nil {
		p.logger.Warn(context.Background(), "failed to marshal status update", logging.String("orderId", orderID), logging.Error(err))
		return
	}
	if err := p.conn.Publish(p.subject(orderID), data); err != nil {
		p.logger.Warn(context.Background(), "failed to publish status update", logging.String("orderId", orderID), logging.Error(err))
	}
}

func (p *NATSPublisher) subject(orderID string) string {
	return fmt.Sprintf("%s.%s.status", p.prefix, orderID)
}

// Close drains and closes the connection if this publisher opened it.
func (p *NATSPublisher) Close() {
	if p.ownsConn && p.conn != nil {
		p.conn.Close()
	}
}

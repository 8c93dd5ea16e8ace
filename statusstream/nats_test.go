package statusstream

import (
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNATSPublisher_SubjectUsesPrefixAndOrderID(t *testing.T) {
	p := &NATSPublisher{prefix: "orders"}
	assert.Equal(t, "orders.order-123.status", p.subject("order-123"))
}

func TestNATSPublisher_SubjectHonorsCustomPrefix(t *testing.T) {
	p := &NATSPublisher{prefix: "sagas"}
	assert.Equal(t, "sagas.order-abc.status", p.subject("order-abc"))
}

func TestNewNATSPublisher_DefaultsPrefixWhenUnset(t *testing.T) {
	// A supplied Conn skips dialing, so no NATS server is needed.
	p, err := NewNATSPublisher(NATSConfig{Conn: &nats.Conn{}})
	require.NoError(t, err)
	assert.Equal(t, "orders.order-1.status", p.subject("order-1"))
}

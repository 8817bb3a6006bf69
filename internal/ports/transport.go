package ports

import (
	"time"

	"github.com/ghalamif/EdgeHub/internal/domain"
)

// MessageListener receives inbound payloads already resolved to a resource.
type MessageListener interface {
	HandleInboundMessage(res domain.ResourceID, payload []byte) bool
}

// PubSubClient is a broker connection that publishes and subscribes by
// ResourceID. Inbound messages on unresolvable addresses never reach the
// listener.
type PubSubClient interface {
	Name() string
	Connect() error
	Disconnect() error
	IsConnected() bool
	Publish(res domain.ResourceID, payload []byte, qos int) error
	Subscribe(res domain.ResourceID, qos int) error
	Unsubscribe(res domain.ResourceID) error
	SetMessageListener(l MessageListener)
}

// RequestResponseClient is the best-effort secondary path. Every call is a
// single attempt that reports success without surfacing the response body.
type RequestResponseClient interface {
	DiscoverResources(timeout time.Duration) bool
	Get(res domain.ResourceID, timeout time.Duration) bool
	Post(res domain.ResourceID, payload []byte, timeout time.Duration) bool
	Put(res domain.ResourceID, payload []byte, timeout time.Duration) bool
	Delete(res domain.ResourceID, timeout time.Duration) bool
	Observe(res domain.ResourceID, timeout time.Duration) bool
	CancelObserve(res domain.ResourceID, timeout time.Duration) bool
	SetMessageListener(l MessageListener)
	Close() error
}

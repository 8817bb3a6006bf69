package nats

import (
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

type Config struct {
	URL     string        `yaml:"url"`
	Name    string        `yaml:"name"`
	Timeout time.Duration `yaml:"timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	if c.Name == "" {
		c.Name = "edgehub"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

// Client publishes on subjects derived from resource topics. NATS core has no
// delivery guarantees so qos is validated and otherwise ignored.
type Client struct {
	cfg Config
	obs ports.Observability

	mu       sync.Mutex
	nc       *nats.Conn
	closed   chan struct{}
	subs     map[domain.ResourceID]*nats.Subscription
	listener ports.MessageListener
}

func New(cfg Config, obs ports.Observability) *Client {
	cfg.ApplyDefaults()
	return &Client{cfg: cfg, obs: obs, subs: make(map[domain.ResourceID]*nats.Subscription)}
}

func (c *Client) Name() string { return "nats" }

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nc != nil && c.nc.IsConnected() {
		return nil
	}
	closed := make(chan struct{})
	nc, err := nats.Connect(c.cfg.URL,
		nats.Name(c.cfg.Name),
		nats.Timeout(c.cfg.Timeout),
		nats.DrainTimeout(c.cfg.Timeout),
		nats.MaxReconnects(-1),
		nats.ClosedHandler(func(*nats.Conn) { close(closed) }),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				c.obs.LogWarn("nats_disconnected", ports.F("url", c.cfg.URL), ports.F("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			c.obs.LogInfo("nats_reconnected", ports.F("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return fmt.Errorf("nats connect %s: %w", c.cfg.URL, err)
	}
	c.nc = nc
	c.closed = closed
	c.obs.LogInfo("nats_connected", ports.F("url", c.cfg.URL))
	return nil
}

// Disconnect drains active subscriptions and waits for the connection to
// close. A drain that overruns the timeout is cut short by Close.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	nc, closed := c.nc, c.closed
	c.nc, c.closed = nil, nil
	c.subs = make(map[domain.ResourceID]*nats.Subscription)
	c.mu.Unlock()
	if nc == nil {
		return nil
	}

	if err := nc.Drain(); err != nil {
		nc.Close()
		if err == nats.ErrConnectionClosed {
			return nil
		}
		return fmt.Errorf("nats drain: %w", err)
	}
	select {
	case <-closed:
	case <-time.After(c.cfg.Timeout + time.Second):
		c.obs.LogWarn("nats_drain_timeout", ports.F("url", c.cfg.URL))
		nc.Close()
	}
	c.obs.LogInfo("nats_disconnected", ports.F("url", c.cfg.URL))
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nc != nil && c.nc.IsConnected()
}

func (c *Client) Publish(res domain.ResourceID, payload []byte, qos int) error {
	switch {
	case !res.Valid():
		return domain.ErrUnknownResource
	case len(payload) == 0:
		return domain.ErrEmptyPayload
	case qos < 0 || qos > 2:
		return domain.ErrInvalidQoS
	}
	c.mu.Lock()
	nc := c.nc
	c.mu.Unlock()
	if nc == nil || !nc.IsConnected() {
		return domain.ErrNotConnected
	}
	if err := nc.Publish(res.Subject(), payload); err != nil {
		return fmt.Errorf("nats publish %s: %w", res.Subject(), err)
	}
	return nil
}

func (c *Client) Subscribe(res domain.ResourceID, qos int) error {
	if !res.Valid() {
		return domain.ErrUnknownResource
	}
	if qos < 0 || qos > 2 {
		return domain.ErrInvalidQoS
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subs[res]; ok {
		return nil
	}
	if c.nc == nil || !c.nc.IsConnected() {
		return domain.ErrNotConnected
	}
	sub, err := c.nc.Subscribe(res.Subject(), func(m *nats.Msg) {
		c.handleMessage(m.Subject, m.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", res.Subject(), err)
	}
	c.subs[res] = sub
	c.obs.LogInfo("nats_subscribed", ports.F("subject", res.Subject()))
	return nil
}

func (c *Client) Unsubscribe(res domain.ResourceID) error {
	c.mu.Lock()
	sub, ok := c.subs[res]
	delete(c.subs, res)
	c.mu.Unlock()
	if !ok {
		return nil
	}
	return sub.Unsubscribe()
}

func (c *Client) SetMessageListener(l ports.MessageListener) {
	c.mu.Lock()
	c.listener = l
	c.mu.Unlock()
}

func (c *Client) handleMessage(subject string, payload []byte) bool {
	res, ok := domain.ResourceFromSubject(subject)
	if !ok {
		c.obs.RecordDropped("nats_inbound", domain.ErrUnknownResource, ports.F("subject", subject))
		return false
	}
	c.mu.Lock()
	l := c.listener
	c.mu.Unlock()
	if l == nil {
		return false
	}
	return l.HandleInboundMessage(res, payload)
}

var _ ports.PubSubClient = (*Client)(nil)

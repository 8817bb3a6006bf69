package coap

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/plgd-dev/go-coap/v3/message"
	"github.com/plgd-dev/go-coap/v3/message/codes"
	"github.com/plgd-dev/go-coap/v3/message/pool"
	"github.com/plgd-dev/go-coap/v3/udp"
	udpclient "github.com/plgd-dev/go-coap/v3/udp/client"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

const discoveryPath = "/.well-known/core"

type Config struct {
	Enabled bool          `yaml:"enabled"`
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5683
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type canceler interface {
	Cancel(ctx context.Context, opts ...message.Option) error
}

// exchanger performs one CoAP request. It hides the library connection so
// the client logic can run against a fake.
type exchanger interface {
	exchange(ctx context.Context, method codes.Code, path string, payload []byte) (codes.Code, []byte, error)
	observe(ctx context.Context, path string, fn func(codes.Code, []byte)) (canceler, error)
	close() error
}

// Client is the best-effort ports.RequestResponseClient. Each call is one
// attempt bounded by its timeout; failures are logged and reported as false.
type Client struct {
	cfg Config
	obs ports.Observability
	ex  exchanger

	mu        sync.Mutex
	listener  ports.MessageListener
	observing map[domain.ResourceID]canceler
}

// Dial binds a UDP socket to the configured server. No traffic is sent
// until the first request.
func Dial(cfg Config, obs ports.Observability) (*Client, error) {
	cfg.ApplyDefaults()
	conn, err := udp.Dial(cfg.Address())
	if err != nil {
		return nil, fmt.Errorf("coap dial %s: %w", cfg.Address(), err)
	}
	return newClient(cfg, obs, &udpExchanger{conn: conn}), nil
}

func newClient(cfg Config, obs ports.Observability, ex exchanger) *Client {
	cfg.ApplyDefaults()
	return &Client{cfg: cfg, obs: obs, ex: ex, observing: make(map[domain.ResourceID]canceler)}
}

func (c *Client) timeout(d time.Duration) time.Duration {
	if d <= 0 {
		return c.cfg.Timeout
	}
	return d
}

func (c *Client) do(method codes.Code, path string, payload []byte, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout(timeout))
	defer cancel()

	code, body, err := c.ex.exchange(ctx, method, path, payload)
	if err != nil {
		c.obs.LogWarn("coap_request_failed",
			ports.F("method", method.String()), ports.F("path", path), ports.F("error", err.Error()))
		return false
	}
	ok := success(code)
	fields := []ports.Field{ports.F("method", method.String()), ports.F("path", path), ports.F("code", code.String())}
	if len(body) > 0 {
		fields = append(fields, ports.F("body", string(body)))
	}
	if ok {
		c.obs.LogDebug("coap_response", fields...)
	} else {
		c.obs.LogWarn("coap_response_error", fields...)
	}
	return ok
}

func success(code codes.Code) bool {
	return code >= codes.Created && code < codes.BadRequest
}

// DiscoverResources fetches the server's link-format resource listing.
func (c *Client) DiscoverResources(timeout time.Duration) bool {
	return c.do(codes.GET, discoveryPath, nil, timeout)
}

func (c *Client) Get(res domain.ResourceID, timeout time.Duration) bool {
	if !c.routable(res) {
		return false
	}
	return c.do(codes.GET, res.Path(), nil, timeout)
}

func (c *Client) Delete(res domain.ResourceID, timeout time.Duration) bool {
	if !c.routable(res) {
		return false
	}
	return c.do(codes.DELETE, res.Path(), nil, timeout)
}

func (c *Client) Post(res domain.ResourceID, payload []byte, timeout time.Duration) bool {
	if !c.routable(res) || !c.hasPayload(res, payload) {
		return false
	}
	return c.do(codes.POST, res.Path(), payload, timeout)
}

func (c *Client) Put(res domain.ResourceID, payload []byte, timeout time.Duration) bool {
	if !c.routable(res) || !c.hasPayload(res, payload) {
		return false
	}
	return c.do(codes.PUT, res.Path(), payload, timeout)
}

// Observe registers for change notifications on res. Each notification with
// a body is forwarded to the message listener.
func (c *Client) Observe(res domain.ResourceID, timeout time.Duration) bool {
	if !c.routable(res) {
		return false
	}
	c.mu.Lock()
	_, active := c.observing[res]
	c.mu.Unlock()
	if active {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout(timeout))
	defer cancel()
	obs, err := c.ex.observe(ctx, res.Path(), func(code codes.Code, body []byte) {
		c.onNotification(res, code, body)
	})
	if err != nil {
		c.obs.LogWarn("coap_observe_failed", ports.F("path", res.Path()), ports.F("error", err.Error()))
		return false
	}
	c.mu.Lock()
	c.observing[res] = obs
	c.mu.Unlock()
	c.obs.LogInfo("coap_observing", ports.F("path", res.Path()))
	return true
}

func (c *Client) CancelObserve(res domain.ResourceID, timeout time.Duration) bool {
	c.mu.Lock()
	obs, ok := c.observing[res]
	delete(c.observing, res)
	c.mu.Unlock()
	if !ok {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout(timeout))
	defer cancel()
	if err := obs.Cancel(ctx); err != nil {
		c.obs.LogWarn("coap_cancel_observe_failed", ports.F("path", res.Path()), ports.F("error", err.Error()))
		return false
	}
	return true
}

func (c *Client) onNotification(res domain.ResourceID, code codes.Code, body []byte) {
	if !success(code) || len(body) == 0 {
		c.obs.LogDebug("coap_notification_skipped", ports.F("path", res.Path()), ports.F("code", code.String()))
		return
	}
	c.mu.Lock()
	l := c.listener
	c.mu.Unlock()
	if l != nil {
		l.HandleInboundMessage(res, body)
	}
}

func (c *Client) SetMessageListener(l ports.MessageListener) {
	c.mu.Lock()
	c.listener = l
	c.mu.Unlock()
}

// Close cancels outstanding observations and releases the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	pending := c.observing
	c.observing = make(map[domain.ResourceID]canceler)
	c.mu.Unlock()
	for res, obs := range pending {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
		if err := obs.Cancel(ctx); err != nil {
			c.obs.LogDebug("coap_cancel_observe_failed", ports.F("path", res.Path()), ports.F("error", err.Error()))
		}
		cancel()
	}
	return c.ex.close()
}

func (c *Client) routable(res domain.ResourceID) bool {
	if res.Valid() {
		return true
	}
	c.obs.RecordDropped("coap_request", domain.ErrUnknownResource)
	return false
}

func (c *Client) hasPayload(res domain.ResourceID, payload []byte) bool {
	if len(payload) > 0 {
		return true
	}
	c.obs.RecordDropped("coap_request", domain.ErrEmptyPayload, ports.F("path", res.Path()))
	return false
}

type udpExchanger struct {
	conn *udpclient.Conn
}

func (u *udpExchanger) exchange(ctx context.Context, method codes.Code, path string, payload []byte) (codes.Code, []byte, error) {
	var (
		resp *pool.Message
		err  error
	)
	switch method {
	case codes.GET:
		resp, err = u.conn.Get(ctx, path)
	case codes.DELETE:
		resp, err = u.conn.Delete(ctx, path)
	case codes.POST:
		resp, err = u.conn.Post(ctx, path, message.AppJSON, bytes.NewReader(payload))
	case codes.PUT:
		resp, err = u.conn.Put(ctx, path, message.AppJSON, bytes.NewReader(payload))
	default:
		return 0, nil, fmt.Errorf("coap: unsupported method %s", method)
	}
	if err != nil {
		return 0, nil, err
	}
	body, err := resp.ReadBody()
	if err != nil {
		return resp.Code(), nil, err
	}
	return resp.Code(), body, nil
}

func (u *udpExchanger) observe(ctx context.Context, path string, fn func(codes.Code, []byte)) (canceler, error) {
	return u.conn.Observe(ctx, path, func(m *pool.Message) {
		body, err := m.ReadBody()
		if err != nil {
			return
		}
		fn(m.Code(), body)
	})
}

func (u *udpExchanger) close() error { return u.conn.Close() }

var _ ports.RequestResponseClient = (*Client)(nil)

package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

// Config describes the broker connection.
type Config struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	KeepAlive      time.Duration `yaml:"keep_alive"`
	ClientID       string        `yaml:"client_id"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	CleanSession   bool          `yaml:"clean_session"`
}

func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 1883
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = 60 * time.Second
	}
	if c.ClientID == "" {
		c.ClientID = "edgehub-" + uuid.NewString()
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.KeepAlive < time.Second {
		return errors.New("keep_alive must be at least 1s")
	}
	return nil
}

func (c Config) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.Host, c.Port)
}

// Client is the paho-backed ports.PubSubClient.
type Client struct {
	cfg Config
	obs ports.Observability

	mu       sync.Mutex
	client   paho.Client
	subs     map[domain.ResourceID]byte
	listener ports.MessageListener
}

func New(cfg Config, obs ports.Observability) *Client {
	cfg.ApplyDefaults()
	return &Client{cfg: cfg, obs: obs, subs: make(map[domain.ResourceID]byte)}
}

func (c *Client) Name() string { return "mqtt" }

// Connect dials the broker and blocks until the CONNACK or the connect
// timeout. Calling it while connected is a no-op; a client that is still
// retrying in the background is shut down first.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		if c.client.IsConnected() {
			return nil
		}
		// a reconnecting client keeps the same client id and would evict the new session
		c.client.Disconnect(0)
		c.client = nil
	}

	opts := paho.NewClientOptions().
		AddBroker(c.cfg.BrokerURL()).
		SetClientID(c.cfg.ClientID).
		SetCleanSession(c.cfg.CleanSession).
		SetKeepAlive(c.cfg.KeepAlive).
		SetConnectTimeout(c.cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetOrderMatters(false)
	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
		opts.SetPassword(c.cfg.Password)
	}
	opts.SetDefaultPublishHandler(c.onMessage)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.obs.LogWarn("mqtt_connection_lost", ports.F("broker", c.cfg.BrokerURL()), ports.F("error", err.Error()))
	})
	opts.SetOnConnectHandler(func(cl paho.Client) {
		c.obs.LogInfo("mqtt_connected", ports.F("broker", c.cfg.BrokerURL()), ports.F("client_id", c.cfg.ClientID))
		c.resubscribe(cl)
	})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		client.Disconnect(0)
		return fmt.Errorf("mqtt connect %s: %w", c.cfg.BrokerURL(), errors.New("timed out"))
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", c.cfg.BrokerURL(), err)
	}
	c.client = client
	return nil
}

// resubscribe restores the subscription set after an automatic reconnect.
func (c *Client) resubscribe(cl paho.Client) {
	c.mu.Lock()
	filters := make(map[string]byte, len(c.subs))
	for res, qos := range c.subs {
		filters[res.Topic()] = qos
	}
	c.mu.Unlock()
	if len(filters) == 0 {
		return
	}
	cl.SubscribeMultiple(filters, c.onMessage)
}

func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	c.client.Disconnect(250)
	c.client = nil
	c.obs.LogInfo("mqtt_disconnected", ports.F("broker", c.cfg.BrokerURL()))
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil && c.client.IsConnected()
}

func (c *Client) connected() (paho.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil || !c.client.IsConnected() {
		return nil, domain.ErrNotConnected
	}
	return c.client, nil
}

func (c *Client) Publish(res domain.ResourceID, payload []byte, qos int) error {
	if err := checkPublish(res, payload, qos); err != nil {
		return err
	}
	client, err := c.connected()
	if err != nil {
		return err
	}
	token := client.Publish(res.Topic(), byte(qos), false, payload)
	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		return fmt.Errorf("mqtt publish %s: %w", res.Topic(), domain.ErrTransport)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", res.Topic(), err)
	}
	return nil
}

// Subscribe adds res to the subscription set. Resubscribing is a no-op.
func (c *Client) Subscribe(res domain.ResourceID, qos int) error {
	if !res.Valid() {
		return domain.ErrUnknownResource
	}
	if qos < 0 || qos > 2 {
		return domain.ErrInvalidQoS
	}
	c.mu.Lock()
	_, exists := c.subs[res]
	c.mu.Unlock()
	if exists {
		return nil
	}
	client, err := c.connected()
	if err != nil {
		return err
	}
	token := client.Subscribe(res.Topic(), byte(qos), c.onMessage)
	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		return fmt.Errorf("mqtt subscribe %s: %w", res.Topic(), domain.ErrTransport)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", res.Topic(), err)
	}
	c.mu.Lock()
	c.subs[res] = byte(qos)
	c.mu.Unlock()
	c.obs.LogInfo("mqtt_subscribed", ports.F("topic", res.Topic()), ports.F("qos", qos))
	return nil
}

func (c *Client) Unsubscribe(res domain.ResourceID) error {
	c.mu.Lock()
	_, exists := c.subs[res]
	delete(c.subs, res)
	c.mu.Unlock()
	if !exists {
		return nil
	}
	client, err := c.connected()
	if err != nil {
		return err
	}
	token := client.Unsubscribe(res.Topic())
	if !token.WaitTimeout(c.cfg.ConnectTimeout) {
		return fmt.Errorf("mqtt unsubscribe %s: %w", res.Topic(), domain.ErrTransport)
	}
	return token.Error()
}

func (c *Client) SetMessageListener(l ports.MessageListener) {
	c.mu.Lock()
	c.listener = l
	c.mu.Unlock()
}

// Subscriptions returns the current subscription set.
func (c *Client) Subscriptions() []domain.ResourceID {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ResourceID, 0, len(c.subs))
	for res := range c.subs {
		out = append(out, res)
	}
	return out
}

func (c *Client) onMessage(_ paho.Client, msg paho.Message) {
	c.handleMessage(msg.Topic(), msg.Payload())
}

// handleMessage resolves topic and forwards to the listener. Unroutable
// topics never reach the listener.
func (c *Client) handleMessage(topic string, payload []byte) bool {
	res, ok := domain.ResourceFromTopic(topic)
	if !ok {
		c.obs.RecordDropped("mqtt_inbound", domain.ErrUnknownResource, ports.F("topic", topic))
		return false
	}
	c.mu.Lock()
	l := c.listener
	c.mu.Unlock()
	if l == nil {
		c.obs.LogDebug("mqtt_no_listener", ports.F("topic", topic))
		return false
	}
	return l.HandleInboundMessage(res, payload)
}

func checkPublish(res domain.ResourceID, payload []byte, qos int) error {
	if !res.Valid() {
		return domain.ErrUnknownResource
	}
	if len(payload) == 0 {
		return domain.ErrEmptyPayload
	}
	if qos < 0 || qos > 2 {
		return domain.ErrInvalidQoS
	}
	return nil
}

var _ ports.PubSubClient = (*Client)(nil)

package mqtt

import (
	"errors"
	"net"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/testutil"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "tcp://localhost:1883", cfg.BrokerURL())
	assert.Equal(t, 60*time.Second, cfg.KeepAlive)
	assert.Contains(t, cfg.ClientID, "edgehub-")

	other := Config{}
	other.ApplyDefaults()
	assert.NotEqual(t, cfg.ClientID, other.ClientID)

	bad := Config{Port: 70000}
	bad.ApplyDefaults()
	assert.Error(t, bad.Validate())
}

func TestPublishWithoutConnection(t *testing.T) {
	c := New(Config{}, testutil.NewObs())
	assert.False(t, c.IsConnected())

	err := c.Publish(domain.CDASensorMsg, []byte(`{}`), 1)
	assert.True(t, errors.Is(err, domain.ErrNotConnected))
	assert.ErrorIs(t, c.Subscribe(domain.CDAActuatorCmd, 1), domain.ErrNotConnected)
	assert.NoError(t, c.Disconnect())
}

func TestPublishRejectsBadArguments(t *testing.T) {
	c := New(Config{}, testutil.NewObs())
	assert.ErrorIs(t, c.Publish(domain.ResourceUnknown, []byte("x"), 0), domain.ErrUnknownResource)
	assert.ErrorIs(t, c.Publish(domain.CDASensorMsg, nil, 0), domain.ErrEmptyPayload)
	assert.ErrorIs(t, c.Publish(domain.CDASensorMsg, []byte("x"), 3), domain.ErrInvalidQoS)
	assert.ErrorIs(t, c.Subscribe(domain.CDASensorMsg, -1), domain.ErrInvalidQoS)
}

func TestHandleMessageRouting(t *testing.T) {
	obs := testutil.NewObs()
	c := New(Config{}, obs)
	assert.False(t, c.handleMessage(domain.CDAActuatorCmd.Topic(), []byte("x")), "no listener registered")

	l := testutil.NewListener(4)
	c.SetMessageListener(l)

	assert.True(t, c.handleMessage(domain.CDAActuatorCmd.Topic(), []byte(`{"command":1}`)))
	got := <-l.C
	assert.Equal(t, domain.CDAActuatorCmd, got.Resource)
	assert.Equal(t, `{"command":1}`, string(got.Payload))

	assert.False(t, c.handleMessage("PIOT/Elsewhere/Thing", []byte("x")))
	assert.Len(t, l.C, 0)
	assert.Equal(t, 1, obs.DroppedAt("mqtt_inbound"))
}

func startBroker(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	server := mochi.New(nil)
	require.NoError(t, server.AddHook(new(auth.AllowHook), nil))
	tcp := listeners.NewTCP(listeners.Config{Type: "tcp", ID: "edgehub-test", Address: ln.Addr().String()})
	require.NoError(t, server.AddListener(tcp))
	require.NoError(t, server.Serve())
	t.Cleanup(func() { _ = server.Close() })
	return port
}

func TestRoundTripThroughBroker(t *testing.T) {
	port := startBroker(t)
	obs := testutil.NewObs()
	c := New(Config{Host: "127.0.0.1", Port: port, ConnectTimeout: 5 * time.Second, CleanSession: true}, obs)
	l := testutil.NewListener(4)
	c.SetMessageListener(l)

	require.NoError(t, c.Connect())
	t.Cleanup(func() { _ = c.Disconnect() })
	require.NoError(t, c.Connect(), "second connect is a no-op")
	require.True(t, c.IsConnected())

	require.NoError(t, c.Subscribe(domain.CDAActuatorCmd, 1))
	require.NoError(t, c.Subscribe(domain.CDAActuatorCmd, 1))
	assert.Len(t, c.Subscriptions(), 1)

	require.NoError(t, c.Publish(domain.CDAActuatorCmd, []byte(`{"name":"HvacActuator"}`), 1))
	select {
	case got := <-l.C:
		assert.Equal(t, domain.CDAActuatorCmd, got.Resource)
		assert.JSONEq(t, `{"name":"HvacActuator"}`, string(got.Payload))
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}

	require.NoError(t, c.Unsubscribe(domain.CDAActuatorCmd))
	assert.Empty(t, c.Subscriptions())
	require.NoError(t, c.Disconnect())
	assert.False(t, c.IsConnected())
	require.NoError(t, c.Disconnect())
}

// reconnectingClient stands in for a paho client that lost its broker and
// is retrying in the background.
type reconnectingClient struct {
	paho.Client
	disconnects int
}

func (r *reconnectingClient) IsConnected() bool { return false }
func (r *reconnectingClient) Disconnect(uint)   { r.disconnects++ }

func TestConnectReplacesReconnectingClient(t *testing.T) {
	port := startBroker(t)
	c := New(Config{Host: "127.0.0.1", Port: port, ConnectTimeout: 5 * time.Second, CleanSession: true}, testutil.NewObs())
	stale := &reconnectingClient{}
	c.client = stale

	require.NoError(t, c.Connect())
	t.Cleanup(func() { _ = c.Disconnect() })

	assert.Equal(t, 1, stale.disconnects, "stale client must be shut down")
	assert.True(t, c.IsConnected())
	assert.NotSame(t, stale, c.client)
}

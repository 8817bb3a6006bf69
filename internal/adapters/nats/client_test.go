package nats

import (
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/testutil"
)

func TestDefaults(t *testing.T) {
	c := New(Config{}, testutil.NewObs())
	assert.Equal(t, "nats://127.0.0.1:4222", c.cfg.URL)
	assert.Equal(t, "edgehub", c.cfg.Name)
	assert.Equal(t, "nats", c.Name())
}

func TestPublishWithoutConnection(t *testing.T) {
	c := New(Config{}, testutil.NewObs())
	assert.False(t, c.IsConnected())
	assert.ErrorIs(t, c.Publish(domain.CDASensorMsg, []byte(`{}`), 0), domain.ErrNotConnected)
	assert.ErrorIs(t, c.Publish(domain.CDASensorMsg, nil, 0), domain.ErrEmptyPayload)
	assert.ErrorIs(t, c.Subscribe(domain.CDAActuatorCmd, 0), domain.ErrNotConnected)
	assert.NoError(t, c.Unsubscribe(domain.CDAActuatorCmd))
	assert.NoError(t, c.Disconnect())
}

func TestHandleMessageBySubject(t *testing.T) {
	obs := testutil.NewObs()
	c := New(Config{}, obs)
	l := testutil.NewListener(2)
	c.SetMessageListener(l)

	assert.True(t, c.handleMessage("PIOT.ConstrainedDevice.ActuatorCmd", []byte("x")))
	got := <-l.C
	assert.Equal(t, domain.CDAActuatorCmd, got.Resource)

	assert.False(t, c.handleMessage("PIOT/ConstrainedDevice/ActuatorCmd", []byte("x")))
	assert.False(t, c.handleMessage("sensors.temp", []byte("x")))
	assert.Equal(t, 2, obs.DroppedAt("nats_inbound"))
}

func runServer(t *testing.T) string {
	t.Helper()
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	s := natsserver.RunServer(&opts)
	t.Cleanup(s.Shutdown)
	return s.ClientURL()
}

func receive(t *testing.T, l *testutil.Listener) testutil.Inbound {
	t.Helper()
	select {
	case got := <-l.C:
		return got
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
		return testutil.Inbound{}
	}
}

func TestRoundTripThroughServer(t *testing.T) {
	c := New(Config{URL: runServer(t), Timeout: 2 * time.Second}, testutil.NewObs())
	l := testutil.NewListener(4)
	c.SetMessageListener(l)

	require.NoError(t, c.Connect())
	t.Cleanup(func() { _ = c.Disconnect() })
	require.NoError(t, c.Connect(), "second connect is a no-op")
	require.True(t, c.IsConnected())

	require.NoError(t, c.Subscribe(domain.CDAActuatorCmd, 1))
	require.NoError(t, c.Subscribe(domain.CDAActuatorCmd, 1))
	c.mu.Lock()
	assert.Len(t, c.subs, 1)
	c.mu.Unlock()

	require.NoError(t, c.Publish(domain.CDAActuatorCmd, []byte(`{"name":"HvacActuator"}`), 1))
	got := receive(t, l)
	assert.Equal(t, domain.CDAActuatorCmd, got.Resource)
	assert.JSONEq(t, `{"name":"HvacActuator"}`, string(got.Payload))

	require.NoError(t, c.Unsubscribe(domain.CDAActuatorCmd))
	require.NoError(t, c.Subscribe(domain.CDAMgmtStatusCmd, 0))
	require.NoError(t, c.Publish(domain.CDAMgmtStatusCmd, []byte(`{"command":1}`), 0))
	assert.Equal(t, domain.CDAMgmtStatusCmd, receive(t, l).Resource)
}

func TestDisconnectDeliversInFlightMessages(t *testing.T) {
	c := New(Config{URL: runServer(t), Timeout: 2 * time.Second}, testutil.NewObs())
	l := testutil.NewListener(4)
	c.SetMessageListener(l)

	require.NoError(t, c.Connect())
	require.NoError(t, c.Subscribe(domain.CDAActuatorCmd, 0))
	require.NoError(t, c.Publish(domain.CDAActuatorCmd, []byte(`{"command":0}`), 0))

	require.NoError(t, c.Disconnect())
	assert.False(t, c.IsConnected())
	assert.Equal(t, domain.CDAActuatorCmd, receive(t, l).Resource)
	require.NoError(t, c.Disconnect())
}

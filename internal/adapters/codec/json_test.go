package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/testutil"
)

var ts = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

func header(name string, typeID int) domain.IotData {
	return domain.IotData{
		Name:       name,
		TypeID:     typeID,
		LocationID: "constraineddevice001",
		TimeStamp:  ts,
		Latitude:   49.45,
		Longitude:  11.07,
		Elevation:  310,
	}
}

func TestRoundTripAllKinds(t *testing.T) {
	c := NewJSON(testutil.NewObs())

	sensor := &domain.SensorReading{IotData: header(domain.TempSensorName, domain.TempSensorType), Value: 21.25}
	perf := &domain.PerformanceReading{IotData: header(domain.SystemPerfName, domain.SystemPerfType), CPUUtil: 12.5, MemUtil: 40.1, DiskUtil: 77}
	cmd := &domain.ActuatorCommand{IotData: header(domain.HvacActuatorName, domain.HvacActuatorType), Cmd: domain.CommandOn, Value: 20, StateData: "cool"}
	resp := domain.NewActuatorResponse(cmd, domain.StatusError)
	resp.TimeStamp = ts

	cases := []struct {
		name string
		rec  domain.Record
		kind domain.RecordKind
	}{
		{"sensor", sensor, domain.KindSensor},
		{"performance", perf, domain.KindPerformance},
		{"command", cmd, domain.KindActuator},
		{"response", resp, domain.KindActuator},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := c.Encode(tc.rec)
			require.NotEmpty(t, data)
			got := c.Decode(data, tc.kind)
			require.NotNil(t, got)
			assert.Equal(t, tc.rec, got)
		})
	}
}

func TestActuatorVariantSelectedByFlag(t *testing.T) {
	c := NewJSON(testutil.NewObs())

	msg := c.DecodeActuator([]byte(`{"name":"HvacActuator","typeID":2,"command":1,"value":20,"isResponse":true}`))
	require.NotNil(t, msg)
	_, isResp := msg.(*domain.ActuatorResponse)
	assert.True(t, isResp)

	msg = c.DecodeActuator([]byte(`{"name":"HvacActuator","typeID":2,"command":0}`))
	require.NotNil(t, msg)
	_, isCmd := msg.(*domain.ActuatorCommand)
	assert.True(t, isCmd)
}

func TestEncodeNilIsEmpty(t *testing.T) {
	c := NewJSON(testutil.NewObs())
	var nilSensor *domain.SensorReading

	assert.Empty(t, c.Encode(nil))
	assert.Empty(t, c.Encode(nilSensor))
}

func TestDecodeIsPermissive(t *testing.T) {
	obs := testutil.NewObs()
	c := NewJSON(obs)

	r := c.DecodeSensor([]byte(`{"name":"HumiditySensor","value":41.5,"firmware":"1.2","extra":{"a":1}}`))
	require.NotNil(t, r)
	assert.Equal(t, "HumiditySensor", r.Name)
	assert.Equal(t, 41.5, r.Value)
	assert.Equal(t, 0, r.TypeID)
	assert.True(t, r.TimeStamp.IsZero())
	assert.True(t, obs.Logged("codec_ignored_keys"))
}

func TestDecodeMalformedYieldsNil(t *testing.T) {
	c := NewJSON(testutil.NewObs())

	for _, in := range []string{"", "   ", "{", "null", "[1,2]", `{"value":"hot"}`, "not json"} {
		assert.Nil(t, c.DecodeSensor([]byte(in)), "input %q", in)
		assert.Nil(t, c.Decode([]byte(in), domain.KindSensor), "input %q", in)
	}
	assert.Nil(t, c.DecodeActuator([]byte("{")))
	assert.Nil(t, c.Decode([]byte(`{"name":"x"}`), domain.RecordKind("bogus")))
}

func TestDecimalModeRounds(t *testing.T) {
	c := NewJSON(testutil.NewObs(), WithDecimal(2))

	r := &domain.SensorReading{IotData: header(domain.PressureSensorName, domain.PressureSensorType), Value: 1001.23456}
	data := c.Encode(r)
	assert.Contains(t, string(data), `"value":1001.23`)

	back := c.DecodeSensor([]byte(`{"name":"PressureSensor","value":998.126999999999999999999}`))
	require.NotNil(t, back)
	assert.Equal(t, 998.13, back.Value)
}

func TestDecimalModeRoundTripAtPrecision(t *testing.T) {
	c := NewJSON(testutil.NewObs(), WithDecimal(4))
	in := &domain.PerformanceReading{IotData: header(domain.SystemPerfName, domain.SystemPerfType), CPUUtil: 3.5, MemUtil: 60.25, DiskUtil: 10}

	out := c.DecodePerformance(c.Encode(in))
	require.NotNil(t, out)
	assert.Equal(t, in, out)
}

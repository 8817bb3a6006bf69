package codec

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

// JSON is the wire codec. Keys match the record field names; extra keys are
// ignored and missing keys keep their zero value.
type JSON struct {
	obs     ports.Observability
	decimal bool
	places  int32
}

type Option func(*JSON)

// WithDecimal routes every number through an arbitrary-precision decimal
// rounded to places fractional digits. A negative places keeps full precision.
func WithDecimal(places int32) Option {
	return func(c *JSON) {
		c.decimal = true
		c.places = places
	}
}

func NewJSON(obs ports.Observability, opts ...Option) *JSON {
	c := &JSON{obs: obs, places: -1}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// actuatorWire is the single on-the-wire shape for both actuator variants.
type actuatorWire struct {
	domain.ActuatorCommand
	IsResponse bool `json:"isResponse"`
}

var headerKeys = []string{
	"name", "typeID", "locationID", "statusCode", "hasError",
	"timeStamp", "latitude", "longitude", "elevation",
}

var knownKeys = map[domain.RecordKind]map[string]struct{}{
	domain.KindSensor:      keySet("value"),
	domain.KindPerformance: keySet("cpuUtil", "memUtil", "diskUtil"),
	domain.KindActuator:    keySet("command", "value", "stateData", "isResponse"),
}

func keySet(extra ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(headerKeys)+len(extra))
	for _, k := range append(append([]string{}, headerKeys...), extra...) {
		m[k] = struct{}{}
	}
	return m
}

// Encode renders rec as JSON. A nil record yields an empty payload.
func (c *JSON) Encode(rec domain.Record) []byte {
	if domain.ValidateRecord(rec) == domain.ErrNilRecord {
		return nil
	}

	var v any = rec
	if msg, ok := rec.(domain.ActuatorMessage); ok {
		v = actuatorWire{ActuatorCommand: *msg.Command(), IsResponse: msg.IsResponse()}
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.obs.LogWarn("codec_encode_failed",
			ports.F("kind", rec.RecordKind()),
			ports.F("error", err.Error()))
		return nil
	}
	if c.decimal {
		if data, err = c.normalizeNumbers(data); err != nil {
			c.obs.LogWarn("codec_decimal_encode_failed", ports.F("error", err.Error()))
			return nil
		}
	}
	return data
}

// Decode converts data into a record of the given kind, or nil.
func (c *JSON) Decode(data []byte, kind domain.RecordKind) domain.Record {
	switch kind {
	case domain.KindSensor:
		if r := c.DecodeSensor(data); r != nil {
			return r
		}
	case domain.KindPerformance:
		if r := c.DecodePerformance(data); r != nil {
			return r
		}
	case domain.KindActuator:
		if m := c.DecodeActuator(data); m != nil {
			return m
		}
	default:
		c.obs.LogWarn("codec_unknown_kind", ports.F("kind", kind))
	}
	return nil
}

func (c *JSON) DecodeSensor(data []byte) *domain.SensorReading {
	var r domain.SensorReading
	if !c.decodeInto(data, domain.KindSensor, &r) {
		return nil
	}
	return &r
}

func (c *JSON) DecodePerformance(data []byte) *domain.PerformanceReading {
	var r domain.PerformanceReading
	if !c.decodeInto(data, domain.KindPerformance, &r) {
		return nil
	}
	return &r
}

// DecodeActuator picks the variant from the isResponse flag.
func (c *JSON) DecodeActuator(data []byte) domain.ActuatorMessage {
	var w actuatorWire
	if !c.decodeInto(data, domain.KindActuator, &w) {
		return nil
	}
	if w.IsResponse {
		return &domain.ActuatorResponse{ActuatorCommand: w.ActuatorCommand}
	}
	cmd := w.ActuatorCommand
	return &cmd
}

func (c *JSON) decodeInto(data []byte, kind domain.RecordKind, dst any) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		c.obs.LogWarn("codec_malformed_payload", ports.F("kind", kind), ports.F("bytes", len(data)))
		return false
	}
	if unknown := unknownKeys(fields, knownKeys[kind]); len(unknown) > 0 {
		c.obs.LogDebug("codec_ignored_keys", ports.F("kind", kind), ports.F("keys", unknown))
	}

	if c.decimal {
		var err error
		if data, err = c.normalizeNumbers(data); err != nil {
			c.obs.LogWarn("codec_decimal_decode_failed", ports.F("error", err.Error()))
			return false
		}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.obs.LogWarn("codec_decode_failed", ports.F("kind", kind), ports.F("error", err.Error()))
		return false
	}
	return true
}

func unknownKeys(fields map[string]json.RawMessage, known map[string]struct{}) []string {
	var out []string
	for k := range fields {
		if _, ok := known[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// normalizeNumbers rewrites every JSON number in a flat object through decimal.
func (c *JSON) normalizeNumbers(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	for k, v := range obj {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return nil, err
		}
		if c.places >= 0 {
			d = d.Round(c.places)
		}
		obj[k] = json.Number(d.String())
	}
	return json.Marshal(obj)
}

var _ ports.Codec = (*JSON)(nil)

package domain

import "time"

// RecordKind names one of the three latest-value caches.
type RecordKind string

const (
	KindSensor      RecordKind = "sensor"
	KindActuator    RecordKind = "actuator"
	KindPerformance RecordKind = "performance"
)

// ParseRecordKind maps a textual kind onto RecordKind.
func ParseRecordKind(s string) (RecordKind, bool) {
	switch RecordKind(s) {
	case KindSensor, KindActuator, KindPerformance:
		return RecordKind(s), true
	default:
		return "", false
	}
}

const (
	CommandOff = 0
	CommandOn  = 1

	DefaultTypeID = 0

	HumiditySensorType = 1
	PressureSensorType = 2
	TempSensorType     = 3

	HumidifierActuatorType = 1
	HvacActuatorType       = 2
	LedDisplayActuatorType = 3

	SystemPerfType = 9000

	StatusOK    = 0
	StatusError = -1
)

const (
	HumiditySensorName     = "HumiditySensor"
	PressureSensorName     = "PressureSensor"
	TempSensorName         = "TempSensor"
	HumidifierActuatorName = "HumidifierActuator"
	HvacActuatorName       = "HvacActuator"
	LedDisplayActuatorName = "LedDisplayActuator"
	SystemPerfName         = "SystemPerfMsg"
)

// Record is anything the coordinator caches and relays.
type Record interface {
	RecordKind() RecordKind
	RecordName() string
}

// IotData is the header shared by every record on the wire.
type IotData struct {
	Name       string    `json:"name"`
	TypeID     int       `json:"typeID"`
	LocationID string    `json:"locationID"`
	StatusCode int       `json:"statusCode"`
	HasError   bool      `json:"hasError"`
	TimeStamp  time.Time `json:"timeStamp"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Elevation  float64   `json:"elevation"`
}

// NewIotData stamps a header with the current UTC time.
func NewIotData(name string, typeID int) IotData {
	return IotData{Name: name, TypeID: typeID, TimeStamp: time.Now().UTC()}
}

// SensorReading is one polled sensor value.
type SensorReading struct {
	IotData
	Value float64 `json:"value"`
}

func (r *SensorReading) RecordKind() RecordKind { return KindSensor }
func (r *SensorReading) RecordName() string     { return r.Name }

// PerformanceReading carries host utilization percentages.
type PerformanceReading struct {
	IotData
	CPUUtil  float64 `json:"cpuUtil"`
	MemUtil  float64 `json:"memUtil"`
	DiskUtil float64 `json:"diskUtil"`
}

func (r *PerformanceReading) RecordKind() RecordKind { return KindPerformance }
func (r *PerformanceReading) RecordName() string     { return r.Name }

// ActuatorMessage is either an *ActuatorCommand or an *ActuatorResponse.
type ActuatorMessage interface {
	Record
	IsResponse() bool
	Command() *ActuatorCommand
	sealedActuator()
}

// ActuatorCommand asks an actuator to switch on or off.
type ActuatorCommand struct {
	IotData
	Cmd       int     `json:"command"`
	Value     float64 `json:"value"`
	StateData string  `json:"stateData"`
}

// NewActuatorCommand builds a command addressed to the given actuator.
func NewActuatorCommand(name string, typeID int, locationID string, cmd int, value float64) *ActuatorCommand {
	c := &ActuatorCommand{IotData: NewIotData(name, typeID), Cmd: cmd, Value: value}
	c.LocationID = locationID
	return c
}

func (c *ActuatorCommand) RecordKind() RecordKind    { return KindActuator }
func (c *ActuatorCommand) RecordName() string        { return c.Name }
func (c *ActuatorCommand) IsResponse() bool          { return false }
func (c *ActuatorCommand) Command() *ActuatorCommand { return c }
func (c *ActuatorCommand) sealedActuator()           {}

// ActuatorResponse reports how a backend handled an ActuatorCommand.
type ActuatorResponse struct {
	ActuatorCommand
}

// NewActuatorResponse copies cmd and stamps the outcome. statusCode follows
// StatusOK / StatusError.
func NewActuatorResponse(cmd *ActuatorCommand, statusCode int) *ActuatorResponse {
	resp := &ActuatorResponse{ActuatorCommand: *cmd}
	resp.StatusCode = statusCode
	resp.HasError = statusCode != StatusOK
	resp.TimeStamp = time.Now().UTC()
	return resp
}

func (r *ActuatorResponse) RecordKind() RecordKind    { return KindActuator }
func (r *ActuatorResponse) RecordName() string        { return r.Name }
func (r *ActuatorResponse) IsResponse() bool          { return true }
func (r *ActuatorResponse) Command() *ActuatorCommand { return &r.ActuatorCommand }
func (r *ActuatorResponse) sealedActuator()           {}

// CloneRecord returns a shallow copy of rec so cached values stay private.
func CloneRecord(rec Record) Record {
	switch r := rec.(type) {
	case *SensorReading:
		if r == nil {
			return nil
		}
		cp := *r
		return &cp
	case *PerformanceReading:
		if r == nil {
			return nil
		}
		cp := *r
		return &cp
	case *ActuatorResponse:
		if r == nil {
			return nil
		}
		cp := *r
		return &cp
	case *ActuatorCommand:
		if r == nil {
			return nil
		}
		cp := *r
		return &cp
	default:
		return nil
	}
}

package domain

import "errors"

var (
	ErrNilRecord         = errors.New("edgehub: nil record")
	ErrEmptyName         = errors.New("edgehub: record has no name")
	ErrEmptyPayload      = errors.New("edgehub: empty payload")
	ErrDecode            = errors.New("edgehub: payload not convertible")
	ErrUnknownResource   = errors.New("edgehub: unroutable resource")
	ErrNotConnected      = errors.New("edgehub: transport not connected")
	ErrInvalidQoS        = errors.New("edgehub: qos must be 0, 1 or 2")
	ErrResponseAsCommand = errors.New("edgehub: actuator response received as command")
	ErrLocationMismatch  = errors.New("edgehub: command addressed to another location")
	ErrNoBackend         = errors.New("edgehub: no backend for type")
	ErrUnknownCommand    = errors.New("edgehub: unknown actuator command")
	ErrTransport         = errors.New("edgehub: transport request failed")
)

// ValidateRecord applies the non-nil / non-empty-name check run before caching.
func ValidateRecord(rec Record) error {
	if rec == nil {
		return ErrNilRecord
	}
	switch r := rec.(type) {
	case *SensorReading:
		if r == nil {
			return ErrNilRecord
		}
	case *PerformanceReading:
		if r == nil {
			return ErrNilRecord
		}
	case *ActuatorResponse:
		if r == nil {
			return ErrNilRecord
		}
	case *ActuatorCommand:
		if r == nil {
			return ErrNilRecord
		}
	}
	if rec.RecordName() == "" {
		return ErrEmptyName
	}
	return nil
}

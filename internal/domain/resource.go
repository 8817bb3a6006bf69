package domain

import "strings"

const (
	productName     = "PIOT"
	constrainedName = "ConstrainedDevice"
	gatewayName     = "GatewayDevice"
)

// ResourceID is a closed set of logical communication endpoints.
type ResourceID int

const (
	ResourceUnknown ResourceID = iota

	CDAActuatorCmd
	CDAActuatorResponse
	CDAMgmtStatusMsg
	CDAMgmtStatusCmd
	CDASensorMsg
	CDASystemPerfMsg

	GDAActuatorCmd
	GDAActuatorResponse
	GDAMgmtStatusMsg
	GDAMgmtStatusCmd
	GDASensorMsg
	GDASystemPerfMsg

	resourceEnd
)

var resourceSuffix = map[ResourceID]string{
	CDAActuatorCmd:      "ActuatorCmd",
	CDAActuatorResponse: "ActuatorResponse",
	CDAMgmtStatusMsg:    "MgmtStatusMsg",
	CDAMgmtStatusCmd:    "MgmtStatusCmd",
	CDASensorMsg:        "SensorMsg",
	CDASystemPerfMsg:    "SystemPerfMsg",
	GDAActuatorCmd:      "ActuatorCmd",
	GDAActuatorResponse: "ActuatorResponse",
	GDAMgmtStatusMsg:    "MgmtStatusMsg",
	GDAMgmtStatusCmd:    "MgmtStatusCmd",
	GDASensorMsg:        "SensorMsg",
	GDASystemPerfMsg:    "SystemPerfMsg",
}

var (
	byTopic   = make(map[string]ResourceID)
	bySubject = make(map[string]ResourceID)
)

func init() {
	for _, r := range Resources() {
		byTopic[r.Topic()] = r
		bySubject[r.Subject()] = r
	}
}

// Resources lists every routable ResourceID.
func Resources() []ResourceID {
	out := make([]ResourceID, 0, int(resourceEnd)-1)
	for r := ResourceUnknown + 1; r < resourceEnd; r++ {
		out = append(out, r)
	}
	return out
}

// Valid reports whether r is a member of the enumeration.
func (r ResourceID) Valid() bool {
	return r > ResourceUnknown && r < resourceEnd
}

func (r ResourceID) device() string {
	if r >= GDAActuatorCmd {
		return gatewayName
	}
	return constrainedName
}

// Topic is the MQTT topic, e.g. PIOT/ConstrainedDevice/SensorMsg. It is
// also the CoAP resource path.
func (r ResourceID) Topic() string {
	if !r.Valid() {
		return ""
	}
	return productName + "/" + r.device() + "/" + resourceSuffix[r]
}

// Path is the CoAP resource path.
func (r ResourceID) Path() string { return r.Topic() }

// Subject is the NATS subject, e.g. PIOT.ConstrainedDevice.SensorMsg.
func (r ResourceID) Subject() string {
	return strings.ReplaceAll(r.Topic(), "/", ".")
}

func (r ResourceID) String() string {
	if !r.Valid() {
		return "unknown"
	}
	return r.Topic()
}

// ResourceFromTopic resolves an MQTT topic. ok is false for unroutable topics.
func ResourceFromTopic(topic string) (ResourceID, bool) {
	r, ok := byTopic[topic]
	return r, ok
}

// ResourceFromPath resolves a CoAP path, tolerating a leading slash.
func ResourceFromPath(path string) (ResourceID, bool) {
	return ResourceFromTopic(strings.TrimPrefix(path, "/"))
}

// ResourceFromSubject resolves a NATS subject.
func ResourceFromSubject(subject string) (ResourceID, bool) {
	r, ok := bySubject[subject]
	return r, ok
}

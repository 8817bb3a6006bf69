package domain

import "testing"

func TestResourceTopicBijection(t *testing.T) {
	seen := make(map[string]ResourceID)
	for _, r := range Resources() {
		topic := r.Topic()
		if topic == "" {
			t.Fatalf("resource %d has no topic", r)
		}
		if prev, dup := seen[topic]; dup {
			t.Fatalf("topic %q shared by %d and %d", topic, prev, r)
		}
		seen[topic] = r

		back, ok := ResourceFromTopic(topic)
		if !ok || back != r {
			t.Fatalf("topic %q resolved to %d (ok=%v), want %d", topic, back, ok, r)
		}
		back, ok = ResourceFromSubject(r.Subject())
		if !ok || back != r {
			t.Fatalf("subject %q resolved to %d (ok=%v), want %d", r.Subject(), back, ok, r)
		}
		back, ok = ResourceFromPath("/" + r.Path())
		if !ok || back != r {
			t.Fatalf("path %q resolved to %d (ok=%v), want %d", r.Path(), back, ok, r)
		}
	}
	if len(seen) != 12 {
		t.Fatalf("expected 12 resources, got %d", len(seen))
	}
}

func TestResourceKnownAddresses(t *testing.T) {
	if got := CDASensorMsg.Topic(); got != "PIOT/ConstrainedDevice/SensorMsg" {
		t.Fatalf("unexpected sensor topic %q", got)
	}
	if got := GDAActuatorCmd.Subject(); got != "PIOT.GatewayDevice.ActuatorCmd" {
		t.Fatalf("unexpected gateway subject %q", got)
	}
}

func TestResourceUnknownAddressIsUnroutable(t *testing.T) {
	for _, addr := range []string{"", "PIOT/ConstrainedDevice/Nope", "foo/bar", "PIOT/ConstrainedDevice/SensorMsg/extra"} {
		if r, ok := ResourceFromTopic(addr); ok || r != ResourceUnknown {
			t.Fatalf("expected %q to be unroutable, got %d", addr, r)
		}
	}
	if ResourceUnknown.Topic() != "" || ResourceUnknown.Valid() {
		t.Fatalf("ResourceUnknown must not map to an address")
	}
}

func TestValidateRecord(t *testing.T) {
	var nilSensor *SensorReading
	if err := ValidateRecord(nilSensor); err != ErrNilRecord {
		t.Fatalf("expected ErrNilRecord for typed nil, got %v", err)
	}
	if err := ValidateRecord(nil); err != ErrNilRecord {
		t.Fatalf("expected ErrNilRecord, got %v", err)
	}
	if err := ValidateRecord(&SensorReading{}); err != ErrEmptyName {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if err := ValidateRecord(&SensorReading{IotData: IotData{Name: "TempSensor"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestActuatorVariants(t *testing.T) {
	cmd := NewActuatorCommand(HvacActuatorName, HvacActuatorType, "loc", CommandOn, 20)
	resp := NewActuatorResponse(cmd, StatusError)

	var msg ActuatorMessage = resp
	if !msg.IsResponse() || cmd.IsResponse() {
		t.Fatalf("variant flags mismatched")
	}
	if !resp.HasError || resp.StatusCode != StatusError {
		t.Fatalf("expected error status on response, got %+v", resp)
	}
	if cmd.StatusCode != StatusOK {
		t.Fatalf("response construction must not mutate the command")
	}
	if resp.RecordKind() != KindActuator || resp.Command().Value != 20 {
		t.Fatalf("unexpected response view: %+v", resp)
	}

	clone := CloneRecord(resp).(*ActuatorResponse)
	clone.Value = 99
	if resp.Value == 99 {
		t.Fatalf("clone shares state with original")
	}
}

package edgehub

import (
	"context"
	"testing"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/testutil"
)

func TestConfFromConfigAndStreamBuilder(t *testing.T) {
	cfg := testConfig()

	flow, err := ConfFromConfig(cfg)
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	if flow.Config() != cfg {
		t.Fatalf("expected Config to be returned verbatim")
	}

	ps := testutil.NewPubSub()
	rr := testutil.NewReqRes()
	var seen []Record

	rt, err := flow.
		StreamIN(
			StreamInSensors(&stubSensor{name: domain.PressureSensorName, typeID: domain.PressureSensorType, value: 1001}),
			StreamInActuators(&stubActuator{typeID: domain.HvacActuatorType}),
			StreamInProbe(stubProbe{}),
			StreamInObservability(testutil.NewObs()),
		).
		StreamOUT(
			StreamOutPubSub(ps),
			StreamOutRequestResponse(rr),
			StreamOutCallback("collect", func(r Record) error {
				seen = append(seen, r)
				return nil
			}),
		)
	if err != nil {
		t.Fatalf("StreamOUT returned error: %v", err)
	}
	if rt.pubsub != ps {
		t.Fatalf("expected custom pubsub to be wired")
	}
	if rt.reqres != rr {
		t.Fatalf("expected custom request/response client to be wired")
	}

	rt.PollSensors()
	if len(seen) != 1 || seen[0].RecordName() != domain.PressureSensorName {
		t.Fatalf("expected callback to observe the pressure reading, got %+v", seen)
	}
	if rr.PostCount() != 1 {
		t.Fatalf("expected one CoAP POST, got %d", rr.PostCount())
	}
}

func TestFlowRunUsesStreamOutOptions(t *testing.T) {
	flow, err := ConfFromConfig(testConfig())
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ps := testutil.NewPubSub()
	if err := flow.StreamIN(
		StreamInProbe(stubProbe{}),
		StreamInObservability(testutil.NewObs()),
	).Run(ctx,
		StreamOutPubSub(ps),
	); err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}

	calls := ps.CallLog()
	if len(calls) == 0 || calls[0] != "connect" || calls[len(calls)-1] != "disconnect" {
		t.Fatalf("expected connect ... disconnect, got %v", calls)
	}
}

func TestConfFromNilConfig(t *testing.T) {
	if _, err := ConfFromConfig(nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
	var f *Flow
	if _, err := f.StreamOUT(); err == nil {
		t.Fatalf("expected error for nil flow")
	}
}

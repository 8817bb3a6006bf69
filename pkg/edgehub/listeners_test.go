package edgehub

import (
	"errors"
	"testing"

	"github.com/ghalamif/EdgeHub/internal/domain"
)

func reading() *SensorReading {
	return &SensorReading{IotData: domain.NewIotData(domain.TempSensorName, domain.TempSensorType), Value: 19}
}

func TestNewCallbackListener(t *testing.T) {
	var received []Record
	l := NewCallbackListener("cb", func(r Record) error {
		received = append(received, r)
		return nil
	})

	if err := l.OnRecord(reading()); err != nil {
		t.Fatalf("OnRecord returned error: %v", err)
	}
	if len(received) != 1 || received[0].RecordName() != domain.TempSensorName {
		t.Fatalf("unexpected records: %+v", received)
	}
	if l.Name() != "cb" {
		t.Fatalf("expected name cb, got %s", l.Name())
	}
}

func TestNewCallbackListenerNilHandler(t *testing.T) {
	l := NewCallbackListener("", nil)
	if err := l.OnRecord(reading()); err == nil {
		t.Fatalf("expected error when callback is nil")
	}
	if l.Name() != "callback" {
		t.Fatalf("expected default name, got %s", l.Name())
	}
}

func TestNewChannelListener(t *testing.T) {
	l, ch, closeFn := NewChannelListener("chan", 1)
	defer closeFn()

	if err := l.OnRecord(reading()); err != nil {
		t.Fatalf("OnRecord returned error: %v", err)
	}
	if err := l.OnRecord(reading()); !errors.Is(err, ErrChannelListenerFull) {
		t.Fatalf("expected ErrChannelListenerFull, got %v", err)
	}

	got := <-ch
	if got.RecordName() != domain.TempSensorName {
		t.Fatalf("unexpected record %+v", got)
	}

	closeFn()
	if err := l.OnRecord(reading()); !errors.Is(err, ErrChannelListenerClosed) {
		t.Fatalf("expected ErrChannelListenerClosed, got %v", err)
	}
	if _, open := <-ch; open {
		t.Fatalf("expected channel closed")
	}
}

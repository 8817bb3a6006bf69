// Package testutil holds recording fakes shared by package tests.
package testutil

import (
	"sync"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

// Obs records log messages and metric updates.
type Obs struct {
	mu       sync.Mutex
	Messages []string
	Counters map[string]float64
	Gauges   map[string]float64
	Latency  map[string]int
	Dropped  map[string]int
}

func NewObs() *Obs {
	return &Obs{
		Counters: make(map[string]float64),
		Gauges:   make(map[string]float64),
		Latency:  make(map[string]int),
		Dropped:  make(map[string]int),
	}
}

func (o *Obs) log(msg string) {
	o.mu.Lock()
	o.Messages = append(o.Messages, msg)
	o.mu.Unlock()
}

func (o *Obs) LogDebug(msg string, _ ...ports.Field)             { o.log(msg) }
func (o *Obs) LogInfo(msg string, _ ...ports.Field)              { o.log(msg) }
func (o *Obs) LogWarn(msg string, _ ...ports.Field)              { o.log(msg) }
func (o *Obs) LogError(msg string, _ error, _ ...ports.Field)    { o.log(msg) }
func (o *Obs) LogCritical(msg string, _ error, _ ...ports.Field) { o.log(msg) }

func (o *Obs) IncCounter(name string, v float64) {
	o.mu.Lock()
	o.Counters[name] += v
	o.mu.Unlock()
}

func (o *Obs) ObserveLatency(name string, _ float64) {
	o.mu.Lock()
	o.Latency[name]++
	o.mu.Unlock()
}

func (o *Obs) SetGauge(name string, v float64) {
	o.mu.Lock()
	o.Gauges[name] = v
	o.mu.Unlock()
}

func (o *Obs) RecordDropped(stage string, _ error, _ ...ports.Field) {
	o.mu.Lock()
	o.Dropped[stage]++
	o.mu.Unlock()
}

// Counter reads a counter under the lock.
func (o *Obs) Counter(name string) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Counters[name]
}

// Gauge reads a gauge under the lock.
func (o *Obs) Gauge(name string) float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Gauges[name]
}

// DroppedAt reads the drop count for a stage.
func (o *Obs) DroppedAt(stage string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Dropped[stage]
}

// Logged reports whether msg was logged at any level.
func (o *Obs) Logged(msg string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, m := range o.Messages {
		if m == msg {
			return true
		}
	}
	return false
}

// Inbound is one message seen by a Listener.
type Inbound struct {
	Resource domain.ResourceID
	Payload  []byte
}

// Listener is a ports.MessageListener that records deliveries on a channel.
type Listener struct {
	C chan Inbound
}

func NewListener(buffer int) *Listener {
	return &Listener{C: make(chan Inbound, buffer)}
}

func (l *Listener) HandleInboundMessage(res domain.ResourceID, payload []byte) bool {
	l.C <- Inbound{Resource: res, Payload: append([]byte(nil), payload...)}
	return true
}

var (
	_ ports.Observability   = (*Obs)(nil)
	_ ports.MessageListener = (*Listener)(nil)
)

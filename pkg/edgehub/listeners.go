package edgehub

import (
	"errors"
	"fmt"
	"sync"
)

// ErrChannelListenerClosed is returned when a channel listener receives a
// record after being closed.
var ErrChannelListenerClosed = errors.New("edgehub: channel listener closed")

// ErrChannelListenerFull is returned when the channel buffer has no room.
// The record is dropped rather than stalling the ingest path.
var ErrChannelListenerFull = errors.New("edgehub: channel listener full")

// RecordHandler is invoked with each record after it is cached.
type RecordHandler func(Record) error

// NewCallbackListener adapts a function into a TelemetryListener so callers
// can plug arbitrary functions without defining structs.
func NewCallbackListener(name string, fn RecordHandler) TelemetryListener {
	if name == "" {
		name = "callback"
	}
	return &callbackListener{name: name, fn: fn}
}

// NewChannelListener exposes cached records via a channel; it returns the
// listener, the read-only channel, and a close function that the caller
// should invoke during shutdown.
func NewChannelListener(name string, buffer int) (TelemetryListener, <-chan Record, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Record, buffer)
	l := &channelListener{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return l, ch, func() { l.close() }
}

type callbackListener struct {
	name string
	fn   RecordHandler
}

func (l *callbackListener) OnRecord(rec Record) error {
	if l.fn == nil {
		return fmt.Errorf("callback listener %q: nil handler", l.name)
	}
	if rec == nil {
		return nil
	}
	return l.fn(rec)
}

func (l *callbackListener) Name() string { return l.name }

type channelListener struct {
	name   string
	ch     chan Record
	closed chan struct{}
	mu     sync.RWMutex
	once   sync.Once
}

func (l *channelListener) OnRecord(rec Record) error {
	if rec == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	select {
	case <-l.closed:
		return ErrChannelListenerClosed
	default:
	}

	select {
	case l.ch <- rec:
		return nil
	default:
		return ErrChannelListenerFull
	}
}

func (l *channelListener) Name() string { return l.name }

func (l *channelListener) close() {
	l.once.Do(func() {
		l.mu.Lock()
		close(l.closed)
		close(l.ch)
		l.mu.Unlock()
	})
}

package testutil

import (
	"sync"
	"time"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

// Published is one message handed to PubSub.Publish.
type Published struct {
	Resource domain.ResourceID
	Payload  []byte
	QoS      int
}

// PubSub is an in-memory ports.PubSubClient.
type PubSub struct {
	mu         sync.Mutex
	connected  bool
	ConnectErr error
	PublishErr error
	Calls      []string
	Published  []Published
	Subscribed map[domain.ResourceID]int
	listener   ports.MessageListener
}

func NewPubSub() *PubSub {
	return &PubSub{Subscribed: make(map[domain.ResourceID]int)}
}

func (p *PubSub) Name() string { return "fake" }

func (p *PubSub) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, "connect")
	if p.ConnectErr != nil {
		return p.ConnectErr
	}
	p.connected = true
	return nil
}

func (p *PubSub) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, "disconnect")
	p.connected = false
	return nil
}

func (p *PubSub) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *PubSub) Publish(res domain.ResourceID, payload []byte, qos int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.PublishErr != nil {
		return p.PublishErr
	}
	if !p.connected {
		return domain.ErrNotConnected
	}
	p.Published = append(p.Published, Published{Resource: res, Payload: append([]byte(nil), payload...), QoS: qos})
	return nil
}

func (p *PubSub) Subscribe(res domain.ResourceID, qos int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, "subscribe:"+res.String())
	p.Subscribed[res] = qos
	return nil
}

func (p *PubSub) Unsubscribe(res domain.ResourceID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, "unsubscribe:"+res.String())
	delete(p.Subscribed, res)
	return nil
}

func (p *PubSub) SetMessageListener(l ports.MessageListener) {
	p.mu.Lock()
	p.listener = l
	p.mu.Unlock()
}

// Deliver simulates an inbound message from the broker.
func (p *PubSub) Deliver(res domain.ResourceID, payload []byte) bool {
	p.mu.Lock()
	l := p.listener
	p.mu.Unlock()
	if l == nil {
		return false
	}
	return l.HandleInboundMessage(res, payload)
}

// PublishedTo returns the payloads sent to res.
func (p *PubSub) PublishedTo(res domain.ResourceID) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out [][]byte
	for _, m := range p.Published {
		if m.Resource == res {
			out = append(out, m.Payload)
		}
	}
	return out
}

// CallLog returns a copy of the lifecycle call sequence.
func (p *PubSub) CallLog() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Calls...)
}

// ReqRes is an in-memory ports.RequestResponseClient.
type ReqRes struct {
	mu       sync.Mutex
	Fail     bool
	Posts    []Published
	Observed map[domain.ResourceID]bool
	Calls    []string
}

func NewReqRes() *ReqRes {
	return &ReqRes{Observed: make(map[domain.ResourceID]bool)}
}

func (r *ReqRes) record(call string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, call)
	return !r.Fail
}

func (r *ReqRes) DiscoverResources(time.Duration) bool            { return r.record("discover") }
func (r *ReqRes) Get(res domain.ResourceID, _ time.Duration) bool { return r.record("get:" + res.String()) }
func (r *ReqRes) Delete(res domain.ResourceID, _ time.Duration) bool {
	return r.record("delete:" + res.String())
}
func (r *ReqRes) Put(res domain.ResourceID, _ []byte, _ time.Duration) bool {
	return r.record("put:" + res.String())
}

func (r *ReqRes) Post(res domain.ResourceID, payload []byte, _ time.Duration) bool {
	r.mu.Lock()
	r.Posts = append(r.Posts, Published{Resource: res, Payload: append([]byte(nil), payload...)})
	r.mu.Unlock()
	return r.record("post:" + res.String())
}

func (r *ReqRes) Observe(res domain.ResourceID, _ time.Duration) bool {
	r.mu.Lock()
	r.Observed[res] = true
	r.mu.Unlock()
	return r.record("observe:" + res.String())
}

func (r *ReqRes) CancelObserve(res domain.ResourceID, _ time.Duration) bool {
	r.mu.Lock()
	delete(r.Observed, res)
	r.mu.Unlock()
	return r.record("cancel:" + res.String())
}

func (r *ReqRes) SetMessageListener(ports.MessageListener) {}
func (r *ReqRes) Close() error                             { return nil }

// PostCount reports how many POSTs were attempted.
func (r *ReqRes) PostCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Posts)
}

var (
	_ ports.PubSubClient          = (*PubSub)(nil)
	_ ports.RequestResponseClient = (*ReqRes)(nil)
)

package scheduler

import (
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ghalamif/EdgeHub/internal/ports"
)

const (
	DefaultMaxInstances = 2
	DefaultMisfireGrace = 15 * time.Second
)

// Periodic runs a job on the fixed schedule start + n*interval. At most
// maxInstances runs overlap; a firing that finds no free slot is coalesced
// into the runs already in flight. Lateness is measured against the slot a
// firing belongs to, so a firing delivered more than the grace window after
// its slot (a suspended process, a starved loop) is skipped, and any slots
// it overran are coalesced rather than replayed.
type Periodic struct {
	name     string
	interval time.Duration
	grace    time.Duration
	job      func()
	obs      ports.Observability
	sem      *semaphore.Weighted

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

type Option func(*Periodic)

func WithMaxInstances(n int64) Option {
	return func(p *Periodic) {
		if n > 0 {
			p.sem = semaphore.NewWeighted(n)
		}
	}
}

// WithMisfireGrace sets how late a firing may start. Zero disables the check.
func WithMisfireGrace(d time.Duration) Option {
	return func(p *Periodic) {
		if d >= 0 {
			p.grace = d
		}
	}
}

func New(name string, interval time.Duration, job func(), obs ports.Observability, opts ...Option) *Periodic {
	p := &Periodic{
		name:     name,
		interval: interval,
		grace:    DefaultMisfireGrace,
		job:      job,
		obs:      obs,
		sem:      semaphore.NewWeighted(DefaultMaxInstances),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Start schedules the job. It returns false if already running.
func (p *Periodic) Start() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return false
	}
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.running = true
	go p.loop(p.stopCh, p.doneCh)
	p.obs.LogInfo("scheduler_started", ports.F("job", p.name), ports.F("interval", p.interval.String()))
	return true
}

// Stop halts future firings. Runs already in flight finish on their own.
func (p *Periodic) Stop() bool {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return false
	}
	stop, done := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stop)
	<-done
	p.obs.LogInfo("scheduler_stopped", ports.F("job", p.name))
	return true
}

func (p *Periodic) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Periodic) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	next := time.Now().Add(p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := time.Now()
			due := next
			var slots int
			next, slots = advance(next, now, p.interval)
			if slots > 1 {
				p.obs.IncCounter(ports.MetricSchedulerSkipped, float64(slots-1))
				p.obs.LogDebug("scheduler_slots_coalesced", ports.F("job", p.name), ports.F("slots", slots-1))
			}
			p.fire(due, now)
		}
	}
}

// advance moves next past now one interval at a time and reports how many
// slots were consumed.
func advance(next, now time.Time, interval time.Duration) (time.Time, int) {
	slots := 0
	for !next.After(now) {
		next = next.Add(interval)
		slots++
	}
	return next, slots
}

func (p *Periodic) fire(due, now time.Time) {
	if late := now.Sub(due); p.grace > 0 && late > p.grace {
		p.obs.IncCounter(ports.MetricSchedulerSkipped, 1)
		p.obs.LogWarn("scheduler_misfire_skipped", ports.F("job", p.name), ports.F("late", late.String()))
		return
	}
	if !p.sem.TryAcquire(1) {
		p.obs.IncCounter(ports.MetricSchedulerSkipped, 1)
		p.obs.LogDebug("scheduler_run_coalesced", ports.F("job", p.name))
		return
	}

	go func() {
		defer p.sem.Release(1)
		start := time.Now()
		p.job()
		p.obs.ObserveLatency(ports.LatencyPollCycle, time.Since(start).Seconds())
	}()
}

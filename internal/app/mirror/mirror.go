package mirror

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

const (
	DefaultQueueLen      = 1024
	DefaultMaxBatch      = 128
	DefaultFlushInterval = 5 * time.Second
)

// Mirror copies cached records into a SnapshotStore. Records are queued on
// the ingest path and written by a background flush loop.
type Mirror struct {
	queue ports.RecordQueue
	store ports.SnapshotStore
	pol   ports.Policy
	obs   ports.Observability
	seq   atomic.Uint64

	mu     sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

func New(q ports.RecordQueue, store ports.SnapshotStore, pol ports.Policy, obs ports.Observability) *Mirror {
	if pol.MaxBatchSize <= 0 {
		pol.MaxBatchSize = DefaultMaxBatch
	}
	if pol.FlushInterval <= 0 {
		pol.FlushInterval = DefaultFlushInterval
	}
	return &Mirror{queue: q, store: store, pol: pol, obs: obs}
}

func (m *Mirror) Name() string { return "snapshot_" + m.store.Name() }

// OnRecord queues a private copy of rec.
func (m *Mirror) OnRecord(rec domain.Record) error {
	cp := domain.CloneRecord(rec)
	if cp == nil {
		return domain.ErrNilRecord
	}
	if !m.queue.Enqueue(m.seq.Add(1), cp) {
		m.obs.RecordDropped("snapshot_enqueue", nil, ports.F("kind", string(cp.RecordKind())), ports.F("name", cp.RecordName()))
		return nil
	}
	m.obs.SetGauge(ports.GaugeSnapshotQueue, float64(m.queue.Len()))
	return nil
}

func (m *Mirror) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopCh != nil {
		return false
	}
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	go m.loop(m.stopCh, m.doneCh)
	return true
}

// Stop ends the flush loop after one final drain.
func (m *Mirror) Stop() bool {
	m.mu.Lock()
	stop, done := m.stopCh, m.doneCh
	m.stopCh, m.doneCh = nil, nil
	m.mu.Unlock()
	if stop == nil {
		return false
	}
	close(stop)
	<-done
	return true
}

func (m *Mirror) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(m.pol.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Flush()
		case <-stop:
			m.Flush()
			return
		}
	}
}

// Flush drains the queue in batches and returns how many records were
// written.
func (m *Mirror) Flush() int {
	written := 0
	for {
		batch := m.queue.DequeueBatch(m.pol.MaxBatchSize)
		if len(batch) == 0 {
			break
		}
		recs := make([]domain.Record, len(batch))
		for i, item := range batch {
			recs[i] = item.Record
		}

		start := time.Now()
		if err := m.store.UpsertBatch(recs); err != nil {
			// latest-value semantics: the next update rewrites the row
			m.obs.RecordDropped("snapshot_flush", err, ports.F("records", len(recs)), ports.F("store", m.store.Name()))
			continue
		}
		m.obs.ObserveLatency(ports.LatencySnapshotFlush, time.Since(start).Seconds())
		m.obs.IncCounter(ports.MetricSnapshotRows, float64(len(recs)))
		written += len(recs)
	}
	m.obs.SetGauge(ports.GaugeSnapshotQueue, float64(m.queue.Len()))
	return written
}

var (
	_ ports.TelemetryListener = (*Mirror)(nil)
	_ ports.Lifecycle         = (*Mirror)(nil)
)

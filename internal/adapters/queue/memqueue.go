package queue

import (
	"sync"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

// MemQueue is a bounded in-memory FIFO of records. When full it either
// rejects new records or evicts the oldest, depending on evictOldest.
type MemQueue struct {
	mu          sync.Mutex
	data        []ports.QueuedRecord
	cap         int
	evictOldest bool
	evicted     uint64
}

func NewMemQueue(capacity int, evictOldest bool) *MemQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &MemQueue{
		data:        make([]ports.QueuedRecord, 0, capacity),
		cap:         capacity,
		evictOldest: evictOldest,
	}
}

func (q *MemQueue) Enqueue(seq uint64, rec domain.Record) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) >= q.cap {
		if !q.evictOldest {
			return false
		}
		q.data = append(q.data[:0], q.data[1:]...)
		q.evicted++
	}
	q.data = append(q.data, ports.QueuedRecord{Seq: seq, Record: rec})
	return true
}

func (q *MemQueue) DequeueBatch(max int) []ports.QueuedRecord {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.data) == 0 {
		return nil
	}
	if max <= 0 || max > len(q.data) {
		max = len(q.data)
	}
	out := make([]ports.QueuedRecord, max)
	copy(out, q.data[:max])
	q.data = append(q.data[:0], q.data[max:]...)
	return out
}

func (q *MemQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

// Evicted counts records displaced by drop-oldest.
func (q *MemQueue) Evicted() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.evicted
}

var _ ports.RecordQueue = (*MemQueue)(nil)

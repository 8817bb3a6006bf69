package queue

import (
	"testing"

	"github.com/ghalamif/EdgeHub/internal/domain"
)

func reading(name string) *domain.SensorReading {
	return &domain.SensorReading{IotData: domain.NewIotData(name, domain.TempSensorType)}
}

func TestMemQueueEnqueueDequeueOrder(t *testing.T) {
	q := NewMemQueue(4, false)

	if !q.Enqueue(1, reading("s1")) || !q.Enqueue(2, reading("s2")) {
		t.Fatalf("expected successful enqueue")
	}

	batch := q.DequeueBatch(1)
	if len(batch) != 1 || batch[0].Seq != 1 || batch[0].Record.RecordName() != "s1" {
		t.Fatalf("unexpected first batch: %+v", batch)
	}

	remaining := q.DequeueBatch(10)
	if len(remaining) != 1 || remaining[0].Seq != 2 {
		t.Fatalf("unexpected second batch: %+v", remaining)
	}

	if q.Len() != 0 {
		t.Fatalf("queue should be empty, got %d", q.Len())
	}
	if q.DequeueBatch(5) != nil {
		t.Fatalf("expected nil batch from empty queue")
	}
}

func TestMemQueueCapacity(t *testing.T) {
	q := NewMemQueue(2, false)
	r := reading("cap")

	if !q.Enqueue(1, r) || !q.Enqueue(2, r) {
		t.Fatalf("expected enqueue within capacity")
	}
	if q.Enqueue(3, r) {
		t.Fatalf("enqueue should fail when capacity exceeded")
	}

	q.DequeueBatch(1)
	if !q.Enqueue(4, r) {
		t.Fatalf("expected enqueue to succeed after dequeue")
	}
}

func TestMemQueueEvictOldest(t *testing.T) {
	q := NewMemQueue(2, true)
	for seq := uint64(1); seq <= 3; seq++ {
		if !q.Enqueue(seq, reading("r")) {
			t.Fatalf("drop-oldest queue must accept seq %d", seq)
		}
	}
	batch := q.DequeueBatch(0)
	if len(batch) != 2 || batch[0].Seq != 2 || batch[1].Seq != 3 {
		t.Fatalf("expected seqs 2,3 after eviction, got %+v", batch)
	}
	if q.Evicted() != 1 {
		t.Fatalf("expected 1 eviction, got %d", q.Evicted())
	}
}

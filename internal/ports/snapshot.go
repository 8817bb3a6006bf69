package ports

import "github.com/ghalamif/EdgeHub/internal/domain"

// QueuedRecord is a record waiting to be mirrored, tagged with its enqueue order.
type QueuedRecord struct {
	Seq    uint64
	Record domain.Record
}

type RecordQueue interface {
	Enqueue(seq uint64, rec domain.Record) bool
	DequeueBatch(max int) []QueuedRecord
	Len() int
}

// SnapshotStore keeps the latest value per (kind, name).
type SnapshotStore interface {
	UpsertBatch(recs []domain.Record) error
	Name() string
}

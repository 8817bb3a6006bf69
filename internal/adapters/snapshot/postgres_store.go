package snapshot

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/ghalamif/EdgeHub/internal/domain"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

// Config selects the Postgres table that mirrors the latest-value caches.
type Config struct {
	Enabled    bool         `yaml:"enabled"`
	ConnString string       `yaml:"conn_string"`
	Table      string       `yaml:"table"`
	Policy     ports.Policy `yaml:",inline"`
}

// Open returns a lazily connecting handle; the first query dials.
func Open(connString string) (*sql.DB, error) {
	return sql.Open("postgres", connString)
}

// PostgresStore keeps one row per (kind, name).
type PostgresStore struct {
	db        *sql.DB
	tableName string
	codec     ports.Codec
}

func NewPostgresStore(db *sql.DB, table string, codec ports.Codec) *PostgresStore {
	return &PostgresStore{db: db, tableName: table, codec: codec}
}

func (p *PostgresStore) Name() string { return "postgres" }

// UpsertBatch writes the batch in one statement. Postgres rejects a statement
// that touches the same conflict key twice, so only the last record per key
// is sent.
func (p *PostgresStore) UpsertBatch(recs []domain.Record) error {
	recs = LatestPerKey(recs)
	if len(recs) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(p.tableName)
	b.WriteString(" (kind, name, type_id, location_id, status_code, has_error, ts, payload) VALUES ")

	args := make([]any, 0, len(recs)*8)
	for i, rec := range recs {
		if i > 0 {
			b.WriteString(",")
		}
		n := len(args)
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8))

		hdr := header(rec)
		payload := p.codec.Encode(rec)
		if payload == nil {
			return fmt.Errorf("encode %s/%s: %w", rec.RecordKind(), rec.RecordName(), domain.ErrDecode)
		}
		args = append(args,
			string(rec.RecordKind()),
			rec.RecordName(),
			hdr.TypeID,
			hdr.LocationID,
			hdr.StatusCode,
			hdr.HasError,
			hdr.TimeStamp,
			payload,
		)
	}

	b.WriteString(" ON CONFLICT (kind, name) DO UPDATE SET")
	b.WriteString(" type_id = EXCLUDED.type_id, location_id = EXCLUDED.location_id,")
	b.WriteString(" status_code = EXCLUDED.status_code, has_error = EXCLUDED.has_error,")
	b.WriteString(" ts = EXCLUDED.ts, payload = EXCLUDED.payload")
	// rows only move forward in time; a reordered flush cannot regress them
	b.WriteString(" WHERE " + p.tableName + ".ts <= EXCLUDED.ts")

	_, err := p.db.Exec(b.String(), args...)
	return err
}

// LatestPerKey keeps the newest record for each (kind, name) by timestamp,
// the later one on a tie, preserving the order in which keys were first seen.
func LatestPerKey(recs []domain.Record) []domain.Record {
	type key struct {
		kind domain.RecordKind
		name string
	}
	idx := make(map[key]int, len(recs))
	out := make([]domain.Record, 0, len(recs))
	for _, rec := range recs {
		if domain.ValidateRecord(rec) != nil {
			continue
		}
		k := key{rec.RecordKind(), rec.RecordName()}
		if i, ok := idx[k]; ok {
			if !header(rec).TimeStamp.Before(header(out[i]).TimeStamp) {
				out[i] = rec
			}
			continue
		}
		idx[k] = len(out)
		out = append(out, rec)
	}
	return out
}

func header(rec domain.Record) domain.IotData {
	switch r := rec.(type) {
	case *domain.SensorReading:
		return r.IotData
	case *domain.PerformanceReading:
		return r.IotData
	case domain.ActuatorMessage:
		return r.Command().IotData
	default:
		return domain.IotData{}
	}
}

var _ ports.SnapshotStore = (*PostgresStore)(nil)

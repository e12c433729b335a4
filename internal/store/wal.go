package store

import (
	"fmt"
	"sync"

	"github.com/tidwall/wal"

	"github.com/splinter-platform/splinter/internal/errs"
)

// DurableLog is a local write-ahead log of tagged byte records, batched
// and fsynced independently of the Postgres round trip. Its only writer
// is internal/timer.Engine, which journals each fired alarm before
// clearing it from Postgres; DurableLog has no read method, so nothing
// replays it on restart. Grounded on the teacher's LogManager (storage/log_manager.go):
// same tidwall/wal-backed batch-buffer-then-flush shape, generalized from
// one fixed redo-log/txn-state record pair to arbitrary tagged byte
// records.
type DurableLog struct {
	mu    sync.Mutex
	log   *wal.Log
	batch *wal.Batch
	index uint64
}

// OpenDurableLog opens (or creates) the WAL at dir.
func OpenDurableLog(dir string) (*DurableLog, error) {
	l, err := wal.Open(dir, nil)
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "open durable log", err)
	}
	idx, err := l.LastIndex()
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "read durable log last index", err)
	}
	return &DurableLog{log: l, batch: &wal.Batch{}, index: idx}, nil
}

// Append buffers a tagged record for the next Flush.
func (d *DurableLog) Append(tag string, payload []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.index++
	d.batch.Write(d.index, []byte(fmt.Sprintf("%s:%s", tag, payload)))
}

// Flush durably writes every buffered record since the last Flush.
func (d *DurableLog) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.log.WriteBatch(d.batch); err != nil {
		return errs.Wrap(errs.KindInternal, "flush durable log", err)
	}
	d.batch.Clear()
	return nil
}

// Close closes the underlying log file.
func (d *DurableLog) Close() error {
	if err := d.log.Close(); err != nil {
		return errs.Wrap(errs.KindInternal, "close durable log", err)
	}
	return nil
}

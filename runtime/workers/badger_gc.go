package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerGCWorker runs Badger's value log garbage collection on a ticker.
// Badger never reclaims value log space on its own; a periodic GC pass keeps
// the append-only message log from growing with dead versions.
type BadgerGCWorker struct {
	log      *slog.Logger
	db       *badger.DB
	interval time.Duration
}

// gcDiscardRatio rewrites a value log file once half of it is stale.
const gcDiscardRatio = 0.5

func NewBadgerGCWorker(log *slog.Logger, db *badger.DB, interval time.Duration) *BadgerGCWorker {
	return &BadgerGCWorker{log: log, db: db, interval: interval}
}

func (w *BadgerGCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing worth collecting.
			if err := w.db.RunValueLogGC(gcDiscardRatio); err != nil && err != badger.ErrNoRewrite {
				w.log.Warn("value log GC failed", "error", err)
			}
		}
	}
}

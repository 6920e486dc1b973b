package workers

import (
	"context"
	"log/slog"
	"time"

	"pairchat/contract"
	"pairchat/observability"
)

// ReporterWorker periodically logs the chat counters and the current online
// population so operators can watch throughput and drop rates without a
// metrics backend.
type ReporterWorker struct {
	log      *slog.Logger
	stats    *observability.ChatStats
	presence contract.IPresence
	interval time.Duration
}

func NewReporterWorker(log *slog.Logger, stats *observability.ChatStats,
	presence contract.IPresence, interval time.Duration) *ReporterWorker {
	return &ReporterWorker{log: log, stats: stats, presence: presence, interval: interval}
}

func (w *ReporterWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.stats.LogReport(w.log)

			snapshot := w.presence.Snapshot()
			online := 0
			for _, p := range snapshot {
				if p.Online {
					online++
				}
			}
			w.log.Info("presence", "online", online, "seen", len(snapshot))
		}
	}
}

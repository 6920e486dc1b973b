// Package observability aggregates runtime counters for periodic reporting.
package observability

import (
	"log/slog"
	"runtime"
	"sync/atomic"
)

// ChatStats collects cheap atomic counters from the hot paths. Counters are
// cumulative for the process lifetime; the reporter logs them on a ticker.
type ChatStats struct {
	ConnectionsOpened uint64
	ConnectionsClosed uint64
	MessagesStored    uint64
	HistoryServed     uint64
	EventsDelivered   uint64
	EventsDropped     uint64
	EventsRejected    uint64
}

func NewChatStats() *ChatStats {
	return &ChatStats{}
}

func (s *ChatStats) IncrConnectionsOpened() { atomic.AddUint64(&s.ConnectionsOpened, 1) }
func (s *ChatStats) IncrConnectionsClosed() { atomic.AddUint64(&s.ConnectionsClosed, 1) }
func (s *ChatStats) IncrMessagesStored()    { atomic.AddUint64(&s.MessagesStored, 1) }
func (s *ChatStats) IncrHistoryServed()     { atomic.AddUint64(&s.HistoryServed, 1) }
func (s *ChatStats) IncrEventsDelivered()   { atomic.AddUint64(&s.EventsDelivered, 1) }
func (s *ChatStats) IncrEventsDropped()     { atomic.AddUint64(&s.EventsDropped, 1) }
func (s *ChatStats) IncrEventsRejected()    { atomic.AddUint64(&s.EventsRejected, 1) }

// LogReport emits one structured line with the current counters plus Go
// runtime memory figures.
func (s *ChatStats) LogReport(log *slog.Logger) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	log.Info("chat stats",
		"connections_opened", atomic.LoadUint64(&s.ConnectionsOpened),
		"connections_closed", atomic.LoadUint64(&s.ConnectionsClosed),
		"messages_stored", atomic.LoadUint64(&s.MessagesStored),
		"history_served", atomic.LoadUint64(&s.HistoryServed),
		"events_delivered", atomic.LoadUint64(&s.EventsDelivered),
		"events_dropped", atomic.LoadUint64(&s.EventsDropped),
		"events_rejected", atomic.LoadUint64(&s.EventsRejected),
		"alloc_mem_mb", m.Alloc/1024/1024,
		"num_gc", m.NumGC,
	)
}

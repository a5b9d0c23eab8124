// Package events fans manager events out to UI subscribers (the SSE stream).
package events

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"llamadesk/internal/manager"
)

// DefaultBufferSize is the per-subscriber queue length used when none is given.
const DefaultBufferSize = 256

var droppedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "llamadesk",
		Subsystem: "events",
		Name:      "dropped_total",
		Help:      "Events dropped because a subscriber queue was full",
	},
	[]string{"event"},
)

func init() {
	prometheus.MustRegister(droppedTotal)
}

// Broker implements manager.EventPublisher. Publish never blocks: each
// subscriber has a bounded queue and events that do not fit are dropped for
// that subscriber only. Delivered events keep publish order.
type Broker struct {
	mu      sync.RWMutex
	subs    map[uint64]chan manager.Event
	next    uint64
	bufSize int
	closed  bool
	log     zerolog.Logger
}

// NewBroker returns a broker whose subscribers buffer up to bufSize events.
func NewBroker(bufSize int) *Broker {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	return &Broker{subs: make(map[uint64]chan manager.Event), bufSize: bufSize, log: zerolog.Nop()}
}

// SetLogger installs a structured logger.
func (b *Broker) SetLogger(l zerolog.Logger) { b.log = l.With().Str("component", "events").Logger() }

// Publish delivers e to every subscriber without blocking.
func (b *Broker) Publish(e manager.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			droppedTotal.WithLabelValues(e.Name).Inc()
			b.log.Warn().Uint64("subscriber", id).Str("event", e.Name).Msg("subscriber queue full, event dropped")
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func unregisters
// it and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe() (<-chan manager.Event, func()) {
	ch := make(chan manager.Event, b.bufSize)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
			b.mu.Unlock()
		})
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close unregisters all subscribers and closes their channels. Later
// Subscribe calls return an already-closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

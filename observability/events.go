package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"brandchain/core/events"
)

type eventMetrics struct {
	emitted *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured module events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "brandchain",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of emitted module events segmented by event type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(eventRegistry.emitted)
	})
	return eventRegistry
}

// RecordEvent increments the emitted counter for the supplied event type.
func (m *eventMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	label := strings.TrimSpace(eventType)
	if label == "" {
		label = "unknown"
	}
	m.emitted.WithLabelValues(label).Inc()
}

// MeteredEmitter wraps another emitter and counts every event that passes
// through it.
type MeteredEmitter struct {
	next events.Emitter
}

// NewMeteredEmitter returns an emitter that records event metrics before
// forwarding to next. A nil next drops events after counting them.
func NewMeteredEmitter(next events.Emitter) *MeteredEmitter {
	return &MeteredEmitter{next: next}
}

func (m *MeteredEmitter) Emit(evt events.Event) {
	if m == nil || evt == nil {
		return
	}
	Events().RecordEvent(evt.EventType())
	if m.next != nil {
		m.next.Emit(evt)
	}
}

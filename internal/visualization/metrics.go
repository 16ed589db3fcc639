package visualization

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "realityserver",
		Subsystem: "screen",
		Name:      "transitions_total",
		Help:      "Frames moved between AR and the screen, by destination.",
	}, []string{"to"})

	pointerEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "realityserver",
		Subsystem: "screen",
		Name:      "pointer_events_total",
		Help:      "Pointer events replayed from projected touches.",
	}, []string{"kind"})

	droppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "realityserver",
		Subsystem: "screen",
		Name:      "dropped_messages_total",
		Help:      "Messages addressed to another screen.",
	})
)

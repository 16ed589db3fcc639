package screenbridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var callbackFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "realityserver",
	Subsystem: "screenbridge",
	Name:      "callback_failures_total",
	Help:      "Screen driver and outbound callbacks that panicked, by kind.",
}, []string{"kind"})

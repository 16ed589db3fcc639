package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	declarationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "realityserver",
		Subsystem: "registry",
		Name:      "declarations_total",
		Help:      "Node declarations handled by the registry.",
	})

	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "realityserver",
		Subsystem: "registry",
		Name:      "writes_total",
		Help:      "Successful node writes, by kind.",
	}, []string{"kind"})

	dispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "realityserver",
		Subsystem: "registry",
		Name:      "dispatch_total",
		Help:      "Subscriber callbacks invoked, by kind.",
	}, []string{"kind"})

	callbackFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "realityserver",
		Subsystem: "registry",
		Name:      "callback_failures_total",
		Help:      "Callbacks that returned an error or panicked, by kind.",
	}, []string{"kind"})

	prunedNodesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "realityserver",
		Subsystem: "registry",
		Name:      "pruned_nodes_total",
		Help:      "Nodes removed by reconciliation.",
	})
)

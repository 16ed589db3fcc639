package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "realityserver",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests served, by method, route and status.",
}, []string{"method", "route", "status"})

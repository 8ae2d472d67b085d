package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var orderLines = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "loyalty_order_lines_total",
	Help: "Order lines processed by the milestone engine, by result",
}, []string{"result"})

var milestonesReached = promauto.NewCounter(prometheus.CounterOpts{
	Name: "loyalty_milestones_reached_total",
	Help: "Milestones crossed by submitted order lines",
})

var dashboardCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "loyalty_dashboard_cache_requests_total",
	Help: "Dashboard cache lookups, by result (hit, miss, error)",
}, []string{"result"})

var changeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "loyalty_change_events_total",
	Help: "Row change events published, by entity and type",
}, []string{"entity", "type"})

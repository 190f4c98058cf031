// Package metrics exposes presence server counters in the Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gauges is the read side the collectors sample on every scrape.
type Gauges interface {
	OnlineCount() int
	ConnectionCount() int
}

// Presence holds the presence server collectors. It implements the websocket
// handlers' Observer interface.
type Presence struct {
	registry        *prometheus.Registry
	authentications *prometheus.CounterVec
	statusQueries   *prometheus.CounterVec
	disconnects     prometheus.Counter
}

// NewPresence registers the presence collectors on a fresh registry. Online
// user and connection gauges are read from g at scrape time.
func NewPresence(g Gauges) *Presence {
	reg := prometheus.NewRegistry()

	p := &Presence{
		registry: reg,
		authentications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "presence_authentications_total",
			Help: "Authenticate events by result.",
		}, []string{"result"}),
		statusQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "presence_status_queries_total",
			Help: "get_status events by result (online, offline or error code).",
		}, []string{"result"}),
		disconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "presence_disconnects_total",
			Help: "Connections closed, for any reason.",
		}),
	}

	reg.MustRegister(
		p.authentications,
		p.statusQueries,
		p.disconnects,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "presence_online_users",
			Help: "Users currently bound to a connection.",
		}, func() float64 { return float64(g.OnlineCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "presence_connections",
			Help: "Authenticated connections holding a token entry.",
		}, func() float64 { return float64(g.ConnectionCount()) }),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Presence) Authentication(result string) {
	p.authentications.WithLabelValues(result).Inc()
}

func (p *Presence) StatusQuery(result string) {
	p.statusQueries.WithLabelValues(result).Inc()
}

func (p *Presence) Disconnected() {
	p.disconnects.Inc()
}

// Registry returns the underlying Prometheus registry.
func (p *Presence) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Presence) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

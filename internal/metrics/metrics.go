// Package metrics exposes the site's prometheus counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors registered for one server.
type Metrics struct {
	registry *prometheus.Registry

	Requests       *prometheus.CounterVec
	SectionEvents  *prometheus.CounterVec
	ThemeToggles   *prometheus.CounterVec
	ContactResults *prometheus.CounterVec
	ContentLoads   *prometheus.CounterVec
	ActiveViews    prometheus.Gauge
}

// New registers collectors on a private registry so tests can build as
// many servers as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		SectionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_section_events_total",
			Help: "Intersection reports that changed navigation state, by section.",
		}, []string{"section"}),
		ThemeToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_theme_toggles_total",
			Help: "Theme toggles by resulting theme.",
		}, []string{"theme"}),
		ContactResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_contact_submissions_total",
			Help: "Contact form submissions by outcome.",
		}, []string{"outcome"}),
		ContentLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "folio_content_loads_total",
			Help: "Content loads by list.",
		}, []string{"list"}),
		ActiveViews: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "folio_active_views",
			Help: "Open page views tracked in memory.",
		}),
	}
	reg.MustRegister(m.Requests, m.SectionEvents, m.ThemeToggles, m.ContactResults, m.ContentLoads, m.ActiveViews)
	reg.MustRegister(collectors.NewGoCollector())
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

package session

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	CartAdditions   prometheus.Counter
	CartRejections  prometheus.Counter
	Checkouts       prometheus.Counter
	CheckoutItems   prometheus.Counter
	ListingsCreated prometheus.Counter
	ListingsEdited  prometheus.Counter
	ListingsDeleted prometheus.Counter
	ActiveSessions  prometheus.Gauge
}

// NewMetrics registers the marketplace counters on reg. A nil reg gives
// working but unexported metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{Namespace: "market", Name: name, Help: help})
	}

	m := &Metrics{
		CartAdditions:   counter("cart_additions_total", "Products added to carts"),
		CartRejections:  counter("cart_duplicate_rejections_total", "Cart additions rejected as duplicates"),
		Checkouts:       counter("checkouts_total", "Completed checkouts"),
		CheckoutItems:   counter("checkout_items_total", "Products purchased through checkout"),
		ListingsCreated: counter("listings_created_total", "Listings submitted"),
		ListingsEdited:  counter("listings_edited_total", "Listings edited"),
		ListingsDeleted: counter("listings_deleted_total", "Listings deleted"),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "market", Name: "active_sessions", Help: "Open marketplace sessions",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.CartAdditions, m.CartRejections, m.Checkouts, m.CheckoutItems,
			m.ListingsCreated, m.ListingsEdited, m.ListingsDeleted, m.ActiveSessions,
		)
	}
	return m
}

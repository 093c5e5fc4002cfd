// Package metrics defines the Prometheus metrics of the reservation service.
// Counters register with the default registry on import; the catalogue
// gauge is registered once the catalogue is loaded.
package metrics

import (
	"errors"
	"sync"

	"lsys/catalog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lsys"

// ReservationsTotal counts reservation requests.
// Label:
//   - outcome: "reserved", "already_reserved", "already_borrowed", "not_found", "stale" or "error"
var ReservationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_total",
		Help:      "Total number of reservation requests, by outcome.",
	},
	[]string{"outcome"},
)

// LoginsTotal counts password logins.
// Label:
//   - result: "ok", "not_found", "invalid_credentials" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RegistrationsTotal counts account registrations.
// Label:
//   - result: "ok", "invalid" or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// RequestDuration measures handler latency.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests, by method, route and status code.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route", "status"},
)

// Counter is what the catalogue gauge reads at scrape time.
type Counter interface {
	Counts() map[catalog.State]int
}

var booksDesc = prometheus.NewDesc(
	prometheus.BuildFQName(namespace, "", "books"),
	"Number of catalogue copies, by availability state.",
	[]string{"state"}, nil,
)

type bookCollector struct {
	mu sync.RWMutex
	c  Counter
}

func (bc *bookCollector) Describe(ch chan<- *prometheus.Desc) { ch <- booksDesc }

func (bc *bookCollector) Collect(ch chan<- prometheus.Metric) {
	bc.mu.RLock()
	c := bc.c
	bc.mu.RUnlock()
	for state, n := range c.Counts() {
		ch <- prometheus.MustNewConstMetric(booksDesc, prometheus.GaugeValue, float64(n), state.String())
	}
}

// RegisterCatalogue exposes lsys_books{state} for c. When reg already
// exports a catalogue, c takes its place.
func RegisterCatalogue(reg prometheus.Registerer, c Counter) error {
	err := reg.Register(&bookCollector{c: c})
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		existing, ok := already.ExistingCollector.(*bookCollector)
		if !ok {
			return err
		}
		existing.mu.Lock()
		existing.c = c
		existing.mu.Unlock()
		return nil
	}
	return err
}

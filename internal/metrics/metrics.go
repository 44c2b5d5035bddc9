// Package metrics exposes the client's prometheus collectors.
package metrics

import (
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkoutSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_submissions_total",
			Help: "Checkout submissions by payment method and result",
		},
		[]string{"method", "result"},
	)

	paymentPolls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_payment_polls_total",
			Help: "Payment status polls by result",
		},
		[]string{"result"},
	)

	checkoutOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_outcomes_total",
			Help: "Terminal checkout transitions",
		},
		[]string{"outcome"},
	)

	activeFlows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkout_active_flows",
			Help: "Checkout flows currently open",
		},
	)

	backendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Latency of calls to the cinema backend",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func Submission(method, result string) { checkoutSubmissions.WithLabelValues(method, result).Inc() }

func Poll(result string) { paymentPolls.WithLabelValues(result).Inc() }

func Outcome(outcome string) { checkoutOutcomes.WithLabelValues(outcome).Inc() }

func FlowOpened() { activeFlows.Inc() }

func FlowClosed() { activeFlows.Dec() }

var idSegment = regexp.MustCompile(`/\d+(/|$)`)

// Backend records one backend call. Numeric path segments collapse to :id so
// the label set stays bounded. status 0 means the request never completed.
func Backend(method, path string, status int, took time.Duration) {
	path = idSegment.ReplaceAllString(path, "/:id$1")
	backendDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(took.Seconds())
}

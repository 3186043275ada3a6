// Package metrix implements stats-related functionality.
package metrix

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/czertainly/cmp-validator/cmp"
)

// Result label values.
const (
	resultAccepted = "accepted"
	resultRejected = "rejected"
)

// New initializes and returns a new [Meter].
func New() (m *Meter) {
	initializedAt := time.Now()

	m = &Meter{
		uptime: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts(opts(
				"",
				"uptime_seconds",
				"Number of seconds since service start",
			)),
			func() float64 {
				return float64(time.Since(initializedAt) / time.Second)
			},
		),
		messages: newCounterVec("", "messages_total", "Number of validated CMP messages",
			"profile",
			"body",
			"result",
		),
		failures: newCounterVec("", "failures_total", "Number of rejected CMP messages by PKIFailureInfo",
			"profile",
			"fail_info",
		),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts(opts("", "parse_errors_total", "Number of undecodable CMP messages"))),
	}

	reg := prometheus.NewRegistry()

	reg.MustRegister(
		m.uptime,
		m.messages,
		m.failures,
		m.parseErrors,
	)

	h := promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry:            reg,
		Timeout:             5 * time.Second,
		MaxRequestsInFlight: 10,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	m.Handler = mux

	return
}

// Meter wraps the functionality of a Prometheus-compatible HTTP handler.
type Meter struct {
	http.Handler

	uptime      prometheus.GaugeFunc
	messages    *prometheus.CounterVec
	failures    *prometheus.CounterVec
	parseErrors prometheus.Counter
}

// Validated records the outcome of validating msg with the given profile.
func (m *Meter) Validated(profile string, msg *cmp.PKIMessage, err error) {
	body := msg.BodyType().String()
	if err == nil {
		m.messages.WithLabelValues(profile, body, resultAccepted).Inc()
		return
	}
	m.messages.WithLabelValues(profile, body, resultRejected).Inc()

	failInfo := cmp.FailSystemFailure
	if e, ok := cmp.AsError(err); ok {
		failInfo = e.FailInfo()
	}
	m.failures.WithLabelValues(profile, failInfo.String()).Inc()
}

// ParseFailed records a message that could not be decoded.
func (m *Meter) ParseFailed(profile string) {
	m.parseErrors.Inc()
	m.failures.WithLabelValues(profile, cmp.FailBadDataFormat.String()).Inc()
}

func newCounterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	opts := opts(subsystem, name, help)

	return prometheus.NewCounterVec(prometheus.CounterOpts(opts), labels)
}

func opts(subsystem, name, help string) prometheus.Opts {
	return prometheus.Opts{
		Namespace: "cmp_validator",
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}
}

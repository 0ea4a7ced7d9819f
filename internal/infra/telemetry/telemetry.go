package telemetry

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// GuardMetrics counts the decisions taken by the request guards.
type GuardMetrics struct {
	RateLimited  *prometheus.CounterVec
	Lockouts     prometheus.Counter
	LoginFailure prometheus.Counter
	GateDenials  *prometheus.CounterVec
}

// NewGuardMetrics registers guard collectors on reg, reusing collectors that are already registered.
func NewGuardMetrics(reg prometheus.Registerer, namespace string) (*GuardMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "crop"
	}

	rateLimited, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "guard",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter, by operation.",
	}, []string{"operation"}))
	if err != nil {
		return nil, err
	}

	lockouts, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "guard",
		Name:      "lockouts_total",
		Help:      "Login identifiers placed under lockout.",
	}))
	if err != nil {
		return nil, err
	}

	failures, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "guard",
		Name:      "login_failures_total",
		Help:      "Failed credential checks.",
	}))
	if err != nil {
		return nil, err
	}

	denials, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "guard",
		Name:      "access_denied_total",
		Help:      "Requests denied by the access gate, by reason and surface.",
	}, []string{"reason", "surface"}))
	if err != nil {
		return nil, err
	}

	return &GuardMetrics{
		RateLimited:  rateLimited,
		Lockouts:     lockouts,
		LoginFailure: failures,
		GateDenials:  denials,
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return c, fmt.Errorf("register collector: %w", err)
		}
		existing, ok := already.ExistingCollector.(C)
		if !ok {
			return c, fmt.Errorf("existing collector has unexpected type %T", already.ExistingCollector)
		}
		return existing, nil
	}
	return c, nil
}

// ObserveRateLimited counts a rejected request for operation.
func (m *GuardMetrics) ObserveRateLimited(operation string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(operation).Inc()
}

// ObserveLockout counts a new lockout.
func (m *GuardMetrics) ObserveLockout() {
	if m == nil {
		return
	}
	m.Lockouts.Inc()
}

// ObserveLoginFailure counts a failed credential check.
func (m *GuardMetrics) ObserveLoginFailure() {
	if m == nil {
		return
	}
	m.LoginFailure.Inc()
}

// ObserveGateDenial counts an access gate denial.
func (m *GuardMetrics) ObserveGateDenial(reason, surface string) {
	if m == nil {
		return
	}
	m.GateDenials.WithLabelValues(reason, surface).Inc()
}

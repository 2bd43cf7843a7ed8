package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var (
	LoginSuccessTotal         prometheus.Counter
	LoginFailureTotal         prometheus.Counter
	LoginRateLimitedTotal     prometheus.Counter
	OAuthInitiatedTotal       prometheus.Counter
	OAuthFailureTotal         prometheus.Counter
	RegistrationSuccessTotal  prometheus.Counter
	RegistrationRejectedTotal prometheus.Counter
	ActiveSessionsGauge       prometheus.Gauge
)

// InitCustomMetrics initializes and registers the gateway's metrics.
// It should be called once at application startup.
func InitCustomMetrics(reg prometheus.Registerer) {
	LoginSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "haven_gateway_logins_success_total",
		Help: "Total number of successful logins.",
	})
	LoginFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "haven_gateway_logins_failure_total",
		Help: "Total number of failed logins.",
	})
	LoginRateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "haven_gateway_logins_rate_limited_total",
		Help: "Total number of login attempts rejected by the rate limiter.",
	})
	OAuthInitiatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "haven_gateway_oauth_initiated_total",
		Help: "Total number of OAuth handshakes initiated.",
	})
	OAuthFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "haven_gateway_oauth_failure_total",
		Help: "Total number of OAuth handshakes that failed.",
	})
	RegistrationSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "haven_gateway_registrations_success_total",
		Help: "Total number of completed registrations.",
	})
	RegistrationRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "haven_gateway_registrations_rejected_total",
		Help: "Total number of registrations rejected by the backend.",
	})
	ActiveSessionsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "haven_gateway_active_sessions_gauge",
		Help: "Current number of authenticated sessions.",
	})

	if reg == nil {
		return
	}
	for _, c := range []prometheus.Collector{
		LoginSuccessTotal,
		LoginFailureTotal,
		LoginRateLimitedTotal,
		OAuthInitiatedTotal,
		OAuthFailureTotal,
		RegistrationSuccessTotal,
		RegistrationRejectedTotal,
		ActiveSessionsGauge,
	} {
		if err := reg.Register(c); err != nil {
			log.Warn().Err(err).Msg("Failed to register metric")
		}
	}
}

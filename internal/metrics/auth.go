package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Auth-flow Prometheus metrics. Package propio para evitar ciclos de import
// entre services y HTTP.

var (
	FlowTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_flow_total",
		Help: "Resultados por flujo de autenticación",
	}, []string{"flow", "outcome"})

	EmailSendLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "auth_email_send_latency_ms",
		Help:    "Latencia de envío de emails en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	})
)

// Flow labels.
const (
	FlowRegister    = "register"
	FlowVerifyEmail = "verify_email"
	FlowLogin       = "login"
	FlowMFACode     = "mfa_code"
	FlowVerifyMFA   = "verify_mfa"
	FlowForgot      = "forgot_password"
	FlowReset       = "reset_password"
	FlowRecover     = "recover_mfa"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Inc incrementa el contador del flujo con el outcome dado.
func Inc(flow, outcome string) {
	FlowTotal.WithLabelValues(flow, outcome).Inc()
}

// Register registra las métricas en reg (o en el default si es nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{FlowTotal, EmailSendLatency} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

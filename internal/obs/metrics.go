// Package obs содержит метрики Prometheus сервиса.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PaymentsVerifiedTotal считает исходы верификации платежей.
// result: confirmed, not_paid, amount_mismatch, duplicate, error.
var PaymentsVerifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "payments_verified_total",
	Help: "Payment verification attempts by result.",
}, []string{"result"})

// ModelCallsTotal считает обращения к LLM-провайдеру.
// kind: analysis, improvement, chat; degraded: true/false.
var ModelCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "model_calls_total",
	Help: "LLM provider calls by kind and degraded flag.",
}, []string{"kind", "degraded"})

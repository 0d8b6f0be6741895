package op

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "authserver"

// Metrics are the counters of the authorization core.
type Metrics struct {
	CodesIssued        prometheus.Counter
	CodeRedemptions    *prometheus.CounterVec
	CascadeRevocations prometheus.Counter
	TokensIssued       *prometheus.CounterVec
	RequestObjects     *prometheus.CounterVec
	SweptRecords       *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CodesIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "codes_issued_total",
			Help:      "Authorization codes issued.",
		}),
		CodeRedemptions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "code_redemptions_total",
			Help:      "Authorization code redemption attempts by result.",
		}, []string{"result"}),
		CascadeRevocations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cascade_revoked_tokens_total",
			Help:      "Tokens revoked because their authorization code was reused.",
		}),
		TokensIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "tokens_issued_total",
			Help:      "Tokens issued by type.",
		}, []string{"type"}),
		RequestObjects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "request_objects_total",
			Help:      "Request objects processed by result.",
		}, []string{"result"}),
		SweptRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "swept_records_total",
			Help:      "Expired records deleted by the sweeper.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) codeIssued() {
	if m != nil {
		m.CodesIssued.Inc()
	}
}

func (m *Metrics) redemption(result redemptionResult) {
	if m != nil {
		m.CodeRedemptions.WithLabelValues(string(result)).Inc()
	}
}

func (m *Metrics) cascadeRevoked(n int) {
	if m != nil {
		m.CascadeRevocations.Add(float64(n))
	}
}

func (m *Metrics) tokenIssued(tokenType TokenType) {
	if m != nil {
		m.TokensIssued.WithLabelValues(string(tokenType)).Inc()
	}
}

func (m *Metrics) requestObject(result string) {
	if m != nil {
		m.RequestObjects.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) swept(kind string, n int) {
	if m != nil {
		m.SweptRecords.WithLabelValues(kind).Add(float64(n))
	}
}

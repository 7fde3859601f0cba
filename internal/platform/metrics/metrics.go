// Package metrics registers the service's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service. It satisfies the
// instrumentation interfaces of the token and auth services.
type Metrics struct {
	tokensIssued    *prometheus.CounterVec
	logins          *prometheus.CounterVec
	tokenRefreshes  *prometheus.CounterVec
	grants          *prometheus.CounterVec
	accountsCreated prometheus.Counter
	degradedSigning prometheus.Gauge
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		tokensIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "realmgate_tokens_issued_total",
			Help: "Tokens issued, partitioned by kind (access or refresh)",
		}, []string{"kind"}),
		logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "realmgate_logins_total",
			Help: "Login attempts, partitioned by result",
		}, []string{"result"}),
		tokenRefreshes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "realmgate_token_refreshes_total",
			Help: "Refresh token rotations, partitioned by result",
		}, []string{"result"}),
		grants: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "realmgate_oauth_grants_total",
			Help: "OAuth token grants, partitioned by grant type and result",
		}, []string{"grant_type", "result"}),
		accountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "realmgate_accounts_created_total",
			Help: "Total number of accounts registered",
		}),
		degradedSigning: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "realmgate_degraded_signing",
			Help: "1 when any realm signs with the shared-secret fallback instead of RSA keys",
		}),
	}
}

func (m *Metrics) IncTokensIssued(kind string) {
	m.tokensIssued.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncLogins(result string) {
	m.logins.WithLabelValues(result).Inc()
}

func (m *Metrics) IncTokenRefreshes(result string) {
	m.tokenRefreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) IncGrants(grantType, result string) {
	m.grants.WithLabelValues(grantType, result).Inc()
}

func (m *Metrics) IncAccountsCreated() {
	m.accountsCreated.Inc()
}

func (m *Metrics) SetDegradedSigning(degraded bool) {
	if degraded {
		m.degradedSigning.Set(1)
		return
	}
	m.degradedSigning.Set(0)
}

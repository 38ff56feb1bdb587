package common

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors of the bot. All methods are safe
// to call on a nil receiver, which disables them
type Metrics struct {
	Registry      *prometheus.Registry
	riotRequests  *prometheus.CounterVec
	roleChanges   *prometheus.CounterVec
	verifications *prometheus.CounterVec
	refreshed     *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		riotRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riotlink_riot_requests_total",
			Help: "Requests made to the Riot API by response status.",
		}, []string{"status"}),
		roleChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riotlink_role_changes_total",
			Help: "Managed roles added to or removed from members.",
		}, []string{"op"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riotlink_verifications_total",
			Help: "Verification attempts by outcome.",
		}, []string{"outcome"}),
		refreshed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "riotlink_refresh_accounts_total",
			Help: "Accounts visited by the periodic refresh by result.",
		}, []string{"result"}),
	}
	m.Registry.MustRegister(m.riotRequests, m.roleChanges, m.verifications, m.refreshed)
	return m
}

func (m *Metrics) RiotRequest(status int) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.riotRequests.WithLabelValues(label).Inc()
}

func (m *Metrics) RoleChange(op string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.roleChanges.WithLabelValues(op).Add(float64(n))
}

func (m *Metrics) Verification(outcome string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Refreshed(result string) {
	if m == nil {
		return
	}
	m.refreshed.WithLabelValues(result).Inc()
}

package obs

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total", Help: "Login attempts by result",
	}, []string{"result"})

	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_tokens_issued_total", Help: "Tokens issued by kind",
	}, []string{"kind"})

	TokenRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_token_rejections_total", Help: "Rejected bearer tokens by reason",
	}, []string{"reason"})

	Revocations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_revocations_total", Help: "Blacklist records written on logout",
	})

	BlacklistPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auth_blacklist_purged_total", Help: "Expired blacklist records removed by the janitor",
	})
)

func MetricsHandler() http.Handler { return promhttp.Handler() }

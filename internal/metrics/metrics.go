package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LogsReceived counts every log delivered by the subscription, including
	// ones that later fail to decode or classify as irrelevant.
	LogsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netflow_logs_received_total",
		Help: "Transfer logs delivered by the chain subscription.",
	})

	DecodeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netflow_decode_errors_total",
		Help: "Logs skipped because they could not be decoded.",
	})

	FlowsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netflow_flows_recorded_total",
		Help: "Classified flows persisted, per exchange label.",
	}, []string{"exchange"})

	StoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netflow_store_errors_total",
		Help: "Failed atomic ledger+snapshot writes.",
	})

	Reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netflow_subscription_reconnects_total",
		Help: "Subscription re-establish attempts after a stream failure.",
	})

	SubscriptionUp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "netflow_subscription_up",
		Help: "1 while the log subscription is open.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}

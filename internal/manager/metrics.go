package manager

import "github.com/prometheus/client_golang/prometheus"

const (
	resultOK        = "ok"
	resultCancelled = "cancelled"
	resultRejected  = "rejected"
	resultError     = "error"
)

var (
	loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llamadesk",
			Subsystem: "manager",
			Name:      "loads_total",
			Help:      "Model load commands by result",
		},
		[]string{"result"},
	)

	inferencesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llamadesk",
			Subsystem: "manager",
			Name:      "inferences_total",
			Help:      "Inference commands by result",
		},
		[]string{"result"},
	)

	tokensGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "llamadesk",
			Subsystem: "manager",
			Name:      "tokens_generated_total",
			Help:      "Tokens emitted to the UI",
		},
	)

	cancelRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "llamadesk",
			Subsystem: "manager",
			Name:      "cancel_requests_total",
			Help:      "Cancel requests received",
		},
	)

	actionGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "llamadesk",
			Subsystem: "manager",
			Name:      "action",
			Help:      "Current lifecycle action (1 for the active one)",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(loadsTotal, inferencesTotal, tokensGeneratedTotal, cancelRequestsTotal, actionGauge)
}

func setActionGauge(a Action) {
	for _, s := range []Action{ActionIdle, ActionLoadingModel, ActionWaitingForTask, ActionRunningInference} {
		v := 0.0
		if s == a {
			v = 1
		}
		actionGauge.WithLabelValues(string(s)).Set(v)
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return resultOK
	case IsCancelled(err):
		return resultCancelled
	default:
		return resultError
	}
}

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storage_dapp"

var (
	// ConnectionState is 1 for the current connection state label and 0 for the others.
	ConnectionState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connection_state",
		Help:      "Current connection state (disconnected, read-only, connected).",
	}, []string{"state"})

	// ConnectAttempts counts connection attempts by outcome.
	ConnectAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connect_attempts_total",
		Help:      "Connection attempts by outcome.",
	}, []string{"outcome"})

	// NetworkSwitches counts reconciliation requests sent to the wallet.
	NetworkSwitches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "network_switch_total",
		Help:      "Wallet network reconciliation requests by method and outcome.",
	}, []string{"method", "outcome"})

	// ABILoads counts interface descriptor loads by source.
	ABILoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "abi_loads_total",
		Help:      "ABI loads by source (remote, fallback).",
	}, []string{"source"})

	// ContractCalls counts get/set calls by outcome.
	ContractCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "contract_calls_total",
		Help:      "Contract calls by method and outcome.",
	}, []string{"method", "outcome"})

	// ConfirmationSeconds observes the time from submission to one confirmation.
	ConfirmationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tx_confirmation_seconds",
		Help:      "Time from submission to the first confirmation.",
		Buckets:   []float64{1, 3, 6, 12, 24, 48, 96, 192},
	})

	// ValueChangedEvents counts ValueChanged events applied to the view.
	ValueChangedEvents = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "value_changed_events_total",
		Help:      "ValueChanged events received.",
	})

	// WalletEvents counts wallet account and chain change notifications.
	WalletEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wallet_events_total",
		Help:      "Wallet change notifications by type.",
	}, []string{"type"})

	registerOnce sync.Once
)

// MustRegisterMetrics registers all collectors with the default registry. Safe to call more than once.
func MustRegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ConnectionState,
			ConnectAttempts,
			NetworkSwitches,
			ABILoads,
			ContractCalls,
			ConfirmationSeconds,
			ValueChangedEvents,
			WalletEvents,
		)
	})
}

// SetConnectionState flips the state gauge to the given label.
func SetConnectionState(state string) {
	for _, s := range []string{"disconnected", "read-only", "connected"} {
		v := 0.0
		if s == state {
			v = 1
		}
		ConnectionState.WithLabelValues(s).Set(v)
	}
}

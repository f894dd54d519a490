package request

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"item_requests/internal/domain/service/fulfillment"
)

const metricsNamespace = "item_requests"

// Metrics is nil-safe: a service without metrics just skips the calls.
type Metrics struct {
	settlements    *prometheus.CounterVec
	deliveredLines prometheus.Counter
	faultedLines   prometheus.Counter
	settledValue   prometheus.Counter
	dealsOpened    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer, registry *Registry) *Metrics {
	factory := promauto.With(reg)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "open_deals",
		Help:      "Negotiations currently open.",
	}, func() float64 {
		return float64(registry.Len())
	})

	return &Metrics{
		settlements: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "settlements_total",
			Help:      "Settlement attempts by outcome.",
		}, []string{"outcome"}),
		deliveredLines: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "delivered_lines_total",
			Help:      "Request lines handed over by traders.",
		}),
		faultedLines: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "faulted_lines_total",
			Help:      "Request lines a trader failed to hand over.",
		}),
		settledValue: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "settled_value_total",
			Help:      "Silver paid for delivered goods.",
		}),
		dealsOpened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "deals_opened_total",
			Help:      "Negotiations started.",
		}),
	}
}

func (m *Metrics) dealOpened() {
	if m == nil {
		return
	}
	m.dealsOpened.Inc()
}

func (m *Metrics) observe(result fulfillment.Result) {
	if m == nil {
		return
	}

	m.settlements.WithLabelValues(result.Outcome.String()).Inc()
	m.deliveredLines.Add(float64(len(result.Delivered)))
	m.faultedLines.Add(float64(len(result.Faults)))
}

func (m *Metrics) settled(paid decimal.Decimal) {
	if m == nil {
		return
	}

	m.settledValue.Add(paid.InexactFloat64())
}

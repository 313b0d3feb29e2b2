package litepcie

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for a Connection. A nil *Metrics
// records nothing.
type Metrics struct {
	StreamBytes     *prometheus.CounterVec
	StreamTimeouts  *prometheus.CounterVec
	DMAStarts       *prometheus.CounterVec
	DMAStops        *prometheus.CounterVec
	DMAArmed        *prometheus.GaugeVec
	IOErrors        *prometheus.CounterVec
	ControlCommands prometheus.Counter
}

// NewMetrics creates the instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	channelLabels := []string{"endpoint", "direction"}

	return &Metrics{
		StreamBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "litepcie",
				Subsystem: "stream",
				Name:      "bytes_total",
				Help:      "Total bytes moved through endpoint streams",
			},
			channelLabels,
		),
		StreamTimeouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "litepcie",
				Subsystem: "stream",
				Name:      "timeouts_total",
				Help:      "Total stream transfers that ended short at their deadline",
			},
			channelLabels,
		),
		DMAStarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "litepcie",
				Subsystem: "dma",
				Name:      "starts_total",
				Help:      "Total DMA channel start requests",
			},
			channelLabels,
		),
		DMAStops: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "litepcie",
				Subsystem: "dma",
				Name:      "stops_total",
				Help:      "Total DMA channel stop requests",
			},
			channelLabels,
		),
		DMAArmed: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "litepcie",
				Subsystem: "dma",
				Name:      "armed",
				Help:      "Whether the DMA channel is armed (1) or not (0)",
			},
			channelLabels,
		),
		IOErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "litepcie",
				Name:      "io_errors_total",
				Help:      "Total failed device operations",
			},
			[]string{"operation"},
		),
		ControlCommands: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "litepcie",
				Subsystem: "control",
				Name:      "commands_total",
				Help:      "Total commands written to the control device",
			},
		),
	}
}

func channelLabelValues(endpoint int, dir Direction) []string {
	return []string{strconv.Itoa(endpoint), dir.String()}
}

func (m *Metrics) transferred(endpoint int, dir Direction, n, want int) {
	if m == nil {
		return
	}
	labels := channelLabelValues(endpoint, dir)
	m.StreamBytes.WithLabelValues(labels...).Add(float64(n))
	if n < want {
		m.StreamTimeouts.WithLabelValues(labels...).Inc()
	}
}

func (m *Metrics) dmaStarted(endpoint int, dir Direction) {
	if m == nil {
		return
	}
	labels := channelLabelValues(endpoint, dir)
	m.DMAStarts.WithLabelValues(labels...).Inc()
	m.DMAArmed.WithLabelValues(labels...).Set(1)
}

func (m *Metrics) dmaStopped(endpoint int, dir Direction) {
	if m == nil {
		return
	}
	labels := channelLabelValues(endpoint, dir)
	m.DMAStops.WithLabelValues(labels...).Inc()
	m.DMAArmed.WithLabelValues(labels...).Set(0)
}

func (m *Metrics) ioError(operation string) {
	if m == nil {
		return
	}
	m.IOErrors.WithLabelValues(operation).Inc()
}

func (m *Metrics) command() {
	if m == nil {
		return
	}
	m.ControlCommands.Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	appledger "github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var _ appledger.Metrics = (*Ledger)(nil)

// Ledger colectores Prometheus del libro de movimientos.
type Ledger struct {
	batches  *prometheus.CounterVec
	entries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	lines    prometheus.Histogram
	drift    prometheus.Gauge
}

// NewLedger registra los colectores en registerer; nil usa el registerer por defecto.
func NewLedger(registerer prometheus.Registerer) *Ledger {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	f := promauto.With(registerer)
	return &Ledger{
		batches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stock_ledger",
			Name:      "batches_total",
			Help:      "Lotes enviados por resultado y tipo de movimiento.",
		}, []string{"outcome", "type"}),
		entries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stock_ledger",
			Name:      "entries_total",
			Help:      "Movimientos registrados en el libro por tipo.",
		}, []string{"type"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stock_ledger",
			Name:      "batch_duration_seconds",
			Help:      "Duración del envío de un lote, de la validación a la confirmación.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"outcome"}),
		lines: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stock_ledger",
			Name:      "batch_lines",
			Help:      "Líneas por lote registrado.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		}),
		drift: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "stock_ledger",
			Name:      "drift_products",
			Help:      "Productos cuya cantidad no coincide con la suma del libro en la última conciliación.",
		}),
	}
}

// ObserveBatch registra el resultado de un envío.
func (m *Ledger) ObserveBatch(outcome string, movementType entity.MovementType, lines int, elapsed time.Duration) {
	if m == nil {
		return
	}
	typ := string(movementType)
	if !movementType.Valid() {
		typ = "unknown"
	}
	m.batches.WithLabelValues(outcome, typ).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if outcome == appledger.OutcomeRecorded {
		m.entries.WithLabelValues(typ).Add(float64(lines))
		m.lines.Observe(float64(lines))
	}
}

// SetDrift publica el número de productos descuadrados.
func (m *Ledger) SetDrift(products int) {
	if m == nil {
		return
	}
	m.drift.Set(float64(products))
}

package amm

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for a pool.
type Metrics struct {
	operationsTotal *prometheus.CounterVec
	failuresTotal   *prometheus.CounterVec
	reserves        *prometheus.GaugeVec
	totalShares     prometheus.Gauge
}

// NewMetrics creates and registers the pool metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amm_operations_total",
			Help: "Committed pool operations, labeled by operation.",
		}, []string{"operation"}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amm_operation_failures_total",
			Help: "Rejected pool operations, labeled by operation and reason.",
		}, []string{"operation", "reason"}),
		reserves: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "amm_reserve_units",
			Help: "Pool reserve in whole units, labeled by asset slot.",
		}, []string{"asset"}),
		totalShares: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "amm_total_shares_units",
			Help: "Outstanding pool shares in whole units.",
		}),
	}
	reg.MustRegister(m.operationsTotal, m.failuresTotal, m.reserves, m.totalShares)
	return m
}

func (m *Metrics) observeCommit(op string, st *state) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(op).Inc()
	m.reserves.WithLabelValues("1").Set(unitsFloat(st.reserve1))
	m.reserves.WithLabelValues("2").Set(unitsFloat(st.reserve2))
	m.totalShares.Set(unitsFloat(st.totalShares))
}

func (m *Metrics) observeFailure(op string, err error) {
	if m == nil || err == nil {
		return
	}
	m.failuresTotal.WithLabelValues(op, ErrorReason(err)).Inc()
}

// ErrorReason maps a pool error to a short label such as "swap_too_large".
func ErrorReason(err error) string {
	switch {
	case errors.Is(err, ErrRollbackFailed):
		return "rollback_failed"
	case errors.Is(err, ErrTransferFailed):
		return "transfer_failed"
	case errors.Is(err, ErrPoolEmpty), errors.Is(err, ErrDivisionByEmptyPool):
		return "pool_empty"
	case errors.Is(err, ErrUnbalancedDeposit):
		return "unbalanced_deposit"
	case errors.Is(err, ErrSwapTooLarge):
		return "swap_too_large"
	case errors.Is(err, ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrPoolBusy):
		return "busy"
	case errors.Is(err, ErrOverflow):
		return "overflow"
	default:
		return "other"
	}
}

func unitsFloat(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v.ToBig()), new(big.Float).SetInt(Unit.ToBig())).Float64()
	return f
}

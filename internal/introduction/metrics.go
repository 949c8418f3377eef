package introduction

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 完成类型标签
const (
	kindFetch  = "fetch"
	kindInsert = "insert"
)

// 完成结果标签
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeInvalid = "invalid"
	outcomeStale   = "stale"
)

// Metrics 调度器指标
type Metrics struct {
	Cycles          prometheus.Counter
	CycleErrors     prometheus.Counter
	CycleDuration   prometheus.Histogram
	Fallbacks       prometheus.Counter
	Requests        *prometheus.CounterVec
	Completions     *prometheus.CounterVec
	Duplicates      prometheus.Counter
	Cancelled       *prometheus.CounterVec
	Pending         *prometheus.GaugeVec
	WindowSize      prometheus.Gauge
	PuzzlesStored   prometheus.Counter
	PuzzlesEvicted  prometheus.Counter
	PuzzlesPurged   prometheus.Counter
	ChainsCompleted prometheus.Counter
}

// NewMetrics 创建并注册指标；reg 为 nil 时不注册
//
// 任一指标注册失败（例如同一 Registerer 上重复注册）时撤销已注册的指标并返回错误。
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := newMetrics(namespace)
	if reg == nil {
		return m, nil
	}
	var registered []prometheus.Collector
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			for _, r := range registered {
				reg.Unregister(r)
			}
			return nil, fmt.Errorf("register introduction metrics: %w", err)
		}
		registered = append(registered, c)
	}
	return m, nil
}

// newMetrics 创建不注册的指标
func newMetrics(namespace string) *Metrics {
	const subsystem = "introduction"
	m := &Metrics{
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "cycles_total",
			Help: "Scheduler cycles run.",
		}),
		CycleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "cycle_errors_total",
			Help: "Scheduler cycles that failed on a store error.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name:    "cycle_duration_seconds",
			Help:    "Time spent purging, selecting and issuing requests.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "selection_fallbacks_total",
			Help: "Selections that ignored the recent-identity window.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "requests_total",
			Help: "Transport requests issued.",
		}, []string{"kind"}),
		Completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "completions_total",
			Help: "Transport completions handled.",
		}, []string{"kind", "outcome"}),
		Duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "duplicate_requests_total",
			Help: "Requests skipped because the same key was already in flight.",
		}),
		Cancelled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "cancelled_total",
			Help: "Requests cancelled by cancel-all.",
		}, []string{"kind"}),
		Pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "pending",
			Help: "Requests currently in flight.",
		}, []string{"kind"}),
		WindowSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "window_size",
			Help: "Identities in the recent-identity window.",
		}),
		PuzzlesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "puzzles_stored_total",
			Help: "Fetched puzzles written to the pool.",
		}),
		PuzzlesEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "puzzles_evicted_total",
			Help: "Puzzles evicted to keep the pool within capacity.",
		}),
		PuzzlesPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "puzzles_purged_total",
			Help: "Expired puzzles deleted.",
		}),
		ChainsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "chains_at_limit_total",
			Help: "Chained discoveries that reached the maximum index.",
		}),
	}
	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Cycles, m.CycleErrors, m.CycleDuration, m.Fallbacks,
		m.Requests, m.Completions, m.Duplicates, m.Cancelled,
		m.Pending, m.WindowSize,
		m.PuzzlesStored, m.PuzzlesEvicted, m.PuzzlesPurged, m.ChainsCompleted,
	}
}

// observeCycle 记录一次周期
func (m *Metrics) observeCycle(start, end time.Time, err error) {
	m.Cycles.Inc()
	if err != nil {
		m.CycleErrors.Inc()
	}
	m.CycleDuration.Observe(end.Sub(start).Seconds())
}

// completion 记录一次完成
func (m *Metrics) completion(kind, outcome string) {
	m.Completions.WithLabelValues(kind, outcome).Inc()
}

// setPending 更新在途与窗口指标
func (m *Metrics) setPending(fetches, inserts, window int) {
	m.Pending.WithLabelValues(kindFetch).Set(float64(fetches))
	m.Pending.WithLabelValues(kindInsert).Set(float64(inserts))
	m.WindowSize.Set(float64(window))
}

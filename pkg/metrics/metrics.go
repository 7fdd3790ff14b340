// Package metrics 提供基于Prometheus的指标收集
//
// 指标命名规范:
// - Counter以_total结尾(inventory_mutations_total)
// - Histogram以单位结尾(dashboard_build_duration_seconds)
// - 标签只用低基数维度(操作名/结果),不用记录ID
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// initialized 防止重复注册
	initialized bool

	// InventoryMutationsTotal 库存变更操作总数
	// 标签:op(reserve/release/sell/loss/transfer/...)、result(success/failure)
	InventoryMutationsTotal *prometheus.CounterVec

	// InventoryMutationDuration 库存变更耗时
	InventoryMutationDuration *prometheus.HistogramVec

	// DashboardBuildDuration 预测看板构建耗时
	DashboardBuildDuration prometheus.Histogram

	// DashboardCacheRequests 看板缓存请求数
	// 标签:result(hit/miss/bypass)
	DashboardCacheRequests *prometheus.CounterVec

	// AlertsGeneratedTotal 告警产出总数
	// 标签:category(EXPIRING_SOON/LOW_STOCK/...)
	AlertsGeneratedTotal *prometheus.CounterVec

	// ExpiredProcessedTotal 过期扫描处理的记录总数
	ExpiredProcessedTotal prometheus.Counter

	// MessagesPublishedTotal 消息发布总数
	// 标签:routing_key前缀(inventory.movement/inventory.alert)、result
	MessagesPublishedTotal *prometheus.CounterVec
)

// InitMetrics 注册全部指标,程序启动时调用一次
func InitMetrics() {
	if initialized {
		return
	}
	initialized = true

	InventoryMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inventory_mutations_total",
			Help: "库存变更操作总数",
		},
		[]string{"op", "result"},
	)

	InventoryMutationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inventory_mutation_duration_seconds",
			Help:    "库存变更耗时(秒)",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"op"},
	)

	DashboardBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dashboard_build_duration_seconds",
			Help:    "预测看板构建耗时(秒)",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)

	DashboardCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_cache_requests_total",
			Help: "看板缓存请求数",
		},
		[]string{"result"},
	)

	AlertsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_generated_total",
			Help: "告警产出总数",
		},
		[]string{"category"},
	)

	ExpiredProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expired_processed_total",
			Help: "过期扫描处理的记录总数",
		},
	)

	MessagesPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_published_total",
			Help: "消息发布总数",
		},
		[]string{"routing_key", "result"},
	)
}

// ObserveMutation 记录一次库存变更
func ObserveMutation(op string, seconds float64, err error) {
	if InventoryMutationsTotal == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	InventoryMutationsTotal.WithLabelValues(op, result).Inc()
	InventoryMutationDuration.WithLabelValues(op).Observe(seconds)
}

package prediction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/agristock/internal/domain/inventory"
	"github.com/xiebiao/agristock/internal/domain/prediction"
	"github.com/xiebiao/agristock/pkg/circuitbreaker"
	"github.com/xiebiao/agristock/pkg/metrics"
)

// DashboardCache 看板缓存端口
// redis实现满足该接口;未命中返回(nil, nil)
type DashboardCache interface {
	GetDashboard(ctx context.Context) (*prediction.Dashboard, error)
	SetDashboard(ctx context.Context, dash *prediction.Dashboard) error
	GetStatistics(ctx context.Context) (*inventory.Statistics, error)
	SetStatistics(ctx context.Context, stats *inventory.Statistics) error
}

// DashboardUseCase 预测看板用例
// 设计说明:
// 1. Cache-Aside:先查redis,未命中再全量扫描重算并回填
// 2. 缓存访问包在熔断器里:redis故障时熔断打开,后续请求
//    直接回源重算,不给故障实例继续施压,也绝不把缓存错误抛给调用方
// 3. 重算路径自身的查询失败由领域服务降级为全零载荷
type DashboardUseCase struct {
	predictionSvc *prediction.Service
	inventorySvc  *inventory.Service
	cache         DashboardCache
	breaker       *circuitbreaker.CircuitBreaker
	highValue     decimal.Decimal
	logger        *zap.Logger
}

// NewDashboardUseCase 创建用例
func NewDashboardUseCase(predictionSvc *prediction.Service, inventorySvc *inventory.Service,
	cache DashboardCache, highValueThreshold decimal.Decimal, logger *zap.Logger) *DashboardUseCase {
	uc := &DashboardUseCase{
		predictionSvc: predictionSvc,
		inventorySvc:  inventorySvc,
		cache:         cache,
		highValue:     highValueThreshold,
		logger:        logger,
	}
	uc.breaker = circuitbreaker.New("dashboard-cache", circuitbreaker.Config{
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	uc.breaker.OnStateChange(func(name string, from, to circuitbreaker.State) {
		logger.Warn("缓存熔断器状态变化",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()))
	})
	return uc
}

// Execute 构建预测看板
func (uc *DashboardUseCase) Execute(ctx context.Context) *prediction.Dashboard {
	if cached := uc.cachedDashboard(ctx); cached != nil {
		return cached
	}

	start := time.Now()
	dash := uc.predictionSvc.BuildDashboard(ctx)
	if metrics.DashboardBuildDuration != nil {
		metrics.DashboardBuildDuration.Observe(time.Since(start).Seconds())
	}

	uc.storeDashboard(ctx, dash)
	return dash
}

// Statistics 库存统计(缓存快照优先)
func (uc *DashboardUseCase) Statistics(ctx context.Context) (*inventory.Statistics, error) {
	if uc.cache != nil {
		var cached *inventory.Statistics
		err := uc.breaker.Execute(func() error {
			var err error
			cached, err = uc.cache.GetStatistics(ctx)
			return err
		})
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	stats, err := uc.inventorySvc.BuildStatistics(ctx, uc.highValue)
	if err != nil {
		return nil, err
	}
	if uc.cache != nil {
		_ = uc.breaker.Execute(func() error {
			return uc.cache.SetStatistics(ctx, stats)
		})
	}
	return stats, nil
}

// cachedDashboard 经熔断器读缓存,任何失败都按未命中处理
func (uc *DashboardUseCase) cachedDashboard(ctx context.Context) *prediction.Dashboard {
	if uc.cache == nil {
		return nil
	}
	var cached *prediction.Dashboard
	err := uc.breaker.Execute(func() error {
		var err error
		cached, err = uc.cache.GetDashboard(ctx)
		return err
	})
	if metrics.DashboardCacheRequests != nil {
		switch {
		case err != nil:
			metrics.DashboardCacheRequests.WithLabelValues("bypass").Inc()
		case cached == nil:
			metrics.DashboardCacheRequests.WithLabelValues("miss").Inc()
		default:
			metrics.DashboardCacheRequests.WithLabelValues("hit").Inc()
		}
	}
	if err != nil {
		return nil
	}
	return cached
}

func (uc *DashboardUseCase) storeDashboard(ctx context.Context, dash *prediction.Dashboard) {
	if uc.cache == nil {
		return
	}
	err := uc.breaker.Execute(func() error {
		return uc.cache.SetDashboard(ctx, dash)
	})
	if err != nil && err != circuitbreaker.ErrOpenState {
		uc.logger.Warn("写入看板缓存失败", zap.Error(err))
	}
}

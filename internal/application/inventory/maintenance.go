package inventory

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/agristock/internal/domain/inventory"
	"github.com/xiebiao/agristock/pkg/metrics"
)

// MaintenanceUseCase 后台维护用例(过期扫描与估值刷新)
type MaintenanceUseCase struct {
	svc       *inventory.Service
	publisher EventPublisher
	cache     CacheInvalidator
	logger    *zap.Logger
}

// NewMaintenanceUseCase 创建用例
func NewMaintenanceUseCase(svc *inventory.Service, publisher EventPublisher,
	cache CacheInvalidator, logger *zap.Logger) *MaintenanceUseCase {
	return &MaintenanceUseCase{svc: svc, publisher: publisher, cache: cache, logger: logger}
}

// ProcessExpired 执行一轮过期扫描
func (uc *MaintenanceUseCase) ProcessExpired(ctx context.Context) (int, error) {
	processed, err := uc.svc.ProcessExpired(ctx)
	if err != nil {
		return 0, err
	}
	if processed > 0 {
		if metrics.ExpiredProcessedTotal != nil {
			metrics.ExpiredProcessedTotal.Add(float64(processed))
		}
		invalidateCache(ctx, uc.cache, uc.logger)
		publishEvent(ctx, uc.publisher, uc.logger, "inventory.movement.EXPIRY", map[string]any{
			"processed": processed,
		})
	}
	return processed, nil
}

// RefreshValuations 按最新市场价刷新估值
func (uc *MaintenanceUseCase) RefreshValuations(ctx context.Context,
	prices map[string]decimal.Decimal) (int, error) {
	refreshed, err := uc.svc.RefreshValuations(ctx, prices)
	if err != nil {
		return 0, err
	}
	if refreshed > 0 {
		invalidateCache(ctx, uc.cache, uc.logger)
	}
	return refreshed, nil
}

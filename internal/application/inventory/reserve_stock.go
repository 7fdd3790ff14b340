package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/agristock/internal/domain/inventory"
	"github.com/xiebiao/agristock/pkg/metrics"
)

// ReserveStockUseCase 预留/释放库存用例
// 防超卖依赖仓储层的单记录临界区:两个并发预留串行执行,
// 后到的一方基于前一方落库后的可用数量做校验
type ReserveStockUseCase struct {
	svc       *inventory.Service
	publisher EventPublisher
	cache     CacheInvalidator
	logger    *zap.Logger
}

// NewReserveStockUseCase 创建用例
func NewReserveStockUseCase(svc *inventory.Service, publisher EventPublisher,
	cache CacheInvalidator, logger *zap.Logger) *ReserveStockUseCase {
	return &ReserveStockUseCase{svc: svc, publisher: publisher, cache: cache, logger: logger}
}

// Reserve 预留库存
func (uc *ReserveStockUseCase) Reserve(ctx context.Context, recordID string,
	quantity decimal.Decimal, buyerID string) (*inventory.Record, error) {
	start := time.Now()
	rec, err := uc.svc.Reserve(ctx, recordID, quantity, buyerID)
	metrics.ObserveMutation("reserve", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	invalidateCache(ctx, uc.cache, uc.logger)
	publishEvent(ctx, uc.publisher, uc.logger, "inventory.movement.RESERVE", map[string]any{
		"recordId": rec.ID,
		"buyerId":  buyerID,
		"quantity": quantity,
		"status":   rec.Status,
	})
	return rec, nil
}

// Release 释放预留
func (uc *ReserveStockUseCase) Release(ctx context.Context, recordID string,
	quantity decimal.Decimal) (*inventory.Record, error) {
	start := time.Now()
	rec, err := uc.svc.Release(ctx, recordID, quantity)
	metrics.ObserveMutation("release", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	invalidateCache(ctx, uc.cache, uc.logger)
	publishEvent(ctx, uc.publisher, uc.logger, "inventory.movement.RELEASE", map[string]any{
		"recordId": rec.ID,
		"quantity": quantity,
		"status":   rec.Status,
	})
	return rec, nil
}

package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/agristock/internal/domain/inventory"
	"github.com/xiebiao/agristock/pkg/metrics"
)

// SellStockUseCase 售出库存用例
type SellStockUseCase struct {
	svc       *inventory.Service
	publisher EventPublisher
	cache     CacheInvalidator
	logger    *zap.Logger
}

// NewSellStockUseCase 创建用例
func NewSellStockUseCase(svc *inventory.Service, publisher EventPublisher,
	cache CacheInvalidator, logger *zap.Logger) *SellStockUseCase {
	return &SellStockUseCase{svc: svc, publisher: publisher, cache: cache, logger: logger}
}

// Execute 记录售出
func (uc *SellStockUseCase) Execute(ctx context.Context, recordID string,
	quantity, price decimal.Decimal) (*inventory.Record, error) {
	start := time.Now()
	rec, err := uc.svc.MarkSold(ctx, recordID, quantity, price)
	metrics.ObserveMutation("sell", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	invalidateCache(ctx, uc.cache, uc.logger)
	publishEvent(ctx, uc.publisher, uc.logger, "inventory.movement.SALE", map[string]any{
		"recordId": rec.ID,
		"quantity": quantity,
		"price":    price,
		"status":   rec.Status,
	})
	return rec, nil
}

package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/agristock/internal/domain/inventory"
	"github.com/xiebiao/agristock/pkg/metrics"
)

// RecordLossUseCase 损耗与盘点调整用例
type RecordLossUseCase struct {
	svc       *inventory.Service
	publisher EventPublisher
	cache     CacheInvalidator
	logger    *zap.Logger
}

// NewRecordLossUseCase 创建用例
func NewRecordLossUseCase(svc *inventory.Service, publisher EventPublisher,
	cache CacheInvalidator, logger *zap.Logger) *RecordLossUseCase {
	return &RecordLossUseCase{svc: svc, publisher: publisher, cache: cache, logger: logger}
}

// RecordLoss 记录损耗
func (uc *RecordLossUseCase) RecordLoss(ctx context.Context, recordID string,
	lossQuantity decimal.Decimal, reason string) (*inventory.Record, error) {
	start := time.Now()
	rec, err := uc.svc.RecordLoss(ctx, recordID, lossQuantity, reason)
	metrics.ObserveMutation("loss", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	invalidateCache(ctx, uc.cache, uc.logger)
	publishEvent(ctx, uc.publisher, uc.logger, "inventory.movement.LOSS", map[string]any{
		"recordId":       rec.ID,
		"lossQuantity":   lossQuantity,
		"lossPercentage": rec.LossPercentage,
		"reason":         reason,
	})
	return rec, nil
}

// AdjustQuantity 盘点调整
func (uc *RecordLossUseCase) AdjustQuantity(ctx context.Context, recordID string,
	delta decimal.Decimal, reason string) (*inventory.Record, error) {
	start := time.Now()
	rec, err := uc.svc.AdjustQuantity(ctx, recordID, delta, reason)
	metrics.ObserveMutation("adjust", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	invalidateCache(ctx, uc.cache, uc.logger)
	publishEvent(ctx, uc.publisher, uc.logger, "inventory.movement.ADJUSTMENT", map[string]any{
		"recordId": rec.ID,
		"delta":    delta,
		"reason":   reason,
	})
	return rec, nil
}

package inventory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/agristock/internal/domain/inventory"
	"github.com/xiebiao/agristock/pkg/metrics"
)

// TransferStockUseCase 转运用例(发起与完成)
type TransferStockUseCase struct {
	svc       *inventory.Service
	publisher EventPublisher
	cache     CacheInvalidator
	logger    *zap.Logger
}

// NewTransferStockUseCase 创建用例
func NewTransferStockUseCase(svc *inventory.Service, publisher EventPublisher,
	cache CacheInvalidator, logger *zap.Logger) *TransferStockUseCase {
	return &TransferStockUseCase{svc: svc, publisher: publisher, cache: cache, logger: logger}
}

// Start 发起转运
func (uc *TransferStockUseCase) Start(ctx context.Context, recordID string,
	newLocation string, newFacility inventory.FacilityType, reason string) (*inventory.Record, error) {
	start := time.Now()
	rec, err := uc.svc.Transfer(ctx, recordID, newLocation, newFacility, reason)
	metrics.ObserveMutation("transfer", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	invalidateCache(ctx, uc.cache, uc.logger)
	publishEvent(ctx, uc.publisher, uc.logger, "inventory.movement.TRANSFER", map[string]any{
		"recordId":     rec.ID,
		"newLocation":  newLocation,
		"facilityType": newFacility,
		"reason":       reason,
	})
	return rec, nil
}

// Complete 完成转运
func (uc *TransferStockUseCase) Complete(ctx context.Context, recordID string) (*inventory.Record, error) {
	start := time.Now()
	rec, err := uc.svc.CompleteTransfer(ctx, recordID)
	metrics.ObserveMutation("transfer_done", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	invalidateCache(ctx, uc.cache, uc.logger)
	publishEvent(ctx, uc.publisher, uc.logger, "inventory.movement.TRANSFER_DONE", map[string]any{
		"recordId": rec.ID,
		"location": rec.StorageLocation,
	})
	return rec, nil
}

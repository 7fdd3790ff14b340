package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/agristock/internal/domain/inventory"
	"github.com/xiebiao/agristock/pkg/metrics"
)

// CreateRecordUseCase 创建库存记录用例
type CreateRecordUseCase struct {
	svc       *inventory.Service
	publisher EventPublisher
	cache     CacheInvalidator
	logger    *zap.Logger
}

// NewCreateRecordUseCase 创建用例
func NewCreateRecordUseCase(svc *inventory.Service, publisher EventPublisher,
	cache CacheInvalidator, logger *zap.Logger) *CreateRecordUseCase {
	return &CreateRecordUseCase{svc: svc, publisher: publisher, cache: cache, logger: logger}
}

// CreateRecordRequest 创建请求DTO
type CreateRecordRequest struct {
	InventoryCode         string          `json:"inventoryCode,omitempty"`
	CropID                string          `json:"cropId"`
	FarmerUserID          string          `json:"farmerUserId,omitempty"`
	FacilityType          string          `json:"facilityType"`
	FacilityName          string          `json:"facilityName,omitempty"`
	StorageLocation       string          `json:"storageLocation"`
	CurrentQuantity       decimal.Decimal `json:"currentQuantity"`
	Unit                  string          `json:"unit,omitempty"`
	QualityGrade          string          `json:"qualityGrade"`
	StorageCapacity       decimal.Decimal `json:"storageCapacity,omitempty"`
	MoistureContent       decimal.Decimal `json:"moistureContent,omitempty"`
	MarketValuePerUnit    decimal.Decimal `json:"marketValuePerUnit,omitempty"`
	PurchasePricePerUnit  decimal.Decimal `json:"purchasePricePerUnit,omitempty"`
	MinimumStockLevel     decimal.Decimal `json:"minimumStockLevel,omitempty"`
	MaximumStockLevel     decimal.Decimal `json:"maximumStockLevel,omitempty"`
	ReorderLevel          decimal.Decimal `json:"reorderLevel,omitempty"`
	HarvestDate           *time.Time      `json:"harvestDate,omitempty"`
	StorageDate           *time.Time      `json:"storageDate,omitempty"`
	ExpectedShelfLifeDays int             `json:"expectedShelfLifeDays,omitempty"`
	PackagingCondition    string          `json:"packagingCondition,omitempty"`
	OrganicCertified      bool            `json:"organicCertified,omitempty"`
	FairTradeCertified    bool            `json:"fairTradeCertified,omitempty"`
	LocalSourcing         bool            `json:"localSourcing,omitempty"`
}

// Execute 执行创建
func (uc *CreateRecordUseCase) Execute(ctx context.Context, req CreateRecordRequest) (*inventory.Record, error) {
	start := time.Now()
	rec, err := uc.svc.Create(ctx, inventory.CreateInput{
		InventoryCode:         req.InventoryCode,
		CropID:                req.CropID,
		FarmerUserID:          req.FarmerUserID,
		FacilityType:          inventory.FacilityType(req.FacilityType),
		FacilityName:          req.FacilityName,
		StorageLocation:       req.StorageLocation,
		CurrentQuantity:       req.CurrentQuantity,
		Unit:                  req.Unit,
		QualityGrade:          req.QualityGrade,
		StorageCapacity:       req.StorageCapacity,
		MoistureContent:       req.MoistureContent,
		MarketValuePerUnit:    req.MarketValuePerUnit,
		PurchasePricePerUnit:  req.PurchasePricePerUnit,
		MinimumStockLevel:     req.MinimumStockLevel,
		MaximumStockLevel:     req.MaximumStockLevel,
		ReorderLevel:          req.ReorderLevel,
		HarvestDate:           req.HarvestDate,
		StorageDate:           req.StorageDate,
		ExpectedShelfLifeDays: req.ExpectedShelfLifeDays,
		PackagingCondition:    inventory.PackagingCondition(req.PackagingCondition),
		OrganicCertified:      req.OrganicCertified,
		FairTradeCertified:    req.FairTradeCertified,
		LocalSourcing:         req.LocalSourcing,
	})
	metrics.ObserveMutation("create", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}

	invalidateCache(ctx, uc.cache, uc.logger)
	publishEvent(ctx, uc.publisher, uc.logger, "inventory.movement.CREATE", map[string]any{
		"recordId":      rec.ID,
		"inventoryCode": rec.InventoryCode,
		"cropId":        rec.CropID,
		"quantity":      rec.CurrentQuantity,
	})
	return rec, nil
}

// invalidateCache 失效看板缓存,失败记日志不阻断主流程
func invalidateCache(ctx context.Context, cache CacheInvalidator, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		logger.Warn("缓存失效失败", zap.Error(err))
	}
}

// publishEvent 发布事件,失败记日志不阻断主流程
func publishEvent(ctx context.Context, publisher EventPublisher, logger *zap.Logger,
	routingKey string, payload any) {
	if publisher == nil {
		return
	}
	err := publisher.Publish(ctx, routingKey, payload)
	result := "success"
	if err != nil {
		result = "failure"
		logger.Warn("事件发布失败", zap.String("routing_key", routingKey), zap.Error(err))
	}
	if metrics.MessagesPublishedTotal != nil {
		metrics.MessagesPublishedTotal.WithLabelValues(routingKey, result).Inc()
	}
}

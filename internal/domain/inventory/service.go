package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/xiebiao/agristock/pkg/errors"
)

// Service 库存领域服务
// 设计说明:
// 1. 所有生命周期变更(预留/释放/售出/损耗/转运等)统一经由
//    Repository.Mutate执行,读取-校验-写入在单记录临界区内完成,
//    两个并发预留不可能基于同一份过期的AvailableQuantity同时通过校验
// 2. 校验失败的变更不落库:Mutate的fn返回error时整体回滚
// 3. 每次写入前调用Recalculate重建派生字段,再用CheckInvariant兜底
// 4. 时钟通过now函数注入,预测与过期扫描的测试可以固定时间
type Service struct {
	repo      Repository
	movements MovementRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewService 创建库存领域服务
func NewService(repo Repository, movements MovementRepository, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		movements: movements,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock 替换时钟(测试用)
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// =========================================
// 创建与校验
// =========================================

// CreateInput 创建库存记录的入参
type CreateInput struct {
	InventoryCode   string // 为空时系统生成
	CropID          string
	FarmerUserID    string
	FacilityType    FacilityType
	FacilityName    string
	StorageLocation string
	CurrentQuantity decimal.Decimal
	Unit            string
	QualityGrade    string

	StorageCapacity       decimal.Decimal
	MoistureContent       decimal.Decimal
	MarketValuePerUnit    decimal.Decimal
	PurchasePricePerUnit  decimal.Decimal
	MinimumStockLevel     decimal.Decimal
	MaximumStockLevel     decimal.Decimal
	ReorderLevel          decimal.Decimal
	HarvestDate           *time.Time
	StorageDate           *time.Time
	ExpectedShelfLifeDays int
	PackagingCondition    PackagingCondition
	OrganicCertified      bool
	FairTradeCertified    bool
	LocalSourcing         bool
}

// validate 聚合校验:一次返回全部违反的规则,而不是遇错即停
func (in CreateInput) validate() error {
	var violations []string
	if strings.TrimSpace(in.CropID) == "" {
		violations = append(violations, "作物ID不能为空")
	}
	if !in.FacilityType.Valid() {
		violations = append(violations, "存储设施类型非法")
	}
	if strings.TrimSpace(in.StorageLocation) == "" {
		violations = append(violations, "存储地点不能为空")
	}
	if !in.CurrentQuantity.IsPositive() {
		violations = append(violations, "当前数量必须为正数")
	}
	if strings.TrimSpace(in.QualityGrade) == "" {
		violations = append(violations, "质量等级不能为空")
	}
	if in.MoistureContent.IsNegative() || in.MoistureContent.GreaterThan(decimal.NewFromInt(100)) {
		violations = append(violations, "含水率必须在0-100之间")
	}
	if in.ExpectedShelfLifeDays < 0 {
		violations = append(violations, "预期保质期不能为负数")
	}
	if len(violations) > 0 {
		return apperrors.NewValidation(violations)
	}
	return nil
}

// Create 创建库存记录
// 编码重复返回ErrDuplicateCode;缺省值在这里补齐:
// storageDate=今天, status=AVAILABLE, pestStatus=PEST_FREE,
// packagingCondition=GOOD, unit=KG, 预留/损耗字段清零
func (s *Service) Create(ctx context.Context, in CreateInput) (*Record, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	rec := NewRecord(in.CropID, in.FacilityType, in.StorageLocation,
		in.CurrentQuantity, in.QualityGrade)
	if in.InventoryCode != "" {
		rec.InventoryCode = in.InventoryCode
	}
	if existing, err := s.repo.FindByCode(ctx, rec.InventoryCode); err == nil && existing != nil {
		return nil, ErrDuplicateCode
	}

	rec.FarmerUserID = in.FarmerUserID
	rec.FacilityName = in.FacilityName
	rec.StorageCapacity = in.StorageCapacity
	rec.MoistureContent = in.MoistureContent
	rec.MarketValuePerUnit = in.MarketValuePerUnit
	rec.PurchasePricePerUnit = in.PurchasePricePerUnit
	rec.MinimumStockLevel = in.MinimumStockLevel
	rec.MaximumStockLevel = in.MaximumStockLevel
	rec.ReorderLevel = in.ReorderLevel
	rec.HarvestDate = in.HarvestDate
	rec.ExpectedShelfLifeDays = in.ExpectedShelfLifeDays
	rec.OrganicCertified = in.OrganicCertified
	rec.FairTradeCertified = in.FairTradeCertified
	rec.LocalSourcing = in.LocalSourcing

	rec.Unit = "KG"
	if in.Unit != "" {
		rec.Unit = in.Unit
	}
	rec.PackagingCondition = PackagingGood
	if in.PackagingCondition != "" {
		rec.PackagingCondition = in.PackagingCondition
	}
	if in.StorageDate != nil {
		storage := dateOf(*in.StorageDate)
		rec.StorageDate = &storage
	}
	rec.ReservedQuantity = decimal.Zero
	rec.LossPercentage = decimal.Zero
	rec.LossValue = decimal.Zero

	rec.Recalculate(s.now())
	if err := rec.CheckInvariant(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("库存记录已创建",
		zap.String("record_id", rec.ID),
		zap.String("inventory_code", rec.InventoryCode),
		zap.String("crop_id", rec.CropID))
	return rec, nil
}

// =========================================
// 查询
// =========================================

// Get 根据ID查询
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.repo.FindByID(ctx, id)
}

// GetByCode 根据库存编码查询
func (s *Service) GetByCode(ctx context.Context, code string) (*Record, error) {
	return s.repo.FindByCode(ctx, code)
}

// List 全量查询
func (s *Service) List(ctx context.Context) ([]*Record, error) {
	return s.repo.FindAll(ctx)
}

// ListByCrop 按作物查询
func (s *Service) ListByCrop(ctx context.Context, cropID string) ([]*Record, error) {
	return s.repo.FindByCropID(ctx, cropID)
}

// ListByFarmer 按农户查询
func (s *Service) ListByFarmer(ctx context.Context, farmerID string) ([]*Record, error) {
	return s.repo.FindByFarmerID(ctx, farmerID)
}

// ListByStatus 按状态查询
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]*Record, error) {
	if !status.Valid() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "库存状态非法")
	}
	return s.repo.FindByStatus(ctx, status)
}

// ListMovements 查询一条记录的变动日志(时间升序)
func (s *Service) ListMovements(ctx context.Context, recordID string) ([]*MovementEntry, error) {
	if _, err := s.repo.FindByID(ctx, recordID); err != nil {
		return nil, err
	}
	return s.movements.ListByRecordID(ctx, recordID)
}

// Search 条件检索(分页)
func (s *Service) Search(ctx context.Context, criteria SearchCriteria, page PageRequest) ([]*Record, int64, error) {
	if err := criteria.Validate(); err != nil {
		return nil, 0, err
	}
	return s.repo.Search(ctx, criteria, page.Normalize())
}

// =========================================
// 更新与删除
// =========================================

// Update 全量更新业务字段
// 已售出记录的数量不可修改;状态不在此处变更(走状态机接口)
func (s *Service) Update(ctx context.Context, id string, in CreateInput) (*Record, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	return s.repo.Mutate(ctx, id, func(rec *Record) ([]*MovementEntry, error) {
		if rec.Status == StatusSold && !in.CurrentQuantity.Equal(rec.CurrentQuantity) {
			return nil, ErrSoldImmutable
		}
		if in.CurrentQuantity.LessThan(rec.ReservedQuantity) {
			return nil, ErrReservedOutOfRange
		}
		rec.CropID = in.CropID
		rec.FarmerUserID = in.FarmerUserID
		rec.FacilityType = in.FacilityType
		rec.FacilityName = in.FacilityName
		rec.StorageLocation = in.StorageLocation
		rec.CurrentQuantity = in.CurrentQuantity
		rec.QualityGrade = in.QualityGrade
		rec.StorageCapacity = in.StorageCapacity
		rec.MoistureContent = in.MoistureContent
		rec.MarketValuePerUnit = in.MarketValuePerUnit
		rec.PurchasePricePerUnit = in.PurchasePricePerUnit
		rec.MinimumStockLevel = in.MinimumStockLevel
		rec.MaximumStockLevel = in.MaximumStockLevel
		rec.ReorderLevel = in.ReorderLevel
		rec.HarvestDate = in.HarvestDate
		rec.OrganicCertified = in.OrganicCertified
		rec.FairTradeCertified = in.FairTradeCertified
		rec.LocalSourcing = in.LocalSourcing
		if in.Unit != "" {
			rec.Unit = in.Unit
		}
		if in.PackagingCondition != "" {
			rec.PackagingCondition = in.PackagingCondition
		}
		if in.ExpectedShelfLifeDays != rec.ExpectedShelfLifeDays {
			rec.ExpectedShelfLifeDays = in.ExpectedShelfLifeDays
			rec.ExpiryDate = nil
		}
		rec.Recalculate(s.now())
		if err := rec.CheckInvariant(); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

// Patch 稀疏字段更新
// 未识别的字段直接忽略;已识别字段逐一校验,全部违规聚合后一次返回
// 状态变更走状态机而不是直接赋值
func (s *Service) Patch(ctx context.Context, id string, fields map[string]any) (*Record, error) {
	return s.repo.Mutate(ctx, id, func(rec *Record) ([]*MovementEntry, error) {
		var violations []string
		var entries []*MovementEntry

		for key, raw := range fields {
			switch key {
			case "currentQuantity":
				qty, ok := patchDecimal(raw)
				if !ok {
					violations = append(violations, "当前数量格式非法")
					continue
				}
				if rec.Status == StatusSold {
					violations = append(violations, "已售出库存的数量不可修改")
					continue
				}
				if qty.IsNegative() {
					violations = append(violations, "当前数量不能为负数")
					continue
				}
				if qty.LessThan(rec.ReservedQuantity) {
					violations = append(violations, "当前数量不能低于已预留数量")
					continue
				}
				rec.CurrentQuantity = qty
			case "status":
				str, ok := patchString(raw)
				if !ok || !Status(str).Valid() {
					violations = append(violations, "库存状态非法")
					continue
				}
				to := Status(str)
				if to == rec.Status {
					continue
				}
				if !CanTransition(rec.Status, to) {
					violations = append(violations,
						fmt.Sprintf("状态不允许从%s流转到%s", rec.Status, to))
					continue
				}
				entries = append(entries, NewStatusMovement(rec.ID, EventStatusChange,
					fmt.Sprintf("%s -> %s", rec.Status, to)))
				rec.Status = to
			case "storageLocation":
				if str, ok := patchString(raw); ok && str != "" {
					rec.StorageLocation = str
				} else {
					violations = append(violations, "存储地点不能为空")
				}
			case "facilityType":
				str, ok := patchString(raw)
				if !ok || !FacilityType(str).Valid() {
					violations = append(violations, "存储设施类型非法")
					continue
				}
				rec.FacilityType = FacilityType(str)
			case "facilityName":
				if str, ok := patchString(raw); ok {
					rec.FacilityName = str
				}
			case "qualityGrade":
				if str, ok := patchString(raw); ok && str != "" {
					rec.QualityGrade = str
				} else {
					violations = append(violations, "质量等级不能为空")
				}
			case "unit":
				if str, ok := patchString(raw); ok && str != "" {
					rec.Unit = str
				}
			case "packagingCondition":
				str, ok := patchString(raw)
				if !ok {
					violations = append(violations, "包装状况非法")
					continue
				}
				switch PackagingCondition(str) {
				case PackagingExcellent, PackagingGood, PackagingFair, PackagingPoor:
					rec.PackagingCondition = PackagingCondition(str)
				default:
					violations = append(violations, "包装状况非法")
				}
			case "moistureContent":
				v, ok := patchDecimal(raw)
				if !ok || v.IsNegative() || v.GreaterThan(decimal.NewFromInt(100)) {
					violations = append(violations, "含水率必须在0-100之间")
					continue
				}
				rec.MoistureContent = v
			case "marketValuePerUnit":
				if v, ok := patchDecimal(raw); ok && !v.IsNegative() {
					rec.MarketValuePerUnit = v
				} else {
					violations = append(violations, "市场单价不能为负数")
				}
			case "purchasePricePerUnit":
				if v, ok := patchDecimal(raw); ok && !v.IsNegative() {
					rec.PurchasePricePerUnit = v
				} else {
					violations = append(violations, "采购单价不能为负数")
				}
			case "minimumStockLevel":
				if v, ok := patchDecimal(raw); ok && !v.IsNegative() {
					rec.MinimumStockLevel = v
				} else {
					violations = append(violations, "最低库存不能为负数")
				}
			case "maximumStockLevel":
				if v, ok := patchDecimal(raw); ok && !v.IsNegative() {
					rec.MaximumStockLevel = v
				} else {
					violations = append(violations, "最高库存不能为负数")
				}
			case "reorderLevel":
				if v, ok := patchDecimal(raw); ok && !v.IsNegative() {
					rec.ReorderLevel = v
				} else {
					violations = append(violations, "补货水位不能为负数")
				}
			case "storageCapacity":
				if v, ok := patchDecimal(raw); ok && !v.IsNegative() {
					rec.StorageCapacity = v
				} else {
					violations = append(violations, "设施容量不能为负数")
				}
			case "expectedShelfLifeDays":
				n, ok := patchInt(raw)
				if !ok || n < 0 {
					violations = append(violations, "预期保质期不能为负数")
					continue
				}
				rec.ExpectedShelfLifeDays = n
				rec.ExpiryDate = nil // 由Recalculate重新推导
			case "lossReasons":
				if str, ok := patchString(raw); ok {
					rec.LossReasons = str
				}
			case "treatmentApplied":
				if str, ok := patchString(raw); ok {
					rec.TreatmentApplied = str
				}
			case "organicCertified":
				if b, ok := raw.(bool); ok {
					rec.OrganicCertified = b
				}
			case "fairTradeCertified":
				if b, ok := raw.(bool); ok {
					rec.FairTradeCertified = b
				}
			case "localSourcing":
				if b, ok := raw.(bool); ok {
					rec.LocalSourcing = b
				}
			default:
				// 未识别字段忽略
			}
		}

		if len(violations) > 0 {
			return nil, apperrors.NewValidation(violations)
		}
		rec.Recalculate(s.now())
		if err := rec.CheckInvariant(); err != nil {
			return nil, err
		}
		return entries, nil
	})
}

// Delete 删除库存记录
// 预留中或转运中的记录不可删除
func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.Status == StatusReserved || rec.Status == StatusInTransit {
		return ErrDeleteLocked
	}
	return s.repo.Delete(ctx, id)
}

// BulkResult 批量操作的单条结果
// 批量操作不保证整体原子:逐条执行,失败互不影响,调用方拿到全部结果
type BulkResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// BulkDelete 批量删除(逐条校验,单条失败不影响其余)
func (s *Service) BulkDelete(ctx context.Context, ids []string) []BulkResult {
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			results = append(results, BulkResult{ID: id, Message: err.Error()})
			continue
		}
		results = append(results, BulkResult{ID: id, Success: true})
	}
	return results
}

// BulkUpdateStatus 批量状态流转(逐条走状态机,单条失败不影响其余)
func (s *Service) BulkUpdateStatus(ctx context.Context, ids []string, to Status) []BulkResult {
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		_, err := s.repo.Mutate(ctx, id, func(rec *Record) ([]*MovementEntry, error) {
			from := rec.Status
			if err := rec.TransitionTo(to); err != nil {
				return nil, err
			}
			rec.Recalculate(s.now())
			return []*MovementEntry{NewStatusMovement(rec.ID, EventStatusChange,
				fmt.Sprintf("%s -> %s", from, to))}, nil
		})
		if err != nil {
			results = append(results, BulkResult{ID: id, Message: err.Error()})
			continue
		}
		results = append(results, BulkResult{ID: id, Success: true})
	}
	return results
}

// =========================================
// 预留与出入库(每个操作都是单记录原子变更)
// =========================================

// Reserve 为买家预留库存
// 要求状态AVAILABLE且数量不超过可用数量;预留占满当前数量时状态流转为RESERVED
func (s *Service) Reserve(ctx context.Context, id string, quantity decimal.Decimal, buyerID string) (*Record, error) {
	if !quantity.IsPositive() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "预留数量必须为正数")
	}
	return s.repo.Mutate(ctx, id, func(rec *Record) ([]*MovementEntry, error) {
		if rec.Status != StatusAvailable {
			return nil, ErrNotAvailable
		}
		if quantity.GreaterThan(rec.AvailableQuantity) {
			return nil, ErrInsufficientQuantity
		}
		rec.ReservedQuantity = rec.ReservedQuantity.Add(quantity)
		rec.BuyerUserID = buyerID
		if rec.ReservedQuantity.Equal(rec.CurrentQuantity) {
			rec.Status = StatusReserved
		}
		now := s.now()
		rec.LastMovementDate = &now
		rec.Recalculate(now)
		if err := rec.CheckInvariant(); err != nil {
			return nil, err
		}
		return []*MovementEntry{NewMovement(rec.ID, EventReserve, quantity.Neg(),
			fmt.Sprintf("为买家%s预留%s%s", buyerID, quantity, rec.Unit))}, nil
	})
}

// Release 释放预留
// 释放数量不超过已预留数量;预留清零后买家清空,状态回到AVAILABLE
func (s *Service) Release(ctx context.Context, id string, quantity decimal.Decimal) (*Record, error) {
	if !quantity.IsPositive() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "释放数量必须为正数")
	}
	return s.repo.Mutate(ctx, id, func(rec *Record) ([]*MovementEntry, error) {
		if quantity.GreaterThan(rec.ReservedQuantity) {
			return nil, ErrInvalidRelease
		}
		rec.ReservedQuantity = rec.ReservedQuantity.Sub(quantity)
		if rec.ReservedQuantity.IsZero() {
			rec.BuyerUserID = ""
			if rec.Status == StatusReserved {
				rec.Status = StatusAvailable
			}
		}
		now := s.now()
		rec.LastMovementDate = &now
		rec.Recalculate(now)
		if err := rec.CheckInvariant(); err != nil {
			return nil, err
		}
		return []*MovementEntry{NewMovement(rec.ID, EventRelease, quantity,
			fmt.Sprintf("释放预留%s%s", quantity, rec.Unit))}, nil
	})
}

// MarkSold 记录售出
// 整批售出时数量清零并进入终态SOLD;部分售出只扣减当前数量
// 成交单价总是回写到MarketValuePerUnit
func (s *Service) MarkSold(ctx context.Context, id string, quantity, price decimal.Decimal) (*Record, error) {
	if !quantity.IsPositive() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "售出数量必须为正数")
	}
	return s.repo.Mutate(ctx, id, func(rec *Record) ([]*MovementEntry, error) {
		if quantity.GreaterThan(rec.CurrentQuantity) {
			return nil, ErrSellTooMuch
		}
		rec.MarketValuePerUnit = price
		if quantity.Equal(rec.CurrentQuantity) {
			rec.CurrentQuantity = decimal.Zero
			rec.ReservedQuantity = decimal.Zero
			rec.AvailableQuantity = decimal.Zero
			rec.BuyerUserID = ""
			rec.Status = StatusSold
		} else {
			rec.CurrentQuantity = rec.CurrentQuantity.Sub(quantity)
			if rec.ReservedQuantity.GreaterThan(rec.CurrentQuantity) {
				rec.ReservedQuantity = rec.CurrentQuantity
			}
		}
		now := s.now()
		rec.LastMovementDate = &now
		rec.Recalculate(now)
		if err := rec.CheckInvariant(); err != nil {
			return nil, err
		}
		return []*MovementEntry{NewMovement(rec.ID, EventSale, quantity.Neg(),
			fmt.Sprintf("售出%s%s,单价%s", quantity, rec.Unit, price))}, nil
	})
}

// RecordLoss 记录损耗
// 损耗率以损耗前数量为分母;状态不自动变化(虫检路径除外)
func (s *Service) RecordLoss(ctx context.Context, id string, lossQuantity decimal.Decimal, reason string) (*Record, error) {
	if !lossQuantity.IsPositive() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "损耗数量必须为正数")
	}
	return s.repo.Mutate(ctx, id, func(rec *Record) ([]*MovementEntry, error) {
		if lossQuantity.GreaterThan(rec.CurrentQuantity) {
			return nil, ErrLossTooMuch
		}
		before := rec.CurrentQuantity
		rec.CurrentQuantity = rec.CurrentQuantity.Sub(lossQuantity)
		if rec.ReservedQuantity.GreaterThan(rec.CurrentQuantity) {
			rec.ReservedQuantity = rec.CurrentQuantity
		}
		rec.LossPercentage = lossQuantity.DivRound(before, 4).
			Mul(decimal.NewFromInt(100)).Round(2)
		if reason != "" {
			if rec.LossReasons != "" {
				rec.LossReasons += "; "
			}
			rec.LossReasons += reason
		}
		now := s.now()
		rec.LastMovementDate = &now
		rec.Recalculate(now)
		if err := rec.CheckInvariant(); err != nil {
			return nil, err
		}
		return []*MovementEntry{NewMovement(rec.ID, EventLoss, lossQuantity.Neg(),
			fmt.Sprintf("损耗%s%s,原因:%s", lossQuantity, rec.Unit, reason))}, nil
	})
}

// AdjustQuantity 盘点调整(正负皆可)
// 调整后的当前数量不能为负,也不能低于已预留数量
func (s *Service) AdjustQuantity(ctx context.Context, id string, delta decimal.Decimal, reason string) (*Record, error) {
	if delta.IsZero() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "调整数量不能为零")
	}
	return s.repo.Mutate(ctx, id, func(rec *Record) ([]*MovementEntry, error) {
		if rec.Status == StatusSold {
			return nil, ErrSoldImmutable
		}
		after := rec.CurrentQuantity.Add(delta)
		if after.IsNegative() {
			return nil, ErrNegativeQuantity
		}
		if after.LessThan(rec.ReservedQuantity) {
			return nil, ErrReservedOutOfRange
		}
		rec.CurrentQuantity = after
		now := s.now()
		rec.LastMovementDate = &now
		rec.Recalculate(now)
		if err := rec.CheckInvariant(); err != nil {
			return nil, err
		}
		return []*MovementEntry{NewMovement(rec.ID, EventAdjustment, delta,
			fmt.Sprintf("盘点调整%s%s,原因:%s", delta, rec.Unit, reason))}, nil
	})
}

// Transfer 发起转运
// 状态流转到IN_TRANSIT,更新地点与设施,日志记录新旧位置与原因
func (s *Service) Transfer(ctx context.Context, id string, newLocation string, newFacility FacilityType, reason string) (*Record, error) {
	if strings.TrimSpace(newLocation) == "" {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "目标地点不能为空")
	}
	if !newFacility.Valid() {
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "目标设施类型非法")
	}
	return s.repo.Mutate(ctx, id, func(rec *Record) ([]*MovementEntry, error) {
		oldLocation, oldFacility := rec.StorageLocation, rec.FacilityType
		if err := rec.TransitionTo(StatusInTransit); err != nil {
			return nil, err
		}
		rec.StorageLocation = newLocation
		rec.FacilityType = newFacility
		now := s.now()
		rec.LastMovementDate = &now
		rec.Recalculate(now)
		return []*MovementEntry{NewStatusMovement(rec.ID, EventTransfer,
			fmt.Sprintf("%s(%s) -> %s(%s),原因:%s",
				oldLocation, oldFacility, newLocation, newFacility, reason))}, nil
	})
}

// CompleteTransfer 完成转运,状态回到AVAILABLE
func (s *Service) CompleteTransfer(ctx context.Context, id string) (*Record, error) {
	return s.repo.Mutate(ctx, id, func(rec *Record) ([]*MovementEntry, error) {
		if rec.Status != StatusInTransit {
			return nil, ErrNotInTransit
		}
		rec.Status = StatusAvailable
		now := s.now()
		rec.LastMovementDate = &now
		rec.Recalculate(now)
		return []*MovementEntry{NewStatusMovement(rec.ID, EventTransferDone,
			fmt.Sprintf("转运完成,入库%s", rec.StorageLocation))}, nil
	})
}

// UpdatePestInspection 记录虫检结果
// 严重虫害且当前AVAILABLE时强制流转为DAMAGED
func (s *Service) UpdatePestInspection(ctx context.Context, id string, pest PestStatus, treatment string) (*Record, error) {
	switch pest {
	case PestFree, MinorInfestation, MajorInfestation:
	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidParams, "虫害状态非法")
	}
	return s.repo.Mutate(ctx, id, func(rec *Record) ([]*MovementEntry, error) {
		rec.PestStatus = pest
		rec.TreatmentApplied = treatment
		now := s.now()
		inspected := dateOf(now)
		rec.PestInspectionDate = &inspected
		detail := fmt.Sprintf("虫检结果:%s", pest)
		if pest == MajorInfestation && rec.Status == StatusAvailable {
			rec.Status = StatusDamaged
			detail += ",库存降级为受损"
		}
		rec.Recalculate(now)
		return []*MovementEntry{NewStatusMovement(rec.ID, EventInspection, detail)}, nil
	})
}

// UpdateQualityAssessment 记录质量评估
// 刷新等级/含水率/质检记录,评估日期置为今天,下次巡检顺延一个月
func (s *Service) UpdateQualityAssessment(ctx context.Context, id string, grade string, moisture decimal.Decimal, tests string) (*Record, error) {
	var violations []string
	if strings.TrimSpace(grade) == "" {
		violations = append(violations, "质量等级不能为空")
	}
	if moisture.IsNegative() || moisture.GreaterThan(decimal.NewFromInt(100)) {
		violations = append(violations, "含水率必须在0-100之间")
	}
	if len(violations) > 0 {
		return nil, apperrors.NewValidation(violations)
	}
	return s.repo.Mutate(ctx, id, func(rec *Record) ([]*MovementEntry, error) {
		rec.QualityGrade = grade
		rec.MoistureContent = moisture
		if tests != "" {
			rec.QualityTests = tests
		}
		now := s.now()
		assessed := dateOf(now)
		next := assessed.AddDate(0, 1, 0)
		rec.ConditionAssessment = &assessed
		rec.NextInspectionDate = &next
		rec.Recalculate(now)
		return []*MovementEntry{NewStatusMovement(rec.ID, EventInspection,
			fmt.Sprintf("质量评估:等级%s,含水率%s%%", grade, moisture))}, nil
	})
}

// =========================================
// 维护扫描
// =========================================

// ProcessExpired 过期扫描
// 将已过保质期的AVAILABLE记录流转为EXPIRED并写入日志,返回处理条数
func (s *Service) ProcessExpired(ctx context.Context) (int, error) {
	records, err := s.repo.FindByStatus(ctx, StatusAvailable)
	if err != nil {
		return 0, err
	}
	now := s.now()
	processed := 0
	for _, rec := range records {
		if rec.ExpiryDate == nil || !dateOf(now).After(*rec.ExpiryDate) {
			continue
		}
		_, err := s.repo.Mutate(ctx, rec.ID, func(r *Record) ([]*MovementEntry, error) {
			// 临界区内重读,跳过已被并发改走的记录
			if r.Status != StatusAvailable || r.ExpiryDate == nil ||
				!dateOf(now).After(*r.ExpiryDate) {
				return nil, nil
			}
			r.Status = StatusExpired
			r.Recalculate(now)
			return []*MovementEntry{NewStatusMovement(r.ID, EventExpiry,
				fmt.Sprintf("超过保质期(%s)自动过期", r.ExpiryDate.Format("2006-01-02")))}, nil
		})
		if err != nil {
			s.logger.Warn("过期处理失败", zap.String("record_id", rec.ID), zap.Error(err))
			continue
		}
		processed++
	}
	if processed > 0 {
		s.logger.Info("过期扫描完成", zap.Int("processed", processed))
	}
	return processed, nil
}

// RefreshValuations 按最新市场价重算AVAILABLE库存的估值
// prices以作物ID为键,缺失的作物保持原价;返回刷新条数
func (s *Service) RefreshValuations(ctx context.Context, prices map[string]decimal.Decimal) (int, error) {
	records, err := s.repo.FindByStatus(ctx, StatusAvailable)
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for _, rec := range records {
		price, ok := prices[rec.CropID]
		if !ok || price.Equal(rec.MarketValuePerUnit) {
			continue
		}
		_, err := s.repo.Mutate(ctx, rec.ID, func(r *Record) ([]*MovementEntry, error) {
			r.MarketValuePerUnit = price
			r.Recalculate(s.now())
			return nil, nil
		})
		if err != nil {
			s.logger.Warn("估值刷新失败", zap.String("record_id", rec.ID), zap.Error(err))
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// =========================================
// 统计
// =========================================

// Statistics 库存统计汇总
type Statistics struct {
	TotalItems         int             `json:"totalItems"`
	AvailableItems     int             `json:"availableItems"`
	ReservedItems      int             `json:"reservedItems"`
	TotalValue         decimal.Decimal `json:"totalValue"`
	TotalQuantity      decimal.Decimal `json:"totalQuantity"`
	AverageStorageDays decimal.Decimal `json:"averageStorageDays"`
	HighValueItems     int             `json:"highValueItems"`
	ExpiredItems       int             `json:"expiredItems"`
	DamagedItems       int             `json:"damagedItems"`
	SustainableItems   int             `json:"sustainableItems"`
}

// BuildStatistics 构建统计汇总
// highValueThreshold为高价值批次的总市值门槛
func (s *Service) BuildStatistics(ctx context.Context, highValueThreshold decimal.Decimal) (*Statistics, error) {
	records, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	stats := &Statistics{
		TotalItems:         len(records),
		TotalValue:         decimal.Zero,
		TotalQuantity:      decimal.Zero,
		AverageStorageDays: decimal.Zero,
	}
	totalDays := 0
	for _, rec := range records {
		switch rec.Status {
		case StatusAvailable:
			stats.AvailableItems++
		case StatusReserved:
			stats.ReservedItems++
		case StatusExpired:
			stats.ExpiredItems++
		case StatusDamaged:
			stats.DamagedItems++
		}
		stats.TotalValue = stats.TotalValue.Add(rec.TotalMarketValue)
		stats.TotalQuantity = stats.TotalQuantity.Add(rec.CurrentQuantity)
		totalDays += rec.DaysInStorage
		if rec.IsHighValue(highValueThreshold) {
			stats.HighValueItems++
		}
		if rec.IsSustainable() {
			stats.SustainableItems++
		}
	}
	if len(records) > 0 {
		stats.AverageStorageDays = decimal.NewFromInt(int64(totalDays)).
			DivRound(decimal.NewFromInt(int64(len(records))), 1)
	}
	return stats, nil
}

// =========================================
// 稀疏字段解析辅助
// =========================================

func patchString(v any) (string, bool) {
	s, ok := v.(string)
	return strings.TrimSpace(s), ok
}

func patchDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case float64:
		return decimal.NewFromFloat(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case string:
		d, err := decimal.NewFromString(x)
		return d, err == nil
	}
	return decimal.Zero, false
}

func patchInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		return int(x), true
	}
	return 0, false
}

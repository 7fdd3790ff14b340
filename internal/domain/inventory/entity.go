package inventory

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// Record 库存批次实体（聚合根）
// DDD设计说明:
// 1. Record是库存聚合的根实体,对应一个农户存入某设施的一批作物
// 2. 数量字段使用decimal.Decimal(避免浮点数精度问题,单位统一为Unit)
// 3. InventoryCode作为业务唯一标识(数据库层保证唯一性)
// 4. 派生字段(AvailableQuantity/TotalMarketValue/ProfitMargin等)
//    不接受外部直接赋值,统一由Recalculate在每次写入前重建
// 5. 核心不变式: AvailableQuantity == CurrentQuantity - ReservedQuantity,
//    且 0 <= ReservedQuantity <= CurrentQuantity
type Record struct {
	ID            string `gorm:"primaryKey;size:20"`
	InventoryCode string `gorm:"size:30;uniqueIndex;not null"` // 库存编码(业务唯一标识)

	// 归属与位置
	CropID          string       `gorm:"size:20;index;not null"` // 作物ID
	FarmerUserID    string       `gorm:"size:20;index"`          // 农户用户ID
	BuyerUserID     string       `gorm:"size:20"`                // 买家用户ID(仅预留期间有值)
	FacilityType    FacilityType `gorm:"size:30;not null"`       // 存储设施类型
	FacilityName    string       `gorm:"size:150"`
	StorageLocation string       `gorm:"size:255;not null"` // 存储地点

	// 数量(同一单位,非负)
	StorageCapacity   decimal.Decimal `gorm:"type:decimal(10,2)"`          // 设施容量上限
	CurrentQuantity   decimal.Decimal `gorm:"type:decimal(10,2);not null"` // 当前数量
	ReservedQuantity  decimal.Decimal `gorm:"type:decimal(10,2)"`          // 已预留数量
	AvailableQuantity decimal.Decimal `gorm:"type:decimal(10,2);not null"` // 可用数量(派生)
	Unit              string          `gorm:"size:20"`                     // 计量单位,默认KG

	// 质量与状态
	QualityGrade       string             `gorm:"size:50;not null"` // 质量等级
	Status             Status             `gorm:"size:20;index"`
	PestStatus         PestStatus         `gorm:"size:30"`
	PackagingCondition PackagingCondition `gorm:"size:20"`
	MoistureContent    decimal.Decimal    `gorm:"type:decimal(4,2)"` // 含水率(%)
	QualityTests       string             `gorm:"type:text"`         // 质检记录
	TreatmentApplied   string             `gorm:"size:255"`          // 已施用的处理(防虫等)

	// 经济属性
	MarketValuePerUnit   decimal.Decimal `gorm:"type:decimal(8,2)"`
	TotalMarketValue     decimal.Decimal `gorm:"type:decimal(12,2)"` // 派生: 单价*当前数量
	PurchasePricePerUnit decimal.Decimal `gorm:"type:decimal(8,2)"`
	ProfitMargin         decimal.Decimal `gorm:"type:decimal(5,2)"` // 派生: 利润率(%)

	// 损耗
	LossPercentage decimal.Decimal `gorm:"type:decimal(5,2)"`  // 损耗率(%)
	LossValue      decimal.Decimal `gorm:"type:decimal(10,2)"` // 派生: 总市值*损耗率/100
	LossReasons    string          `gorm:"type:text"`

	// 补货阈值
	MinimumStockLevel decimal.Decimal `gorm:"type:decimal(8,2)"`  // 最低库存(预测用)
	MaximumStockLevel decimal.Decimal `gorm:"type:decimal(10,2)"` // 最高库存
	ReorderLevel      decimal.Decimal `gorm:"type:decimal(8,2)"`

	// 生命周期日期
	HarvestDate           *time.Time `gorm:"type:date"`
	StorageDate           *time.Time `gorm:"type:date;not null"` // 入库日期
	ExpectedShelfLifeDays int        // 预期保质期(天),用于推导ExpiryDate
	ExpiryDate            *time.Time `gorm:"type:date"`
	ConditionAssessment   *time.Time `gorm:"type:date"` // 最近一次状态评估日期
	NextInspectionDate    *time.Time `gorm:"type:date"`
	PestInspectionDate    *time.Time `gorm:"type:date"`
	LastMovementDate      *time.Time
	DaysInStorage         int // 派生: 入库至今天数

	// 可持续性标记
	OrganicCertified   bool
	FairTradeCertified bool
	LocalSourcing      bool `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定表名
func (Record) TableName() string {
	return "inventory_records"
}

// FacilityType 存储设施类型
type FacilityType string

const (
	FacilityFarmStorage     FacilityType = "FARM_STORAGE"    // 农场自储
	FacilityWarehouse       FacilityType = "WAREHOUSE"       // 商业仓库
	FacilitySilo            FacilityType = "SILO"            // 粮仓
	FacilityColdStorage     FacilityType = "COLD_STORAGE"    // 冷库
	FacilityProcessingPlant FacilityType = "PROCESSING_PLANT"
	FacilityRetailStore     FacilityType = "RETAIL_STORE"
)

// Valid 判断设施类型是否合法
func (f FacilityType) Valid() bool {
	switch f {
	case FacilityFarmStorage, FacilityWarehouse, FacilitySilo,
		FacilityColdStorage, FacilityProcessingPlant, FacilityRetailStore:
		return true
	}
	return false
}

// TemperatureControlled 是否温控设施
func (f FacilityType) TemperatureControlled() bool {
	return f == FacilityColdStorage || f == FacilityProcessingPlant
}

// PestStatus 虫害状态
type PestStatus string

const (
	PestFree         PestStatus = "PEST_FREE"         // 无虫害
	MinorInfestation PestStatus = "MINOR_INFESTATION" // 轻度虫害
	MajorInfestation PestStatus = "MAJOR_INFESTATION" // 严重虫害
)

// RequiresTreatment 是否需要处理
func (p PestStatus) RequiresTreatment() bool {
	return p == MinorInfestation || p == MajorInfestation
}

// PackagingCondition 包装状况
type PackagingCondition string

const (
	PackagingExcellent PackagingCondition = "EXCELLENT"
	PackagingGood      PackagingCondition = "GOOD"
	PackagingFair      PackagingCondition = "FAIR"
	PackagingPoor      PackagingCondition = "POOR"
)

// NewRecord 创建新的库存记录(工厂方法)
// 调用方只提供业务字段,ID/编码/默认值由工厂与Service.Create补齐
func NewRecord(cropID string, facilityType FacilityType, storageLocation string,
	currentQuantity decimal.Decimal, qualityGrade string) *Record {
	now := time.Now()
	storage := dateOf(now)
	return &Record{
		ID:                GenerateRecordID(),
		InventoryCode:     GenerateInventoryCode(),
		CropID:            cropID,
		FacilityType:      facilityType,
		StorageLocation:   storageLocation,
		CurrentQuantity:   currentQuantity,
		AvailableQuantity: currentQuantity,
		QualityGrade:      qualityGrade,
		Status:            StatusAvailable,
		PestStatus:        PestFree,
		StorageDate:       &storage,
	}
}

// GenerateRecordID 生成记录ID
// 格式:INV + 毫秒时间戳后6位 + 5位随机字符
// 示例:INV482913K7Q2M
func GenerateRecordID() string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ts := fmt.Sprintf("%d", time.Now().UnixMilli())
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = chars[rand.Intn(len(chars))]
	}
	return "INV" + ts[len(ts)-6:] + string(suffix)
}

// GenerateInventoryCode 生成库存编码
// 格式:STOCK + 日期(yymmdd) + 毫秒时间戳后4位 + 3位随机字符
func GenerateInventoryCode() string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	now := time.Now()
	ts := fmt.Sprintf("%d", now.UnixMilli())
	suffix := make([]byte, 3)
	for i := range suffix {
		suffix[i] = chars[rand.Intn(len(chars))]
	}
	return fmt.Sprintf("STOCK%02d%02d%02d%s%s",
		now.Year()%100, int(now.Month()), now.Day(), ts[len(ts)-4:], string(suffix))
}

// Recalculate 重建全部派生字段并应用状态自动降级
// 每次持久化前必须调用,保证不变式在落库时刻成立:
// - AvailableQuantity = CurrentQuantity - ReservedQuantity(下限0)
// - ExpiryDate = StorageDate + ExpectedShelfLifeDays(未显式指定时)
// - TotalMarketValue / ProfitMargin / LossValue 由价格字段推导
// - 过期或严重虫害的AVAILABLE记录自动降级(EXPIRED/DAMAGED)
func (r *Record) Recalculate(now time.Time) {
	r.AvailableQuantity = r.CurrentQuantity.Sub(r.ReservedQuantity)
	if r.AvailableQuantity.IsNegative() {
		r.AvailableQuantity = decimal.Zero
	}

	if r.StorageDate != nil {
		r.DaysInStorage = daysBetween(*r.StorageDate, now)
		if r.ExpiryDate == nil && r.ExpectedShelfLifeDays > 0 {
			expiry := r.StorageDate.AddDate(0, 0, r.ExpectedShelfLifeDays)
			r.ExpiryDate = &expiry
		}
	}

	if !r.MarketValuePerUnit.IsZero() {
		r.TotalMarketValue = r.MarketValuePerUnit.Mul(r.CurrentQuantity).Round(2)
	}
	if !r.MarketValuePerUnit.IsZero() && r.PurchasePricePerUnit.IsPositive() {
		profit := r.MarketValuePerUnit.Sub(r.PurchasePricePerUnit)
		r.ProfitMargin = profit.DivRound(r.PurchasePricePerUnit, 4).
			Mul(decimal.NewFromInt(100)).Round(2)
	}
	if r.LossPercentage.IsPositive() && !r.TotalMarketValue.IsZero() {
		r.LossValue = r.TotalMarketValue.Mul(r.LossPercentage).
			DivRound(decimal.NewFromInt(100), 2)
	}

	// 状态自动降级:过期与严重虫害只作用于AVAILABLE记录
	if r.Status == StatusAvailable && r.ExpiryDate != nil && dateOf(now).After(*r.ExpiryDate) {
		r.Status = StatusExpired
	}
	if r.Status == StatusAvailable && r.PestStatus == MajorInfestation {
		r.Status = StatusDamaged
	}
}

// CheckInvariant 校验静态不变式(测试与仓储写入前的最后防线)
func (r *Record) CheckInvariant() error {
	if r.CurrentQuantity.IsNegative() {
		return ErrNegativeQuantity
	}
	if r.ReservedQuantity.IsNegative() || r.ReservedQuantity.GreaterThan(r.CurrentQuantity) {
		return ErrReservedOutOfRange
	}
	if !r.AvailableQuantity.Equal(r.CurrentQuantity.Sub(r.ReservedQuantity)) {
		return ErrInconsistentAvailable
	}
	return nil
}

// =========================================
// 业务谓词(告警扫描与统计使用)
// =========================================

// IsExpiringSoon 是否即将过期(窗口天数内)
func (r *Record) IsExpiringSoon(now time.Time, windowDays int) bool {
	if r.ExpiryDate == nil {
		return false
	}
	remaining := daysBetween(dateOf(now), *r.ExpiryDate)
	return remaining >= 0 && remaining <= windowDays
}

// IsLowStock 可用数量是否低于最低库存
func (r *Record) IsLowStock() bool {
	if r.MinimumStockLevel.IsZero() {
		return false
	}
	return r.AvailableQuantity.LessThanOrEqual(r.MinimumStockLevel)
}

// IsOverstock 当前数量是否高于最高库存
func (r *Record) IsOverstock() bool {
	if r.MaximumStockLevel.IsZero() {
		return false
	}
	return r.CurrentQuantity.GreaterThanOrEqual(r.MaximumStockLevel)
}

// HasHighLoss 损耗率是否超过阈值(%)
func (r *Record) HasHighLoss(threshold decimal.Decimal) bool {
	return r.LossPercentage.GreaterThanOrEqual(threshold)
}

// RequiresInspection 是否已过下次巡检日期
func (r *Record) RequiresInspection(now time.Time) bool {
	return r.NextInspectionDate != nil && dateOf(now).After(*r.NextInspectionDate)
}

// IsHighValue 总市值是否达到高价值阈值
func (r *Record) IsHighValue(threshold decimal.Decimal) bool {
	return r.TotalMarketValue.GreaterThanOrEqual(threshold)
}

// IsSustainable 是否可持续来源(有机/公平贸易/本地采购任一)
func (r *Record) IsSustainable() bool {
	return r.OrganicCertified || r.FairTradeCertified || r.LocalSourcing
}

// RemainingShelfLifeDays 剩余保质天数(-1表示未知)
func (r *Record) RemainingShelfLifeDays(now time.Time) int {
	if r.ExpiryDate == nil {
		return -1
	}
	return daysBetween(dateOf(now), *r.ExpiryDate)
}

// =========================================
// 日期辅助
// =========================================

// dateOf 截断到日期(本地时区,日期类字段统一用零点时刻表示)
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween 两个时刻之间的整天数(按日期差,from晚于to时为负)
func daysBetween(from, to time.Time) int {
	return int(dateOf(to).Sub(dateOf(from)).Hours() / 24)
}

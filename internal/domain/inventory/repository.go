package inventory

import (
	"context"

	"github.com/shopspring/decimal"
)

// Repository 库存仓储接口(依赖倒置原则)
// 设计说明:
// 1. 由domain层定义接口,infrastructure层实现(MySQL/内存)
// 2. Mutate是唯一的变更入口:实现方必须保证"读取-校验-写入"在
//    单条记录的临界区内执行(SELECT FOR UPDATE或等价机制),
//    防止并发预留读到过期的AvailableQuantity造成超卖
// 3. fn返回的MovementEntry与记录写入处于同一事务,保证审计日志不丢
type Repository interface {
	// Create 创建库存记录(编码重复返回ErrDuplicateCode)
	Create(ctx context.Context, rec *Record) error

	// FindByID 根据ID查找(不存在返回ErrRecordNotFound)
	FindByID(ctx context.Context, id string) (*Record, error)

	// FindByCode 根据库存编码查找
	FindByCode(ctx context.Context, code string) (*Record, error)

	// FindAll 全量查询(预测/报表读路径)
	FindAll(ctx context.Context) ([]*Record, error)

	// FindByCropID 按作物查询
	FindByCropID(ctx context.Context, cropID string) ([]*Record, error)

	// FindByFarmerID 按农户查询
	FindByFarmerID(ctx context.Context, farmerID string) ([]*Record, error)

	// FindByStatus 按状态查询
	FindByStatus(ctx context.Context, status Status) ([]*Record, error)

	// Search 条件检索(分页)
	Search(ctx context.Context, criteria SearchCriteria, page PageRequest) ([]*Record, int64, error)

	// Save 全量保存(非临界区更新仅限读改写已在Mutate内完成的场景以外的
	// 批量维护,如估值重算)
	Save(ctx context.Context, rec *Record) error

	// Delete 删除单条记录
	Delete(ctx context.Context, id string) error

	// Mutate 在单记录临界区内执行一次原子变更
	// fn对记录就地修改并返回需要追加的变动日志;fn返回error时整体回滚,
	// 记录保持不变
	Mutate(ctx context.Context, id string, fn func(rec *Record) ([]*MovementEntry, error)) (*Record, error)
}

// MovementRepository 变动日志仓储接口
type MovementRepository interface {
	// Append 追加一条日志(只增不改)
	Append(ctx context.Context, entry *MovementEntry) error

	// ListByRecordID 查询某条库存记录的全部变动,按时间升序
	ListByRecordID(ctx context.Context, recordID string) ([]*MovementEntry, error)
}

// SearchCriteria 检索条件(零值字段表示不过滤)
type SearchCriteria struct {
	CropID       string
	FarmerID     string
	FacilityType FacilityType
	Status       Status
	QualityGrade string
	Keyword      string // 匹配编码/地点/设施名
	MinQuantity  *decimal.Decimal
	MaxQuantity  *decimal.Decimal
}

// Validate 校验区间合法性
func (c SearchCriteria) Validate() error {
	if c.MinQuantity != nil && c.MaxQuantity != nil &&
		c.MinQuantity.GreaterThan(*c.MaxQuantity) {
		return ErrInvalidRange
	}
	return nil
}

// PageRequest 分页参数
type PageRequest struct {
	Page     int // 页码(从1开始)
	PageSize int
}

// Normalize 规范化分页参数(页码从1开始,页大小限制在1-200)
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
	return p
}

// Offset 计算偏移量
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/agristock/internal/domain/inventory"
)

// recordRepository 库存仓储的MySQL实现
type recordRepository struct {
	db *gorm.DB
}

// NewRecordRepository 创建库存仓储
func NewRecordRepository(db *gorm.DB) inventory.Repository {
	return &recordRepository{db: db}
}

// Create 创建库存记录
func (r *recordRepository) Create(ctx context.Context, rec *inventory.Record) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		// 唯一索引冲突(库存编码重复)
		if isDuplicateError(err) {
			return inventory.ErrDuplicateCode
		}
		return fmt.Errorf("创建库存记录失败: %w", err)
	}
	return nil
}

// FindByID 根据ID查找
func (r *recordRepository) FindByID(ctx context.Context, id string) (*inventory.Record, error) {
	var rec inventory.Record
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrRecordNotFound
		}
		return nil, fmt.Errorf("查询库存记录失败: %w", err)
	}
	return &rec, nil
}

// FindByCode 根据库存编码查找
func (r *recordRepository) FindByCode(ctx context.Context, code string) (*inventory.Record, error) {
	var rec inventory.Record
	if err := r.db.WithContext(ctx).First(&rec, "inventory_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.ErrRecordNotFound
		}
		return nil, fmt.Errorf("查询库存记录失败: %w", err)
	}
	return &rec, nil
}

// FindAll 全量查询
func (r *recordRepository) FindAll(ctx context.Context) ([]*inventory.Record, error) {
	var records []*inventory.Record
	if err := r.db.WithContext(ctx).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("查询库存列表失败: %w", err)
	}
	return records, nil
}

// FindByCropID 按作物查询
func (r *recordRepository) FindByCropID(ctx context.Context, cropID string) ([]*inventory.Record, error) {
	var records []*inventory.Record
	if err := r.db.WithContext(ctx).
		Where("crop_id = ?", cropID).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("按作物查询库存失败: %w", err)
	}
	return records, nil
}

// FindByFarmerID 按农户查询
func (r *recordRepository) FindByFarmerID(ctx context.Context, farmerID string) ([]*inventory.Record, error) {
	var records []*inventory.Record
	if err := r.db.WithContext(ctx).
		Where("farmer_user_id = ?", farmerID).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("按农户查询库存失败: %w", err)
	}
	return records, nil
}

// FindByStatus 按状态查询
func (r *recordRepository) FindByStatus(ctx context.Context, status inventory.Status) ([]*inventory.Record, error) {
	var records []*inventory.Record
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("按状态查询库存失败: %w", err)
	}
	return records, nil
}

// Search 条件检索(分页)
func (r *recordRepository) Search(ctx context.Context, criteria inventory.SearchCriteria,
	page inventory.PageRequest) ([]*inventory.Record, int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.Record{})

	if criteria.CropID != "" {
		query = query.Where("crop_id = ?", criteria.CropID)
	}
	if criteria.FarmerID != "" {
		query = query.Where("farmer_user_id = ?", criteria.FarmerID)
	}
	if criteria.FacilityType != "" {
		query = query.Where("facility_type = ?", criteria.FacilityType)
	}
	if criteria.Status != "" {
		query = query.Where("status = ?", criteria.Status)
	}
	if criteria.QualityGrade != "" {
		query = query.Where("quality_grade = ?", criteria.QualityGrade)
	}
	if criteria.Keyword != "" {
		kw := "%" + criteria.Keyword + "%"
		query = query.Where(
			"inventory_code LIKE ? OR storage_location LIKE ? OR facility_name LIKE ?",
			kw, kw, kw)
	}
	if criteria.MinQuantity != nil {
		query = query.Where("current_quantity >= ?", criteria.MinQuantity)
	}
	if criteria.MaxQuantity != nil {
		query = query.Where("current_quantity <= ?", criteria.MaxQuantity)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计检索总数失败: %w", err)
	}

	var records []*inventory.Record
	if err := query.
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("检索库存失败: %w", err)
	}
	return records, total, nil
}

// Save 全量保存
func (r *recordRepository) Save(ctx context.Context, rec *inventory.Record) error {
	if err := r.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("保存库存记录失败: %w", err)
	}
	return nil
}

// Delete 删除记录
func (r *recordRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&inventory.Record{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("删除库存记录失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return inventory.ErrRecordNotFound
	}
	return nil
}

// Mutate 在单记录临界区内执行原子变更
// 事务内SELECT FOR UPDATE锁定目标行,其他写入方等待锁释放,
// 保证fn看到的是最新落库状态;fn返回的变动日志在同一事务内追加,
// fn报错则整体回滚,记录保持不变
func (r *recordRepository) Mutate(ctx context.Context, id string,
	fn func(rec *inventory.Record) ([]*inventory.MovementEntry, error)) (*inventory.Record, error) {
	var out *inventory.Record
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec inventory.Record
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return inventory.ErrRecordNotFound
			}
			return fmt.Errorf("锁定库存记录失败: %w", err)
		}

		entries, err := fn(&rec)
		if err != nil {
			return err
		}

		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("保存库存记录失败: %w", err)
		}
		for _, entry := range entries {
			if err := tx.Create(entry).Error; err != nil {
				return fmt.Errorf("追加变动日志失败: %w", err)
			}
		}
		out = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// isDuplicateError 判断是否唯一索引冲突(MySQL错误码1062)
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate")
}

package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/xiebiao/agristock/internal/domain/inventory"
)

// movementRepository 变动日志仓储的MySQL实现
type movementRepository struct {
	db *gorm.DB
}

// NewMovementRepository 创建变动日志仓储
func NewMovementRepository(db *gorm.DB) inventory.MovementRepository {
	return &movementRepository{db: db}
}

// Append 追加一条日志
func (r *movementRepository) Append(ctx context.Context, entry *inventory.MovementEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("追加变动日志失败: %w", err)
	}
	return nil
}

// ListByRecordID 按记录查询全部变动,时间升序
func (r *movementRepository) ListByRecordID(ctx context.Context, recordID string) ([]*inventory.MovementEntry, error) {
	var entries []*inventory.MovementEntry
	if err := r.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("created_at ASC, id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("查询变动日志失败: %w", err)
	}
	return entries, nil
}

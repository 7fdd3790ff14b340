package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementEntry 库存变动日志(领域模型)
//
// 设计说明:
// 1. 日志只增不改(Append-Only),由仓储在与库存变更同一事务中写入
// 2. 记录变动类型/数量增量/备注,替代自由文本拼接,便于机器解析与对账
// 3. Quantity为有向增量:正数=增加,负数=减少,纯状态事件为0
type MovementEntry struct {
	ID        uint            `gorm:"primaryKey"`
	RecordID  string          `gorm:"size:20;index:idx_record_id;not null"` // 库存记录ID
	EventKind EventKind       `gorm:"size:20;not null"`                     // 变动类型
	Quantity  decimal.Decimal `gorm:"type:decimal(10,2)"`                   // 有向数量增量
	Detail    string          `gorm:"size:500"`                             // 备注(转移原因/买家等)
	CreatedAt time.Time       `gorm:"index:idx_created_at"`
}

// TableName 指定表名
func (MovementEntry) TableName() string {
	return "inventory_movements"
}

// EventKind 库存变动类型
type EventKind string

const (
	EventReserve      EventKind = "RESERVE"       // 预留
	EventRelease      EventKind = "RELEASE"       // 释放预留
	EventSale         EventKind = "SALE"          // 售出
	EventLoss         EventKind = "LOSS"          // 损耗
	EventTransfer     EventKind = "TRANSFER"      // 转移(开始)
	EventTransferDone EventKind = "TRANSFER_DONE" // 转移完成
	EventAdjustment   EventKind = "ADJUSTMENT"    // 数量调整
	EventStatusChange EventKind = "STATUS_CHANGE" // 纯状态流转
	EventExpiry       EventKind = "EXPIRY"        // 自动过期
	EventInspection   EventKind = "INSPECTION"    // 质检/虫检
)

// NewMovement 创建一条变动日志
func NewMovement(recordID string, kind EventKind, qty decimal.Decimal, detail string) *MovementEntry {
	return &MovementEntry{
		RecordID:  recordID,
		EventKind: kind,
		Quantity:  qty,
		Detail:    detail,
	}
}

// NewStatusMovement 创建纯状态流转日志(数量增量为0)
func NewStatusMovement(recordID string, kind EventKind, detail string) *MovementEntry {
	return NewMovement(recordID, kind, decimal.Zero, detail)
}

package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AlertCategory 告警类别
type AlertCategory string

const (
	AlertExpiringSoon     AlertCategory = "EXPIRING_SOON"     // 即将过期
	AlertLowStock         AlertCategory = "LOW_STOCK"         // 库存不足
	AlertHighLoss         AlertCategory = "HIGH_LOSS"         // 损耗率过高
	AlertPestDetected     AlertCategory = "PEST_DETECTED"     // 发现虫害
	AlertQualityDegrading AlertCategory = "QUALITY_DEGRADING" // 巡检逾期
)

// AlertSeverity 告警级别
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "CRITICAL"
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityMedium   AlertSeverity = "MEDIUM"
)

// Alert 库存告警
// ID由记录ID+类别拼接,同一记录同一类别的告警幂等,跨类别不去重
type Alert struct {
	ID                string        `json:"id"`
	Category          AlertCategory `json:"category"`
	Severity          AlertSeverity `json:"severity"`
	RecordID          string        `json:"recordId"`
	InventoryCode     string        `json:"inventoryCode"`
	CropID            string        `json:"cropId"`
	Message           string        `json:"message"`
	RecommendedAction string        `json:"recommendedAction"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// AlertConfig 告警扫描阈值
type AlertConfig struct {
	ExpiryWindowDays  int             // 临期窗口,默认7天
	HighLossThreshold decimal.Decimal // 损耗率告警线(%),默认5
}

// DefaultAlertConfig 默认告警阈值
func DefaultAlertConfig() AlertConfig {
	return AlertConfig{
		ExpiryWindowDays:  7,
		HighLossThreshold: decimal.NewFromInt(5),
	}
}

// AlertGenerator 告警扫描器
// 设计说明:对全量记录做横切扫描,命中一条规则即产出一条告警,
// 同一记录可同时命中多个类别
type AlertGenerator struct {
	cfg AlertConfig
}

// NewAlertGenerator 创建告警扫描器
func NewAlertGenerator(cfg AlertConfig) *AlertGenerator {
	if cfg.ExpiryWindowDays <= 0 {
		cfg.ExpiryWindowDays = 7
	}
	if cfg.HighLossThreshold.IsZero() {
		cfg.HighLossThreshold = decimal.NewFromInt(5)
	}
	return &AlertGenerator{cfg: cfg}
}

// Scan 扫描记录集合产出告警
func (g *AlertGenerator) Scan(records []*Record, now time.Time) []Alert {
	alerts := make([]Alert, 0)
	for _, rec := range records {
		if !rec.Status.Active() {
			continue
		}

		if rec.IsExpiringSoon(now, g.cfg.ExpiryWindowDays) {
			alerts = append(alerts, g.build(rec, AlertExpiringSoon, SeverityHigh,
				fmt.Sprintf("库存将于%s过期(剩余%d天)",
					rec.ExpiryDate.Format("2006-01-02"), rec.RemainingShelfLifeDays(now)),
				"尽快安排销售或加工,避免整批报废", now))
		}

		if rec.IsLowStock() {
			alerts = append(alerts, g.build(rec, AlertLowStock, SeverityMedium,
				fmt.Sprintf("可用数量%s已低于最低库存%s",
					rec.AvailableQuantity, rec.MinimumStockLevel),
				"联系农户补货或调拨其他设施库存", now))
		}

		if rec.HasHighLoss(g.cfg.HighLossThreshold) {
			alerts = append(alerts, g.build(rec, AlertHighLoss, SeverityHigh,
				fmt.Sprintf("损耗率%s%%超过告警线%s%%",
					rec.LossPercentage, g.cfg.HighLossThreshold),
				"排查存储条件,评估是否需要转移设施", now))
		}

		if rec.PestStatus.RequiresTreatment() {
			severity := SeverityHigh
			if rec.PestStatus == MajorInfestation {
				severity = SeverityCritical
			}
			alerts = append(alerts, g.build(rec, AlertPestDetected, severity,
				fmt.Sprintf("虫害状态:%s", rec.PestStatus),
				"立即安排杀虫处理并隔离受影响批次", now))
		}

		if rec.RequiresInspection(now) {
			alerts = append(alerts, g.build(rec, AlertQualityDegrading, SeverityMedium,
				fmt.Sprintf("巡检已逾期(计划日期%s)",
					rec.NextInspectionDate.Format("2006-01-02")),
				"安排质量巡检并更新评估记录", now))
		}
	}
	return alerts
}

func (g *AlertGenerator) build(rec *Record, category AlertCategory,
	severity AlertSeverity, message, action string, now time.Time) Alert {
	return Alert{
		ID:                fmt.Sprintf("ALERT-%s-%s", rec.ID, category),
		Category:          category,
		Severity:          severity,
		RecordID:          rec.ID,
		InventoryCode:     rec.InventoryCode,
		CropID:            rec.CropID,
		Message:           message,
		RecommendedAction: action,
		CreatedAt:         now,
	}
}

package prediction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/agristock/internal/domain/inventory"
)

// Estimator 历史日消耗率估计器
// 设计说明:对每条既有入库日期又有变动记录的库存,
// 用 (当前+预留)-可用 近似累计消耗量,除以在库天数得到单条日消耗率;
// 同一入库日期只保留一条(按日期去重),最终取算术平均。
// 平均不做时间加权也不做批量加权,这是刻意保留的平滑策略,
// 替代实现可通过该接口注入。
type Estimator interface {
	// DailyRate 估计日消耗率,无合格样本时返回0
	DailyRate(records []*inventory.Record, now time.Time) decimal.Decimal
}

// MeanEstimator 无加权均值估计器(默认实现)
type MeanEstimator struct{}

// NewMeanEstimator 创建默认估计器
func NewMeanEstimator() MeanEstimator {
	return MeanEstimator{}
}

// DailyRate 计算日消耗率均值
func (MeanEstimator) DailyRate(records []*inventory.Record, now time.Time) decimal.Decimal {
	rates := make(map[string]decimal.Decimal)
	for _, rec := range records {
		if rec.StorageDate == nil || rec.LastMovementDate == nil {
			continue
		}
		days := daysBetween(*rec.StorageDate, now)
		if days <= 0 {
			continue
		}
		consumed := rec.CurrentQuantity.Add(rec.ReservedQuantity).
			Sub(rec.AvailableQuantity)
		rate := consumed.DivRound(decimal.NewFromInt(int64(days)), 6)
		rates[rec.StorageDate.Format("2006-01-02")] = rate
	}
	if len(rates) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, rate := range rates {
		sum = sum.Add(rate)
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(rates))), 6)
}

// dateOf 截断到日期
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween 按日期差计算整天数
func daysBetween(from, to time.Time) int {
	return int(dateOf(to).Sub(dateOf(from)).Hours() / 24)
}

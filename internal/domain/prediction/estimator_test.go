package prediction_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/xiebiao/agristock/internal/domain/inventory"
	"github.com/xiebiao/agristock/internal/domain/prediction"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// consumptionRecord 构造带消耗痕迹的库存快照
// current+reserved-available 即累计消耗量
func consumptionRecord(storageDaysAgo int, current, reserved, available int64) *inventory.Record {
	storage := testNow.AddDate(0, 0, -storageDaysAgo)
	moved := testNow.AddDate(0, 0, -1)
	return &inventory.Record{
		CropID:            "CROP001",
		Status:            inventory.StatusAvailable,
		CurrentQuantity:   decimal.NewFromInt(current),
		ReservedQuantity:  decimal.NewFromInt(reserved),
		AvailableQuantity: decimal.NewFromInt(available),
		StorageDate:       &storage,
		LastMovementDate:  &moved,
	}
}

// TestMeanEstimator 日消耗率估计
func TestMeanEstimator(t *testing.T) {
	est := prediction.NewMeanEstimator()

	t.Run("单条记录的日消耗率", func(t *testing.T) {
		// 在库10天,消耗 (80+0)-70 = 10,日消耗率1
		rate := est.DailyRate([]*inventory.Record{
			consumptionRecord(10, 80, 0, 70),
		}, testNow)
		assert.True(t, rate.Equal(decimal.NewFromInt(1)), "期望1,实际%s", rate)
	})

	t.Run("多条记录取均值", func(t *testing.T) {
		// 10天消耗10(率1) + 20天消耗60(率3),均值2
		rate := est.DailyRate([]*inventory.Record{
			consumptionRecord(10, 80, 0, 70),
			consumptionRecord(20, 100, 20, 60),
		}, testNow)
		assert.True(t, rate.Equal(decimal.NewFromInt(2)), "期望2,实际%s", rate)
	})

	t.Run("同一入库日期按日期去重后保留一条", func(t *testing.T) {
		// 两条同日入库:率1与率3,去重后只算一条
		rate := est.DailyRate([]*inventory.Record{
			consumptionRecord(10, 80, 0, 70), // 率1
			consumptionRecord(10, 60, 0, 30), // 率3,同日期覆盖前者
		}, testNow)
		assert.True(t, rate.Equal(decimal.NewFromInt(3)), "期望3,实际%s", rate)
	})

	t.Run("不合格样本剔除", func(t *testing.T) {
		noStorage := consumptionRecord(10, 80, 0, 70)
		noStorage.StorageDate = nil
		noMovement := consumptionRecord(10, 80, 0, 70)
		noMovement.LastMovementDate = nil
		today := consumptionRecord(0, 80, 0, 70) // 在库0天

		rate := est.DailyRate([]*inventory.Record{noStorage, noMovement, today}, testNow)
		assert.True(t, rate.IsZero())
	})

	t.Run("无样本返回0", func(t *testing.T) {
		assert.True(t, est.DailyRate(nil, testNow).IsZero())
	})
}

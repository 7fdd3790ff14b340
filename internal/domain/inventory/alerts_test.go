package inventory_test

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/agristock/internal/domain/inventory"
)

func alertRecord(id string) *inventory.Record {
	storage := fixedNow.AddDate(0, 0, -30)
	return &inventory.Record{
		ID:                id,
		InventoryCode:     "STOCK-" + id,
		CropID:            "CROP001",
		Status:            inventory.StatusAvailable,
		PestStatus:        inventory.PestFree,
		CurrentQuantity:   decimal.NewFromInt(100),
		AvailableQuantity: decimal.NewFromInt(100),
		StorageDate:       &storage,
	}
}

func categoriesOf(alerts []inventory.Alert) []inventory.AlertCategory {
	out := make([]inventory.AlertCategory, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Category)
	}
	return out
}

// TestAlertScan 告警扫描的五个类别
func TestAlertScan(t *testing.T) {
	gen := inventory.NewAlertGenerator(inventory.DefaultAlertConfig())

	t.Run("临期告警", func(t *testing.T) {
		rec := alertRecord("R1")
		expiry := fixedNow.AddDate(0, 0, 3)
		rec.ExpiryDate = &expiry

		alerts := gen.Scan([]*inventory.Record{rec}, fixedNow)
		require.Len(t, alerts, 1)
		assert.Equal(t, inventory.AlertExpiringSoon, alerts[0].Category)
		assert.Equal(t, inventory.SeverityHigh, alerts[0].Severity)
		assert.Contains(t, alerts[0].Message, "剩余3天")
	})

	t.Run("超出临期窗口不告警", func(t *testing.T) {
		rec := alertRecord("R2")
		expiry := fixedNow.AddDate(0, 0, 8)
		rec.ExpiryDate = &expiry

		alerts := gen.Scan([]*inventory.Record{rec}, fixedNow)
		assert.Empty(t, alerts)
	})

	t.Run("库存不足告警", func(t *testing.T) {
		rec := alertRecord("R3")
		rec.AvailableQuantity = decimal.NewFromInt(10)
		rec.MinimumStockLevel = decimal.NewFromInt(20)

		alerts := gen.Scan([]*inventory.Record{rec}, fixedNow)
		require.Len(t, alerts, 1)
		assert.Equal(t, inventory.AlertLowStock, alerts[0].Category)
		assert.Equal(t, inventory.SeverityMedium, alerts[0].Severity)
	})

	t.Run("最低库存未设置时不产生库存不足告警", func(t *testing.T) {
		rec := alertRecord("R4")
		rec.AvailableQuantity = decimal.Zero

		alerts := gen.Scan([]*inventory.Record{rec}, fixedNow)
		assert.Empty(t, alerts)
	})

	t.Run("高损耗告警", func(t *testing.T) {
		rec := alertRecord("R5")
		rec.LossPercentage = decimal.NewFromInt(6)

		alerts := gen.Scan([]*inventory.Record{rec}, fixedNow)
		require.Len(t, alerts, 1)
		assert.Equal(t, inventory.AlertHighLoss, alerts[0].Category)
		assert.Equal(t, inventory.SeverityHigh, alerts[0].Severity)
	})

	t.Run("虫害告警按程度分级", func(t *testing.T) {
		minor := alertRecord("R6")
		minor.PestStatus = inventory.MinorInfestation
		major := alertRecord("R7")
		major.PestStatus = inventory.MajorInfestation
		major.Status = inventory.StatusDamaged

		alerts := gen.Scan([]*inventory.Record{minor, major}, fixedNow)
		require.Len(t, alerts, 2)
		assert.Equal(t, inventory.SeverityHigh, alerts[0].Severity, "轻度虫害HIGH")
		assert.Equal(t, inventory.SeverityCritical, alerts[1].Severity, "严重虫害CRITICAL")
	})

	t.Run("巡检逾期告警", func(t *testing.T) {
		rec := alertRecord("R8")
		overdue := fixedNow.AddDate(0, 0, -1)
		rec.NextInspectionDate = &overdue

		alerts := gen.Scan([]*inventory.Record{rec}, fixedNow)
		require.Len(t, alerts, 1)
		assert.Equal(t, inventory.AlertQualityDegrading, alerts[0].Category)
	})
}

// TestAlertScan_MultiCategory 同一记录可同时命中多个类别
func TestAlertScan_MultiCategory(t *testing.T) {
	gen := inventory.NewAlertGenerator(inventory.DefaultAlertConfig())

	rec := alertRecord("R9")
	expiry := fixedNow.AddDate(0, 0, 2)
	rec.ExpiryDate = &expiry
	rec.AvailableQuantity = decimal.NewFromInt(5)
	rec.MinimumStockLevel = decimal.NewFromInt(50)
	rec.LossPercentage = decimal.NewFromInt(10)
	rec.PestStatus = inventory.MinorInfestation

	alerts := gen.Scan([]*inventory.Record{rec}, fixedNow)
	assert.ElementsMatch(t, []inventory.AlertCategory{
		inventory.AlertExpiringSoon,
		inventory.AlertLowStock,
		inventory.AlertHighLoss,
		inventory.AlertPestDetected,
	}, categoriesOf(alerts))

	for _, a := range alerts {
		assert.Equal(t, fmt.Sprintf("ALERT-R9-%s", a.Category), a.ID)
		assert.Equal(t, "STOCK-R9", a.InventoryCode)
		assert.Equal(t, fixedNow, a.CreatedAt)
	}
}

// TestAlertScan_SkipsTerminal 终态记录不参与扫描
func TestAlertScan_SkipsTerminal(t *testing.T) {
	gen := inventory.NewAlertGenerator(inventory.DefaultAlertConfig())

	sold := alertRecord("R10")
	sold.Status = inventory.StatusSold
	sold.LossPercentage = decimal.NewFromInt(50)
	disposed := alertRecord("R11")
	disposed.Status = inventory.StatusDisposed
	disposed.PestStatus = inventory.MajorInfestation

	alerts := gen.Scan([]*inventory.Record{sold, disposed}, fixedNow)
	assert.Empty(t, alerts)
}

// TestAlertConfig_Thresholds 自定义阈值生效
func TestAlertConfig_Thresholds(t *testing.T) {
	gen := inventory.NewAlertGenerator(inventory.AlertConfig{
		ExpiryWindowDays:  30,
		HighLossThreshold: decimal.NewFromInt(20),
	})

	rec := alertRecord("R12")
	expiry := fixedNow.AddDate(0, 0, 20)
	rec.ExpiryDate = &expiry
	rec.LossPercentage = decimal.NewFromInt(10)

	alerts := gen.Scan([]*inventory.Record{rec}, fixedNow)
	require.Len(t, alerts, 1, "窗口放宽到30天命中临期,损耗10未达20不命中")
	assert.Equal(t, inventory.AlertExpiringSoon, alerts[0].Category)
	assert.Contains(t, alerts[0].Message, "剩余20天")
}

package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/agristock/internal/domain/inventory"
	"github.com/xiebiao/agristock/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/agristock/pkg/errors"
)

var fixedNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// testClock 可拨动的时钟
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: fixedNow}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T) (*inventory.Service, *memory.MovementRepository, *testClock) {
	t.Helper()
	movements := memory.NewMovementRepository()
	repo := memory.NewRepository().BindMovements(movements)
	clock := newTestClock()
	svc := inventory.NewService(repo, movements, zap.NewNop()).WithClock(clock.Now)
	return svc, movements, clock
}

func validInput() inventory.CreateInput {
	return inventory.CreateInput{
		CropID:          "CROP001",
		FarmerUserID:    "FARMER001",
		FacilityType:    inventory.FacilityWarehouse,
		StorageLocation: "昆明市仓库A区",
		CurrentQuantity: decimal.NewFromInt(100),
		QualityGrade:    "A",
		StorageCapacity: decimal.NewFromInt(500),
	}
}

func mustCreate(t *testing.T, svc *inventory.Service, in inventory.CreateInput) *inventory.Record {
	t.Helper()
	rec, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	return rec
}

// TestCreate 创建与默认值
func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("默认值补齐", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())

		assert.Equal(t, inventory.StatusAvailable, rec.Status)
		assert.Equal(t, inventory.PestFree, rec.PestStatus)
		assert.Equal(t, inventory.PackagingGood, rec.PackagingCondition)
		assert.Equal(t, "KG", rec.Unit)
		assert.True(t, rec.ReservedQuantity.IsZero())
		assert.True(t, rec.LossPercentage.IsZero())
		assert.True(t, rec.AvailableQuantity.Equal(rec.CurrentQuantity))
		assert.NotNil(t, rec.StorageDate)
		assert.NotEmpty(t, rec.ID)
		assert.NotEmpty(t, rec.InventoryCode)
	})

	t.Run("编码重复", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		in := validInput()
		in.InventoryCode = "STOCK-DUP-001"
		mustCreate(t, svc, in)

		_, err := svc.Create(ctx, in)
		assert.Equal(t, apperrors.ErrCodeDuplicateCode, apperrors.CodeOf(err))
	})

	t.Run("校验失败聚合全部违规", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Create(ctx, inventory.CreateInput{
			CurrentQuantity: decimal.NewFromInt(-5),
		})
		require.Error(t, err)
		appErr := apperrors.GetAppError(err)
		assert.Equal(t, apperrors.ErrCodeValidationFailed, appErr.Code)
		// 作物ID/设施类型/地点/数量/等级全部违规,一次返回
		assert.Len(t, appErr.Violations, 5)
	})
}

// TestReserveRelease 预留与释放
func TestReserveRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("整批预留后状态变为RESERVED", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		in := validInput()
		in.CurrentQuantity = decimal.NewFromInt(50)
		rec := mustCreate(t, svc, in)

		got, err := svc.Reserve(ctx, rec.ID, decimal.NewFromInt(50), "buyerX")
		require.NoError(t, err)
		assert.True(t, got.AvailableQuantity.IsZero())
		assert.Equal(t, inventory.StatusReserved, got.Status)
		assert.Equal(t, "buyerX", got.BuyerUserID)
	})

	t.Run("释放后回到AVAILABLE且清空买家", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		in := validInput()
		in.CurrentQuantity = decimal.NewFromInt(50)
		rec := mustCreate(t, svc, in)

		_, err := svc.Reserve(ctx, rec.ID, decimal.NewFromInt(50), "buyerX")
		require.NoError(t, err)

		got, err := svc.Release(ctx, rec.ID, decimal.NewFromInt(50))
		require.NoError(t, err)
		assert.True(t, got.ReservedQuantity.IsZero())
		assert.Equal(t, inventory.StatusAvailable, got.Status)
		assert.Empty(t, got.BuyerUserID)
	})

	t.Run("预留再释放守恒", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())

		before, err := svc.Get(ctx, rec.ID)
		require.NoError(t, err)

		_, err = svc.Reserve(ctx, rec.ID, decimal.NewFromInt(40), "buyerY")
		require.NoError(t, err)
		after, err := svc.Release(ctx, rec.ID, decimal.NewFromInt(40))
		require.NoError(t, err)

		assert.True(t, after.CurrentQuantity.Equal(before.CurrentQuantity))
		assert.True(t, after.ReservedQuantity.Equal(before.ReservedQuantity))
		assert.True(t, after.AvailableQuantity.Equal(before.AvailableQuantity))
		assert.Equal(t, before.Status, after.Status)
	})

	t.Run("超额预留被拒绝且状态不变", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())

		_, err := svc.Reserve(ctx, rec.ID, decimal.NewFromInt(101), "buyerZ")
		assert.Equal(t, apperrors.ErrCodeInsufficientQuantity, apperrors.CodeOf(err))

		got, err := svc.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.True(t, got.ReservedQuantity.IsZero())
		assert.True(t, got.AvailableQuantity.Equal(decimal.NewFromInt(100)))
		assert.Empty(t, got.BuyerUserID)
	})

	t.Run("超额释放被拒绝", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())

		_, err := svc.Reserve(ctx, rec.ID, decimal.NewFromInt(10), "buyerX")
		require.NoError(t, err)
		_, err = svc.Release(ctx, rec.ID, decimal.NewFromInt(20))
		assert.Equal(t, apperrors.ErrCodeInvalidRelease, apperrors.CodeOf(err))
	})

	t.Run("非AVAILABLE状态不可预留", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		in := validInput()
		in.CurrentQuantity = decimal.NewFromInt(50)
		rec := mustCreate(t, svc, in)

		_, err := svc.Reserve(ctx, rec.ID, decimal.NewFromInt(50), "buyerX")
		require.NoError(t, err)
		// 已整批预留(RESERVED)后再预留
		_, err = svc.Reserve(ctx, rec.ID, decimal.NewFromInt(1), "buyerY")
		assert.Equal(t, apperrors.ErrCodeInvalidState, apperrors.CodeOf(err))
	})

	t.Run("并发预留不会超卖", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput()) // 可用100

		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded := 0
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := svc.Reserve(ctx, rec.ID, decimal.NewFromInt(20), "buyer"); err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 5, succeeded, "可用100只允许5次20的预留成功")
		got, err := svc.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.True(t, got.ReservedQuantity.Equal(decimal.NewFromInt(100)))
		assert.True(t, got.AvailableQuantity.IsZero())
		assert.NoError(t, got.CheckInvariant())
	})
}

// TestMarkSold 售出
func TestMarkSold(t *testing.T) {
	ctx := context.Background()

	t.Run("整批售出进入终态并清零", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())

		got, err := svc.MarkSold(ctx, rec.ID, decimal.NewFromInt(100), decimal.NewFromFloat(3.5))
		require.NoError(t, err)
		assert.Equal(t, inventory.StatusSold, got.Status)
		assert.True(t, got.CurrentQuantity.IsZero())
		assert.True(t, got.ReservedQuantity.IsZero())
		assert.True(t, got.AvailableQuantity.IsZero())
		assert.True(t, got.MarketValuePerUnit.Equal(decimal.NewFromFloat(3.5)))
	})

	t.Run("部分售出只扣减数量", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())

		got, err := svc.MarkSold(ctx, rec.ID, decimal.NewFromInt(30), decimal.NewFromInt(4))
		require.NoError(t, err)
		assert.Equal(t, inventory.StatusAvailable, got.Status)
		assert.True(t, got.CurrentQuantity.Equal(decimal.NewFromInt(70)))
		assert.True(t, got.MarketValuePerUnit.Equal(decimal.NewFromInt(4)))
	})

	t.Run("售出超过当前数量被拒绝", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())

		_, err := svc.MarkSold(ctx, rec.ID, decimal.NewFromInt(101), decimal.NewFromInt(4))
		require.Error(t, err)
		got, err := svc.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.True(t, got.CurrentQuantity.Equal(decimal.NewFromInt(100)), "失败不应部分生效")
	})
}

// TestRecordLoss 损耗记录
func TestRecordLoss(t *testing.T) {
	ctx := context.Background()

	t.Run("损耗率以损耗前数量为分母", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput()) // 当前100

		got, err := svc.RecordLoss(ctx, rec.ID, decimal.NewFromInt(25), "虫蛀")
		require.NoError(t, err)
		assert.True(t, got.CurrentQuantity.Equal(decimal.NewFromInt(75)))
		assert.True(t, got.LossPercentage.Equal(decimal.NewFromInt(25)),
			"损耗率应为25,实际%s", got.LossPercentage)
		assert.Contains(t, got.LossReasons, "虫蛀")
		assert.Equal(t, inventory.StatusAvailable, got.Status, "损耗不自动改变状态")
	})

	t.Run("损耗超过当前数量被拒绝", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())
		_, err := svc.RecordLoss(ctx, rec.ID, decimal.NewFromInt(200), "霉变")
		require.Error(t, err)
	})
}

// TestAdjustQuantity 盘点调整
func TestAdjustQuantity(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	rec := mustCreate(t, svc, validInput())

	got, err := svc.AdjustQuantity(ctx, rec.ID, decimal.NewFromInt(-10), "盘亏")
	require.NoError(t, err)
	assert.True(t, got.CurrentQuantity.Equal(decimal.NewFromInt(90)))

	got, err = svc.AdjustQuantity(ctx, rec.ID, decimal.NewFromInt(5), "盘盈")
	require.NoError(t, err)
	assert.True(t, got.CurrentQuantity.Equal(decimal.NewFromInt(95)))

	_, err = svc.AdjustQuantity(ctx, rec.ID, decimal.NewFromInt(-100), "非法")
	require.Error(t, err)
}

// TestTransfer 转运
func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("发起转运更新位置并进入IN_TRANSIT", func(t *testing.T) {
		svc, movements, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())

		got, err := svc.Transfer(ctx, rec.ID, "大理市冷库B区", inventory.FacilityColdStorage, "雨季防潮")
		require.NoError(t, err)
		assert.Equal(t, inventory.StatusInTransit, got.Status)
		assert.Equal(t, "大理市冷库B区", got.StorageLocation)
		assert.Equal(t, inventory.FacilityColdStorage, got.FacilityType)
		assert.NotNil(t, got.LastMovementDate)

		entries, err := movements.ListByRecordID(ctx, rec.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, inventory.EventTransfer, entries[0].EventKind)
		assert.Contains(t, entries[0].Detail, "雨季防潮")
	})

	t.Run("完成转运回到AVAILABLE", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())
		_, err := svc.Transfer(ctx, rec.ID, "大理市冷库B区", inventory.FacilityColdStorage, "")
		require.NoError(t, err)

		got, err := svc.CompleteTransfer(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.StatusAvailable, got.Status)
	})

	t.Run("非转运中不可完成转运", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())
		_, err := svc.CompleteTransfer(ctx, rec.ID)
		assert.Equal(t, apperrors.ErrCodeInvalidState, apperrors.CodeOf(err))
	})
}

// TestPestInspection 虫检
func TestPestInspection(t *testing.T) {
	ctx := context.Background()

	t.Run("严重虫害强制降级为DAMAGED", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())

		got, err := svc.UpdatePestInspection(ctx, rec.ID, inventory.MajorInfestation, "磷化铝熏蒸")
		require.NoError(t, err)
		assert.Equal(t, inventory.StatusDamaged, got.Status)
		assert.Equal(t, "磷化铝熏蒸", got.TreatmentApplied)
		assert.NotNil(t, got.PestInspectionDate)
	})

	t.Run("轻度虫害不改变状态", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())

		got, err := svc.UpdatePestInspection(ctx, rec.ID, inventory.MinorInfestation, "")
		require.NoError(t, err)
		assert.Equal(t, inventory.StatusAvailable, got.Status)
		assert.Equal(t, inventory.MinorInfestation, got.PestStatus)
	})
}

// TestQualityAssessment 质量评估
func TestQualityAssessment(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	rec := mustCreate(t, svc, validInput())

	got, err := svc.UpdateQualityAssessment(ctx, rec.ID, "B", decimal.NewFromFloat(12.5), "水分检测合格")
	require.NoError(t, err)
	assert.Equal(t, "B", got.QualityGrade)
	assert.True(t, got.MoistureContent.Equal(decimal.NewFromFloat(12.5)))
	require.NotNil(t, got.ConditionAssessment)
	require.NotNil(t, got.NextInspectionDate)
	assert.Equal(t, got.ConditionAssessment.AddDate(0, 1, 0), *got.NextInspectionDate)
}

// TestPatch 稀疏字段更新
func TestPatch(t *testing.T) {
	ctx := context.Background()

	t.Run("未识别字段忽略", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())

		got, err := svc.Patch(ctx, rec.ID, map[string]any{
			"facilityName": "中央仓库",
			"unknownField": "whatever",
			"anotherBogus": 123,
			"qualityGrade": "B",
			"reorderLevel": 50,
		})
		require.NoError(t, err)
		assert.Equal(t, "中央仓库", got.FacilityName)
		assert.Equal(t, "B", got.QualityGrade)
		assert.True(t, got.ReorderLevel.Equal(decimal.NewFromInt(50)))
	})

	t.Run("违规逐条聚合后一次返回", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())

		_, err := svc.Patch(ctx, rec.ID, map[string]any{
			"storageLocation": "",
			"moistureContent": 150.0,
			"facilityType":    "SPACE_STATION",
		})
		require.Error(t, err)
		appErr := apperrors.GetAppError(err)
		assert.Equal(t, apperrors.ErrCodeValidationFailed, appErr.Code)
		assert.Len(t, appErr.Violations, 3)

		got, err := svc.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, validInput().StorageLocation, got.StorageLocation, "失败不应部分生效")
	})

	t.Run("已售出记录的数量不可修改", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())
		_, err := svc.MarkSold(ctx, rec.ID, decimal.NewFromInt(100), decimal.NewFromInt(3))
		require.NoError(t, err)

		_, err = svc.Patch(ctx, rec.ID, map[string]any{"currentQuantity": 10.0})
		require.Error(t, err)
	})

	t.Run("状态变更走状态机", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())

		got, err := svc.Patch(ctx, rec.ID, map[string]any{"status": "IN_TRANSIT"})
		require.NoError(t, err)
		assert.Equal(t, inventory.StatusInTransit, got.Status)

		_, err = svc.Patch(ctx, rec.ID, map[string]any{"status": "SOLD"})
		require.Error(t, err, "IN_TRANSIT不可直接变SOLD")
	})
}

// TestDelete 删除守卫
func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("预留中不可删除", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		in := validInput()
		in.CurrentQuantity = decimal.NewFromInt(50)
		rec := mustCreate(t, svc, in)
		_, err := svc.Reserve(ctx, rec.ID, decimal.NewFromInt(50), "buyerX")
		require.NoError(t, err)

		err = svc.Delete(ctx, rec.ID)
		assert.Equal(t, apperrors.ErrCodeInvalidState, apperrors.CodeOf(err))
	})

	t.Run("可售状态可删除", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		rec := mustCreate(t, svc, validInput())
		require.NoError(t, svc.Delete(ctx, rec.ID))
		_, err := svc.Get(ctx, rec.ID)
		assert.Equal(t, apperrors.ErrCodeRecordNotFound, apperrors.CodeOf(err))
	})

	t.Run("批量删除逐条返回结果", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		ok := mustCreate(t, svc, validInput())
		in := validInput()
		in.CurrentQuantity = decimal.NewFromInt(10)
		locked := mustCreate(t, svc, in)
		_, err := svc.Reserve(ctx, locked.ID, decimal.NewFromInt(10), "buyerX")
		require.NoError(t, err)

		results := svc.BulkDelete(ctx, []string{ok.ID, locked.ID, "NOPE"})
		require.Len(t, results, 3)
		assert.True(t, results[0].Success)
		assert.False(t, results[1].Success)
		assert.False(t, results[2].Success)
	})
}

// TestBulkUpdateStatus 批量状态流转
func TestBulkUpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	a := mustCreate(t, svc, validInput())
	b := mustCreate(t, svc, validInput())
	// b先进入转运中,再批量流转到DAMAGED:AVAILABLE→DAMAGED合法,IN_TRANSIT→DAMAGED也合法
	_, err := svc.Transfer(ctx, b.ID, "新仓库", inventory.FacilityWarehouse, "")
	require.NoError(t, err)
	c := mustCreate(t, svc, validInput())
	_, err = svc.MarkSold(ctx, c.ID, decimal.NewFromInt(100), decimal.NewFromInt(3))
	require.NoError(t, err)

	results := svc.BulkUpdateStatus(ctx, []string{a.ID, b.ID, c.ID}, inventory.StatusDamaged)
	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)
	assert.False(t, results[2].Success, "SOLD是终态,流转失败但不影响其余")
}

// TestProcessExpired 过期扫描
func TestProcessExpired(t *testing.T) {
	ctx := context.Background()
	svc, movements, clock := newTestService(t)

	in := validInput()
	storage := fixedNow.AddDate(0, 0, -5)
	in.StorageDate = &storage
	in.ExpectedShelfLifeDays = 10
	rec := mustCreate(t, svc, in)

	// 未过期时扫描无动作
	processed, err := svc.ProcessExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, processed)

	// 拨快时钟越过保质期
	clock.Advance(10 * 24 * time.Hour)
	processed, err = svc.ProcessExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, inventory.StatusExpired, got.Status)

	entries, err := movements.ListByRecordID(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, inventory.EventExpiry, entries[0].EventKind)
}

// TestRefreshValuations 估值刷新
func TestRefreshValuations(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	in := validInput()
	in.MarketValuePerUnit = decimal.NewFromInt(2)
	rec := mustCreate(t, svc, in)

	refreshed, err := svc.RefreshValuations(ctx, map[string]decimal.Decimal{
		"CROP001": decimal.NewFromInt(3),
		"CROP999": decimal.NewFromInt(9),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.True(t, got.MarketValuePerUnit.Equal(decimal.NewFromInt(3)))
	assert.True(t, got.TotalMarketValue.Equal(decimal.NewFromInt(300)))
}

// TestBuildStatistics 统计汇总
func TestBuildStatistics(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	in := validInput()
	in.MarketValuePerUnit = decimal.NewFromInt(10)
	in.OrganicCertified = true
	mustCreate(t, svc, in)

	reservedIn := validInput()
	reservedIn.CurrentQuantity = decimal.NewFromInt(20)
	reservedRec := mustCreate(t, svc, reservedIn)
	_, err := svc.Reserve(ctx, reservedRec.ID, decimal.NewFromInt(20), "buyerX")
	require.NoError(t, err)

	damagedRec := mustCreate(t, svc, validInput())
	_, err = svc.UpdatePestInspection(ctx, damagedRec.ID, inventory.MajorInfestation, "")
	require.NoError(t, err)

	stats, err := svc.BuildStatistics(ctx, decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalItems)
	assert.Equal(t, 1, stats.AvailableItems)
	assert.Equal(t, 1, stats.ReservedItems)
	assert.Equal(t, 1, stats.DamagedItems)
	assert.Equal(t, 1, stats.HighValueItems, "总市值1000达到500门槛")
	assert.Equal(t, 1, stats.SustainableItems, "仅有机认证记录算可持续")
	assert.True(t, stats.TotalQuantity.Equal(decimal.NewFromInt(220)))
}

// TestMovementLog 变动日志追加与顺序
func TestMovementLog(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	rec := mustCreate(t, svc, validInput())

	_, err := svc.Reserve(ctx, rec.ID, decimal.NewFromInt(30), "buyerX")
	require.NoError(t, err)
	_, err = svc.Release(ctx, rec.ID, decimal.NewFromInt(30))
	require.NoError(t, err)
	_, err = svc.MarkSold(ctx, rec.ID, decimal.NewFromInt(40), decimal.NewFromInt(5))
	require.NoError(t, err)

	entries, err := svc.ListMovements(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, inventory.EventReserve, entries[0].EventKind)
	assert.Equal(t, inventory.EventRelease, entries[1].EventKind)
	assert.Equal(t, inventory.EventSale, entries[2].EventKind)
}

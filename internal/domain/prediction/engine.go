package prediction

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/agristock/internal/domain/inventory"
)

// 覆盖充足度分级
const (
	AdequacyCritical = "CRITICAL" // 不足7天
	AdequacyLow      = "LOW"      // 不足30天
	AdequacyModerate = "MODERATE" // 不足90天
	AdequacyAdequate = "ADEQUATE"
)

// 容量利用率分级
const (
	CapacityCritical = "CRITICAL" // >90%
	CapacityHigh     = "HIGH"     // >75%
	CapacityOptimal  = "OPTIMAL"  // >50%
	CapacityLow      = "LOW"
)

// 库存趋势方向
const (
	TrendIncreasing = "INCREASING"
	TrendStable     = "STABLE"
	TrendDecreasing = "DECREASING"
)

// 断供风险分级
const (
	RiskHigh   = "HIGH"   // 30天内断供
	RiskMedium = "MEDIUM" // 60天内断供
	RiskLow    = "LOW"
)

// StockCoverage 库存覆盖度
type StockCoverage struct {
	TotalAvailable        decimal.Decimal `json:"totalAvailable"`
	DailyConsumptionRate  decimal.Decimal `json:"dailyConsumptionRate"`
	CoverageDays          int             `json:"coverageDays"`
	CoverageWeeks         int             `json:"coverageWeeks"`
	CoverageMonths        int             `json:"coverageMonths"`
	Adequacy              string          `json:"adequacy"`
	EstimatedStockoutDate *time.Time      `json:"estimatedStockoutDate,omitempty"`
}

// ConsumptionForecast 某时间窗内的消耗预测
type ConsumptionForecast struct {
	PeriodDays            int             `json:"periodDays"`
	ProjectedConsumption  decimal.Decimal `json:"projectedConsumption"`
	SeasonallyAdjusted    decimal.Decimal `json:"seasonallyAdjusted"`
	SeasonalFactorApplied float64         `json:"seasonalFactorApplied"`
}

// MonthProjection 单月滚动预测
type MonthProjection struct {
	Month          int             `json:"month"` // 从现在起第N个月
	ProjectedStock decimal.Decimal `json:"projectedStock"`
	Deficit        decimal.Decimal `json:"deficit"`
}

// DeficitAnalysis 赤字分析
type DeficitAnalysis struct {
	MonthlyNeed    decimal.Decimal   `json:"monthlyNeed"`
	CurrentDeficit decimal.Decimal   `json:"currentDeficit"`
	Projections    []MonthProjection `json:"projections"`
}

// FacilityUtilization 单设施类型的容量利用率
type FacilityUtilization struct {
	FacilityType   inventory.FacilityType `json:"facilityType"`
	TotalCapacity  decimal.Decimal        `json:"totalCapacity"`
	UsedCapacity   decimal.Decimal        `json:"usedCapacity"`
	UtilizationPct decimal.Decimal        `json:"utilizationPct"`
	Band           string                 `json:"band"`
}

// CapacityUtilization 容量利用率(整体+分设施)
type CapacityUtilization struct {
	TotalCapacity  decimal.Decimal       `json:"totalCapacity"`
	UsedCapacity   decimal.Decimal       `json:"usedCapacity"`
	UtilizationPct decimal.Decimal       `json:"utilizationPct"`
	Band           string                `json:"band"`
	ByFacility     []FacilityUtilization `json:"byFacility"`
}

// MonthlyPoint 月度库存量
type MonthlyPoint struct {
	Month    string          `json:"month"` // yyyy-MM
	Quantity decimal.Decimal `json:"quantity"`
}

// InventoryTrends 入库量月度趋势
type InventoryTrends struct {
	Monthly       []MonthlyPoint  `json:"monthly"`
	Direction     string          `json:"direction"`
	GrowthRatePct decimal.Decimal `json:"growthRatePct"`
}

// SeasonalPattern 作物的月度均量模式
type SeasonalPattern struct {
	MonthlyAverages map[int]decimal.Decimal `json:"monthlyAverages"` // 月份(1-12)→均量
	PeakMonth       int                     `json:"peakMonth"`
	LowMonth        int                     `json:"lowMonth"`
}

// CropOutlook 单作物前景
type CropOutlook struct {
	CropID                string          `json:"cropId"`
	CurrentStock          decimal.Decimal `json:"currentStock"`
	DailyRate             decimal.Decimal `json:"dailyRate"`
	StockoutRisk          string          `json:"stockoutRisk"`
	EstimatedStockoutDate *time.Time      `json:"estimatedStockoutDate,omitempty"`
	OptimalRestockDate    *time.Time      `json:"optimalRestockDate,omitempty"`
	SeasonalPattern       SeasonalPattern `json:"seasonalPattern"`
}

// Engine 预测引擎
// 设计说明:所有方法都是 (记录集, 时刻, 配置) 上的纯函数,
// 固定输入必得固定输出,测试注入固定时钟即可逐字段断言
type Engine struct {
	cfg       Config
	estimator Estimator
}

// NewEngine 创建预测引擎
func NewEngine(cfg Config, estimator Estimator) *Engine {
	if estimator == nil {
		estimator = NewMeanEstimator()
	}
	if cfg.ProjectionMonths <= 0 {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg, estimator: estimator}
}

// Coverage 计算库存覆盖度
func (e *Engine) Coverage(records []*inventory.Record, now time.Time) StockCoverage {
	total := totalAvailable(records)
	rate := e.estimator.DailyRate(records, now)

	cov := StockCoverage{
		TotalAvailable:       total,
		DailyConsumptionRate: rate,
		Adequacy:             AdequacyAdequate,
	}
	if rate.IsPositive() {
		cov.CoverageDays = int(total.Div(rate).IntPart())
		cov.CoverageWeeks = cov.CoverageDays / 7
		cov.CoverageMonths = cov.CoverageDays / 30
		stockout := dateOf(now).AddDate(0, 0, cov.CoverageDays)
		cov.EstimatedStockoutDate = &stockout
	}
	switch {
	case cov.CoverageDays < 7:
		cov.Adequacy = AdequacyCritical
	case cov.CoverageDays < 30:
		cov.Adequacy = AdequacyLow
	case cov.CoverageDays < 90:
		cov.Adequacy = AdequacyModerate
	}
	return cov
}

// Forecasts 多时间窗消耗预测
// 季节系数只作用于前瞻消耗,按预测起点所在月份取值
func (e *Engine) Forecasts(records []*inventory.Record, now time.Time) []ConsumptionForecast {
	rate := e.estimator.DailyRate(records, now)
	factor := e.cfg.SeasonalFactor(int(now.Month()))
	forecasts := make([]ConsumptionForecast, 0, len(e.cfg.ForecastHorizonDays))
	for _, days := range e.cfg.ForecastHorizonDays {
		base := rate.Mul(decimal.NewFromInt(int64(days)))
		forecasts = append(forecasts, ConsumptionForecast{
			PeriodDays:            days,
			ProjectedConsumption:  base.Round(2),
			SeasonallyAdjusted:    base.Mul(decimal.NewFromFloat(factor)).Round(2),
			SeasonalFactorApplied: factor,
		})
	}
	return forecasts
}

// Deficits 赤字分析与6个月滚动预测
func (e *Engine) Deficits(records []*inventory.Record, now time.Time) DeficitAnalysis {
	total := totalAvailable(records)
	rate := e.estimator.DailyRate(records, now)
	monthlyNeed := rate.Mul(decimal.NewFromInt(30))

	analysis := DeficitAnalysis{
		MonthlyNeed:    monthlyNeed.Round(2),
		CurrentDeficit: maxZero(monthlyNeed.Sub(total)).Round(2),
		Projections:    make([]MonthProjection, 0, e.cfg.ProjectionMonths),
	}
	for month := 1; month <= e.cfg.ProjectionMonths; month++ {
		projected := total.Sub(monthlyNeed.Mul(decimal.NewFromInt(int64(month))))
		analysis.Projections = append(analysis.Projections, MonthProjection{
			Month:          month,
			ProjectedStock: projected.Round(2),
			Deficit:        maxZero(projected.Neg()).Round(2),
		})
	}
	return analysis
}

// Capacity 容量利用率(整体与分设施)
func (e *Engine) Capacity(records []*inventory.Record) CapacityUtilization {
	overall := CapacityUtilization{
		TotalCapacity: decimal.Zero,
		UsedCapacity:  decimal.Zero,
		Band:          CapacityLow,
	}
	type bucket struct{ capacity, used decimal.Decimal }
	byFacility := make(map[inventory.FacilityType]*bucket)

	for _, rec := range records {
		if !rec.Status.Active() {
			continue
		}
		overall.TotalCapacity = overall.TotalCapacity.Add(rec.StorageCapacity)
		overall.UsedCapacity = overall.UsedCapacity.Add(rec.CurrentQuantity)
		b, ok := byFacility[rec.FacilityType]
		if !ok {
			b = &bucket{capacity: decimal.Zero, used: decimal.Zero}
			byFacility[rec.FacilityType] = b
		}
		b.capacity = b.capacity.Add(rec.StorageCapacity)
		b.used = b.used.Add(rec.CurrentQuantity)
	}

	overall.UtilizationPct = utilizationPct(overall.UsedCapacity, overall.TotalCapacity)
	overall.Band = capacityBand(overall.UtilizationPct)

	types := make([]inventory.FacilityType, 0, len(byFacility))
	for ft := range byFacility {
		types = append(types, ft)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, ft := range types {
		b := byFacility[ft]
		pct := utilizationPct(b.used, b.capacity)
		overall.ByFacility = append(overall.ByFacility, FacilityUtilization{
			FacilityType:   ft,
			TotalCapacity:  b.capacity,
			UsedCapacity:   b.used,
			UtilizationPct: pct,
			Band:           capacityBand(pct),
		})
	}
	return overall
}

// Trends 入库量月度趋势
// 按入库月份聚合当前数量,比较最近两个月判断方向(阈值±10%)
func (e *Engine) Trends(records []*inventory.Record, now time.Time) InventoryTrends {
	monthly := make(map[string]decimal.Decimal)
	for _, rec := range records {
		if rec.StorageDate == nil {
			continue
		}
		key := rec.StorageDate.Format("2006-01")
		monthly[key] = monthly[key].Add(rec.CurrentQuantity)
	}

	keys := make([]string, 0, len(monthly))
	for k := range monthly {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	trends := InventoryTrends{
		Monthly:       make([]MonthlyPoint, 0, len(keys)),
		Direction:     TrendStable,
		GrowthRatePct: decimal.Zero,
	}
	for _, k := range keys {
		trends.Monthly = append(trends.Monthly, MonthlyPoint{Month: k, Quantity: monthly[k]})
	}
	if len(keys) < 2 {
		return trends
	}

	prev := monthly[keys[len(keys)-2]]
	last := monthly[keys[len(keys)-1]]
	if prev.IsPositive() {
		trends.GrowthRatePct = last.Sub(prev).DivRound(prev, 4).
			Mul(decimal.NewFromInt(100)).Round(2)
	}
	threshold := decimal.NewFromFloat(e.cfg.TrendThresholdPct)
	switch {
	case trends.GrowthRatePct.GreaterThan(threshold):
		trends.Direction = TrendIncreasing
	case trends.GrowthRatePct.LessThan(threshold.Neg()):
		trends.Direction = TrendDecreasing
	}
	return trends
}

// CropOutlooks 按作物计算前景(断供风险与最佳补货日)
func (e *Engine) CropOutlooks(records []*inventory.Record, now time.Time) []CropOutlook {
	byCrop := make(map[string][]*inventory.Record)
	for _, rec := range records {
		byCrop[rec.CropID] = append(byCrop[rec.CropID], rec)
	}
	cropIDs := make([]string, 0, len(byCrop))
	for id := range byCrop {
		cropIDs = append(cropIDs, id)
	}
	sort.Strings(cropIDs)

	outlooks := make([]CropOutlook, 0, len(cropIDs))
	for _, cropID := range cropIDs {
		group := byCrop[cropID]
		stock := totalAvailable(group)
		rate := e.estimator.DailyRate(group, now)

		outlook := CropOutlook{
			CropID:          cropID,
			CurrentStock:    stock,
			DailyRate:       rate,
			StockoutRisk:    RiskLow,
			SeasonalPattern: seasonalPattern(group),
		}
		if rate.IsPositive() {
			days := int(stock.Div(rate).IntPart())
			stockout := dateOf(now).AddDate(0, 0, days)
			outlook.EstimatedStockoutDate = &stockout
			restock := stockout.AddDate(0, 0, -e.cfg.RestockLeadDays)
			outlook.OptimalRestockDate = &restock
			switch {
			case days < 30:
				outlook.StockoutRisk = RiskHigh
			case days < 60:
				outlook.StockoutRisk = RiskMedium
			}
		}
		outlooks = append(outlooks, outlook)
	}
	return outlooks
}

// seasonalPattern 按入库月份聚合均量,找出峰谷月
func seasonalPattern(records []*inventory.Record) SeasonalPattern {
	sums := make(map[int]decimal.Decimal)
	counts := make(map[int]int64)
	for _, rec := range records {
		if rec.StorageDate == nil {
			continue
		}
		m := int(rec.StorageDate.Month())
		sums[m] = sums[m].Add(rec.CurrentQuantity)
		counts[m]++
	}
	pattern := SeasonalPattern{MonthlyAverages: make(map[int]decimal.Decimal, len(sums))}
	for m, sum := range sums {
		pattern.MonthlyAverages[m] = sum.DivRound(decimal.NewFromInt(counts[m]), 2)
	}
	for m := 1; m <= 12; m++ {
		avg, ok := pattern.MonthlyAverages[m]
		if !ok {
			continue
		}
		if pattern.PeakMonth == 0 || avg.GreaterThan(pattern.MonthlyAverages[pattern.PeakMonth]) {
			pattern.PeakMonth = m
		}
		if pattern.LowMonth == 0 || avg.LessThan(pattern.MonthlyAverages[pattern.LowMonth]) {
			pattern.LowMonth = m
		}
	}
	return pattern
}

func totalAvailable(records []*inventory.Record) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range records {
		if rec.Status == inventory.StatusAvailable {
			total = total.Add(rec.AvailableQuantity)
		}
	}
	return total
}

func utilizationPct(used, capacity decimal.Decimal) decimal.Decimal {
	if !capacity.IsPositive() {
		return decimal.Zero
	}
	return used.DivRound(capacity, 4).Mul(decimal.NewFromInt(100)).Round(2)
}

func capacityBand(pct decimal.Decimal) string {
	switch {
	case pct.GreaterThan(decimal.NewFromInt(90)):
		return CapacityCritical
	case pct.GreaterThan(decimal.NewFromInt(75)):
		return CapacityHigh
	case pct.GreaterThan(decimal.NewFromInt(50)):
		return CapacityOptimal
	default:
		return CapacityLow
	}
}

func maxZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

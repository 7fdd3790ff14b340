package prediction

// Config 预测参数
// 日历月份上的经验系数是配置输入而非算法内容,随部署区域调整:
// 收获季供给充足消耗放缓(×0.8),第二季略缓(×0.9),青黄不接期加速(×1.2)
type Config struct {
	HarvestFactor      float64 // 收获季系数
	HarvestMonths      [2]int  // 收获季月份区间(含两端)
	SecondSeasonFactor float64
	SecondSeasonMonths [2]int
	LeanFactor         float64 // 其余月份(青黄不接)

	ForecastHorizonDays []int // 消耗预测的时间窗(天)
	ProjectionMonths    int   // 滚动赤字预测的月数
	RestockLeadDays     int   // 补货提前期(最佳补货日 = 断供日 - 提前期)
	TrendThresholdPct   float64
}

// DefaultConfig 默认预测参数
func DefaultConfig() Config {
	return Config{
		HarvestFactor:       0.8,
		HarvestMonths:       [2]int{3, 5},
		SecondSeasonFactor:  0.9,
		SecondSeasonMonths:  [2]int{9, 11},
		LeanFactor:          1.2,
		ForecastHorizonDays: []int{7, 30, 90, 365},
		ProjectionMonths:    6,
		RestockLeadDays:     15,
		TrendThresholdPct:   10,
	}
}

// SeasonalFactor 给定月份(1-12)的前瞻消耗系数
// 只作用于向前看的日消耗率,历史估计值不做季节修正
func (c Config) SeasonalFactor(month int) float64 {
	if month >= c.HarvestMonths[0] && month <= c.HarvestMonths[1] {
		return c.HarvestFactor
	}
	if month >= c.SecondSeasonMonths[0] && month <= c.SecondSeasonMonths[1] {
		return c.SecondSeasonFactor
	}
	return c.LeanFactor
}

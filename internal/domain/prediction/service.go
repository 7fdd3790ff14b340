package prediction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xiebiao/agristock/internal/domain/inventory"
)

// Dashboard 预测看板的完整载荷
type Dashboard struct {
	StockCoverage          StockCoverage             `json:"stockCoverage"`
	ConsumptionForecasts   []ConsumptionForecast     `json:"consumptionForecasts"`
	DeficitAnalysis        DeficitAnalysis           `json:"deficitAnalysis"`
	CapacityUtilization    CapacityUtilization       `json:"capacityUtilization"`
	InventoryTrends        InventoryTrends           `json:"inventoryTrends"`
	FoodSecurityScore      FoodSecurityScore         `json:"foodSecurityScore"`
	RestockRecommendations []RestockRecommendation   `json:"restockRecommendations"`
	CropOutlooks           []CropOutlook             `json:"cropOutlooks"`
	GeneratedAt            time.Time                 `json:"generatedAt"`
}

// Service 预测领域服务
// 设计说明:看板是纯读路径,接受轻微过期的数据(时点分析);
// 查询失败时不向调用方抛错,而是降级为全零载荷并记录Warn日志,
// 保证看板总能渲染
type Service struct {
	repo        inventory.Repository
	engine      *Engine
	scorer      *Scorer
	recommender Recommender
	logger      *zap.Logger
	now         func() time.Time
}

// NewService 创建预测领域服务
func NewService(repo inventory.Repository, engine *Engine, logger *zap.Logger) *Service {
	return &Service{
		repo:        repo,
		engine:      engine,
		scorer:      NewScorer(engine),
		recommender: NewRecommender(),
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock 替换时钟(测试用)
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// BuildDashboard 构建预测看板
func (s *Service) BuildDashboard(ctx context.Context) *Dashboard {
	now := s.now()
	records, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Warn("预测读路径查询失败,降级为空载荷", zap.Error(err))
		return s.emptyDashboard(now)
	}
	return &Dashboard{
		StockCoverage:          s.engine.Coverage(records, now),
		ConsumptionForecasts:   s.engine.Forecasts(records, now),
		DeficitAnalysis:        s.engine.Deficits(records, now),
		CapacityUtilization:    s.engine.Capacity(records),
		InventoryTrends:        s.engine.Trends(records, now),
		FoodSecurityScore:      s.scorer.Score(records, now),
		RestockRecommendations: s.recommender.Recommend(records),
		CropOutlooks:           s.engine.CropOutlooks(records, now),
		GeneratedAt:            now,
	}
}

// emptyDashboard 全零载荷(降级路径)
func (s *Service) emptyDashboard(now time.Time) *Dashboard {
	return &Dashboard{
		StockCoverage: StockCoverage{
			TotalAvailable:       decimal.Zero,
			DailyConsumptionRate: decimal.Zero,
			Adequacy:             AdequacyCritical,
		},
		ConsumptionForecasts: []ConsumptionForecast{},
		DeficitAnalysis: DeficitAnalysis{
			MonthlyNeed:    decimal.Zero,
			CurrentDeficit: decimal.Zero,
			Projections:    []MonthProjection{},
		},
		CapacityUtilization: CapacityUtilization{
			TotalCapacity:  decimal.Zero,
			UsedCapacity:   decimal.Zero,
			UtilizationPct: decimal.Zero,
			Band:           CapacityLow,
		},
		InventoryTrends: InventoryTrends{
			Monthly:       []MonthlyPoint{},
			Direction:     TrendStable,
			GrowthRatePct: decimal.Zero,
		},
		FoodSecurityScore: FoodSecurityScore{
			Rating:          RatingCritical,
			Recommendations: []string{},
		},
		RestockRecommendations: []RestockRecommendation{},
		CropOutlooks:           []CropOutlook{},
		GeneratedAt:            now,
	}
}

package prediction

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xiebiao/agristock/internal/domain/inventory"
)

// 补货优先级(存量/需求比)
const (
	PriorityCritical = "CRITICAL" // ratio < 0.25
	PriorityHigh     = "HIGH"     // ratio < 0.5
	PriorityMedium   = "MEDIUM"   // ratio < 0.75
	PriorityLow      = "LOW"
)

// 补货紧迫度(缺口占比)
const (
	UrgencyImmediate = "IMMEDIATE" // 缺口 > 75%
	UrgencyUrgent    = "URGENT"    // 缺口 > 50%
	UrgencySoon      = "SOON"      // 缺口 > 25%
	UrgencyPlanned   = "PLANNED"
)

// priorityRank 优先级的显式序(排序不依赖标签的字典序)
var priorityRank = map[string]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// RestockRecommendation 单作物补货建议
type RestockRecommendation struct {
	CropID             string          `json:"cropId"`
	TotalStock         decimal.Decimal `json:"totalStock"`
	MinimumStock       decimal.Decimal `json:"minimumStock"`
	RecommendedRestock decimal.Decimal `json:"recommendedRestock"`
	Priority           string          `json:"priority"`
	Urgency            string          `json:"urgency"`
}

// Recommender 补货建议引擎
// 设计说明:按作物分组,组内可用量求和与组内最高的最低库存水位比较,
// 低于水位即产出建议;输出按优先级从高到低排序,同级按缺口从大到小
type Recommender struct{}

// NewRecommender 创建补货建议引擎
func NewRecommender() Recommender {
	return Recommender{}
}

// Recommend 产出补货建议
func (Recommender) Recommend(records []*inventory.Record) []RestockRecommendation {
	type group struct {
		total    decimal.Decimal
		minStock decimal.Decimal
	}
	groups := make(map[string]*group)
	for _, rec := range records {
		g, ok := groups[rec.CropID]
		if !ok {
			g = &group{total: decimal.Zero, minStock: decimal.Zero}
			groups[rec.CropID] = g
		}
		g.total = g.total.Add(rec.AvailableQuantity)
		if rec.MinimumStockLevel.GreaterThan(g.minStock) {
			g.minStock = rec.MinimumStockLevel
		}
	}

	recs := make([]RestockRecommendation, 0)
	for cropID, g := range groups {
		if !g.minStock.IsPositive() || g.total.GreaterThanOrEqual(g.minStock) {
			continue
		}
		deficit := g.minStock.Sub(g.total)
		ratio := g.total.DivRound(g.minStock, 4)
		deficitPct := deficit.DivRound(g.minStock, 4).Mul(decimal.NewFromInt(100))
		recs = append(recs, RestockRecommendation{
			CropID:             cropID,
			TotalStock:         g.total,
			MinimumStock:       g.minStock,
			RecommendedRestock: deficit,
			Priority:           priorityOf(ratio),
			Urgency:            urgencyOf(deficitPct),
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		ri, rj := priorityRank[recs[i].Priority], priorityRank[recs[j].Priority]
		if ri != rj {
			return ri < rj
		}
		if !recs[i].RecommendedRestock.Equal(recs[j].RecommendedRestock) {
			return recs[i].RecommendedRestock.GreaterThan(recs[j].RecommendedRestock)
		}
		return recs[i].CropID < recs[j].CropID
	})
	return recs
}

func priorityOf(ratio decimal.Decimal) string {
	switch {
	case ratio.LessThan(decimal.NewFromFloat(0.25)):
		return PriorityCritical
	case ratio.LessThan(decimal.NewFromFloat(0.5)):
		return PriorityHigh
	case ratio.LessThan(decimal.NewFromFloat(0.75)):
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func urgencyOf(deficitPct decimal.Decimal) string {
	switch {
	case deficitPct.GreaterThan(decimal.NewFromInt(75)):
		return UrgencyImmediate
	case deficitPct.GreaterThan(decimal.NewFromInt(50)):
		return UrgencyUrgent
	case deficitPct.GreaterThan(decimal.NewFromInt(25)):
		return UrgencySoon
	default:
		return UrgencyPlanned
	}
}

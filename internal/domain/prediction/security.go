package prediction

import (
	"strings"
	"time"

	"github.com/xiebiao/agristock/internal/domain/inventory"
)

// 食品安全综合评级
const (
	RatingExcellent = "EXCELLENT" // ≥80
	RatingGood      = "GOOD"      // ≥60
	RatingModerate  = "MODERATE"  // ≥40
	RatingPoor      = "POOR"      // ≥20
	RatingCritical  = "CRITICAL"
)

// FoodSecurityScore 食品安全综合评分
// 四个子分各0-100,算术平均取整为总分
type FoodSecurityScore struct {
	Overall         int      `json:"overall"`
	Diversity       int      `json:"diversity"`     // 作物多样性
	Adequacy        int      `json:"adequacy"`      // 覆盖充足度
	Quality         int      `json:"quality"`       // 优质占比
	Accessibility   int      `json:"accessibility"` // 可售占比
	Rating          string   `json:"rating"`
	Recommendations []string `json:"recommendations"`
}

// Scorer 食品安全评分器
type Scorer struct {
	engine *Engine
}

// NewScorer 创建评分器
func NewScorer(engine *Engine) *Scorer {
	return &Scorer{engine: engine}
}

// Score 计算综合评分
func (s *Scorer) Score(records []*inventory.Record, now time.Time) FoodSecurityScore {
	score := FoodSecurityScore{Rating: RatingCritical, Recommendations: []string{}}
	if len(records) == 0 {
		score.Recommendations = defaultRecommendations(0)
		return score
	}

	crops := make(map[string]struct{})
	qualityHits, availableHits := 0, 0
	for _, rec := range records {
		crops[rec.CropID] = struct{}{}
		if isTopGrade(rec.QualityGrade) {
			qualityHits++
		}
		if rec.Status == inventory.StatusAvailable {
			availableHits++
		}
	}

	score.Diversity = diversityScore(len(crops))
	score.Adequacy = adequacyScore(s.engine.Coverage(records, now).CoverageDays)
	score.Quality = qualityHits * 100 / len(records)
	score.Accessibility = availableHits * 100 / len(records)
	score.Overall = (score.Diversity + score.Adequacy + score.Quality + score.Accessibility) / 4

	switch {
	case score.Overall >= 80:
		score.Rating = RatingExcellent
	case score.Overall >= 60:
		score.Rating = RatingGood
	case score.Overall >= 40:
		score.Rating = RatingModerate
	case score.Overall >= 20:
		score.Rating = RatingPoor
	}
	score.Recommendations = defaultRecommendations(score.Overall)
	return score
}

// isTopGrade 质量等级是否为A/B
// 原始数据既有"A"也有"Grade A"写法,剥掉前缀后不区分大小写比较
func isTopGrade(grade string) bool {
	g := strings.TrimSpace(grade)
	g = strings.TrimPrefix(strings.ToUpper(g), "GRADE")
	g = strings.TrimSpace(g)
	return g == "A" || g == "B"
}

func diversityScore(distinctCrops int) int {
	switch {
	case distinctCrops >= 10:
		return 100
	case distinctCrops >= 7:
		return 80
	case distinctCrops >= 5:
		return 60
	case distinctCrops >= 3:
		return 40
	default:
		return 20
	}
}

func adequacyScore(coverageDays int) int {
	switch {
	case coverageDays >= 180:
		return 100
	case coverageDays >= 90:
		return 80
	case coverageDays >= 60:
		return 60
	case coverageDays >= 30:
		return 40
	default:
		return 20
	}
}

// defaultRecommendations 按总分阈值给出固定建议清单
func defaultRecommendations(overall int) []string {
	recs := []string{}
	if overall < 40 {
		recs = append(recs, "库存总量严重不足,优先组织采购与补货")
	}
	if overall < 60 {
		recs = append(recs, "增加作物种类,分散单一作物歉收风险")
	}
	if overall < 80 {
		recs = append(recs, "提升优质等级占比,加强仓储质量管理")
	}
	return recs
}

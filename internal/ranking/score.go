package ranking

import (
	"time"

	"github.com/jixie-rent/server/internal/constants"
)

// 基础分
const (
	BaseScoreTop         = 200
	BaseScoreRecommended = 100
)

// 地域匹配加分
const (
	BonusProvinceExact    = 30
	BonusProvinceUnscoped = 10
	BonusCityExact        = 20
	BonusCityInProvince   = 5
	BonusCountyExact      = 10
	BonusCountyInCity     = 3
)

// Candidate 参与排序的候选信息
type Candidate struct {
	ID                 uint
	ProvinceID         uint
	CityID             uint
	CountyID           uint
	PromotionTier      int
	PromotionScope     string
	PromotionExpiresAt *time.Time
	PublishedAt        *time.Time
	ViewCount          int64
	Price              float64
}

// SearchContext 当前搜索的地域筛选与排序方式，ID 为 0 表示未筛选
type SearchContext struct {
	ProvinceID uint
	CityID     uint
	CountyID   uint
	Sort       string
}

// IsPriceSort 价格排序不参与推广加权
func (c SearchContext) IsPriceSort() bool {
	return c.Sort == constants.ListingSortPriceAsc || c.Sort == constants.ListingSortPriceDesc
}

// Score 计算候选信息的推广分（非负整数）
func Score(item Candidate, ctx SearchContext, now time.Time) int {
	if item.PromotionTier == constants.PromotionTierNone {
		return 0
	}
	if item.PromotionExpiresAt == nil || !item.PromotionExpiresAt.After(now) {
		return 0
	}
	base := 0
	switch item.PromotionTier {
	case constants.PromotionTierTop:
		base = BaseScoreTop
	case constants.PromotionTierRecommended:
		base = BaseScoreRecommended
	default:
		return 0
	}
	return base + regionBonus(item, ctx)
}

func regionBonus(item Candidate, ctx SearchContext) int {
	switch item.PromotionScope {
	case constants.PromotionScopeProvince:
		if ctx.ProvinceID == 0 {
			return BonusProvinceUnscoped
		}
		if ctx.ProvinceID == item.ProvinceID {
			return BonusProvinceExact
		}
	case constants.PromotionScopeCity:
		if ctx.CityID != 0 {
			if ctx.CityID == item.CityID {
				return BonusCityExact
			}
			return 0
		}
		if ctx.ProvinceID != 0 && ctx.ProvinceID == item.ProvinceID {
			return BonusCityInProvince
		}
	case constants.PromotionScopeCounty:
		if ctx.CountyID != 0 {
			if ctx.CountyID == item.CountyID {
				return BonusCountyExact
			}
			return 0
		}
		if ctx.CityID != 0 && ctx.CityID == item.CityID {
			return BonusCountyInCity
		}
	}
	return 0
}

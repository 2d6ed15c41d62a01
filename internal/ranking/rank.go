package ranking

import (
	"sort"
	"time"

	"github.com/jixie-rent/server/internal/constants"
)

// Ranked 排序结果
type Ranked struct {
	Candidate
	Score int
}

// Rank 对已取回的一页候选重新排序（稳定排序，同分同序保持原顺序）
// 价格排序仅按价格排，推广分不生效
func Rank(items []Candidate, ctx SearchContext, now time.Time) []Ranked {
	ranked := make([]Ranked, len(items))
	priceSort := ctx.IsPriceSort()
	for i, item := range items {
		ranked[i] = Ranked{Candidate: item}
		if !priceSort {
			ranked[i].Score = Score(item, ctx, now)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return organicLess(a.Candidate, b.Candidate, ctx.Sort)
	})
	return ranked
}

func organicLess(a, b Candidate, mode string) bool {
	switch mode {
	case constants.ListingSortPriceAsc:
		return a.Price < b.Price
	case constants.ListingSortPriceDesc:
		return a.Price > b.Price
	case constants.ListingSortPopular:
		return a.ViewCount > b.ViewCount
	default:
		return timeAfter(a.PublishedAt, b.PublishedAt)
	}
}

func timeAfter(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a != nil && b == nil
	}
	return a.After(*b)
}

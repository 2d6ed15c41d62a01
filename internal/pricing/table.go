package pricing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jixie-rent/server/internal/constants"

	"github.com/shopspring/decimal"
)

var (
	// ErrPriceNotConfigured 价格表缺少对应单元格
	ErrPriceNotConfigured = errors.New("promotion price not configured")
)

// ScopePrices 单个档位在各地域范围下的月单价
type ScopePrices struct {
	Province decimal.Decimal
	City     decimal.Decimal
	County   decimal.Decimal
}

// Table 推广价格表（构建后只读）
type Table struct {
	cells map[int]map[string]decimal.Decimal
}

// NewTable 按档位构建价格表
func NewTable(recommended, top ScopePrices) Table {
	build := func(p ScopePrices) map[string]decimal.Decimal {
		return map[string]decimal.Decimal{
			constants.PromotionScopeProvince: p.Province,
			constants.PromotionScopeCity:     p.City,
			constants.PromotionScopeCounty:   p.County,
		}
	}
	return Table{cells: map[int]map[string]decimal.Decimal{
		constants.PromotionTierRecommended: build(recommended),
		constants.PromotionTierTop:         build(top),
	}}
}

// DefaultTable 默认价格表（元/月）
func DefaultTable() Table {
	return NewTable(
		ScopePrices{Province: decimal.NewFromInt(500), City: decimal.NewFromInt(200), County: decimal.NewFromInt(100)},
		ScopePrices{Province: decimal.NewFromInt(800), City: decimal.NewFromInt(300), County: decimal.NewFromInt(150)},
	)
}

// UnitPrice 查询档位与地域范围对应的月单价
func (t Table) UnitPrice(tier int, scope string) (decimal.Decimal, bool) {
	scopes, ok := t.cells[tier]
	if !ok {
		return decimal.Zero, false
	}
	price, ok := scopes[scope]
	return price, ok
}

// ComputeAmount 计算订单金额 = 单价 * 月数
func (t Table) ComputeAmount(tier int, scope string, months int) (decimal.Decimal, error) {
	price, ok := t.UnitPrice(tier, scope)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: tier=%d scope=%s", ErrPriceNotConfigured, tier, scope)
	}
	return price.Mul(decimal.NewFromInt(int64(months))).Round(2), nil
}

// Validate 校验价格表完整且单价为正
func (t Table) Validate() error {
	tiers := []int{constants.PromotionTierRecommended, constants.PromotionTierTop}
	scopes := []string{constants.PromotionScopeProvince, constants.PromotionScopeCity, constants.PromotionScopeCounty}
	for _, tier := range tiers {
		for _, scope := range scopes {
			price, ok := t.UnitPrice(tier, scope)
			if !ok {
				return fmt.Errorf("%w: tier=%d scope=%s", ErrPriceNotConfigured, tier, scope)
			}
			if !price.IsPositive() {
				return fmt.Errorf("promotion price must be positive: tier=%d scope=%s price=%s", tier, scope, price.String())
			}
		}
	}
	return nil
}

// IsValidTier 判断档位是否可售
func IsValidTier(tier int) bool {
	return tier == constants.PromotionTierRecommended || tier == constants.PromotionTierTop
}

// IsValidScope 判断地域范围是否合法
func IsValidScope(scope string) bool {
	switch scope {
	case constants.PromotionScopeProvince, constants.PromotionScopeCity, constants.PromotionScopeCounty:
		return true
	}
	return false
}

// IsValidDuration 判断推广月数是否在允许范围内
func IsValidDuration(months int) bool {
	return months >= constants.PromotionMinDurationMonths && months <= constants.PromotionMaxDurationMonths
}

// BonusTier 充值赠送档位
type BonusTier struct {
	Threshold decimal.Decimal
	Bonus     decimal.Decimal
}

// BonusTable 充值赠送表（按门槛升序）
type BonusTable struct {
	tiers []BonusTier
}

// NewBonusTable 构建充值赠送表
func NewBonusTable(tiers []BonusTier) BonusTable {
	sorted := make([]BonusTier, 0, len(tiers))
	for _, tier := range tiers {
		if !tier.Threshold.IsPositive() || tier.Bonus.IsNegative() {
			continue
		}
		sorted = append(sorted, tier)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Threshold.LessThan(sorted[j].Threshold)
	})
	return BonusTable{tiers: sorted}
}

// DefaultBonusTable 默认充值赠送表
func DefaultBonusTable() BonusTable {
	return NewBonusTable([]BonusTier{
		{Threshold: decimal.NewFromInt(500), Bonus: decimal.NewFromInt(20)},
		{Threshold: decimal.NewFromInt(1000), Bonus: decimal.NewFromInt(50)},
		{Threshold: decimal.NewFromInt(5000), Bonus: decimal.NewFromInt(300)},
	})
}

// BonusFor 返回不超过充值金额的最高门槛对应的赠送金额
func (b BonusTable) BonusFor(amount decimal.Decimal) decimal.Decimal {
	bonus := decimal.Zero
	for _, tier := range b.tiers {
		if amount.LessThan(tier.Threshold) {
			break
		}
		bonus = tier.Bonus
	}
	return bonus
}

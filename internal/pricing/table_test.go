package pricing

import (
	"testing"

	"github.com/jixie-rent/server/internal/constants"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestComputeAmountMatchesUnitPriceTimesMonths(t *testing.T) {
	table := DefaultTable()
	tiers := []int{constants.PromotionTierRecommended, constants.PromotionTierTop}
	scopes := []string{constants.PromotionScopeProvince, constants.PromotionScopeCity, constants.PromotionScopeCounty}
	for _, tier := range tiers {
		for _, scope := range scopes {
			price, ok := table.UnitPrice(tier, scope)
			require.True(t, ok)
			for months := constants.PromotionMinDurationMonths; months <= constants.PromotionMaxDurationMonths; months++ {
				amount, err := table.ComputeAmount(tier, scope, months)
				require.NoError(t, err)
				require.True(t, amount.Equal(price.Mul(decimal.NewFromInt(int64(months)))),
					"tier=%d scope=%s months=%d amount=%s", tier, scope, months, amount)
			}
		}
	}
}

func TestDefaultTableValues(t *testing.T) {
	table := DefaultTable()
	amount, err := table.ComputeAmount(constants.PromotionTierTop, constants.PromotionScopeCity, 3)
	require.NoError(t, err)
	require.Equal(t, "900", amount.String())

	price, ok := table.UnitPrice(constants.PromotionTierRecommended, constants.PromotionScopeCounty)
	require.True(t, ok)
	require.Equal(t, "100", price.String())
	require.NoError(t, table.Validate())
}

func TestUnknownCell(t *testing.T) {
	table := DefaultTable()
	_, ok := table.UnitPrice(constants.PromotionTierNone, constants.PromotionScopeCity)
	require.False(t, ok)
	_, err := table.ComputeAmount(constants.PromotionTierTop, "country", 1)
	require.ErrorIs(t, err, ErrPriceNotConfigured)
}

func TestValidateRejectsNonPositivePrice(t *testing.T) {
	table := NewTable(
		ScopePrices{Province: decimal.NewFromInt(500), City: decimal.Zero, County: decimal.NewFromInt(100)},
		ScopePrices{Province: decimal.NewFromInt(800), City: decimal.NewFromInt(300), County: decimal.NewFromInt(150)},
	)
	require.Error(t, table.Validate())
}

func TestArgumentValidators(t *testing.T) {
	require.True(t, IsValidTier(1))
	require.True(t, IsValidTier(2))
	require.False(t, IsValidTier(0))
	require.False(t, IsValidTier(3))
	require.True(t, IsValidScope("county"))
	require.False(t, IsValidScope("town"))
	require.True(t, IsValidDuration(1))
	require.True(t, IsValidDuration(12))
	require.False(t, IsValidDuration(0))
	require.False(t, IsValidDuration(13))
}

func TestBonusFor(t *testing.T) {
	table := DefaultBonusTable()
	cases := map[string]string{
		"100":    "0",
		"499.99": "0",
		"500":    "20",
		"999":    "20",
		"1000":   "50",
		"4999":   "50",
		"5000":   "300",
		"20000":  "300",
	}
	for raw, want := range cases {
		got := table.BonusFor(decimal.RequireFromString(raw))
		require.True(t, got.Equal(decimal.RequireFromString(want)), "amount=%s got=%s want=%s", raw, got, want)
	}
}

func TestNewBonusTableSortsAndSkipsInvalid(t *testing.T) {
	table := NewBonusTable([]BonusTier{
		{Threshold: decimal.NewFromInt(1000), Bonus: decimal.NewFromInt(50)},
		{Threshold: decimal.Zero, Bonus: decimal.NewFromInt(999)},
		{Threshold: decimal.NewFromInt(500), Bonus: decimal.NewFromInt(20)},
	})
	require.Equal(t, "20", table.BonusFor(decimal.NewFromInt(600)).String())
	require.Equal(t, "0", table.BonusFor(decimal.NewFromInt(10)).String())
}

package config

import (
	"os"
	"testing"

	"github.com/jixie-rent/server/internal/constants"

	"github.com/shopspring/decimal"
)

func TestLoadDefaultsBuildsPricingAndBonus(t *testing.T) {
	cfg := LoadDefaults()
	table, err := cfg.Promotion.PricingTable()
	if err != nil {
		t.Fatalf("build pricing table failed: %v", err)
	}
	price, ok := table.UnitPrice(constants.PromotionTierTop, constants.PromotionScopeProvince)
	if !ok || !price.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("unexpected top province price: %s", price)
	}
	if cfg.Promotion.SweepIntervalMinutes != 60 {
		t.Fatalf("sweep interval want 60 got %d", cfg.Promotion.SweepIntervalMinutes)
	}
	if cfg.Promotion.PendingOrderTTLMinutes != 0 {
		t.Fatalf("pending ttl should be disabled by default")
	}

	bonus, err := cfg.Wallet.BonusTable()
	if err != nil {
		t.Fatalf("build bonus table failed: %v", err)
	}
	if got := bonus.BonusFor(decimal.NewFromInt(1200)); !got.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("bonus for 1200 want 50 got %s", got)
	}
}

func TestPricingTableRejectsInvalidAmount(t *testing.T) {
	cfg := LoadDefaults()
	cfg.Promotion.Pricing.Top.City = "abc"
	if _, err := cfg.Promotion.PricingTable(); err == nil {
		t.Fatalf("expected parse error")
	}
	cfg = LoadDefaults()
	cfg.Promotion.Pricing.Recommended.County = "0"
	if _, err := cfg.Promotion.PricingTable(); err == nil {
		t.Fatalf("expected validation error for zero price")
	}
}

func TestLoadReadsConfigFileAndEnv(t *testing.T) {
	tmp := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})

	content := []byte("server:\n  port: \"9090\"\npromotion:\n  pricing:\n    top:\n      city: \"350\"\n")
	if err := os.WriteFile("config.yml", content, 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	t.Setenv("PROMOTION_SWEEP_INTERVAL_MINUTES", "15")

	cfg := Load()
	if cfg.Server.Port != "9090" {
		t.Fatalf("server port want 9090 got %s", cfg.Server.Port)
	}
	if cfg.Promotion.SweepIntervalMinutes != 15 {
		t.Fatalf("env override want 15 got %d", cfg.Promotion.SweepIntervalMinutes)
	}
	table, err := cfg.Promotion.PricingTable()
	if err != nil {
		t.Fatalf("build pricing table failed: %v", err)
	}
	price, _ := table.UnitPrice(constants.PromotionTierTop, constants.PromotionScopeCity)
	if !price.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("top city price want 350 got %s", price)
	}
}

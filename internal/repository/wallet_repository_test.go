package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/jixie-rent/server/internal/constants"
	"github.com/jixie-rent/server/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db
}

func TestWalletRepositoryTransactionsAndSums(t *testing.T) {
	db := setupRepositoryTestDB(t, "wallet_repo_test")
	repo := NewWalletRepository(db)
	now := time.Now()

	account := &models.WalletAccount{
		UserID:  7,
		Balance: models.NewMoneyFromDecimal(decimal.NewFromInt(80)),
	}
	if err := repo.CreateAccount(account); err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	orderID := uint(3)
	txns := []models.WalletTransaction{
		{UserID: 7, Type: constants.WalletTxnTypeRecharge, Direction: constants.WalletTxnDirectionIn,
			Amount: models.NewMoneyFromInt(100), Currency: constants.CurrencyCNY, Reference: "recharge:7:a", CreatedAt: now.Add(-2 * time.Hour)},
		{UserID: 7, OrderID: &orderID, Type: constants.WalletTxnTypePromotionPay, Direction: constants.WalletTxnDirectionOut,
			Amount: models.NewMoneyFromInt(20), Currency: constants.CurrencyCNY, Reference: "promotion_order:3:promotion_pay", CreatedAt: now.Add(-time.Hour)},
		{UserID: 8, Type: constants.WalletTxnTypeRecharge, Direction: constants.WalletTxnDirectionIn,
			Amount: models.NewMoneyFromInt(500), Currency: constants.CurrencyCNY, Reference: "recharge:8:a", CreatedAt: now},
	}
	for i := range txns {
		if err := repo.CreateTransaction(&txns[i]); err != nil {
			t.Fatalf("create txn %d failed: %v", i, err)
		}
	}

	dup := models.WalletTransaction{UserID: 7, Type: constants.WalletTxnTypeRecharge, Direction: constants.WalletTxnDirectionIn,
		Amount: models.NewMoneyFromInt(1), Currency: constants.CurrencyCNY, Reference: "recharge:7:a"}
	if err := repo.CreateTransaction(&dup); err == nil {
		t.Fatalf("expected unique reference violation")
	}

	got, err := repo.GetTransactionByReference("promotion_order:3:promotion_pay")
	if err != nil || got == nil {
		t.Fatalf("get by reference failed: %v %+v", err, got)
	}
	if got.OrderID == nil || *got.OrderID != orderID {
		t.Fatalf("unexpected order id: %+v", got.OrderID)
	}
	missing, err := repo.GetTransactionByReference("nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing reference, got %+v err=%v", missing, err)
	}

	rows, total, err := repo.ListTransactions(WalletTransactionListFilter{UserID: 7, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list txns failed: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("want 2 txns got total=%d len=%d", total, len(rows))
	}
	if rows[0].Type != constants.WalletTxnTypePromotionPay {
		t.Fatalf("expected newest first, got %s", rows[0].Type)
	}

	in, out, err := repo.SumTransactions(7)
	if err != nil {
		t.Fatalf("sum failed: %v", err)
	}
	if !in.Equal(decimal.NewFromInt(100)) || !out.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected sums in=%s out=%s", in, out)
	}

	locked, err := repo.GetAccountByUserIDForUpdate(7)
	if err != nil || locked == nil {
		t.Fatalf("get account for update failed: %v", err)
	}
	if !locked.Balance.Decimal.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("unexpected balance: %s", locked.Balance.String())
	}
}

func TestWalletRepositoryUpdateBalanceIsConditional(t *testing.T) {
	db := setupRepositoryTestDB(t, "wallet_repo_balance_test")
	repo := NewWalletRepository(db)

	account := &models.WalletAccount{UserID: 9, Balance: models.NewMoneyFromInt(50)}
	if err := repo.CreateAccount(account); err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	affected, err := repo.UpdateBalance(account.ID, models.NewMoneyFromInt(50), models.NewMoneyFromInt(30), time.Now())
	if err != nil || affected != 1 {
		t.Fatalf("expected one row updated, got %d err=%v", affected, err)
	}
	affected, err = repo.UpdateBalance(account.ID, models.NewMoneyFromInt(50), models.NewMoneyFromInt(10), time.Now())
	if err != nil {
		t.Fatalf("stale update failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("stale expected balance must not update, got %d rows", affected)
	}

	stored, err := repo.GetAccountByUserID(9)
	if err != nil || stored == nil {
		t.Fatalf("reload account failed: %v", err)
	}
	if stored.Balance.StringFixed(2) != "30.00" {
		t.Fatalf("balance want 30.00 got %s", stored.Balance.StringFixed(2))
	}
}

package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/jixie-rent/server/internal/constants"
	"github.com/jixie-rent/server/internal/metrics"
	"github.com/jixie-rent/server/internal/models"
	"github.com/jixie-rent/server/internal/pricing"
	"github.com/jixie-rent/server/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletService 钱包服务（所有余额变动都经由 DebitInTx/CreditInTx）
type WalletService struct {
	walletRepo repository.WalletRepository
	bonusTable pricing.BonusTable
}

// WalletEntryInput 事务内记账输入
type WalletEntryInput struct {
	UserID    uint
	Amount    models.Money
	TxnType   string
	Reference string
	Remark    string
	OrderID   *uint
}

// WalletRechargeInput 用户充值输入
type WalletRechargeInput struct {
	UserID     uint
	Amount     models.Money
	Remark     string
	RechargeNo string // 充值单号，相同单号重复入账时返回已有流水；为空时自动生成
}

// WalletRechargeResult 充值结果
type WalletRechargeResult struct {
	Account      *models.WalletAccount
	Transactions []models.WalletTransaction
	Bonus        models.Money
}

// WalletReconcileResult 余额与流水核对结果
type WalletReconcileResult struct {
	UserID     uint         `json:"user_id"`
	Balance    models.Money `json:"balance"`
	LedgerSum  models.Money `json:"ledger_sum"`
	Consistent bool         `json:"consistent"`
}

// NewWalletService 创建钱包服务
func NewWalletService(walletRepo repository.WalletRepository, bonusTable pricing.BonusTable) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
		bonusTable: bonusTable,
	}
}

// GetAccount 获取钱包账户（不存在时自动创建）
func (s *WalletService) GetAccount(userID uint) (*models.WalletAccount, error) {
	if userID == 0 {
		return nil, ErrWalletAccountNotFound
	}
	account, err := s.walletRepo.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	now := time.Now()
	account = &models.WalletAccount{
		UserID:    userID,
		Balance:   models.NewMoneyFromDecimal(decimal.Zero),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepo.CreateAccount(account); err != nil {
		created, queryErr := s.walletRepo.GetAccountByUserID(userID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrWalletAccountCreateFailed
	}
	return account, nil
}

// ListTransactions 查询钱包流水
func (s *WalletService) ListTransactions(filter repository.WalletTransactionListFilter) ([]models.WalletTransaction, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, ErrWalletAccountNotFound
	}
	return s.walletRepo.ListTransactions(filter)
}

// DebitInTx 在调用方事务内扣减余额，余额不足时返回 ErrWalletInsufficientBalance
func (s *WalletService) DebitInTx(tx *gorm.DB, input WalletEntryInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	return s.applyEntryInTx(tx, input, constants.WalletTxnDirectionOut)
}

// CreditInTx 在调用方事务内增加余额
func (s *WalletService) CreditInTx(tx *gorm.DB, input WalletEntryInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	return s.applyEntryInTx(tx, input, constants.WalletTxnDirectionIn)
}

// Recharge 充值入账，按赠送档位额外写入一条赠送流水
func (s *WalletService) Recharge(input WalletRechargeInput) (*WalletRechargeResult, error) {
	if input.UserID == 0 {
		return nil, ErrWalletAccountNotFound
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrWalletInvalidAmount
	}
	bonus := s.bonusTable.BonusFor(amount).Round(2)
	rechargeNo := strings.TrimSpace(input.RechargeNo)
	if rechargeNo == "" {
		rechargeNo = uuid.NewString()
	}
	result := &WalletRechargeResult{Bonus: models.NewMoneyFromDecimal(bonus)}

	err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		account, txn, err := s.CreditInTx(tx, WalletEntryInput{
			UserID:    input.UserID,
			Amount:    models.NewMoneyFromDecimal(amount),
			TxnType:   constants.WalletTxnTypeRecharge,
			Reference: buildWalletReference("recharge", rechargeNo),
			Remark:    cleanWalletRemark(input.Remark, "余额充值"),
		})
		if err != nil {
			return err
		}
		result.Account = account
		result.Transactions = append(result.Transactions, *txn)
		if bonus.LessThanOrEqual(decimal.Zero) {
			return nil
		}
		account, txn, err = s.CreditInTx(tx, WalletEntryInput{
			UserID:    input.UserID,
			Amount:    models.NewMoneyFromDecimal(bonus),
			TxnType:   constants.WalletTxnTypeRechargeBonus,
			Reference: buildWalletReference("recharge_bonus", rechargeNo),
			Remark:    "充值赠送",
		})
		if err != nil {
			return err
		}
		result.Account = account
		result.Transactions = append(result.Transactions, *txn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reconcile 核对物化余额与流水汇总（Σ入账 − Σ出账）
func (s *WalletService) Reconcile(userID uint) (*WalletReconcileResult, error) {
	account, err := s.GetAccount(userID)
	if err != nil {
		return nil, err
	}
	in, out, err := s.walletRepo.SumTransactions(userID)
	if err != nil {
		return nil, err
	}
	sum := in.Sub(out).Round(2)
	return &WalletReconcileResult{
		UserID:     userID,
		Balance:    account.Balance,
		LedgerSum:  models.NewMoneyFromDecimal(sum),
		Consistent: account.Balance.Decimal.Round(2).Equal(sum),
	}, nil
}

func (s *WalletService) applyEntryInTx(tx *gorm.DB, input WalletEntryInput, direction string) (*models.WalletAccount, *models.WalletTransaction, error) {
	if tx == nil {
		return nil, nil, ErrWalletAccountUpdateFailed
	}
	if input.UserID == 0 {
		return nil, nil, ErrWalletAccountNotFound
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, ErrWalletInvalidAmount
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	txnType := strings.TrimSpace(input.TxnType)
	if txnType == "" {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	now := time.Now()
	repo := s.walletRepo.WithTx(tx)

	exists, err := repo.GetTransactionByReference(reference)
	if err != nil {
		return nil, nil, err
	}
	if exists != nil {
		if exists.UserID != input.UserID || exists.Direction != direction {
			return nil, nil, ErrWalletReferenceConflict
		}
		account, accountErr := s.ensureAccountForUpdate(repo, input.UserID, now)
		if accountErr != nil {
			return nil, nil, accountErr
		}
		return account, exists, nil
	}

	account, err := s.ensureAccountForUpdate(repo, input.UserID, now)
	if err != nil {
		return nil, nil, err
	}
	before := account.Balance.Decimal.Round(2)
	after := before.Add(amount).Round(2)
	if direction == constants.WalletTxnDirectionOut {
		if before.LessThan(amount) {
			return nil, nil, ErrWalletInsufficientBalance
		}
		after = before.Sub(amount).Round(2)
	}
	affected, err := repo.UpdateBalance(account.ID, account.Balance, models.NewMoneyFromDecimal(after), now)
	if err != nil || affected == 0 {
		return nil, nil, ErrWalletAccountUpdateFailed
	}
	account.Balance = models.NewMoneyFromDecimal(after)
	account.UpdatedAt = now

	txn := &models.WalletTransaction{
		UserID:        input.UserID,
		OrderID:       input.OrderID,
		Type:          txnType,
		Direction:     direction,
		Amount:        models.NewMoneyFromDecimal(amount),
		BalanceBefore: models.NewMoneyFromDecimal(before),
		BalanceAfter:  models.NewMoneyFromDecimal(after),
		Currency:      constants.CurrencyCNY,
		Reference:     reference,
		Remark:        cleanWalletRemark(input.Remark, "钱包记账"),
		CreatedAt:     now,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	metrics.WalletEntries.WithLabelValues(txnType, direction).Inc()
	return account, txn, nil
}

func (s *WalletService) ensureAccountForUpdate(repo *repository.GormWalletRepository, userID uint, now time.Time) (*models.WalletAccount, error) {
	account, err := repo.GetAccountByUserIDForUpdate(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &models.WalletAccount{
		UserID:    userID,
		Balance:   models.NewMoneyFromDecimal(decimal.Zero),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateAccount(account); err != nil {
		created, queryErr := repo.GetAccountByUserIDForUpdate(userID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrWalletAccountCreateFailed
	}
	return account, nil
}

func cleanWalletRemark(raw string, fallback string) string {
	remark := strings.TrimSpace(raw)
	if remark == "" {
		return fallback
	}
	return remark
}

func buildPromotionWalletReference(orderID uint, action string) string {
	action = strings.TrimSpace(action)
	if action == "" {
		action = "wallet"
	}
	return fmt.Sprintf("promotion_order:%d:%s", orderID, action)
}

func buildWalletReference(prefix string, id string) string {
	normalized := strings.TrimSpace(prefix)
	if normalized == "" {
		normalized = "wallet"
	}
	return fmt.Sprintf("%s:%s", normalized, id)
}

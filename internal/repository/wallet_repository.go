package repository

import (
	"strings"
	"time"

	"github.com/jixie-rent/server/internal/constants"
	"github.com/jixie-rent/server/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletRepository 钱包数据访问接口
type WalletRepository interface {
	GetAccountByUserID(userID uint) (*models.WalletAccount, error)
	GetAccountByUserIDForUpdate(userID uint) (*models.WalletAccount, error)
	CreateAccount(account *models.WalletAccount) error
	UpdateBalance(accountID uint, expected, balance models.Money, updatedAt time.Time) (int64, error)
	CreateTransaction(txn *models.WalletTransaction) error
	GetTransactionByReference(reference string) (*models.WalletTransaction, error)
	ListTransactions(filter WalletTransactionListFilter) ([]models.WalletTransaction, int64, error)
	SumTransactions(userID uint) (decimal.Decimal, decimal.Decimal, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormWalletRepository
}

// GormWalletRepository GORM 钱包仓储实现
type GormWalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository 创建钱包仓储
func NewWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWalletRepository) WithTx(tx *gorm.DB) *GormWalletRepository {
	if tx == nil {
		return r
	}
	return &GormWalletRepository{db: tx}
}

// Transaction 执行事务
func (r *GormWalletRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetAccountByUserID 按用户ID获取钱包账户
func (r *GormWalletRepository) GetAccountByUserID(userID uint) (*models.WalletAccount, error) {
	if userID == 0 {
		return nil, nil
	}
	return findFirst[models.WalletAccount](r.db.Where("user_id = ?", userID))
}

// GetAccountByUserIDForUpdate 按用户ID加锁获取钱包账户
func (r *GormWalletRepository) GetAccountByUserIDForUpdate(userID uint) (*models.WalletAccount, error) {
	if userID == 0 {
		return nil, nil
	}
	return findFirst[models.WalletAccount](forUpdate(r.db).Where("user_id = ?", userID))
}

// CreateAccount 创建钱包账户
func (r *GormWalletRepository) CreateAccount(account *models.WalletAccount) error {
	return r.db.Create(account).Error
}

// UpdateBalance 以变更前余额为条件更新余额，返回影响行数（0 表示余额已被并发修改）
func (r *GormWalletRepository) UpdateBalance(accountID uint, expected, balance models.Money, updatedAt time.Time) (int64, error) {
	result := r.db.Model(&models.WalletAccount{}).
		Where("id = ? AND balance = ?", accountID, expected).
		Updates(map[string]interface{}{
			"balance":    balance,
			"updated_at": updatedAt,
		})
	return result.RowsAffected, result.Error
}

// CreateTransaction 创建钱包流水
func (r *GormWalletRepository) CreateTransaction(txn *models.WalletTransaction) error {
	return r.db.Create(txn).Error
}

// GetTransactionByReference 按参考号获取流水
func (r *GormWalletRepository) GetTransactionByReference(reference string) (*models.WalletTransaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	return findFirst[models.WalletTransaction](r.db.Where("reference = ?", reference))
}

// ListTransactions 分页查询钱包流水
func (r *GormWalletRepository) ListTransactions(filter WalletTransactionListFilter) ([]models.WalletTransaction, int64, error) {
	query := applyWalletTransactionFilter(r.db.Model(&models.WalletTransaction{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var txns []models.WalletTransaction
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// SumTransactions 汇总用户流水的入账与出账总额
func (r *GormWalletRepository) SumTransactions(userID uint) (decimal.Decimal, decimal.Decimal, error) {
	var txns []models.WalletTransaction
	if err := r.db.Select("direction", "amount").Where("user_id = ?", userID).Find(&txns).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	in, out := decimal.Zero, decimal.Zero
	for _, txn := range txns {
		switch txn.Direction {
		case constants.WalletTxnDirectionIn:
			in = in.Add(txn.Amount.Decimal)
		case constants.WalletTxnDirectionOut:
			out = out.Add(txn.Amount.Decimal)
		}
	}
	return in.Round(2), out.Round(2), nil
}

func applyWalletTransactionFilter(query *gorm.DB, filter WalletTransactionListFilter) *gorm.DB {
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Direction != "" {
		query = query.Where("direction = ?", filter.Direction)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	return query
}

// walletctl 钱包运维命令：人工充值与余额核对
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/jixie-rent/server/internal/config"
	"github.com/jixie-rent/server/internal/logger"
	"github.com/jixie-rent/server/internal/models"
	"github.com/jixie-rent/server/internal/provider"
	"github.com/jixie-rent/server/internal/service"

	"github.com/joho/godotenv"
)

const usage = `用法:
  walletctl recharge -user <id> -amount <元> [-no <充值单号>] [-remark <备注>]
  walletctl reconcile -user <id>`

var errUsage = errors.New("invalid usage")

// walletOps 命令依赖的钱包能力
type walletOps interface {
	Recharge(input service.WalletRechargeInput) (*service.WalletRechargeResult, error)
	Reconcile(userID uint) (*service.WalletReconcileResult, error)
}

func main() {
	os.Exit(realMain())
}

func realMain() int {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "警告: 读取 .env 失败: %v\n", err)
	}
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer func() { _ = logger.Z().Sync() }()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.Pool.ToDBPoolConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "walletctl: 数据库初始化失败: %v\n", err)
		return 1
	}
	if err := models.AutoMigrate(); err != nil {
		fmt.Fprintf(os.Stderr, "walletctl: 数据库迁移失败: %v\n", err)
		return 1
	}
	container, err := provider.NewContainer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "walletctl: 依赖初始化失败: %v\n", err)
		return 1
	}
	defer func() { _ = container.Close() }()

	return exitCode(run(os.Args[1:], container.WalletService, os.Stdout), os.Stderr)
}

// exitCode 将命令结果映射为进程退出码：0 成功，1 执行失败，2 用法错误
func exitCode(err error, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintln(stderr, usage)
		return 2
	default:
		fmt.Fprintf(stderr, "walletctl: %v\n", err)
		return 1
	}
}

func run(args []string, wallet walletOps, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "recharge":
		return runRecharge(args[1:], wallet, out)
	case "reconcile":
		return runReconcile(args[1:], wallet, out)
	default:
		return errUsage
	}
}

func runRecharge(args []string, wallet walletOps, out io.Writer) error {
	fs := flag.NewFlagSet("recharge", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	userID := fs.Uint("user", 0, "用户ID")
	rawAmount := fs.String("amount", "", "充值金额（元）")
	rechargeNo := fs.String("no", "", "充值单号")
	remark := fs.String("remark", "", "备注")
	if err := fs.Parse(args); err != nil || *userID == 0 || *rawAmount == "" {
		return errUsage
	}
	amount, err := models.ParseMoney(*rawAmount)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}
	result, err := wallet.Recharge(service.WalletRechargeInput{
		UserID:     *userID,
		Amount:     amount,
		Remark:     *remark,
		RechargeNo: *rechargeNo,
	})
	if err != nil {
		return err
	}
	logger.Infow("walletctl_recharge", "user_id", *userID, "amount", amount.String(), "bonus", result.Bonus.String())
	return writeJSON(out, map[string]interface{}{
		"user_id": *userID,
		"balance": result.Account.Balance,
		"bonus":   result.Bonus,
		"entries": len(result.Transactions),
	})
}

func runReconcile(args []string, wallet walletOps, out io.Writer) error {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	userID := fs.Uint("user", 0, "用户ID")
	if err := fs.Parse(args); err != nil || *userID == 0 {
		return errUsage
	}
	result, err := wallet.Reconcile(*userID)
	if err != nil {
		return err
	}
	if !result.Consistent {
		logger.Warnw("walletctl_reconcile_mismatch", "user_id", *userID, "balance", result.Balance.String(), "ledger_sum", result.LedgerSum.String())
	}
	return writeJSON(out, result)
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

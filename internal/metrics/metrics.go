package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PromotionOrdersCreated 推广订单创建数
	PromotionOrdersCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jixie",
		Subsystem: "promotion",
		Name:      "orders_created_total",
		Help:      "Promotion orders created, by tier and region scope.",
	}, []string{"tier", "scope"})

	// PromotionOrdersPaid 推广订单支付成功数
	PromotionOrdersPaid = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jixie",
		Subsystem: "promotion",
		Name:      "orders_paid_total",
		Help:      "Promotion orders paid, by payment method.",
	}, []string{"method"})

	// PromotionOrdersRefunded 推广订单退款数
	PromotionOrdersRefunded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "jixie",
		Subsystem: "promotion",
		Name:      "orders_refunded_total",
		Help:      "Promotion orders refunded.",
	})

	// PromotionOrdersCancelled 超时取消数
	PromotionOrdersCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "jixie",
		Subsystem: "promotion",
		Name:      "orders_cancelled_total",
		Help:      "Pending promotion orders cancelled after timeout.",
	})

	// GatewayCallbacks 第三方回调处理结果
	GatewayCallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jixie",
		Subsystem: "promotion",
		Name:      "gateway_callbacks_total",
		Help:      "Gateway callbacks handled, by method and outcome.",
	}, []string{"method", "outcome"})

	// SweepDemotions 到期扫描降级数
	SweepDemotions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "jixie",
		Subsystem: "promotion",
		Name:      "sweep_demotions_total",
		Help:      "Listings demoted by the expiry sweep.",
	})

	// SweepRuns 到期扫描执行次数
	SweepRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jixie",
		Subsystem: "promotion",
		Name:      "sweep_runs_total",
		Help:      "Expiry sweep runs, by result.",
	}, []string{"result"})

	// WalletEntries 钱包流水写入数
	WalletEntries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jixie",
		Subsystem: "wallet",
		Name:      "entries_total",
		Help:      "Wallet ledger entries appended, by type and direction.",
	}, []string{"type", "direction"})
)

// 回调处理结果
const (
	OutcomeProcessed        = "processed"
	OutcomeDuplicate        = "duplicate"
	OutcomeInvalid          = "invalid"
	OutcomeSignatureInvalid = "signature_invalid"
	OutcomeAmountMismatch   = "amount_mismatch"
	OutcomeNotFound         = "not_found"
	OutcomeError            = "error"
)

// Collectors 全部业务指标
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		PromotionOrdersCreated,
		PromotionOrdersPaid,
		PromotionOrdersRefunded,
		PromotionOrdersCancelled,
		GatewayCallbacks,
		SweepDemotions,
		SweepRuns,
		WalletEntries,
	}
}

// Register 注册业务指标，重复注册时忽略
func Register(registerer prometheus.Registerer) error {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	for _, collector := range Collectors() {
		if err := registerer.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

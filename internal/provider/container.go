package provider

import (
	"errors"
	"fmt"

	"github.com/jixie-rent/server/internal/cache"
	"github.com/jixie-rent/server/internal/config"
	"github.com/jixie-rent/server/internal/logger"
	"github.com/jixie-rent/server/internal/models"
	"github.com/jixie-rent/server/internal/payment"
	"github.com/jixie-rent/server/internal/payment/alipay"
	"github.com/jixie-rent/server/internal/payment/wechatpay"
	"github.com/jixie-rent/server/internal/pricing"
	"github.com/jixie-rent/server/internal/queue"
	"github.com/jixie-rent/server/internal/repository"
	"github.com/jixie-rent/server/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client
	Gateways    *payment.Registry

	// Repositories
	ListingRepo        repository.ListingRepository
	PromotionOrderRepo repository.PromotionOrderRepository
	WalletRepo         repository.WalletRepository
	NotificationRepo   repository.NotificationRepository

	// Services
	WalletService          *service.WalletService
	NotificationService    *service.NotificationService
	PromotionOrderService  *service.PromotionOrderService
	PromotionExpiryService *service.PromotionExpiryService
	ListingSearchService   *service.ListingSearchService
}

// NewContainer 初始化容器，价格表或已启用的支付配置无效时返回错误
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	table, err := cfg.Promotion.PricingTable()
	if err != nil {
		return nil, err
	}
	bonusTable, err := cfg.Wallet.BonusTable()
	if err != nil {
		return nil, err
	}
	gateways, err := buildGateways(cfg.Promotion.Gateway)
	if err != nil {
		return nil, err
	}
	logger.Infow("provider_payment_gateways", "methods", gateways.Methods())

	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient = nil
	}

	c := &Container{
		Config:      cfg,
		DB:          models.DB,
		QueueClient: queueClient,
		Gateways:    gateways,
	}
	c.initRepositories()
	c.initServices(table, bonusTable)
	return c, nil
}

func (c *Container) initRepositories() {
	db := c.DB
	c.ListingRepo = repository.NewListingRepository(db)
	c.PromotionOrderRepo = repository.NewPromotionOrderRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
}

func (c *Container) initServices(table pricing.Table, bonusTable pricing.BonusTable) {
	c.WalletService = service.NewWalletService(c.WalletRepo, bonusTable)
	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.QueueClient, service.LogNotificationSink{})
	c.PromotionOrderService = service.NewPromotionOrderService(
		c.PromotionOrderRepo,
		c.ListingRepo,
		c.WalletService,
		c.NotificationService,
		c.Gateways,
		table,
		c.QueueClient,
		c.Config.Promotion.PendingOrderTTLMinutes,
	)
	c.PromotionExpiryService = service.NewPromotionExpiryService(c.DB, c.ListingRepo, c.NotificationService, c.Config.Promotion.SweepBatchSize)
	c.ListingSearchService = service.NewListingSearchService(c.ListingRepo)
}

func buildGateways(cfg config.GatewayConfig) (*payment.Registry, error) {
	gateways := make([]payment.Gateway, 0, 2)
	if cfg.Alipay.Enabled {
		gw, err := alipay.New(alipay.Config{
			AppID:           cfg.Alipay.AppID,
			AlipayPublicKey: cfg.Alipay.PublicKey,
			GatewayURL:      cfg.Alipay.Gateway,
			NotifyURL:       cfg.Alipay.NotifyURL,
			SignType:        cfg.Alipay.SignType,
		})
		if err != nil {
			return nil, fmt.Errorf("init alipay gateway: %w", err)
		}
		gateways = append(gateways, gw)
	}
	if cfg.Wechat.Enabled {
		gw, err := wechatpay.New(wechatpay.Config{
			MerchantID:  cfg.Wechat.MchID,
			PublicKeyID: cfg.Wechat.PublicKeyID,
			PublicKey:   cfg.Wechat.PublicKey,
			CodeURLBase: cfg.Wechat.CodeURLBase,
			NotifyURL:   cfg.Wechat.NotifyURL,
		})
		if err != nil {
			return nil, fmt.Errorf("init wechat gateway: %w", err)
		}
		gateways = append(gateways, gw)
	}
	return payment.NewRegistry(gateways...), nil
}

// Close 释放队列客户端与缓存连接
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close queue client: %w", err))
		}
	}
	if err := cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close redis: %w", err))
	}
	return errors.Join(errs...)
}

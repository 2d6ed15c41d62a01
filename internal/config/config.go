package config

import (
	"fmt"
	"strings"

	"github.com/jixie-rent/server/internal/logger"
	"github.com/jixie-rent/server/internal/models"
	"github.com/jixie-rent/server/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	UserJWT   JWTConfig       `mapstructure:"user_jwt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Queue     QueueConfig     `mapstructure:"queue"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Promotion PromotionConfig `mapstructure:"promotion"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host           string `mapstructure:"host"`
	Port           string `mapstructure:"port"`
	Mode           string `mapstructure:"mode"` // debug / release
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Level      string `mapstructure:"level"`  // 为空时 debug 模式为 debug，其余为 info
	Stdout     bool   `mapstructure:"stdout"` // release 模式下同时输出到标准输出
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
		Level:      c.Level,
		Stdout:     c.Stdout,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// ToDBPoolConfig 转换为 models 连接池配置
func (c DatabasePoolConfig) ToDBPoolConfig() models.DBPoolConfig {
	return models.DBPoolConfig{
		MaxOpenConns:           c.MaxOpenConns,
		MaxIdleConns:           c.MaxIdleConns,
		ConnMaxLifetimeSeconds: c.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: c.ConnMaxIdleTimeSeconds,
	}
}

// JWTConfig JWT 配置（签发由认证模块负责，这里只校验）
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// RateLimitConfig 接口限流配置
type RateLimitConfig struct {
	Callback RateLimitRuleConfig `mapstructure:"callback"`
}

// RateLimitRuleConfig 单条限流规则
type RateLimitRuleConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// PromotionConfig 推广配置
type PromotionConfig struct {
	Pricing                PromotionPricingConfig `mapstructure:"pricing"`
	SweepIntervalMinutes   int                    `mapstructure:"sweep_interval_minutes"`
	SweepBatchSize         int                    `mapstructure:"sweep_batch_size"`
	PendingOrderTTLMinutes int                    `mapstructure:"pending_order_ttl_minutes"`
	Gateway                GatewayConfig          `mapstructure:"gateway"`
}

// PromotionPricingConfig 推广价格表配置（元/月）
type PromotionPricingConfig struct {
	Recommended ScopePriceConfig `mapstructure:"recommended"`
	Top         ScopePriceConfig `mapstructure:"top"`
}

// ScopePriceConfig 各地域范围单价
type ScopePriceConfig struct {
	Province string `mapstructure:"province"`
	City     string `mapstructure:"city"`
	County   string `mapstructure:"county"`
}

// GatewayConfig 第三方支付配置
type GatewayConfig struct {
	Alipay AlipayGatewayConfig `mapstructure:"alipay"`
	Wechat WechatGatewayConfig `mapstructure:"wechat"`
}

// AlipayGatewayConfig 支付宝配置
type AlipayGatewayConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	AppID     string `mapstructure:"app_id"`
	PublicKey string `mapstructure:"public_key"`
	SignType  string `mapstructure:"sign_type"`
	Gateway   string `mapstructure:"gateway"`
	NotifyURL string `mapstructure:"notify_url"`
}

// WechatGatewayConfig 微信支付配置
type WechatGatewayConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MchID       string `mapstructure:"mch_id"`
	PublicKeyID string `mapstructure:"public_key_id"`
	PublicKey   string `mapstructure:"public_key"`
	CodeURLBase string `mapstructure:"code_url_base"`
	NotifyURL   string `mapstructure:"notify_url"`
}

// WalletConfig 钱包配置
type WalletConfig struct {
	RechargeBonus []RechargeBonusConfig `mapstructure:"recharge_bonus"`
}

// RechargeBonusConfig 充值赠送档位
type RechargeBonusConfig struct {
	Threshold string `mapstructure:"threshold"`
	Bonus     string `mapstructure:"bonus"`
}

// PricingTable 构建推广价格表并校验
func (c PromotionConfig) PricingTable() (pricing.Table, error) {
	recommended, err := c.Pricing.Recommended.toScopePrices()
	if err != nil {
		return pricing.Table{}, fmt.Errorf("recommended pricing: %w", err)
	}
	top, err := c.Pricing.Top.toScopePrices()
	if err != nil {
		return pricing.Table{}, fmt.Errorf("top pricing: %w", err)
	}
	table := pricing.NewTable(recommended, top)
	if err := table.Validate(); err != nil {
		return pricing.Table{}, err
	}
	return table, nil
}

func (c ScopePriceConfig) toScopePrices() (pricing.ScopePrices, error) {
	province, err := parseDecimal(c.Province)
	if err != nil {
		return pricing.ScopePrices{}, err
	}
	city, err := parseDecimal(c.City)
	if err != nil {
		return pricing.ScopePrices{}, err
	}
	county, err := parseDecimal(c.County)
	if err != nil {
		return pricing.ScopePrices{}, err
	}
	return pricing.ScopePrices{Province: province, City: city, County: county}, nil
}

// BonusTable 构建充值赠送表
func (c WalletConfig) BonusTable() (pricing.BonusTable, error) {
	tiers := make([]pricing.BonusTier, 0, len(c.RechargeBonus))
	for _, item := range c.RechargeBonus {
		threshold, err := parseDecimal(item.Threshold)
		if err != nil {
			return pricing.BonusTable{}, fmt.Errorf("recharge bonus threshold: %w", err)
		}
		bonus, err := parseDecimal(item.Bonus)
		if err != nil {
			return pricing.BonusTable{}, fmt.Errorf("recharge bonus amount: %w", err)
		}
		tiers = append(tiers, pricing.BonusTier{Threshold: threshold, Bonus: bonus})
	}
	return pricing.NewBonusTable(tiers), nil
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	return decimal.NewFromString(trimmed)
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.metrics_enabled", true)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("log.level", "")
	v.SetDefault("log.stdout", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/jixie.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("user_jwt.secret", "user-change-me-in-production")
	v.SetDefault("user_jwt.expire_hours", 24)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "jx")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Authorization",
		"X-Request-ID",
		"Wechatpay-Serial",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("rate_limit.callback.window_seconds", 60)
	v.SetDefault("rate_limit.callback.max_requests", 120)
	v.SetDefault("promotion.pricing.recommended.province", "500")
	v.SetDefault("promotion.pricing.recommended.city", "200")
	v.SetDefault("promotion.pricing.recommended.county", "100")
	v.SetDefault("promotion.pricing.top.province", "800")
	v.SetDefault("promotion.pricing.top.city", "300")
	v.SetDefault("promotion.pricing.top.county", "150")
	v.SetDefault("promotion.sweep_interval_minutes", 60)
	v.SetDefault("promotion.sweep_batch_size", 100)
	v.SetDefault("promotion.pending_order_ttl_minutes", 0)
	v.SetDefault("promotion.gateway.alipay.enabled", false)
	v.SetDefault("promotion.gateway.alipay.sign_type", "RSA2")
	v.SetDefault("promotion.gateway.alipay.gateway", "https://openapi.alipay.com/gateway.do")
	v.SetDefault("promotion.gateway.wechat.enabled", false)
	v.SetDefault("promotion.gateway.wechat.code_url_base", "weixin://wxpay/bizpayurl")
	v.SetDefault("wallet.recharge_bonus", []map[string]string{
		{"threshold": "500", "bonus": "20"},
		{"threshold": "1000", "bonus": "50"},
		{"threshold": "5000", "bonus": "300"},
	})
}

// Load 从 config.yml 加载配置
func Load() *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")     // 从当前目录查找
	v.AddConfigPath("../")   // 如果从 cmd/server 运行
	v.AddConfigPath("./etc") // etc 文件夹

	setDefaults(v)

	// 环境变量支持（例如 server.port -> SERVER_PORT）
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	cfg, err := decode(v)
	if err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return cfg
}

// LoadDefaults 仅使用默认值构建配置（测试使用）
func LoadDefaults() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

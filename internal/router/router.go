package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jixie-rent/server/internal/cache"
	"github.com/jixie-rent/server/internal/config"
	publichandlers "github.com/jixie-rent/server/internal/http/handlers/public"
	"github.com/jixie-rent/server/internal/http/response"
	"github.com/jixie-rent/server/internal/logger"
	"github.com/jixie-rent/server/internal/metrics"
	"github.com/jixie-rent/server/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "jx"
	}
	callbackRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:promotion_callback", redisPrefix),
		WindowSeconds: cfg.RateLimit.Callback.WindowSeconds,
		MaxRequests:   cfg.RateLimit.Callback.MaxRequests,
		MessageKey:    "error.too_many_requests",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/healthz", healthzHandler(c))
	if cfg.Server.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		if err := metrics.Register(registry); err != nil {
			log.Sugar().Warnw("router_metrics_register_failed", "error", err)
		}
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		apiV1.GET("/listings", publicHandler.SearchListings)
		// 第三方支付回调（无需鉴权，验签后处理）
		apiV1.POST("/promotion-orders/callback/:order_no",
			RateLimitMiddleware(cache.Client(), callbackRule, KeyByIPAndParam("order_no")),
			publicHandler.HandlePromotionCallback,
		)

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey))
		{
			user.POST("/promotion-orders", publicHandler.CreatePromotionOrder)
			user.GET("/promotion-orders", publicHandler.ListPromotionOrders)
			user.GET("/promotion-orders/:id", publicHandler.GetPromotionOrder)
			user.POST("/promotion-orders/:id/pay", publicHandler.PayPromotionOrder)
			user.POST("/promotion-orders/:id/refund", publicHandler.RefundPromotionOrder)
			user.GET("/wallet", publicHandler.GetMyWallet)
			user.GET("/wallet/transactions", publicHandler.GetMyWalletTransactions)
			user.GET("/notifications", publicHandler.ListMyNotifications)
		}
	}

	return r
}

// healthzHandler 检查数据库与 Redis 连通性
func healthzHandler(c *provider.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		checks := gin.H{"database": "ok", "redis": "ok"}
		healthy := true
		if c == nil || c.DB == nil {
			checks["database"] = "missing"
			healthy = false
		} else if sqlDB, err := c.DB.DB(); err != nil || sqlDB.PingContext(reqCtx) != nil {
			checks["database"] = "unreachable"
			healthy = false
		}
		if err := cache.Ping(reqCtx); err != nil {
			checks["redis"] = "unreachable"
			healthy = false
		}
		if !healthy {
			response.ErrorWithData(ctx, response.CodeServiceUnavailable, response.ReasonUnavailable, "服务不可用", checks)
			return
		}
		checks["status"] = "ok"
		response.Success(ctx, checks)
	}
}

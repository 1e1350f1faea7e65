package api

import (
	"context"
	"net/http"
	"time"

	catalogHandler "menu-console/internal/api/handlers/catalog"
	consoleHandler "menu-console/internal/api/handlers/console"
	"menu-console/internal/api/handlers/health"
	"menu-console/internal/api/middleware"
	"menu-console/internal/core/backend"
	"menu-console/internal/core/catalog"
	"menu-console/internal/core/planner"
	"menu-console/internal/core/session"
	"menu-console/internal/infrastructure/config"
	"menu-console/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 超時設置：排程可能跑很久，跟著後端 timeout 再加緩衝
	timeoutSlack = 30 * time.Second
	// 請求體大小限制 (2MB)：最大的請求體是整份設定 JSON
	maxBodySize = 2 << 20
)

// Services 路由需要的服務集合（由 main 組裝）
type Services struct {
	Backend *backend.Client
	Cache   *catalog.Cache
	Store   *session.Store
	Keys    *session.KeyStore
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc *Services) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 創建路由引擎
	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New()) // 自動生成請求 ID

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	timeoutDuration := cfg.Backend.Timeout + timeoutSlack

	// 全局中間件：設置超時與配置
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set("config", cfg)
		c.Set("catalog_status", &health.CatalogStatus{
			Ingredients: len(svc.Cache.Ingredients()),
			Dishes:      len(svc.Cache.Dishes()),
		})

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeRequestTimeout,
			})
			c.Abort()
			return
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	binder := planner.NewBinder(svc.Cache)
	consoleH := consoleHandler.NewHandler(svc.Store, binder, svc.Backend, svc.Cache, svc.Keys)
	catalogH := catalogHandler.NewHandler(svc.Backend, svc.Cache)

	// API 路由組
	api := router.Group("/api/v1")
	{
		// 排程操作台
		consoleGroup := api.Group("/console")
		{
			consoleGroup.GET("/state", consoleH.HandleState)
			consoleGroup.POST("/defaults", consoleH.HandleLoadDefaults)
			consoleGroup.PUT("/form", consoleH.HandleUpdateForm)
			consoleGroup.POST("/chips", consoleH.HandleAddChip)
			consoleGroup.DELETE("/chips", consoleH.HandleRemoveChip)
			consoleGroup.POST("/apply-json", consoleH.HandleApplyJSON)
			consoleGroup.POST("/validate", consoleH.HandleValidate)

			// 長任務掛重複觸發防護，連點只放行一次
			consoleGroup.POST("/plan", middleware.Deduplication(cfg), consoleH.HandlePlan)
			consoleGroup.POST("/export", middleware.Deduplication(cfg), consoleH.HandleExport)

			consoleGroup.GET("/admin-key", consoleH.HandleGetAdminKey)
			consoleGroup.PUT("/admin-key", consoleH.HandleSetAdminKey)
			consoleGroup.DELETE("/admin-key", consoleH.HandleClearAdminKey)
		}

		// 目錄維護
		catalogGroup := api.Group("/catalog")
		{
			catalogGroup.POST("/reload", catalogH.HandleReload)

			catalogGroup.GET("/ingredients", catalogH.HandleListIngredients)
			catalogGroup.GET("/ingredients/suggest", catalogH.HandleSuggestIngredients)
			catalogGroup.POST("/ingredients", catalogH.HandleUpsertIngredient)
			catalogGroup.DELETE("/ingredients/:id", catalogH.HandleDeleteIngredient)
			catalogGroup.GET("/ingredients/:id/detail", catalogH.HandleIngredientDetail)
			catalogGroup.PUT("/ingredients/:id/prices", catalogH.HandleSavePrices)
			catalogGroup.DELETE("/ingredients/:id/prices/:date", catalogH.HandleDeletePrice)
			catalogGroup.PUT("/ingredients/:id/inventory", catalogH.HandleSaveInventory)

			catalogGroup.GET("/dishes", catalogH.HandleListDishes)
			catalogGroup.GET("/dishes/suggest", catalogH.HandleSuggestDishes)
			catalogGroup.POST("/dishes", catalogH.HandleUpsertDish)
			catalogGroup.DELETE("/dishes/:id", catalogH.HandleDeleteDish)
			catalogGroup.GET("/dishes/:id/composition", catalogH.HandleGetComposition)
			catalogGroup.PUT("/dishes/:id/composition", catalogH.HandleSaveComposition)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menu-console/internal/api"
	"menu-console/internal/core/backend"
	"menu-console/internal/core/catalog"
	"menu-console/internal/core/planner"
	"menu-console/internal/core/session"
	"menu-console/internal/infrastructure/config"
	"menu-console/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	// 使用 logger 記錄啟動信息
	common.LogInfo("載入設定",
		zap.String("backend_url", cfg.Backend.BaseURL),
		zap.Duration("backend_timeout", cfg.Backend.Timeout),
		zap.Bool("keystore_enabled", cfg.Keystore.Enabled),
	)

	// 初始化金鑰儲存槽
	keys, err := session.NewKeyStore(&cfg.Keystore, cfg.Backend.AdminKey)
	if err != nil {
		common.LogFatal("Failed to initialize keystore", zap.Error(err))
	}
	defer keys.Close()

	// 初始化後端 client 與目錄快照
	client := backend.NewClient(&cfg.Backend, keys)
	cache := catalog.NewCache()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), cfg.Backend.Timeout)
	defer cancelStartup()

	// 目錄載不進來不擋啟動，操作者之後可手動重載
	if err := cache.Load(startupCtx, client); err != nil {
		common.LogWarn("啟動時目錄載入失敗，稍後可重載", zap.Error(err))
	}

	// 操作台狀態：啟動時先試著帶入後端預設設定
	store := session.NewStore()
	if defaults, err := client.DefaultConfig(startupCtx); err != nil {
		common.LogWarn("啟動時無法取得預設設定", zap.Error(err))
	} else {
		binder := planner.NewBinder(cache)
		form := binder.ToForm(defaults)
		if _, text, err := binder.SyncText(defaults, form); err != nil {
			common.LogWarn("預設設定序列化失敗", zap.Error(err))
		} else {
			store.ReplaceConfig(defaults, form, text)
		}
	}

	// 設置路由
	router, err := api.SetupRouter(cfg, &api.Services{
		Backend: client,
		Cache:   cache,
		Store:   store,
		Keys:    keys,
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}

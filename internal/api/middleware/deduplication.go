package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"menu-console/internal/infrastructure/config"
	"menu-console/internal/pkg/common"
)

// dedupEntry 單一請求指紋的狀態：執行中、或已完成於 done 時間
type dedupEntry struct {
	inFlight bool
	done     time.Time
}

var (
	// 請求緩存，用於去重
	requestCache = struct {
		sync.Mutex
		requests map[string]*dedupEntry
	}{
		requests: make(map[string]*dedupEntry),
	}

	// 啟動自動清理 goroutine（只啟動一次）
	cleanupOnce sync.Once
)

// 啟動自動清理 goroutine
func startDeduplicationCleanup(cfg *config.Config) {
	cleanupOnce.Do(func() {
		interval := 10 * time.Minute
		window := 1 * time.Second
		if cfg != nil && cfg.DedupWindow > 0 {
			window = cfg.DedupWindow
		}
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for range ticker.C {
				now := time.Now()
				requestCache.Lock()
				for k, e := range requestCache.requests {
					if !e.inFlight && now.Sub(e.done) > 10*window {
						delete(requestCache.requests, k)
					}
				}
				requestCache.Unlock()
			}
		}()
	})
}

// Deduplication 重複觸發防護：同一路徑同一請求體，前一次還在執行中、
// 或完成後還在視窗內，就擋下。掛在排程與匯出路由上，排程可能跑到
// 後端 timeout 那麼久，所以「執行中」不受視窗長度限制。
func Deduplication(cfg *config.Config) gin.HandlerFunc {
	startDeduplicationCleanup(cfg)
	return func(c *gin.Context) {
		dedupWindow := 1 * time.Second
		if cfg != nil && cfg.DedupWindow > 0 {
			dedupWindow = cfg.DedupWindow
		}

		// 只處理 POST 請求
		if c.Request.Method != "POST" {
			c.Next()
			return
		}

		// 計算請求體哈希
		bodyHash := ""
		if c.Request.Body != nil {
			// 讀取請求體
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				c.Next()
				return
			}

			// 計算哈希
			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		// 生成請求指紋
		fingerprint := c.Request.Method + ":" + c.Request.URL.Path
		if bodyHash != "" {
			fingerprint += ":" + bodyHash
		}

		// 檢查是否是重複請求並標記執行中（同一把鎖下完成，避免兩個請求都放行）
		requestCache.Lock()
		if e, exists := requestCache.requests[fingerprint]; exists {
			if e.inFlight || time.Since(e.done) <= dedupWindow {
				requestCache.Unlock()
				c.JSON(429, gin.H{
					"error": "排程進行中，請稍候再試。",
					"code":  common.ErrCodeTooManyRequests,
				})
				c.Abort()
				return
			}
		}
		entry := &dedupEntry{inFlight: true}
		requestCache.requests[fingerprint] = entry
		requestCache.Unlock()

		// 處理結束（含 panic 被外層攔下）才開始計算視窗
		defer func() {
			requestCache.Lock()
			entry.inFlight = false
			entry.done = time.Now()
			requestCache.Unlock()
		}()

		c.Next()
	}
}

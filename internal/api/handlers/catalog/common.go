// Package catalog 目錄維護相關的 HTTP 處理程序：食材與菜色主檔、
// 菜色組成、價格與庫存。所有寫入都直接打到後端，成功後整批重載快照。
package catalog

import (
	"net/http"
	"strings"

	"menu-console/internal/core/backend"
	corecatalog "menu-console/internal/core/catalog"
	"menu-console/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler 目錄處理程序
type Handler struct {
	backend *backend.Client
	cache   *corecatalog.Cache
}

// NewHandler 創建目錄處理程序
func NewHandler(client *backend.Client, cache *corecatalog.Cache) *Handler {
	return &Handler{
		backend: client,
		cache:   cache,
	}
}

// genID 產生目錄實體 id（操作者未填 id 時使用）
func genID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

// writeError 統一的錯誤回應：本地驗證錯誤回 400，
// 後端錯誤依其狀態碼轉發，其餘回 500。
func writeError(c *gin.Context, err error) {
	if common.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}
	if ce, ok := err.(*common.CustomError); ok {
		status := ce.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"error": ce.Message,
			"code":  ce.Code,
		})
		return
	}

	common.LogError("目錄操作失敗", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": err.Error(),
		"code":  common.ErrCodeInternalError,
	})
}

// reload 目錄異動後重載快照；失敗時只記 log，寫入本身已成功
func (h *Handler) reload(c *gin.Context) {
	if err := h.cache.Load(c.Request.Context(), h.backend); err != nil {
		common.LogWarn("目錄重載失敗", zap.Error(err))
	}
}

// HandleReload 手動重載目錄快照
func (h *Handler) HandleReload(c *gin.Context) {
	if err := h.cache.Load(c.Request.Context(), h.backend); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ingredients": len(h.cache.Ingredients()),
		"dishes":      len(h.cache.Dishes()),
	})
}

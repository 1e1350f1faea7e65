package console

import (
	"net/http"
	"strings"

	"menu-console/internal/infrastructure/config"
	"menu-console/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminKeyRequest 設定管理金鑰
type AdminKeyRequest struct {
	Key string `json:"key"`
}

// HandleGetAdminKey 回報金鑰是否已設定；內容只給遮罩版本
func (h *Handler) HandleGetAdminKey(c *gin.Context) {
	key, err := h.keys.Get(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := gin.H{"configured": key != ""}
	if key != "" {
		out["masked"] = config.MaskKey(key)
	}
	c.JSON(http.StatusOK, out)
}

// HandleSetAdminKey 儲存管理金鑰
func (h *Handler) HandleSetAdminKey(c *gin.Context) {
	var req AdminKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	key := strings.TrimSpace(req.Key)
	if key == "" {
		writeError(c, common.NewValidationError("金鑰不可為空。"))
		return
	}

	if err := h.keys.Set(c.Request.Context(), key); err != nil {
		writeError(c, err)
		return
	}

	common.LogInfo("管理金鑰已更新")
	c.JSON(http.StatusOK, gin.H{"configured": true, "masked": config.MaskKey(key)})
}

// HandleClearAdminKey 清除管理金鑰
func (h *Handler) HandleClearAdminKey(c *gin.Context) {
	if err := h.keys.Clear(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configured": false})
}

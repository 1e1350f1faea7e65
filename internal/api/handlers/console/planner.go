// Package console 排程操作台的 HTTP 處理程序：表單狀態、設定文字、
// 驗證、排程與匯出。設定物件只有一份，表單與 JSON 文字是它的兩種表現。
package console

import (
	"net/http"
	"strings"

	"menu-console/internal/core/backend"
	"menu-console/internal/core/catalog"
	"menu-console/internal/core/planner"
	"menu-console/internal/core/session"
	"menu-console/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 操作台處理程序
type Handler struct {
	store   *session.Store
	binder  *planner.Binder
	backend *backend.Client
	cache   *catalog.Cache
	keys    *session.KeyStore
}

// NewHandler 創建操作台處理程序
func NewHandler(store *session.Store, binder *planner.Binder, client *backend.Client, cache *catalog.Cache, keys *session.KeyStore) *Handler {
	return &Handler{
		store:   store,
		binder:  binder,
		backend: client,
		cache:   cache,
		keys:    keys,
	}
}

// stateResponse 操作台目前的完整狀態
func (h *Handler) stateResponse() gin.H {
	result, hasResult := h.store.LastResult()
	out := gin.H{
		"form":        h.store.Form(),
		"config_text": h.store.Text(),
		"has_result":  hasResult,
	}
	if hasResult {
		out["result"] = result
	}
	return out
}

// HandleState 取得操作台狀態（表單、設定文字、上一次結果）
func (h *Handler) HandleState(c *gin.Context) {
	c.JSON(http.StatusOK, h.stateResponse())
}

// HandleLoadDefaults 從後端載入預設設定並整份替換操作台狀態
func (h *Handler) HandleLoadDefaults(c *gin.Context) {
	defer h.store.BeginCommand()()

	defaults, err := h.backend.DefaultConfig(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	form := h.binder.ToForm(defaults)
	_, text, err := h.binder.SyncText(defaults, form)
	if err != nil {
		writeError(c, err)
		return
	}

	h.store.ReplaceConfig(defaults, form, text)
	common.LogInfo("已載入預設設定")
	c.JSON(http.StatusOK, h.stateResponse())
}

// FormUpdateRequest 表單欄位更新請求。chips 不在這裡改，
// 走 /chips 端點過解析。
type FormUpdateRequest struct {
	HorizonDays        int             `json:"horizon_days"`
	CostMin            float64         `json:"cost_min"`
	CostMax            float64         `json:"cost_max"`
	MeatTypes          map[string]bool `json:"meat_types"`
	NoConsecutiveMeat  bool            `json:"no_consecutive_same_main_meat"`
	WeeklyQuota        map[string]int  `json:"weekly_max_main_meat"`
	PreferUseInventory bool            `json:"prefer_use_inventory"`
	PreferNearExpiry   bool            `json:"prefer_near_expiry"`
}

// HandleUpdateForm 更新表單控制項並重新同步設定文字
func (h *Handler) HandleUpdateForm(c *gin.Context) {
	var req FormUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	defer h.store.BeginCommand()()
	base, form := h.store.Snapshot()

	form.HorizonDays = req.HorizonDays
	form.CostMin = req.CostMin
	form.CostMax = req.CostMax
	form.NoConsecutiveMeat = req.NoConsecutiveMeat
	form.PreferUseInventory = req.PreferUseInventory
	form.PreferNearExpiry = req.PreferNearExpiry
	for _, m := range planner.MeatTypes {
		if v, ok := req.MeatTypes[m]; ok {
			form.MeatTypes[m] = v
		}
		if q, ok := req.WeeklyQuota[m]; ok {
			form.WeeklyQuota[m] = q
		}
	}

	h.syncAndRespond(c, base, form)
}

// ChipAddRequest chip 新增請求；text 為操作者的自由文字輸入
type ChipAddRequest struct {
	Field string `json:"field"` // preferred_ingredients / excluded_dishes
	Text  string `json:"text"`
}

// HandleAddChip 解析自由文字並加入對應 chip 清單。
// 解析失敗一律擋下，不硬塞未知 id。
func (h *Handler) HandleAddChip(c *gin.Context) {
	var req ChipAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	defer h.store.BeginCommand()()
	base, form := h.store.Snapshot()

	switch req.Field {
	case "preferred_ingredients":
		id, ok := h.cache.Resolve(req.Text, catalog.KindIngredient)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "找不到符合的食材，請從提示清單選或直接輸入正確 ID。",
				"code":  common.ErrCodeUnresolvedEntity,
			})
			return
		}
		form.PreferredIngredients.Add(id, h.cache.IngredientChipLabel(id))
	case "excluded_dishes":
		id, ok := h.cache.Resolve(req.Text, catalog.KindDish)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "找不到符合的菜色，請從提示清單選或直接輸入正確 ID。",
				"code":  common.ErrCodeUnresolvedEntity,
			})
			return
		}
		form.ExcludedDishes.Add(id, h.cache.DishChipLabel(id))
	default:
		writeError(c, common.NewValidationError("未知的 chip 欄位。"))
		return
	}

	h.syncAndRespond(c, base, form)
}

// HandleRemoveChip 自 chip 清單移除一筆（field/id 走查詢參數）
func (h *Handler) HandleRemoveChip(c *gin.Context) {
	field := c.Query("field")
	id := c.Query("id")
	if id == "" {
		writeError(c, common.NewValidationError("缺少 chip id。"))
		return
	}

	defer h.store.BeginCommand()()
	base, form := h.store.Snapshot()

	switch field {
	case "preferred_ingredients":
		form.PreferredIngredients.Remove(id)
	case "excluded_dishes":
		form.ExcludedDishes.Remove(id)
	default:
		writeError(c, common.NewValidationError("未知的 chip 欄位。"))
		return
	}

	h.syncAndRespond(c, base, form)
}

// ApplyJSONRequest 手動編輯的設定文字
type ApplyJSONRequest struct {
	Text string `json:"text"`
}

// HandleApplyJSON 操作者明確套用手動編輯的 JSON：
// 成功時貼上的設定整份成為新的基準，表單完整重建；失敗時狀態不動。
func (h *Handler) HandleApplyJSON(c *gin.Context) {
	var req ApplyJSONRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	defer h.store.BeginCommand()()

	cfg, form, err := h.binder.ApplyJSONToForm(req.Text)
	if err != nil {
		writeError(c, err)
		return
	}

	_, text, err := h.binder.SyncText(cfg, form)
	if err != nil {
		writeError(c, err)
		return
	}

	h.store.ReplaceConfig(cfg, form, text)
	c.JSON(http.StatusOK, h.stateResponse())
}

// HandleValidate 把目前設定送後端驗證
func (h *Handler) HandleValidate(c *gin.Context) {
	base, form := h.store.Snapshot()
	cfg := h.binder.FromForm(base, form)

	result, err := h.backend.ValidateConfig(c.Request.Context(), cfg)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandlePlan 執行排程。設定必須先通過後端驗證，沒過就不會送排程；
// 成功後結果與當下設定一起保存，供匯出重用。
func (h *Handler) HandlePlan(c *gin.Context) {
	defer h.store.BeginCommand()()

	base, form := h.store.Snapshot()
	cfg, text, err := h.binder.SyncText(base, form)
	if err != nil {
		writeError(c, err)
		return
	}
	h.store.SetText(text)

	// 驗證沒過的設定絕不送排程
	vres, err := h.backend.ValidateConfig(c.Request.Context(), cfg)
	if err != nil {
		writeError(c, err)
		return
	}
	if !vres.OK {
		h.store.ClearResult()
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "驗證失敗：\n- " + strings.Join(vres.Errors, "\n- "),
			"code":   common.ErrCodeInvalidRequest,
			"errors": vres.Errors,
		})
		return
	}

	// 上一次結果先丟棄，不留混用空間
	h.store.ClearResult()

	resp, err := h.backend.Plan(c.Request.Context(), cfg)
	if err != nil {
		writeError(c, err)
		return
	}

	if !resp.OK || resp.Result == nil {
		common.LogWarn("排程失敗", zap.Int("錯誤數", len(resp.Errors)))
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"ok":         false,
			"code":       common.ErrCodePlanFailed,
			"errors":     resp.Errors,
			"error_text": planner.FormatErrors(resp.Errors),
			"trace":      planner.ErrorTraceText(resp.Errors),
		})
		return
	}

	render := planner.Render(resp.Result)
	h.store.SetResult(cfg, render)

	c.JSON(http.StatusOK, gin.H{
		"ok":     true,
		"result": render,
	})
}

// HandleExport 匯出 Excel。必須已有排程結果（匯出鈕的啟用條件）；
// 匯出前先把目前表單重新同步成設定，排程後又改過表單也匯出最新那份。
func (h *Handler) HandleExport(c *gin.Context) {
	defer h.store.BeginCommand()()

	if !h.store.HasResult() {
		c.JSON(http.StatusConflict, gin.H{
			"error": "請先產生菜單。",
			"code":  common.ErrCodeConflict,
		})
		return
	}

	base, form := h.store.Snapshot()
	cfg, text, err := h.binder.SyncText(base, form)
	if err != nil {
		writeError(c, err)
		return
	}
	h.store.SetText(text)

	data, filename, err := h.backend.ExportExcel(c.Request.Context(), cfg)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// syncAndRespond 表單異動後的固定收尾：重建設定文字、
// 提交工作拷貝並回傳最新狀態
func (h *Handler) syncAndRespond(c *gin.Context, base planner.Configuration, form *planner.FormState) {
	_, text, err := h.binder.SyncText(base, form)
	if err != nil {
		writeError(c, err)
		return
	}
	h.store.SetForm(form, text)
	c.JSON(http.StatusOK, gin.H{
		"form":        form,
		"config_text": text,
	})
}

// writeError 統一的錯誤回應（與目錄處理程序相同的分類）
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

	common.LogError("操作台請求失敗", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": err.Error(),
		"code":  common.ErrCodeInternalError,
	})
}

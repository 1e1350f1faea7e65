package catalog

import (
	"net/http"
	"strconv"
	"strings"

	corecatalog "menu-console/internal/core/catalog"
	"menu-console/internal/core/editor"
	"menu-console/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IngredientUpsertRequest 食材新增/修改請求；id 留空時自動產生
type IngredientUpsertRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	ProteinGroup string `json:"protein_group"`
	DefaultUnit  string `json:"default_unit"`
}

// HandleListIngredients 列出食材（q 為 id/名稱子字串過濾）
func (h *Handler) HandleListIngredients(c *gin.Context) {
	items := h.cache.SearchIngredients(c.Query("q"))

	type entry struct {
		corecatalog.Ingredient
		Label string `json:"label"`
	}
	out := make([]entry, 0, len(items))
	for _, x := range items {
		out = append(out, entry{Ingredient: x, Label: corecatalog.IngredientLabel(x)})
	}
	c.JSON(http.StatusOK, out)
}

// HandleSuggestIngredients 食材自動完成候選
func (h *Handler) HandleSuggestIngredients(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	out := h.cache.SuggestIngredients(c.Query("q"), limit)
	if out == nil {
		out = []corecatalog.Suggestion{}
	}
	c.JSON(http.StatusOK, out)
}

// HandleUpsertIngredient 新增或修改食材
func (h *Handler) HandleUpsertIngredient(c *gin.Context) {
	var req IngredientUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	ing := corecatalog.Ingredient{
		ID:           strings.TrimSpace(req.ID),
		Name:         strings.TrimSpace(req.Name),
		Category:     strings.TrimSpace(req.Category),
		ProteinGroup: strings.TrimSpace(req.ProteinGroup),
		DefaultUnit:  strings.TrimSpace(req.DefaultUnit),
	}
	if ing.Name == "" || ing.Category == "" || ing.DefaultUnit == "" {
		writeError(c, common.NewValidationError("食材：名稱 / 分類 / 預設單位 為必填。"))
		return
	}
	if ing.ID == "" {
		ing.ID = genID("ing")
	}

	if err := h.backend.UpsertIngredient(c.Request.Context(), ing); err != nil {
		writeError(c, err)
		return
	}
	h.reload(c)

	// 自動產生的 id 回填給操作者
	c.JSON(http.StatusOK, gin.H{"id": ing.ID})
}

// HandleDeleteIngredient 刪除食材
func (h *Handler) HandleDeleteIngredient(c *gin.Context) {
	id := c.Param("id")
	if err := h.backend.DeleteIngredient(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	h.reload(c)
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// HandleIngredientDetail 價格與庫存編輯面板的初始內容：
// 庫存可能不存在（回 null），價格取最近 30 筆並轉為由舊到新的編輯列。
func (h *Handler) HandleIngredientDetail(c *gin.Context) {
	id := c.Param("id")
	ing, ok := h.cache.Ingredient(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "食材不存在",
			"code":  common.ErrCodeNotFound,
		})
		return
	}

	inv, err := h.backend.GetInventory(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	prices, err := h.backend.ListPrices(c.Request.Context(), id, 30)
	if err != nil {
		writeError(c, err)
		return
	}

	e := corecatalog.NewPriceEditor(prices, ing.DefaultUnit)
	c.JSON(http.StatusOK, gin.H{
		"ingredient": ing,
		"label":      corecatalog.IngredientLabel(ing),
		"inventory":  inv,
		"price_rows": e.Rows(),
	})
}

// PriceSaveRequest 價格儲存請求：整批列，逐列 upsert
type PriceSaveRequest struct {
	Rows []corecatalog.PriceRow `json:"rows"`
}

// HandleSavePrices 儲存價格列。身分（日期）缺失的列擋下儲存，
// 單價/單位沒填好的列靜默略過；全部略過時要求至少一筆有效。
func (h *Handler) HandleSavePrices(c *gin.Context) {
	id := c.Param("id")

	var req PriceSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	e := editor.New(corecatalog.PriceSpec)
	for _, r := range req.Rows {
		e.AddRow(r)
	}

	res := e.Collect()
	if len(res.Problems) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "有價格列缺少日期，請補上後再儲存。",
			"code":     common.ErrCodeInvalidRequest,
			"problems": res.Problems,
		})
		return
	}
	if len(res.Rows) == 0 {
		writeError(c, common.NewValidationError("請至少填一筆有效價格（日期/單價/單位）。"))
		return
	}

	for _, r := range res.Rows {
		rec := corecatalog.PriceRecord{
			PriceDate:    strings.TrimSpace(r.PriceDate),
			PricePerUnit: r.PricePerUnit,
			Unit:         strings.TrimSpace(r.Unit),
		}
		if err := h.backend.UpsertPrice(c.Request.Context(), id, rec); err != nil {
			writeError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"saved": len(res.Rows)})
}

// HandleDeletePrice 刪除某日價格（立即生效，不等儲存）
func (h *Handler) HandleDeletePrice(c *gin.Context) {
	id := c.Param("id")
	date := c.Param("date")
	if err := h.backend.DeletePrice(c.Request.Context(), id, date); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "price_date": date})
}

// InventorySaveRequest 庫存儲存請求
type InventorySaveRequest struct {
	QtyOnHand  float64 `json:"qty_on_hand"`
	Unit       string  `json:"unit"`
	UpdatedAt  string  `json:"updated_at"`
	ExpiryDate string  `json:"expiry_date"`
}

// HandleSaveInventory 覆寫食材庫存；更新日缺漏時補今天
func (h *Handler) HandleSaveInventory(c *gin.Context) {
	id := c.Param("id")

	var req InventorySaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	rec := corecatalog.InventoryRecord{
		QtyOnHand:  req.QtyOnHand,
		Unit:       strings.TrimSpace(req.Unit),
		UpdatedAt:  strings.TrimSpace(req.UpdatedAt),
		ExpiryDate: strings.TrimSpace(req.ExpiryDate),
	}
	if rec.Unit == "" {
		writeError(c, common.NewValidationError("庫存單位必填。"))
		return
	}
	if rec.UpdatedAt == "" {
		rec.UpdatedAt = corecatalog.Today()
	}

	if err := h.backend.PutInventory(c.Request.Context(), id, rec); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

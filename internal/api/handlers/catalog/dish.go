package catalog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	corecatalog "menu-console/internal/core/catalog"
	"menu-console/internal/core/editor"
	"menu-console/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DishUpsertRequest 菜色新增/修改請求；id 留空時自動產生。
// tags 收自由文字：JSON 陣列或逗號分隔皆可。
type DishUpsertRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	MeatType string `json:"meat_type"`
	Cuisine  string `json:"cuisine"`
	Tags     string `json:"tags"`
}

// normalizeTags 標籤輸入正規化：先試 JSON 陣列，失敗改逗號分隔，
// 去空白、去空項
func normalizeTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}

	var arr []string
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		out := []string{}
		for _, t := range arr {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
		return out
	}

	out := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// HandleListDishes 列出菜色（q 為 id/名稱子字串過濾，role 限縮角色）
func (h *Handler) HandleListDishes(c *gin.Context) {
	items := h.cache.SearchDishes(c.Query("q"), c.Query("role"))

	type entry struct {
		corecatalog.Dish
		Label string `json:"label"`
	}
	out := make([]entry, 0, len(items))
	for _, d := range items {
		out = append(out, entry{Dish: d, Label: corecatalog.DishLabel(d)})
	}
	c.JSON(http.StatusOK, out)
}

// HandleSuggestDishes 菜色自動完成候選
func (h *Handler) HandleSuggestDishes(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	out := h.cache.SuggestDishes(c.Query("q"), c.Query("role"), limit)
	if out == nil {
		out = []corecatalog.Suggestion{}
	}
	c.JSON(http.StatusOK, out)
}

// HandleUpsertDish 新增或修改菜色
func (h *Handler) HandleUpsertDish(c *gin.Context) {
	var req DishUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	dish := corecatalog.Dish{
		ID:       strings.TrimSpace(req.ID),
		Name:     strings.TrimSpace(req.Name),
		Role:     strings.TrimSpace(req.Role),
		MeatType: strings.TrimSpace(req.MeatType),
		Cuisine:  strings.TrimSpace(req.Cuisine),
		Tags:     normalizeTags(req.Tags),
	}
	if dish.Name == "" || dish.Role == "" {
		writeError(c, common.NewValidationError("菜色：名稱 / 角色 為必填。"))
		return
	}
	if dish.ID == "" {
		dish.ID = genID("dish")
	}

	if err := h.backend.UpsertDish(c.Request.Context(), dish); err != nil {
		writeError(c, err)
		return
	}
	h.reload(c)

	c.JSON(http.StatusOK, gin.H{"id": dish.ID})
}

// HandleDeleteDish 刪除菜色
func (h *Handler) HandleDeleteDish(c *gin.Context) {
	id := c.Param("id")
	if err := h.backend.DeleteDish(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	h.reload(c)
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// HandleGetComposition 菜色組成編輯面板的初始列：
// 既有組成帶顯示標籤預填，空組成補一列預設列
func (h *Handler) HandleGetComposition(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.cache.Dish(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "菜色不存在",
			"code":  common.ErrCodeNotFound,
		})
		return
	}

	items, err := h.backend.GetDishIngredients(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	e := h.cache.NewCompositionEditor(items)
	c.JSON(http.StatusOK, gin.H{"rows": e.Rows()})
}

// CompositionSaveRequest 組成儲存請求：整份列集合
type CompositionSaveRequest struct {
	Rows []corecatalog.CompositionRow `json:"rows"`
}

// HandleSaveComposition 整份覆寫菜色組成。每列的食材自由文字先過解析，
// 解析失敗的列全部列出並中止送出；數量/單位沒填好的列靜默略過。
func (h *Handler) HandleSaveComposition(c *gin.Context) {
	id := c.Param("id")

	var req CompositionSaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("請求格式無效", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	e := editor.New(corecatalog.CompositionSpec)
	for _, r := range req.Rows {
		e.AddRow(h.cache.ResolveCompositionRow(r))
	}

	res := e.Collect()
	if len(res.Problems) > 0 {
		var positions []string
		for _, p := range res.Problems {
			positions = append(positions, strconv.Itoa(p.Position))
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf(
				"第 %s 列食材無法辨識，請從提示清單選或直接輸入正確 ID。",
				strings.Join(positions, "、"),
			),
			"code":     common.ErrCodeUnresolvedEntity,
			"problems": res.Problems,
		})
		return
	}

	items := corecatalog.CompositionItems(res.Rows)
	if err := h.backend.PutDishIngredients(c.Request.Context(), id, items); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved": len(items)})
}

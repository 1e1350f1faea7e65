package catalog

import (
	"strings"
	"time"

	"menu-console/internal/core/editor"
)

// CompositionRow 菜色組成編輯列。Ingredient 欄位為操作者的自由文字輸入，
// IngredientID 為解析結果；解析失敗時為空字串。
type CompositionRow struct {
	Ingredient   string  `json:"ingredient"`
	IngredientID string  `json:"ingredient_id,omitempty"`
	Qty          float64 `json:"qty"`
	Unit         string  `json:"unit"`
}

// CompositionSpec 菜色組成列的判定規則：
// 身分 = 已解析的食材參照；未解析擋下儲存，數量/單位沒填好則靜默略過。
var CompositionSpec = editor.Spec[CompositionRow]{
	HasIdentity: func(r CompositionRow) bool { return r.IngredientID != "" },
	IsComplete:  func(r CompositionRow) bool { return r.Qty > 0 && strings.TrimSpace(r.Unit) != "" },
}

// ResolveCompositionRow 以快照解析列的食材參照，回寫 IngredientID
func (c *Cache) ResolveCompositionRow(r CompositionRow) CompositionRow {
	if id, ok := c.Resolve(r.Ingredient, KindIngredient); ok {
		r.IngredientID = id
	} else {
		r.IngredientID = ""
	}
	return r
}

// NewCompositionEditor 依既有組成預填編輯器；空清單時補一列預設列
func (c *Cache) NewCompositionEditor(items []DishIngredient) *editor.Editor[CompositionRow] {
	e := editor.New(CompositionSpec)
	for _, it := range items {
		row := CompositionRow{IngredientID: it.IngredientID, Qty: it.Qty, Unit: it.Unit}
		if x, ok := c.Ingredient(it.IngredientID); ok {
			row.Ingredient = IngredientLabel(x)
		} else {
			row.Ingredient = it.IngredientID
		}
		e.AddRow(row)
	}
	if e.Len() == 0 {
		e.AddRow(CompositionRow{Qty: 100, Unit: "g"})
	}
	return e
}

// CompositionItems 把收集結果轉成送往後端的組成列
func CompositionItems(rows []CompositionRow) []DishIngredient {
	out := make([]DishIngredient, 0, len(rows))
	for _, r := range rows {
		out = append(out, DishIngredient{
			IngredientID: r.IngredientID,
			Qty:          r.Qty,
			Unit:         strings.TrimSpace(r.Unit),
		})
	}
	return out
}

// PriceRow 價格編輯列。身分 = 日期；同一日期已存在與否由後端判定衝突。
type PriceRow struct {
	PriceDate    string  `json:"price_date"`
	PricePerUnit float64 `json:"price_per_unit"`
	Unit         string  `json:"unit"`
}

// PriceSpec 價格列的判定規則
var PriceSpec = editor.Spec[PriceRow]{
	HasIdentity: func(r PriceRow) bool { return strings.TrimSpace(r.PriceDate) != "" },
	IsComplete:  func(r PriceRow) bool { return r.PricePerUnit > 0 && strings.TrimSpace(r.Unit) != "" },
}

// NewPriceEditor 依既有價格紀錄預填編輯器（由舊到新）；空清單時補一列今日預設列
func NewPriceEditor(records []PriceRecord, defaultUnit string) *editor.Editor[PriceRow] {
	e := editor.New(PriceSpec)
	// 後端回傳 newest-first，編輯時反轉為由舊到新
	for i := len(records) - 1; i >= 0; i-- {
		p := records[i]
		e.AddRow(PriceRow{PriceDate: p.PriceDate, PricePerUnit: p.PricePerUnit, Unit: p.Unit})
	}
	if e.Len() == 0 {
		unit := defaultUnit
		if unit == "" {
			unit = "g"
		}
		e.AddRow(PriceRow{PriceDate: Today(), Unit: unit})
	}
	return e
}

// Today 今天的日曆日期（YYYY-MM-DD）
func Today() string {
	return time.Now().Format("2006-01-02")
}

package planner

import (
	"menu-console/internal/pkg/common"
)

// MeatTypes 主菜肉類全集（與後端設定驗證對齊）
var MeatTypes = []string{"chicken", "pork", "beef", "fish", "seafood", "vegetarian"}

// FormState 表單控制項目前的狀態。取代原本散落各處的 UI 控制項，
// 每個欄位對應設定中表單擁有的一個欄位。
type FormState struct {
	HorizonDays       int             `json:"horizon_days"`
	CostMin           float64         `json:"cost_min"`
	CostMax           float64         `json:"cost_max"`
	MeatTypes         map[string]bool `json:"meat_types"` // 每種肉類一個勾選框
	NoConsecutiveMeat bool            `json:"no_consecutive_same_main_meat"`
	WeeklyQuota       map[string]int  `json:"weekly_max_main_meat"`

	PreferUseInventory bool `json:"prefer_use_inventory"`
	PreferNearExpiry   bool `json:"prefer_near_expiry"`

	PreferredIngredients *ChipList `json:"preferred_ingredients"`
	ExcludedDishes       *ChipList `json:"excluded_dishes"`
}

// NewFormState 創建預設表單狀態：全部肉類勾選、chips 為空
func NewFormState() *FormState {
	f := &FormState{
		HorizonDays:          30,
		MeatTypes:            map[string]bool{},
		WeeklyQuota:          map[string]int{},
		PreferredIngredients: NewChipList(),
		ExcludedDishes:       NewChipList(),
	}
	for _, m := range MeatTypes {
		f.MeatTypes[m] = true
		f.WeeklyQuota[m] = 0
	}
	return f
}

// Clone 深拷貝表單狀態。存放處對外只交出拷貝，
// 指令在工作拷貝上修改完再整份提交回去。
func (f *FormState) Clone() *FormState {
	out := *f
	out.MeatTypes = make(map[string]bool, len(f.MeatTypes))
	for k, v := range f.MeatTypes {
		out.MeatTypes[k] = v
	}
	out.WeeklyQuota = make(map[string]int, len(f.WeeklyQuota))
	for k, v := range f.WeeklyQuota {
		out.WeeklyQuota[k] = v
	}
	out.PreferredIngredients = f.PreferredIngredients.Clone()
	out.ExcludedDishes = f.ExcludedDishes.Clone()
	return &out
}

// allMeatsChecked 是否所有肉類都被勾選
func (f *FormState) allMeatsChecked() bool {
	for _, m := range MeatTypes {
		if !f.MeatTypes[m] {
			return false
		}
	}
	return true
}

// LabelLookup chips 還原時的顯示文字查詢（由目錄快照實作）
type LabelLookup interface {
	IngredientChipLabel(id string) string
	DishChipLabel(id string) string
}

// Binder 讓設定物件在表單狀態與 JSON 文字兩種表現之間保持一致
type Binder struct {
	labels LabelLookup
}

// NewBinder 創建設定綁定器
func NewBinder(labels LabelLookup) *Binder {
	return &Binder{labels: labels}
}

// FromForm 深拷貝 baseConfig，覆寫表單擁有的每個欄位，其餘欄位原樣保留
// （向前相容：後端新增的未知欄位能活過一次往返）。
func (b *Binder) FromForm(base Configuration, f *FormState) Configuration {
	cfg := base.Clone()

	cfg["horizon_days"] = f.HorizonDays

	hard := cfg.Section("hard")
	soft := cfg.Section("soft")
	cfg.Section("weights")
	cfg.Section("search")

	hard["cost_range_per_person_per_day"] = map[string]any{
		"min": f.CostMin,
		"max": f.CostMax,
	}

	// 空清單代表「不限制」：全部勾選時序列化回空清單，讓這個慣例在往返中保持穩定
	meats := []string{}
	if !f.allMeatsChecked() {
		for _, m := range MeatTypes {
			if f.MeatTypes[m] {
				meats = append(meats, m)
			}
		}
	}
	hard["allowed_main_meat_types"] = meats

	hard["no_consecutive_same_main_meat"] = f.NoConsecutiveMeat

	weekly := map[string]any{}
	for _, m := range MeatTypes {
		weekly[m] = f.WeeklyQuota[m]
	}
	hard["weekly_max_main_meat"] = weekly

	hard["exclude_dish_ids"] = f.ExcludedDishes.IDs()

	soft["prefer_use_inventory"] = f.PreferUseInventory
	soft["prefer_near_expiry"] = f.PreferNearExpiry
	soft["inventory_prefer_ingredient_ids"] = f.PreferredIngredients.IDs()

	return cfg
}

// ToForm 由設定填滿每個表單控制項，缺漏欄位取預設值。
// allowed_main_meat_types 為空時所有肉類勾選框都打勾（空清單視為不限制）。
func (b *Binder) ToForm(cfg Configuration) *FormState {
	f := NewFormState()

	if n, ok := numberField(cfg, "horizon_days"); ok {
		f.HorizonDays = int(n)
	}

	hard, _ := cfg["hard"].(map[string]any)
	soft, _ := cfg["soft"].(map[string]any)
	if hard == nil {
		hard = map[string]any{}
	}
	if soft == nil {
		soft = map[string]any{}
	}

	if cr, ok := hard["cost_range_per_person_per_day"].(map[string]any); ok {
		if n, ok := numberField(cr, "min"); ok {
			f.CostMin = n
		}
		if n, ok := numberField(cr, "max"); ok {
			f.CostMax = n
		}
	}

	allowed := stringListField(hard, "allowed_main_meat_types")
	if len(allowed) > 0 {
		set := map[string]bool{}
		for _, m := range allowed {
			set[m] = true
		}
		for _, m := range MeatTypes {
			f.MeatTypes[m] = set[m]
		}
	}

	f.NoConsecutiveMeat = boolField(hard, "no_consecutive_same_main_meat")

	if weekly, ok := hard["weekly_max_main_meat"].(map[string]any); ok {
		for _, m := range MeatTypes {
			if n, ok := numberField(weekly, m); ok {
				f.WeeklyQuota[m] = int(n)
			}
		}
	}

	f.PreferUseInventory = boolField(soft, "prefer_use_inventory")
	f.PreferNearExpiry = boolField(soft, "prefer_near_expiry")

	var prefChips []Chip
	for _, id := range stringListField(soft, "inventory_prefer_ingredient_ids") {
		prefChips = append(prefChips, Chip{ID: id, Label: b.chipLabel(id, true)})
	}
	f.PreferredIngredients.Reset(prefChips)

	var exclChips []Chip
	for _, id := range stringListField(hard, "exclude_dish_ids") {
		exclChips = append(exclChips, Chip{ID: id, Label: b.chipLabel(id, false)})
	}
	f.ExcludedDishes.Reset(exclChips)

	return f
}

func (b *Binder) chipLabel(id string, ingredient bool) string {
	if b.labels == nil {
		return id
	}
	if ingredient {
		return b.labels.IngredientChipLabel(id)
	}
	return b.labels.DishChipLabel(id)
}

// SyncText 由表單重建設定並序列化為標準 JSON 文字（顯示/複製用）
func (b *Binder) SyncText(base Configuration, f *FormState) (Configuration, string, error) {
	cfg := b.FromForm(base, f)
	text, err := cfg.CanonicalText()
	if err != nil {
		return nil, "", err
	}
	return cfg, text, nil
}

// ApplyJSONToForm 操作者明確要求時才套用手動編輯的 JSON 文字：
// 解析失敗回傳本地驗證錯誤；成功則整份替換並完整重跑 ToForm，
// 不支援部分合併（表單永遠不會呈現兩份設定的混合）。
func (b *Binder) ApplyJSONToForm(text string) (Configuration, *FormState, error) {
	cfg, err := ParseConfiguration(text)
	if err != nil {
		return nil, nil, common.NewValidationError("JSON 解析失敗：請檢查格式。")
	}
	return cfg, b.ToForm(cfg), nil
}

package catalog

// Ingredient 食材主檔
type Ingredient struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	ProteinGroup string `json:"protein_group,omitempty"`
	DefaultUnit  string `json:"default_unit"`
}

// Dish 菜色主檔
type Dish struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Role     string   `json:"role"` // main / side / soup / fruit
	MeatType string   `json:"meat_type,omitempty"`
	Cuisine  string   `json:"cuisine,omitempty"`
	Tags     []string `json:"tags"`
}

// DishIngredient 菜色組成中的一列，順序在編輯期間保持穩定
type DishIngredient struct {
	IngredientID string  `json:"ingredient_id"`
	Qty          float64 `json:"qty"`
	Unit         string  `json:"unit"`
}

// PriceRecord 食材價格紀錄，日期對單一食材唯一
type PriceRecord struct {
	PriceDate    string  `json:"price_date"` // YYYY-MM-DD
	PricePerUnit float64 `json:"price_per_unit"`
	Unit         string  `json:"unit"`
}

// InventoryRecord 庫存紀錄，每個食材至多一筆
type InventoryRecord struct {
	QtyOnHand  float64 `json:"qty_on_hand"`
	Unit       string  `json:"unit"`
	UpdatedAt  string  `json:"updated_at"`            // YYYY-MM-DD
	ExpiryDate string  `json:"expiry_date,omitempty"` // YYYY-MM-DD，可為空
}

// AllowedRoles 菜色角色全集（與後端 config loader 對齊）
var AllowedRoles = []string{"main", "side", "soup", "fruit"}

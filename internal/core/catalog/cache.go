package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"menu-console/internal/pkg/common"

	"go.uber.org/zap"
)

// Lister 目錄讀取來源（由後端 client 實作）
type Lister interface {
	ListIngredients(ctx context.Context) ([]Ingredient, error)
	ListDishes(ctx context.Context) ([]Dish, error)
}

// Suggestion 自動完成候選項目
type Suggestion struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Meta  string `json:"meta,omitempty"`
}

// Cache 目錄快照：每次 Load 整批重建，不做增量更新。
// 呼叫端須在任何目錄異動後重新 Load；同時發出的 Load 彼此競爭，後寫者勝。
type Cache struct {
	mu            sync.RWMutex
	ingredients   []Ingredient
	dishes        []Dish
	ingByID       map[string]Ingredient
	dishByID      map[string]Dish
	ingLabelToID  map[string]string
	dishLabelToID map[string]string
}

// NewCache 創建空的目錄快照
func NewCache() *Cache {
	c := &Cache{}
	c.replace(nil, nil)
	return c
}

// IngredientLabel 食材顯示標籤：分類｜名稱 (id)
func IngredientLabel(x Ingredient) string {
	return fmt.Sprintf("%s｜%s (%s)", x.Category, x.Name, x.ID)
}

// DishLabel 菜色顯示標籤：[角色] 名稱 (id)
func DishLabel(d Dish) string {
	return fmt.Sprintf("[%s] %s (%s)", d.Role, d.Name, d.ID)
}

// Load 重新抓取兩個集合並整批替換快照與索引
func (c *Cache) Load(ctx context.Context, src Lister) error {
	ings, err := src.ListIngredients(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ingredients: %w", err)
	}
	dishes, err := src.ListDishes(ctx)
	if err != nil {
		return fmt.Errorf("failed to load dishes: %w", err)
	}

	c.replace(ings, dishes)

	common.LogInfo("目錄已載入",
		zap.Int("食材數", len(ings)),
		zap.Int("菜色數", len(dishes)),
	)
	return nil
}

func (c *Cache) replace(ings []Ingredient, dishes []Dish) {
	ingByID := make(map[string]Ingredient, len(ings))
	ingLabelToID := make(map[string]string, len(ings))
	for _, x := range ings {
		ingByID[x.ID] = x
		ingLabelToID[IngredientLabel(x)] = x.ID
	}

	dishByID := make(map[string]Dish, len(dishes))
	dishLabelToID := make(map[string]string, len(dishes))
	for _, d := range dishes {
		dishByID[d.ID] = d
		dishLabelToID[DishLabel(d)] = d.ID
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.ingredients = ings
	c.dishes = dishes
	c.ingByID = ingByID
	c.dishByID = dishByID
	c.ingLabelToID = ingLabelToID
	c.dishLabelToID = dishLabelToID
}

// Ingredient 依 id 取食材
func (c *Cache) Ingredient(id string) (Ingredient, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	x, ok := c.ingByID[id]
	return x, ok
}

// Dish 依 id 取菜色
func (c *Cache) Dish(id string) (Dish, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.dishByID[id]
	return d, ok
}

// Ingredients 回傳目前快照中的食材清單
func (c *Cache) Ingredients() []Ingredient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Ingredient, len(c.ingredients))
	copy(out, c.ingredients)
	return out
}

// Dishes 回傳目前快照中的菜色清單
func (c *Cache) Dishes() []Dish {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Dish, len(c.dishes))
	copy(out, c.dishes)
	return out
}

// SearchIngredients 以 id/名稱子字串過濾（空字串回傳全部）
func (c *Cache) SearchIngredients(q string) []Ingredient {
	q = strings.ToLower(strings.TrimSpace(q))
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Ingredient, 0, len(c.ingredients))
	for _, x := range c.ingredients {
		if q == "" ||
			strings.Contains(strings.ToLower(x.ID), q) ||
			strings.Contains(strings.ToLower(x.Name), q) {
			out = append(out, x)
		}
	}
	return out
}

// SearchDishes 以 id/名稱子字串過濾，可再依角色限縮
func (c *Cache) SearchDishes(q, role string) []Dish {
	q = strings.ToLower(strings.TrimSpace(q))
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Dish, 0, len(c.dishes))
	for _, d := range c.dishes {
		if role != "" && d.Role != role {
			continue
		}
		if q == "" ||
			strings.Contains(strings.ToLower(d.ID), q) ||
			strings.Contains(strings.ToLower(d.Name), q) {
			out = append(out, d)
		}
	}
	return out
}

// SuggestIngredients 名稱子字串命中的前 limit 筆候選
func (c *Cache) SuggestIngredients(q string, limit int) []Suggestion {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Suggestion
	for _, x := range c.ingredients {
		if !strings.Contains(strings.ToLower(x.Name), q) {
			continue
		}
		out = append(out, Suggestion{ID: x.ID, Label: x.Name, Meta: x.Category})
		if len(out) >= limit {
			break
		}
	}
	return out
}

// SuggestDishes 名稱子字串命中的前 limit 筆候選，可依角色限縮
func (c *Cache) SuggestDishes(q, role string, limit int) []Suggestion {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Suggestion
	for _, d := range c.dishes {
		if role != "" && d.Role != role {
			continue
		}
		if !strings.Contains(strings.ToLower(d.Name), q) {
			continue
		}
		meta := d.MeatType
		if meta == "" {
			meta = d.Cuisine
		}
		out = append(out, Suggestion{
			ID:    d.ID,
			Label: fmt.Sprintf("[%s] %s", d.Role, d.Name),
			Meta:  meta,
		})
		if len(out) >= limit {
			break
		}
	}
	return out
}

// IngredientChipLabel 食材 chip 顯示文字；查不到時退回 id
func (c *Cache) IngredientChipLabel(id string) string {
	if x, ok := c.Ingredient(id); ok {
		return x.Name
	}
	return id
}

// DishChipLabel 菜色 chip 顯示文字；查不到時退回 id
func (c *Cache) DishChipLabel(id string) string {
	if d, ok := c.Dish(id); ok {
		return fmt.Sprintf("[%s] %s", d.Role, d.Name)
	}
	return id
}

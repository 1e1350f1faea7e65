package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabels(t *testing.T) {
	assert.Equal(t, "肉類｜雞胸肉 (ing_1)",
		IngredientLabel(Ingredient{ID: "ing_1", Name: "雞胸肉", Category: "肉類"}))
	assert.Equal(t, "[main] 宮保雞丁 (dish_1)",
		DishLabel(Dish{ID: "dish_1", Name: "宮保雞丁", Role: "main"}))
}

func TestSearchIngredients(t *testing.T) {
	c := testCache()

	assert.Len(t, c.SearchIngredients(""), 4)
	assert.Len(t, c.SearchIngredients("豆腐"), 2)

	hits := c.SearchIngredients("ING_1")
	require.Len(t, hits, 1)
	assert.Equal(t, "ing_1", hits[0].ID)
}

func TestSearchDishesWithRole(t *testing.T) {
	c := testCache()

	assert.Len(t, c.SearchDishes("", ""), 3)
	assert.Len(t, c.SearchDishes("", "side"), 1)
	assert.Empty(t, c.SearchDishes("宮保", "soup"))

	hits := c.SearchDishes("宮保", "main")
	require.Len(t, hits, 1)
	assert.Equal(t, "dish_1", hits[0].ID)
}

func TestSuggestIngredients(t *testing.T) {
	c := testCache()

	// 空查詢不給候選
	assert.Empty(t, c.SuggestIngredients("", 10))

	hits := c.SuggestIngredients("豆腐", 10)
	require.Len(t, hits, 2)
	assert.Equal(t, "ing_3", hits[0].ID)
	assert.Equal(t, "豆腐", hits[0].Label)
	assert.Equal(t, "豆製品", hits[0].Meta)

	// limit 截斷
	assert.Len(t, c.SuggestIngredients("豆腐", 1), 1)
}

func TestSuggestDishes(t *testing.T) {
	c := testCache()

	hits := c.SuggestDishes("高麗菜", "", 10)
	require.Len(t, hits, 1)
	assert.Equal(t, "dish_2", hits[0].ID)
	assert.Equal(t, "[side] 炒高麗菜", hits[0].Label)

	assert.Empty(t, c.SuggestDishes("高麗菜", "main", 10))
}

func TestChipLabelsFallBackToID(t *testing.T) {
	c := testCache()

	assert.Equal(t, "雞胸肉", c.IngredientChipLabel("ing_1"))
	assert.Equal(t, "ing_999", c.IngredientChipLabel("ing_999"))

	assert.Equal(t, "[main] 宮保雞丁", c.DishChipLabel("dish_1"))
	assert.Equal(t, "dish_999", c.DishChipLabel("dish_999"))
}

func TestReplaceIsWholesale(t *testing.T) {
	c := testCache()
	c.replace([]Ingredient{{ID: "ing_9", Name: "新食材", Category: "其他", DefaultUnit: "g"}}, nil)

	_, ok := c.Ingredient("ing_1")
	assert.False(t, ok)

	_, ok = c.Ingredient("ing_9")
	assert.True(t, ok)
	assert.Empty(t, c.Dishes())
}

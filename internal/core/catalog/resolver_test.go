package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache() *Cache {
	c := NewCache()
	c.replace(
		[]Ingredient{
			{ID: "ing_1", Name: "雞胸肉", Category: "肉類", DefaultUnit: "g"},
			{ID: "ing_2", Name: "高麗菜", Category: "蔬菜", DefaultUnit: "g"},
			{ID: "ing_3", Name: "豆腐", Category: "豆製品", DefaultUnit: "g"},
			{ID: "ing_4", Name: "豆腐", Category: "冷藏", DefaultUnit: "g"}, // 同名
		},
		[]Dish{
			{ID: "dish_1", Name: "宮保雞丁", Role: "main", MeatType: "chicken"},
			{ID: "dish_2", Name: "炒高麗菜", Role: "side"},
			{ID: "dish_3", Name: "味噌湯", Role: "soup"},
		},
	)
	return c
}

func TestResolveDirectID(t *testing.T) {
	c := testCache()
	id, ok := c.Resolve("ing_1", KindIngredient)
	require.True(t, ok)
	assert.Equal(t, "ing_1", id)
}

func TestResolveTrailingToken(t *testing.T) {
	c := testCache()

	id, ok := c.Resolve("雞胸肉 (ing_1)", KindIngredient)
	require.True(t, ok)
	assert.Equal(t, "ing_1", id)

	// 尾端空白不影響
	id, ok = c.Resolve("隨便什麼 (ing_2)  ", KindIngredient)
	require.True(t, ok)
	assert.Equal(t, "ing_2", id)

	// 括號裡不是已知 id 時不算命中
	_, ok = c.Resolve("雞胸肉 (ing_999)", KindIngredient)
	assert.False(t, ok)
}

func TestResolveFullLabel(t *testing.T) {
	c := testCache()

	id, ok := c.Resolve(IngredientLabel(Ingredient{ID: "ing_2", Name: "高麗菜", Category: "蔬菜"}), KindIngredient)
	require.True(t, ok)
	assert.Equal(t, "ing_2", id)

	id, ok = c.Resolve("[side] 炒高麗菜 (dish_2)", KindDish)
	require.True(t, ok)
	assert.Equal(t, "dish_2", id)
}

func TestResolveUniqueName(t *testing.T) {
	c := testCache()

	id, ok := c.Resolve("高麗菜", KindIngredient)
	require.True(t, ok)
	assert.Equal(t, "ing_2", id)

	id, ok = c.Resolve("味噌湯", KindDish)
	require.True(t, ok)
	assert.Equal(t, "dish_3", id)
}

func TestResolveAmbiguousNameFails(t *testing.T) {
	c := testCache()

	// 兩筆同名食材：不猜，視為解析失敗
	id, ok := c.Resolve("豆腐", KindIngredient)
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestResolveEmptyAndUnknown(t *testing.T) {
	c := testCache()

	_, ok := c.Resolve("", KindIngredient)
	assert.False(t, ok)

	_, ok = c.Resolve("   ", KindIngredient)
	assert.False(t, ok)

	_, ok = c.Resolve("不存在的東西", KindDish)
	assert.False(t, ok)
}

func TestResolveKindsAreIsolated(t *testing.T) {
	c := testCache()

	// 食材 id 丟到菜色解析不會命中
	_, ok := c.Resolve("ing_1", KindDish)
	assert.False(t, ok)

	_, ok = c.Resolve("dish_1", KindIngredient)
	assert.False(t, ok)
}

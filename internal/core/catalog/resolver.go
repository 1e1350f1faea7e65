package catalog

import (
	"regexp"
	"strings"
)

// Kind 可解析的實體種類
type Kind string

const (
	KindIngredient Kind = "ingredient"
	KindDish       Kind = "dish"
)

// 尾端括號 token，例如 "雞胸肉 (ing_1)" 取出 ing_1
var trailingTokenPattern = regexp.MustCompile(`\(([^()]+)\)\s*$`)

// Resolve 將自由文字解析為目錄實體 id。策略依序嘗試，先成功者勝：
//  1. 直接輸入 ID
//  2. 從 "... (id)" 取尾端括號 token
//  3. 完整顯示標籤
//  4. 名稱精確唯一匹配（同名多筆視為失敗，不猜測）
//
// 全部失敗回傳 ("", false)；呼叫端必須視為未解析並擋下儲存。
func (c *Cache) Resolve(text string, kind Kind) (string, bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	byID := c.ingByID
	labelToID := c.ingLabelToID
	if kind == KindDish {
		byID = nil
		labelToID = c.dishLabelToID
	}

	exists := func(id string) bool {
		if kind == KindDish {
			_, ok := c.dishByID[id]
			return ok
		}
		_, ok := byID[id]
		return ok
	}

	// 1) 直接輸入 ID
	if exists(t) {
		return t, true
	}

	// 2) 從 "... (id)" 抓 id
	if m := trailingTokenPattern.FindStringSubmatch(t); m != nil && exists(m[1]) {
		return m[1], true
	}

	// 3) 完整 label
	if id, ok := labelToID[t]; ok {
		return id, true
	}

	// 4) 最後：若只輸入名稱，嘗試唯一匹配
	var hit string
	count := 0
	if kind == KindDish {
		for _, d := range c.dishes {
			if d.Name == t {
				hit = d.ID
				count++
			}
		}
	} else {
		for _, x := range c.ingredients {
			if x.Name == t {
				hit = x.ID
				count++
			}
		}
	}
	if count == 1 {
		return hit, true
	}

	return "", false
}

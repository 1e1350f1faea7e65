// Package editor 提供可重複列編輯器的共用骨架：
// 以穩定的列識別碼管理一份有序列集合，收集時把「身分欄位缺失」
// 與「尚未填完」分開處理——前者回報問題並擋下儲存，後者靜默略過。
package editor

import "fmt"

// Spec 列的判定規則
type Spec[R any] struct {
	// HasIdentity 判斷必要的身分欄位是否存在（例如已解析的食材參照、價格日期）
	HasIdentity func(R) bool
	// IsComplete 判斷列是否已填完（數量 > 0、單位非空等）
	IsComplete func(R) bool
}

// Problem 收集時回報的問題列
type Problem struct {
	Position int    `json:"position"` // 1-based 列號
	Reason   string `json:"reason,omitempty"`
}

// Result 收集結果：可送出的列與擋下儲存的問題清單
type Result[R any] struct {
	Rows     []R       `json:"rows"`
	Problems []Problem `json:"problems"`
}

type row[R any] struct {
	id    int
	value R
}

// Editor 有序列集合，新增/移除/修改以列識別碼定位而非位置
type Editor[R any] struct {
	spec   Spec[R]
	nextID int
	rows   []row[R]
}

// New 創建列編輯器
func New[R any](spec Spec[R]) *Editor[R] {
	return &Editor[R]{spec: spec, nextID: 1}
}

// AddRow 在尾端加入一列，回傳其穩定識別碼
func (e *Editor[R]) AddRow(initial R) int {
	id := e.nextID
	e.nextID++
	e.rows = append(e.rows, row[R]{id: id, value: initial})
	return id
}

// RemoveRow 移除指定列，不影響其他列
func (e *Editor[R]) RemoveRow(id int) bool {
	for i, r := range e.rows {
		if r.id == id {
			e.rows = append(e.rows[:i], e.rows[i+1:]...)
			return true
		}
	}
	return false
}

// SetRow 覆寫指定列的內容
func (e *Editor[R]) SetRow(id int, v R) bool {
	for i, r := range e.rows {
		if r.id == id {
			e.rows[i].value = v
			return true
		}
	}
	return false
}

// Row 取出指定列的內容
func (e *Editor[R]) Row(id int) (R, bool) {
	for _, r := range e.rows {
		if r.id == id {
			return r.value, true
		}
	}
	var zero R
	return zero, false
}

// Rows 依序回傳所有列的內容
func (e *Editor[R]) Rows() []R {
	out := make([]R, len(e.rows))
	for i, r := range e.rows {
		out[i] = r.value
	}
	return out
}

// Len 目前列數
func (e *Editor[R]) Len() int {
	return len(e.rows)
}

// Collect 掃描所有列：
//   - 身分欄位缺失的列以 1-based 列號回報為問題，且不納入 Rows
//   - 有身分但未填完的列靜默略過（視為還沒填好，不是錯誤）
//
// 呼叫端只有在 Problems 為空時才允許儲存；任何問題都必須一次列出
// 所有出錯列號並完全中止送出。
func (e *Editor[R]) Collect() Result[R] {
	res := Result[R]{Rows: []R{}, Problems: []Problem{}}
	for i, r := range e.rows {
		if e.spec.HasIdentity != nil && !e.spec.HasIdentity(r.value) {
			res.Problems = append(res.Problems, Problem{
				Position: i + 1,
				Reason:   fmt.Sprintf("第 %d 列缺少必要的識別欄位", i+1),
			})
			continue
		}
		if e.spec.IsComplete != nil && !e.spec.IsComplete(r.value) {
			continue
		}
		res.Rows = append(res.Rows, r.value)
	}
	return res
}

package planner

import "encoding/json"

// Chip 一顆可移除的選取標籤：目錄實體 id 加上顯示文字
type Chip struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ChipList 保序、不重複的多選編輯器。以 id 去重（不是 label），
// 值的順序等於加入順序。本身不持久化，僅是設定欄位的檢視。
type ChipList struct {
	chips []Chip
}

// NewChipList 創建空的 chip 清單
func NewChipList() *ChipList {
	return &ChipList{}
}

// Add 加入一顆 chip；id 已存在時不動作
func (l *ChipList) Add(id, label string) bool {
	for _, c := range l.chips {
		if c.ID == id {
			return false
		}
	}
	l.chips = append(l.chips, Chip{ID: id, Label: label})
	return true
}

// Remove 立即移除指定 id 的 chip
func (l *ChipList) Remove(id string) bool {
	for i, c := range l.chips {
		if c.ID == id {
			l.chips = append(l.chips[:i], l.chips[i+1:]...)
			return true
		}
	}
	return false
}

// IDs 依加入順序回傳所有 id
func (l *ChipList) IDs() []string {
	out := make([]string, len(l.chips))
	for i, c := range l.chips {
		out[i] = c.ID
	}
	return out
}

// Chips 依加入順序回傳所有 chip
func (l *ChipList) Chips() []Chip {
	out := make([]Chip, len(l.chips))
	copy(out, l.chips)
	return out
}

// Len 目前 chip 數
func (l *ChipList) Len() int {
	return len(l.chips)
}

// Clone 深拷貝（狀態存放處對外交出拷貝時使用）
func (l *ChipList) Clone() *ChipList {
	return &ChipList{chips: l.Chips()}
}

// Reset 整批替換內容（套用設定到表單時使用），仍然以 id 去重
func (l *ChipList) Reset(chips []Chip) {
	l.chips = nil
	for _, c := range chips {
		l.Add(c.ID, c.Label)
	}
}

// MarshalJSON 以 chip 陣列輸出
func (l *ChipList) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Chips())
}

// UnmarshalJSON 由 chip 陣列還原
func (l *ChipList) UnmarshalJSON(data []byte) error {
	var chips []Chip
	if err := json.Unmarshal(data, &chips); err != nil {
		return err
	}
	l.Reset(chips)
	return nil
}

// Package session 保存操作台的可變狀態：基準設定、表單狀態、
// 標準 JSON 文字與最後一次排程結果。狀態在載入預設或套用 JSON 時
// 整份替換，讀寫都經過明確的存取器，不使用環境全域變數。
package session

import (
	"sync"

	"menu-console/internal/core/planner"
)

// Store 操作台狀態存放處。mu 保護欄位本身；cmdMu 是指令鎖，
// 會改動狀態的指令一次只跑一個（讀取端只拿深拷貝，不經過指令鎖）。
type Store struct {
	mu    sync.RWMutex
	cmdMu sync.Mutex

	base       planner.Configuration
	form       *planner.FormState
	cfgText    string
	lastCfg    planner.Configuration
	lastRender *planner.RenderedPlan
	hasResult  bool
}

// NewStore 創建空狀態（表單為預設值、尚無設定文字與結果）
func NewStore() *Store {
	return &Store{
		base: planner.Configuration{},
		form: planner.NewFormState(),
	}
}

// ReplaceConfig 整份替換基準設定、表單與 JSON 文字
// （載入預設或套用貼上的 JSON 時使用），並丟棄上一次結果。
func (s *Store) ReplaceConfig(base planner.Configuration, form *planner.FormState, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = base
	s.form = form
	s.cfgText = text
	s.lastCfg = nil
	s.lastRender = nil
	s.hasResult = false
}

// BeginCommand 取得指令鎖並回傳解鎖函式。改動狀態的處理流程
// 先取鎖再 Snapshot，改完用 SetForm/SetText 提交，保證
// 讀取-修改-寫回不會交錯。
func (s *Store) BeginCommand() func() {
	s.cmdMu.Lock()
	return s.cmdMu.Unlock
}

// Snapshot 目前的基準設定與表單，兩者都是深拷貝：
// 呼叫端在拷貝上修改，改完經 SetForm 整份提交。
func (s *Store) Snapshot() (planner.Configuration, *planner.FormState) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base.Clone(), s.form.Clone()
}

// Form 目前表單狀態的深拷貝
func (s *Store) Form() *planner.FormState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.form.Clone()
}

// SetForm 提交改好的表單工作拷貝與重算後的設定文字；
// 提交後呼叫端不得再碰這份表單。
func (s *Store) SetForm(form *planner.FormState, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = form
	s.cfgText = text
}

// SetText 更新目前的標準 JSON 文字
func (s *Store) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfgText = text
}

// Text 目前的標準 JSON 文字
func (s *Store) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfgText
}

// SetResult 記錄最後一次排程使用的設定與渲染結果
func (s *Store) SetResult(cfg planner.Configuration, render *planner.RenderedPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCfg = cfg
	s.lastRender = render
	s.hasResult = true
}

// ClearResult 丟棄上一次排程結果（下一次排程前、或設定整份替換時）
func (s *Store) ClearResult() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCfg = nil
	s.lastRender = nil
	s.hasResult = false
}

// LastConfig 最後一次成功排程使用的設定
func (s *Store) LastConfig() (planner.Configuration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasResult {
		return nil, false
	}
	return s.lastCfg, true
}

// LastResult 最後一次渲染結果；尚無結果時 ok 為 false
func (s *Store) LastResult() (*planner.RenderedPlan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRender, s.hasResult
}

// HasResult 是否已有成功的排程結果（匯出按鈕的啟用條件）
func (s *Store) HasResult() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasResult
}

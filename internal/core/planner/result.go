package planner

// PlanError 排程錯誤。day_index 存在時屬於單一天，否則為全域錯誤。
type PlanError struct {
	DayIndex *int           `json:"day_index,omitempty"`
	Code     string         `json:"code,omitempty"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`
}

// Trace 後端附帶的診斷 traceback（沒有時為空字串）
func (e PlanError) Trace() string {
	if e.Details == nil {
		return ""
	}
	s, _ := e.Details["trace"].(string)
	return s
}

// PlanItem 排程結果中的一道菜
type PlanItem struct {
	ID                       string   `json:"id"`
	Name                     string   `json:"name"`
	Role                     string   `json:"role,omitempty"`
	MeatType                 string   `json:"meat_type,omitempty"`
	Cuisine                  string   `json:"cuisine,omitempty"`
	Cost                     float64  `json:"cost,omitempty"`
	UsedInventoryIngredients []string `json:"used_inventory_ingredients"`
}

// DayItems 一天的菜色組合
type DayItems struct {
	Main  *PlanItem   `json:"main"`
	Sides []*PlanItem `json:"sides"`
	Soup  *PlanItem   `json:"soup"`
	Fruit *PlanItem   `json:"fruit"`
}

// DayResult 單日排程結果。欄位可能缺漏（特別是失敗日），一律以指標承接。
type DayResult struct {
	Date           string             `json:"date"`
	DayIndex       *int               `json:"day_index"`
	Items          *DayItems          `json:"items"`
	DayCost        *float64           `json:"day_cost"`
	Score          *float64           `json:"score"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown"`
	Failed         bool               `json:"failed,omitempty"`
}

// PlanSummary 整份計畫的摘要
type PlanSummary struct {
	Days          int     `json:"days"`
	TotalCost     float64 `json:"total_cost"`
	AvgCostPerDay float64 `json:"avg_cost_per_day"`
	TotalScore    float64 `json:"total_score"`
}

// PlanResult 一次排程呼叫的完整結果，下一次呼叫時整份丟棄
type PlanResult struct {
	Summary PlanSummary `json:"summary"`
	Days    []DayResult `json:"days"`
	Errors  []PlanError `json:"errors,omitempty"`
}

// PlanResponse 後端 /plan 的回應外殼
type PlanResponse struct {
	OK     bool        `json:"ok"`
	Result *PlanResult `json:"result,omitempty"`
	Errors []PlanError `json:"errors,omitempty"`
}

// ValidateResult 後端 /config/validate 的回應
type ValidateResult struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors"`
}

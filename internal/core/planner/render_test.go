package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int         { return &v }
func f64Ptr(v float64) *float64 { return &v }

func TestRenderSuccessDay(t *testing.T) {
	r := &PlanResult{
		Summary: PlanSummary{Days: 1, TotalCost: 95, AvgCostPerDay: 95, TotalScore: 7.2},
		Days: []DayResult{
			{
				Date:     "2026-09-01",
				DayIndex: intPtr(0),
				Items: &DayItems{
					Main: &PlanItem{ID: "dish_1", Name: "宮保雞丁", UsedInventoryIngredients: []string{"ing_1"}},
					Sides: []*PlanItem{
						{ID: "dish_2", Name: "炒高麗菜"},
						{ID: "dish_4", Name: "涼拌豆腐", UsedInventoryIngredients: []string{"ing_3"}},
					},
					Soup:  &PlanItem{ID: "dish_3", Name: "味噌湯"},
					Fruit: &PlanItem{ID: "dish_5", Name: "蘋果"},
				},
				DayCost:        f64Ptr(95),
				Score:          f64Ptr(7.25),
				ScoreBreakdown: map[string]float64{"cost": 3.5, "balance": 3.75},
			},
		},
	}

	out := Render(r)
	require.Len(t, out.Rows, 1)

	row := out.Rows[0]
	assert.False(t, row.Failed)
	assert.Equal(t, "宮保雞丁", row.Main)
	assert.Equal(t, "炒高麗菜、涼拌豆腐", row.Sides)
	assert.Equal(t, "味噌湯", row.Soup)
	assert.Equal(t, "蘋果", row.Fruit)
	assert.Equal(t, "95", row.Cost)
	assert.Equal(t, "7.25", row.Score)

	// 打分拆解依名稱排序，輸出穩定
	require.Len(t, row.ScoreBreakdown, 2)
	assert.Equal(t, "balance", row.ScoreBreakdown[0].Name)
	assert.Equal(t, "cost", row.ScoreBreakdown[1].Name)

	require.NotNil(t, row.InventoryUse)
	assert.Equal(t, []string{"ing_1"}, row.InventoryUse.Main)
	require.Len(t, row.InventoryUse.Sides, 2)
	assert.Nil(t, row.InventoryUse.Sides[0])
	assert.Equal(t, []string{"ing_3"}, row.InventoryUse.Sides[1])
}

func TestRenderFailedDayWithErrors(t *testing.T) {
	r := &PlanResult{
		Days: []DayResult{
			{Date: "2026-09-01", DayIndex: intPtr(0)},
			{Date: "2026-09-02", DayIndex: intPtr(1)},
		},
		Errors: []PlanError{
			{DayIndex: intPtr(1), Code: "NO_FEASIBLE", Message: "主菜都超出成本上限"},
		},
	}

	out := Render(r)
	require.Len(t, out.Rows, 2)

	failed := out.Rows[1]
	assert.True(t, failed.Failed)
	assert.Equal(t, "主菜都超出成本上限", failed.Reason)
	assert.Equal(t, "(主菜已排但明細不足)", failed.Main)
	require.Len(t, failed.ErrorDetail, 1)
	assert.Equal(t, "NO_FEASIBLE", failed.ErrorDetail[0].Code)
}

func TestRenderFailedDayWithoutDetails(t *testing.T) {
	// 缺明細、缺錯誤訊息的失敗日不會讓渲染掛掉
	r := &PlanResult{
		Days: []DayResult{
			{Date: "2026-09-03", Failed: true},
		},
	}

	out := Render(r)
	require.Len(t, out.Rows, 1)

	row := out.Rows[0]
	assert.True(t, row.Failed)
	assert.Equal(t, "當天無可行組合", row.Reason)
	require.Len(t, row.ErrorDetail, 1)
	assert.Equal(t, "當天無可行組合", row.ErrorDetail[0].Message)
}

func TestRenderFailedDayKeepsMainName(t *testing.T) {
	r := &PlanResult{
		Days: []DayResult{
			{
				Date:   "2026-09-04",
				Failed: true,
				Items:  &DayItems{Main: &PlanItem{Name: "紅燒牛腩"}},
			},
		},
	}

	out := Render(r)
	assert.Equal(t, "紅燒牛腩", out.Rows[0].Main)
}

func TestRenderDayIndexFallsBackToPosition(t *testing.T) {
	r := &PlanResult{
		Days: []DayResult{
			{Date: "2026-09-01"},
			{Date: "2026-09-02"},
		},
	}

	out := Render(r)
	assert.Equal(t, 0, out.Rows[0].DayIndex)
	assert.Equal(t, 1, out.Rows[1].DayIndex)
}

func TestRenderNilResult(t *testing.T) {
	out := Render(nil)
	assert.Empty(t, out.Rows)
}

func TestFormatErrors(t *testing.T) {
	assert.Equal(t, "（無更多資訊）", FormatErrors(nil))

	text := FormatErrors([]PlanError{
		{Code: "BAD_CFG", Message: "設定有誤", Details: map[string]any{"trace": "Traceback ..."}},
		{Message: "第二筆"},
	})
	assert.Contains(t, text, "[BAD_CFG] 設定有誤")
	assert.Contains(t, text, "Traceback ...")
	assert.Contains(t, text, "\n\n- 第二筆")
}

func TestErrorTraceText(t *testing.T) {
	// 有 traceback 就只串 traceback
	text := ErrorTraceText([]PlanError{
		{Message: "x", Details: map[string]any{"trace": "tb1"}},
		{Message: "y", Details: map[string]any{"trace": "tb2"}},
	})
	assert.Equal(t, "tb1\n\ntb2", text)

	// 沒有 traceback 時退回整包 JSON
	text = ErrorTraceText([]PlanError{{Message: "裸錯誤"}})
	assert.Contains(t, text, "裸錯誤")
}

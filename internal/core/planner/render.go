package planner

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"menu-console/internal/pkg/common"
)

// BreakdownEntry 打分拆解中的一列（名稱固定排序，輸出穩定）
type BreakdownEntry struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// InventoryUse 一天各菜色用到的庫存食材 id
type InventoryUse struct {
	Main  []string   `json:"main"`
	Soup  []string   `json:"soup"`
	Sides [][]string `json:"sides"`
}

// RenderedDay 渲染後的單日列。失敗日帶 Reason 與原始錯誤明細，
// 成功日帶菜色名稱、打分拆解與庫存使用。顯示值缺漏時一律為空字串。
type RenderedDay struct {
	Date     string `json:"date"`
	DayIndex int    `json:"day_index"`
	Failed   bool   `json:"failed"`

	Main  string `json:"main"`
	Sides string `json:"sides"`
	Soup  string `json:"soup"`
	Fruit string `json:"fruit"`
	Cost  string `json:"cost"`
	Score string `json:"score"`

	Reason         string           `json:"reason,omitempty"`
	ErrorDetail    []PlanError      `json:"error_detail,omitempty"`
	ScoreBreakdown []BreakdownEntry `json:"score_breakdown,omitempty"`
	InventoryUse   *InventoryUse    `json:"inventory_use,omitempty"`
}

// RenderedPlan 渲染後的完整計畫檢視
type RenderedPlan struct {
	Summary PlanSummary   `json:"summary"`
	Rows    []RenderedDay `json:"rows"`
}

// Render 渲染排程結果。錯誤先依 day_index 分組；有錯誤或標記失敗的
// 日子渲染為失敗列，其餘為成功列。所有巢狀欄位的存取都容忍缺漏，
// 任何一天缺資料都不會讓整份渲染失敗。
func Render(r *PlanResult) *RenderedPlan {
	out := &RenderedPlan{Rows: []RenderedDay{}}
	if r == nil {
		return out
	}
	out.Summary = r.Summary

	errByDay := map[int][]PlanError{}
	for _, e := range r.Errors {
		if e.DayIndex == nil {
			continue
		}
		errByDay[*e.DayIndex] = append(errByDay[*e.DayIndex], e)
	}

	for idx, d := range r.Days {
		dayIndex := idx
		if d.DayIndex != nil {
			dayIndex = *d.DayIndex
		}
		dayErrs := errByDay[dayIndex]

		if len(dayErrs) > 0 || d.Failed {
			out.Rows = append(out.Rows, renderFailedDay(d, dayIndex, dayErrs))
			continue
		}
		out.Rows = append(out.Rows, renderDay(d, dayIndex))
	}
	return out
}

func renderFailedDay(d DayResult, dayIndex int, dayErrs []PlanError) RenderedDay {
	// 失敗日：顯示原因，不要硬取 sides/soup/fruit
	mainName := "(主菜已排但明細不足)"
	if d.Items != nil && d.Items.Main != nil && d.Items.Main.Name != "" {
		mainName = d.Items.Main.Name
	}

	var reasons []string
	for _, e := range dayErrs {
		if e.Message != "" {
			reasons = append(reasons, e.Message)
		} else if e.Code != "" {
			reasons = append(reasons, e.Code)
		}
	}
	reason := strings.Join(reasons, " / ")
	if reason == "" {
		reason = "當天無可行組合"
	}

	detail := dayErrs
	if len(detail) == 0 {
		detail = []PlanError{{Message: reason}}
	}

	return RenderedDay{
		Date:        d.Date,
		DayIndex:    dayIndex,
		Failed:      true,
		Main:        mainName,
		Cost:        formatNumber(d.DayCost),
		Reason:      reason,
		ErrorDetail: detail,
	}
}

func renderDay(d DayResult, dayIndex int) RenderedDay {
	row := RenderedDay{
		Date:     d.Date,
		DayIndex: dayIndex,
		Cost:     formatNumber(d.DayCost),
		Score:    formatNumber(d.Score),
	}

	if d.Items != nil {
		row.Main = itemName(d.Items.Main)
		row.Soup = itemName(d.Items.Soup)
		row.Fruit = itemName(d.Items.Fruit)

		var sideNames []string
		use := &InventoryUse{Sides: [][]string{}}
		for _, s := range d.Items.Sides {
			if s == nil {
				continue
			}
			if s.Name != "" {
				sideNames = append(sideNames, s.Name)
			}
			use.Sides = append(use.Sides, s.UsedInventoryIngredients)
		}
		row.Sides = common.StringSliceToString(sideNames)

		if d.Items.Main != nil {
			use.Main = d.Items.Main.UsedInventoryIngredients
		}
		if d.Items.Soup != nil {
			use.Soup = d.Items.Soup.UsedInventoryIngredients
		}
		row.InventoryUse = use
	}

	names := make([]string, 0, len(d.ScoreBreakdown))
	for name := range d.ScoreBreakdown {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		row.ScoreBreakdown = append(row.ScoreBreakdown, BreakdownEntry{Name: name, Value: d.ScoreBreakdown[name]})
	}

	return row
}

func itemName(it *PlanItem) string {
	if it == nil {
		return ""
	}
	return it.Name
}

func formatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// FormatErrors 把錯誤清單串成一段可讀文字（含 traceback 與細節）
func FormatErrors(errs []PlanError) string {
	if len(errs) == 0 {
		return "（無更多資訊）"
	}

	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		s := ""
		if e.Code != "" {
			s += fmt.Sprintf("[%s] ", e.Code)
		}
		if e.Message != "" {
			s += e.Message
		} else {
			s += "(no message)"
		}
		if trace := e.Trace(); trace != "" {
			s += "\n" + trace
		} else if len(e.Details) > 0 {
			if detail, err := common.PrettyJSON(e.Details); err == nil {
				s += "\n" + detail
			}
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n\n- ")
}

// ErrorTraceText 錯誤詳情展開面板的內容：有 traceback 就串起來，
// 否則回傳整包錯誤的 JSON
func ErrorTraceText(errs []PlanError) string {
	var traces []string
	for _, e := range errs {
		if t := e.Trace(); t != "" {
			traces = append(traces, t)
		}
	}
	if len(traces) > 0 {
		return strings.Join(traces, "\n\n")
	}
	text, err := common.PrettyJSON(errs)
	if err != nil {
		return ""
	}
	return text
}

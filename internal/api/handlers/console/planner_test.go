package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"menu-console/internal/core/backend"
	"menu-console/internal/core/catalog"
	"menu-console/internal/core/planner"
	"menu-console/internal/core/session"
	"menu-console/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// planBackend 可調整行為的後端替身
type planBackend struct {
	validateOK   bool
	validateErrs []string
	planCalls    atomic.Int32
	exportCalls  atomic.Int32
	exportBody   []byte
}

func (b *planBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/catalog/ingredients", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]catalog.Ingredient{
			{ID: "ing_1", Name: "雞胸肉", Category: "肉類", DefaultUnit: "g"},
		})
	})
	mux.HandleFunc("/catalog/dishes", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]catalog.Dish{
			{ID: "dish_1", Name: "宮保雞丁", Role: "main", MeatType: "chicken"},
		})
	})
	mux.HandleFunc("/config/default", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"horizon_days": 30, "hard": {}, "soft": {}, "weights": {}, "search": {}}`))
	})
	mux.HandleFunc("/config/validate", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(planner.ValidateResult{OK: b.validateOK, Errors: b.validateErrs})
	})
	mux.HandleFunc("/plan", func(w http.ResponseWriter, r *http.Request) {
		b.planCalls.Add(1)
		w.Write([]byte(`{
			"ok": true,
			"result": {
				"summary": {"days": 1, "total_cost": 80, "avg_cost_per_day": 80, "total_score": 5},
				"days": [{"date": "2026-09-01", "day_index": 0}]
			}
		}`))
	})
	mux.HandleFunc("/export/excel", func(w http.ResponseWriter, r *http.Request) {
		b.exportCalls.Add(1)
		b.exportBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Disposition", `attachment; filename="menu.xlsx"`)
		w.Write([]byte("xlsx"))
	})
	return mux
}

type consoleFixture struct {
	router  *gin.Engine
	store   *session.Store
	backend *planBackend
}

func newConsoleFixture(t *testing.T) *consoleFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	stub := &planBackend{validateOK: true}
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	keys, err := session.NewKeyStore(&config.KeystoreConfig{Enabled: false}, "")
	require.NoError(t, err)

	client := backend.NewClient(&config.BackendConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}, keys)

	cache := catalog.NewCache()
	require.NoError(t, cache.Load(context.Background(), client))

	store := session.NewStore()

	h := NewHandler(store, planner.NewBinder(cache), client, cache, keys)

	router := gin.New()
	router.GET("/state", h.HandleState)
	router.POST("/defaults", h.HandleLoadDefaults)
	router.PUT("/form", h.HandleUpdateForm)
	router.POST("/chips", h.HandleAddChip)
	router.DELETE("/chips", h.HandleRemoveChip)
	router.POST("/apply-json", h.HandleApplyJSON)
	router.POST("/plan", h.HandlePlan)
	router.POST("/export", h.HandleExport)

	return &consoleFixture{router: router, store: store, backend: stub}
}

func (f *consoleFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestValidateFailureBlocksPlan(t *testing.T) {
	f := newConsoleFixture(t)
	f.backend.validateOK = false
	f.backend.validateErrs = []string{"horizon_days 必須大於 0", "cost 上限小於下限"}

	f.do(t, http.MethodPost, "/defaults", "")

	w := f.do(t, http.MethodPost, "/plan", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "驗證失敗：")
	assert.Contains(t, w.Body.String(), "horizon_days 必須大於 0")

	// 驗證沒過，/plan 一次都不能打到後端
	assert.Equal(t, int32(0), f.backend.planCalls.Load())
	assert.False(t, f.store.HasResult())
}

func TestPlanThenExport(t *testing.T) {
	f := newConsoleFixture(t)
	f.do(t, http.MethodPost, "/defaults", "")

	w := f.do(t, http.MethodPost, "/plan", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int32(1), f.backend.planCalls.Load())
	assert.True(t, f.store.HasResult())

	// 排程後又改了表單：匯出前會重新同步，送出的是目前這份設定
	w = f.do(t, http.MethodPut, "/form", `{"horizon_days": 12}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "xlsx", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "menu.xlsx")

	var exported map[string]any
	require.NoError(t, json.Unmarshal(f.backend.exportBody, &exported))
	assert.Equal(t, float64(12), exported["horizon_days"])
}

func TestExportWithoutResultIsRejected(t *testing.T) {
	f := newConsoleFixture(t)

	w := f.do(t, http.MethodPost, "/export", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "請先產生菜單。")
	assert.Equal(t, int32(0), f.backend.exportCalls.Load())
}

func TestChipAddResolvesAndRejects(t *testing.T) {
	f := newConsoleFixture(t)
	f.do(t, http.MethodPost, "/defaults", "")

	// 名稱唯一匹配
	w := f.do(t, http.MethodPost, "/chips", `{"field": "preferred_ingredients", "text": "雞胸肉"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"ing_1"}, f.store.Form().PreferredIngredients.IDs())

	// 同一筆再加一次不重複
	f.do(t, http.MethodPost, "/chips", `{"field": "preferred_ingredients", "text": "ing_1"}`)
	assert.Equal(t, []string{"ing_1"}, f.store.Form().PreferredIngredients.IDs())

	// 解析不了就擋下
	w = f.do(t, http.MethodPost, "/chips", `{"field": "excluded_dishes", "text": "不存在的菜"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "找不到符合的菜色")

	// 移除
	w = f.do(t, http.MethodDelete, "/chips?field=preferred_ingredients&id=ing_1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.store.Form().PreferredIngredients.IDs())
}

func TestApplyJSONReplacesState(t *testing.T) {
	f := newConsoleFixture(t)
	f.do(t, http.MethodPost, "/defaults", "")

	w := f.do(t, http.MethodPost, "/apply-json",
		`{"text": "{\"horizon_days\": 3, \"hard\": {\"allowed_main_meat_types\": [\"fish\"]}}"}`)
	require.Equal(t, http.StatusOK, w.Code)

	form := f.store.Form()
	assert.Equal(t, 3, form.HorizonDays)
	assert.True(t, form.MeatTypes["fish"])
	assert.False(t, form.MeatTypes["pork"])

	// 格式錯誤時整份拒絕，狀態不動
	w = f.do(t, http.MethodPost, "/apply-json", `{"text": "{broken"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "JSON 解析失敗")
	assert.Equal(t, 3, f.store.Form().HorizonDays)
}

func TestConcurrentCommandsKeepStateConsistent(t *testing.T) {
	f := newConsoleFixture(t)
	f.do(t, http.MethodPost, "/defaults", "")

	// 表單更新、chip 新增與狀態查詢同時進行：
	// 指令鎖讓改動一個接一個跑，查詢只拿深拷貝
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				f.do(t, http.MethodPut, "/form",
					fmt.Sprintf(`{"horizon_days": %d, "meat_types": {"chicken": true}}`, i+1))
			case 1:
				f.do(t, http.MethodPost, "/chips", `{"field": "preferred_ingredients", "text": "ing_1"}`)
			default:
				f.do(t, http.MethodGet, "/state", "")
			}
		}(i)
	}
	wg.Wait()

	form := f.store.Form()
	assert.Equal(t, []string{"ing_1"}, form.PreferredIngredients.IDs())
	// 最後提交的表單與設定文字是同一筆
	assert.Contains(t, f.store.Text(), fmt.Sprintf(`"horizon_days": %d`, form.HorizonDays))
}

func TestUpdateFormSyncsConfigText(t *testing.T) {
	f := newConsoleFixture(t)
	f.do(t, http.MethodPost, "/defaults", "")

	w := f.do(t, http.MethodPut, "/form", `{
		"horizon_days": 10,
		"cost_min": 40,
		"cost_max": 90,
		"meat_types": {"chicken": true, "pork": false, "beef": true, "fish": true, "seafood": true, "vegetarian": true},
		"no_consecutive_same_main_meat": true,
		"weekly_max_main_meat": {"chicken": 3},
		"prefer_use_inventory": true,
		"prefer_near_expiry": false
	}`)
	require.Equal(t, http.StatusOK, w.Code)

	form := f.store.Form()
	assert.Equal(t, 10, form.HorizonDays)
	assert.False(t, form.MeatTypes["pork"])
	assert.Equal(t, 3, form.WeeklyQuota["chicken"])

	// 設定文字跟著表單走
	text := f.store.Text()
	assert.Contains(t, text, `"horizon_days": 10`)
	assert.Contains(t, text, `"no_consecutive_same_main_meat": true`)
}

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"menu-console/internal/core/catalog"
	"menu-console/internal/core/planner"
	"menu-console/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubKeys struct{ key string }

func (s stubKeys) AdminKey(ctx context.Context) string { return s.key }

func newTestClient(t *testing.T, handler http.Handler, adminKey string) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.BackendConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}
	return NewClient(cfg, stubKeys{key: adminKey}), srv
}

func TestListIngredients(t *testing.T) {
	// 只註冊正式路徑：打錯路徑會 404，列表就讀不回來
	mux := http.NewServeMux()
	mux.HandleFunc("/catalog/ingredients", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode([]catalog.Ingredient{
			{ID: "ing_1", Name: "雞胸肉", Category: "肉類", DefaultUnit: "g"},
		})
	})

	c, _ := newTestClient(t, mux, "")
	out, err := c.ListIngredients(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "ing_1", out[0].ID)
}

func TestCatalogListPaths(t *testing.T) {
	var paths []string
	mux := http.NewServeMux()
	mux.HandleFunc("/catalog/ingredients", func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte("[]"))
	})
	mux.HandleFunc("/catalog/dishes", func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte("[]"))
	})

	c, _ := newTestClient(t, mux, "")

	_, err := c.ListIngredients(context.Background())
	require.NoError(t, err)
	_, err = c.ListDishes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"/catalog/ingredients", "/catalog/dishes"}, paths)
}

func TestAdminKeyHeader(t *testing.T) {
	var gotKey string
	var hasHeader bool
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/catalog/ingredients/ing_1", func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Admin-Key")
		_, hasHeader = r.Header["X-Admin-Key"]
		w.WriteHeader(http.StatusOK)
	})

	c, _ := newTestClient(t, mux, "secret-key-123")
	err := c.UpsertIngredient(context.Background(), catalog.Ingredient{
		ID: "ing_1", Name: "雞胸肉", Category: "肉類", DefaultUnit: "g",
	})
	require.NoError(t, err)
	assert.Equal(t, "secret-key-123", gotKey)

	// 金鑰未設定時連 header 都不送
	c2, _ := newTestClient(t, mux, "")
	require.NoError(t, c2.UpsertIngredient(context.Background(), catalog.Ingredient{
		ID: "ing_1", Name: "雞胸肉", Category: "肉類", DefaultUnit: "g",
	}))
	assert.False(t, hasHeader)
}

func TestBackendErrorDetailVariants(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"字串 detail", `{"detail": "需要管理金鑰"}`, "需要管理金鑰"},
		{"物件 detail", `{"detail": {"message": "金鑰無效"}}`, "金鑰無效"},
		{"陣列 detail", `{"detail": [{"msg": "欄位 a 必填"}, {"msg": "欄位 b 必填"}]}`, "欄位 a 必填 / 欄位 b 必填"},
		{"無 detail", `{}`, "HTTP 403"},
		{"非 JSON", `boom`, "HTTP 403"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/admin/catalog/ingredients/x", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(tc.body))
			})

			c, _ := newTestClient(t, mux, "k")
			err := c.DeleteIngredient(context.Background(), "x")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestGetInventoryNullAndMissing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/catalog/ingredients/ing_null/inventory", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	})
	mux.HandleFunc("/admin/catalog/ingredients/ing_404/inventory", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/admin/catalog/ingredients/ing_1/inventory", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(catalog.InventoryRecord{QtyOnHand: 500, Unit: "g", UpdatedAt: "2026-08-31"})
	})

	c, _ := newTestClient(t, mux, "k")

	inv, err := c.GetInventory(context.Background(), "ing_null")
	require.NoError(t, err)
	assert.Nil(t, inv)

	inv, err = c.GetInventory(context.Background(), "ing_404")
	require.NoError(t, err)
	assert.Nil(t, inv)

	inv, err = c.GetInventory(context.Background(), "ing_1")
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, 500.0, inv.QtyOnHand)
}

func TestUpsertPricePathAndBody(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	})

	c, _ := newTestClient(t, mux, "k")
	err := c.UpsertPrice(context.Background(), "ing_1", catalog.PriceRecord{
		PriceDate: "2026-08-31", PricePerUnit: 3.5, Unit: "g",
	})
	require.NoError(t, err)
	assert.Equal(t, "/admin/catalog/ingredients/ing_1/prices/2026-08-31", gotPath)
	assert.Equal(t, 3.5, gotBody["price_per_unit"])
	assert.Equal(t, "g", gotBody["unit"])
	assert.NotContains(t, gotBody, "price_date")
}

func TestValidateConfig(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/config/validate", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(planner.ValidateResult{OK: false, Errors: []string{"horizon_days 必須大於 0"}})
	})

	c, _ := newTestClient(t, mux, "")
	res, err := c.ValidateConfig(context.Background(), planner.Configuration{"horizon_days": 0})
	require.NoError(t, err)
	assert.False(t, res.OK)
	require.Len(t, res.Errors, 1)
}

func TestPlanParsesResult(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/plan", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"ok": true,
			"result": {
				"summary": {"days": 1, "total_cost": 80, "avg_cost_per_day": 80, "total_score": 5},
				"days": [{"date": "2026-09-01", "day_index": 0}]
			}
		}`))
	})

	c, _ := newTestClient(t, mux, "")
	resp, err := c.Plan(context.Background(), planner.Configuration{})
	require.NoError(t, err)
	assert.True(t, resp.OK)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 1, resp.Result.Summary.Days)
	require.Len(t, resp.Result.Days, 1)
}

func TestExportExcelFilename(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/export/excel", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="menu_20260901.xlsx"`)
		w.Write([]byte("xlsx-bytes"))
	})

	c, _ := newTestClient(t, mux, "")
	data, filename, err := c.ExportExcel(context.Background(), planner.Configuration{})
	require.NoError(t, err)
	assert.Equal(t, "menu_20260901.xlsx", filename)
	assert.Equal(t, []byte("xlsx-bytes"), data)
}

func TestExportExcelFilenameFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/export/excel", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("xlsx"))
	})

	c, _ := newTestClient(t, mux, "")
	_, filename, err := c.ExportExcel(context.Background(), planner.Configuration{})
	require.NoError(t, err)
	assert.Equal(t, "menu_plan.xlsx", filename)
}

func TestExportExcelErrorMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/export/excel", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "設定驗證失敗"}`))
	})

	c, _ := newTestClient(t, mux, "")
	_, _, err := c.ExportExcel(context.Background(), planner.Configuration{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "匯出失敗：設定驗證失敗")
}

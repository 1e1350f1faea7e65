// Package backend 菜單排程後端的 HTTP client。所有對後端的呼叫都
// 集中在這裡：目錄讀寫、設定取得與驗證、排程與 Excel 匯出。
// 管理路由每次請求都重新取一次 X-Admin-Key，金鑰更新後立即生效。
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"menu-console/internal/core/catalog"
	"menu-console/internal/core/planner"
	"menu-console/internal/infrastructure/config"
	"menu-console/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// KeyProvider 管理金鑰來源（由金鑰儲存槽實作）
type KeyProvider interface {
	AdminKey(ctx context.Context) string
}

// Client 菜單排程後端服務
type Client struct {
	config *config.BackendConfig
	client *resty.Client
	keys   KeyProvider
}

// NewClient 創建後端 client
func NewClient(cfg *config.BackendConfig, keys KeyProvider) *Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &Client{
		config: cfg,
		client: client,
		keys:   keys,
	}
}

// adminReq 帶管理金鑰的請求（金鑰為空時不送 header）
func (c *Client) adminReq(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx)
	if k := c.keys.AdminKey(ctx); k != "" {
		req.SetHeader("X-Admin-Key", k)
	}
	return req
}

// backendError 把非 2xx 回應轉成錯誤。訊息優先取 detail：
// 字串直接用、物件取 message、陣列以 " / " 串接，否則退回 HTTP 狀態碼。
func backendError(resp *resty.Response) error {
	var payload struct {
		Detail any `json:"detail"`
	}
	msg := ""
	if err := json.Unmarshal(resp.Body(), &payload); err == nil {
		switch d := payload.Detail.(type) {
		case string:
			msg = d
		case map[string]any:
			if m, ok := d["message"].(string); ok && m != "" {
				msg = m
			} else if raw, err := json.Marshal(d); err == nil {
				msg = string(raw)
			}
		case []any:
			var parts []string
			for _, item := range d {
				switch v := item.(type) {
				case string:
					parts = append(parts, v)
				case map[string]any:
					if m, ok := v["msg"].(string); ok && m != "" {
						parts = append(parts, m)
					} else if m, ok := v["message"].(string); ok && m != "" {
						parts = append(parts, m)
					} else if raw, err := json.Marshal(v); err == nil {
						parts = append(parts, string(raw))
					}
				}
			}
			msg = strings.Join(parts, " / ")
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("HTTP %d", resp.StatusCode())
	}
	return common.NewError(common.ErrCodeBackendError, msg, http.StatusBadGateway, nil)
}

// ---- 目錄：讀取 ----

// ListIngredients 取得全部食材
func (c *Client) ListIngredients(ctx context.Context) ([]catalog.Ingredient, error) {
	start := time.Now()
	resp, err := c.client.R().SetContext(ctx).Get("/catalog/ingredients")
	common.LogBackendCall("list_ingredients", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, backendError(resp)
	}

	var out []catalog.Ingredient
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse ingredients response: %w", err)
	}
	return out, nil
}

// ListDishes 取得全部菜色
func (c *Client) ListDishes(ctx context.Context) ([]catalog.Dish, error) {
	start := time.Now()
	resp, err := c.client.R().SetContext(ctx).Get("/catalog/dishes")
	common.LogBackendCall("list_dishes", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, backendError(resp)
	}

	var out []catalog.Dish
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse dishes response: %w", err)
	}
	return out, nil
}

// ---- 目錄：維護（管理路由） ----

type ingredientUpsert struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	ProteinGroup *string `json:"protein_group"`
	DefaultUnit  string  `json:"default_unit"`
}

// UpsertIngredient 新增或覆寫一筆食材
func (c *Client) UpsertIngredient(ctx context.Context, ing catalog.Ingredient) error {
	body := ingredientUpsert{
		Name:        ing.Name,
		Category:    ing.Category,
		DefaultUnit: ing.DefaultUnit,
	}
	if ing.ProteinGroup != "" {
		body.ProteinGroup = &ing.ProteinGroup
	}

	start := time.Now()
	resp, err := c.adminReq(ctx).
		SetBody(body).
		Put("/admin/catalog/ingredients/" + url.PathEscape(ing.ID))
	common.LogBackendCall("upsert_ingredient", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upsert ingredient: %w", err)
	}
	if resp.StatusCode() >= http.StatusMultipleChoices {
		return backendError(resp)
	}
	return nil
}

// DeleteIngredient 刪除一筆食材
func (c *Client) DeleteIngredient(ctx context.Context, id string) error {
	start := time.Now()
	resp, err := c.adminReq(ctx).Delete("/admin/catalog/ingredients/" + url.PathEscape(id))
	common.LogBackendCall("delete_ingredient", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete ingredient: %w", err)
	}
	if resp.StatusCode() >= http.StatusMultipleChoices {
		return backendError(resp)
	}
	return nil
}

type dishUpsert struct {
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Cuisine  *string  `json:"cuisine"`
	MeatType *string  `json:"meat_type"`
	Tags     []string `json:"tags"`
}

// UpsertDish 新增或覆寫一道菜色
func (c *Client) UpsertDish(ctx context.Context, dish catalog.Dish) error {
	body := dishUpsert{
		Name: dish.Name,
		Role: dish.Role,
		Tags: dish.Tags,
	}
	if body.Tags == nil {
		body.Tags = []string{}
	}
	if dish.Cuisine != "" {
		body.Cuisine = &dish.Cuisine
	}
	if dish.MeatType != "" {
		body.MeatType = &dish.MeatType
	}

	start := time.Now()
	resp, err := c.adminReq(ctx).
		SetBody(body).
		Put("/admin/catalog/dishes/" + url.PathEscape(dish.ID))
	common.LogBackendCall("upsert_dish", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upsert dish: %w", err)
	}
	if resp.StatusCode() >= http.StatusMultipleChoices {
		return backendError(resp)
	}
	return nil
}

// DeleteDish 刪除一道菜色
func (c *Client) DeleteDish(ctx context.Context, id string) error {
	start := time.Now()
	resp, err := c.adminReq(ctx).Delete("/admin/catalog/dishes/" + url.PathEscape(id))
	common.LogBackendCall("delete_dish", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete dish: %w", err)
	}
	if resp.StatusCode() >= http.StatusMultipleChoices {
		return backendError(resp)
	}
	return nil
}

// GetDishIngredients 取得菜色組成
func (c *Client) GetDishIngredients(ctx context.Context, dishID string) ([]catalog.DishIngredient, error) {
	start := time.Now()
	resp, err := c.adminReq(ctx).Get("/admin/catalog/dishes/" + url.PathEscape(dishID) + "/ingredients")
	common.LogBackendCall("get_dish_ingredients", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get dish ingredients: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, backendError(resp)
	}

	var out []catalog.DishIngredient
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse dish ingredients response: %w", err)
	}
	return out, nil
}

// PutDishIngredients 整份覆寫菜色組成
func (c *Client) PutDishIngredients(ctx context.Context, dishID string, items []catalog.DishIngredient) error {
	if items == nil {
		items = []catalog.DishIngredient{}
	}

	start := time.Now()
	resp, err := c.adminReq(ctx).
		SetBody(items).
		Put("/admin/catalog/dishes/" + url.PathEscape(dishID) + "/ingredients")
	common.LogBackendCall("put_dish_ingredients", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to put dish ingredients: %w", err)
	}
	if resp.StatusCode() >= http.StatusMultipleChoices {
		return backendError(resp)
	}
	return nil
}

// ListPrices 取得食材價格，最新在前，limit 為筆數上限
func (c *Client) ListPrices(ctx context.Context, ingredientID string, limit int) ([]catalog.PriceRecord, error) {
	start := time.Now()
	resp, err := c.adminReq(ctx).
		SetQueryParam("limit", fmt.Sprintf("%d", limit)).
		Get("/admin/catalog/ingredients/" + url.PathEscape(ingredientID) + "/prices")
	common.LogBackendCall("list_prices", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, backendError(resp)
	}

	var out []catalog.PriceRecord
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse prices response: %w", err)
	}
	return out, nil
}

type priceUpsert struct {
	PricePerUnit float64 `json:"price_per_unit"`
	Unit         string  `json:"unit"`
}

// UpsertPrice 新增或覆寫某日價格
func (c *Client) UpsertPrice(ctx context.Context, ingredientID string, rec catalog.PriceRecord) error {
	start := time.Now()
	resp, err := c.adminReq(ctx).
		SetBody(priceUpsert{PricePerUnit: rec.PricePerUnit, Unit: rec.Unit}).
		Put("/admin/catalog/ingredients/" + url.PathEscape(ingredientID) + "/prices/" + url.PathEscape(rec.PriceDate))
	common.LogBackendCall("upsert_price", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upsert price: %w", err)
	}
	if resp.StatusCode() >= http.StatusMultipleChoices {
		return backendError(resp)
	}
	return nil
}

// DeletePrice 刪除某日價格
func (c *Client) DeletePrice(ctx context.Context, ingredientID, priceDate string) error {
	start := time.Now()
	resp, err := c.adminReq(ctx).
		Delete("/admin/catalog/ingredients/" + url.PathEscape(ingredientID) + "/prices/" + url.PathEscape(priceDate))
	common.LogBackendCall("delete_price", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete price: %w", err)
	}
	if resp.StatusCode() >= http.StatusMultipleChoices {
		return backendError(resp)
	}
	return nil
}

// GetInventory 取得食材庫存；後端回 null 或 404 時視為沒有庫存，回傳 nil
func (c *Client) GetInventory(ctx context.Context, ingredientID string) (*catalog.InventoryRecord, error) {
	start := time.Now()
	resp, err := c.adminReq(ctx).Get("/admin/catalog/ingredients/" + url.PathEscape(ingredientID) + "/inventory")
	common.LogBackendCall("get_inventory", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, backendError(resp)
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" || body == "null" {
		return nil, nil
	}

	var out catalog.InventoryRecord
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse inventory response: %w", err)
	}
	return &out, nil
}

type inventoryUpsert struct {
	QtyOnHand  float64 `json:"qty_on_hand"`
	Unit       string  `json:"unit"`
	UpdatedAt  string  `json:"updated_at"`
	ExpiryDate *string `json:"expiry_date"`
}

// PutInventory 覆寫食材庫存
func (c *Client) PutInventory(ctx context.Context, ingredientID string, rec catalog.InventoryRecord) error {
	body := inventoryUpsert{
		QtyOnHand: rec.QtyOnHand,
		Unit:      rec.Unit,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.ExpiryDate != "" {
		body.ExpiryDate = &rec.ExpiryDate
	}

	start := time.Now()
	resp, err := c.adminReq(ctx).
		SetBody(body).
		Put("/admin/catalog/ingredients/" + url.PathEscape(ingredientID) + "/inventory")
	common.LogBackendCall("put_inventory", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to put inventory: %w", err)
	}
	if resp.StatusCode() >= http.StatusMultipleChoices {
		return backendError(resp)
	}
	return nil
}

// ---- 設定與排程 ----

// DefaultConfig 取得後端的預設排程設定
func (c *Client) DefaultConfig(ctx context.Context) (planner.Configuration, error) {
	start := time.Now()
	resp, err := c.client.R().SetContext(ctx).Get("/config/default")
	common.LogBackendCall("default_config", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to get default config: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, backendError(resp)
	}

	var cfg planner.Configuration
	if err := json.Unmarshal(resp.Body(), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse default config: %w", err)
	}
	return cfg, nil
}

// ValidateConfig 請後端驗證設定，回傳 ok 與錯誤訊息清單
func (c *Client) ValidateConfig(ctx context.Context, cfg planner.Configuration) (*planner.ValidateResult, error) {
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(cfg).
		Post("/config/validate")
	common.LogBackendCall("validate_config", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, backendError(resp)
	}

	var result planner.ValidateResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse validate response: %w", err)
	}
	return &result, nil
}

// Plan 執行排程。HTTP 層失敗以外，後端也可能回 ok=false 帶錯誤清單，
// 由呼叫端決定如何呈現。
func (c *Client) Plan(ctx context.Context, cfg planner.Configuration) (*planner.PlanResponse, error) {
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(cfg).
		Post("/plan")
	common.LogBackendCall("plan", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to run plan: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, backendError(resp)
	}

	var result planner.PlanResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse plan response: %w", err)
	}
	return &result, nil
}

var filenamePattern = regexp.MustCompile(`filename="([^"]+)"`)

// ExportExcel 以同一份設定要求後端產出 Excel。回傳檔案內容與檔名，
// 檔名取自 Content-Disposition，取不到時用預設名。
func (c *Client) ExportExcel(ctx context.Context, cfg planner.Configuration) ([]byte, string, error) {
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(cfg).
		Post("/export/excel")
	common.LogBackendCall("export_excel", time.Since(start), err)
	if err != nil {
		return nil, "", fmt.Errorf("failed to export excel: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, "", common.NewError(common.ErrCodeBackendError, "匯出失敗："+backendErrorMessage(resp), http.StatusBadGateway, nil)
	}

	filename := "menu_plan.xlsx"
	if m := filenamePattern.FindStringSubmatch(resp.Header().Get("Content-Disposition")); m != nil {
		filename = m[1]
	}
	return resp.Body(), filename, nil
}

func backendErrorMessage(resp *resty.Response) string {
	err := backendError(resp)
	if ce, ok := err.(*common.CustomError); ok {
		return ce.Message
	}
	return err.Error()
}

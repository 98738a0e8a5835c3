package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/testutil"
)

func TestTableFiltersStock(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()

	// 责任人与库位类型选项来自数据库
	env.DB.Create(&entity.Owner{Kind: "user", Name: "张三"})
	env.DB.Create(&entity.LocationType{Name: "货架"})

	w := testutil.DoRequest(env.Router, "GET", "/api/ui/table-filters/stock/", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := dataOf(t, testutil.ParseResponse(w))
	filters := data["filters"].(map[string]interface{})
	if len(filters) == 0 {
		t.Fatalf("Expected non-empty filter set for stock table")
	}
	if _, ok := filters["active"]; !ok {
		t.Errorf("Expected active filter for stock table, got keys %v", filterKeys(filters))
	}
	// 状态筛选器带静态选项
	statusFilter, ok := filters["status"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected status filter for stock table")
	}
	choices, _ := statusFilter["choices"].([]interface{})
	if len(choices) == 0 {
		t.Errorf("Expected status choices to be populated")
	}
}

func TestTableFiltersCaseInsensitive(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "GET", "/api/ui/table-filters/SalesOrder/", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := dataOf(t, testutil.ParseResponse(w))
	if data["table"] != "salesorder" {
		t.Errorf("Expected normalized table name salesorder, got %v", data["table"])
	}
	filters := data["filters"].(map[string]interface{})
	if len(filters) == 0 {
		t.Errorf("Expected filters for mixed-case table name")
	}
}

func TestTableFiltersUnknownTable(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "GET", "/api/ui/table-filters/nosuchtable/", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for unknown table, got %d: %s", w.Code, w.Body.String())
	}
	data := dataOf(t, testutil.ParseResponse(w))
	filters := data["filters"].(map[string]interface{})
	if len(filters) != 0 {
		t.Errorf("Expected empty filter set for unknown table, got %v", filterKeys(filters))
	}
}

func TestStatusChoicesAndRender(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()

	w := testutil.DoRequest(env.Router, "GET", "/api/ui/status/salesorder/", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	choices := dataOf(t, testutil.ParseResponse(w))["choices"].([]interface{})
	if len(choices) != 8 {
		t.Errorf("Expected 8 sales order status choices, got %d", len(choices))
	}

	// 已知状态码渲染为配色徽章
	w2 := testutil.DoRequest(env.Router, "GET", "/api/ui/status/salesorder/render/?key=20", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	html := dataOf(t, testutil.ParseResponse(w2))["html"].(string)
	if !strings.Contains(html, "bg-success") || !strings.Contains(html, "Shipped") {
		t.Errorf("Expected success badge with Shipped label, got %s", html)
	}

	// 未知状态码降级为原始数字 + dark
	w3 := testutil.DoRequest(env.Router, "GET", "/api/ui/status/salesorder/render/?key=999", nil, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("Expected 200 for unknown key, got %d: %s", w3.Code, w3.Body.String())
	}
	html3 := dataOf(t, testutil.ParseResponse(w3))["html"].(string)
	if !strings.Contains(html3, "bg-dark") || !strings.Contains(html3, "999") {
		t.Errorf("Expected dark badge with raw key 999, got %s", html3)
	}

	// 未知状态表
	w4 := testutil.DoRequest(env.Router, "GET", "/api/ui/status/nosuchtable/", nil, token)
	if w4.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown status table, got %d: %s", w4.Code, w4.Body.String())
	}
}

func filterKeys(filters map[string]interface{}) []string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	return keys
}

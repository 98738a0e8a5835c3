package handler

import (
	"net/http"
	"testing"

	"github.com/bitfantasy/nimo-ims/internal/ims/entity"
	"github.com/bitfantasy/nimo-ims/internal/ims/testutil"
)

func TestStockCreateAndAdjust(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	part := testutil.SeedPart(t, env.DB, "RES-0001", "电阻 10K")
	loc := testutil.SeedLocation(t, env.DB, "A区货架", false)

	// 创建库存项
	w := testutil.DoRequest(env.Router, "POST", "/api/stock/", map[string]interface{}{
		"part":     part.ID,
		"location": loc.ID,
		"quantity": 100,
		"batch":    "B2024-001",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := dataOf(t, testutil.ParseResponse(w))
	itemID := data["id"].(string)
	if data["part_ipn"] != "RES-0001" {
		t.Errorf("Expected denormalized IPN RES-0001, got %v", data["part_ipn"])
	}

	// 加库存
	w2 := testutil.DoRequest(env.Router, "POST", "/api/stock/add/", map[string]interface{}{
		"item":     itemID,
		"quantity": 50,
	}, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	if qty := dataOf(t, testutil.ParseResponse(w2))["quantity"].(float64); qty != 150 {
		t.Errorf("Expected quantity 150 after add, got %v", qty)
	}

	// 减库存超出现有数量
	w3 := testutil.DoRequest(env.Router, "POST", "/api/stock/remove/", map[string]interface{}{
		"item":     itemID,
		"quantity": 500,
	}, token)
	if w3.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for over-removal, got %d: %s", w3.Code, w3.Body.String())
	}

	// 盘点置数
	w4 := testutil.DoRequest(env.Router, "POST", "/api/stock/count/", map[string]interface{}{
		"item":     itemID,
		"quantity": 120,
	}, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w4.Code, w4.Body.String())
	}
	if qty := dataOf(t, testutil.ParseResponse(w4))["quantity"].(float64); qty != 120 {
		t.Errorf("Expected quantity 120 after count, got %v", qty)
	}

	// 履历应包含创建、加、盘点三条
	w5 := testutil.DoRequest(env.Router, "GET", "/api/stock/"+itemID+"/tracking/", nil, token)
	if w5.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w5.Code, w5.Body.String())
	}
	entries := dataOf(t, testutil.ParseResponse(w5))["items"].([]interface{})
	if len(entries) != 3 {
		t.Errorf("Expected 3 tracking entries, got %d", len(entries))
	}
}

func TestStockStructuralLocationRejected(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	part := testutil.SeedPart(t, env.DB, "CAP-0001", "电容 100nF")
	structural := testutil.SeedLocation(t, env.DB, "仓库总区", true)

	w := testutil.DoRequest(env.Router, "POST", "/api/stock/", map[string]interface{}{
		"part":     part.ID,
		"location": structural.ID,
		"quantity": 10,
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for structural location, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStockSerializedQuantity(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	part := testutil.SeedPart(t, env.DB, "DEV-0001", "整机", func(p *entity.Part) {
		p.Trackable = true
	})
	loc := testutil.SeedLocation(t, env.DB, "成品区", false)

	w := testutil.DoRequest(env.Router, "POST", "/api/stock/", map[string]interface{}{
		"part":     part.ID,
		"location": loc.ID,
		"quantity": 5,
		"serial":   "SN-001",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for serialized quantity > 1, got %d: %s", w.Code, w.Body.String())
	}

	w2 := testutil.DoRequest(env.Router, "POST", "/api/stock/", map[string]interface{}{
		"part":     part.ID,
		"location": loc.ID,
		"quantity": 1,
		"serial":   "SN-001",
	}, token)
	if w2.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w2.Code, w2.Body.String())
	}
}

func TestStockTransferAndMerge(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	part := testutil.SeedPart(t, env.DB, "LED-0001", "LED 白光")
	locA := testutil.SeedLocation(t, env.DB, "A货架", false)
	locB := testutil.SeedLocation(t, env.DB, "B货架", false)

	createItem := func(qty float64, batch string) string {
		w := testutil.DoRequest(env.Router, "POST", "/api/stock/", map[string]interface{}{
			"part": part.ID, "location": locA.ID, "quantity": qty, "batch": batch,
		}, token)
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}
		return dataOf(t, testutil.ParseResponse(w))["id"].(string)
	}

	item1 := createItem(30, "B1")
	item2 := createItem(20, "B2")

	// 转移
	w := testutil.DoRequest(env.Router, "POST", "/api/stock/transfer/", map[string]interface{}{
		"item":     item1,
		"location": locB.ID,
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := dataOf(t, testutil.ParseResponse(w))["location"].(string); got != locB.ID {
		t.Errorf("Expected location %s after transfer, got %v", locB.ID, got)
	}

	// 合并：批次不同只产生警告，数量相加
	w2 := testutil.DoRequest(env.Router, "POST", "/api/stock/merge/", map[string]interface{}{
		"items":    []string{item1, item2},
		"location": locB.ID,
	}, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	merged := dataOf(t, testutil.ParseResponse(w2))
	mergedItem := merged["item"].(map[string]interface{})
	if qty := mergedItem["quantity"].(float64); qty != 50 {
		t.Errorf("Expected merged quantity 50, got %v", qty)
	}
	warnings, _ := merged["warnings"].([]interface{})
	if len(warnings) == 0 {
		t.Errorf("Expected batch mismatch warning on merge")
	}
}

func TestStockMergeDifferentPartsRejected(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	partA := testutil.SeedPart(t, env.DB, "IC-0001", "主控芯片")
	partB := testutil.SeedPart(t, env.DB, "IC-0002", "电源芯片")
	loc := testutil.SeedLocation(t, env.DB, "IC柜", false)

	mk := func(p *entity.Part) string {
		w := testutil.DoRequest(env.Router, "POST", "/api/stock/", map[string]interface{}{
			"part": p.ID, "location": loc.ID, "quantity": 10,
		}, token)
		return dataOf(t, testutil.ParseResponse(w))["id"].(string)
	}

	w := testutil.DoRequest(env.Router, "POST", "/api/stock/merge/", map[string]interface{}{
		"items": []string{mk(partA), mk(partB)},
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for cross-part merge, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStockCreateWithoutLocation(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	part := testutil.SeedPart(t, env.DB, "SCR-0001", "螺丝 M3")

	// 库位、客户等可选外键留空时正常入库
	w := testutil.DoRequest(env.Router, "POST", "/api/stock/", map[string]interface{}{
		"part":     part.ID,
		"quantity": 200,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := dataOf(t, testutil.ParseResponse(w))
	if data["location"] != nil {
		t.Errorf("Expected null location, got %v", data["location"])
	}
	if data["customer"] != nil {
		t.Errorf("Expected null customer, got %v", data["customer"])
	}
}

func TestStockSearchByPartIPN(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	partA := testutil.SeedPart(t, env.DB, "FUSE-0001", "保险丝 1A")
	partB := testutil.SeedPart(t, env.DB, "RELAY-0001", "继电器")
	loc := testutil.SeedLocation(t, env.DB, "元件柜", false)

	for _, p := range []string{partA.ID, partB.ID} {
		w := testutil.DoRequest(env.Router, "POST", "/api/stock/", map[string]interface{}{
			"part": p, "location": loc.ID, "quantity": 10,
		}, token)
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}
	}

	w := testutil.DoRequest(env.Router, "GET", "/api/stock/?search=FUSE-0001", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	items := dataOf(t, testutil.ParseResponse(w))["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("Expected 1 item for IPN search, got %d", len(items))
	}
	if got := items[0].(map[string]interface{})["part_ipn"]; got != "FUSE-0001" {
		t.Errorf("Expected part_ipn FUSE-0001, got %v", got)
	}
}

func TestStockMergeTargetsFirstRequested(t *testing.T) {
	env := setupIMSTest(t)
	token := testutil.DefaultTestToken()
	part := testutil.SeedPart(t, env.DB, "NUT-0001", "螺母 M4")
	loc := testutil.SeedLocation(t, env.DB, "五金柜", false)

	mk := func(qty float64) string {
		w := testutil.DoRequest(env.Router, "POST", "/api/stock/", map[string]interface{}{
			"part": part.ID, "location": loc.ID, "quantity": qty,
		}, token)
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}
		return dataOf(t, testutil.ParseResponse(w))["id"].(string)
	}

	first := mk(30)
	second := mk(70)

	// 请求里排在首位的库存项才是合并目标，与数据库返回顺序无关
	w := testutil.DoRequest(env.Router, "POST", "/api/stock/merge/", map[string]interface{}{
		"items": []string{second, first},
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	merged := dataOf(t, testutil.ParseResponse(w))["item"].(map[string]interface{})
	if merged["id"] != second {
		t.Errorf("Expected merge target %s, got %v", second, merged["id"])
	}
	if qty := merged["quantity"].(float64); qty != 100 {
		t.Errorf("Expected merged quantity 100, got %v", qty)
	}

	w2 := testutil.DoRequest(env.Router, "GET", "/api/stock/"+first+"/", nil, token)
	if w2.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for merged-away item, got %d", w2.Code)
	}

	// 含不存在ID的合并请求返回404
	w3 := testutil.DoRequest(env.Router, "POST", "/api/stock/merge/", map[string]interface{}{
		"items": []string{second, "00000000-0000-0000-0000-000000000000"},
	}, token)
	if w3.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown merge member, got %d: %s", w3.Code, w3.Body.String())
	}
}
